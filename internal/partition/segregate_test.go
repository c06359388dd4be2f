package partition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegregate(t *testing.T) {
	tests := []struct {
		name  string
		items []int
		size  int
		want  [][]int
	}{
		{"empty", nil, 3, nil},
		{"exact", []int{1, 2, 3, 4}, 2, [][]int{{1, 2}, {3, 4}}},
		{"remainder", []int{1, 2, 3, 4, 5}, 2, [][]int{{1, 2}, {3, 4}, {5}}},
		{"size larger than input", []int{1, 2}, 10, [][]int{{1, 2}}},
		{"size one", []int{1, 2, 3}, 1, [][]int{{1}, {2}, {3}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Segregate(tt.items, tt.size)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSegregate_RejectsNonPositiveSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		_, err := Segregate([]int{1}, size)
		require.ErrorIs(t, err, ErrInvalidConfiguration)
	}
}

func TestSegregate_DoesNotAliasInput(t *testing.T) {
	items := []int{1, 2, 3}
	groups, err := Segregate(items, 2)
	require.NoError(t, err)
	groups[0][0] = 99
	assert.Equal(t, []int{1, 2, 3}, items)
}

func TestSlice(t *testing.T) {
	items := []string{"a", "b", "c", "d"}

	assert.Equal(t, []string{"b", "c"}, Slice(items, 1, 2))
	assert.Equal(t, []string{"c", "d"}, Slice(items, 2, 100))
	assert.Equal(t, []string{}, Slice(items, 4, 1))
	assert.Equal(t, []string{}, Slice(items, 1, 0))
	assert.Equal(t, []string{"a"}, Slice(items, -3, 1))
	assert.Equal(t, []string{"a", "b", "c", "d"}, items, "input is untouched")
}
