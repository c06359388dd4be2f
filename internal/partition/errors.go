package partition

import (
	"errors"
	"fmt"

	"github.com/olehluchkiv/chunksplit/internal/chunkgraph"
)

var (
	// ErrInvalidConfiguration is returned before any mutation when the
	// options cannot produce bounded groups.
	ErrInvalidConfiguration = errors.New("partition: invalid configuration")

	// ErrExternalParent is returned before any mutation when a synchronous
	// split would overwrite a parent that lies outside the chunks being split.
	ErrExternalParent = errors.New("partition: affected chunk has a parent outside the split set")
)

// ExternalParentError names the chunk and parent that tripped ErrExternalParent.
type ExternalParentError struct {
	Chunk  *chunkgraph.Chunk
	Parent *chunkgraph.Chunk
}

func (e *ExternalParentError) Error() string {
	return fmt.Sprintf("%v: chunk %s has parent %s (set OverwriteParents to replace it)", ErrExternalParent, e.Chunk, e.Parent)
}

func (e *ExternalParentError) Unwrap() error { return ErrExternalParent }
