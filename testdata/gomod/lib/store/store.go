package store

import "example.com/lib/codec"

// Store keeps encoded values.
type Store struct {
	values map[string]string
}

// Put stores v under k.
func (s *Store) Put(k, v string) {
	if s.values == nil {
		s.values = make(map[string]string)
	}
	s.values[k] = codec.Encode(v)
}
