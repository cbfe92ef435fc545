package repo

import (
	"context"
	"encoding/json"
	"fmt"
)

type validator interface {
	Valid() bool
}

// Lookup is the result of loading a state record: either Found with State
// set, or absent. A corrupt payload is reported as absent, never as an error.
type Lookup[T validator] struct {
	State T
	Found bool
}

// Decode parses a raw record. Missing, unparseable and invalid payloads all
// collapse into an absent Lookup.
func Decode[T validator](raw []byte, found bool) Lookup[T] {
	var out Lookup[T]
	if !found || len(raw) == 0 {
		return out
	}
	var st T
	if err := json.Unmarshal(raw, &st); err != nil || !st.Valid() {
		return out
	}
	out.State = st
	out.Found = true
	return out
}

// Load reads key from s and decodes it. Only store errors are returned.
func Load[T validator](ctx context.Context, s StateStore, key string) (Lookup[T], error) {
	raw, found, err := s.Get(ctx, key)
	if err != nil {
		return Lookup[T]{}, fmt.Errorf("get %s: %w", key, err)
	}
	return Decode[T](raw, found), nil
}

// Save encodes st as JSON and writes it under key.
func Save(ctx context.Context, s StateStore, key string, st any) error {
	b, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.Put(ctx, key, b); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}
