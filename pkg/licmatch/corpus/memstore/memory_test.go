package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/cognicore/licmatch/pkg/licmatch/corpus"
	"github.com/cognicore/licmatch/pkg/licmatch/internalerr"
)

func TestPutGet(t *testing.T) {
	ctx := context.Background()
	s := New()

	data, err := corpus.Compress("permission is hereby granted")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, "MIT", data); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.Get(ctx, "MIT")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	text, err := corpus.Decompress(got)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if text != "permission is hereby granted" {
		t.Errorf("unexpected text %q", text)
	}
}

func TestGetMissing(t *testing.T) {
	_, err := New().Get(context.Background(), "nope")
	if !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestKeysSorted(t *testing.T) {
	s, err := FromTexts(map[string]string{"MIT": "a b", "Apache-2.0": "c d", "BSD-2-Clause": "e f"})
	if err != nil {
		t.Fatal(err)
	}
	keys, _ := s.Keys(context.Background())
	want := []string{"Apache-2.0", "BSD-2-Clause", "MIT"}
	if len(keys) != len(want) {
		t.Fatalf("expected %d keys, got %v", len(want), keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("keys[%d] = %s, want %s", i, keys[i], want[i])
		}
	}
}

func TestReplaceClearsOld(t *testing.T) {
	ctx := context.Background()
	s, _ := FromTexts(map[string]string{"old": "x y"})
	if err := s.Replace(ctx, map[string][]byte{"new": []byte("raw")}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, "old"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Error("old entry should be gone after Replace")
	}
	if _, err := s.Get(ctx, "new"); err != nil {
		t.Errorf("new entry missing: %v", err)
	}
}
