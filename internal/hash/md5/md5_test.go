// Package md5 includes tests for the MD5 fingerprint adapter.
package md5

import "testing"

// TestHasherHashDeterministic ensures repeated hashing yields the same digest.
func TestHasherHashDeterministic(t *testing.T) {
	t.Parallel()

	h := New()
	got, err := h.Hash([]byte("hello world"))
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	want := "5eb63bbbe01eeed093cb22bb8f5acdc3"
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
	again, err := h.Hash([]byte("hello world"))
	if err != nil {
		t.Fatalf("Hash() repeat error = %v", err)
	}
	if again != got {
		t.Fatalf("expected deterministic hash, got %s vs %s", got, again)
	}
}

// TestHasherHashString confirms string hashing matches hashing the raw bytes.
func TestHasherHashString(t *testing.T) {
	t.Parallel()

	h := New()
	fromString, err := h.HashString("Milwaukee planning documents")
	if err != nil {
		t.Fatalf("HashString() error = %v", err)
	}
	fromBytes, err := h.Hash([]byte("Milwaukee planning documents"))
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if fromString != fromBytes {
		t.Fatalf("expected identical digests, got %s vs %s", fromString, fromBytes)
	}
}

// TestHasherDistinguishesContent checks different inputs produce different digests.
func TestHasherDistinguishesContent(t *testing.T) {
	t.Parallel()

	h := New()
	a, err := h.Hash([]byte("lot listing v1"))
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	b, err := h.Hash([]byte("lot listing v2"))
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if a == b {
		t.Fatalf("expected distinct digests, both %s", a)
	}
}

// TestHasherEmptyInput verifies the well-known empty digest.
func TestHasherEmptyInput(t *testing.T) {
	t.Parallel()

	h := New()
	got, err := h.Hash(nil)
	if err != nil {
		t.Fatalf("Hash(nil) error = %v", err)
	}
	if want := "d41d8cd98f00b204e9800998ecf8427e"; got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}
