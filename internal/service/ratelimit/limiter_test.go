package ratelimit

import "testing"

func TestAllowStartsFull(t *testing.T) {
	l := New()
	if !l.Allow("k", 2, 1) {
		t.Fatalf("first token should be available")
	}
	if !l.Allow("k", 2, 1) {
		t.Fatalf("second token should be available")
	}
	if l.Allow("k", 2, 1) {
		t.Fatalf("bucket should be empty")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	l := New()
	if !l.Allow("a", 1, 1) {
		t.Fatalf("key a should start full")
	}
	if l.Allow("a", 1, 1) {
		t.Fatalf("key a should be exhausted")
	}
	if !l.Allow("b", 1, 1) {
		t.Fatalf("key b should be unaffected")
	}
}
