package storage

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFSStoreRoundTrip(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	key := "worksheets/ws-1/diagram.png"
	if _, err := s.Put(key, strings.NewReader("png-bytes")); err != nil {
		t.Fatal(err)
	}
	rc, err := s.Get(key)
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "png-bytes" {
		t.Fatalf("got %q", got)
	}
}

func TestFSStoreRejectsEscapingKeys(t *testing.T) {
	base := t.TempDir()
	s, err := NewFSStore(base)
	if err != nil {
		t.Fatal(err)
	}
	secret := filepath.Join(filepath.Dir(base), "secret.txt")
	if err := os.WriteFile(secret, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	for _, key := range []string{"", "/etc/passwd", "../secret.txt", "worksheets/../../secret.txt"} {
		if _, err := s.Put(key, strings.NewReader("x")); !errors.Is(err, ErrBadKey) {
			t.Fatalf("Put(%q) err = %v, want ErrBadKey", key, err)
		}
		if _, err := s.Get(key); !errors.Is(err, ErrBadKey) {
			t.Fatalf("Get(%q) err = %v, want ErrBadKey", key, err)
		}
	}

	// dot segments that stay inside the store are fine
	if _, err := s.Put("worksheets/ws-1/../ws-1/diagram.png", strings.NewReader("ok")); err != nil {
		t.Fatalf("inside-base key rejected: %v", err)
	}
}
