package migrations

import (
	"io/fs"
	"strings"
	"testing"
)

func TestFS_ContainsOrderedGooseMigrations(t *testing.T) {
	t.Parallel()

	names, err := fs.Glob(FS, "*.sql")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(names) < 2 {
		t.Fatalf("want at least 2 migrations, got %v", names)
	}
	for _, n := range names {
		b, err := fs.ReadFile(FS, n)
		if err != nil {
			t.Fatalf("read %s: %v", n, err)
		}
		s := string(b)
		if !strings.Contains(s, "-- +goose Up") || !strings.Contains(s, "-- +goose Down") {
			t.Fatalf("%s lacks goose annotations", n)
		}
	}

	users, err := fs.ReadFile(FS, "00001_users.sql")
	if err != nil {
		t.Fatalf("read users migration: %v", err)
	}
	if !strings.Contains(string(users), "email              TEXT NOT NULL UNIQUE") {
		t.Fatalf("email must carry a unique constraint")
	}
}
