package database

import (
	"io/fs"
	"testing"
)

func TestMigrationVersion(t *testing.T) {
	tests := []struct {
		name     string
		expected int
	}{
		{"001_create_statement.sql", 1},
		{"012_add_index.sql", 12},
		{"readme.md", 0},
		{"abc_bad.sql", 0},
		{"01.sql", 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := migrationVersion(tc.name); got != tc.expected {
				t.Errorf("Expected %d, got %d", tc.expected, got)
			}
		})
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := fs.ReadDir(Migrations(), ".")
	if err != nil {
		t.Fatalf("Failed to read embedded migrations: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("Expected at least one embedded migration")
	}
	for _, e := range entries {
		if migrationVersion(e.Name()) == 0 {
			t.Errorf("Migration %q has no version prefix", e.Name())
		}
	}
}

func TestNewRedisClient_InvalidURL(t *testing.T) {
	if _, err := NewRedisClient("not-a-url"); err == nil {
		t.Error("Expected error for invalid Redis URL")
	}
}

func TestNewPostgresPool_InvalidURL(t *testing.T) {
	if _, err := NewPostgresPool("postgres://%zz"); err == nil {
		t.Error("Expected error for invalid database URL")
	}
}
