package testsupport

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadFixture(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "test.txt")
	testContent := []byte("test fixture content")

	if err := os.WriteFile(testFile, testContent, 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	result := LoadFixture(t, testFile)
	if string(result) != string(testContent) {
		t.Errorf("expected %q, got %q", testContent, result)
	}
}

func TestLoadFixtureJSON(t *testing.T) {
	var payload struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Phone string `json:"phone"`
	}

	LoadFixtureJSON(t, FixturePath("sample.json"), &payload)

	if payload.Name != "milad" {
		t.Errorf("expected name=milad, got %q", payload.Name)
	}
	if payload.Email != "milad@example.com" {
		t.Errorf("expected email=milad@example.com, got %q", payload.Email)
	}
	if payload.Phone != "09120000000" {
		t.Errorf("expected phone=09120000000, got %q", payload.Phone)
	}
}

func TestFixturePath(t *testing.T) {
	got := FixturePath("customers.json")
	want := filepath.Join("testdata", "customers.json")
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestDecodeJSON(t *testing.T) {
	var out map[string]any
	DecodeJSON(t, []byte(`{"count":2}`), &out)

	if out["count"] != float64(2) {
		t.Errorf("expected count=2, got %v", out["count"])
	}
}

func TestMemoryDSN_Unique(t *testing.T) {
	a, b := MemoryDSN(), MemoryDSN()
	if a == b {
		t.Fatalf("expected distinct DSNs, got %q twice", a)
	}
	if !strings.Contains(a, "_fk=1") {
		t.Errorf("expected foreign keys to be enabled in %q", a)
	}
}

func TestNewTestDB_Isolated(t *testing.T) {
	ctx := context.Background()

	first := NewTestDB(t)
	if _, err := first.ExecContext(ctx, "CREATE TABLE probe (id INTEGER)"); err != nil {
		t.Fatalf("failed to create table: %v", err)
	}

	second := NewTestDB(t)
	var count int
	err := second.QueryRowContext(ctx,
		"SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = 'probe'").Scan(&count)
	if err != nil {
		t.Fatalf("failed to query sqlite_master: %v", err)
	}
	if count != 0 {
		t.Errorf("expected second database to be empty, found %d probe tables", count)
	}
}
