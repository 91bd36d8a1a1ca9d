package db

import (
	"testing"
	"testing/fstest"
	"time"

	"github.com/rs/zerolog"
)

func newTestMigrator(files fstest.MapFS) *Migrator {
	return NewMigrator(nil, files, zerolog.Nop())
}

func TestLoad_SortsByVersion(t *testing.T) {
	m := newTestMigrator(fstest.MapFS{
		"010_tables.sql": {Data: []byte("SELECT 10;")},
		"002_second.sql": {Data: []byte("SELECT 2;")},
		"001_core.sql":   {Data: []byte("CREATE TABLE surgery (id UUID PRIMARY KEY);")},
	})

	migrations, err := m.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(migrations) != 3 {
		t.Fatalf("expected 3 migrations, got %d", len(migrations))
	}
	want := []int{1, 2, 10}
	for i, v := range want {
		if migrations[i].Version != v {
			t.Errorf("migration %d: expected version %d, got %d", i, v, migrations[i].Version)
		}
	}
	if migrations[0].Name != "001_core.sql" {
		t.Errorf("expected name 001_core.sql, got %s", migrations[0].Name)
	}
	if migrations[0].SQL != "CREATE TABLE surgery (id UUID PRIMARY KEY);" {
		t.Errorf("unexpected SQL content: %s", migrations[0].SQL)
	}
}

func TestLoad_SkipsInvalidNames(t *testing.T) {
	m := newTestMigrator(fstest.MapFS{
		"001_core.sql":      {Data: []byte("SELECT 1;")},
		"README.md":         {Data: []byte("docs")},
		"nounderscore.sql":  {Data: []byte("SELECT 2;")},
		"abc_notnumber.sql": {Data: []byte("SELECT 3;")},
		"seed/002_x.sql":    {Data: []byte("SELECT 4;")},
	})

	migrations, err := m.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(migrations) != 1 {
		t.Fatalf("expected 1 migration, got %d", len(migrations))
	}
}

func TestLoad_RejectsDuplicateVersions(t *testing.T) {
	m := newTestMigrator(fstest.MapFS{
		"001_core.sql":  {Data: []byte("SELECT 1;")},
		"001_extra.sql": {Data: []byte("SELECT 2;")},
	})
	if _, err := m.Load(); err == nil {
		t.Fatal("expected error for duplicate version")
	}
}

func TestLoad_Empty(t *testing.T) {
	migrations, err := newTestMigrator(fstest.MapFS{}).Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(migrations) != 0 {
		t.Errorf("expected no migrations, got %d", len(migrations))
	}
}

func TestPending(t *testing.T) {
	migrations := []Migration{{Version: 1}, {Version: 2}, {Version: 3}}
	applied := map[int]time.Time{1: time.Now()}

	pending := Pending(migrations, applied)
	if len(pending) != 2 || pending[0].Version != 2 || pending[1].Version != 3 {
		t.Errorf("unexpected pending set: %+v", pending)
	}
}

func TestStatuses(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	migrations := []Migration{{Version: 1, Name: "001_core.sql"}, {Version: 2, Name: "002_more.sql"}}

	got := statuses(migrations, map[int]time.Time{1: at})
	if len(got) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(got))
	}
	if !got[0].Applied || got[0].AppliedAt == nil || !got[0].AppliedAt.Equal(at) {
		t.Errorf("expected first migration applied at %v, got %+v", at, got[0])
	}
	if got[1].Applied || got[1].AppliedAt != nil {
		t.Errorf("expected second migration pending, got %+v", got[1])
	}
}
