package database

import (
	"testing"
	"testing/fstest"

	coreconfig "github.com/m3rciful/lunabot/core/config"
)

func TestListMigrationFilesSortsUpOnly(t *testing.T) {
	src := fstest.MapFS{
		"migrations/000002_add_index.up.sql":      {Data: []byte("-- up")},
		"migrations/000002_add_index.down.sql":    {Data: []byte("-- down")},
		"migrations/000001_exchanges.up.sql":      {Data: []byte("-- up")},
		"migrations/000001_exchanges.down.sql":    {Data: []byte("-- down")},
		"migrations/nested/000003_ignored.up.sql": {Data: []byte("-- up")},
	}
	got := listMigrationFiles(src, "migrations")
	want := []string{"000001_exchanges.up.sql", "000002_add_index.up.sql"}
	if len(got) != len(want) {
		t.Fatalf("files = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("files[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestSelectApplied(t *testing.T) {
	files := []string{"000001_a.up.sql", "000002_b.up.sql", "000003_c.up.sql"}
	if got := selectApplied(files, 1, 3); len(got) != 2 || got[0] != "000002_b.up.sql" {
		t.Fatalf("selectApplied(1,3) = %v", got)
	}
	if got := selectApplied(files, 3, 3); got != nil {
		t.Fatalf("selectApplied(3,3) = %v, want nil", got)
	}
}

func TestURLEscapesCredentials(t *testing.T) {
	cfg := coreconfig.DatabaseConfig{
		Host: "db", Port: "5432", User: "luna", Password: "p@ss/word", Name: "lunabot", SSLMode: "disable",
	}
	want := "postgres://luna:p%40ss%2Fword@db:5432/lunabot?sslmode=disable"
	if got := URL(cfg); got != want {
		t.Fatalf("URL = %s, want %s", got, want)
	}
}
