package journal

import (
	"context"
	"io/fs"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestPrepareFillsIDAndTimestamp(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.FixedZone("IRST", 12600))
	e := prepare(Entry{UserID: 1, Kind: KindChat, UserText: "  I go to school yesterday \n"}, now)
	if e.ID == uuid.Nil {
		t.Fatal("id not generated")
	}
	if !e.CreatedAt.Equal(now) || e.CreatedAt.Location() != time.UTC {
		t.Fatalf("created_at = %v", e.CreatedAt)
	}
	if e.UserText != "I go to school yesterday" {
		t.Fatalf("user text = %q", e.UserText)
	}
}

func TestPrepareKeepsExistingValues(t *testing.T) {
	id := uuid.New()
	at := time.Unix(1700000000, 0).UTC()
	e := prepare(Entry{ID: id, CreatedAt: at}, time.Now())
	if e.ID != id || !e.CreatedAt.Equal(at) {
		t.Fatalf("entry overwritten: %+v", e)
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	files, err := fs.Glob(Migrations, MigrationsDir+"/*.sql")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("migrations = %v", files)
	}
	up, err := fs.ReadFile(Migrations, MigrationsDir+"/000001_exchanges.up.sql")
	if err != nil {
		t.Fatalf("read up migration: %v", err)
	}
	if !strings.Contains(string(up), "CREATE TABLE IF NOT EXISTS exchanges") {
		t.Fatal("up migration does not create exchanges")
	}
}

func TestInsertNamesEveryColumn(t *testing.T) {
	for _, col := range []string{"id", "user_id", "kind", "level", "topic", "user_text", "reply", "explanation", "corrected", "created_at"} {
		if !strings.Contains(insertEntry, ":"+col) {
			t.Fatalf("insert is missing :%s", col)
		}
	}
}

func TestNoopRecord(t *testing.T) {
	if err := (Noop{}).Record(context.Background(), Entry{}); err != nil {
		t.Fatalf("noop: %v", err)
	}
}
