package main

import (
	"strings"
	"testing"
	"time"

	"github.com/zsprackett/uploadwatch/internal/client"
	"github.com/zsprackett/uploadwatch/internal/db"
)

func TestPrintHistory(t *testing.T) {
	store, err := db.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	store.Migrate()

	store.SetMeta(client.LastSessionKey, "k3x9a0b1")
	store.InsertUpload(db.UploadRecord{
		ID: "u1", SessionID: "k3x9a0b1", FileName: "report.pdf", FileSize: 2048,
		Outcome: db.OutcomeFailed, Message: "upload failed (413): File too large",
		CreatedAt: time.Now().Add(-time.Hour),
	})
	store.InsertEvent(db.EventRecord{SessionID: "k3x9a0b1", FileName: "report.pdf", FileSize: 1048576})

	var sb strings.Builder
	if err := printHistory(&sb, store, 10); err != nil {
		t.Fatal(err)
	}
	out := sb.String()
	for _, want := range []string{"k3x9a0b1", "failed", "report.pdf", "2.0 KiB", "1 hour ago", "1,048,576", "File too large"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
