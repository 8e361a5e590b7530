package storage

import (
	"testing"
	"time"
)

func TestRecordCounters(t *testing.T) {
	rec := NewRecord(0)
	if rec.MaxFiles != DefaultMaxFiles {
		t.Errorf("MaxFiles = %d, want %d", rec.MaxFiles, DefaultMaxFiles)
	}

	rec.AddFile(FileRecord{ID: "a", Size: 10, Position: 20})
	rec.AddFile(FileRecord{ID: "b", Size: 5, Position: 30})
	rec.AddFile(FileRecord{ID: "c", Size: 7, Position: 35, Deleted: true})

	if rec.FileCount != 2 || rec.DeletedCount != 1 {
		t.Errorf("counters = %d/%d, want 2/1", rec.FileCount, rec.DeletedCount)
	}
	if rec.PayloadSize() != 22 {
		t.Errorf("PayloadSize = %d, want 22", rec.PayloadSize())
	}

	if rec.FindFileState("c", false) != nil {
		t.Error("deleted record should not be found as active")
	}
	if rec.FindFileState("c", true) == nil {
		t.Error("deleted record should be found as deleted")
	}

	removed, ok := rec.RemoveFile("b")
	if !ok || removed.ID != "b" {
		t.Fatalf("RemoveFile failed: %+v %v", removed, ok)
	}
	if rec.FileCount != 1 || len(rec.FileTable) != 2 {
		t.Errorf("after remove: file_count=%d table=%d", rec.FileCount, len(rec.FileTable))
	}
	if _, ok := rec.RemoveFile("missing"); ok {
		t.Error("RemoveFile should report false for unknown id")
	}
}

func TestRecordClone(t *testing.T) {
	deleted := time.Now()
	rec := NewRecord(3)
	rec.Salt = []byte{1, 2, 3}
	rec.AddFile(FileRecord{
		ID:          "a",
		Deleted:     true,
		DeletedDate: &deleted,
		Encryption:  &Encryption{Salt: []byte{9}, Nonce: []byte{8}},
	})

	c := rec.Clone()
	c.Salt[0] = 0xFF
	c.FileTable[0].Position = 99
	c.FileTable[0].Encryption.Salt[0] = 0
	*c.FileTable[0].DeletedDate = time.Time{}

	if rec.Salt[0] != 1 {
		t.Error("clone shares salt with original")
	}
	if rec.FileTable[0].Position != 0 {
		t.Error("clone shares file table with original")
	}
	if rec.FileTable[0].Encryption.Salt[0] != 9 {
		t.Error("clone shares encryption params with original")
	}
	if rec.FileTable[0].DeletedDate.IsZero() {
		t.Error("clone shares deleted date with original")
	}
}
