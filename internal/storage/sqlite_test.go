package storage

import (
	"os"
	"testing"
)

func testSQLite(t *testing.T) *SQLite {
	t.Helper()
	f, err := os.CreateTemp("", "cradle-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := OpenSQLite(f.Name())
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLiteSaveLoad(t *testing.T) {
	db := testSQLite(t)
	if err := db.Save(KeyProfile, []byte(`{"name":"Haru"}`)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, ok, err := db.Load(KeyProfile)
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	if string(got) != `{"name":"Haru"}` {
		t.Errorf("payload = %q", got)
	}
}

func TestSQLiteUpsertReplaces(t *testing.T) {
	db := testSQLite(t)
	_ = db.Save(KeyGrowth, []byte("v1"))
	_ = db.Save(KeyGrowth, []byte("v2"))

	got, _, _ := db.Load(KeyGrowth)
	if string(got) != "v2" {
		t.Errorf("payload = %q, want v2", got)
	}
	cs, err := db.Checksum(KeyGrowth)
	if err != nil {
		t.Fatal(err)
	}
	if cs != digest([]byte("v2")) {
		t.Errorf("checksum not updated: %q", cs)
	}
}

func TestSQLiteAbsentAndDelete(t *testing.T) {
	db := testSQLite(t)
	if _, ok, err := db.Load(KeyRecords); ok || err != nil {
		t.Fatalf("absent key: ok=%v err=%v", ok, err)
	}
	_ = db.Save(KeyRecords, []byte("[]"))
	if err := db.Delete(KeyRecords); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := db.Load(KeyRecords); ok {
		t.Error("key should be gone")
	}
	cs, _ := db.Checksum(KeyRecords)
	if cs != "" {
		t.Errorf("checksum for deleted key = %q", cs)
	}
}
