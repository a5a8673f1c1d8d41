package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func tempStore(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestSaveAndLoad(t *testing.T) {
	s := tempStore(t)
	content := []byte(`[{"id":"1"}]`)
	if err := s.Save(KeyRecords, content); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, ok, err := s.Load(KeyRecords)
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestLoadAbsentKey(t *testing.T) {
	s := tempStore(t)
	data, ok, err := s.Load(KeyProfile)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ok || data != nil {
		t.Errorf("expected absent key, got ok=%v data=%q", ok, data)
	}
}

func TestDelete(t *testing.T) {
	s := tempStore(t)
	_ = s.Save(KeyGrowth, []byte("[]"))
	if err := s.Delete(KeyGrowth); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := s.Load(KeyGrowth); ok {
		t.Error("expected key to be gone")
	}
	if err := s.Delete(KeyGrowth); err != nil {
		t.Errorf("deleting an absent key should succeed: %v", err)
	}
}

func TestInvalidKeysRejected(t *testing.T) {
	s := tempStore(t)
	for _, k := range []string{"../../etc/passwd", "../outside", "/etc/shadow", "", "Records"} {
		if _, _, err := s.Load(k); err == nil {
			t.Errorf("expected error loading %q", k)
		}
		if err := s.Save(k, []byte("x")); err == nil {
			t.Errorf("expected error saving %q", k)
		}
	}
}

func TestAtomicSaveLeavesNoTempFiles(t *testing.T) {
	s := tempStore(t)
	_ = s.Save(KeyRecords, []byte("original"))
	if err := s.Save(KeyRecords, []byte("updated")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, _, _ := s.Load(KeyRecords)
	if string(got) != "updated" {
		t.Errorf("expected updated content, got %q", got)
	}
	matches, _ := filepath.Glob(filepath.Join(s.root, ".cradle-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestExternallyModified(t *testing.T) {
	s := tempStore(t)
	if err := s.Save(KeyRecords, []byte("mine")); err != nil {
		t.Fatal(err)
	}
	if s.ExternallyModified(KeyRecords) {
		t.Error("own write reported as external")
	}
	if err := os.WriteFile(filepath.Join(s.root, "records.json"), []byte("theirs"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !s.ExternallyModified(KeyRecords) {
		t.Error("external edit not detected")
	}
	s.Acknowledge(KeyRecords)
	if s.ExternallyModified(KeyRecords) {
		t.Error("acknowledged content reported again")
	}
}

func TestKeyForPath(t *testing.T) {
	s := tempStore(t)
	if k, ok := s.KeyForPath(filepath.Join(s.root, "growth.json")); !ok || k != KeyGrowth {
		t.Errorf("KeyForPath = %q, %v", k, ok)
	}
	if _, ok := s.KeyForPath(filepath.Join(s.root, ".cradle-tmp-123")); ok {
		t.Error("temp file should not map to a key")
	}
	if _, ok := s.KeyForPath(filepath.Join(s.root, "sub", "growth.json")); ok {
		t.Error("nested file should not map to a key")
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS("/tmp/cradle-does-not-exist-" + t.Name())
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "cradle-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}
