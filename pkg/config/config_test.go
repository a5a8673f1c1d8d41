package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Port  int    `yaml:"port"`
	valid bool
}

func (s *sample) Validate() error {
	if s.Port == 0 {
		return errors.New("port required")
	}
	s.valid = true
	return nil
}

func TestParseExpandsEnv(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "cradle")
	s := sample{Port: 1}
	if err := Parse([]byte("name: ${SAMPLE_NAME}\n"), &s); err != nil {
		t.Fatal(err)
	}
	if s.Name != "cradle" || s.Port != 1 || !s.valid {
		t.Errorf("got %+v", s)
	}
}

func TestParseValidates(t *testing.T) {
	var s sample
	if err := Parse([]byte("name: x\n"), &s); err == nil {
		t.Error("expected validation error")
	}
}

func TestLoadIfExists(t *testing.T) {
	dir := t.TempDir()

	s := sample{Port: 8080}
	read, err := LoadIfExists(filepath.Join(dir, "missing.yaml"), &s)
	if err != nil || read {
		t.Fatalf("missing file: read=%v err=%v", read, err)
	}
	if !s.valid {
		t.Error("defaults were not validated")
	}

	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("port: 9090\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	read, err = LoadIfExists(path, &s)
	if err != nil || !read || s.Port != 9090 {
		t.Errorf("read=%v err=%v s=%+v", read, err, s)
	}
}
