package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteToFileCreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.txt")
	if err := WriteToFile(path, "1", "2", "3"); err != nil {
		t.Fatalf("write: %v", err)
	}
	bs, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(bs) != "1\n2\n3\n" {
		t.Errorf("unexpected content %q", string(bs))
	}
}
