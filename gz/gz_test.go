package gz

import (
	"bufio"
	"encoding/json"
	"path/filepath"
	"testing"
)

func TestWriteRead(t *testing.T) {
	target := filepath.Join(t.TempDir(), "sub", "fixes.ndjson.gz")
	w, err := NewFileWriter(target, nil)
	if err != nil {
		t.Fatal(err)
	}
	enc := json.NewEncoder(w)
	for i := 0; i < 10; i++ {
		if err := enc.Encode(map[string]int{"i": i}); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("expected second close to be a no-op, got %v", err)
	}

	// Appending writes a second gzip member; readers see one stream.
	w, err = NewFileWriter(target, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := json.NewEncoder(w).Encode(map[string]int{"i": 10}); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := NewFileReader(target)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	n := 0
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		n++
	}
	if err := scanner.Err(); err != nil {
		t.Fatal(err)
	}
	if n != 11 {
		t.Errorf("expected 11 lines, got %d", n)
	}
	if !IsGZ(target) || IsGZ("fixes.ndjson") {
		t.Error("unexpected IsGZ")
	}
}

func TestNewFileReader_Missing(t *testing.T) {
	if _, err := NewFileReader(filepath.Join(t.TempDir(), "nope.gz")); err == nil {
		t.Error("expected error")
	}
}
