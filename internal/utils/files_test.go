package utils

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSafeWriteFileReplacesContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	if err := SafeWriteFile(path, []byte("one")); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := SafeWriteFile(path, []byte("two")); err != nil {
		t.Fatalf("second write: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "two" {
		t.Fatalf("content = %q", b)
	}
	if _, err := os.Stat(path + ".tmp"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("temp file left behind: %v", err)
	}
}

func TestPrettyJSON(t *testing.T) {
	b, err := PrettyJSON(map[string]int{"k": 3})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "\n  \"k\": 3") {
		t.Fatalf("not indented: %s", b)
	}
	if _, err := PrettyJSON(make(chan int)); err == nil {
		t.Fatal("expected marshal error for channel")
	}
}

func TestFindDataFileWalksUp(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := EnsureDir(nested); err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(root, "TB_Burden_Country.csv")
	if err := os.WriteFile(want, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := FindDataFile(nested, "TB_Burden_Country.csv")
	if err != nil {
		t.Fatalf("FindDataFile: %v", err)
	}
	if got != want {
		t.Fatalf("got %s, want %s", got, want)
	}

	_, err = FindDataFile(nested, "missing.csv")
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("want ErrNotExist, got %v", err)
	}
	if _, err := FindDataFile("", filepath.Join(root, "nope.csv")); err == nil {
		t.Fatal("expected error for missing absolute path")
	}
}
