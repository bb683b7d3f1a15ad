package jobs

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func newTestLayout(t *testing.T) *Layout {
	t.Helper()
	root := t.TempDir()
	l, err := NewLayout(filepath.Join(root, "uploads"), filepath.Join(root, "outputs"))
	if err != nil {
		t.Fatalf("NewLayout() error = %v", err)
	}
	return l
}

func TestNewID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewID()
		if !ValidID(id) {
			t.Fatalf("NewID() = %q, not a valid id", id)
		}
		if seen[id] {
			t.Fatalf("NewID() returned duplicate %q", id)
		}
		seen[id] = true
	}
}

func TestValidID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"0123abcd", true},
		{"0123ABCD", false},
		{"0123abc", false},
		{"../../et", false},
		{"", false},
		{"0123abcde", false},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := ValidID(tt.id); got != tt.want {
				t.Errorf("ValidID(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestSafeFileName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "uitslagen.xlsx", "uitslagen.xlsx"},
		{"unix path", "../../etc/passwd", "passwd"},
		{"windows path", `C:\Users\me\file.xlsx`, "file.xlsx"},
		{"empty", "", "input.xlsx"},
		{"dot dot", "..", "input.xlsx"},
		{"spaces", "  ", "input.xlsx"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SafeFileName(tt.in, "input.xlsx"); got != tt.want {
				t.Errorf("SafeFileName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestLayout_CreateAndSave(t *testing.T) {
	l := newTestLayout(t)

	d, err := l.Create()
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if d.UploadDir != filepath.Join(l.UploadsDir, d.ID) || d.OutputDir != filepath.Join(l.OutputsDir, d.ID) {
		t.Errorf("Create() dirs = %+v", d)
	}

	path, err := l.SaveUpload(d, "../sneaky.xlsx", strings.NewReader("data"))
	if err != nil {
		t.Fatalf("SaveUpload() error = %v", err)
	}
	if filepath.Dir(path) != d.UploadDir {
		t.Errorf("SaveUpload() path = %q, want inside %q", path, d.UploadDir)
	}
	got, err := os.ReadFile(path)
	if err != nil || string(got) != "data" {
		t.Errorf("saved content = %q, %v", got, err)
	}
}

func TestLayout_CreateConcurrentDistinct(t *testing.T) {
	l := newTestLayout(t)

	const n = 32
	ids := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := l.Create()
			if err != nil {
				t.Errorf("Create() error = %v", err)
				return
			}
			ids <- d.ID
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate job id %q", id)
		}
		seen[id] = true
	}
	if len(seen) != n {
		t.Errorf("got %d ids, want %d", len(seen), n)
	}
}

func TestLayout_OutputFile(t *testing.T) {
	l := newTestLayout(t)
	d, err := l.Create()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(d.OutputDir, "cue.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := l.OutputFile(d.ID, "cue.txt"); err != nil {
		t.Errorf("OutputFile() error = %v", err)
	}
	if _, err := l.OutputFile(d.ID, "missing.txt"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("OutputFile(missing) error = %v, want ErrNotExist", err)
	}
	if _, err := l.OutputFile(d.ID, "../cue.txt"); !errors.Is(err, ErrInvalidName) {
		t.Errorf("OutputFile(traversal) error = %v, want ErrInvalidName", err)
	}
	if _, err := l.OutputFile("nothex!!", "cue.txt"); !errors.Is(err, ErrInvalidName) {
		t.Errorf("OutputFile(bad id) error = %v, want ErrInvalidName", err)
	}
}

func TestLayout_Sweep(t *testing.T) {
	l := newTestLayout(t)
	old, err := l.Create()
	if err != nil {
		t.Fatal(err)
	}
	fresh, err := l.Create()
	if err != nil {
		t.Fatal(err)
	}

	past := time.Now().Add(-48 * time.Hour)
	for _, dir := range []string{old.UploadDir, old.OutputDir} {
		if err := os.Chtimes(dir, past, past); err != nil {
			t.Fatal(err)
		}
	}

	removed, err := l.Sweep(time.Now().Add(-24 * time.Hour))
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if removed != 2 {
		t.Errorf("Sweep() removed = %d, want 2", removed)
	}
	if _, err := os.Stat(old.OutputDir); !os.IsNotExist(err) {
		t.Error("old output dir still exists")
	}
	if _, err := os.Stat(fresh.OutputDir); err != nil {
		t.Errorf("fresh output dir removed: %v", err)
	}
}
