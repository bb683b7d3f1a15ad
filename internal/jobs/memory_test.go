package jobs

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(3)

	for i := 0; i < 5; i++ {
		if err := s.Record(ctx, Job{ID: fmt.Sprintf("job%05d", i), Status: StatusOK}); err != nil {
			t.Fatal(err)
		}
	}

	recent, err := s.Recent(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 3 {
		t.Fatalf("Recent() len = %d, want 3", len(recent))
	}
	want := []string{"job00004", "job00003", "job00002"}
	for i, j := range recent {
		if j.ID != want[i] {
			t.Errorf("Recent()[%d] = %q, want %q", i, j.ID, want[i])
		}
	}

	if got, _ := s.Recent(ctx, 1); len(got) != 1 || got[0].ID != "job00004" {
		t.Errorf("Recent(1) = %+v", got)
	}

	if _, err := s.Get(ctx, "job00000"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(evicted) error = %v, want ErrNotFound", err)
	}
	if j, err := s.Get(ctx, "job00003"); err != nil || j.ID != "job00003" {
		t.Errorf("Get() = %+v, %v", j, err)
	}
}
