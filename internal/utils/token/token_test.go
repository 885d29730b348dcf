package token

import (
	"sync"
	"testing"
	"unicode"
)

func TestNew(t *testing.T) {
	got := New()
	if len(got) != Length {
		t.Fatalf("New() length = %d, want %d", len(got), Length)
	}
	for _, r := range got {
		if !unicode.IsDigit(r) && !unicode.IsLower(r) {
			t.Fatalf("New() = %q contains non lowercase alphanumeric %q", got, r)
		}
	}
	if !IsValid(got) {
		t.Errorf("IsValid(%q) = false", got)
	}
}

func TestNewConcurrentUniqueness(t *testing.T) {
	const workers = 8
	const perWorker = 500

	var mu sync.Mutex
	seen := make(map[string]struct{}, workers*perWorker)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]string, 0, perWorker)
			for j := 0; j < perWorker; j++ {
				local = append(local, New())
			}
			mu.Lock()
			defer mu.Unlock()
			for _, v := range local {
				if _, dup := seen[v]; dup {
					t.Errorf("duplicate token %s", v)
				}
				seen[v] = struct{}{}
			}
		}()
	}
	wg.Wait()
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{"empty", "", false},
		{"too short", "01hx", false},
		{"uppercase rejected", "01HX5Z6KQ3R8M4T2V7W9Y0ABCD", false},
		{"lowercase ulid", "01hx5z6kq3r8m4t2v7w9y0abcd", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValid(tt.value); got != tt.want {
				t.Errorf("IsValid(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}
