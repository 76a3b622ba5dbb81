package audiofile

import (
	"runtime"
	"testing"
)

func TestParseWorkers(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"auto", 0, false},
		{" AUTO ", 0, false},
		{"4", 4, false},
		{"0", 0, true},
		{"-2", 0, true},
		{"", 0, true},
		{"many", 0, true},
	}
	for _, tc := range tests {
		got, err := ParseWorkers(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParseWorkers(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseWorkers(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseWorkers(%q)=%d want %d", tc.in, got, tc.want)
		}
	}
}

func TestResolveWorkers(t *testing.T) {
	if got := ResolveWorkers(8, 3); got != 3 {
		t.Fatalf("got %d want 3 (capped by jobs)", got)
	}
	want := runtime.GOMAXPROCS(0)
	if want > 100 {
		want = 100
	}
	if got := ResolveWorkers(0, 100); got != want {
		t.Fatalf("auto: got %d want %d", got, want)
	}
	if got := ResolveWorkers(0, 0); got < 1 {
		t.Fatalf("expected at least one worker, got %d", got)
	}
}
