package logging

import "testing"

func TestRingBuffer(t *testing.T) {
	rb := NewRingBuffer(3)
	if rb.ReadAll() != nil {
		t.Fatal("empty buffer should read nil")
	}

	for _, msg := range []string{"a", "b", "c", "d"} {
		rb.Write(LogEntry{Message: msg})
	}

	if rb.Count() != 3 {
		t.Fatalf("Count() = %d, want 3", rb.Count())
	}

	tests := []struct {
		n    int
		want []string
	}{
		{0, []string{"b", "c", "d"}},
		{2, []string{"c", "d"}},
		{10, []string{"b", "c", "d"}},
	}
	for _, tt := range tests {
		got := rb.Tail(tt.n)
		if len(got) != len(tt.want) {
			t.Fatalf("Tail(%d) returned %d entries, want %d", tt.n, len(got), len(tt.want))
		}
		for i := range got {
			if got[i].Message != tt.want[i] {
				t.Errorf("Tail(%d)[%d] = %q, want %q", tt.n, i, got[i].Message, tt.want[i])
			}
		}
	}
}
