package markers

import "testing"

func TestStripThinking(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"none", "<p>hi</p>", "<p>hi</p>"},
		{"closed", "<think>plan</think>\n<p>hi</p>", "<p>hi</p>"},
		{"open", "intro <think>I will write " + NewFileStart + " plan.html " + NewFileEnd + " then", "intro"},
		{"open only", "<think>still going", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripThinking(tt.in); got != tt.want {
				t.Errorf("StripThinking(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestThinking_OpenSection(t *testing.T) {
	thought, done, ok := Thinking("<think>half a thought")
	if !ok || done || thought != "half a thought" {
		t.Fatalf("Thinking = %q, %v, %v", thought, done, ok)
	}
}
