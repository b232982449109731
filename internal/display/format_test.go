package display

import "testing"

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{1048576, "1.0 MiB"},
		{524288000, "500.0 MiB"},
		{1073741824, "1.0 GiB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.in); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestReduction(t *testing.T) {
	tests := []struct {
		name     string
		original int64
		encoded  int64
		want     float64
	}{
		{"half", 1000, 500, 50},
		{"no change", 1000, 1000, 0},
		{"grew", 1000, 1250, -25},
		{"zero original", 0, 100, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Reduction(tt.original, tt.encoded); got != tt.want {
				t.Errorf("Reduction(%d, %d) = %v, want %v", tt.original, tt.encoded, got, tt.want)
			}
		})
	}
}

func TestFormatReduction(t *testing.T) {
	if got := FormatReduction(1000, 625); got != "37.5%" {
		t.Errorf("got %q, want 37.5%%", got)
	}
}
