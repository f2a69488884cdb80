package timeline

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantOK  bool
	}{
		{"", 0, false},
		{"   ", 0, false},
		{"0", 0, true},
		{"42", 42, true},
		{"42.5", 42.5, true},
		{"-7", 0, true},
		{"01:02", 62, true},
		{"1:2", 62, true},
		{"01:02:03", 3723, true},
		{"120:00", 7200, true},
		{"garbage", 0, false},
		{"12x", 0, false},
		{"1:2:3:4", 0, false},
		{"::", 0, false},
		{"1:234", 0, false},
	}

	for _, tc := range tests {
		got, ok := Parse(tc.in)
		if ok != tc.wantOK || got != tc.want {
			t.Fatalf("Parse(%q) = (%v, %v), want (%v, %v)", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestLabelSeconds(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "00:00"},
		{62, "01:02"},
		{59.9, "00:59"},
		{3599, "59:59"},
		{3600, "01:00:00"},
		{3723, "01:02:03"},
		{-5, "00:00"},
	}

	for _, tc := range tests {
		if got := LabelSeconds(tc.in); got != tc.want {
			t.Fatalf("LabelSeconds(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestLabelUnparseableIsEmpty(t *testing.T) {
	if got := Label("not a time"); got != "" {
		t.Fatalf("expected empty label, got %q", got)
	}
	if got := Label("01:02:03"); got != "01:02:03" {
		t.Fatalf("expected 01:02:03, got %q", got)
	}
}

func TestRoundTrip(t *testing.T) {
	for _, s := range []float64{0, 1, 59, 60, 61, 3599, 3600, 3661, 7322, 35999} {
		got, ok := Parse(LabelSeconds(s))
		if !ok || got != s {
			t.Fatalf("round trip %v: got (%v, %v)", s, got, ok)
		}
	}
}

func TestRange(t *testing.T) {
	tests := []struct {
		start, end         string
		wantStart, wantEnd float64
	}{
		{"", "", 0, 0},
		{"30", "", 30, 30},
		{"", "30", 0, 30},
		{"80", "30", 80, 80},
		{"10", "20", 10, 20},
		{"01:00", "01:30", 60, 90},
		{"junk", "junk", 0, 0},
	}

	for _, tc := range tests {
		s, e := Range(tc.start, tc.end)
		if s != tc.wantStart || e != tc.wantEnd {
			t.Fatalf("Range(%q, %q) = (%v, %v), want (%v, %v)", tc.start, tc.end, s, e, tc.wantStart, tc.wantEnd)
		}
	}
	// Ranges never invert and never go negative.
	for _, pair := range [][2]string{{"-5", "-10"}, {"99", "1"}, {"", "x"}} {
		s, e := Range(pair[0], pair[1])
		if s < 0 || e < s {
			t.Fatalf("Range(%q, %q) produced invalid range (%v, %v)", pair[0], pair[1], s, e)
		}
	}
}
