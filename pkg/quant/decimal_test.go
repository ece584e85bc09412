package quant

import (
	"testing"
)

func ptr(s string) *string { return &s }

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		input  *string
		wantOK bool
		want   string
	}{
		{ptr("10000"), true, "10000"},
		{ptr("-5.25"), true, "-5.25"},
		{ptr(" 0.000001 "), true, "0.000001"},
		{ptr(""), false, "0"},
		{ptr("null"), false, "0"},
		{ptr("abc"), false, "0"},
		{nil, false, "0"},
	}

	for _, tt := range tests {
		got, ok := ParseDecimal(tt.input)
		if ok != tt.wantOK {
			t.Errorf("ParseDecimal(%v) ok = %v; want %v", tt.input, ok, tt.wantOK)
		}
		if got.String() != tt.want {
			t.Errorf("ParseDecimal(%v) = %s; want %s", tt.input, got.String(), tt.want)
		}
	}
}

func TestCompareOptional(t *testing.T) {
	tests := []struct {
		name string
		a, b *string
		want int
	}{
		{"both known, less", ptr("1.5"), ptr("2"), -1},
		{"both known, equal", ptr("2.0"), ptr("2"), 0},
		{"both known, greater", ptr("10000"), ptr("3000"), 1},
		{"unknown lower than known", nil, ptr("-100"), -1},
		{"known higher than garbage", ptr("0"), ptr("n/a"), 1},
		{"unknowns tie", nil, ptr(""), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CompareOptional(tt.a, tt.b); got != tt.want {
				t.Errorf("CompareOptional = %d; want %d", got, tt.want)
			}
		})
	}
}

func TestFromUnixSeconds(t *testing.T) {
	ts := FromUnixSeconds(1704067200)
	if ts != TimeStamp(1704067200000000) {
		t.Errorf("FromUnixSeconds = %d", ts)
	}
	if ts.Time().Year() != 2024 {
		t.Errorf("expected 2024, got %d", ts.Time().Year())
	}
}

func TestNextSeq(t *testing.T) {
	var seq uint64
	if NextSeq(&seq) != 1 || NextSeq(&seq) != 2 {
		t.Error("NextSeq should be monotonic starting at 1")
	}
}
