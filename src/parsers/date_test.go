package parsers

import (
	"testing"
	"time"
)

func TestParseDateFormats(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"ISO year first", "2024-03-15", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"ISO with slashes", "2024/3/5", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"day first unambiguous", "25/12/2030", time.Date(2030, 12, 25, 0, 0, 0, 0, time.UTC)},
		{"day first preferred when ambiguous", "05/06/2024", time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC)},
		{"month first when middle token cannot be a month", "06-20-2028", time.Date(2028, 6, 20, 0, 0, 0, 0, time.UTC)},
		{"mixed separators", "1-2/2025", time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)},
		{"surrounding whitespace", "  14/07/2026  ", time.Date(2026, 7, 14, 0, 0, 0, 0, time.UTC)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseDate(tc.input)
			if !ok {
				t.Fatalf("ParseDate(%q) not ok, want %v", tc.input, tc.want)
			}
			if !got.Equal(tc.want) {
				t.Errorf("ParseDate(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestParseDateRejectsInvalid(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"32/13/2020",
		"2020-13-01",
		"2020-02-30",
		"12/2020",
		"1/2/3/2020",
		"1//2020",
		"12/05/20",  // no 4-digit year anchor
		"abc/de/fghi",
		"15 March 2024",
	}
	for _, input := range inputs {
		if got, ok := ParseDate(input); ok {
			t.Errorf("ParseDate(%q) = %v, want not ok", input, got)
		}
	}
}

func TestParseDateDayFirstWinsOverMonthFirst(t *testing.T) {
	// Both tokens are plausible months; the day-first reading must win.
	got, ok := ParseDate("03/04/2027")
	if !ok {
		t.Fatal("ParseDate(\"03/04/2027\") not ok")
	}
	want := time.Date(2027, 4, 3, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("ParseDate(\"03/04/2027\") = %v, want %v", got, want)
	}
}
