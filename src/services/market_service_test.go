package services

import (
	"testing"
	"time"
)

func ts(y int, m time.Month, d int) int64 {
	return time.Date(y, m, d, 14, 30, 0, 0, time.UTC).Unix()
}

func fp(v float64) *float64 { return &v }

func TestBuildDailySeriesForwardFillsGaps(t *testing.T) {
	timestamps := []int64{
		ts(2024, 1, 2), ts(2024, 1, 3), ts(2024, 1, 4), ts(2024, 1, 5),
	}
	closes := []*float64{fp(100), nil, fp(102), nil}

	points := buildDailySeries(timestamps, closes)
	if len(points) != 4 {
		t.Fatalf("got %d points, want 4", len(points))
	}
	if points[1].Price != 100 {
		t.Errorf("gap price = %v, want 100 carried forward", points[1].Price)
	}
	if points[3].Price != 102 {
		t.Errorf("trailing gap price = %v, want 102 carried forward", points[3].Price)
	}
	// Timestamps land mid-session; dates must normalize to UTC midnight.
	want := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	if !points[0].Date.Equal(want) {
		t.Errorf("first date = %v, want %v", points[0].Date, want)
	}
}

func TestBuildDailySeriesDropsLeadingGaps(t *testing.T) {
	timestamps := []int64{ts(2024, 1, 2), ts(2024, 1, 3), ts(2024, 1, 4)}
	closes := []*float64{nil, nil, fp(99)}

	points := buildDailySeries(timestamps, closes)
	if len(points) != 1 {
		t.Fatalf("got %d points, want 1 (leading nulls dropped)", len(points))
	}
	if points[0].Price != 99 {
		t.Errorf("price = %v, want 99", points[0].Price)
	}
}

func TestBuildDailySeriesEmpty(t *testing.T) {
	if points := buildDailySeries(nil, nil); len(points) != 0 {
		t.Errorf("got %d points from empty input, want 0", len(points))
	}
	if points := buildDailySeries([]int64{ts(2024, 1, 2)}, []*float64{nil}); len(points) != 0 {
		t.Errorf("got %d points from all-null closes, want 0", len(points))
	}
}
