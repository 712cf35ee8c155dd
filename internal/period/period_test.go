package period_test

import (
	"testing"
	"time"

	"github.com/mymoney-app/mymoney-api/internal/period"
)

func TestForDate_BeforeAndAfterCutoff(t *testing.T) {
	cases := []struct {
		date   time.Time
		cutoff int
		want   string
	}{
		{time.Date(2024, 1, 14, 12, 0, 0, 0, time.UTC), 15, "2023-12"},
		{time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), 15, "2024-01"},
		{time.Date(2024, 1, 31, 23, 59, 0, 0, time.UTC), 15, "2024-01"},
		{time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC), 15, "2024-01"},
		{time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), 1, "2024-06"},
		// Year rollback at January.
		{time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), 10, "2024-12"},
	}
	for _, c := range cases {
		got := period.ForDate(c.date, c.cutoff)
		if got != c.want {
			t.Errorf("ForDate(%s, %d) = %s, want %s", c.date.Format("2006-01-02"), c.cutoff, got, c.want)
		}
	}
}

func TestForDate_CutoffClampsInShortMonths(t *testing.T) {
	// Cutoff 31 in February: the period boundary falls on Feb 29 (2024 is
	// a leap year), so Feb 28 still belongs to the January period and
	// Feb 29 opens the February period.
	d := time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC)
	if got := period.ForDate(d, 31); got != "2024-01" {
		t.Errorf("ForDate(Feb 28, 31) = %s, want 2024-01", got)
	}
	d = time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	if got := period.ForDate(d, 31); got != "2024-02" {
		t.Errorf("ForDate(Feb 29, 31) = %s, want 2024-02", got)
	}
}

// Every date must fall inside the range of its own period.
func TestRoundTrip_DateWithinResolvedPeriodRange(t *testing.T) {
	start := time.Date(2023, 11, 1, 0, 0, 0, 0, time.UTC)
	for cutoff := 1; cutoff <= 28; cutoff++ {
		for day := 0; day < 500; day++ {
			d := start.AddDate(0, 0, day)
			key := period.ForDate(d, cutoff)
			lo, hi, err := period.Range(key, cutoff)
			if err != nil {
				t.Fatalf("Range(%s, %d): %v", key, cutoff, err)
			}
			if d.Before(lo) || d.After(hi) {
				t.Fatalf("date %s outside range of its period %s [%s, %s] (cutoff %d)",
					d.Format("2006-01-02"), key, lo, hi, cutoff)
			}
		}
	}
}

// Consecutive periods must share an exact one-second boundary.
func TestContiguity_NoGapsNoOverlaps(t *testing.T) {
	for _, cutoff := range []int{1, 5, 15, 28, 31} {
		key := "2023-10"
		for i := 0; i < 12; i++ {
			next, err := period.Next(key)
			if err != nil {
				t.Fatal(err)
			}
			_, end, err := period.Range(key, cutoff)
			if err != nil {
				t.Fatal(err)
			}
			nextStart, _, err := period.Range(next, cutoff)
			if err != nil {
				t.Fatal(err)
			}
			if !end.Add(time.Second).Equal(nextStart) {
				t.Fatalf("cutoff %d: end of %s (%s) not one second before start of %s (%s)",
					cutoff, key, end, next, nextStart)
			}
			key = next
		}
	}
}

func TestPreviousNext_AreInverse(t *testing.T) {
	keys := []string{"2024-01", "2024-12", "2023-02", "2020-06"}
	for _, key := range keys {
		next, err := period.Next(key)
		if err != nil {
			t.Fatal(err)
		}
		back, err := period.Previous(next)
		if err != nil {
			t.Fatal(err)
		}
		if back != key {
			t.Errorf("Previous(Next(%s)) = %s", key, back)
		}
	}

	if prev, _ := period.Previous("2024-01"); prev != "2023-12" {
		t.Errorf("Previous(2024-01) = %s, want 2023-12", prev)
	}
	if next, _ := period.Next("2023-12"); next != "2024-01" {
		t.Errorf("Next(2023-12) = %s, want 2024-01", next)
	}
}

func TestParse_RejectsMalformedKeys(t *testing.T) {
	for _, key := range []string{"", "2024", "2024-13", "2024-00", "2024/01", "24-01", "2024-1", "2024-1x", "2O24-01"} {
		if _, _, err := period.Parse(key); err == nil {
			t.Errorf("Parse(%q): expected error", key)
		}
	}
}

func TestRange_ClampsCutoffInFebruary(t *testing.T) {
	start, end, err := period.Range("2023-02", 31)
	if err != nil {
		t.Fatal(err)
	}
	wantStart := time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC)
	if !start.Equal(wantStart) {
		t.Errorf("start = %s, want %s", start, wantStart)
	}
	wantEnd := time.Date(2023, 3, 31, 0, 0, 0, 0, time.UTC).Add(-time.Second)
	if !end.Equal(wantEnd) {
		t.Errorf("end = %s, want %s", end, wantEnd)
	}
}
