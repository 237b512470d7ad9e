package tokencount

import "testing"

func TestFallbackCountIsDeterministic(t *testing.T) {
	if got := fallbackCount("abcd"); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
	if got := fallbackCount(""); got != 0 {
		t.Fatalf("expected 0 for empty string, got %d", got)
	}
}

func TestCountMonotonicPrefix(t *testing.T) {
	e := New()
	s1 := "the quick brown fox"
	s2 := s1 + " jumps over the lazy dog"

	if e.Count(s1, "claude") > e.Count(s2, "claude") {
		t.Fatalf("expected count(s1) <= count(s2)")
	}
}

func TestCountJSONNilIsZero(t *testing.T) {
	e := New()
	if got := e.CountJSON(nil, "claude"); got != 0 {
		t.Fatalf("expected 0 for nil value, got %d", got)
	}
}

func TestShouldTruncateModelAdjustment(t *testing.T) {
	if !ShouldTruncate(1000, 900, "other") {
		t.Fatal("expected truncation at 1.0x threshold")
	}
	if ShouldTruncate(1000, 900, "gpt-4") {
		t.Fatal("expected no truncation at 1.2x gpt-4 threshold for count 1000")
	}
	if !ShouldTruncate(1000, 900, "gpt-3.5") {
		t.Fatal("expected truncation at 0.8x gpt-3.5 threshold")
	}
}

func TestUsageTierBoundaries(t *testing.T) {
	cases := map[int]Tier{499: TierMinimal, 1999: TierStandard, 4999: TierIntensive, 5000: TierExcessive}
	for count, want := range cases {
		if got := UsageTier(count); got != want {
			t.Fatalf("UsageTier(%d) = %s, want %s", count, got, want)
		}
	}
}

func TestCacheReturnsSameResult(t *testing.T) {
	e := New()
	text := "repeated lookup text"
	first := e.Count(text, "claude")
	second := e.Count(text, "claude")
	if first != second {
		t.Fatalf("expected cached count to match: %d != %d", first, second)
	}
}
