package game

import "testing"

func TestScoreIncorrectIsZero(t *testing.T) {
	cfg := DefaultScoringConfig()
	if got := Score(cfg, false, 100, 1, 1, 10000); got != 0 {
		t.Fatalf("expected 0 for incorrect answer, got %d", got)
	}
}

func TestScoreReferenceScenario(t *testing.T) {
	// base=100, rank bonus {max 50, step 10, min 10},
	// time bonus {perfect<=2000ms -> 50, linear decay to 10 at 10000ms}.
	cfg := ScoringConfig{
		Base:          100,
		RankBonusMax:  50,
		RankBonusStep: 10,
		RankBonusMin:  10,
		TimeBonusMax:  50,
		TimeBonusMin:  10,
		PerfectMs:     2000,
	}

	// A: correct at 1500ms, rank 1 of 2 -> 100 + 50 + 50 = 200.
	if got := Score(cfg, true, 1500, 1, 2, 10000); got != 200 {
		t.Fatalf("expected A to score 200, got %d", got)
	}
	// B: correct at 4000ms, rank 2 of 2 -> 100 + 40 + 40 = 180.
	if got := Score(cfg, true, 4000, 2, 2, 10000); got != 180 {
		t.Fatalf("expected B to score 180, got %d", got)
	}
}

func TestScoreLoneCorrectAnswerGetsMaxRankBonus(t *testing.T) {
	cfg := DefaultScoringConfig()
	got := Score(cfg, true, 1000, 1, 1, 10000)
	want := cfg.Base + cfg.RankBonusMax + cfg.TimeBonusMax
	if got != want {
		t.Fatalf("expected %d for lone correct answer, got %d", want, got)
	}
}

func TestScoreRankBonusFloorsAtMinimum(t *testing.T) {
	cfg := DefaultScoringConfig()
	// Rank 9 of 10: 50 - 8*10 would be -30, must floor at 10.
	got := Score(cfg, true, 1000, 9, 10, 10000)
	want := cfg.Base + cfg.RankBonusMin + cfg.TimeBonusMax
	if got != want {
		t.Fatalf("expected floored bonus %d, got %d", want, got)
	}
}

func TestScoreMonotoneInRankAndTime(t *testing.T) {
	cfg := DefaultScoringConfig()
	// Strictly increasing elapsed times across ranks 1..N must yield
	// non-increasing total scores, all else equal.
	prev := Score(cfg, true, 500, 1, 5, 10000)
	for rank := 2; rank <= 5; rank++ {
		elapsed := int64(500 + rank*1500)
		got := Score(cfg, true, elapsed, rank, 5, 10000)
		if got > prev {
			t.Fatalf("rank %d scored %d > previous rank's %d", rank, got, prev)
		}
		prev = got
	}
}

func TestTimeBonusBottomsOutAtLimit(t *testing.T) {
	cfg := DefaultScoringConfig()
	got := Score(cfg, true, 10000, 1, 1, 10000)
	want := cfg.Base + cfg.RankBonusMax + cfg.TimeBonusMin
	if got != want {
		t.Fatalf("expected minimum time bonus at the limit, got %d want %d", got, want)
	}
}
