package game

import "math"

// ScoringConfig holds the scoring constants loaded once at startup.
type ScoringConfig struct {
	Base          int
	RankBonusMax  int
	RankBonusStep int
	RankBonusMin  int
	TimeBonusMax  int
	TimeBonusMin  int
	PerfectMs     int64
}

// DefaultScoringConfig mirrors the classic 100 + speed-rank bonus curve.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		Base:          100,
		RankBonusMax:  50,
		RankBonusStep: 10,
		RankBonusMin:  10,
		TimeBonusMax:  50,
		TimeBonusMin:  10,
		PerfectMs:     2000,
	}
}

// Score maps a single answer to its score contribution. It is a pure function
// with no shared state; callers need no synchronization.
//
// Incorrect answers score zero. Correct answers score
// base + rankBonus(rankAmongCorrect, correctCount) + timeBonus(elapsedMs).
// Bonus terms are summed as floats and rounded once at the end, so no
// per-term rounding error compounds.
func Score(cfg ScoringConfig, correct bool, elapsedMs int64, rankAmongCorrect, correctCount int, timeLimitMs int64) int {
	if !correct {
		return 0
	}
	total := float64(cfg.Base) + rankBonus(cfg, rankAmongCorrect, correctCount) + timeBonus(cfg, elapsedMs, timeLimitMs)
	return int(math.Round(total))
}

// rankBonus is highest for rank 1 and decreases by a fixed step per rank,
// floored at the configured minimum. A lone correct answer always earns the
// maximum; rank 1 among 1 is not penalized.
func rankBonus(cfg ScoringConfig, rank, correctCount int) float64 {
	if correctCount <= 1 {
		return float64(cfg.RankBonusMax)
	}
	bonus := cfg.RankBonusMax - (rank-1)*cfg.RankBonusStep
	if bonus < cfg.RankBonusMin {
		bonus = cfg.RankBonusMin
	}
	return float64(bonus)
}

// timeBonus is maximal for answers at or below the perfect threshold and
// decays linearly to the configured minimum as elapsed time approaches the
// question's time limit.
func timeBonus(cfg ScoringConfig, elapsedMs, timeLimitMs int64) float64 {
	if elapsedMs <= cfg.PerfectMs {
		return float64(cfg.TimeBonusMax)
	}
	if timeLimitMs <= cfg.PerfectMs || elapsedMs >= timeLimitMs {
		return float64(cfg.TimeBonusMin)
	}
	span := float64(timeLimitMs - cfg.PerfectMs)
	decay := float64(elapsedMs-cfg.PerfectMs) / span * float64(cfg.TimeBonusMax-cfg.TimeBonusMin)
	return float64(cfg.TimeBonusMax) - decay
}
