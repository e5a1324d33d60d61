// Package formula contains the pure ranking arithmetic: the per-session
// ranking contribution, the whole-player composite ranking score, and the
// shared helpers (level derivation, incremental average, accuracy).
//
// Everything here is stateless and deterministic. The weights are named
// constant sets rather than inline arithmetic because the composite formula
// has been revised before; any change to them invalidates stored composite
// scores until a full recomputation run completes.
package formula

import "math"

// SessionWeights parameterize the per-session ranking contribution.
type SessionWeights struct {
	Score      float64 // weight of the raw score
	Level      float64 // flat bonus per level
	Accuracy   float64 // weight of the accuracy percentage
	SpeedBase  float64 // numerator of the inverse-duration bonus
	SpeedBonus float64 // multiplier bounding the speed bonus
}

// CompositeWeights parameterize the whole-player composite ranking score.
type CompositeWeights struct {
	TotalScore   float64
	Level        float64
	GamesPlayed  float64
	AverageScore float64
	Streak       float64
}

// Authoritative weight sets. Long-term accumulation (total score, games
// played) dominates short-term average fluctuation; level and streak
// provide escalating incentives.
var (
	DefaultSession   = SessionWeights{Score: 0.6, Level: 50, Accuracy: 2, SpeedBase: 3600, SpeedBonus: 0.5}
	DefaultComposite = CompositeWeights{TotalScore: 0.5, Level: 150, GamesPlayed: 3, AverageScore: 0.3, Streak: 10}
)

// pointsPerLevel is the score interval between player levels.
const pointsPerLevel = 1000

// SessionScore computes the per-session ranking contribution for a record
// using the weight set w. Duration must be positive in a valid record; a
// non-positive duration contributes no speed bonus instead of an unbounded
// one.
func (w SessionWeights) SessionScore(score float64, level int, durationSeconds, accuracyPct float64) int {
	var speed float64
	if durationSeconds > 0 {
		speed = (w.SpeedBase / durationSeconds) * w.SpeedBonus
	}
	return int(math.Round(score*w.Score + float64(level)*w.Level + accuracyPct*w.Accuracy + speed))
}

// CompositeScore computes the whole-player composite ranking score from the
// aggregate counters using the weight set w.
func (w CompositeWeights) CompositeScore(totalScore float64, level int, gamesPlayed int64, averageScore float64, streak int) int {
	return int(math.Round(
		totalScore*w.TotalScore +
			float64(level)*w.Level +
			float64(gamesPlayed)*w.GamesPlayed +
			averageScore*w.AverageScore +
			float64(streak)*w.Streak,
	))
}

// SessionScore computes the session contribution with the authoritative
// weight set.
func SessionScore(score float64, level int, durationSeconds, accuracyPct float64) int {
	return DefaultSession.SessionScore(score, level, durationSeconds, accuracyPct)
}

// CompositeScore computes the composite ranking score with the
// authoritative weight set.
func CompositeScore(totalScore float64, level int, gamesPlayed int64, averageScore float64, streak int) int {
	return DefaultComposite.CompositeScore(totalScore, level, gamesPlayed, averageScore, streak)
}

// Level derives the player level from the lifetime total score:
// one level per thousand points, starting at level 1.
func Level(totalScore float64) int {
	return int(math.Floor(totalScore/pointsPerLevel)) + 1
}

// IncrementalAverage folds a new value into a running average without
// re-reading history. oldCount is the count before the new value; the
// returned average covers oldCount+1 values. This is the single shared
// implementation so every call site rounds identically.
func IncrementalAverage(oldAvg float64, oldCount int64, value float64) float64 {
	n := float64(oldCount + 1)
	return (oldAvg*(n-1) + value) / n
}

// AccuracyPct derives the rounded accuracy percentage from answer counts.
// Zero total questions yields zero, not a division error.
func AccuracyPct(correctAnswers, totalQuestions int) float64 {
	if totalQuestions <= 0 {
		return 0
	}
	return math.Round(float64(correctAnswers) / float64(totalQuestions) * 100)
}
