// Package grading computes defense evaluation scores. All functions here are
// pure; handlers persist results inside a transaction guarded by the
// evaluation status.
package grading

import (
	"math"

	"github.com/grad-lab/capstone-backend/dao/model"
	"github.com/grad-lab/capstone-backend/pkg/apperror"
)

const (
	ScoreMin = 0.0
	ScoreMax = 10.0

	// WeightTolerance is the allowed deviation of advisor + committee
	// weights from 1 at finalization time.
	WeightTolerance = 0.01
)

// ValidateScore checks the 0..10 range, both bounds inclusive.
func ValidateScore(score float64) error {
	if score < ScoreMin || score > ScoreMax {
		return apperror.Validation("score %.2f is out of range [%v, %v]", score, ScoreMin, ScoreMax)
	}
	return nil
}

// ValidateWeights checks that the weights sum to 1 within tolerance.
func ValidateWeights(advisorWeight, committeeWeight float64) error {
	if advisorWeight < 0 || committeeWeight < 0 {
		return apperror.Validation("weights must not be negative")
	}
	if math.Abs(advisorWeight+committeeWeight-1) > WeightTolerance {
		return apperror.Validation("weights must sum to 1, got %.2f", advisorWeight+committeeWeight)
	}
	return nil
}

// RoleAverage averages the scores submitted under one role. It returns nil,
// not zero, when the role has no scores, so callers can tell "no data" apart
// from an actual zero score.
func RoleAverage(scores []model.EvaluationScore, role model.EvaluatorRole) *float64 {
	var sum float64
	var n int
	for i := range scores {
		if scores[i].Role == role {
			sum += scores[i].Score
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := sum / float64(n)
	return &avg
}

// ProjectedFinalScore is the interim score shown before every role has
// scored. Weights are renormalized over the roles that have submitted, so a
// lone advisor score of 7.0 projects to 7.0, not 7.0 times its weight.
// Returns nil when no role has any score.
func ProjectedFinalScore(advisorAvg, committeeAvg *float64, advisorWeight, committeeWeight float64) *float64 {
	var weighted, weightSum float64
	if advisorAvg != nil {
		weighted += *advisorAvg * advisorWeight
		weightSum += advisorWeight
	}
	if committeeAvg != nil {
		weighted += *committeeAvg * committeeWeight
		weightSum += committeeWeight
	}
	if weightSum == 0 {
		return nil
	}
	score := weighted / weightSum
	return &score
}

// FinalScore applies the chosen weights verbatim. Unlike the projection, a
// role without scores contributes 0: finalization trusts the dean-chosen
// weights rather than renormalizing around missing data.
func FinalScore(advisorAvg, committeeAvg *float64, advisorWeight, committeeWeight float64) float64 {
	var score float64
	if advisorAvg != nil {
		score += *advisorAvg * advisorWeight
	}
	if committeeAvg != nil {
		score += *committeeAvg * committeeWeight
	}
	return score
}
