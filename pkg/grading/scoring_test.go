package grading

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/grad-lab/capstone-backend/dao/model"
	"github.com/grad-lab/capstone-backend/pkg/apperror"
)

func TestValidation(t *testing.T) {
	t.Run("ValidateScore", func(t *testing.T) {
		Convey("both bounds are inclusive", t, func() {
			So(ValidateScore(0), ShouldBeNil)
			So(ValidateScore(10), ShouldBeNil)
			So(ValidateScore(7.25), ShouldBeNil)
		})

		Convey("out of range is a validation error", t, func() {
			So(apperror.IsKind(ValidateScore(-0.01), apperror.KindValidation), ShouldBeTrue)
			So(apperror.IsKind(ValidateScore(10.01), apperror.KindValidation), ShouldBeTrue)
		})
	})

	t.Run("ValidateWeights", func(t *testing.T) {
		Convey("weights must sum to 1 within tolerance", t, func() {
			So(ValidateWeights(0.4, 0.6), ShouldBeNil)
			So(ValidateWeights(0.5, 0.5), ShouldBeNil)
			So(ValidateWeights(0.495, 0.5), ShouldBeNil)

			So(apperror.IsKind(ValidateWeights(0.5, 0.6), apperror.KindValidation), ShouldBeTrue)
			So(apperror.IsKind(ValidateWeights(0.3, 0.3), apperror.KindValidation), ShouldBeTrue)
		})

		Convey("negative weights are rejected even when they sum to 1", t, func() {
			So(apperror.IsKind(ValidateWeights(-0.2, 1.2), apperror.KindValidation), ShouldBeTrue)
		})
	})
}

func scores(advisor []float64, committee []float64) []model.EvaluationScore {
	out := make([]model.EvaluationScore, 0, len(advisor)+len(committee))
	for _, s := range advisor {
		out = append(out, model.EvaluationScore{Role: model.EvaluatorRoleAdvisor, Score: s})
	}
	for _, s := range committee {
		out = append(out, model.EvaluationScore{Role: model.EvaluatorRoleCommittee, Score: s})
	}
	return out
}

func TestScoring(t *testing.T) {
	t.Run("RoleAverage", func(t *testing.T) {
		Convey("a role without scores yields nil, not zero", t, func() {
			all := scores([]float64{8}, nil)
			So(RoleAverage(all, model.EvaluatorRoleCommittee), ShouldBeNil)
			So(*RoleAverage(all, model.EvaluatorRoleAdvisor), ShouldAlmostEqual, 8.0)
		})

		Convey("committee scores average arithmetically", t, func() {
			all := scores(nil, []float64{7, 9})
			So(*RoleAverage(all, model.EvaluatorRoleCommittee), ShouldAlmostEqual, 8.0)
		})
	})

	t.Run("ProjectedFinalScore", func(t *testing.T) {
		Convey("a lone advisor score projects to itself", t, func() {
			advisorAvg := 7.0
			projected := ProjectedFinalScore(&advisorAvg, nil, 0.4, 0.6)
			So(projected, ShouldNotBeNil)
			So(*projected, ShouldAlmostEqual, 7.0)
		})

		Convey("with both roles present the projection equals the weighted mix", t, func() {
			advisorAvg, committeeAvg := 8.0, 6.0
			projected := ProjectedFinalScore(&advisorAvg, &committeeAvg, 0.4, 0.6)
			So(*projected, ShouldAlmostEqual, 8.0*0.4+6.0*0.6)
		})

		Convey("no scores at all projects to nil", t, func() {
			So(ProjectedFinalScore(nil, nil, 0.4, 0.6), ShouldBeNil)
		})
	})

	t.Run("FinalScore", func(t *testing.T) {
		Convey("weights apply verbatim when both roles scored", t, func() {
			all := scores([]float64{8}, []float64{7, 9})
			advisorAvg := RoleAverage(all, model.EvaluatorRoleAdvisor)
			committeeAvg := RoleAverage(all, model.EvaluatorRoleCommittee)
			So(FinalScore(advisorAvg, committeeAvg, 0.4, 0.6), ShouldAlmostEqual, 8.0)
		})

		Convey("a missing role contributes zero, weights are not renormalized", t, func() {
			advisorAvg := 7.0
			So(FinalScore(&advisorAvg, nil, 0.4, 0.6), ShouldAlmostEqual, 2.8)
		})
	})
}
