package workflow

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/grad-lab/capstone-backend/dao/model"
)

func TestTransitions(t *testing.T) {
	t.Run("CanTransition", func(t *testing.T) {
		Convey("legal edges are in the graph", t, func() {
			So(CanTransition(model.StatusTopicSubmissionPending, model.StatusTopicPendingAdvisor), ShouldBeTrue)
			So(CanTransition(model.StatusTopicPendingAdvisor, model.StatusTopicApproved), ShouldBeTrue)
			So(CanTransition(model.StatusTopicPendingAdvisor, model.StatusTopicRequestedChanges), ShouldBeTrue)
			So(CanTransition(model.StatusTopicRequestedChanges, model.StatusTopicPendingAdvisor), ShouldBeTrue)
			So(CanTransition(model.StatusTopicApproved, model.StatusOutlinePendingSubmission), ShouldBeTrue)
			So(CanTransition(model.StatusOutlinePendingAdvisor, model.StatusOutlineRejected), ShouldBeTrue)
			So(CanTransition(model.StatusOutlineApproved, model.StatusPendingHead), ShouldBeTrue)
			So(CanTransition(model.StatusOutlineApproved, model.StatusApprovedByHead), ShouldBeTrue)
			So(CanTransition(model.StatusPendingHead, model.StatusRejectedByHead), ShouldBeTrue)
			So(CanTransition(model.StatusRequestedChangesHead, model.StatusPendingHead), ShouldBeTrue)
		})

		Convey("edges cannot be walked backwards or skipped", t, func() {
			So(CanTransition(model.StatusTopicPendingAdvisor, model.StatusTopicSubmissionPending), ShouldBeFalse)
			So(CanTransition(model.StatusTopicSubmissionPending, model.StatusTopicApproved), ShouldBeFalse)
			So(CanTransition(model.StatusTopicSubmissionPending, model.StatusApprovedByHead), ShouldBeFalse)
			So(CanTransition(model.StatusOutlinePendingSubmission, model.StatusOutlineApproved), ShouldBeFalse)
			So(CanTransition(model.StatusApprovedByHead, model.StatusPendingHead), ShouldBeFalse)
		})
	})

	t.Run("IsTerminal", func(t *testing.T) {
		Convey("terminal statuses have no outgoing edge", t, func() {
			So(IsTerminal(model.StatusApprovedByHead), ShouldBeTrue)
			So(IsTerminal(model.StatusRejectedByHead), ShouldBeTrue)
			So(IsTerminal(model.StatusOutlineRejected), ShouldBeTrue)

			So(IsTerminal(model.StatusTopicSubmissionPending), ShouldBeFalse)
			So(IsTerminal(model.StatusOutlineApproved), ShouldBeFalse)
			So(IsTerminal(model.StatusRequestedChangesHead), ShouldBeFalse)
		})
	})
}
