package workflow

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"gorm.io/gorm"
	"k8s.io/utils/ptr"

	"github.com/grad-lab/capstone-backend/dao/model"
	"github.com/grad-lab/capstone-backend/pkg/apperror"
)

var (
	student  = Principal{UserID: 10, Username: "sv2110001", Role: model.RoleStudent}
	advisor  = Principal{UserID: 20, Username: "gv001", Role: model.RoleFaculty}
	head     = Principal{UserID: 30, Username: "head001", Role: model.RoleDeptHead}
	outsider = Principal{UserID: 99, Username: "sv9999999", Role: model.RoleStudent}
)

func testProject(status model.ProposedProjectStatus) *model.ProposedProject {
	return &model.ProposedProject{
		Model:  gorm.Model{ID: 1},
		Title:  "Realtime bus tracking",
		Status: status,
		Members: []model.ProposedProjectMember{
			{ProjectID: 1, UserID: student.UserID, Role: model.MemberRoleStudent, IsOwner: true},
			{ProjectID: 1, UserID: advisor.UserID, Role: model.MemberRoleAdvisor},
		},
	}
}

func TestTopicPhase(t *testing.T) {
	t.Run("SubmitTopic", func(t *testing.T) {
		Convey("a draft save keeps the status", t, func() {
			p := testProject(model.StatusTopicSubmissionPending)
			res, err := SubmitTopic(p, student, SubmitTopicInput{Title: "New title"})
			So(err, ShouldBeNil)
			So(res.History, ShouldBeEmpty)
			So(p.Status, ShouldEqual, model.StatusTopicSubmissionPending)
			So(p.Title, ShouldEqual, "New title")
		})

		Convey("submitting to the advisor walks one edge", t, func() {
			p := testProject(model.StatusTopicSubmissionPending)
			res, err := SubmitTopic(p, student, SubmitTopicInput{Title: "New title", SubmitToAdvisor: true})
			So(err, ShouldBeNil)
			So(p.Status, ShouldEqual, model.StatusTopicPendingAdvisor)
			So(res.History, ShouldHaveLength, 1)
			So(res.History[0].OldStatus, ShouldEqual, model.StatusTopicSubmissionPending)
			So(res.History[0].NewStatus, ShouldEqual, model.StatusTopicPendingAdvisor)
			So(res.History[0].ActorID, ShouldEqual, student.UserID)
		})

		Convey("only a student member may submit", t, func() {
			p := testProject(model.StatusTopicSubmissionPending)
			_, err := SubmitTopic(p, advisor, SubmitTopicInput{Title: "x"})
			So(apperror.IsKind(err, apperror.KindForbidden), ShouldBeTrue)
			_, err = SubmitTopic(p, outsider, SubmitTopicInput{Title: "x"})
			So(apperror.IsKind(err, apperror.KindForbidden), ShouldBeTrue)
		})

		Convey("an empty title is rejected", t, func() {
			p := testProject(model.StatusTopicSubmissionPending)
			_, err := SubmitTopic(p, student, SubmitTopicInput{Title: "   "})
			So(apperror.IsKind(err, apperror.KindValidation), ShouldBeTrue)
		})

		Convey("a passed lock date blocks the submission", t, func() {
			p := testProject(model.StatusTopicSubmissionPending)
			p.TopicLockDate = ptr.To(time.Now().Add(-time.Hour))
			_, err := SubmitTopic(p, student, SubmitTopicInput{Title: "x", SubmitToAdvisor: true})
			So(apperror.IsKind(err, apperror.KindValidation), ShouldBeTrue)
		})

		Convey("the topic is frozen once it left the editing statuses", t, func() {
			p := testProject(model.StatusTopicPendingAdvisor)
			_, err := SubmitTopic(p, student, SubmitTopicInput{Title: "x"})
			So(apperror.IsKind(err, apperror.KindInvalidTransition), ShouldBeTrue)
		})
	})

	t.Run("ReviewTopic", func(t *testing.T) {
		Convey("approve moves to TOPIC_APPROVED", t, func() {
			p := testProject(model.StatusTopicPendingAdvisor)
			res, err := ReviewTopic(p, advisor, DecisionApprove, "")
			So(err, ShouldBeNil)
			So(p.Status, ShouldEqual, model.StatusTopicApproved)
			So(res.History, ShouldHaveLength, 1)
			So(res.Comment, ShouldBeNil)
		})

		Convey("request_changes requires a comment and records it", t, func() {
			p := testProject(model.StatusTopicPendingAdvisor)
			_, err := ReviewTopic(p, advisor, DecisionRequestChanges, "")
			So(apperror.IsKind(err, apperror.KindValidation), ShouldBeTrue)

			res, err := ReviewTopic(p, advisor, DecisionRequestChanges, "narrow the scope")
			So(err, ShouldBeNil)
			So(p.Status, ShouldEqual, model.StatusTopicRequestedChanges)
			So(res.Comment, ShouldNotBeNil)
			So(res.Comment.Content, ShouldEqual, "narrow the scope")
			So(res.Comment.AuthorID, ShouldEqual, advisor.UserID)
		})

		Convey("only the advisor reviews", t, func() {
			p := testProject(model.StatusTopicPendingAdvisor)
			_, err := ReviewTopic(p, student, DecisionApprove, "")
			So(apperror.IsKind(err, apperror.KindForbidden), ShouldBeTrue)
		})

		Convey("a topic not pending review cannot be reviewed", t, func() {
			p := testProject(model.StatusTopicApproved)
			_, err := ReviewTopic(p, advisor, DecisionApprove, "")
			So(apperror.IsKind(err, apperror.KindInvalidTransition), ShouldBeTrue)
		})

		Convey("resubmission after requested changes reaches the advisor again", t, func() {
			p := testProject(model.StatusTopicRequestedChanges)
			_, err := SubmitTopic(p, student, SubmitTopicInput{Title: "v2", SubmitToAdvisor: true})
			So(err, ShouldBeNil)
			So(p.Status, ShouldEqual, model.StatusTopicPendingAdvisor)
		})
	})
}

func TestOutlinePhase(t *testing.T) {
	fullOutline := SubmitOutlineInput{
		Introduction:    "intro",
		Objectives:      "objectives",
		Methodology:     "methodology",
		ExpectedResults: "results",
	}

	t.Run("SubmitOutline", func(t *testing.T) {
		Convey("the first save after topic approval enters the outline phase", t, func() {
			p := testProject(model.StatusTopicApproved)
			res, err := SubmitOutline(p, student, SubmitOutlineInput{Introduction: "draft intro"})
			So(err, ShouldBeNil)
			So(p.Status, ShouldEqual, model.StatusOutlinePendingSubmission)
			So(p.Outline, ShouldNotBeNil)
			So(p.Outline.Status, ShouldEqual, model.OutlineDraft)
			So(res.History, ShouldHaveLength, 1)
		})

		Convey("submitting for review records both hops from TOPIC_APPROVED", t, func() {
			p := testProject(model.StatusTopicApproved)
			in := fullOutline
			in.SubmitForReview = true
			res, err := SubmitOutline(p, student, in)
			So(err, ShouldBeNil)
			So(p.Status, ShouldEqual, model.StatusOutlinePendingAdvisor)
			So(p.Outline.Status, ShouldEqual, model.OutlinePendingReview)
			So(res.History, ShouldHaveLength, 2)
		})

		Convey("review submission requires all four fields", t, func() {
			p := testProject(model.StatusOutlinePendingSubmission)
			in := fullOutline
			in.Methodology = ""
			in.SubmitForReview = true
			_, err := SubmitOutline(p, student, in)
			So(apperror.IsKind(err, apperror.KindValidation), ShouldBeTrue)
		})

		Convey("the outline is not editable before topic approval", t, func() {
			p := testProject(model.StatusTopicPendingAdvisor)
			_, err := SubmitOutline(p, student, fullOutline)
			So(apperror.IsKind(err, apperror.KindInvalidTransition), ShouldBeTrue)
		})
	})

	t.Run("ReviewOutline", func(t *testing.T) {
		pending := func() *model.ProposedProject {
			p := testProject(model.StatusOutlinePendingAdvisor)
			p.Outline = &model.ProposalOutline{ProjectID: p.ID, Status: model.OutlinePendingReview}
			return p
		}

		Convey("approve moves project and outline together", t, func() {
			p := pending()
			_, err := ReviewOutline(p, advisor, DecisionApprove, "")
			So(err, ShouldBeNil)
			So(p.Status, ShouldEqual, model.StatusOutlineApproved)
			So(p.Outline.Status, ShouldEqual, model.OutlineApproved)
		})

		Convey("request_changes sends the outline back to draft", t, func() {
			p := pending()
			_, err := ReviewOutline(p, advisor, DecisionRequestChanges, "rework methodology")
			So(err, ShouldBeNil)
			So(p.Status, ShouldEqual, model.StatusOutlineRequestedChanges)
			So(p.Outline.Status, ShouldEqual, model.OutlineDraft)
		})

		Convey("reject is terminal for the proposal cycle", t, func() {
			p := pending()
			_, err := ReviewOutline(p, advisor, DecisionReject, "off topic")
			So(err, ShouldBeNil)
			So(p.Status, ShouldEqual, model.StatusOutlineRejected)
			So(p.Outline.Status, ShouldEqual, model.OutlineRejected)
			So(IsTerminal(p.Status), ShouldBeTrue)
		})

		Convey("an outline not pending review cannot be reviewed", t, func() {
			p := testProject(model.StatusOutlinePendingSubmission)
			p.Outline = &model.ProposalOutline{ProjectID: p.ID, Status: model.OutlineDraft}
			_, err := ReviewOutline(p, advisor, DecisionReject, "x")
			So(apperror.IsKind(err, apperror.KindInvalidTransition), ShouldBeTrue)
		})
	})
}

func TestHeadPhase(t *testing.T) {
	t.Run("RequestHeadReview", func(t *testing.T) {
		Convey("an outline-approved project can be sent to the head", t, func() {
			p := testProject(model.StatusOutlineApproved)
			res, err := RequestHeadReview(p, student)
			So(err, ShouldBeNil)
			So(p.Status, ShouldEqual, model.StatusPendingHead)
			So(res.History, ShouldHaveLength, 1)
		})

		Convey("resubmission after head-requested changes is allowed", t, func() {
			p := testProject(model.StatusRequestedChangesHead)
			_, err := RequestHeadReview(p, advisor)
			So(err, ShouldBeNil)
			So(p.Status, ShouldEqual, model.StatusPendingHead)
		})

		Convey("non-members cannot request head review", t, func() {
			p := testProject(model.StatusOutlineApproved)
			_, err := RequestHeadReview(p, outsider)
			So(apperror.IsKind(err, apperror.KindForbidden), ShouldBeTrue)
		})
	})

	t.Run("DepartmentHeadReview", func(t *testing.T) {
		Convey("the head always comments", t, func() {
			p := testProject(model.StatusPendingHead)
			_, err := DepartmentHeadReview(p, head, DecisionRequestChanges, "")
			So(apperror.IsKind(err, apperror.KindValidation), ShouldBeTrue)

			res, err := DepartmentHeadReview(p, head, DecisionRequestChanges, "clarify budget")
			So(err, ShouldBeNil)
			So(p.Status, ShouldEqual, model.StatusRequestedChangesHead)
			So(res.Comment, ShouldNotBeNil)
		})

		Convey("reject ends the proposal", t, func() {
			p := testProject(model.StatusPendingHead)
			_, err := DepartmentHeadReview(p, head, DecisionReject, "duplicate of last year")
			So(err, ShouldBeNil)
			So(p.Status, ShouldEqual, model.StatusRejectedByHead)
			So(IsTerminal(p.Status), ShouldBeTrue)
		})

		Convey("approve goes through FinalApproval, not the review decision", t, func() {
			p := testProject(model.StatusPendingHead)
			_, err := DepartmentHeadReview(p, head, DecisionApprove, "ok")
			So(apperror.IsKind(err, apperror.KindValidation), ShouldBeTrue)
		})

		Convey("only head-grade roles review here", t, func() {
			p := testProject(model.StatusPendingHead)
			_, err := DepartmentHeadReview(p, advisor, DecisionReject, "x")
			So(apperror.IsKind(err, apperror.KindForbidden), ShouldBeTrue)
		})
	})

	t.Run("FinalApproval", func(t *testing.T) {
		Convey("approval stamps the project and locks the outline", t, func() {
			p := testProject(model.StatusPendingHead)
			p.Outline = &model.ProposalOutline{ProjectID: p.ID, Status: model.OutlineApproved}
			res, err := FinalApproval(p, head, "well prepared")
			So(err, ShouldBeNil)
			So(p.Status, ShouldEqual, model.StatusApprovedByHead)
			So(p.ApprovedAt, ShouldNotBeNil)
			So(*p.ApprovedByID, ShouldEqual, head.UserID)
			So(p.Outline.Status, ShouldEqual, model.OutlineLocked)
			So(res.Comment, ShouldNotBeNil)
		})

		Convey("approval from OUTLINE_APPROVED skips the explicit head request", t, func() {
			p := testProject(model.StatusOutlineApproved)
			_, err := FinalApproval(p, head, "")
			So(err, ShouldBeNil)
			So(p.Status, ShouldEqual, model.StatusApprovedByHead)
		})

		Convey("a second approval fails on the transition check", t, func() {
			p := testProject(model.StatusPendingHead)
			_, err := FinalApproval(p, head, "")
			So(err, ShouldBeNil)
			_, err = FinalApproval(p, head, "")
			So(apperror.IsKind(err, apperror.KindInvalidTransition), ShouldBeTrue)
		})

		Convey("students cannot approve", t, func() {
			p := testProject(model.StatusPendingHead)
			_, err := FinalApproval(p, student, "")
			So(apperror.IsKind(err, apperror.KindForbidden), ShouldBeTrue)
		})
	})
}

func TestMembersAndComments(t *testing.T) {
	t.Run("ManageMember", func(t *testing.T) {
		Convey("the owner adds and removes members", t, func() {
			p := testProject(model.StatusTopicSubmissionPending)
			m, err := ManageMember(p, student, MemberAdd, 11, model.MemberRoleStudent)
			So(err, ShouldBeNil)
			So(m.UserID, ShouldEqual, 11)
			So(p.Members, ShouldHaveLength, 3)

			_, err = ManageMember(p, student, MemberRemove, 11, "")
			So(err, ShouldBeNil)
			So(p.Members, ShouldHaveLength, 2)
		})

		Convey("adding twice or removing a stranger is a validation error", t, func() {
			p := testProject(model.StatusTopicSubmissionPending)
			_, err := ManageMember(p, student, MemberAdd, advisor.UserID, model.MemberRoleAdvisor)
			So(apperror.IsKind(err, apperror.KindValidation), ShouldBeTrue)
			_, err = ManageMember(p, student, MemberRemove, 42, "")
			So(apperror.IsKind(err, apperror.KindValidation), ShouldBeTrue)
		})

		Convey("the owner cannot be removed", t, func() {
			p := testProject(model.StatusTopicSubmissionPending)
			_, err := ManageMember(p, advisor, MemberRemove, student.UserID, "")
			So(apperror.IsKind(err, apperror.KindValidation), ShouldBeTrue)
		})

		Convey("ordinary members cannot manage the roster", t, func() {
			p := testProject(model.StatusTopicSubmissionPending)
			p.Members = append(p.Members, model.ProposedProjectMember{ProjectID: 1, UserID: 11, Role: model.MemberRoleStudent})
			plain := Principal{UserID: 11, Role: model.RoleStudent}
			_, err := ManageMember(p, plain, MemberAdd, 12, model.MemberRoleStudent)
			So(apperror.IsKind(err, apperror.KindForbidden), ShouldBeTrue)
		})
	})

	t.Run("AddComment", func(t *testing.T) {
		Convey("members comment, outsiders do not", t, func() {
			p := testProject(model.StatusTopicPendingAdvisor)
			cm, err := AddComment(p, advisor, "looks promising")
			So(err, ShouldBeNil)
			So(cm.AuthorID, ShouldEqual, advisor.UserID)

			_, err = AddComment(p, outsider, "me too")
			So(apperror.IsKind(err, apperror.KindForbidden), ShouldBeTrue)
		})

		Convey("empty comments are rejected", t, func() {
			p := testProject(model.StatusTopicPendingAdvisor)
			_, err := AddComment(p, student, "  ")
			So(apperror.IsKind(err, apperror.KindValidation), ShouldBeTrue)
		})
	})
}
