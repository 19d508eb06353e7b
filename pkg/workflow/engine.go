package workflow

import (
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/grad-lab/capstone-backend/dao/model"
	"github.com/grad-lab/capstone-backend/pkg/apperror"
)

// Decision is a reviewer's verdict on a submission.
type Decision string

const (
	DecisionApprove        Decision = "approve"
	DecisionRequestChanges Decision = "request_changes"
	DecisionReject         Decision = "reject"
)

// Result collects the records an operation produced. The caller persists them
// together with the mutated entities in one transaction.
type Result struct {
	History []model.ProposedProjectStatusHistory
	Comment *model.ProposedProjectComment
}

type SubmitTopicInput struct {
	Title           string
	Description     string
	SubmitToAdvisor bool
}

type SubmitOutlineInput struct {
	Introduction    string
	Objectives      string
	Methodology     string
	ExpectedResults string
	FileID          *string
	SubmitForReview bool
}

// SubmitTopic saves the topic title/description and, when requested, submits
// it for advisor review. Only a student member may call it.
func SubmitTopic(p *model.ProposedProject, pr Principal, in SubmitTopicInput) (*Result, error) {
	if err := requireStudent(p, pr); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, apperror.Validation("topic title must not be empty")
	}
	if p.TopicLockDate != nil && time.Now().After(*p.TopicLockDate) {
		return nil, apperror.Validation("topic submissions are locked since %s", p.TopicLockDate.Format(time.DateOnly))
	}
	switch p.Status {
	case model.StatusTopicSubmissionPending, model.StatusTopicRequestedChanges:
	default:
		return nil, apperror.InvalidTransition("topic can no longer be edited in status %s", p.Status)
	}

	p.Title = in.Title
	p.Description = in.Description

	res := &Result{}
	if in.SubmitToAdvisor {
		h, err := applyTransition(p, model.StatusTopicPendingAdvisor, pr, model.StatusChangeDetail{Decision: "submit"})
		if err != nil {
			return nil, err
		}
		res.History = append(res.History, *h)
	}
	return res, nil
}

// ReviewTopic records the advisor's verdict on a submitted topic.
// A comment is mandatory for every decision except approve.
func ReviewTopic(p *model.ProposedProject, pr Principal, decision Decision, comment string) (*Result, error) {
	if err := requireAdvisor(p, pr); err != nil {
		return nil, err
	}
	var target model.ProposedProjectStatus
	switch decision {
	case DecisionApprove:
		target = model.StatusTopicApproved
	case DecisionRequestChanges:
		target = model.StatusTopicRequestedChanges
	default:
		return nil, apperror.Validation("unsupported topic decision %q", decision)
	}
	if err := requireComment(decision, comment); err != nil {
		return nil, err
	}
	if p.Status != model.StatusTopicPendingAdvisor {
		return nil, apperror.InvalidTransition("topic is not pending advisor review (status %s)", p.Status)
	}

	res := &Result{}
	h, err := applyTransition(p, target, pr, model.StatusChangeDetail{Decision: string(decision), Comment: comment})
	if err != nil {
		return nil, err
	}
	res.History = append(res.History, *h)
	if comment != "" {
		res.Comment = &model.ProposedProjectComment{ProjectID: p.ID, AuthorID: pr.UserID, Content: comment}
	}
	return res, nil
}

// SubmitOutline creates or updates the proposal outline. Draft saves only
// touch the text fields; submitting for review requires all four fields and
// moves the project to advisor review.
func SubmitOutline(p *model.ProposedProject, pr Principal, in SubmitOutlineInput) (*Result, error) {
	if err := requireStudent(p, pr); err != nil {
		return nil, err
	}
	switch p.Status {
	case model.StatusTopicApproved, model.StatusOutlinePendingSubmission,
		model.StatusOutlineRequestedChanges, model.StatusOutlineApproved:
	default:
		return nil, apperror.InvalidTransition("outline cannot be edited in status %s", p.Status)
	}
	if in.SubmitForReview {
		for name, v := range map[string]string{
			"introduction":    in.Introduction,
			"objectives":      in.Objectives,
			"methodology":     in.Methodology,
			"expectedResults": in.ExpectedResults,
		} {
			if strings.TrimSpace(v) == "" {
				return nil, apperror.Validation("outline field %s is required for review submission", name)
			}
		}
	}

	if p.Outline == nil {
		p.Outline = &model.ProposalOutline{ProjectID: p.ID, Status: model.OutlineDraft}
	}
	o := p.Outline
	o.Introduction = in.Introduction
	o.Objectives = in.Objectives
	o.Methodology = in.Methodology
	o.ExpectedResults = in.ExpectedResults
	if in.FileID != nil {
		o.FileID = in.FileID
	}

	res := &Result{}
	// A first save after topic approval advances the project into the
	// outline phase before any review submission.
	if p.Status == model.StatusTopicApproved {
		h, err := applyTransition(p, model.StatusOutlinePendingSubmission, pr, model.StatusChangeDetail{Decision: "draft"})
		if err != nil {
			return nil, err
		}
		res.History = append(res.History, *h)
	}
	if in.SubmitForReview {
		h, err := applyTransition(p, model.StatusOutlinePendingAdvisor, pr, model.StatusChangeDetail{Decision: "submit"})
		if err != nil {
			return nil, err
		}
		o.Status = model.OutlinePendingReview
		res.History = append(res.History, *h)
	}
	return res, nil
}

// ReviewOutline records the advisor's verdict on a submitted outline. The
// outline and project statuses move together as one edge.
func ReviewOutline(p *model.ProposedProject, pr Principal, decision Decision, comment string) (*Result, error) {
	if err := requireAdvisor(p, pr); err != nil {
		return nil, err
	}
	if p.Outline == nil || p.Outline.Status != model.OutlinePendingReview {
		return nil, apperror.InvalidTransition("outline is not pending review")
	}
	if err := requireComment(decision, comment); err != nil {
		return nil, err
	}

	var target model.ProposedProjectStatus
	var outlineStatus model.OutlineStatus
	switch decision {
	case DecisionApprove:
		target, outlineStatus = model.StatusOutlineApproved, model.OutlineApproved
	case DecisionRequestChanges:
		target, outlineStatus = model.StatusOutlineRequestedChanges, model.OutlineDraft
	case DecisionReject:
		target, outlineStatus = model.StatusOutlineRejected, model.OutlineRejected
	default:
		return nil, apperror.Validation("unsupported outline decision %q", decision)
	}

	res := &Result{}
	h, err := applyTransition(p, target, pr, model.StatusChangeDetail{Decision: string(decision), Comment: comment})
	if err != nil {
		return nil, err
	}
	p.Outline.Status = outlineStatus
	res.History = append(res.History, *h)
	if comment != "" {
		res.Comment = &model.ProposedProjectComment{ProjectID: p.ID, AuthorID: pr.UserID, Content: comment}
	}
	return res, nil
}

// RequestHeadReview forwards an outline-approved project to the department
// head, or resubmits after the head requested changes.
func RequestHeadReview(p *model.ProposedProject, pr Principal) (*Result, error) {
	if err := requireMember(p, pr); err != nil {
		return nil, err
	}
	switch p.Status {
	case model.StatusOutlineApproved, model.StatusRequestedChangesHead:
	default:
		return nil, apperror.InvalidTransition("project cannot be sent for head review in status %s", p.Status)
	}
	h, err := applyTransition(p, model.StatusPendingHead, pr, model.StatusChangeDetail{Decision: "submit"})
	if err != nil {
		return nil, err
	}
	return &Result{History: []model.ProposedProjectStatusHistory{*h}}, nil
}

// DepartmentHeadReview records the head's request-changes or reject decision.
// The comment is always mandatory.
func DepartmentHeadReview(p *model.ProposedProject, pr Principal, decision Decision, comment string) (*Result, error) {
	if !pr.IsHead() {
		return nil, apperror.Forbidden("only the department head can review at this stage")
	}
	var target model.ProposedProjectStatus
	switch decision {
	case DecisionRequestChanges:
		target = model.StatusRequestedChangesHead
	case DecisionReject:
		target = model.StatusRejectedByHead
	default:
		return nil, apperror.Validation("unsupported head decision %q (use final approval to approve)", decision)
	}
	if strings.TrimSpace(comment) == "" {
		return nil, apperror.Validation("a comment is required for head review decisions")
	}
	switch p.Status {
	case model.StatusOutlineApproved, model.StatusPendingHead:
	default:
		return nil, apperror.InvalidTransition("project is not eligible for head review (status %s)", p.Status)
	}

	h, err := applyTransition(p, target, pr, model.StatusChangeDetail{Decision: string(decision), Comment: comment})
	if err != nil {
		return nil, err
	}
	return &Result{
		History: []model.ProposedProjectStatusHistory{*h},
		Comment: &model.ProposedProjectComment{ProjectID: p.ID, AuthorID: pr.UserID, Content: comment},
	}, nil
}

// FinalApproval is the single terminal success transition. It stamps the
// approval and locks the outline. Calling it on an already approved project
// fails on the transition check.
func FinalApproval(p *model.ProposedProject, pr Principal, comment string) (*Result, error) {
	if !pr.IsHead() {
		return nil, apperror.Forbidden("only the department head can give final approval")
	}
	switch p.Status {
	case model.StatusOutlineApproved, model.StatusPendingHead:
	default:
		return nil, apperror.InvalidTransition("project cannot be approved in status %s", p.Status)
	}

	h, err := applyTransition(p, model.StatusApprovedByHead, pr, model.StatusChangeDetail{Decision: string(DecisionApprove), Comment: comment})
	if err != nil {
		return nil, err
	}
	now := time.Now()
	p.ApprovedAt = &now
	p.ApprovedByID = &pr.UserID
	if p.Outline != nil {
		p.Outline.Status = model.OutlineLocked
	}

	res := &Result{History: []model.ProposedProjectStatusHistory{*h}}
	if strings.TrimSpace(comment) != "" {
		res.Comment = &model.ProposedProjectComment{ProjectID: p.ID, AuthorID: pr.UserID, Content: comment}
	}
	return res, nil
}

// AddComment appends a discussion comment. No status effect.
func AddComment(p *model.ProposedProject, pr Principal, content string) (*model.ProposedProjectComment, error) {
	if err := requireMember(p, pr); err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, apperror.Validation("comment content must not be empty")
	}
	return &model.ProposedProjectComment{ProjectID: p.ID, AuthorID: pr.UserID, Content: content}, nil
}

// MemberAction is add or remove in ManageMember.
type MemberAction string

const (
	MemberAdd    MemberAction = "add"
	MemberRemove MemberAction = "remove"
)

// ManageMember validates a membership change and returns the member row to
// create or delete. Only the owner or the advisor manages members.
func ManageMember(p *model.ProposedProject, pr Principal, action MemberAction, userID uint, role model.MemberRole) (*model.ProposedProjectMember, error) {
	caller := memberOf(p, pr.UserID)
	if caller == nil || (!caller.IsOwner && caller.Role != model.MemberRoleAdvisor) {
		return nil, apperror.Forbidden("only the project owner or advisor can manage members")
	}

	existing := memberOf(p, userID)
	switch action {
	case MemberAdd:
		if existing != nil {
			return nil, apperror.Validation("user %d is already a member of this project", userID)
		}
		if role == "" {
			role = model.MemberRoleStudent
		}
		m := model.ProposedProjectMember{ProjectID: p.ID, UserID: userID, Role: role}
		p.Members = append(p.Members, m)
		return &m, nil
	case MemberRemove:
		if existing == nil {
			return nil, apperror.Validation("user %d is not a member of this project", userID)
		}
		if existing.IsOwner {
			return nil, apperror.Validation("the project owner cannot be removed")
		}
		for i := range p.Members {
			if p.Members[i].UserID == userID {
				p.Members = append(p.Members[:i], p.Members[i+1:]...)
				break
			}
		}
		return existing, nil
	default:
		return nil, apperror.Validation("unsupported member action %q", action)
	}
}

func applyTransition(p *model.ProposedProject, to model.ProposedProjectStatus, pr Principal, detail model.StatusChangeDetail) (*model.ProposedProjectStatusHistory, error) {
	if !CanTransition(p.Status, to) {
		return nil, apperror.InvalidTransition("no transition from %s to %s", p.Status, to)
	}
	h := &model.ProposedProjectStatusHistory{
		ProjectID: p.ID,
		OldStatus: p.Status,
		NewStatus: to,
		ActorID:   pr.UserID,
		Detail:    datatypes.NewJSONType(detail),
	}
	p.Status = to
	return h, nil
}

func requireComment(decision Decision, comment string) error {
	if decision != DecisionApprove && strings.TrimSpace(comment) == "" {
		return apperror.Validation("a comment is required when the decision is %s", decision)
	}
	return nil
}

func memberOf(p *model.ProposedProject, userID uint) *model.ProposedProjectMember {
	for i := range p.Members {
		if p.Members[i].UserID == userID {
			return &p.Members[i]
		}
	}
	return nil
}

func requireMember(p *model.ProposedProject, pr Principal) error {
	if memberOf(p, pr.UserID) == nil {
		return apperror.Forbidden("user %d is not a member of this project", pr.UserID)
	}
	return nil
}

func requireStudent(p *model.ProposedProject, pr Principal) error {
	m := memberOf(p, pr.UserID)
	if m == nil || m.Role != model.MemberRoleStudent {
		return apperror.Forbidden("only a student member can perform this action")
	}
	return nil
}

func requireAdvisor(p *model.ProposedProject, pr Principal) error {
	m := memberOf(p, pr.UserID)
	if m == nil || m.Role != model.MemberRoleAdvisor {
		return apperror.Forbidden("only the project advisor can review")
	}
	return nil
}
