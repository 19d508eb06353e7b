package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ProposedProjectStatus is the stage of a capstone proposal in the approval
// workflow. The legal edges between stages live in pkg/workflow.
type ProposedProjectStatus string

const (
	StatusTopicSubmissionPending ProposedProjectStatus = "TOPIC_SUBMISSION_PENDING"
	StatusTopicPendingAdvisor    ProposedProjectStatus = "TOPIC_PENDING_ADVISOR"
	StatusTopicRequestedChanges  ProposedProjectStatus = "TOPIC_REQUESTED_CHANGES"
	StatusTopicApproved          ProposedProjectStatus = "TOPIC_APPROVED"

	StatusOutlinePendingSubmission ProposedProjectStatus = "OUTLINE_PENDING_SUBMISSION"
	StatusOutlinePendingAdvisor    ProposedProjectStatus = "OUTLINE_PENDING_ADVISOR"
	StatusOutlineRequestedChanges  ProposedProjectStatus = "OUTLINE_REQUESTED_CHANGES"
	StatusOutlineApproved          ProposedProjectStatus = "OUTLINE_APPROVED"
	StatusOutlineRejected          ProposedProjectStatus = "OUTLINE_REJECTED"

	StatusPendingHead          ProposedProjectStatus = "PENDING_HEAD"
	StatusRequestedChangesHead ProposedProjectStatus = "REQUESTED_CHANGES_HEAD"
	StatusApprovedByHead       ProposedProjectStatus = "APPROVED_BY_HEAD"
	StatusRejectedByHead       ProposedProjectStatus = "REJECTED_BY_HEAD"
)

// ProposedProject is a capstone topic proposal owned by one or more students
// and supervised by an advisor. Status changes only through workflow
// operations; rows are never hard-deleted once the workflow has started.
type ProposedProject struct {
	gorm.Model
	Title       string                `gorm:"type:varchar(512);not null;comment:topic title"`
	Description string                `gorm:"type:text;comment:topic description"`
	Status      ProposedProjectStatus `gorm:"type:varchar(32);not null;index;comment:workflow stage"`
	FacultyID   uint                  `gorm:"index;comment:owning faculty"`

	ProposalDeadline *time.Time `gorm:"comment:deadline for outline submission"`
	TopicLockDate    *time.Time `gorm:"comment:past this date unsubmitted topics are locked"`
	ApprovedAt       *time.Time `gorm:"comment:set when the head gives final approval"`
	ApprovedByID     *uint      `gorm:"comment:head who gave final approval"`

	// Version backs the optimistic concurrency check: every workflow write
	// carries the version it read and bumps it by one.
	Version uint `gorm:"not null;default:1"`

	Outline  *ProposalOutline         `gorm:"foreignKey:ProjectID"`
	Members  []ProposedProjectMember  `gorm:"foreignKey:ProjectID"`
	Comments []ProposedProjectComment `gorm:"foreignKey:ProjectID"`
}

// ProposedProjectMember links a user to a proposal. The owner is the student
// who created the proposal; the advisor reviews it.
type ProposedProjectMember struct {
	gorm.Model
	ProjectID uint       `gorm:"uniqueIndex:idx_project_member;not null"`
	UserID    uint       `gorm:"uniqueIndex:idx_project_member;not null"`
	Role      MemberRole `gorm:"type:varchar(16);not null"`
	IsOwner   bool       `gorm:"not null;default:false"`

	User User `gorm:"foreignKey:UserID"`
}

// ProposedProjectComment is an append-only discussion entry. Review decisions
// also record their mandatory comment here.
type ProposedProjectComment struct {
	gorm.Model
	ProjectID uint   `gorm:"index;not null"`
	AuthorID  uint   `gorm:"not null"`
	Content   string `gorm:"type:text;not null"`

	Author User `gorm:"foreignKey:AuthorID"`
}

// StatusChangeDetail is the JSON payload stored with each history row.
type StatusChangeDetail struct {
	Decision string `json:"decision,omitempty"`
	Comment  string `json:"comment,omitempty"`
}

// ProposedProjectStatusHistory is the audit trail of workflow transitions.
// One row per applied transition, written in the same transaction.
type ProposedProjectStatusHistory struct {
	gorm.Model
	ProjectID uint                                   `gorm:"index;not null"`
	OldStatus ProposedProjectStatus                  `gorm:"type:varchar(32)"`
	NewStatus ProposedProjectStatus                  `gorm:"type:varchar(32);not null"`
	ActorID   uint                                   `gorm:"not null"`
	Detail    datatypes.JSONType[StatusChangeDetail] `gorm:"comment:decision and comment at transition time"`
}
