package model

import (
	"time"

	"gorm.io/gorm"
)

// EvaluationStatus is the lifecycle of a defense evaluation. Finalization is
// one-way: once EVALUATED, scores and weights are immutable.
type EvaluationStatus string

const (
	EvaluationPending   EvaluationStatus = "PENDING"
	EvaluationEvaluated EvaluationStatus = "EVALUATED"
)

// EvaluatorRole distinguishes the advisor's score from committee scores when
// computing the weighted final score.
type EvaluatorRole string

const (
	EvaluatorRoleAdvisor   EvaluatorRole = "ADVISOR"
	EvaluatorRoleCommittee EvaluatorRole = "COMMITTEE"
)

// CommitteePosition is the seat a faculty member holds on a defense committee.
type CommitteePosition string

const (
	CommitteeChair     CommitteePosition = "CHAIR"
	CommitteeSecretary CommitteePosition = "SECRETARY"
	CommitteeMemberPos CommitteePosition = "MEMBER"
)

// ProjectEvaluation aggregates per-evaluator scores for one defended project
// into a single weighted final score.
type ProjectEvaluation struct {
	gorm.Model
	ProjectID uint             `gorm:"uniqueIndex;not null"`
	Status    EvaluationStatus `gorm:"type:varchar(16);not null;default:PENDING"`

	AdvisorWeight   float64 `gorm:"not null;default:0.5;comment:weight of the advisor average"`
	CommitteeWeight float64 `gorm:"not null;default:0.5;comment:weight of the committee average"`

	// FinalScore stays nil until finalization succeeds.
	FinalScore    *float64   `gorm:"comment:weighted final score, set once"`
	FinalizedAt   *time.Time `gorm:"comment:finalization timestamp"`
	FinalizedByID *uint      `gorm:"comment:dean or secretary who finalized"`

	Scores    []EvaluationScore `gorm:"foreignKey:EvaluationID"`
	Committee []CommitteeMember `gorm:"foreignKey:EvaluationID"`
}

// EvaluationScore is one evaluator's score for one evaluation. The unique
// index makes the submit-or-update upsert race-safe: a concurrent duplicate
// insert fails on the constraint and is retried as an update.
type EvaluationScore struct {
	gorm.Model
	EvaluationID uint          `gorm:"uniqueIndex:idx_eval_evaluator;not null"`
	EvaluatorID  uint          `gorm:"uniqueIndex:idx_eval_evaluator;not null"`
	Role         EvaluatorRole `gorm:"type:varchar(16);not null"`
	Score        float64       `gorm:"not null;comment:0.0 to 10.0"`
	Comment      string        `gorm:"type:text"`

	Evaluator User `gorm:"foreignKey:EvaluatorID"`
}

// CommitteeMember is a faculty seat on the defense committee of one
// evaluation. Committee membership authorizes COMMITTEE score submission.
type CommitteeMember struct {
	gorm.Model
	EvaluationID uint              `gorm:"uniqueIndex:idx_eval_committee;not null"`
	FacultyID    uint              `gorm:"uniqueIndex:idx_eval_committee;not null;comment:user id of the faculty member"`
	Position     CommitteePosition `gorm:"type:varchar(16);not null;default:MEMBER"`

	Faculty User `gorm:"foreignKey:FacultyID"`
}
