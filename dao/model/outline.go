package model

import "gorm.io/gorm"

// OutlineStatus is the review state of a proposal outline. It is a smaller
// machine nested inside the project workflow: only the advisor review
// operation moves it out of PENDING_REVIEW, and final head approval locks it.
type OutlineStatus string

const (
	OutlineDraft         OutlineStatus = "DRAFT"
	OutlinePendingReview OutlineStatus = "PENDING_REVIEW"
	OutlineRejected      OutlineStatus = "REJECTED"
	OutlineApproved      OutlineStatus = "APPROVED"
	OutlineLocked        OutlineStatus = "LOCKED"
)

// ProposalOutline is the detailed outline a student submits after the topic
// is approved. At most one outline exists per project.
type ProposalOutline struct {
	gorm.Model
	ProjectID uint `gorm:"uniqueIndex;not null"`

	Introduction    string `gorm:"type:text"`
	Objectives      string `gorm:"type:text"`
	Methodology     string `gorm:"type:text"`
	ExpectedResults string `gorm:"type:text"`

	// FileID is an opaque reference into the external file-storage service.
	FileID *string       `gorm:"type:varchar(64);comment:opaque storage reference"`
	Status OutlineStatus `gorm:"type:varchar(16);not null;default:DRAFT"`
}
