// Package workflow implements the approval state machine for proposed
// capstone projects. The engine is pure: operations validate role and state,
// then mutate the entities in memory and return the audit records to persist.
// Callers persist everything inside one database transaction with an
// optimistic version check.
package workflow

import (
	"github.com/grad-lab/capstone-backend/dao/model"
)

// transitions is the legal edge table of the proposal workflow.
// Head review spans both OUTLINE_APPROVED and PENDING_HEAD: an outline-approved
// project is already eligible for head decisions, the PENDING_HEAD hop is not
// required first.
var transitions = map[model.ProposedProjectStatus][]model.ProposedProjectStatus{
	model.StatusTopicSubmissionPending: {
		model.StatusTopicPendingAdvisor,
	},
	model.StatusTopicPendingAdvisor: {
		model.StatusTopicApproved,
		model.StatusTopicRequestedChanges,
	},
	model.StatusTopicRequestedChanges: {
		model.StatusTopicPendingAdvisor,
	},
	model.StatusTopicApproved: {
		model.StatusOutlinePendingSubmission,
	},
	model.StatusOutlinePendingSubmission: {
		model.StatusOutlinePendingAdvisor,
	},
	model.StatusOutlinePendingAdvisor: {
		model.StatusOutlineApproved,
		model.StatusOutlineRequestedChanges,
		model.StatusOutlineRejected,
	},
	model.StatusOutlineRequestedChanges: {
		model.StatusOutlinePendingAdvisor,
	},
	model.StatusOutlineApproved: {
		model.StatusPendingHead,
		model.StatusRequestedChangesHead,
		model.StatusRejectedByHead,
		model.StatusApprovedByHead,
	},
	model.StatusPendingHead: {
		model.StatusApprovedByHead,
		model.StatusRequestedChangesHead,
		model.StatusRejectedByHead,
	},
	model.StatusRequestedChangesHead: {
		model.StatusPendingHead,
	},
}

// CanTransition reports whether the edge from -> to is in the workflow graph.
func CanTransition(from, to model.ProposedProjectStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no edge leaves the status.
// APPROVED_BY_HEAD is the success terminal; OUTLINE_REJECTED and
// REJECTED_BY_HEAD end the proposal cycle, the student starts a new one.
func IsTerminal(s model.ProposedProjectStatus) bool {
	return len(transitions[s]) == 0
}
