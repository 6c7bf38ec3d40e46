package workflow

import "trustnet/internal/domain"

// transitions is the closed adjacency table of the document lifecycle.
// Anything not listed here is invalid regardless of caller role.
var transitions = map[domain.State][]domain.State{
	domain.StateSubmitted:               {domain.StateEnriched},
	domain.StateEnriched:                {domain.StateQueuedForReview},
	domain.StateQueuedForReview:         {domain.StateUnderReview},
	domain.StateUnderReview:             {domain.StateApproved, domain.StateRejected, domain.StateAwaitingSubmitterAction},
	domain.StateAwaitingSubmitterAction: {domain.StateSubmitted},
}

// canTransition reports whether from -> to is an adjacent edge of the
// lifecycle.
func canTransition(from, to domain.State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// decisionState maps a verifier/issuer decision to the state it produces. A
// Pending decision returns the record to the submitter instead of terminating
// it.
func decisionState(decision domain.Decision) domain.State {
	switch decision {
	case domain.DecisionApproved:
		return domain.StateApproved
	case domain.DecisionRejected:
		return domain.StateRejected
	default:
		return domain.StateAwaitingSubmitterAction
	}
}

// mayDecide reports whether the role may record decisions. Decision rights are
// shared by verifiers and issuers through the same contract; issuers get no
// extra override path.
func mayDecide(role domain.Role) bool {
	return role == domain.RoleVerifier || role == domain.RoleIssuer
}
