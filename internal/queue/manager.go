// Package queue derives role-scoped, ordered views over document records.
// Queue membership is recomputed from record state on every call; nothing
// queue-shaped is ever persisted, so queues can't drift from the records.
package queue

import (
	"context"
	"fmt"
	"sort"

	"trustnet/internal/domain"
	"trustnet/internal/storage"
)

type Manager struct {
	store storage.DocumentStore
}

func NewManager(store storage.DocumentStore) *Manager {
	return &Manager{store: store}
}

// For returns the queue appropriate for the identity's role.
func (m *Manager) For(ctx context.Context, identity domain.Identity) ([]domain.DocumentRecord, error) {
	switch identity.Role {
	case domain.RoleSubmitter:
		return m.ForSubmitter(ctx, identity.ID)
	case domain.RoleVerifier:
		return m.ForVerifier(ctx, identity.ID)
	case domain.RoleIssuer:
		return m.ForIssuer(ctx)
	}
	return nil, fmt.Errorf("no queue for role %q", identity.Role)
}

// ForSubmitter lists every record the submitter owns, any state, most recent
// first.
func (m *Manager) ForSubmitter(ctx context.Context, submitterID string) ([]domain.DocumentRecord, error) {
	records, err := m.store.ListByOwner(ctx, submitterID)
	if err != nil {
		return nil, fmt.Errorf("list submitter queue: %w", err)
	}
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].SubmittedAt.Equal(records[j].SubmittedAt) {
			return records[i].SubmittedAt.After(records[j].SubmittedAt)
		}
		return records[i].ID < records[j].ID
	})
	return records, nil
}

// ForVerifier lists records awaiting this verifier: queued records that are
// unassigned (pooled assignment) or assigned to them, plus their own in-flight
// reviews. Ordered by priority, then oldest submission, ties by id.
func (m *Manager) ForVerifier(ctx context.Context, verifierID string) ([]domain.DocumentRecord, error) {
	records, err := m.store.ListByStates(ctx, domain.StateQueuedForReview, domain.StateUnderReview)
	if err != nil {
		return nil, fmt.Errorf("list verifier queue: %w", err)
	}
	var out []domain.DocumentRecord
	for _, record := range records {
		switch record.State {
		case domain.StateQueuedForReview:
			if record.AssignedVerifierID == "" || record.AssignedVerifierID == verifierID {
				out = append(out, record)
			}
		case domain.StateUnderReview:
			if record.AssignedVerifierID == verifierID {
				out = append(out, record)
			}
		}
	}
	sortByPriority(out)
	return out, nil
}

// ForIssuer is the read-only system-wide aggregate.
func (m *Manager) ForIssuer(ctx context.Context) ([]domain.DocumentRecord, error) {
	records, err := m.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list issuer queue: %w", err)
	}
	sortByPriority(records)
	return records, nil
}

// sortByPriority orders High before Normal before Low, then submission time
// ascending, ties broken by document id. The sort is stable by construction of
// the comparison chain.
func sortByPriority(records []domain.DocumentRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		pi, pj := records[i].Priority(), records[j].Priority()
		if pi != pj {
			return pi > pj
		}
		if !records[i].SubmittedAt.Equal(records[j].SubmittedAt) {
			return records[i].SubmittedAt.Before(records[j].SubmittedAt)
		}
		return records[i].ID < records[j].ID
	})
}
