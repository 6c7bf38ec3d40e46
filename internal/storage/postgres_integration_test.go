//go:build integration

package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"trustnet/internal/domain"
	"trustnet/internal/storage"
	"trustnet/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *storage.PostgresDocumentStore
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = storage.NewPostgresDocumentStore(s.pg.DB)
	s.Require().NoError(s.store.EnsureSchema(context.Background()))
}

func (s *PostgresStoreSuite) TearDownSuite() {
	_ = s.pg.DB.Close()
	_ = s.pg.Container.Terminate(context.Background())
}

func (s *PostgresStoreSuite) newRecord(ownerID string) domain.DocumentRecord {
	return domain.DocumentRecord{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		OwnerName:   "Jordan Smith",
		OwnerEmail:  "jordan@example.com",
		Type:        domain.DocumentNationalID,
		FileName:    "id-front.png",
		SubmittedAt: time.Now().UTC().Truncate(time.Microsecond),
		Extracted: domain.ExtractedFields{
			FullName:    "Jordan Smith",
			DateOfBirth: "1990-04-01",
			IDNumber:    "NID-12345",
		},
		State:   domain.StateSubmitted,
		Version: 1,
	}
}

func (s *PostgresStoreSuite) TestSaveAndFind() {
	ctx := context.Background()
	record := s.newRecord("owner-1")

	s.Require().NoError(s.store.Save(ctx, record))

	got, err := s.store.FindByID(ctx, record.ID)
	s.Require().NoError(err)
	s.Equal(record.ID, got.ID)
	s.Equal(record.Extracted, got.Extracted)
	s.Equal(domain.StateSubmitted, got.State)
	s.Equal(int64(1), got.Version)

	s.ErrorIs(s.store.Save(ctx, record), storage.ErrExists)
}

func (s *PostgresStoreSuite) TestFindMissing() {
	_, err := s.store.FindByID(context.Background(), uuid.NewString())
	s.ErrorIs(err, storage.ErrNotFound)
}

func (s *PostgresStoreSuite) TestUpdateCompareAndSet() {
	ctx := context.Background()
	record := s.newRecord("owner-2")
	s.Require().NoError(s.store.Save(ctx, record))

	record.State = domain.StateEnriched
	record.OCRConfidence = 92
	record.RiskFlags = []string{"Low OCR Confidence"}
	updated, err := s.store.Update(ctx, record, 1)
	s.Require().NoError(err)
	s.Equal(int64(2), updated.Version)

	got, err := s.store.FindByID(ctx, record.ID)
	s.Require().NoError(err)
	s.Equal(domain.StateEnriched, got.State)
	s.Equal([]string{"Low OCR Confidence"}, got.RiskFlags)

	// A second writer holding the stale version loses.
	record.State = domain.StateQueuedForReview
	_, err = s.store.Update(ctx, record, 1)
	s.ErrorIs(err, storage.ErrConflict)

	// Updates against missing records are not conflicts.
	missing := s.newRecord("owner-2")
	_, err = s.store.Update(ctx, missing, 1)
	s.ErrorIs(err, storage.ErrNotFound)
}

func (s *PostgresStoreSuite) TestListFilters() {
	ctx := context.Background()
	ownerID := uuid.NewString()

	first := s.newRecord(ownerID)
	second := s.newRecord(ownerID)
	second.State = domain.StateQueuedForReview
	third := s.newRecord(uuid.NewString())
	for _, record := range []domain.DocumentRecord{first, second, third} {
		s.Require().NoError(s.store.Save(ctx, record))
	}

	owned, err := s.store.ListByOwner(ctx, ownerID)
	s.Require().NoError(err)
	s.Len(owned, 2)

	queued, err := s.store.ListByStates(ctx, domain.StateQueuedForReview)
	s.Require().NoError(err)
	found := false
	for _, record := range queued {
		s.Equal(domain.StateQueuedForReview, record.State)
		if record.ID == second.ID {
			found = true
		}
	}
	s.True(found, "expected the queued record in the state listing")
}
