package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"trustnet/internal/domain"
)

// PostgresDocumentStore persists document records in PostgreSQL. The version
// column backs the compare-and-set contract.
type PostgresDocumentStore struct {
	db *sql.DB
}

func NewPostgresDocumentStore(db *sql.DB) *PostgresDocumentStore {
	return &PostgresDocumentStore{db: db}
}

const documentsSchema = `
CREATE TABLE IF NOT EXISTS documents (
	id                   UUID PRIMARY KEY,
	owner_id             TEXT NOT NULL,
	owner_name           TEXT NOT NULL DEFAULT '',
	owner_email          TEXT NOT NULL DEFAULT '',
	doc_type             TEXT NOT NULL,
	file_name            TEXT NOT NULL,
	submitted_at         TIMESTAMPTZ NOT NULL,
	full_name            TEXT NOT NULL DEFAULT '',
	date_of_birth        TEXT NOT NULL DEFAULT '',
	id_number            TEXT NOT NULL DEFAULT '',
	issued_date          TEXT NOT NULL DEFAULT '',
	expiry_date          TEXT NOT NULL DEFAULT '',
	address              TEXT NOT NULL DEFAULT '',
	nationality          TEXT NOT NULL DEFAULT '',
	ocr_confidence       INT NOT NULL DEFAULT 0,
	recommendation       TEXT NOT NULL DEFAULT '',
	ai_confidence        INT NOT NULL DEFAULT 0,
	risk_flags           TEXT[] NOT NULL DEFAULT '{}',
	state                TEXT NOT NULL,
	assigned_verifier_id TEXT NOT NULL DEFAULT '',
	decision             TEXT NOT NULL DEFAULT '',
	decision_remarks     TEXT NOT NULL DEFAULT '',
	decided_at           TIMESTAMPTZ,
	version              BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS documents_owner_idx ON documents (owner_id);
CREATE INDEX IF NOT EXISTS documents_state_idx ON documents (state);
`

// EnsureSchema creates the documents table when it does not exist yet.
func (s *PostgresDocumentStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, documentsSchema); err != nil {
		return fmt.Errorf("ensure documents schema: %w", err)
	}
	return nil
}

const documentColumns = `id, owner_id, owner_name, owner_email, doc_type, file_name,
	submitted_at, full_name, date_of_birth, id_number, issued_date, expiry_date,
	address, nationality, ocr_confidence, recommendation, ai_confidence,
	risk_flags, state, assigned_verifier_id, decision, decision_remarks,
	decided_at, version`

func (s *PostgresDocumentStore) Save(ctx context.Context, record domain.DocumentRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)`,
		record.ID, record.OwnerID, record.OwnerName, record.OwnerEmail,
		string(record.Type), record.FileName, record.SubmittedAt,
		record.Extracted.FullName, record.Extracted.DateOfBirth,
		record.Extracted.IDNumber, record.Extracted.IssuedDate,
		record.Extracted.ExpiryDate, record.Extracted.Address,
		record.Extracted.Nationality, record.OCRConfidence,
		string(record.Recommendation), record.AIConfidence,
		pq.Array(record.RiskFlags), string(record.State),
		record.AssignedVerifierID, string(record.Decision),
		record.DecisionRemarks, record.DecidedAt, record.Version,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return ErrExists
		}
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}

func (s *PostgresDocumentStore) FindByID(ctx context.Context, id string) (domain.DocumentRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)
	record, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DocumentRecord{}, ErrNotFound
	}
	if err != nil {
		return domain.DocumentRecord{}, fmt.Errorf("find document: %w", err)
	}
	return record, nil
}

func (s *PostgresDocumentStore) Update(ctx context.Context, record domain.DocumentRecord, expectedVersion int64) (domain.DocumentRecord, error) {
	record.Version = expectedVersion + 1
	res, err := s.db.ExecContext(ctx, `
		UPDATE documents SET
			owner_id = $2, owner_name = $3, owner_email = $4, doc_type = $5,
			file_name = $6, submitted_at = $7, full_name = $8,
			date_of_birth = $9, id_number = $10, issued_date = $11,
			expiry_date = $12, address = $13, nationality = $14,
			ocr_confidence = $15, recommendation = $16, ai_confidence = $17,
			risk_flags = $18, state = $19, assigned_verifier_id = $20,
			decision = $21, decision_remarks = $22, decided_at = $23,
			version = $24
		WHERE id = $1 AND version = $25`,
		record.ID, record.OwnerID, record.OwnerName, record.OwnerEmail,
		string(record.Type), record.FileName, record.SubmittedAt,
		record.Extracted.FullName, record.Extracted.DateOfBirth,
		record.Extracted.IDNumber, record.Extracted.IssuedDate,
		record.Extracted.ExpiryDate, record.Extracted.Address,
		record.Extracted.Nationality, record.OCRConfidence,
		string(record.Recommendation), record.AIConfidence,
		pq.Array(record.RiskFlags), string(record.State),
		record.AssignedVerifierID, string(record.Decision),
		record.DecisionRemarks, record.DecidedAt, record.Version,
		expectedVersion,
	)
	if err != nil {
		return domain.DocumentRecord{}, fmt.Errorf("update document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.DocumentRecord{}, fmt.Errorf("update document: %w", err)
	}
	if affected == 0 {
		// Distinguish a missing record from a stale version.
		if _, findErr := s.FindByID(ctx, record.ID); errors.Is(findErr, ErrNotFound) {
			return domain.DocumentRecord{}, ErrNotFound
		}
		return domain.DocumentRecord{}, ErrConflict
	}
	return record, nil
}

func (s *PostgresDocumentStore) ListByOwner(ctx context.Context, ownerID string) ([]domain.DocumentRecord, error) {
	return s.list(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE owner_id = $1`, ownerID)
}

func (s *PostgresDocumentStore) ListByStates(ctx context.Context, states ...domain.State) ([]domain.DocumentRecord, error) {
	names := make([]string, len(states))
	for i, state := range states {
		names[i] = string(state)
	}
	return s.list(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE state = ANY($1)`,
		pq.Array(names))
}

func (s *PostgresDocumentStore) ListAll(ctx context.Context) ([]domain.DocumentRecord, error) {
	return s.list(ctx, `SELECT `+documentColumns+` FROM documents`)
}

func (s *PostgresDocumentStore) list(ctx context.Context, query string, args ...any) ([]domain.DocumentRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []domain.DocumentRecord
	for rows.Next() {
		record, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (domain.DocumentRecord, error) {
	var (
		record             domain.DocumentRecord
		docType, recommend string
		state, decision    string
		riskFlags          pq.StringArray
		decidedAt          sql.NullTime
	)
	err := row.Scan(
		&record.ID, &record.OwnerID, &record.OwnerName, &record.OwnerEmail,
		&docType, &record.FileName, &record.SubmittedAt,
		&record.Extracted.FullName, &record.Extracted.DateOfBirth,
		&record.Extracted.IDNumber, &record.Extracted.IssuedDate,
		&record.Extracted.ExpiryDate, &record.Extracted.Address,
		&record.Extracted.Nationality, &record.OCRConfidence,
		&recommend, &record.AIConfidence, &riskFlags, &state,
		&record.AssignedVerifierID, &decision, &record.DecisionRemarks,
		&decidedAt, &record.Version,
	)
	if err != nil {
		return domain.DocumentRecord{}, err
	}
	record.Type = domain.DocumentType(docType)
	record.Recommendation = domain.Recommendation(recommend)
	record.State = domain.State(state)
	record.Decision = domain.Decision(decision)
	record.RiskFlags = []string(riskFlags)
	if decidedAt.Valid {
		t := decidedAt.Time
		record.DecidedAt = &t
	}
	return record, nil
}
