package verification

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"udyam/internal/seller"
	id "udyam/pkg/domain"
	"udyam/pkg/platform/sentinel"
	"udyam/pkg/platform/tx"
)

// PostgresStore persists verification records. Documents, alternate documents
// and the history ledger are JSONB columns written with the row; history is
// only ever appended to in memory before a save.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresStore) q(ctx context.Context) querier {
	if sqlTx, ok := tx.From(ctx); ok {
		return sqlTx
	}
	return s.db
}

const verificationColumns = `
	id, seller_id, document_type, documents, alternate_documents,
	status, admin_notes, rejection_reason, reviewed_by, reviewed_at,
	history, is_provisional, provisional_expiry, renewal_count, max_renewals,
	created_at, updated_at`

func (s *PostgresStore) Save(ctx context.Context, v *Verification) error {
	documents, err := json.Marshal(orEmpty(v.Documents))
	if err != nil {
		return fmt.Errorf("marshal documents: %w", err)
	}
	altDocs, err := json.Marshal(orEmpty(v.AlternateDocuments))
	if err != nil {
		return fmt.Errorf("marshal alternate documents: %w", err)
	}
	history, err := json.Marshal(orEmpty(v.History))
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}

	var reviewedBy any
	if !v.ReviewedBy.IsZero() {
		reviewedBy = v.ReviewedBy.String()
	}

	query := `
		INSERT INTO verifications (` + verificationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (id) DO UPDATE SET
			document_type = EXCLUDED.document_type,
			documents = EXCLUDED.documents,
			alternate_documents = EXCLUDED.alternate_documents,
			status = EXCLUDED.status,
			admin_notes = EXCLUDED.admin_notes,
			rejection_reason = EXCLUDED.rejection_reason,
			reviewed_by = EXCLUDED.reviewed_by,
			reviewed_at = EXCLUDED.reviewed_at,
			history = EXCLUDED.history,
			is_provisional = EXCLUDED.is_provisional,
			provisional_expiry = EXCLUDED.provisional_expiry,
			renewal_count = EXCLUDED.renewal_count,
			max_renewals = EXCLUDED.max_renewals,
			updated_at = EXCLUDED.updated_at
	`
	_, err = s.q(ctx).ExecContext(ctx, query,
		v.ID.String(), v.SellerID.String(), string(v.DocumentType), documents, altDocs,
		string(v.Status), v.AdminNotes, v.RejectionReason, reviewedBy, v.ReviewedAt,
		history, v.ProvisionalDetails.IsProvisional, v.ProvisionalDetails.ExpiryDate,
		v.ProvisionalDetails.RenewalCount, v.ProvisionalDetails.MaxRenewals,
		v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			// seller_id carries a unique index: one record per seller.
			return sentinel.ErrConflict
		}
		return fmt.Errorf("save verification: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, verificationID id.VerificationID) (*Verification, error) {
	query := `SELECT ` + verificationColumns + ` FROM verifications WHERE id = $1`
	return s.scanOne(s.q(ctx).QueryRowContext(ctx, query, verificationID.String()))
}

func (s *PostgresStore) FindBySeller(ctx context.Context, sellerID id.SellerID) (*Verification, error) {
	query := `SELECT ` + verificationColumns + ` FROM verifications WHERE seller_id = $1`
	return s.scanOne(s.q(ctx).QueryRowContext(ctx, query, sellerID.String()))
}

func (s *PostgresStore) CountByStatus(ctx context.Context) (map[Status]int, error) {
	rows, err := s.q(ctx).QueryContext(ctx,
		`SELECT status, COUNT(*) FROM verifications GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count verifications: %w", err)
	}
	defer rows.Close()

	counts := make(map[Status]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("count verifications: %w", err)
		}
		counts[Status(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("count verifications: %w", err)
	}
	return counts, nil
}

func (s *PostgresStore) CountDecidedSince(ctx context.Context, status Status, since time.Time) (int, error) {
	var count int
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM verifications WHERE status = $1 AND reviewed_at >= $2`,
		string(status), since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count decided verifications: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) scanOne(row *sql.Row) (*Verification, error) {
	var (
		v                          Verification
		rawID, rawSellerID         string
		documentType, status       string
		reviewedBy                 sql.NullString
		documents, altDocs, events []byte
	)
	err := row.Scan(
		&rawID, &rawSellerID, &documentType, &documents, &altDocs,
		&status, &v.AdminNotes, &v.RejectionReason, &reviewedBy, &v.ReviewedAt,
		&events, &v.ProvisionalDetails.IsProvisional, &v.ProvisionalDetails.ExpiryDate,
		&v.ProvisionalDetails.RenewalCount, &v.ProvisionalDetails.MaxRenewals,
		&v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan verification: %w", err)
	}

	verificationID, err := id.ParseVerificationID(rawID)
	if err != nil {
		return nil, fmt.Errorf("scan verification: %w", err)
	}
	sellerID, err := id.ParseSellerID(rawSellerID)
	if err != nil {
		return nil, fmt.Errorf("scan verification: %w", err)
	}
	v.ID = verificationID
	v.SellerID = sellerID
	v.DocumentType = seller.DocumentType(documentType)
	v.Status = Status(status)
	if reviewedBy.Valid {
		adminID, err := id.ParseAdminID(reviewedBy.String)
		if err != nil {
			return nil, fmt.Errorf("scan verification: %w", err)
		}
		v.ReviewedBy = adminID
	}

	if err := json.Unmarshal(documents, &v.Documents); err != nil {
		return nil, fmt.Errorf("unmarshal documents: %w", err)
	}
	if err := json.Unmarshal(altDocs, &v.AlternateDocuments); err != nil {
		return nil, fmt.Errorf("unmarshal alternate documents: %w", err)
	}
	if err := json.Unmarshal(events, &v.History); err != nil {
		return nil, fmt.Errorf("unmarshal history: %w", err)
	}
	return &v, nil
}

func orEmpty[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
