package seller

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	id "udyam/pkg/domain"
	"udyam/pkg/platform/sentinel"
	"udyam/pkg/platform/tx"
)

// PostgresStore persists sellers in PostgreSQL. Collection-valued fields
// (categories, document paths, alternate documents, support tickets) are
// stored as JSONB; they are always read and written as a whole with the row.
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

// q returns the transaction carried in ctx when present, otherwise the pool.
func (s *PostgresStore) q(ctx context.Context) querier {
	if sqlTx, ok := tx.From(ctx); ok {
		return sqlTx
	}
	return s.db
}

const sellerColumns = `
	id, phone, name, email, region, city, village,
	categories, language, scale, capacity,
	has_documents, document_type, document_paths, alternate_documents,
	verification_status,
	union_id, union_issue_date, union_expiry_date, union_status, union_reason,
	referral_code, support_tickets,
	created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, seller *Seller) error {
	cols, err := marshalCollections(seller)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO sellers (` + sellerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)
	`
	_, err = s.q(ctx).ExecContext(ctx, query,
		seller.ID.String(), seller.Phone, seller.Name, seller.Email,
		seller.Region, seller.City, seller.Village,
		cols.categories, string(seller.Language), string(seller.Scale), seller.Capacity,
		seller.HasDocuments, string(seller.DocumentType), cols.documentPaths, cols.alternateDocuments,
		string(seller.VerificationStatus),
		seller.UnionMembership.ID, seller.UnionMembership.IssueDate, seller.UnionMembership.ExpiryDate,
		string(seller.UnionMembership.Status), seller.UnionMembership.Reason,
		seller.ReferralCode, cols.supportTickets,
		seller.CreatedAt, seller.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create seller: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, seller *Seller) error {
	cols, err := marshalCollections(seller)
	if err != nil {
		return err
	}
	query := `
		UPDATE sellers SET
			name = $2, email = $3, region = $4, city = $5, village = $6,
			categories = $7, language = $8, scale = $9, capacity = $10,
			has_documents = $11, document_type = $12, document_paths = $13, alternate_documents = $14,
			verification_status = $15,
			union_id = $16, union_issue_date = $17, union_expiry_date = $18, union_status = $19, union_reason = $20,
			support_tickets = $21,
			updated_at = $22
		WHERE id = $1
	`
	result, err := s.q(ctx).ExecContext(ctx, query,
		seller.ID.String(),
		seller.Name, seller.Email, seller.Region, seller.City, seller.Village,
		cols.categories, string(seller.Language), string(seller.Scale), seller.Capacity,
		seller.HasDocuments, string(seller.DocumentType), cols.documentPaths, cols.alternateDocuments,
		string(seller.VerificationStatus),
		seller.UnionMembership.ID, seller.UnionMembership.IssueDate, seller.UnionMembership.ExpiryDate,
		string(seller.UnionMembership.Status), seller.UnionMembership.Reason,
		cols.supportTickets,
		seller.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update seller: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update seller: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, sellerID id.SellerID) (*Seller, error) {
	query := `SELECT ` + sellerColumns + ` FROM sellers WHERE id = $1`
	return scanSeller(s.q(ctx).QueryRowContext(ctx, query, sellerID.String()))
}

func (s *PostgresStore) FindByPhone(ctx context.Context, phone string) (*Seller, error) {
	query := `SELECT ` + sellerColumns + ` FROM sellers WHERE phone = $1`
	return scanSeller(s.q(ctx).QueryRowContext(ctx, query, phone))
}

func (s *PostgresStore) List(ctx context.Context, filter ListFilter) ([]*Seller, int, error) {
	where, args := buildListWhere(filter)

	countQuery := `SELECT COUNT(*) FROM sellers` + where
	var total int
	if err := s.q(ctx).QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count sellers: %w", err)
	}

	query := `SELECT ` + sellerColumns + ` FROM sellers` + where +
		fmt.Sprintf(` ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit, filter.Offset)

	rows, err := s.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list sellers: %w", err)
	}
	defer rows.Close()

	var sellers []*Seller
	for rows.Next() {
		seller, err := scanSellerRow(rows)
		if err != nil {
			return nil, 0, err
		}
		sellers = append(sellers, seller)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list sellers: %w", err)
	}
	return sellers, total, nil
}

func buildListWhere(filter ListFilter) (string, []any) {
	var clauses []string
	var args []any
	next := func() int { return len(args) + 1 }

	if filter.Status != "" {
		clauses = append(clauses, fmt.Sprintf("verification_status = $%d", next()))
		args = append(args, string(filter.Status))
	}
	if filter.Category != "" {
		clauses = append(clauses, fmt.Sprintf("categories @> $%d", next()))
		category, _ := json.Marshal([]Category{filter.Category})
		args = append(args, string(category))
	}
	if filter.Region != "" {
		clauses = append(clauses, fmt.Sprintf("LOWER(region) = LOWER($%d)", next()))
		args = append(args, filter.Region)
	}
	if filter.Search != "" {
		n := next()
		clauses = append(clauses, fmt.Sprintf("(name ILIKE $%d OR phone LIKE $%d OR union_id ILIKE $%d)", n, n, n))
		args = append(args, "%"+filter.Search+"%")
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (s *PostgresStore) CountByStatus(ctx context.Context) (StatusCounts, error) {
	query := `SELECT verification_status, COUNT(*) FROM sellers GROUP BY verification_status`
	rows, err := s.q(ctx).QueryContext(ctx, query)
	if err != nil {
		return StatusCounts{}, fmt.Errorf("count sellers by status: %w", err)
	}
	defer rows.Close()

	var counts StatusCounts
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return StatusCounts{}, fmt.Errorf("count sellers by status: %w", err)
		}
		switch VerificationStatus(status) {
		case VerificationPending:
			counts.Pending = count
		case VerificationProvisional:
			counts.Provisional = count
		case VerificationVerified:
			counts.Verified = count
		}
	}
	if err := rows.Err(); err != nil {
		return StatusCounts{}, fmt.Errorf("count sellers by status: %w", err)
	}
	return counts, nil
}

func (s *PostgresStore) CountRegisteredSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sellers WHERE created_at >= $1`, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) RegistrationTrend(ctx context.Context, since time.Time) ([]DailyCount, error) {
	query := `
		SELECT date_trunc('day', created_at AT TIME ZONE 'UTC') AS day, COUNT(*)
		FROM sellers
		WHERE created_at >= $1
		GROUP BY day
		ORDER BY day
	`
	rows, err := s.q(ctx).QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("registration trend: %w", err)
	}
	defer rows.Close()

	var trend []DailyCount
	for rows.Next() {
		var dc DailyCount
		if err := rows.Scan(&dc.Date, &dc.Count); err != nil {
			return nil, fmt.Errorf("registration trend: %w", err)
		}
		trend = append(trend, dc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("registration trend: %w", err)
	}
	return trend, nil
}

func (s *PostgresStore) CategoryDistribution(ctx context.Context) ([]Distribution, error) {
	query := `
		SELECT c.category, COUNT(*)
		FROM sellers, jsonb_array_elements_text(categories) AS c(category)
		GROUP BY c.category
		ORDER BY COUNT(*) DESC, c.category
	`
	return s.scanDistribution(ctx, query, "category distribution")
}

func (s *PostgresStore) RegionDistribution(ctx context.Context) ([]Distribution, error) {
	query := `
		SELECT region, COUNT(*)
		FROM sellers
		WHERE region <> ''
		GROUP BY region
		ORDER BY COUNT(*) DESC, region
	`
	return s.scanDistribution(ctx, query, "region distribution")
}

func (s *PostgresStore) scanDistribution(ctx context.Context, query, op string) ([]Distribution, error) {
	rows, err := s.q(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []Distribution
	for rows.Next() {
		var d Distribution
		if err := rows.Scan(&d.Key, &d.Count); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

type collectionColumns struct {
	categories         []byte
	documentPaths      []byte
	alternateDocuments []byte
	supportTickets     []byte
}

func marshalCollections(seller *Seller) (collectionColumns, error) {
	var cols collectionColumns
	var err error
	if cols.categories, err = json.Marshal(orEmpty(seller.Categories)); err != nil {
		return cols, fmt.Errorf("marshal categories: %w", err)
	}
	if cols.documentPaths, err = json.Marshal(orEmpty(seller.DocumentPaths)); err != nil {
		return cols, fmt.Errorf("marshal document paths: %w", err)
	}
	if cols.alternateDocuments, err = json.Marshal(orEmpty(seller.AlternateDocuments)); err != nil {
		return cols, fmt.Errorf("marshal alternate documents: %w", err)
	}
	if cols.supportTickets, err = json.Marshal(orEmpty(seller.SupportTickets)); err != nil {
		return cols, fmt.Errorf("marshal support tickets: %w", err)
	}
	return cols, nil
}

func orEmpty[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSeller(row *sql.Row) (*Seller, error) {
	seller, err := scanSellerFrom(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return seller, nil
}

func scanSellerRow(rows *sql.Rows) (*Seller, error) {
	return scanSellerFrom(rows)
}

func scanSellerFrom(scanner rowScanner) (*Seller, error) {
	var (
		seller       Seller
		rawID        string
		language     string
		scale        string
		documentType sql.NullString
		unionStatus  string
		status       string

		categories, documentPaths, alternateDocuments, supportTickets []byte
	)
	err := scanner.Scan(
		&rawID, &seller.Phone, &seller.Name, &seller.Email,
		&seller.Region, &seller.City, &seller.Village,
		&categories, &language, &scale, &seller.Capacity,
		&seller.HasDocuments, &documentType, &documentPaths, &alternateDocuments,
		&status,
		&seller.UnionMembership.ID, &seller.UnionMembership.IssueDate, &seller.UnionMembership.ExpiryDate,
		&unionStatus, &seller.UnionMembership.Reason,
		&seller.ReferralCode, &supportTickets,
		&seller.CreatedAt, &seller.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan seller: %w", err)
	}

	sellerID, err := id.ParseSellerID(rawID)
	if err != nil {
		return nil, fmt.Errorf("scan seller: %w", err)
	}
	seller.ID = sellerID
	seller.Language = Language(language)
	seller.Scale = Scale(scale)
	seller.DocumentType = DocumentType(documentType.String)
	seller.VerificationStatus = VerificationStatus(status)
	seller.UnionMembership.Status = MembershipStatus(unionStatus)

	if err := json.Unmarshal(categories, &seller.Categories); err != nil {
		return nil, fmt.Errorf("unmarshal categories: %w", err)
	}
	if err := json.Unmarshal(documentPaths, &seller.DocumentPaths); err != nil {
		return nil, fmt.Errorf("unmarshal document paths: %w", err)
	}
	if err := json.Unmarshal(alternateDocuments, &seller.AlternateDocuments); err != nil {
		return nil, fmt.Errorf("unmarshal alternate documents: %w", err)
	}
	if err := json.Unmarshal(supportTickets, &seller.SupportTickets); err != nil {
		return nil, fmt.Errorf("unmarshal support tickets: %w", err)
	}
	return &seller, nil
}

// isUniqueViolation matches the Postgres unique_violation error class.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
