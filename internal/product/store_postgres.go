package product

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"udyam/internal/seller"
	id "udyam/pkg/domain"
	"udyam/pkg/platform/sentinel"
	"udyam/pkg/platform/tx"
)

// PostgresStore persists products in PostgreSQL. Tags, images and
// specifications are stored as JSONB.
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

const productColumns = `
	id, seller_id, name, description, category, tags,
	price, currency, max_units, available_units, lead_time,
	status, images, specifications,
	created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, p *Product) error {
	cols, err := marshalProductCollections(p)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err = s.q(ctx).ExecContext(ctx, query,
		p.ID.String(), p.SellerID.String(), p.Name, p.Description, string(p.Category), cols.tags,
		p.Price, string(p.Currency), p.MaxUnits, p.AvailableUnits, p.LeadTime,
		string(p.Status), cols.images, cols.specifications,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, p *Product) error {
	cols, err := marshalProductCollections(p)
	if err != nil {
		return err
	}
	query := `
		UPDATE products SET
			name = $2, description = $3, category = $4, tags = $5,
			price = $6, max_units = $7, available_units = $8, lead_time = $9,
			status = $10, images = $11, specifications = $12,
			updated_at = $13
		WHERE id = $1
	`
	result, err := s.q(ctx).ExecContext(ctx, query,
		p.ID.String(),
		p.Name, p.Description, string(p.Category), cols.tags,
		p.Price, p.MaxUnits, p.AvailableUnits, p.LeadTime,
		string(p.Status), cols.images, cols.specifications,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, productID id.ProductID) error {
	result, err := s.q(ctx).ExecContext(ctx,
		`DELETE FROM products WHERE id = $1`, productID.String())
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, productID id.ProductID) (*Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	p, err := scanProduct(s.q(ctx).QueryRowContext(ctx, query, productID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *PostgresStore) List(ctx context.Context, filter ListFilter) ([]*Product, int, error) {
	where, args := buildProductWhere(filter)

	countQuery := `SELECT COUNT(*) FROM products p` + where
	var total int
	if err := s.q(ctx).QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	query := `SELECT ` + prefixColumns(productColumns, "p") + ` FROM products p` + where +
		fmt.Sprintf(` ORDER BY p.created_at DESC, p.id LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit, filter.Offset)

	rows, err := s.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []*Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return products, total, nil
}

func buildProductWhere(filter ListFilter) (string, []any) {
	var clauses []string
	var args []any
	next := func() int { return len(args) + 1 }

	if !filter.SellerID.IsZero() {
		clauses = append(clauses, fmt.Sprintf("p.seller_id = $%d", next()))
		args = append(args, filter.SellerID.String())
	}
	if filter.Status != "" {
		clauses = append(clauses, fmt.Sprintf("p.status = $%d", next()))
		args = append(args, string(filter.Status))
	}
	if filter.Category != "" {
		clauses = append(clauses, fmt.Sprintf("p.category = $%d", next()))
		args = append(args, string(filter.Category))
	}
	if filter.MinPrice != nil {
		clauses = append(clauses, fmt.Sprintf("p.price >= $%d", next()))
		args = append(args, *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		clauses = append(clauses, fmt.Sprintf("p.price <= $%d", next()))
		args = append(args, *filter.MaxPrice)
	}
	if filter.Search != "" {
		n := next()
		clauses = append(clauses, fmt.Sprintf("(p.name ILIKE $%d OR p.description ILIKE $%d OR p.tags::text ILIKE $%d)", n, n, n))
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.VerifiedOnly {
		clauses = append(clauses, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM sellers s WHERE s.id = p.seller_id AND s.verification_status = $%d)", next()))
		args = append(args, string(seller.VerificationVerified))
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (s *PostgresStore) Count(ctx context.Context) (int, int, error) {
	var total, active int
	err := s.q(ctx).QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE status = 'active')
		FROM products`).Scan(&total, &active)
	if err != nil {
		return 0, 0, fmt.Errorf("count products: %w", err)
	}
	return total, active, nil
}

// prefixColumns qualifies the shared column list with a table alias.
func prefixColumns(columns, alias string) string {
	parts := strings.Split(columns, ",")
	for i, part := range parts {
		parts[i] = alias + "." + strings.TrimSpace(part)
	}
	return strings.Join(parts, ", ")
}

type productCollections struct {
	tags           []byte
	images         []byte
	specifications []byte
}

func marshalProductCollections(p *Product) (productCollections, error) {
	var cols productCollections
	var err error
	if cols.tags, err = json.Marshal(orEmpty(p.Tags)); err != nil {
		return cols, fmt.Errorf("marshal tags: %w", err)
	}
	if cols.images, err = json.Marshal(orEmpty(p.Images)); err != nil {
		return cols, fmt.Errorf("marshal images: %w", err)
	}
	specs := p.Specifications
	if specs == nil {
		specs = map[string]string{}
	}
	if cols.specifications, err = json.Marshal(specs); err != nil {
		return cols, fmt.Errorf("marshal specifications: %w", err)
	}
	return cols, nil
}

func orEmpty(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(scanner rowScanner) (*Product, error) {
	var (
		p           Product
		rawID       string
		rawSellerID string
		category    string
		currency    string
		status      string

		tags, images, specifications []byte
	)
	err := scanner.Scan(
		&rawID, &rawSellerID, &p.Name, &p.Description, &category, &tags,
		&p.Price, &currency, &p.MaxUnits, &p.AvailableUnits, &p.LeadTime,
		&status, &images, &specifications,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}

	productID, err := id.ParseProductID(rawID)
	if err != nil {
		return nil, fmt.Errorf("scan product: %w", err)
	}
	sellerID, err := id.ParseSellerID(rawSellerID)
	if err != nil {
		return nil, fmt.Errorf("scan product: %w", err)
	}
	p.ID = productID
	p.SellerID = sellerID
	p.Category = seller.Category(category)
	p.Currency = Currency(currency)
	p.Status = Status(status)

	if err := json.Unmarshal(tags, &p.Tags); err != nil {
		return nil, fmt.Errorf("unmarshal tags: %w", err)
	}
	if err := json.Unmarshal(images, &p.Images); err != nil {
		return nil, fmt.Errorf("unmarshal images: %w", err)
	}
	if err := json.Unmarshal(specifications, &p.Specifications); err != nil {
		return nil, fmt.Errorf("unmarshal specifications: %w", err)
	}
	return &p, nil
}

// isUniqueViolation matches the Postgres unique_violation error class.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
