package admin

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	id "udyam/pkg/domain"
	"udyam/pkg/platform/sentinel"
	"udyam/pkg/platform/tx"
)

// PostgresStore persists admin accounts in PostgreSQL. Permissions and the
// activity log are stored as JSONB.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresStore) q(ctx context.Context) querier {
	if sqlTx, ok := tx.From(ctx); ok {
		return sqlTx
	}
	return s.db
}

const adminColumns = `
	id, username, password_hash, role, permissions, is_active,
	last_login, login_attempts, lock_until, activity_log,
	created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, a *Admin) error {
	permissions, activityLog, err := marshalAdminCollections(a)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO admins (` + adminColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = s.q(ctx).ExecContext(ctx, query,
		a.ID.String(), a.Username, a.PasswordHash, string(a.Role), permissions, a.IsActive,
		a.LastLogin, a.LoginAttempts, a.LockUntil, activityLog,
		a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create admin: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, a *Admin) error {
	permissions, activityLog, err := marshalAdminCollections(a)
	if err != nil {
		return err
	}
	query := `
		UPDATE admins SET
			password_hash = $2, role = $3, permissions = $4, is_active = $5,
			last_login = $6, login_attempts = $7, lock_until = $8, activity_log = $9,
			updated_at = $10
		WHERE id = $1
	`
	result, err := s.q(ctx).ExecContext(ctx, query,
		a.ID.String(),
		a.PasswordHash, string(a.Role), permissions, a.IsActive,
		a.LastLogin, a.LoginAttempts, a.LockUntil, activityLog,
		a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update admin: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update admin: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, adminID id.AdminID) (*Admin, error) {
	query := `SELECT ` + adminColumns + ` FROM admins WHERE id = $1`
	return scanAdmin(s.q(ctx).QueryRowContext(ctx, query, adminID.String()))
}

func (s *PostgresStore) FindByUsername(ctx context.Context, username string) (*Admin, error) {
	query := `SELECT ` + adminColumns + ` FROM admins WHERE username = $1`
	return scanAdmin(s.q(ctx).QueryRowContext(ctx, query, username))
}

func marshalAdminCollections(a *Admin) (permissions, activityLog []byte, err error) {
	perms := a.Permissions
	if perms == nil {
		perms = []Permission{}
	}
	if permissions, err = json.Marshal(perms); err != nil {
		return nil, nil, fmt.Errorf("marshal permissions: %w", err)
	}
	log := a.ActivityLog
	if log == nil {
		log = []ActivityEntry{}
	}
	if activityLog, err = json.Marshal(log); err != nil {
		return nil, nil, fmt.Errorf("marshal activity log: %w", err)
	}
	return permissions, activityLog, nil
}

func scanAdmin(row *sql.Row) (*Admin, error) {
	var (
		a           Admin
		rawID       string
		role        string
		permissions []byte
		activityLog []byte
	)
	err := row.Scan(
		&rawID, &a.Username, &a.PasswordHash, &role, &permissions, &a.IsActive,
		&a.LastLogin, &a.LoginAttempts, &a.LockUntil, &activityLog,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan admin: %w", err)
	}

	adminID, err := id.ParseAdminID(rawID)
	if err != nil {
		return nil, fmt.Errorf("scan admin: %w", err)
	}
	a.ID = adminID
	a.Role = Role(role)
	if err := json.Unmarshal(permissions, &a.Permissions); err != nil {
		return nil, fmt.Errorf("unmarshal permissions: %w", err)
	}
	if err := json.Unmarshal(activityLog, &a.ActivityLog); err != nil {
		return nil, fmt.Errorf("unmarshal activity log: %w", err)
	}
	return &a, nil
}

// isUniqueViolation matches the Postgres unique_violation error class.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
