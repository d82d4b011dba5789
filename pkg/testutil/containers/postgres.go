//go:build integration

package containers

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresContainer wraps a testcontainers Postgres instance with the
// application schema applied.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
}

// Schema is the full application DDL. Collections live in JSONB columns;
// the stores do the marshalling.
const Schema = `
CREATE TABLE IF NOT EXISTS sellers (
	id                  UUID PRIMARY KEY,
	phone               TEXT NOT NULL UNIQUE,
	name                TEXT NOT NULL DEFAULT '',
	email               TEXT NOT NULL DEFAULT '',
	region              TEXT NOT NULL DEFAULT '',
	city                TEXT NOT NULL DEFAULT '',
	village             TEXT NOT NULL DEFAULT '',
	categories          JSONB NOT NULL DEFAULT '[]',
	language            TEXT NOT NULL DEFAULT '',
	scale               TEXT NOT NULL DEFAULT '',
	capacity            TEXT NOT NULL DEFAULT '',
	has_documents       BOOLEAN NOT NULL DEFAULT FALSE,
	document_type       TEXT NOT NULL DEFAULT '',
	document_paths      JSONB NOT NULL DEFAULT '[]',
	alternate_documents JSONB NOT NULL DEFAULT '[]',
	verification_status TEXT NOT NULL,
	union_id            TEXT NOT NULL DEFAULT '',
	union_issue_date    TIMESTAMPTZ,
	union_expiry_date   TIMESTAMPTZ,
	union_status        TEXT NOT NULL,
	union_reason        TEXT NOT NULL DEFAULT '',
	referral_code       TEXT NOT NULL DEFAULT '',
	support_tickets     JSONB NOT NULL DEFAULT '[]',
	created_at          TIMESTAMPTZ NOT NULL,
	updated_at          TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sellers_verification_status ON sellers (verification_status);
CREATE INDEX IF NOT EXISTS idx_sellers_region ON sellers (region);
CREATE INDEX IF NOT EXISTS idx_sellers_created_at ON sellers (created_at);

CREATE TABLE IF NOT EXISTS verifications (
	id                  UUID PRIMARY KEY,
	seller_id           UUID NOT NULL UNIQUE REFERENCES sellers (id),
	document_type       TEXT NOT NULL DEFAULT '',
	documents           JSONB NOT NULL DEFAULT '[]',
	alternate_documents JSONB NOT NULL DEFAULT '[]',
	status              TEXT NOT NULL,
	admin_notes         TEXT NOT NULL DEFAULT '',
	rejection_reason    TEXT NOT NULL DEFAULT '',
	reviewed_by         UUID,
	reviewed_at         TIMESTAMPTZ,
	history             JSONB NOT NULL DEFAULT '[]',
	is_provisional      BOOLEAN NOT NULL DEFAULT FALSE,
	provisional_expiry  TIMESTAMPTZ,
	renewal_count       INTEGER NOT NULL DEFAULT 0,
	max_renewals        INTEGER NOT NULL DEFAULT 2,
	created_at          TIMESTAMPTZ NOT NULL,
	updated_at          TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_verifications_status ON verifications (status);

CREATE TABLE IF NOT EXISTS products (
	id              UUID PRIMARY KEY,
	seller_id       UUID NOT NULL REFERENCES sellers (id),
	name            TEXT NOT NULL,
	description     TEXT NOT NULL,
	category        TEXT NOT NULL,
	tags            JSONB NOT NULL DEFAULT '[]',
	price           DOUBLE PRECISION NOT NULL,
	currency        TEXT NOT NULL,
	max_units       INTEGER NOT NULL,
	available_units INTEGER NOT NULL,
	lead_time       TEXT NOT NULL DEFAULT '',
	status          TEXT NOT NULL,
	images          JSONB NOT NULL DEFAULT '[]',
	specifications  JSONB NOT NULL DEFAULT '{}',
	created_at      TIMESTAMPTZ NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_products_seller_id ON products (seller_id);
CREATE INDEX IF NOT EXISTS idx_products_status ON products (status);

CREATE TABLE IF NOT EXISTS admins (
	id             UUID PRIMARY KEY,
	username       TEXT NOT NULL UNIQUE,
	password_hash  TEXT NOT NULL,
	role           TEXT NOT NULL,
	permissions    JSONB NOT NULL DEFAULT '[]',
	is_active      BOOLEAN NOT NULL DEFAULT TRUE,
	last_login     TIMESTAMPTZ,
	login_attempts INTEGER NOT NULL DEFAULT 0,
	lock_until     TIMESTAMPTZ,
	activity_log   JSONB NOT NULL DEFAULT '[]',
	created_at     TIMESTAMPTZ NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL
);
`

// NewPostgresContainer starts a Postgres container and applies the schema.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("udyam_test"),
		tcpostgres.WithUsername("udyam"),
		tcpostgres.WithPassword("udyam"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open postgres: %v", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to ping postgres: %v", err)
	}

	if _, err := db.ExecContext(ctx, Schema); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to apply schema: %v", err)
	}

	return &PostgresContainer{Container: container, DSN: dsn, DB: db}
}

// Truncate empties all application tables. Use between tests for isolation.
func (p *PostgresContainer) Truncate(ctx context.Context) error {
	_, err := p.DB.ExecContext(ctx,
		`TRUNCATE verifications, products, admins, sellers CASCADE`)
	return err
}
