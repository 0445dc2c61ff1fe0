package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"authplane/internal/user/domain"
)

const userColumns = `id, email, name, username, avatar_url, role, provider, provider_id, password_hash, created_at, updated_at`

// PostgresRepository is a user repository backed by Postgres.
type PostgresRepository struct {
	db *sql.DB
}

var _ Repository = (*PostgresRepository)(nil)

// NewPostgresRepository returns a user repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the user for id, or nil if not found. It returns an error only
// for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetByEmail returns the user for email, or nil if not found.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// Create persists the user. The user must have ID set. A conflict on any of the
// unique columns (email, username, provider identity) returns domain.ErrDuplicate.
func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, username, avatar_url, role, provider, provider_id, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		u.ID, u.Email, u.Name,
		nullString(u.Username), nullString(u.AvatarURL), nullString(u.Role),
		string(u.Provider), nullString(u.ProviderID), nullString(u.PasswordHash),
		u.CreatedAt, u.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return domain.ErrDuplicate
	}
	return err
}

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var (
		u            domain.User
		username     sql.NullString
		avatarURL    sql.NullString
		role         sql.NullString
		providerID   sql.NullString
		passwordHash sql.NullString
		provider     string
	)
	err := row.Scan(&u.ID, &u.Email, &u.Name, &username, &avatarURL, &role,
		&provider, &providerID, &passwordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.Username = username.String
	u.AvatarURL = avatarURL.String
	u.Role = role.String
	u.Provider = domain.AuthProvider(provider)
	u.ProviderID = providerID.String
	u.PasswordHash = passwordHash.String
	return &u, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
