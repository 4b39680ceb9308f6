package identity

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// User is an authenticated account with one of the three roles.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Mobile    string    `json:"mobile,omitempty"`
	College   string    `json:"college,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	passwordHash string
}

// Repository persists users in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert writes a new user. ErrEmailTaken when the email is already registered.
func (r *Repository) Insert(ctx context.Context, u User, passwordHash string) (User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, role, mobile, college)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at
	`, u.ID, u.Name, u.Email, passwordHash, u.Role, u.Mobile, u.College)
	if err := row.Scan(&u.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return User{}, ErrEmailTaken
		}
		return User{}, errors.Wrap(err, "insert user")
	}
	return u, nil
}

// ByEmail returns the user with the given email, or nil when absent.
func (r *Repository) ByEmail(ctx context.Context, email string) (*User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, role, mobile, college, created_at
		FROM users WHERE email = $1
	`, email)
	return scanUser(row)
}

// ByID returns the user with the given id, or nil when absent.
func (r *Repository) ByID(ctx context.Context, id string) (*User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, role, mobile, college, created_at
		FROM users WHERE id = $1
	`, id)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.passwordHash, &u.Role, &u.Mobile, &u.College, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "scan user")
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
