package pgstore

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jrsteele09/go-taskboard/users"
)

const uniqueViolation = "23505"

var _ users.UserRepo = (*UserRepo)(nil)

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id, email, name, password_hash, date_joined, last_login`

func (r *UserRepo) Create(user *users.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	_, err := r.db.Exec(`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, user.Email, user.Name, user.PasswordHash, user.DateJoined, toNullTime(user.LastLogin))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return users.ErrEmailTaken
		}
		return fmt.Errorf("[pgstore UserRepo Create] %w", err)
	}
	return nil
}

func (r *UserRepo) Upsert(user *users.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	_, err := r.db.Exec(`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			name = EXCLUDED.name,
			password_hash = EXCLUDED.password_hash,
			last_login = EXCLUDED.last_login`,
		user.ID, user.Email, user.Name, user.PasswordHash, user.DateJoined, toNullTime(user.LastLogin))
	if err != nil {
		return fmt.Errorf("[pgstore UserRepo Upsert] %w", err)
	}
	return nil
}

func (r *UserRepo) GetByEmail(email string) (*users.User, error) {
	return r.getOne(`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *UserRepo) GetByID(ID string) (*users.User, error) {
	return r.getOne(`SELECT `+userColumns+` FROM users WHERE id = $1`, ID)
}

func (r *UserRepo) getOne(query string, arg string) (*users.User, error) {
	u, err := scanUser(r.db.QueryRow(query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, users.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("[pgstore UserRepo] %w", err)
	}
	return u, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*users.User, error) {
	var u users.User
	var lastLogin sql.NullTime
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.DateJoined, &lastLogin); err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		u.LastLogin = lastLogin.Time
	}
	return &u, nil
}

func toNullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
