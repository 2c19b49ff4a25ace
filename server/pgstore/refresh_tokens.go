package pgstore

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jrsteele09/go-taskboard/token/refresh"
)

var _ refresh.Repo = (*RefreshTokenRepo)(nil)

type RefreshTokenRepo struct {
	db *sql.DB
}

func NewRefreshTokenRepo(db *sql.DB) *RefreshTokenRepo {
	return &RefreshTokenRepo{db: db}
}

func (r *RefreshTokenRepo) Upsert(rt *refresh.StoredRefreshToken) error {
	_, err := r.db.Exec(`INSERT INTO refresh_tokens (token, user_id, iat, replaced_by, rotated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5)
		ON CONFLICT (token) DO UPDATE SET user_id = EXCLUDED.user_id, iat = EXCLUDED.iat,
			replaced_by = EXCLUDED.replaced_by, rotated_at = EXCLUDED.rotated_at`,
		rt.Token, rt.UserID, rt.Iat, rt.ReplacedBy, toNullTime(rt.RotatedAt))
	if err != nil {
		return fmt.Errorf("[pgstore RefreshTokenRepo Upsert] %w", err)
	}
	return nil
}

func (r *RefreshTokenRepo) Delete(token string) error {
	res, err := r.db.Exec(`DELETE FROM refresh_tokens WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("[pgstore RefreshTokenRepo Delete] %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return refresh.ErrNotFound
	}
	return nil
}

func (r *RefreshTokenRepo) Get(token string) (*refresh.StoredRefreshToken, error) {
	var (
		rt         refresh.StoredRefreshToken
		replacedBy sql.NullString
		rotatedAt  sql.NullTime
	)
	err := r.db.QueryRow(`SELECT token, user_id, iat, replaced_by, rotated_at FROM refresh_tokens WHERE token = $1`, token).
		Scan(&rt.Token, &rt.UserID, &rt.Iat, &replacedBy, &rotatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, refresh.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("[pgstore RefreshTokenRepo Get] %w", err)
	}
	rt.ReplacedBy = replacedBy.String
	rt.RotatedAt = rotatedAt.Time
	return &rt, nil
}
