package store

import (
	"crypto/rand"
	"database/sql"
	"fmt"
	"math/big"
	"time"

	"github.com/cleanquest/cleanquest/internal/model"
)

const (
	resetCodeTTL    = 15 * time.Minute
	maxCodeAttempts = 5
)

// ResetCodeStore manages the short numeric codes mailed for password resets.
type ResetCodeStore struct {
	db querier
}

func NewResetCodeStore(db *sql.DB) *ResetCodeStore {
	return &ResetCodeStore{db: db}
}

func scanResetCode(scanner interface{ Scan(...any) error }) (*model.PasswordResetCode, error) {
	var rc model.PasswordResetCode
	var usedAt sql.NullTime

	err := scanner.Scan(&rc.ID, &rc.Token, &rc.Email, &rc.ExpiresAt, &usedAt, &rc.Attempts, &rc.CreatedAt)
	if err != nil {
		return nil, err
	}
	if usedAt.Valid {
		rc.UsedAt = &usedAt.Time
	}
	return &rc, nil
}

const resetCodeCols = `id, token, email, expires_at, used_at, attempts, created_at`

// generateCode returns a 6-digit numeric code (100000–999999).
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// Create issues a fresh reset code for the email with a 15-minute expiry.
// Any previous pending codes for the same email are invalidated first.
func (s *ResetCodeStore) Create(email string) (*model.PasswordResetCode, error) {
	_, err := s.db.Exec(
		`UPDATE password_reset_codes SET used_at = ? WHERE email = ? AND used_at IS NULL`,
		time.Now().UTC(), email,
	)
	if err != nil {
		return nil, fmt.Errorf("invalidate previous codes: %w", err)
	}

	code, err := generateCode()
	if err != nil {
		return nil, err
	}

	result, err := s.db.Exec(
		`INSERT INTO password_reset_codes (token, email, expires_at) VALUES (?, ?, ?)`,
		code, email, time.Now().UTC().Add(resetCodeTTL),
	)
	if err != nil {
		return nil, fmt.Errorf("insert reset code: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := s.db.QueryRow(`SELECT `+resetCodeCols+` FROM password_reset_codes WHERE id = ?`, id)
	return scanResetCode(row)
}

// Consume validates a code for an email and marks it used. A wrong code
// increments the attempt counter; five failures burn the code.
func (s *ResetCodeStore) Consume(email, code string) (*model.PasswordResetCode, error) {
	row := s.db.QueryRow(
		`SELECT `+resetCodeCols+` FROM password_reset_codes
		 WHERE email = ? AND used_at IS NULL AND expires_at > ?
		 ORDER BY created_at DESC LIMIT 1`,
		email, time.Now().UTC(),
	)
	rc, err := scanResetCode(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reset code: %w", err)
	}

	if rc.Attempts >= maxCodeAttempts {
		return nil, nil
	}

	if rc.Token != code {
		if _, err := s.db.Exec(
			`UPDATE password_reset_codes SET attempts = attempts + 1 WHERE id = ?`, rc.ID,
		); err != nil {
			return nil, fmt.Errorf("increment attempts: %w", err)
		}
		return nil, nil
	}

	now := time.Now().UTC()
	if _, err := s.db.Exec(
		`UPDATE password_reset_codes SET used_at = ? WHERE id = ?`, now, rc.ID,
	); err != nil {
		return nil, fmt.Errorf("mark code used: %w", err)
	}
	rc.UsedAt = &now
	return rc, nil
}

// DeleteExpired removes expired and used codes.
func (s *ResetCodeStore) DeleteExpired() (int64, error) {
	result, err := s.db.Exec(
		`DELETE FROM password_reset_codes WHERE expires_at <= ? OR used_at IS NOT NULL`,
		time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("delete expired reset codes: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
