package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"

	"github.com/mmeshcher/seller-tracker/internal/model"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS signups (
	id         INTEGER NOT NULL,
	name       TEXT    NOT NULL,
	email      TEXT    NOT NULL UNIQUE,
	source     TEXT    NOT NULL,
	created_at TEXT    NOT NULL
)`

// SQLiteSignups хранит заявки в файле SQLite.
type SQLiteSignups struct {
	db *sqlx.DB
}

// NewSQLiteSignups открывает базу по пути path и создаёт таблицу заявок.
func NewSQLiteSignups(path string) (*SQLiteSignups, error) {
	db, err := sqlx.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create signups table: %w", err)
	}
	return &SQLiteSignups{db: db}, nil
}

// AddSignup сохраняет заявку; нарушение уникальности email даёт ErrSignupExists.
func (r *SQLiteSignups) AddSignup(ctx context.Context, s model.Signup) error {
	const q = `INSERT INTO signups (id, name, email, source, created_at) VALUES (:id, :name, :email, :source, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, q, s); err != nil {
		var sqlErr sqlite3.Error
		if errors.As(err, &sqlErr) && sqlErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return fmt.Errorf("%w: %s", ErrSignupExists, s.Email)
		}
		return fmt.Errorf("insert signup: %w", err)
	}
	return nil
}

// ListSignups возвращает заявки в порядке поступления.
func (r *SQLiteSignups) ListSignups(ctx context.Context) ([]model.Signup, error) {
	var signups []model.Signup
	const q = `SELECT id, name, email, source, created_at FROM signups ORDER BY rowid`
	if err := r.db.SelectContext(ctx, &signups, q); err != nil {
		return nil, fmt.Errorf("select signups: %w", err)
	}
	return signups, nil
}

// Close закрывает базу.
func (r *SQLiteSignups) Close() error {
	return r.db.Close()
}
