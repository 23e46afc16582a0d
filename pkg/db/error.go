package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// IsUndefinedTable reports whether err means the queried table has not
// been provisioned. Detection is per backend: PostgreSQL exposes error
// code 42P01, SQLite and MySQL only a message.
func IsUndefinedTable(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "42P01" {
		return true
	}

	msg := err.Error()

	// SQLite
	if strings.Contains(msg, "no such table") {
		return true
	}

	// MySQL (error code 1146)
	if strings.Contains(msg, "Error 1146") || strings.Contains(msg, "doesn't exist") {
		return true
	}

	// PostgreSQL without a typed error in the chain
	if strings.Contains(msg, "does not exist") && strings.Contains(msg, "relation") {
		return true
	}

	return false
}

func IsDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}

	msg := err.Error()

	// PostgreSQL (error code 23505)
	if strings.Contains(msg, "duplicate key value violates unique constraint") {
		return true
	}

	// MySQL (error code 1062)
	if strings.Contains(msg, "Error 1062") {
		return true
	}

	// SQLite (error code 2067)
	if strings.Contains(msg, "UNIQUE constraint failed") {
		return true
	}

	return false
}
