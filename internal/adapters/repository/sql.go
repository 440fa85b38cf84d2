package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/taskmaster/routine/internal/domain/entities"
)

// stamp normalizes a timestamp to what both drivers round-trip exactly.
func stamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

func nullTime(t *entities.TimeOfDay) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.String(), Valid: true}
}

func parseNullTime(ns sql.NullString) (*entities.TimeOfDay, error) {
	if !ns.Valid {
		return nil, nil
	}
	t, err := entities.ParseTimeOfDay(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullWeekday(wd *time.Weekday) sql.NullInt64 {
	if wd == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*wd), Valid: true}
}

// isUniqueViolation recognizes unique constraint failures from either driver.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
