package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/couchcryptid/flood-monitor-service/internal/domain"
)

// InsertReading stores a new reading. Readings are never updated.
func (s *Store) InsertReading(ctx context.Context, r domain.Reading) error {
	row := readingToRow(r)
	return storeErr("insert reading", s.db.WithContext(ctx).Create(&row).Error)
}

// ReadingsBetween returns readings captured in [from, to), oldest first.
func (s *Store) ReadingsBetween(ctx context.Context, from, to time.Time) ([]domain.Reading, error) {
	var rows []ReadingRow
	err := s.db.WithContext(ctx).
		Where("created_at >= ? AND created_at < ?", from.UTC(), to.UTC()).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, storeErr("query readings", err)
	}
	return s.toReadings(rows), nil
}

// ReadingsSince returns readings captured at or after from, oldest first.
func (s *Store) ReadingsSince(ctx context.Context, from time.Time) ([]domain.Reading, error) {
	var rows []ReadingRow
	err := s.db.WithContext(ctx).
		Where("created_at >= ?", from.UTC()).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, storeErr("query readings", err)
	}
	return s.toReadings(rows), nil
}

// LatestReadings returns up to limit readings, newest first.
func (s *Store) LatestReadings(ctx context.Context, limit int) ([]domain.Reading, error) {
	var rows []ReadingRow
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, storeErr("query latest readings", err)
	}
	return s.toReadings(rows), nil
}

// LatestReading returns the most recent reading. The boolean is false when
// the store holds no readings.
func (s *Store) LatestReading(ctx context.Context) (domain.Reading, bool, error) {
	var row ReadingRow
	err := s.db.WithContext(ctx).Order("created_at DESC").Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Reading{}, false, nil
	}
	if err != nil {
		return domain.Reading{}, false, storeErr("query latest reading", err)
	}
	return row.toDomain(s.loc), true, nil
}

// CountReadings returns the number of stored readings.
func (s *Store) CountReadings(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&ReadingRow{}).Count(&n).Error
	return n, storeErr("count readings", err)
}

// DeleteReadingsBefore removes every reading captured strictly before cutoff
// and returns how many rows were deleted. Zero matches is not an error.
func (s *Store) DeleteReadingsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("created_at < ?", cutoff.UTC()).
		Delete(&ReadingRow{})
	if res.Error != nil {
		return 0, storeErr("delete readings", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *Store) toReadings(rows []ReadingRow) []domain.Reading {
	out := make([]domain.Reading, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain(s.loc)
	}
	return out
}
