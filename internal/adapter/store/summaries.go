package store

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/couchcryptid/flood-monitor-service/internal/domain"
)

// UpsertDailySummary inserts the summary or overwrites the row for its date.
func (s *Store) UpsertDailySummary(ctx context.Context, summary domain.DailySummary) error {
	row := summaryToRow(summary)
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tanggal"}},
			UpdateAll: true,
		}).
		Create(&row).Error
	return storeErr("upsert daily summary", err)
}

// DailySummary returns the row for date. The boolean is false when none exists.
func (s *Store) DailySummary(ctx context.Context, date domain.CivilDate) (domain.DailySummary, bool, error) {
	var row SummaryRow
	err := s.db.WithContext(ctx).Where("tanggal = ?", date.String()).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.DailySummary{}, false, nil
	}
	if err != nil {
		return domain.DailySummary{}, false, storeErr("query daily summary", err)
	}
	summary, err := row.toDomain(s.loc)
	if err != nil {
		return domain.DailySummary{}, false, storeErr("decode daily summary", err)
	}
	return summary, true, nil
}

// RecentSummaries returns up to limit summaries, most recent date first.
func (s *Store) RecentSummaries(ctx context.Context, limit int) ([]domain.DailySummary, error) {
	var rows []SummaryRow
	err := s.db.WithContext(ctx).Order("tanggal DESC").Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, storeErr("query daily summaries", err)
	}
	out := make([]domain.DailySummary, 0, len(rows))
	for _, row := range rows {
		summary, err := row.toDomain(s.loc)
		if err != nil {
			s.logger.Warn("skipping malformed daily summary", "tanggal", row.Date, "error", err)
			continue
		}
		out = append(out, summary)
	}
	return out, nil
}

// CountSummaries returns the total number of summaries and how many of them
// recorded an adverse (FLOOD or DANGER) day.
func (s *Store) CountSummaries(ctx context.Context) (total, adverse int64, err error) {
	db := s.db.WithContext(ctx)
	if err := db.Model(&SummaryRow{}).Count(&total).Error; err != nil {
		return 0, 0, storeErr("count daily summaries", err)
	}
	err = db.Model(&SummaryRow{}).
		Where("status IN ?", []string{string(domain.StatusFlood), string(domain.StatusDanger)}).
		Count(&adverse).Error
	if err != nil {
		return 0, 0, storeErr("count flood days", err)
	}
	return total, adverse, nil
}
