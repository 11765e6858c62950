package store

import (
	"time"

	"github.com/couchcryptid/flood-monitor-service/internal/domain"
)

// ReadingRow is the sensor_logs table.
type ReadingRow struct {
	ID         string    `gorm:"primaryKey;size:36"`
	RightLevel float64   `gorm:"column:h_kanan;not null"`
	LeftLevel  float64   `gorm:"column:h_kiri;not null"`
	RightFlow  float64   `gorm:"column:q_kanan;not null"`
	LeftFlow   float64   `gorm:"column:q_kiri;not null"`
	CapturedAt time.Time `gorm:"column:created_at;not null;index"`
}

func (ReadingRow) TableName() string { return "sensor_logs" }

// SummaryRow is the daily_summary table, keyed by the civil date string.
type SummaryRow struct {
	Date          string    `gorm:"column:tanggal;primaryKey;size:10"`
	AvgRightLevel float64   `gorm:"column:avg_h_kanan"`
	AvgLeftLevel  float64   `gorm:"column:avg_h_kiri"`
	AvgRightFlow  float64   `gorm:"column:avg_q_kanan"`
	AvgLeftFlow   float64   `gorm:"column:avg_q_kiri"`
	SampleCount   int       `gorm:"column:count"`
	Status        string    `gorm:"size:16;index"`
	FloodFlag     int       `gorm:"column:prediction"`
	LastStatus    string    `gorm:"size:16"`
	LastFloodFlag int       `gorm:"column:last_prediction"`
	ComputedAt    time.Time `gorm:"column:created_at"`
}

func (SummaryRow) TableName() string { return "daily_summary" }

func readingToRow(r domain.Reading) ReadingRow {
	return ReadingRow{
		ID:         r.ID,
		RightLevel: r.RightLevel,
		LeftLevel:  r.LeftLevel,
		RightFlow:  r.RightFlow,
		LeftFlow:   r.LeftFlow,
		CapturedAt: r.CapturedAt.UTC(),
	}
}

func (row ReadingRow) toDomain(loc *time.Location) domain.Reading {
	return domain.Reading{
		ID:         row.ID,
		RightLevel: row.RightLevel,
		LeftLevel:  row.LeftLevel,
		RightFlow:  row.RightFlow,
		LeftFlow:   row.LeftFlow,
		CapturedAt: row.CapturedAt.In(loc),
	}
}

func summaryToRow(s domain.DailySummary) SummaryRow {
	return SummaryRow{
		Date:          s.Date.String(),
		AvgRightLevel: s.AvgRightLevel,
		AvgLeftLevel:  s.AvgLeftLevel,
		AvgRightFlow:  s.AvgRightFlow,
		AvgLeftFlow:   s.AvgLeftFlow,
		SampleCount:   s.SampleCount,
		Status:        string(s.Status),
		FloodFlag:     s.FloodFlag,
		LastStatus:    string(s.LastStatus),
		LastFloodFlag: s.LastFloodFlag,
		ComputedAt:    s.ComputedAt.UTC(),
	}
}

func (row SummaryRow) toDomain(loc *time.Location) (domain.DailySummary, error) {
	date, err := domain.ParseCivilDate(row.Date)
	if err != nil {
		return domain.DailySummary{}, err
	}
	return domain.DailySummary{
		Date:          date,
		AvgRightLevel: row.AvgRightLevel,
		AvgLeftLevel:  row.AvgLeftLevel,
		AvgRightFlow:  row.AvgRightFlow,
		AvgLeftFlow:   row.AvgLeftFlow,
		SampleCount:   row.SampleCount,
		Status:        domain.Status(row.Status),
		FloodFlag:     row.FloodFlag,
		LastStatus:    domain.Status(row.LastStatus),
		LastFloodFlag: row.LastFloodFlag,
		ComputedAt:    row.ComputedAt.In(loc),
	}, nil
}
