package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/event-ticket-booking/internal/model"
)

// StatsRepo computes the read-only aggregates shown on the admin
// console.  The numbers are plain scans over committed rows; there is
// no consistency requirement beyond that, so no locking is involved.
type StatsRepo struct {
	db *sql.DB
}

// NewStatsRepo returns a new StatsRepo bound to the given database.
func NewStatsRepo(db *sql.DB) *StatsRepo { return &StatsRepo{db: db} }

// Stats is the aggregate report for the admin console.  Revenue sums
// total_amount_cents over bookings that are not cancelled; cancelled
// ledger entries contribute to neither count nor revenue.
type Stats struct {
	TotalEvents       int    `json:"total_events"`
	UpcomingEvents    int    `json:"upcoming_events"`
	TotalBookings     int    `json:"total_bookings"`
	TotalRevenueCents uint64 `json:"total_revenue_cents"`
}

// Collect gathers the aggregate counters in a handful of scans.
func (r *StatsRepo) Collect(ctx context.Context) (Stats, error) {
	var s Stats
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM events`).Scan(&s.TotalEvents); err != nil {
		return Stats{}, err
	}
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM events WHERE starts_at > UTC_TIMESTAMP()`).Scan(&s.UpcomingEvents); err != nil {
		return Stats{}, err
	}
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE status <> ?`,
		model.BookingCancelled).Scan(&s.TotalBookings); err != nil {
		return Stats{}, err
	}
	var revenue sql.NullInt64
	if err := r.db.QueryRowContext(ctx,
		`SELECT SUM(total_amount_cents) FROM bookings WHERE status <> ?`,
		model.BookingCancelled).Scan(&revenue); err != nil {
		return Stats{}, err
	}
	if revenue.Valid {
		s.TotalRevenueCents = uint64(revenue.Int64)
	}
	return s, nil
}
