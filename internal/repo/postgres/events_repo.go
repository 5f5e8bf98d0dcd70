package postgres

import (
	"context"
	"time"

	"github.com/eventmate/eventmate-server/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type EventRepo interface {
	GetByID(ctx context.Context, id int64) (*domain.Event, error)
	ListTiers(ctx context.Context, eventID int64) ([]domain.TicketTier, error)
	GetTier(ctx context.Context, id int64) (*domain.TicketTier, error)
}

type EventRepoImpl struct{ pool *pgxpool.Pool }

func NewEventRepo(pool *pgxpool.Pool) *EventRepoImpl { return &EventRepoImpl{pool: pool} }

const eventCols = `id, organizer_id, title, event_format, ticket_type, status,
total_capacity, ticket_price, allow_coupon, coupon_code, discount_percentage,
meeting_url, start_date, end_date, created_at, updated_at`

func (r *EventRepoImpl) GetByID(ctx context.Context, id int64) (*domain.Event, error) {
	const q = `SELECT ` + eventCols + ` FROM events WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var e domain.Event
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&e.ID, &e.OrganizerID, &e.Title, &e.EventFormat, &e.TicketType, &e.Status,
		&e.TotalCapacity, &e.TicketPrice, &e.AllowCoupon, &e.CouponCode, &e.DiscountPercentage,
		&e.MeetingURL, &e.StartDate, &e.EndDate, &e.CreatedAt, &e.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EventRepoImpl) ListTiers(ctx context.Context, eventID int64) ([]domain.TicketTier, error) {
	const q = `SELECT id, event_id, name, price, capacity, description
  FROM ticket_tiers WHERE event_id=$1 ORDER BY price`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tiers := make([]domain.TicketTier, 0)
	for rows.Next() {
		var t domain.TicketTier
		if err := rows.Scan(&t.ID, &t.EventID, &t.Name, &t.Price, &t.Capacity, &t.Description); err != nil {
			return nil, err
		}
		tiers = append(tiers, t)
	}
	return tiers, rows.Err()
}

func (r *EventRepoImpl) GetTier(ctx context.Context, id int64) (*domain.TicketTier, error) {
	const q = `SELECT id, event_id, name, price, capacity, description
  FROM ticket_tiers WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var t domain.TicketTier
	err := r.pool.QueryRow(ctx, q, id).Scan(&t.ID, &t.EventID, &t.Name, &t.Price, &t.Capacity, &t.Description)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

var _ EventRepo = (*EventRepoImpl)(nil)
