package postgres

import (
	"context"
	"time"

	"github.com/eventmate/eventmate-server/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRepo interface {
	Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error)
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	ExistsForUserAndEvent(ctx context.Context, userID, eventID int64) (bool, error)
	CountByEvent(ctx context.Context, eventID int64) (int, error)
	BookedSeats(ctx context.Context, eventID int64) ([]int, error)
	SeatTaken(ctx context.Context, eventID int64, seat int) (bool, error)
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.BookingDTO, error)
	ListByEvent(ctx context.Context, eventID int64, limit, offset int) ([]domain.Booking, error)
	ListByGroupCode(ctx context.Context, groupCode string) ([]domain.Booking, error)
	Cancel(ctx context.Context, id int64) (bool, error)
}

type BookingRepoImpl struct{ pool *pgxpool.Pool }

func NewBookingRepo(pool *pgxpool.Pool) *BookingRepoImpl { return &BookingRepoImpl{pool: pool} }

const bookingCols = `id, event_id, user_id, ticket_tier_id, seat_number,
status, booking_type, group_code, ticket_code,
attendee_name, contact_number, attendee_age,
dietary_restrictions, accessibility_needs, job_title, company_name,
checkin_status, checkin_time, booking_date`

func scanBooking(row pgx.Row, b *domain.Booking) error {
	return row.Scan(
		&b.ID, &b.EventID, &b.UserID, &b.TicketTierID, &b.SeatNumber,
		&b.Status, &b.BookingType, &b.GroupCode, &b.TicketCode,
		&b.AttendeeName, &b.ContactNumber, &b.AttendeeAge,
		&b.DietaryRestrictions, &b.AccessibilityNeeds, &b.JobTitle, &b.CompanyName,
		&b.CheckinStatus, &b.CheckinTime, &b.BookingDate,
	)
}

func (r *BookingRepoImpl) Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error) {
	const q = `INSERT INTO bookings (
    event_id, user_id, ticket_tier_id, seat_number,
    status, booking_type, group_code, ticket_code,
    attendee_name, contact_number, attendee_age,
    dietary_restrictions, accessibility_needs, job_title, company_name
  ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
  RETURNING ` + bookingCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var out domain.Booking
	err := scanBooking(r.pool.QueryRow(ctx, q,
		b.EventID, b.UserID, b.TicketTierID, b.SeatNumber,
		b.Status, b.BookingType, b.GroupCode, b.TicketCode,
		b.AttendeeName, b.ContactNumber, b.AttendeeAge,
		b.DietaryRestrictions, b.AccessibilityNeeds, b.JobTitle, b.CompanyName,
	), &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *BookingRepoImpl) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var b domain.Booking
	err := scanBooking(r.pool.QueryRow(ctx, q, id), &b)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BookingRepoImpl) ExistsForUserAndEvent(ctx context.Context, userID, eventID int64) (bool, error) {
	const q = `SELECT EXISTS (
    SELECT 1 FROM bookings WHERE user_id=$1 AND event_id=$2 AND status <> 'CANCELLED'
  )`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var exists bool
	err := r.pool.QueryRow(ctx, q, userID, eventID).Scan(&exists)
	return exists, err
}

func (r *BookingRepoImpl) CountByEvent(ctx context.Context, eventID int64) (int, error) {
	const q = `SELECT COUNT(*) FROM bookings WHERE event_id=$1 AND status <> 'CANCELLED'`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var n int
	err := r.pool.QueryRow(ctx, q, eventID).Scan(&n)
	return n, err
}

func (r *BookingRepoImpl) BookedSeats(ctx context.Context, eventID int64) ([]int, error) {
	const q = `SELECT seat_number FROM bookings
  WHERE event_id=$1 AND seat_number IS NOT NULL AND status <> 'CANCELLED'
  ORDER BY seat_number`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seats := make([]int, 0)
	for rows.Next() {
		var s int
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

func (r *BookingRepoImpl) SeatTaken(ctx context.Context, eventID int64, seat int) (bool, error) {
	const q = `SELECT EXISTS (
    SELECT 1 FROM bookings WHERE event_id=$1 AND seat_number=$2 AND status <> 'CANCELLED'
  )`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var taken bool
	err := r.pool.QueryRow(ctx, q, eventID, seat).Scan(&taken)
	return taken, err
}

func (r *BookingRepoImpl) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.BookingDTO, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	const q = `
		SELECT b.id, b.event_id, e.title, e.start_date,
		       b.ticket_code, b.group_code, b.booking_type, b.status,
		       b.seat_number, b.attendee_name, b.booking_date
		FROM bookings b
		JOIN events e ON e.id = b.event_id
		WHERE b.user_id = $1
		ORDER BY b.booking_date DESC
		LIMIT $2 OFFSET $3
	`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dtos := make([]domain.BookingDTO, 0, limit)
	for rows.Next() {
		var d domain.BookingDTO
		if err := rows.Scan(
			&d.BookingID, &d.EventID, &d.EventTitle, &d.EventStartDate,
			&d.TicketCode, &d.GroupCode, &d.BookingType, &d.Status,
			&d.SeatNumber, &d.AttendeeName, &d.BookingDate,
		); err != nil {
			return nil, err
		}
		dtos = append(dtos, d)
	}
	return dtos, rows.Err()
}

func (r *BookingRepoImpl) ListByEvent(ctx context.Context, eventID int64, limit, offset int) ([]domain.Booking, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	const q = `SELECT ` + bookingCols + ` FROM bookings
  WHERE event_id=$1 ORDER BY booking_date DESC LIMIT $2 OFFSET $3`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, eventID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bs := make([]domain.Booking, 0, limit)
	for rows.Next() {
		var b domain.Booking
		if err := scanBooking(rows, &b); err != nil {
			return nil, err
		}
		bs = append(bs, b)
	}
	return bs, rows.Err()
}

func (r *BookingRepoImpl) ListByGroupCode(ctx context.Context, groupCode string) ([]domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings
  WHERE group_code=$1 AND status <> 'CANCELLED' ORDER BY booking_date`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, groupCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bs := make([]domain.Booking, 0)
	for rows.Next() {
		var b domain.Booking
		if err := scanBooking(rows, &b); err != nil {
			return nil, err
		}
		bs = append(bs, b)
	}
	return bs, rows.Err()
}

func (r *BookingRepoImpl) Cancel(ctx context.Context, id int64) (bool, error) {
	const q = `UPDATE bookings SET status='CANCELLED' WHERE id=$1 AND status <> 'CANCELLED'`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	ct, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

var _ BookingRepo = (*BookingRepoImpl)(nil)
