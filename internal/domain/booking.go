package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type BookingStatus string

const (
	BookingConfirmed  BookingStatus = "CONFIRMED"
	BookingWaitlisted BookingStatus = "WAITLISTED"
	BookingCancelled  BookingStatus = "CANCELLED"
)

type BookingType string

const (
	BookingSolo  BookingType = "SOLO"
	BookingGroup BookingType = "GROUP"
)

func ParseBookingType(s string) (BookingType, bool) {
	switch BookingType(strings.ToUpper(s)) {
	case BookingSolo, BookingGroup:
		return BookingType(strings.ToUpper(s)), true
	default:
		return "", false
	}
}

// Booking is one confirmed reservation of a ticket (and optionally a seat)
// for an event by a user.
type Booking struct {
	ID                  int64         `json:"booking_id"`
	EventID             int64         `json:"event_id"`
	UserID              int64         `json:"user_id"`
	TicketTierID        *int64        `json:"ticket_tier_id,omitempty"`
	SeatNumber          *int          `json:"seat_number,omitempty"`
	Status              BookingStatus `json:"status"`
	BookingType         BookingType   `json:"booking_type"`
	GroupCode           string        `json:"group_code,omitempty"`
	TicketCode          string        `json:"ticket_code"`
	AttendeeName        string        `json:"attendee_name"`
	ContactNumber       string        `json:"contact_number"`
	AttendeeAge         int           `json:"attendee_age"`
	DietaryRestrictions string        `json:"dietary_restrictions,omitempty"`
	AccessibilityNeeds  string        `json:"accessibility_needs,omitempty"`
	JobTitle            string        `json:"job_title,omitempty"`
	CompanyName         string        `json:"company_name,omitempty"`
	CheckinStatus       bool          `json:"checkin_status"`
	CheckinTime         *time.Time    `json:"checkin_time,omitempty"`
	BookingDate         time.Time     `json:"booking_date"`
}

// IsOwner checks whether the given user owns this booking.
func (b *Booking) IsOwner(userID int64) bool {
	return b.UserID == userID
}

// EnrollRequest is the full enrollment payload. The booking type tags which
// fields apply: SOLO requests must not carry invite data, GROUP requests may
// carry invited emails and an existing group code to join.
type EnrollRequest struct {
	EventID             int64       `json:"event_id"`
	TicketTierID        *int64      `json:"ticket_tier_id,omitempty"`
	BookingType         BookingType `json:"booking_type"`
	GroupCode           string      `json:"group_code,omitempty"`
	AttendeeName        string      `json:"attendee_name"`
	ContactNumber       string      `json:"contact_number"`
	AttendeeAge         int         `json:"attendee_age"`
	DietaryRestrictions string      `json:"dietary_restrictions,omitempty"`
	AccessibilityNeeds  string      `json:"accessibility_needs,omitempty"`
	JobTitle            string      `json:"job_title,omitempty"`
	CompanyName         string      `json:"company_name,omitempty"`
	SeatNumber          *int        `json:"seat_number,omitempty"`
	InvitedUsers        []string    `json:"invited_users,omitempty"`
}

// Validate checks the request's invariants per booking type. Event and seat
// level checks (capacity, availability) belong to the booking service.
func (r *EnrollRequest) Validate() error {
	if r.EventID <= 0 {
		return fmt.Errorf("%w: event_id is required", ErrInvalidRequest)
	}
	if r.AttendeeName == "" {
		return fmt.Errorf("%w: attendee_name is required", ErrInvalidRequest)
	}
	if r.ContactNumber == "" {
		return fmt.Errorf("%w: contact_number is required", ErrInvalidRequest)
	}
	if r.AttendeeAge <= 0 {
		return fmt.Errorf("%w: attendee_age is required", ErrInvalidRequest)
	}
	switch r.BookingType {
	case BookingSolo:
		if len(r.InvitedUsers) > 0 {
			return fmt.Errorf("%w: solo bookings cannot invite users", ErrInvalidRequest)
		}
	case BookingGroup:
		// A group request may create a new group (no code) or join one.
	default:
		return fmt.Errorf("%w: booking_type must be SOLO or GROUP", ErrInvalidRequest)
	}
	return nil
}

// BookingResult is the terminal state of the enrollment flow.
type BookingResult struct {
	BookingID  int64  `json:"booking_id"`
	TicketCode string `json:"ticket_code"`
	GroupCode  string `json:"group_code,omitempty"`
}

// BookingDTO is the listing shape returned for a user's bookings, joined
// with event details.
type BookingDTO struct {
	BookingID      int64         `json:"booking_id"`
	EventID        int64         `json:"event_id"`
	EventTitle     string        `json:"event_title"`
	EventStartDate time.Time     `json:"event_start_date"`
	TicketCode     string        `json:"ticket_code"`
	GroupCode      string        `json:"group_code,omitempty"`
	BookingType    BookingType   `json:"booking_type"`
	Status         BookingStatus `json:"status"`
	SeatNumber     *int          `json:"seat_number,omitempty"`
	AttendeeName   string        `json:"attendee_name"`
	BookingDate    time.Time     `json:"booking_date"`
}

// Sentinel errors mapped to HTTP responses at the boundary.
var (
	ErrInvalidRequest  = errors.New("invalid request")
	ErrEventNotFound   = errors.New("event not found")
	ErrBookingNotFound = errors.New("booking not found")
	ErrAlreadyEnrolled = errors.New("already enrolled in this event")
	ErrEventFull       = errors.New("event is full")
	ErrSeatRequired    = errors.New("seat number is required for onsite events")
	ErrInvalidSeat     = errors.New("invalid seat number")
	ErrSeatTaken       = errors.New("seat is already booked")
	ErrNotPermitted    = errors.New("not permitted")
)
