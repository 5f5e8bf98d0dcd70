package domain

import (
	"strings"
	"time"
)

type EventFormat string

const (
	FormatOnsite EventFormat = "ONSITE"
	FormatRemote EventFormat = "REMOTE"
	FormatHybrid EventFormat = "HYBRID"
)

func ParseEventFormat(s string) (EventFormat, bool) {
	switch EventFormat(strings.ToUpper(s)) {
	case FormatOnsite, FormatRemote, FormatHybrid:
		return EventFormat(strings.ToUpper(s)), true
	default:
		return "", false
	}
}

type TicketType string

const (
	TicketFree TicketType = "FREE"
	TicketPaid TicketType = "PAID"
)

type EventStatus string

const (
	EventPlanned   EventStatus = "PLANNED"
	EventDraft     EventStatus = "DRAFT"
	EventActive    EventStatus = "ACTIVE"
	EventCompleted EventStatus = "COMPLETED"
	EventCancelled EventStatus = "CANCELLED"
)

// Event is the view of an event an enrollment operates on. The enrollment
// flow takes a snapshot at session start and treats it as immutable.
type Event struct {
	ID                 int64       `json:"event_id"`
	OrganizerID        int64       `json:"organizer_id"`
	Title              string      `json:"title"`
	EventFormat        EventFormat `json:"event_format"`
	TicketType         TicketType  `json:"ticket_type"`
	Status             EventStatus `json:"status"`
	TotalCapacity      int         `json:"total_capacity"`
	TicketPrice        float64     `json:"ticket_price"`
	AllowCoupon        bool        `json:"allow_coupon"`
	CouponCode         string      `json:"coupon_code,omitempty"`
	DiscountPercentage float64     `json:"discount_percentage"`
	MeetingURL         string      `json:"meeting_url,omitempty"`
	StartDate          time.Time   `json:"start_date"`
	EndDate            time.Time   `json:"end_date"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

// IsPaid reports whether the bill-summary and payment steps apply.
func (e *Event) IsPaid() bool {
	return e.TicketType == TicketPaid
}

// TicketTier is a priced ticket category of an event (e.g. General, VIP).
type TicketTier struct {
	ID          int64   `json:"ticket_tier_id"`
	EventID     int64   `json:"event_id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Capacity    *int    `json:"capacity,omitempty"`
	Description string  `json:"description,omitempty"`
}
