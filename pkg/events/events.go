package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/eventmate/eventmate-server/pkg/logger"
	"github.com/nats-io/nats.go"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type Subscriber interface {
	Subscribe(subject string, handler func(msg *Message)) error
	QueueSubscribe(subject, queue string, handler func(msg *Message)) error
	Close() error
}

type EventBus interface {
	Publisher
	Subscriber
}

type Message struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
	ID        string
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) Subscribe(subject string, handler func(msg *Message)) error {
	_, err := n.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
			ID:        fmt.Sprintf("%d", time.Now().UnixNano()),
		})
	})
	return err
}

func (n *NATSEventBus) QueueSubscribe(subject, queue string, handler func(msg *Message)) error {
	_, err := n.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
			ID:        fmt.Sprintf("%d", time.Now().UnixNano()),
		})
	})
	return err
}

func (n *NATSEventBus) Close() error {
	n.conn.Close()
	return nil
}

// Event types and subjects
const (
	// Booking events
	BookingCreated  = "booking.created"
	BookingCanceled = "booking.canceled"

	// Group events
	GroupMemberInvited = "group.member.invited"

	// Payment events
	PaymentConfirmed = "payment.confirmed"

	// Notification events
	NotifySend = "notify.send"
)

// Event payloads
type BookingCreatedEvent struct {
	BookingID     int64     `json:"booking_id"`
	EventID       int64     `json:"event_id"`
	UserID        int64     `json:"user_id"`
	AttendeeName  string    `json:"attendee_name"`
	AttendeeEmail string    `json:"attendee_email"`
	TicketCode    string    `json:"ticket_code"`
	GroupCode     string    `json:"group_code,omitempty"`
	SeatNumber    *int      `json:"seat_number,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type BookingCanceledEvent struct {
	BookingID     int64     `json:"booking_id"`
	EventID       int64     `json:"event_id"`
	AttendeeEmail string    `json:"attendee_email"`
	Reason        string    `json:"reason"`
	CanceledAt    time.Time `json:"canceled_at"`
}

type GroupMemberInvitedEvent struct {
	BookingID    int64     `json:"booking_id"`
	EventID      int64     `json:"event_id"`
	GroupCode    string    `json:"group_code"`
	InviterName  string    `json:"inviter_name"`
	MemberEmail  string    `json:"member_email"`
	InvitedAt    time.Time `json:"invited_at"`
}

type PaymentConfirmedEvent struct {
	BookingID int64     `json:"booking_id"`
	EventID   int64     `json:"event_id"`
	Reference string    `json:"reference"`
	Method    string    `json:"method"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency"`
	PaidAt    time.Time `json:"paid_at"`
}

type NotificationEvent struct {
	Type      string                 `json:"type"`
	Recipient string                 `json:"recipient"`
	Subject   string                 `json:"subject"`
	Template  string                 `json:"template"`
	Data      map[string]interface{} `json:"data"`
}
