// Package enrollment implements the multi-step booking workflow as an
// explicit session state machine: form, optional bill summary and payment
// steps for paid events, and a terminal result carrying the ticket code.
// Sessions live in a Store for their TTL and are discarded on completion
// or abandonment; nothing about an unfinished enrollment is durable.
package enrollment

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/eventmate/eventmate-server/internal/domain"
	"github.com/eventmate/eventmate-server/internal/payment"
	"github.com/eventmate/eventmate-server/internal/seating"
	"github.com/eventmate/eventmate-server/internal/utils"
)

type Step string

const (
	StepForm           Step = "FORM"
	StepBillSummary    Step = "BILL_SUMMARY"
	StepPaymentMethod  Step = "PAYMENT_METHOD_SELECT"
	StepPaymentDetails Step = "PAYMENT_DETAILS"
	StepResult         Step = "RESULT"
)

var (
	ErrWrongStep  = errors.New("operation not valid in current step")
	ErrValidation = errors.New("validation failed")
)

// MinAttendeeAge is the minimum accepted age for an attendee whose input
// actually parses; see utils.ParseAge for the unparseable case.
const MinAttendeeAge = 18

// MinSearchQueryLen gates member search to queries of at least this length.
const MinSearchQueryLen = 2

// Form carries the enrollment form fields as submitted. Age and tier id
// stay raw strings until submission, where parsing applies the documented
// fallbacks.
type Form struct {
	AttendeeName        string             `json:"attendee_name"`
	ContactNumber       string             `json:"contact_number"`
	AttendeeAge         string             `json:"attendee_age"`
	CompanyName         string             `json:"company_name,omitempty"`
	JobTitle            string             `json:"job_title,omitempty"`
	DietaryRestrictions string             `json:"dietary_restrictions,omitempty"`
	AccessibilityNeeds  string             `json:"accessibility_needs,omitempty"`
	BookingType         domain.BookingType `json:"booking_type"`
	GroupCode           string             `json:"group_code,omitempty"`
	TicketTierID        string             `json:"ticket_tier_id,omitempty"`
	Consent             bool               `json:"consent"`
}

// Member is an invited group member held in session state until submit,
// when only the email list is sent.
type Member struct {
	UserID   int64  `json:"user_id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// Session is one in-flight enrollment. It snapshots the event, its tiers
// and the booked seats at start; the backend stays authoritative and
// re-validates everything at enroll time.
type Session struct {
	ID     string `json:"id"`
	UserID int64  `json:"user_id"`

	Event       domain.Event        `json:"event"`
	Tiers       []domain.TicketTier `json:"tiers,omitempty"`
	BookedSeats []int               `json:"booked_seats,omitempty"`

	Step           Step                  `json:"step"`
	Form           Form                  `json:"form"`
	SelectedSeat   *int                  `json:"selected_seat,omitempty"`
	InvitedMembers []Member              `json:"invited_members,omitempty"`
	Quote          Quote                 `json:"quote"`
	PaymentMethod  payment.Method        `json:"payment_method,omitempty"`
	Result         *domain.BookingResult `json:"result,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// validateForm applies the client-equivalent checks that run before any
// backend call. Everything else (email shapes of invitees, capacity, seat
// races) is deferred to the booking service.
func (s *Session) validateForm(f Form) error {
	if len(s.Tiers) > 0 && parseTierID(f.TicketTierID) == nil {
		return fmt.Errorf("%w: please select a ticket type", ErrValidation)
	}
	if s.Event.EventFormat == domain.FormatOnsite && s.SelectedSeat == nil {
		return fmt.Errorf("%w: please select a seat first", ErrValidation)
	}
	if !f.Consent {
		return fmt.Errorf("%w: consent is required", ErrValidation)
	}
	if n, err := strconv.Atoi(f.AttendeeAge); err == nil && n < MinAttendeeAge {
		return fmt.Errorf("%w: attendee must be at least %d", ErrValidation, MinAttendeeAge)
	}
	return nil
}

// SubmitForm validates and records the form. For paid events not yet
// billed it computes the base price and moves to the bill summary,
// returning needsBilling=true; otherwise the caller proceeds straight to
// enrollment.
func (s *Session) SubmitForm(f Form) (needsBilling bool, err error) {
	if s.Step != StepForm {
		return false, ErrWrongStep
	}
	if f.BookingType == "" {
		f.BookingType = domain.BookingSolo
	}
	parsed, ok := domain.ParseBookingType(string(f.BookingType))
	if !ok {
		return false, fmt.Errorf("%w: booking type must be SOLO or GROUP", ErrValidation)
	}
	f.BookingType = parsed
	if err := s.validateForm(f); err != nil {
		return false, err
	}
	s.Form = f
	if s.Event.IsPaid() {
		s.Quote = NewQuote(BasePrice(&s.Event, s.Tiers, parseTierID(f.TicketTierID)))
		s.Step = StepBillSummary
		return true, nil
	}
	return false, nil
}

// ApplyPromo is only meaningful while the bill summary is shown.
func (s *Session) ApplyPromo(code string) error {
	if s.Step != StepBillSummary {
		return ErrWrongStep
	}
	return s.Quote.ApplyPromo(&s.Event, code)
}

// AcceptBill moves from the bill summary to payment method selection.
func (s *Session) AcceptBill() error {
	if s.Step != StepBillSummary {
		return ErrWrongStep
	}
	s.Step = StepPaymentMethod
	return nil
}

// ChoosePaymentMethod records the method and moves to the details step.
func (s *Session) ChoosePaymentMethod(m payment.Method) error {
	if s.Step != StepPaymentMethod {
		return ErrWrongStep
	}
	parsed, ok := payment.ParseMethod(string(m))
	if !ok {
		return fmt.Errorf("%w: unknown payment method %q", ErrValidation, m)
	}
	s.PaymentMethod = parsed
	s.Step = StepPaymentDetails
	return nil
}

// ReadyToConfirm reports whether the flow sits at the payment details
// step, the only place a paid enrollment may be confirmed from.
func (s *Session) ReadyToConfirm() bool {
	return s.Step == StepPaymentDetails
}

// Back steps toward the form the way the flow's explicit back actions do:
// bill summary and method selection return to the form, payment details
// return to method selection.
func (s *Session) Back() error {
	switch s.Step {
	case StepBillSummary, StepPaymentMethod:
		s.Step = StepForm
		return nil
	case StepPaymentDetails:
		s.PaymentMethod = ""
		s.Step = StepPaymentMethod
		return nil
	default:
		return ErrWrongStep
	}
}

// SetSeat records a seat chosen against the session's booked-seat
// snapshot. A nil seat clears the selection.
func (s *Session) SetSeat(seat *int) error {
	if s.Step != StepForm {
		return ErrWrongStep
	}
	if seat == nil {
		s.SelectedSeat = nil
		return nil
	}
	if !seating.Available(*seat, s.Event.TotalCapacity, s.BookedSeats) {
		return fmt.Errorf("%w: seat %d is not available", ErrValidation, *seat)
	}
	s.SelectedSeat = seat
	return nil
}

// SeatMap renders the paged seat picker over the session's snapshot.
func (s *Session) SeatMap() seating.View {
	return seating.BuildView(s.Event.TotalCapacity, s.BookedSeats, s.SelectedSeat)
}

// HasMember reports whether a user is already invited.
func (s *Session) HasMember(userID int64) bool {
	for _, m := range s.InvitedMembers {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// AddMember appends an invited member. Dedup is by user id only; there is
// no group size cap here.
func (s *Session) AddMember(m Member) error {
	if m.UserID == s.UserID {
		return fmt.Errorf("%w: cannot invite yourself", ErrValidation)
	}
	if s.HasMember(m.UserID) {
		return fmt.Errorf("%w: user already invited", ErrValidation)
	}
	s.InvitedMembers = append(s.InvitedMembers, m)
	return nil
}

// RemoveMember drops an invited member by user id.
func (s *Session) RemoveMember(userID int64) {
	members := s.InvitedMembers[:0]
	for _, m := range s.InvitedMembers {
		if m.UserID != userID {
			members = append(members, m)
		}
	}
	s.InvitedMembers = members
}

// FilterSearchResults drops the session owner and already-invited users
// from a directory search result.
func (s *Session) FilterSearchResults(results []domain.User) []domain.User {
	filtered := make([]domain.User, 0, len(results))
	for _, u := range results {
		if u.ID == s.UserID || s.HasMember(u.ID) {
			continue
		}
		filtered = append(filtered, u)
	}
	return filtered
}

// EnrollRequest builds the submission payload from the session state,
// applying the raw-input parse rules (tier id nil on junk, age defaulting
// to 18).
func (s *Session) EnrollRequest() *domain.EnrollRequest {
	bookingType := s.Form.BookingType
	if bookingType == "" {
		bookingType = domain.BookingSolo
	}
	// Invites ride only on group requests; a solo submit after toggling
	// away from GROUP drops any members still held in session state.
	var emails []string
	if bookingType == domain.BookingGroup {
		emails = make([]string, 0, len(s.InvitedMembers))
		for _, m := range s.InvitedMembers {
			emails = append(emails, m.Email)
		}
	}
	return &domain.EnrollRequest{
		EventID:             s.Event.ID,
		TicketTierID:        parseTierID(s.Form.TicketTierID),
		BookingType:         bookingType,
		GroupCode:           s.Form.GroupCode,
		AttendeeName:        s.Form.AttendeeName,
		ContactNumber:       s.Form.ContactNumber,
		AttendeeAge:         utils.ParseAge(s.Form.AttendeeAge),
		DietaryRestrictions: s.Form.DietaryRestrictions,
		AccessibilityNeeds:  s.Form.AccessibilityNeeds,
		JobTitle:            s.Form.JobTitle,
		CompanyName:         s.Form.CompanyName,
		SeatNumber:          s.SelectedSeat,
		InvitedUsers:        emails,
	}
}

// Complete stores the backend's result and moves to the terminal step.
func (s *Session) Complete(res *domain.BookingResult) {
	s.Result = res
	s.Step = StepResult
}
