package enrollment

import (
	"context"
	"fmt"
	"time"

	"github.com/eventmate/eventmate-server/internal/domain"
	"github.com/eventmate/eventmate-server/internal/payment"
	"github.com/eventmate/eventmate-server/internal/utils"
	"github.com/eventmate/eventmate-server/pkg/logger"

	"github.com/google/uuid"
)

// Backend is the booking side of the flow: the authoritative enroll call
// and the booked-seat snapshot the seat picker works from.
type Backend interface {
	Enroll(ctx context.Context, userID int64, req *domain.EnrollRequest) (*domain.BookingResult, error)
	BookedSeats(ctx context.Context, eventID int64) ([]int, error)
}

// EventCatalog supplies the event and tier snapshot a session starts with.
type EventCatalog interface {
	GetEvent(ctx context.Context, id int64) (*domain.Event, error)
	ListTiers(ctx context.Context, eventID int64) ([]domain.TicketTier, error)
}

// Directory resolves users for profile prefill and group invitations.
type Directory interface {
	GetProfile(ctx context.Context, userID int64) (*domain.User, error)
	SearchUsers(ctx context.Context, query string) ([]domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
}

type Service struct {
	store     Store
	backend   Backend
	catalog   EventCatalog
	directory Directory
	providers *payment.Registry
	currency  string
}

func NewService(store Store, backend Backend, catalog EventCatalog, directory Directory, providers *payment.Registry, currency string) *Service {
	return &Service{
		store:     store,
		backend:   backend,
		catalog:   catalog,
		directory: directory,
		providers: providers,
		currency:  currency,
	}
}

// Start opens a session for an event: snapshots the event, its tiers and
// (for onsite events) the booked seats, and prefills the form from the
// user's profile. An initial group code prefills the join field only.
func (s *Service) Start(ctx context.Context, userID, eventID int64, initialGroupCode string) (*Session, error) {
	event, err := s.catalog.GetEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, domain.ErrEventNotFound
	}
	if event.Status == domain.EventCancelled || event.Status == domain.EventCompleted {
		return nil, fmt.Errorf("%w: registration is closed", domain.ErrInvalidRequest)
	}

	tiers, err := s.catalog.ListTiers(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ticket tiers: %w", err)
	}

	sess := &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Event:     *event,
		Tiers:     tiers,
		Step:      StepForm,
		CreatedAt: time.Now(),
	}
	sess.Form.BookingType = domain.BookingSolo
	sess.Form.GroupCode = initialGroupCode
	if len(tiers) > 0 {
		sess.Form.TicketTierID = fmt.Sprintf("%d", tiers[0].ID)
	}

	// Profile prefill is best effort; a thin profile blocks solo submits
	// later, not session start.
	if profile, err := s.directory.GetProfile(ctx, userID); err == nil && profile != nil {
		sess.Form.AttendeeName = profile.FullName
		sess.Form.ContactNumber = profile.PhoneNumber
		sess.Form.CompanyName = profile.CompanyName
		sess.Form.JobTitle = profile.JobTitle
	} else if err != nil {
		logger.WarnContext(ctx, "Failed to prefill profile", "error", err, "user_id", userID)
	}

	if event.EventFormat == domain.FormatOnsite {
		seats, err := s.backend.BookedSeats(ctx, eventID)
		if err != nil {
			return nil, fmt.Errorf("failed to load seat availability: %w", err)
		}
		sess.BookedSeats = seats
	}

	if err := s.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Get loads a session owned by the user.
func (s *Service) Get(ctx context.Context, userID int64, id string) (*Session, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.UserID != userID {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// SetSeat records or clears the chosen seat against the session snapshot.
func (s *Service) SetSeat(ctx context.Context, userID int64, id string, seat *int) (*Session, error) {
	return s.mutate(ctx, userID, id, func(sess *Session) error {
		return sess.SetSeat(seat)
	})
}

// SearchMembers runs an incremental member search, excluding the session
// owner and anyone already invited. Queries under the minimum length
// return no results rather than an error.
func (s *Service) SearchMembers(ctx context.Context, userID int64, id, query string) ([]domain.User, error) {
	sess, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if len(query) < MinSearchQueryLen {
		return []domain.User{}, nil
	}
	results, err := s.directory.SearchUsers(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("user search failed: %w", err)
	}
	return sess.FilterSearchResults(results), nil
}

// AddMember invites a user by email.
func (s *Service) AddMember(ctx context.Context, userID int64, id, email string) (*Session, error) {
	email = utils.NormalizeEmail(email)
	if !utils.IsValidEmail(email) {
		return nil, fmt.Errorf("%w: invalid email", ErrValidation)
	}
	user, err := s.directory.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: no user with that email", ErrValidation)
	}
	return s.mutate(ctx, userID, id, func(sess *Session) error {
		return sess.AddMember(Member{UserID: user.ID, FullName: user.FullName, Email: user.Email})
	})
}

// RemoveMember drops an invited user.
func (s *Service) RemoveMember(ctx context.Context, userID int64, id string, memberID int64) (*Session, error) {
	return s.mutate(ctx, userID, id, func(sess *Session) error {
		sess.RemoveMember(memberID)
		return nil
	})
}

// SubmitForm runs the FORM transition. Paid events stop at the bill
// summary; free events enroll immediately. Enrollment failures leave the
// session in place for correction.
func (s *Service) SubmitForm(ctx context.Context, userID int64, id string, form Form) (*Session, error) {
	sess, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	needsBilling, err := sess.SubmitForm(form)
	if err != nil {
		return nil, err
	}
	if !needsBilling {
		if err := s.enroll(ctx, sess); err != nil {
			return nil, err
		}
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// ApplyPromo applies a promo code to the bill. An invalid code resets the
// quote and is reported as a validation error with the session saved.
func (s *Service) ApplyPromo(ctx context.Context, userID int64, id, code string) (*Session, error) {
	sess, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	promoErr := sess.ApplyPromo(code)
	if promoErr == ErrWrongStep {
		return nil, promoErr
	}
	// A rejected code still mutated the quote back to base price.
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	if promoErr != nil {
		return sess, promoErr
	}
	return sess, nil
}

// AcceptBill moves BILL_SUMMARY to payment method selection.
func (s *Service) AcceptBill(ctx context.Context, userID int64, id string) (*Session, error) {
	return s.mutate(ctx, userID, id, func(sess *Session) error {
		return sess.AcceptBill()
	})
}

// ChoosePaymentMethod records one of the mocked methods.
func (s *Service) ChoosePaymentMethod(ctx context.Context, userID int64, id string, method payment.Method) (*Session, error) {
	return s.mutate(ctx, userID, id, func(sess *Session) error {
		return sess.ChoosePaymentMethod(method)
	})
}

// ConfirmPayment confirms with the mock provider and then enrolls. Only
// valid from the payment details step.
func (s *Service) ConfirmPayment(ctx context.Context, userID int64, id string) (*Session, error) {
	sess, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !sess.ReadyToConfirm() {
		return nil, ErrWrongStep
	}
	provider, err := s.providers.Get(sess.PaymentMethod)
	if err != nil {
		return nil, err
	}
	conf, err := provider.Confirm(ctx, sess.Quote.FinalAmount, s.currency)
	if err != nil {
		return nil, fmt.Errorf("payment confirmation failed: %w", err)
	}
	logger.InfoContext(ctx, "Payment confirmed",
		"session_id", sess.ID,
		"method", conf.Method,
		"reference", conf.Reference,
		"amount", sess.Quote.FinalAmount)

	if err := s.enroll(ctx, sess); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Back steps toward the form.
func (s *Service) Back(ctx context.Context, userID int64, id string) (*Session, error) {
	return s.mutate(ctx, userID, id, func(sess *Session) error {
		return sess.Back()
	})
}

// Abandon discards the session and all its state.
func (s *Service) Abandon(ctx context.Context, userID int64, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}

func (s *Service) enroll(ctx context.Context, sess *Session) error {
	req := sess.EnrollRequest()
	if err := req.Validate(); err != nil {
		return err
	}
	res, err := s.backend.Enroll(ctx, sess.UserID, req)
	if err != nil {
		return err
	}
	sess.Complete(res)
	return nil
}

func (s *Service) mutate(ctx context.Context, userID int64, id string, fn func(*Session) error) (*Session, error) {
	sess, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}
