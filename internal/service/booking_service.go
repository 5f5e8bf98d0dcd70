package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/eventmate/eventmate-server/internal/domain"
	"github.com/eventmate/eventmate-server/internal/platform/mailer"
	"github.com/eventmate/eventmate-server/internal/repo/postgres"
	"github.com/eventmate/eventmate-server/pkg/events"
	"github.com/eventmate/eventmate-server/pkg/logger"

	"github.com/google/uuid"
)

type BookingService interface {
	Enroll(ctx context.Context, userID int64, req *domain.EnrollRequest) (*domain.BookingResult, error)
	EnrollIdempotent(ctx context.Context, userID int64, req *domain.EnrollRequest, idempotencyKey string) (*domain.BookingResult, error)
	GetBooking(ctx context.Context, id int64) (*domain.Booking, error)
	BookedSeats(ctx context.Context, eventID int64) ([]int, error)
	IsEnrolled(ctx context.Context, userID, eventID int64) (bool, error)
	ListMyBookings(ctx context.Context, userID int64, limit, offset int) ([]domain.BookingDTO, error)
	ListEventBookings(ctx context.Context, organizerID, eventID int64, limit, offset int) ([]domain.Booking, error)
	GroupRoster(ctx context.Context, userID int64, groupCode string) ([]domain.Booking, error)
	CancelBooking(ctx context.Context, userID, bookingID int64) error
}

type bookingService struct {
	bookingRepo     postgres.BookingRepo
	eventRepo       postgres.EventRepo
	userRepo        postgres.UserRepo
	idempotencyRepo postgres.IdempotencyRepo
	eventBus        events.Publisher
	mailer          mailer.Service
}

func NewBookingService(
	bookingRepo postgres.BookingRepo,
	eventRepo postgres.EventRepo,
	userRepo postgres.UserRepo,
	idempotencyRepo postgres.IdempotencyRepo,
	eventBus events.Publisher,
	mail mailer.Service,
) BookingService {
	return &bookingService{
		bookingRepo:     bookingRepo,
		eventRepo:       eventRepo,
		userRepo:        userRepo,
		idempotencyRepo: idempotencyRepo,
		eventBus:        eventBus,
		mailer:          mail,
	}
}

// Enroll books the requesting user into the event, and for group requests
// also books every invited user against the same group code.
func (s *bookingService) Enroll(ctx context.Context, userID int64, req *domain.EnrollRequest) (*domain.BookingResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user not found")
	}

	event, err := s.eventRepo.GetByID(ctx, req.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load event: %w", err)
	}
	if event == nil {
		return nil, domain.ErrEventNotFound
	}

	enrolled, err := s.bookingRepo.ExistsForUserAndEvent(ctx, userID, req.EventID)
	if err != nil {
		return nil, fmt.Errorf("enrollment check failed: %w", err)
	}
	if enrolled {
		return nil, domain.ErrAlreadyEnrolled
	}

	if err := s.validateSeat(ctx, event, req.SeatNumber); err != nil {
		return nil, err
	}

	count, err := s.bookingRepo.CountByEvent(ctx, req.EventID)
	if err != nil {
		return nil, fmt.Errorf("capacity check failed: %w", err)
	}
	if event.TotalCapacity > 0 && count+1+len(req.InvitedUsers) > event.TotalCapacity {
		return nil, domain.ErrEventFull
	}

	groupCode := req.GroupCode
	if req.BookingType == domain.BookingGroup && groupCode == "" {
		groupCode = newGroupCode()
	}

	owner := &domain.Booking{
		EventID:             req.EventID,
		UserID:              userID,
		TicketTierID:        req.TicketTierID,
		SeatNumber:          req.SeatNumber,
		Status:              domain.BookingConfirmed,
		BookingType:         req.BookingType,
		GroupCode:           groupCode,
		TicketCode:          newTicketCode(req.EventID),
		AttendeeName:        req.AttendeeName,
		ContactNumber:       req.ContactNumber,
		AttendeeAge:         req.AttendeeAge,
		DietaryRestrictions: req.DietaryRestrictions,
		AccessibilityNeeds:  req.AccessibilityNeeds,
		JobTitle:            req.JobTitle,
		CompanyName:         req.CompanyName,
	}

	created, err := s.bookingRepo.Create(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	s.publishCreated(ctx, created, event, user.Email)

	// Invited members get linked bookings under the same group code. A
	// member that cannot be booked is skipped, not fatal: the owner's
	// booking already exists.
	for _, email := range req.InvitedUsers {
		s.enrollInvited(ctx, event, created, user.FullName, email)
	}

	if err := s.mailer.SendTicketConfirmation(user.Email, user.FullName, event, created.TicketCode, created.SeatNumber); err != nil {
		logger.ErrorContext(ctx, "Failed to send confirmation email", "error", err, "booking_id", created.ID)
	}

	return &domain.BookingResult{
		BookingID:  created.ID,
		TicketCode: created.TicketCode,
		GroupCode:  created.GroupCode,
	}, nil
}

// EnrollIdempotent wraps Enroll with Idempotency-Key deduplication.
func (s *bookingService) EnrollIdempotent(ctx context.Context, userID int64, req *domain.EnrollRequest, idempotencyKey string) (*domain.BookingResult, error) {
	if idempotencyKey == "" {
		return s.Enroll(ctx, userID, req)
	}

	if existingID, err := s.idempotencyRepo.CheckOrCreateIdempotency(ctx, idempotencyKey, 0); err != nil {
		return nil, fmt.Errorf("idempotency check failed: %w", err)
	} else if existingID > 0 {
		existing, err := s.bookingRepo.GetByID(ctx, existingID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, domain.ErrBookingNotFound
		}
		return &domain.BookingResult{
			BookingID:  existing.ID,
			TicketCode: existing.TicketCode,
			GroupCode:  existing.GroupCode,
		}, nil
	}

	result, err := s.Enroll(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	if _, err := s.idempotencyRepo.CheckOrCreateIdempotency(ctx, idempotencyKey, result.BookingID); err != nil {
		logger.ErrorContext(ctx, "Failed to store idempotency record", "error", err, "booking_id", result.BookingID)
	}

	return result, nil
}

func (s *bookingService) GetBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	return s.bookingRepo.GetByID(ctx, id)
}

func (s *bookingService) BookedSeats(ctx context.Context, eventID int64) ([]int, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, domain.ErrEventNotFound
	}
	return s.bookingRepo.BookedSeats(ctx, eventID)
}

func (s *bookingService) IsEnrolled(ctx context.Context, userID, eventID int64) (bool, error) {
	return s.bookingRepo.ExistsForUserAndEvent(ctx, userID, eventID)
}

func (s *bookingService) ListMyBookings(ctx context.Context, userID int64, limit, offset int) ([]domain.BookingDTO, error) {
	return s.bookingRepo.ListByUser(ctx, userID, limit, offset)
}

// ListEventBookings returns all bookings for an event. Only the organizer
// may see them.
func (s *bookingService) ListEventBookings(ctx context.Context, organizerID, eventID int64, limit, offset int) ([]domain.Booking, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, domain.ErrEventNotFound
	}
	if event.OrganizerID != organizerID {
		return nil, domain.ErrNotPermitted
	}
	return s.bookingRepo.ListByEvent(ctx, eventID, limit, offset)
}

// GroupRoster lists the bookings sharing a group code. Only a member of
// the group may see who else is in it.
func (s *bookingService) GroupRoster(ctx context.Context, userID int64, groupCode string) ([]domain.Booking, error) {
	bookings, err := s.bookingRepo.ListByGroupCode(ctx, groupCode)
	if err != nil {
		return nil, fmt.Errorf("failed to list group bookings: %w", err)
	}
	if len(bookings) == 0 {
		return nil, domain.ErrBookingNotFound
	}
	for _, b := range bookings {
		if b.UserID == userID {
			return bookings, nil
		}
	}
	return nil, domain.ErrNotPermitted
}

func (s *bookingService) CancelBooking(ctx context.Context, userID, bookingID int64) error {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return fmt.Errorf("failed to get booking: %w", err)
	}
	if booking == nil {
		return domain.ErrBookingNotFound
	}
	if !booking.IsOwner(userID) {
		return domain.ErrNotPermitted
	}

	ok, err := s.bookingRepo.Cancel(ctx, bookingID)
	if err != nil {
		return fmt.Errorf("failed to cancel booking: %w", err)
	}
	if !ok {
		return domain.ErrBookingNotFound
	}

	user, _ := s.userRepo.FindByID(ctx, userID)
	email := ""
	if user != nil {
		email = user.Email
	}
	event := events.BookingCanceledEvent{
		BookingID:     booking.ID,
		EventID:       booking.EventID,
		AttendeeEmail: email,
		Reason:        "user_requested",
		CanceledAt:    time.Now(),
	}
	if err := s.eventBus.Publish(ctx, events.BookingCanceled, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish booking canceled event", "error", err, "booking_id", booking.ID)
	}

	return nil
}

func (s *bookingService) validateSeat(ctx context.Context, event *domain.Event, seat *int) error {
	if event.EventFormat != domain.FormatOnsite {
		return nil
	}
	if seat == nil {
		return domain.ErrSeatRequired
	}
	if *seat < 1 || (event.TotalCapacity > 0 && *seat > event.TotalCapacity) {
		return domain.ErrInvalidSeat
	}
	taken, err := s.bookingRepo.SeatTaken(ctx, event.ID, *seat)
	if err != nil {
		return fmt.Errorf("seat check failed: %w", err)
	}
	if taken {
		return domain.ErrSeatTaken
	}
	return nil
}

func (s *bookingService) enrollInvited(ctx context.Context, event *domain.Event, owner *domain.Booking, inviterName, email string) {
	member, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil || member == nil {
		logger.WarnContext(ctx, "Skipping invited user", "error", err, "email", email)
		return
	}

	enrolled, err := s.bookingRepo.ExistsForUserAndEvent(ctx, member.ID, event.ID)
	if err != nil || enrolled {
		logger.WarnContext(ctx, "Invited user already enrolled, skipping", "email", email, "event_id", event.ID)
		return
	}

	linked := &domain.Booking{
		EventID:       event.ID,
		UserID:        member.ID,
		TicketTierID:  owner.TicketTierID,
		Status:        domain.BookingConfirmed,
		BookingType:   domain.BookingGroup,
		GroupCode:     owner.GroupCode,
		TicketCode:    newTicketCode(event.ID),
		AttendeeName:  member.FullName,
		ContactNumber: member.PhoneNumber,
		AttendeeAge:   owner.AttendeeAge,
		JobTitle:      member.JobTitle,
		CompanyName:   member.CompanyName,
	}

	created, err := s.bookingRepo.Create(ctx, linked)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to create linked booking", "error", err, "email", email)
		return
	}

	s.publishCreated(ctx, created, event, member.Email)

	invited := events.GroupMemberInvitedEvent{
		BookingID:   created.ID,
		EventID:     event.ID,
		GroupCode:   owner.GroupCode,
		InviterName: inviterName,
		MemberEmail: member.Email,
		InvitedAt:   time.Now(),
	}
	if err := s.eventBus.Publish(ctx, events.GroupMemberInvited, invited); err != nil {
		logger.ErrorContext(ctx, "Failed to publish group invite event", "error", err, "booking_id", created.ID)
	}

	if err := s.mailer.SendGroupInvite(member.Email, inviterName, event, owner.GroupCode); err != nil {
		logger.ErrorContext(ctx, "Failed to send group invite email", "error", err, "email", member.Email)
	}
}

func (s *bookingService) publishCreated(ctx context.Context, b *domain.Booking, event *domain.Event, email string) {
	payload := events.BookingCreatedEvent{
		BookingID:     b.ID,
		EventID:       b.EventID,
		UserID:        b.UserID,
		AttendeeName:  b.AttendeeName,
		AttendeeEmail: email,
		TicketCode:    b.TicketCode,
		GroupCode:     b.GroupCode,
		SeatNumber:    b.SeatNumber,
		CreatedAt:     b.BookingDate,
	}
	if err := s.eventBus.Publish(ctx, events.BookingCreated, payload); err != nil {
		logger.ErrorContext(ctx, "Failed to publish booking created event", "error", err, "booking_id", b.ID)
	}
}

func newTicketCode(eventID int64) string {
	suffix := strings.ToUpper(uuid.NewString()[:6])
	return fmt.Sprintf("EVT-%d-%s", eventID, suffix)
}

func newGroupCode() string {
	return "GRP-" + strings.ToUpper(uuid.NewString()[:8])
}
