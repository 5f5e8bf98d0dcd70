package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/eventmate/eventmate-server/internal/domain"
)

// ---------- Mocks ----------

type mockBookingRepo struct {
	nextID   int64
	bookings map[int64]*domain.Booking
	byUser   map[string]bool // "userID:eventID"
	seats    map[string]bool // "eventID:seat"
	count    map[int64]int
}

func newMockBookingRepo() *mockBookingRepo {
	return &mockBookingRepo{
		nextID:   1,
		bookings: make(map[int64]*domain.Booking),
		byUser:   make(map[string]bool),
		seats:    make(map[string]bool),
		count:    make(map[int64]int),
	}
}

func key2(a, b int64) string {
	return fmt.Sprintf("%d:%d", a, b)
}

func (m *mockBookingRepo) Create(_ context.Context, b *domain.Booking) (*domain.Booking, error) {
	cp := *b
	cp.ID = m.nextID
	m.nextID++
	cp.BookingDate = time.Now()
	m.bookings[cp.ID] = &cp
	m.byUser[key2(cp.UserID, cp.EventID)] = true
	if cp.SeatNumber != nil {
		m.seats[key2(cp.EventID, int64(*cp.SeatNumber))] = true
	}
	m.count[cp.EventID]++
	return &cp, nil
}

func (m *mockBookingRepo) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	return m.bookings[id], nil
}

func (m *mockBookingRepo) ExistsForUserAndEvent(_ context.Context, userID, eventID int64) (bool, error) {
	return m.byUser[key2(userID, eventID)], nil
}

func (m *mockBookingRepo) CountByEvent(_ context.Context, eventID int64) (int, error) {
	return m.count[eventID], nil
}

func (m *mockBookingRepo) BookedSeats(_ context.Context, eventID int64) ([]int, error) {
	var out []int
	for _, b := range m.bookings {
		if b.EventID == eventID && b.SeatNumber != nil {
			out = append(out, *b.SeatNumber)
		}
	}
	return out, nil
}

func (m *mockBookingRepo) SeatTaken(_ context.Context, eventID int64, seat int) (bool, error) {
	return m.seats[key2(eventID, int64(seat))], nil
}

func (m *mockBookingRepo) ListByUser(_ context.Context, userID int64, limit, offset int) ([]domain.BookingDTO, error) {
	var out []domain.BookingDTO
	for _, b := range m.bookings {
		if b.UserID == userID {
			out = append(out, domain.BookingDTO{BookingID: b.ID, EventID: b.EventID, TicketCode: b.TicketCode})
		}
	}
	return out, nil
}

func (m *mockBookingRepo) ListByEvent(_ context.Context, eventID int64, limit, offset int) ([]domain.Booking, error) {
	var out []domain.Booking
	for _, b := range m.bookings {
		if b.EventID == eventID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *mockBookingRepo) ListByGroupCode(_ context.Context, groupCode string) ([]domain.Booking, error) {
	var out []domain.Booking
	for _, b := range m.bookings {
		if b.GroupCode == groupCode {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *mockBookingRepo) Cancel(_ context.Context, id int64) (bool, error) {
	b, ok := m.bookings[id]
	if !ok || b.Status == domain.BookingCancelled {
		return false, nil
	}
	b.Status = domain.BookingCancelled
	return true, nil
}

type mockEventRepo struct {
	events map[int64]*domain.Event
	tiers  map[int64][]domain.TicketTier
}

func newMockEventRepo() *mockEventRepo {
	return &mockEventRepo{events: make(map[int64]*domain.Event), tiers: make(map[int64][]domain.TicketTier)}
}

func (m *mockEventRepo) GetByID(_ context.Context, id int64) (*domain.Event, error) {
	return m.events[id], nil
}

func (m *mockEventRepo) ListTiers(_ context.Context, eventID int64) ([]domain.TicketTier, error) {
	return m.tiers[eventID], nil
}

func (m *mockEventRepo) GetTier(_ context.Context, id int64) (*domain.TicketTier, error) {
	for _, tiers := range m.tiers {
		for _, t := range tiers {
			if t.ID == id {
				return &t, nil
			}
		}
	}
	return nil, nil
}

type mockUserRepo struct {
	users map[int64]*domain.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[int64]*domain.User)}
}

func (m *mockUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	return m.users[id], nil
}

func (m *mockUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) Search(_ context.Context, query string, limit int) ([]domain.User, error) {
	var out []domain.User
	for _, u := range m.users {
		if strings.Contains(strings.ToLower(u.FullName), strings.ToLower(query)) ||
			strings.Contains(strings.ToLower(u.Email), strings.ToLower(query)) {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *mockUserRepo) UpdateProfile(_ context.Context, id int64, fullName, phone, company, jobTitle string) (*domain.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	u.FullName, u.PhoneNumber, u.CompanyName, u.JobTitle = fullName, phone, company, jobTitle
	return u, nil
}

type mockIdempotencyRepo struct {
	records map[string]int64
}

func newMockIdempotencyRepo() *mockIdempotencyRepo {
	return &mockIdempotencyRepo{records: make(map[string]int64)}
}

func (m *mockIdempotencyRepo) CheckOrCreateIdempotency(_ context.Context, key string, bookingID int64) (int64, error) {
	if existing, ok := m.records[key]; ok && existing > 0 {
		return existing, nil
	}
	if bookingID > 0 {
		m.records[key] = bookingID
	}
	return 0, nil
}

func (m *mockIdempotencyRepo) CleanupExpired(_ context.Context) (int64, error) {
	return 0, nil
}

type publishedEvent struct {
	subject string
	data    interface{}
}

type mockPublisher struct {
	published []publishedEvent
}

func (m *mockPublisher) Publish(_ context.Context, subject string, data interface{}) error {
	m.published = append(m.published, publishedEvent{subject, data})
	return nil
}

func (m *mockPublisher) Close() error { return nil }

func (m *mockPublisher) subjects() []string {
	var out []string
	for _, e := range m.published {
		out = append(out, e.subject)
	}
	return out
}

type sentMail struct {
	kind    string
	toEmail string
}

type mockMailer struct {
	sent []sentMail
}

func (m *mockMailer) Send(toEmail, toName, subject, text, html string) (string, error) {
	m.sent = append(m.sent, sentMail{"raw", toEmail})
	return "msg-id", nil
}

func (m *mockMailer) SendTicketConfirmation(toEmail, toName string, event *domain.Event, ticketCode string, seat *int) error {
	m.sent = append(m.sent, sentMail{"confirmation", toEmail})
	return nil
}

func (m *mockMailer) SendGroupInvite(toEmail, inviterName string, event *domain.Event, groupCode string) error {
	m.sent = append(m.sent, sentMail{"invite", toEmail})
	return nil
}

// ---------- Setup ----------

type fixtures struct {
	svc      BookingService
	bookings *mockBookingRepo
	events   *mockEventRepo
	users    *mockUserRepo
	idem     *mockIdempotencyRepo
	bus      *mockPublisher
	mail     *mockMailer
}

func setup(t *testing.T) *fixtures {
	t.Helper()
	f := &fixtures{
		bookings: newMockBookingRepo(),
		events:   newMockEventRepo(),
		users:    newMockUserRepo(),
		idem:     newMockIdempotencyRepo(),
		bus:      &mockPublisher{},
		mail:     &mockMailer{},
	}
	f.svc = NewBookingService(f.bookings, f.events, f.users, f.idem, f.bus, f.mail)

	f.events.events[10] = &domain.Event{
		ID:            10,
		OrganizerID:   99,
		Title:         "Go Meetup",
		Status:        domain.EventActive,
		EventFormat:   domain.FormatRemote,
		TicketType:    domain.TicketFree,
		TotalCapacity: 100,
	}
	f.users.users[1] = &domain.User{ID: 1, Email: "ada@x.co", FullName: "Ada Lovelace", PhoneNumber: "+15551234567"}
	f.users.users[2] = &domain.User{ID: 2, Email: "grace@x.co", FullName: "Grace Hopper", PhoneNumber: "+15557654321"}
	return f
}

func soloRequest(eventID int64) *domain.EnrollRequest {
	return &domain.EnrollRequest{
		EventID:       eventID,
		BookingType:   domain.BookingSolo,
		AttendeeName:  "Ada Lovelace",
		ContactNumber: "+15551234567",
		AttendeeAge:   30,
	}
}

// ---------- Tests ----------

func TestEnroll_Solo(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	res, err := f.svc.Enroll(ctx, 1, soloRequest(10))
	if err != nil {
		t.Fatalf("Enroll: %v", err)
	}
	if !strings.HasPrefix(res.TicketCode, "EVT-10-") {
		t.Fatalf("TicketCode = %q, want EVT-10- prefix", res.TicketCode)
	}
	if res.GroupCode != "" {
		t.Fatalf("GroupCode = %q, want empty for solo", res.GroupCode)
	}
	if got := f.bus.subjects(); len(got) != 1 || got[0] != "booking.created" {
		t.Fatalf("published = %v", got)
	}
	if len(f.mail.sent) != 1 || f.mail.sent[0].kind != "confirmation" || f.mail.sent[0].toEmail != "ada@x.co" {
		t.Fatalf("mail = %+v", f.mail.sent)
	}
}

func TestEnroll_Duplicate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	if _, err := f.svc.Enroll(ctx, 1, soloRequest(10)); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Enroll(ctx, 1, soloRequest(10)); !errors.Is(err, domain.ErrAlreadyEnrolled) {
		t.Fatalf("err = %v, want ErrAlreadyEnrolled", err)
	}
}

func TestEnroll_UnknownEvent(t *testing.T) {
	f := setup(t)
	if _, err := f.svc.Enroll(context.Background(), 1, soloRequest(999)); !errors.Is(err, domain.ErrEventNotFound) {
		t.Fatalf("err = %v, want ErrEventNotFound", err)
	}
}

func TestEnroll_OnsiteSeats(t *testing.T) {
	f := setup(t)
	f.events.events[10].EventFormat = domain.FormatOnsite
	ctx := context.Background()

	tooHigh := 101
	zero := 0
	taken := 5

	// Pre-book seat 5 under another user.
	pre := soloRequest(10)
	pre.AttendeeName = "Grace Hopper"
	pre.SeatNumber = &taken
	if _, err := f.svc.Enroll(ctx, 2, pre); err != nil {
		t.Fatalf("precondition enroll: %v", err)
	}

	tests := []struct {
		name string
		seat *int
		want error
	}{
		{"missing seat", nil, domain.ErrSeatRequired},
		{"seat zero", &zero, domain.ErrInvalidSeat},
		{"past capacity", &tooHigh, domain.ErrInvalidSeat},
		{"already booked", &taken, domain.ErrSeatTaken},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := soloRequest(10)
			req.SeatNumber = tc.seat
			if _, err := f.svc.Enroll(ctx, 1, req); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}

	good := 7
	req := soloRequest(10)
	req.SeatNumber = &good
	if _, err := f.svc.Enroll(ctx, 1, req); err != nil {
		t.Fatalf("valid seat rejected: %v", err)
	}
}

func TestEnroll_CapacityCountsInvites(t *testing.T) {
	f := setup(t)
	f.events.events[10].TotalCapacity = 2
	ctx := context.Background()

	// One of two spots taken; a group of owner plus one invite would need
	// two more.
	pre := soloRequest(10)
	if _, err := f.svc.Enroll(ctx, 2, pre); err != nil {
		t.Fatal(err)
	}

	req := soloRequest(10)
	req.BookingType = domain.BookingGroup
	req.InvitedUsers = []string{"grace@x.co"}
	if _, err := f.svc.Enroll(ctx, 1, req); !errors.Is(err, domain.ErrEventFull) {
		t.Fatalf("err = %v, want ErrEventFull", err)
	}
}

func TestEnroll_GroupCreatesLinkedBookings(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	req := soloRequest(10)
	req.BookingType = domain.BookingGroup
	req.InvitedUsers = []string{"grace@x.co"}

	res, err := f.svc.Enroll(ctx, 1, req)
	if err != nil {
		t.Fatalf("Enroll: %v", err)
	}
	if !strings.HasPrefix(res.GroupCode, "GRP-") {
		t.Fatalf("GroupCode = %q, want GRP- prefix", res.GroupCode)
	}

	linked, err := f.bookings.ListByGroupCode(ctx, res.GroupCode)
	if err != nil {
		t.Fatal(err)
	}
	if len(linked) != 2 {
		t.Fatalf("group bookings = %d, want owner + 1 member", len(linked))
	}
	for _, b := range linked {
		if b.GroupCode != res.GroupCode || b.BookingType != domain.BookingGroup {
			t.Fatalf("linked booking = %+v", b)
		}
	}

	subjects := f.bus.subjects()
	var invites, creates int
	for _, s := range subjects {
		switch s {
		case "group.member.invited":
			invites++
		case "booking.created":
			creates++
		}
	}
	if creates != 2 || invites != 1 {
		t.Fatalf("subjects = %v", subjects)
	}

	var inviteMails int
	for _, m := range f.mail.sent {
		if m.kind == "invite" && m.toEmail == "grace@x.co" {
			inviteMails++
		}
	}
	if inviteMails != 1 {
		t.Fatalf("mail = %+v", f.mail.sent)
	}
}

func TestEnroll_GroupSkipsUnknownAndEnrolledInvitees(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	// grace is already in.
	if _, err := f.svc.Enroll(ctx, 2, soloRequest(10)); err != nil {
		t.Fatal(err)
	}

	req := soloRequest(10)
	req.BookingType = domain.BookingGroup
	req.InvitedUsers = []string{"grace@x.co", "nobody@x.co"}

	res, err := f.svc.Enroll(ctx, 1, req)
	if err != nil {
		t.Fatalf("owner enroll must survive skipped invitees: %v", err)
	}
	linked, _ := f.bookings.ListByGroupCode(ctx, res.GroupCode)
	if len(linked) != 1 {
		t.Fatalf("group bookings = %d, want owner only", len(linked))
	}
}

func TestEnroll_JoinsExistingGroup(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	req := soloRequest(10)
	req.BookingType = domain.BookingGroup
	req.GroupCode = "GRP-EXISTING"
	res, err := f.svc.Enroll(ctx, 1, req)
	if err != nil {
		t.Fatal(err)
	}
	if res.GroupCode != "GRP-EXISTING" {
		t.Fatalf("GroupCode = %q, want the joined code kept", res.GroupCode)
	}
}

func TestEnrollIdempotent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	first, err := f.svc.EnrollIdempotent(ctx, 1, soloRequest(10), "key-1")
	if err != nil {
		t.Fatalf("first: %v", err)
	}

	// A retry with the same key returns the existing booking instead of
	// tripping the duplicate check.
	second, err := f.svc.EnrollIdempotent(ctx, 1, soloRequest(10), "key-1")
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if second.BookingID != first.BookingID || second.TicketCode != first.TicketCode {
		t.Fatalf("retry = %+v, want %+v", second, first)
	}
	if f.bookings.count[10] != 1 {
		t.Fatalf("bookings = %d, want 1", f.bookings.count[10])
	}
}

func TestEnrollIdempotent_EmptyKeyFallsThrough(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	if _, err := f.svc.EnrollIdempotent(ctx, 1, soloRequest(10), ""); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.EnrollIdempotent(ctx, 1, soloRequest(10), ""); !errors.Is(err, domain.ErrAlreadyEnrolled) {
		t.Fatalf("err = %v, want ErrAlreadyEnrolled without a key", err)
	}
}

func TestCancelBooking(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	res, err := f.svc.Enroll(ctx, 1, soloRequest(10))
	if err != nil {
		t.Fatal(err)
	}

	if err := f.svc.CancelBooking(ctx, 2, res.BookingID); !errors.Is(err, domain.ErrNotPermitted) {
		t.Fatalf("err = %v, want ErrNotPermitted for non-owner", err)
	}
	if err := f.svc.CancelBooking(ctx, 1, res.BookingID); err != nil {
		t.Fatalf("CancelBooking: %v", err)
	}
	b, _ := f.bookings.GetByID(ctx, res.BookingID)
	if b.Status != domain.BookingCancelled {
		t.Fatalf("Status = %s, want CANCELLED", b.Status)
	}
	subjects := f.bus.subjects()
	if subjects[len(subjects)-1] != "booking.canceled" {
		t.Fatalf("subjects = %v, want booking.canceled last", subjects)
	}

	if err := f.svc.CancelBooking(ctx, 1, 999); !errors.Is(err, domain.ErrBookingNotFound) {
		t.Fatalf("err = %v, want ErrBookingNotFound", err)
	}
}

func TestGroupRoster(t *testing.T) {
	f := setup(t)
	f.users.users[3] = &domain.User{ID: 3, Email: "outsider@x.co", FullName: "Out Sider"}
	ctx := context.Background()

	req := soloRequest(10)
	req.BookingType = domain.BookingGroup
	req.InvitedUsers = []string{"grace@x.co"}
	res, err := f.svc.Enroll(ctx, 1, req)
	if err != nil {
		t.Fatal(err)
	}

	// Owner and invited member both see the roster.
	for _, uid := range []int64{1, 2} {
		roster, err := f.svc.GroupRoster(ctx, uid, res.GroupCode)
		if err != nil {
			t.Fatalf("user %d: %v", uid, err)
		}
		if len(roster) != 2 {
			t.Fatalf("user %d roster = %d bookings, want 2", uid, len(roster))
		}
	}

	if _, err := f.svc.GroupRoster(ctx, 3, res.GroupCode); !errors.Is(err, domain.ErrNotPermitted) {
		t.Fatalf("err = %v, want ErrNotPermitted for non-member", err)
	}
	if _, err := f.svc.GroupRoster(ctx, 1, "GRP-UNKNOWN"); !errors.Is(err, domain.ErrBookingNotFound) {
		t.Fatalf("err = %v, want ErrBookingNotFound", err)
	}
}

func TestListEventBookings_OrganizerOnly(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	if _, err := f.svc.Enroll(ctx, 1, soloRequest(10)); err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.ListEventBookings(ctx, 1, 10, 20, 0); !errors.Is(err, domain.ErrNotPermitted) {
		t.Fatalf("err = %v, want ErrNotPermitted", err)
	}
	list, err := f.svc.ListEventBookings(ctx, 99, 10, 20, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("bookings = %d, want 1", len(list))
	}
}

func TestBookedSeats(t *testing.T) {
	f := setup(t)
	f.events.events[10].EventFormat = domain.FormatOnsite
	ctx := context.Background()

	seat := 12
	req := soloRequest(10)
	req.SeatNumber = &seat
	if _, err := f.svc.Enroll(ctx, 1, req); err != nil {
		t.Fatal(err)
	}

	seats, err := f.svc.BookedSeats(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(seats) != 1 || seats[0] != 12 {
		t.Fatalf("seats = %v, want [12]", seats)
	}

	if _, err := f.svc.BookedSeats(ctx, 999); !errors.Is(err, domain.ErrEventNotFound) {
		t.Fatalf("err = %v, want ErrEventNotFound", err)
	}
}
