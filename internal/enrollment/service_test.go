package enrollment

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/eventmate/eventmate-server/internal/domain"
	"github.com/eventmate/eventmate-server/internal/payment"
)

// ---------- Mocks ----------

type mockBackend struct {
	nextBookingID int64
	enrolled      []*domain.EnrollRequest
	bookedSeats   map[int64][]int
	enrollErr     error
}

func newMockBackend() *mockBackend {
	return &mockBackend{nextBookingID: 1, bookedSeats: make(map[int64][]int)}
}

func (m *mockBackend) Enroll(_ context.Context, userID int64, req *domain.EnrollRequest) (*domain.BookingResult, error) {
	if m.enrollErr != nil {
		return nil, m.enrollErr
	}
	m.enrolled = append(m.enrolled, req)
	id := m.nextBookingID
	m.nextBookingID++
	res := &domain.BookingResult{
		BookingID:  id,
		TicketCode: fmt.Sprintf("EVT-%d-ABC%03d", req.EventID, id),
	}
	if req.BookingType == domain.BookingGroup {
		res.GroupCode = "GRP-TESTCODE"
	}
	return res, nil
}

func (m *mockBackend) BookedSeats(_ context.Context, eventID int64) ([]int, error) {
	return m.bookedSeats[eventID], nil
}

type mockCatalog struct {
	events map[int64]*domain.Event
	tiers  map[int64][]domain.TicketTier
}

func newMockCatalog() *mockCatalog {
	return &mockCatalog{
		events: make(map[int64]*domain.Event),
		tiers:  make(map[int64][]domain.TicketTier),
	}
}

func (m *mockCatalog) GetEvent(_ context.Context, id int64) (*domain.Event, error) {
	return m.events[id], nil
}

func (m *mockCatalog) ListTiers(_ context.Context, eventID int64) ([]domain.TicketTier, error) {
	return m.tiers[eventID], nil
}

type mockDirectory struct {
	users map[int64]*domain.User
}

func newMockDirectory() *mockDirectory {
	return &mockDirectory{users: make(map[int64]*domain.User)}
}

func (m *mockDirectory) GetProfile(_ context.Context, userID int64) (*domain.User, error) {
	u, ok := m.users[userID]
	if !ok {
		return nil, fmt.Errorf("user not found")
	}
	return u, nil
}

func (m *mockDirectory) SearchUsers(_ context.Context, query string) ([]domain.User, error) {
	var out []domain.User
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

func (m *mockDirectory) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

// ---------- Setup ----------

func setupFlow(t *testing.T) (*Service, *mockBackend, *mockCatalog, *mockDirectory) {
	t.Helper()
	backend := newMockBackend()
	catalog := newMockCatalog()
	directory := newMockDirectory()

	catalog.events[10] = &domain.Event{
		ID:            10,
		Title:         "Go Meetup",
		Status:        domain.EventActive,
		EventFormat:   domain.FormatRemote,
		TicketType:    domain.TicketFree,
		TotalCapacity: 100,
	}
	directory.users[1] = &domain.User{
		ID: 1, Email: "ada@x.co", FullName: "Ada Lovelace", PhoneNumber: "+15551234567",
	}
	directory.users[2] = &domain.User{
		ID: 2, Email: "grace@x.co", FullName: "Grace Hopper",
	}

	svc := NewService(NewMemoryStore(), backend, catalog, directory, payment.NewMockRegistry(), "USD")
	return svc, backend, catalog, directory
}

// ---------- Tests ----------

func TestFlow_StartPrefillsProfile(t *testing.T) {
	svc, _, _, _ := setupFlow(t)
	ctx := context.Background()

	sess, err := svc.Start(ctx, 1, 10, "")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if sess.Step != StepForm {
		t.Fatalf("Step = %s, want FORM", sess.Step)
	}
	if sess.Form.AttendeeName != "Ada Lovelace" || sess.Form.ContactNumber != "+15551234567" {
		t.Fatalf("prefill = %+v", sess.Form)
	}
	if sess.Form.BookingType != domain.BookingSolo {
		t.Fatalf("BookingType = %s, want SOLO default", sess.Form.BookingType)
	}
}

func TestFlow_StartUnknownEvent(t *testing.T) {
	svc, _, _, _ := setupFlow(t)
	if _, err := svc.Start(context.Background(), 1, 999, ""); !errors.Is(err, domain.ErrEventNotFound) {
		t.Fatalf("err = %v, want ErrEventNotFound", err)
	}
}

func TestFlow_StartSnapshotsSeatsForOnsite(t *testing.T) {
	svc, backend, catalog, _ := setupFlow(t)
	catalog.events[10].EventFormat = domain.FormatOnsite
	backend.bookedSeats[10] = []int{3, 4}

	sess, err := svc.Start(context.Background(), 1, 10, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(sess.BookedSeats) != 2 {
		t.Fatalf("BookedSeats = %v, want snapshot of 2", sess.BookedSeats)
	}
}

func TestFlow_OwnershipEnforced(t *testing.T) {
	svc, _, _, _ := setupFlow(t)
	ctx := context.Background()

	sess, err := svc.Start(ctx, 1, 10, "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Get(ctx, 2, sess.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err = %v, other users must not see the session", err)
	}
}

func TestFlow_FreeEventEnrollsOnSubmit(t *testing.T) {
	svc, backend, catalog, _ := setupFlow(t)
	catalog.events[10].EventFormat = domain.FormatOnsite
	ctx := context.Background()

	sess, err := svc.Start(ctx, 1, 10, "")
	if err != nil {
		t.Fatal(err)
	}

	seat := 42
	if _, err := svc.SetSeat(ctx, 1, sess.ID, &seat); err != nil {
		t.Fatalf("SetSeat: %v", err)
	}

	form := sess.Form
	form.AttendeeAge = "30"
	form.Consent = true
	done, err := svc.SubmitForm(ctx, 1, sess.ID, form)
	if err != nil {
		t.Fatalf("SubmitForm: %v", err)
	}
	if done.Step != StepResult || done.Result == nil {
		t.Fatalf("Step = %s Result = %v, want RESULT", done.Step, done.Result)
	}
	if len(backend.enrolled) != 1 {
		t.Fatalf("backend received %d enrolls, want 1", len(backend.enrolled))
	}
	req := backend.enrolled[0]
	if req.SeatNumber == nil || *req.SeatNumber != 42 {
		t.Fatalf("SeatNumber = %v, want 42", req.SeatNumber)
	}
	if req.BookingType != domain.BookingSolo {
		t.Fatalf("BookingType = %s, want SOLO", req.BookingType)
	}
}

func TestFlow_BackendFailureKeepsSession(t *testing.T) {
	svc, backend, _, _ := setupFlow(t)
	backend.enrollErr = domain.ErrAlreadyEnrolled
	ctx := context.Background()

	sess, err := svc.Start(ctx, 1, 10, "")
	if err != nil {
		t.Fatal(err)
	}

	form := sess.Form
	form.AttendeeAge = "30"
	form.Consent = true
	if _, err := svc.SubmitForm(ctx, 1, sess.ID, form); !errors.Is(err, domain.ErrAlreadyEnrolled) {
		t.Fatalf("err = %v, want backend error surfaced", err)
	}

	// The session survives for correction
	kept, err := svc.Get(ctx, 1, sess.ID)
	if err != nil {
		t.Fatalf("session should survive a failed enroll: %v", err)
	}
	if kept.Step != StepForm {
		t.Fatalf("Step = %s, want FORM", kept.Step)
	}
}

func TestFlow_PaidEventThroughPayment(t *testing.T) {
	svc, backend, catalog, _ := setupFlow(t)
	catalog.events[10].TicketType = domain.TicketPaid
	catalog.events[10].TicketPrice = 500
	catalog.events[10].AllowCoupon = true
	catalog.events[10].CouponCode = "SAVE10"
	catalog.events[10].DiscountPercentage = 10
	ctx := context.Background()

	sess, err := svc.Start(ctx, 1, 10, "")
	if err != nil {
		t.Fatal(err)
	}

	form := sess.Form
	form.AttendeeAge = "30"
	form.Consent = true
	billed, err := svc.SubmitForm(ctx, 1, sess.ID, form)
	if err != nil {
		t.Fatal(err)
	}
	if billed.Step != StepBillSummary {
		t.Fatalf("Step = %s, want BILL_SUMMARY", billed.Step)
	}
	if len(backend.enrolled) != 0 {
		t.Fatal("paid submit must not enroll before payment")
	}

	promoted, err := svc.ApplyPromo(ctx, 1, sess.ID, "SAVE10")
	if err != nil {
		t.Fatal(err)
	}
	if promoted.Quote.FinalAmount != 450 {
		t.Fatalf("FinalAmount = %v, want 450", promoted.Quote.FinalAmount)
	}

	if _, err := svc.AcceptBill(ctx, 1, sess.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ChoosePaymentMethod(ctx, 1, sess.ID, payment.MethodUPI); err != nil {
		t.Fatal(err)
	}

	done, err := svc.ConfirmPayment(ctx, 1, sess.ID)
	if err != nil {
		t.Fatalf("ConfirmPayment: %v", err)
	}
	if done.Step != StepResult || done.Result == nil {
		t.Fatalf("Step = %s, want RESULT", done.Step)
	}
	if len(backend.enrolled) != 1 {
		t.Fatalf("backend enrolls = %d, want 1 after payment", len(backend.enrolled))
	}
}

func TestFlow_InvalidPromoKeptAtBillSummary(t *testing.T) {
	svc, _, catalog, _ := setupFlow(t)
	catalog.events[10].TicketType = domain.TicketPaid
	catalog.events[10].TicketPrice = 300
	catalog.events[10].AllowCoupon = true
	catalog.events[10].CouponCode = "SAVE10"
	catalog.events[10].DiscountPercentage = 10
	ctx := context.Background()

	sess, _ := svc.Start(ctx, 1, 10, "")
	form := sess.Form
	form.AttendeeAge = "30"
	form.Consent = true
	if _, err := svc.SubmitForm(ctx, 1, sess.ID, form); err != nil {
		t.Fatal(err)
	}

	got, err := svc.ApplyPromo(ctx, 1, sess.ID, "NOPE")
	if !errors.Is(err, ErrInvalidPromo) {
		t.Fatalf("err = %v, want ErrInvalidPromo", err)
	}
	if got.Step != StepBillSummary || got.Quote.FinalAmount != 300 {
		t.Fatalf("session = step %s final %v, want BILL_SUMMARY at base", got.Step, got.Quote.FinalAmount)
	}
}

func TestFlow_ConfirmOnlyFromPaymentDetails(t *testing.T) {
	svc, _, _, _ := setupFlow(t)
	ctx := context.Background()

	sess, _ := svc.Start(ctx, 1, 10, "")
	if _, err := svc.ConfirmPayment(ctx, 1, sess.ID); !errors.Is(err, ErrWrongStep) {
		t.Fatalf("err = %v, want ErrWrongStep", err)
	}
}

func TestFlow_Members(t *testing.T) {
	svc, backend, _, _ := setupFlow(t)
	ctx := context.Background()

	sess, _ := svc.Start(ctx, 1, 10, "")

	// Short queries return nothing
	users, err := svc.SearchMembers(ctx, 1, sess.ID, "g")
	if err != nil || len(users) != 0 {
		t.Fatalf("short query: users=%v err=%v", users, err)
	}

	users, err = svc.SearchMembers(ctx, 1, sess.ID, "gr")
	if err != nil {
		t.Fatal(err)
	}
	// The owner is filtered out of results
	for _, u := range users {
		if u.ID == 1 {
			t.Fatal("owner must be filtered from search results")
		}
	}

	if _, err := svc.AddMember(ctx, 1, sess.ID, "grace@x.co"); err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	if _, err := svc.AddMember(ctx, 1, sess.ID, "nobody@x.co"); err == nil {
		t.Fatal("unknown email must be rejected")
	}

	form := sess.Form
	form.AttendeeAge = "30"
	form.Consent = true
	form.BookingType = domain.BookingGroup
	done, err := svc.SubmitForm(ctx, 1, sess.ID, form)
	if err != nil {
		t.Fatal(err)
	}
	if done.Result == nil || done.Result.GroupCode == "" {
		t.Fatalf("Result = %+v, want group code", done.Result)
	}
	if got := backend.enrolled[0].InvitedUsers; len(got) != 1 || got[0] != "grace@x.co" {
		t.Fatalf("InvitedUsers = %v", got)
	}
}

func TestFlow_LowercaseBookingTypeEnrolls(t *testing.T) {
	svc, backend, _, _ := setupFlow(t)
	ctx := context.Background()

	sess, _ := svc.Start(ctx, 1, 10, "")
	if _, err := svc.AddMember(ctx, 1, sess.ID, "grace@x.co"); err != nil {
		t.Fatal(err)
	}

	form := sess.Form
	form.AttendeeAge = "30"
	form.Consent = true
	form.BookingType = "group"
	done, err := svc.SubmitForm(ctx, 1, sess.ID, form)
	if err != nil {
		t.Fatalf("SubmitForm: %v", err)
	}
	if done.Step != StepResult {
		t.Fatalf("Step = %s, want RESULT", done.Step)
	}
	if len(backend.enrolled) != 1 {
		t.Fatalf("backend enrolls = %d, want 1", len(backend.enrolled))
	}
	req := backend.enrolled[0]
	if req.BookingType != domain.BookingGroup {
		t.Fatalf("BookingType = %q, want GROUP", req.BookingType)
	}
	if len(req.InvitedUsers) != 1 || req.InvitedUsers[0] != "grace@x.co" {
		t.Fatalf("InvitedUsers = %v, want the invite kept", req.InvitedUsers)
	}
}

func TestFlow_Abandon(t *testing.T) {
	svc, _, _, _ := setupFlow(t)
	ctx := context.Background()

	sess, _ := svc.Start(ctx, 1, 10, "")
	if err := svc.Abandon(ctx, 1, sess.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Get(ctx, 1, sess.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound after abandon", err)
	}
}
