package enrollment

import (
	"errors"
	"testing"

	"github.com/eventmate/eventmate-server/internal/domain"
)

func paidEvent() *domain.Event {
	return &domain.Event{
		ID:                 1,
		Title:              "GopherCon",
		TicketType:         domain.TicketPaid,
		TicketPrice:        500,
		AllowCoupon:        true,
		CouponCode:         "SAVE10",
		DiscountPercentage: 10,
	}
}

func TestBasePrice(t *testing.T) {
	event := paidEvent()
	tiers := []domain.TicketTier{
		{ID: 11, EventID: 1, Name: "General", Price: 300},
		{ID: 12, EventID: 1, Name: "VIP", Price: 900},
	}

	vip := int64(12)
	if got := BasePrice(event, tiers, &vip); got != 900 {
		t.Fatalf("BasePrice(vip) = %v, want 900", got)
	}

	// Unknown tier falls back to the flat ticket price
	unknown := int64(99)
	if got := BasePrice(event, tiers, &unknown); got != 500 {
		t.Fatalf("BasePrice(unknown) = %v, want 500", got)
	}

	if got := BasePrice(event, tiers, nil); got != 500 {
		t.Fatalf("BasePrice(nil) = %v, want 500", got)
	}
}

func TestQuote_ApplyPromo_Match(t *testing.T) {
	event := paidEvent()
	q := NewQuote(500)

	if err := q.ApplyPromo(event, "save10"); err != nil {
		t.Fatalf("ApplyPromo: %v", err)
	}
	if q.Discount != 50 || q.FinalAmount != 450 || !q.DiscountApplied {
		t.Fatalf("quote = %+v, want discount 50 final 450", q)
	}
	if q.PromoCode != "SAVE10" {
		t.Fatalf("PromoCode = %q, want SAVE10", q.PromoCode)
	}
}

func TestQuote_ApplyPromo_MismatchResets(t *testing.T) {
	event := paidEvent()
	q := NewQuote(500)

	// Apply a valid code first, then a bad one: the discount must not stick.
	if err := q.ApplyPromo(event, "SAVE10"); err != nil {
		t.Fatalf("ApplyPromo: %v", err)
	}
	err := q.ApplyPromo(event, "WRONG")
	if !errors.Is(err, ErrInvalidPromo) {
		t.Fatalf("err = %v, want ErrInvalidPromo", err)
	}
	if q.Discount != 0 || q.FinalAmount != 500 || q.DiscountApplied {
		t.Fatalf("quote = %+v, want reset to base", q)
	}
}

func TestQuote_ApplyPromo_CouponNotAllowed(t *testing.T) {
	event := paidEvent()
	event.AllowCoupon = false
	q := NewQuote(500)
	q.Discount = 50
	q.FinalAmount = 450
	q.DiscountApplied = true

	err := q.ApplyPromo(event, "SAVE10")
	if !errors.Is(err, ErrCouponNotAllowed) {
		t.Fatalf("err = %v, want ErrCouponNotAllowed", err)
	}
	// The quote stays untouched when coupons are disabled
	if q.FinalAmount != 450 || !q.DiscountApplied {
		t.Fatalf("quote = %+v, want unchanged", q)
	}
}

func TestQuote_ApplyPromo_EmptyCode(t *testing.T) {
	event := paidEvent()
	q := NewQuote(500)

	if err := q.ApplyPromo(event, "  "); !errors.Is(err, ErrInvalidPromo) {
		t.Fatalf("err = %v, want ErrInvalidPromo for blank code", err)
	}
	if q.FinalAmount != 500 {
		t.Fatalf("FinalAmount = %v, want 500", q.FinalAmount)
	}
}

func TestParseTierID(t *testing.T) {
	if got := parseTierID("12"); got == nil || *got != 12 {
		t.Fatalf("parseTierID(12) = %v", got)
	}
	for _, raw := range []string{"", "  ", "abc", "0", "-3"} {
		if got := parseTierID(raw); got != nil {
			t.Errorf("parseTierID(%q) = %v, want nil", raw, *got)
		}
	}
}
