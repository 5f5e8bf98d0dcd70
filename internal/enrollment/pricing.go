package enrollment

import (
	"errors"
	"strconv"
	"strings"

	"github.com/eventmate/eventmate-server/internal/domain"
)

var (
	ErrCouponNotAllowed = errors.New("promo codes are not applicable for this event")
	ErrInvalidPromo     = errors.New("invalid promo code")
)

// Quote is the billed state of a paid enrollment: the tier (or flat) base
// price and any promo discount applied against it.
type Quote struct {
	BasePrice       float64 `json:"base_price"`
	Discount        float64 `json:"discount"`
	FinalAmount     float64 `json:"final_amount"`
	DiscountApplied bool    `json:"discount_applied"`
	PromoCode       string  `json:"promo_code,omitempty"`
}

// BasePrice resolves the price for the selected tier, falling back to the
// event's flat ticket price when the tier is absent or unknown.
func BasePrice(event *domain.Event, tiers []domain.TicketTier, tierID *int64) float64 {
	if tierID != nil {
		for _, t := range tiers {
			if t.ID == *tierID {
				return t.Price
			}
		}
	}
	return event.TicketPrice
}

// NewQuote starts a quote at the base price with no discount.
func NewQuote(basePrice float64) Quote {
	return Quote{BasePrice: basePrice, FinalAmount: basePrice}
}

// ApplyPromo compares the typed code case-insensitively against the event's
// configured coupon. A match applies discount = base × pct/100; anything
// else resets the quote to the base price. Events that disallow coupons
// reject the attempt without touching the quote.
func (q *Quote) ApplyPromo(event *domain.Event, code string) error {
	if !event.AllowCoupon {
		return ErrCouponNotAllowed
	}
	typed := strings.ToUpper(strings.TrimSpace(code))
	valid := strings.ToUpper(event.CouponCode)
	if typed != "" && valid != "" && typed == valid {
		q.Discount = q.BasePrice * (event.DiscountPercentage / 100)
		q.FinalAmount = q.BasePrice - q.Discount
		q.DiscountApplied = true
		q.PromoCode = typed
		return nil
	}
	q.Discount = 0
	q.FinalAmount = q.BasePrice
	q.DiscountApplied = false
	q.PromoCode = ""
	return ErrInvalidPromo
}

// parseTierID mirrors the form's raw radio value: empty or junk input means
// no tier selected.
func parseTierID(raw string) *int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil
	}
	return &id
}
