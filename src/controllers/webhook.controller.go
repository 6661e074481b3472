package controllers

import (
	"context"
	"cowork/src/config"
	"cowork/src/lib"
	"cowork/src/lib/mailer"
	"cowork/src/models"
	"cowork/src/types"
	"cowork/src/utils"
	"encoding/json"
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stripe/stripe-go/v82"
	"gorm.io/gorm"
)

var ExpectedStripeEvents = []string{
	string(stripe.EventTypeCheckoutSessionCompleted),
	string(stripe.EventTypeCheckoutSessionExpired),
	string(stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded),
	string(stripe.EventTypeCheckoutSessionAsyncPaymentFailed),
	string(stripe.EventTypePaymentIntentSucceeded),
	string(stripe.EventTypePaymentIntentPaymentFailed),
}

var ErrInvalidSignature = errors.New("invalid webhook signature")

type WebhookController struct {
	cfg      *config.Config
	bookings BookingStore
	calendar *CalendarBridge
	mail     lib.Mailer
	dedupe   *redis.Client
}

// dedupe may be nil, in which case every delivery is processed.
func NewWebhookController(cfg *config.Config, bookings BookingStore, calendar *CalendarBridge, mail lib.Mailer, dedupe *redis.Client) *WebhookController {
	return &WebhookController{cfg: cfg, bookings: bookings, calendar: calendar, mail: mail, dedupe: dedupe}
}

// Status reports which settings are present, never their values.
func (c *WebhookController) Status() *types.WebhookStatusResponse {
	return &types.WebhookStatusResponse{
		Status:         "ok",
		Environment:    c.cfg.APIEnv,
		WebhookURL:     c.cfg.WebhookURL(),
		Configured:     c.cfg.Presence(),
		ExpectedEvents: ExpectedStripeEvents,
	}
}

// HandleStripeEvent verifies and processes one delivery. A returned AppError
// of an internal kind means Stripe should retry.
func (c *WebhookController) HandleStripeEvent(ctx context.Context, payload []byte, signature string) error {
	event, err := lib.VerifyStripeEvent(payload, signature, c.cfg.StripeWebhookSecret)
	if err != nil {
		log.Printf("Error verifying webhook signature: %s\n", err.Error())
		return ErrInvalidSignature
	}
	log.Printf("[StripeEvent] %s %s\n", event.ID, event.Type)

	if c.dedupe != nil {
		rctx, cancel := context.WithTimeout(ctx, c.cfg.ExternalCallTimeout)
		claimed, err := lib.ClaimStripeEvent(rctx, c.dedupe, event.ID)
		cancel()
		if err != nil {
			log.Printf("[StripeEvent] Dedupe unavailable for %s, processing anyway: %s\n", event.ID, err.Error())
		} else if !claimed {
			log.Printf("[StripeEvent] %s already processed\n", event.ID)
			return nil
		}
	}

	if err := c.dispatch(ctx, event); err != nil {
		if c.dedupe != nil {
			rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.ExternalCallTimeout)
			if rerr := lib.ReleaseStripeEvent(rctx, c.dedupe, event.ID); rerr != nil {
				log.Printf("[StripeEvent] Error releasing %s: %s\n", event.ID, rerr.Error())
			}
			cancel()
		}
		return err
	}
	return nil
}

func (c *WebhookController) dispatch(ctx context.Context, event stripe.Event) error {
	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted,
		stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded,
		stripe.EventTypeCheckoutSessionAsyncPaymentFailed,
		stripe.EventTypeCheckoutSessionExpired:
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
			log.Printf("[Stripe] Error parsing CheckoutSession: %s\n", err.Error())
			return nil
		}
		switch event.Type {
		case stripe.EventTypeCheckoutSessionCompleted:
			return c.sessionCompleted(ctx, &cs)
		case stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
			return c.sessionPaid(ctx, &cs)
		default:
			return c.sessionExpired(ctx, &cs)
		}
	case stripe.EventTypePaymentIntentSucceeded, stripe.EventTypePaymentIntentPaymentFailed:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			log.Printf("[Stripe] Error parsing PaymentIntent: %s\n", err.Error())
			return nil
		}
		log.Printf("[PaymentIntent] %s %s\n", pi.ID, pi.Status)
	default:
		log.Printf("[StripeEvent] Ignoring %s\n", event.Type)
	}
	return nil
}

func bookingIDFromMetadata(md map[string]string) (uuid.UUID, bool) {
	raw, ok := md[types.META_BOOKING_ID]
	if !ok || raw == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func sessionSettled(cs *stripe.CheckoutSession) bool {
	return cs.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid ||
		cs.PaymentStatus == stripe.CheckoutSessionPaymentStatusNoPaymentRequired
}

func (c *WebhookController) sessionCompleted(ctx context.Context, cs *stripe.CheckoutSession) error {
	log.Printf("[CheckoutSession] ID: %s %s %s\n", cs.ID, cs.Status, cs.PaymentStatus)
	bookingID, ok := bookingIDFromMetadata(cs.Metadata)
	if !ok {
		if orderID := cs.Metadata[types.META_ORDER_ID]; orderID != "" {
			if !sessionSettled(cs) {
				log.Printf("[Order] %s awaiting delayed payment on %s\n", orderID, cs.ID)
				return nil
			}
			c.orderCompleted(ctx, cs, orderID)
			return nil
		}
		log.Printf("[CheckoutSession] %s carries neither booking_id nor order_id\n", cs.ID)
		return nil
	}

	if !sessionSettled(cs) {
		dctx, cancel := context.WithTimeout(ctx, c.cfg.ExternalCallTimeout)
		defer cancel()
		if _, err := c.bookings.MarkProcessing(dctx, bookingID, cs.ID); err != nil {
			log.Printf("[CheckoutSession] Error marking booking %s processing: %s\n", bookingID.String(), err.Error())
			return types.DataStoreError(err)
		}
		log.Printf("[CheckoutSession] Booking %s awaiting delayed payment on %s\n", bookingID.String(), cs.ID)
		return nil
	}
	return c.confirmBooking(ctx, bookingID, cs)
}

// sessionPaid handles checkout.session.async_payment_succeeded.
func (c *WebhookController) sessionPaid(ctx context.Context, cs *stripe.CheckoutSession) error {
	bookingID, ok := bookingIDFromMetadata(cs.Metadata)
	if !ok {
		if orderID := cs.Metadata[types.META_ORDER_ID]; orderID != "" {
			c.orderCompleted(ctx, cs, orderID)
		}
		return nil
	}
	return c.confirmBooking(ctx, bookingID, cs)
}

// confirmBooking moves the booking to confirmed/paid once. A paid session
// landing on a booking that is no longer pending means money was taken for a
// released slot.
func (c *WebhookController) confirmBooking(ctx context.Context, bookingID uuid.UUID, cs *stripe.CheckoutSession) error {
	dctx, cancel := context.WithTimeout(ctx, c.cfg.ExternalCallTimeout)
	defer cancel()
	changed, err := c.bookings.ConfirmPaid(dctx, bookingID, cs.ID)
	if err != nil {
		log.Printf("[CheckoutSession] Error confirming booking %s: %s\n", bookingID.String(), err.Error())
		return types.DataStoreError(err)
	}

	booking, err := c.bookings.ByID(dctx, bookingID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("[CheckoutSession] Data integrity error: paid session %s references missing booking %s, needs operator attention\n", cs.ID, bookingID.String())
		return nil
	}
	if err != nil {
		log.Printf("[CheckoutSession] Error reloading booking %s: %s\n", bookingID.String(), err.Error())
		return nil
	}
	if !changed {
		if booking.Status == types.BOOKING_CONFIRMED && booking.PaymentStatus == types.PAYMENT_PAID {
			log.Printf("[CheckoutSession] Booking %s already confirmed\n", bookingID.String())
			return nil
		}
		log.Printf("[CheckoutSession] Data integrity error: paid session %s landed on booking %s in %s/%s, needs refund or manual rebooking\n",
			cs.ID, bookingID.String(), booking.Status, booking.PaymentStatus)
		return nil
	}
	c.afterConfirmation(ctx, booking)
	return nil
}

// afterConfirmation runs the best-effort side effects of a booking that just
// became confirmed. Failures are logged only.
func (c *WebhookController) afterConfirmation(ctx context.Context, booking *models.Booking) {
	result := c.calendar.CreateEvent(ctx, booking)
	switch result.Outcome {
	case types.CALENDAR_CREATED:
		if err := c.bookings.SetCalendarEvent(ctx, booking.ID, result.EventID); err != nil {
			log.Printf("[CheckoutSession] Error saving calendar event on booking %s: %s\n", booking.ID.String(), err.Error())
		}
	default:
		log.Printf("[CheckoutSession] Calendar %s for booking %s: %s\n", result.Outcome, booking.ID.String(), result.Reason)
	}

	mctx, cancel := context.WithTimeout(ctx, c.cfg.ExternalCallTimeout)
	defer cancel()
	if err := c.mail.Send(mctx, mailer.BookingConfirmation(c.cfg, booking)); err != nil {
		log.Printf("[CheckoutSession] Error sending confirmation for booking %s: %s\n", booking.ID.String(), err.Error())
	}
}

func (c *WebhookController) orderCompleted(ctx context.Context, cs *stripe.CheckoutSession, orderID string) {
	items, err := utils.DecodeCart(cs.Metadata)
	if err != nil && c.dedupe != nil {
		items, err = c.cachedCart(ctx, orderID)
	}
	if err != nil {
		log.Printf("[Order] Could not rebuild cart for %s: %s\n", orderID, err.Error())
		return
	}
	log.Printf("[Order] %s paid by %s: %d line items\n", orderID, cs.Metadata[types.META_CUSTOMER_EMAIL], len(items))

	email := cs.Metadata[types.META_CUSTOMER_EMAIL]
	if email == "" && cs.CustomerDetails != nil {
		email = cs.CustomerDetails.Email
	}
	if email == "" {
		return
	}
	mctx, cancel := context.WithTimeout(ctx, c.cfg.ExternalCallTimeout)
	defer cancel()
	input := mailer.OrderReceipt(c.cfg, orderID, cs.Metadata[types.META_CUSTOMER_NAME], email, items)
	if err := c.mail.Send(mctx, input); err != nil {
		log.Printf("[Order] Error sending receipt for %s: %s\n", orderID, err.Error())
	}
}

// cachedCart reads the snapshot taken when the session was created.
func (c *WebhookController) cachedCart(ctx context.Context, orderID string) ([]types.CartItem, error) {
	rctx, cancel := context.WithTimeout(ctx, c.cfg.ExternalCallTimeout)
	defer cancel()
	raw, err := lib.GetOrderCart(rctx, c.dedupe, orderID)
	if err != nil {
		return nil, err
	}
	return utils.DecodeCart(map[string]string{types.META_CART_ITEMS: raw})
}

// sessionExpired also handles checkout.session.async_payment_failed. Either
// way the slot goes back.
func (c *WebhookController) sessionExpired(ctx context.Context, cs *stripe.CheckoutSession) error {
	bookingID, ok := bookingIDFromMetadata(cs.Metadata)
	if !ok {
		log.Printf("[CheckoutSession] %s expired or failed\n", cs.ID)
		return nil
	}
	dctx, cancel := context.WithTimeout(ctx, c.cfg.ExternalCallTimeout)
	defer cancel()
	changed, err := c.bookings.CancelPending(dctx, bookingID)
	if err != nil {
		log.Printf("[CheckoutSession] Error cancelling booking %s: %s\n", bookingID.String(), err.Error())
		return types.DataStoreError(err)
	}
	if changed {
		log.Printf("[CheckoutSession] Booking %s cancelled, session %s not paid\n", bookingID.String(), cs.ID)
	}
	return nil
}
