package controllers

import (
	"context"
	"cowork/src/config"
	"cowork/src/lib"
	"cowork/src/types"
	"cowork/src/utils"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/redis/go-redis/v9"
	"github.com/stripe/stripe-go/v82"
)

type CheckoutController struct {
	cfg      *config.Config
	payments lib.PaymentProvider
	cache    *redis.Client
	now      func() time.Time
}

// cache may be nil.
func NewCheckoutController(cfg *config.Config, payments lib.PaymentProvider, cache *redis.Client) *CheckoutController {
	return &CheckoutController{cfg: cfg, payments: payments, cache: cache, now: time.Now}
}

func validateCheckout(body *types.CreateCheckoutSessionRequestBody) error {
	if len(body.CartItems) == 0 {
		return types.ValidationError("cart_items must contain at least one item")
	}
	if strings.TrimSpace(body.CustomerName) == "" ||
		strings.TrimSpace(body.CustomerEmail) == "" ||
		strings.TrimSpace(body.OfficeNumber) == "" {
		return types.ValidationError("customer_name, customer_email and office_number are required")
	}
	for name, value := range map[string]string{
		"customer_name":  body.CustomerName,
		"customer_email": body.CustomerEmail,
		"office_number":  body.OfficeNumber,
		"notes":          body.Notes,
	} {
		if utf8.RuneCountInString(value) > utils.StripeMetadataValueLimit {
			return types.ValidationError(fmt.Sprintf("%s must be at most %d characters", name, utils.StripeMetadataValueLimit))
		}
	}
	for _, item := range body.CartItems {
		if strings.TrimSpace(item.Name) == "" || item.Price <= 0 || item.Quantity < 1 {
			return types.ValidationError("every cart item needs a name, a positive price and a quantity of at least 1")
		}
	}
	return nil
}

func (c *CheckoutController) lineItems(items []types.CartItem) []*stripe.CheckoutSessionCreateLineItemParams {
	lineItems := make([]*stripe.CheckoutSessionCreateLineItemParams, 0, len(items))
	for _, item := range items {
		lineItems = append(lineItems, &stripe.CheckoutSessionCreateLineItemParams{
			PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
				Currency: stripe.String(c.cfg.Currency),
				ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
				UnitAmount: stripe.Int64(utils.ToMinorUnits(item.Price)),
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}
	return lineItems
}

// CreateCheckoutSession opens a hosted Stripe Checkout for a snack-shop cart.
// The cart travels in session metadata so the webhook can rebuild it.
func (c *CheckoutController) CreateCheckoutSession(ctx context.Context, body *types.CreateCheckoutSessionRequestBody) (*types.CheckoutSessionResponse, error) {
	if err := validateCheckout(body); err != nil {
		return nil, err
	}
	orderID := utils.NewOrderID(c.now())
	cart, err := utils.EncodeCart(body.CartItems)
	if err != nil {
		return nil, types.ValidationError("cart_items could not be serialized")
	}
	md := map[string]string{
		types.META_ORDER_ID:       orderID,
		types.META_CUSTOMER_NAME:  body.CustomerName,
		types.META_CUSTOMER_EMAIL: body.CustomerEmail,
		types.META_OFFICE_NUMBER:  body.OfficeNumber,
		types.META_NOTES:          body.Notes,
		types.META_TOTAL_AMOUNT:   strconv.FormatFloat(body.TotalAmount, 'f', 2, 64),
	}
	if err := utils.ChunkMetadata(md, types.META_CART_ITEMS, cart); err != nil {
		return nil, types.ValidationError("cart_items has too many items for one checkout")
	}

	params := &stripe.CheckoutSessionCreateParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		UIMode:        stripe.String("hosted"),
		LineItems:     c.lineItems(body.CartItems),
		CustomerEmail: stripe.String(body.CustomerEmail),
		SuccessURL:    stripe.String(c.cfg.BaseURL + "/order/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:     stripe.String(c.cfg.BaseURL + "/shop"),
		Metadata:      md,
	}

	cctx, cancel := context.WithTimeout(ctx, c.cfg.ExternalCallTimeout)
	defer cancel()
	cs, err := c.payments.CreateCheckoutSession(cctx, params)
	if err != nil {
		log.Printf("[Checkout] Error creating CheckoutSession for %s: %s\n", orderID, err.Error())
		return nil, types.PaymentProviderError(err)
	}

	if c.cache != nil {
		rctx, rcancel := context.WithTimeout(ctx, c.cfg.ExternalCallTimeout)
		defer rcancel()
		if err := lib.CacheOrderCart(rctx, c.cache, orderID, cart); err != nil {
			log.Printf("[Checkout] Failed to cache cart for %s: %s\n", orderID, err.Error())
		}
	}
	log.Printf("[Checkout] Created CheckoutSession %s for order %s\n", cs.ID, orderID)

	return &types.CheckoutSessionResponse{
		SessionID:   cs.ID,
		URL:         cs.URL,
		TempOrderID: orderID,
	}, nil
}
