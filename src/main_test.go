package main

import (
	"context"
	"cowork/src/config"
	"cowork/src/lib"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
	"github.com/tidwall/gjson"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type stubPayments struct {
	session *stripe.CheckoutSession
	err     error
	created []*stripe.CheckoutSessionCreateParams
}

func (p *stubPayments) CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionCreateParams) (*stripe.CheckoutSession, error) {
	p.created = append(p.created, params)
	return p.session, p.err
}

func (p *stubPayments) GetCheckoutSession(ctx context.Context, id string) (*stripe.CheckoutSession, error) {
	return p.session, p.err
}

type TestSuite struct {
	suite.Suite
	DB       *gorm.DB
	Mock     sqlmock.Sqlmock
	Cfg      *config.Config
	Payments *stubPayments
}

func NewMockDB() (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening a stub database connection", err)
	}

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening gorm database", err)
	}

	return gormDB, mock
}

func (s *TestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
}

func (s *TestSuite) SetupTest() {
	s.DB, s.Mock = NewMockDB()
	s.Payments = &stubPayments{}
	s.Cfg = &config.Config{
		APIEnv:              "local",
		BaseURL:             "https://cowork.example.com",
		StripeSecretKey:     "sk_test_123",
		StripeWebhookSecret: "whsec_test",
		Currency:            "usd",
		DatabaseHost:        "db",
		RateLimit:           "1000-M",
		ExternalCallTimeout: time.Second,
		PendingBookingTTL:   time.Hour,
	}
}

func (s *TestSuite) router() *gin.Engine {
	return setupRouter(newApp(s.Cfg, s.DB, s.Payments, nil, lib.LogMailer{}, nil))
}

func (s *TestSuite) do(r *gin.Engine, method string, target string, body string, header map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	r.ServeHTTP(w, req)
	return w
}

func (s *TestSuite) TestPingRoute() {
	w := s.do(s.router(), http.MethodGet, "/", "", nil)

	s.Equal(http.StatusOK, w.Code)
	s.Equal(`"ok"`, w.Body.String())
	s.Equal("nosniff", w.Header().Get("X-Content-Type-Options"))
}

func (s *TestSuite) TestMaintenanceMode() {
	s.Cfg.MaintenanceMode = true

	w := s.do(s.router(), http.MethodGet, "/api/webhook-status", "", nil)
	s.Equal(http.StatusServiceUnavailable, w.Code)
}

func (s *TestSuite) TestWebhookStatus() {
	w := s.do(s.router(), http.MethodGet, "/api/webhook-status", "", nil)
	sjson := w.Body.String()

	s.Equal(http.StatusOK, w.Code)
	s.Equal("ok", gjson.Get(sjson, "status").String())
	s.Equal("https://cowork.example.com/api/webhook/stripe", gjson.Get(sjson, "webhook_url").String())
	s.True(gjson.Get(sjson, "configured.STRIPE_SECRET_KEY").Bool())
	s.False(gjson.Get(sjson, "configured.DATABASE_PASSWORD").Bool())
	s.Len(gjson.Get(sjson, "expected_events").Array(), 6)
	s.NotContains(sjson, "sk_test_123")
}

func (s *TestSuite) TestCheckoutSession() {
	s.Payments.session = &stripe.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.stripe.com/c/pay/cs_test_1"}
	body := `{"cart_items":[{"name":"Chips","price":2.5,"quantity":2}],"customer_name":"Grace","customer_email":"grace@example.com","office_number":"4B","total_amount":5}`

	w := s.do(s.router(), http.MethodPost, "/api/checkout-session", body, nil)
	sjson := w.Body.String()

	s.Equal(http.StatusOK, w.Code)
	s.Equal("cs_test_1", gjson.Get(sjson, "sessionId").String())
	s.Regexp(`^ORD-\d{8}-[0-9a-f]{6}$`, gjson.Get(sjson, "tempOrderId").String())
	s.Require().Len(s.Payments.created, 1)
	s.Equal(int64(250), *s.Payments.created[0].LineItems[0].PriceData.UnitAmount)
}

func (s *TestSuite) TestCheckoutSessionValidation() {
	r := s.router()
	for _, body := range []string{
		`{"cart_items":[],"customer_name":"Grace","customer_email":"grace@example.com","office_number":"4B"}`,
		`{"cart_items":[{"name":"Chips","price":2.5,"quantity":2}],"customer_email":"grace@example.com","office_number":"4B"}`,
		`not json`,
	} {
		w := s.do(r, http.MethodPost, "/api/checkout-session", body, nil)
		s.Equal(http.StatusBadRequest, w.Code, body)
		s.NotEmpty(gjson.Get(w.Body.String(), "error").String())
	}
	s.Empty(s.Payments.created)
}

func (s *TestSuite) TestCheckoutProviderFailureIsGeneric() {
	s.Payments.err = &stripe.Error{HTTPStatusCode: http.StatusUnauthorized, Msg: "Invalid API Key provided: sk_test_***"}
	body := `{"cart_items":[{"name":"Chips","price":2.5,"quantity":2}],"customer_name":"Grace","customer_email":"grace@example.com","office_number":"4B","total_amount":5}`

	w := s.do(s.router(), http.MethodPost, "/api/checkout-session", body, nil)

	s.Equal(http.StatusInternalServerError, w.Code)
	s.Equal("Internal server error", gjson.Get(w.Body.String(), "error").String())
	s.NotContains(w.Body.String(), "API Key")
}

func (s *TestSuite) TestBookingSuccessMissingSession() {
	w := s.do(s.router(), http.MethodGet, "/api/booking-success", "", nil)

	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("missing_session_id", gjson.Get(w.Body.String(), "code").String())
}

func (s *TestSuite) TestBookingSuccessWithoutBookingID() {
	s.Payments.session = &stripe.CheckoutSession{ID: "cs_shop", Metadata: map[string]string{"order_id": "ORD-1"}}

	w := s.do(s.router(), http.MethodGet, "/api/booking-success?session_id=cs_shop", "", nil)

	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("session_not_found", gjson.Get(w.Body.String(), "code").String())
}

func (s *TestSuite) TestMemberHoursMissingEmail() {
	w := s.do(s.router(), http.MethodPost, "/api/member-hours", `{}`, nil)

	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("missing_email", gjson.Get(w.Body.String(), "code").String())
}

func (s *TestSuite) TestMemberHoursUnknownMember() {
	s.Mock.ExpectQuery(`SELECT \* FROM "members"`).WillReturnRows(sqlmock.NewRows([]string{"id", "email"}))

	w := s.do(s.router(), http.MethodPost, "/api/member-hours", `{"email":"nobody@example.com"}`, nil)

	s.Equal(http.StatusNotFound, w.Code)
	s.NoError(s.Mock.ExpectationsWereMet())
}

func (s *TestSuite) TestRooms() {
	s.Mock.ExpectQuery(`SELECT \* FROM "rooms"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "slug", "capacity", "hourly_rate", "active"}).
			AddRow(1, "Boardroom", "boardroom", 10, 40.0, true).
			AddRow(2, "Focus Pod", "focus-pod", 2, 15.0, true))

	w := s.do(s.router(), http.MethodGet, "/api/rooms", "", nil)
	sjson := w.Body.String()

	s.Equal(http.StatusOK, w.Code)
	s.Equal(int64(2), gjson.Get(sjson, "count").Int())
	s.Equal("focus-pod", gjson.Get(sjson, "data.1.slug").String())
}

func (s *TestSuite) TestRoomBookingValidation() {
	r := s.router()
	cases := map[string]string{
		"end before start": `{"room_id":1,"customer_name":"Ada","customer_email":"ada@example.com","booking_date":"2099-01-01","start_time":"11:00","end_time":"10:00","attendees":2}`,
		"past date":        `{"room_id":1,"customer_name":"Ada","customer_email":"ada@example.com","booking_date":"2001-01-01","start_time":"09:00","end_time":"10:00","attendees":2}`,
		"bad clock":        `{"room_id":1,"customer_name":"Ada","customer_email":"ada@example.com","booking_date":"2099-01-01","start_time":"9am","end_time":"10:00","attendees":2}`,
		"no attendees":     `{"room_id":1,"customer_name":"Ada","customer_email":"ada@example.com","booking_date":"2099-01-01","start_time":"09:00","end_time":"10:00"}`,
	}
	for name, body := range cases {
		w := s.do(r, http.MethodPost, "/api/room-booking-session", body, nil)
		s.Equal(http.StatusBadRequest, w.Code, name)
	}
	s.NoError(s.Mock.ExpectationsWereMet())
}

func (s *TestSuite) TestDebugCalendar() {
	r := s.router()

	w := s.do(r, http.MethodGet, "/api/debug-calendar?action=config", "", nil)
	s.Equal(http.StatusOK, w.Code)
	s.False(gjson.Get(w.Body.String(), "config.configured").Bool())

	w = s.do(r, http.MethodGet, "/api/debug-calendar?action=test", "", nil)
	s.Equal(http.StatusOK, w.Code)
	s.False(gjson.Get(w.Body.String(), "success").Bool())
	s.Equal("skipped", gjson.Get(w.Body.String(), "result.outcome").String())

	w = s.do(r, http.MethodGet, "/api/debug-calendar?action=drop", "", nil)
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(r, http.MethodGet, "/api/debug-calendar", "", nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *TestSuite) TestDebugRoutesGuarded() {
	s.Cfg.DebugSecret = "s3cret"
	r := s.router()

	w := s.do(r, http.MethodGet, "/api/debug-calendar?action=config", "", nil)
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.do(r, http.MethodGet, "/api/debug-calendar?action=config", "", map[string]string{"x-debug-secret": "s3cret"})
	s.Equal(http.StatusOK, w.Code)

	s.Cfg.APIEnv = "production"
	w = s.do(s.router(), http.MethodPost, "/api/test-manual-booking", `{}`, map[string]string{"x-debug-secret": "s3cret"})
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *TestSuite) TestManualBooking() {
	body := `{"customer_name":"Ada","room_name":"Focus Pod","booking_date":"2026-05-05","start_time":"09:00","end_time":"10:00"}`

	w := s.do(s.router(), http.MethodPost, "/api/test-manual-booking", body, nil)

	s.Equal(http.StatusOK, w.Code)
	s.Equal("skipped", gjson.Get(w.Body.String(), "result.outcome").String())
}

func (s *TestSuite) TestStripeWebhook() {
	r := s.router()

	w := s.do(r, http.MethodPost, "/api/webhook/stripe", `{"id":"evt_1"}`, map[string]string{"Stripe-Signature": "t=1,v1=bad"})
	s.Equal(http.StatusBadRequest, w.Code)

	payload, err := json.Marshal(map[string]any{
		"id":          "evt_pi",
		"object":      "event",
		"api_version": "2025-05-28.basil",
		"type":        "payment_intent.succeeded",
		"data":        map[string]any{"object": map[string]any{"id": "pi_1", "status": "succeeded"}},
	})
	s.Require().NoError(err)
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    s.Cfg.StripeWebhookSecret,
		Timestamp: time.Now(),
	})

	w = s.do(r, http.MethodPost, "/api/webhook/stripe", string(signed.Payload), map[string]string{"Stripe-Signature": signed.Header})
	s.Equal(http.StatusOK, w.Code)
	s.True(gjson.Get(w.Body.String(), "received").Bool())
}

func TestRunner(t *testing.T) {
	suite.Run(t, new(TestSuite))
}
