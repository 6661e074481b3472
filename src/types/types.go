package types

import (
	"time"

	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type BookingStatus string

const (
	BOOKING_PENDING   BookingStatus = "pending"
	BOOKING_CONFIRMED BookingStatus = "confirmed"
	BOOKING_CANCELLED BookingStatus = "cancelled"
)

type PaymentStatus string

const (
	PAYMENT_UNPAID     PaymentStatus = "unpaid"
	PAYMENT_PROCESSING PaymentStatus = "processing"
	PAYMENT_PAID       PaymentStatus = "paid"
	PAYMENT_REFUNDED   PaymentStatus = "refunded"
)

type MemberStatus string

const (
	MEMBER_ACTIVE   MemberStatus = "active"
	MEMBER_INACTIVE MemberStatus = "inactive"
)

// Stripe metadata keys shared by the checkout initiators and the webhook processor.
const (
	META_ORDER_ID       = "order_id"
	META_BOOKING_ID     = "booking_id"
	META_CUSTOMER_NAME  = "customer_name"
	META_CUSTOMER_EMAIL = "customer_email"
	META_OFFICE_NUMBER  = "office_number"
	META_NOTES          = "notes"
	META_TOTAL_AMOUNT   = "total_amount"
	META_CART_ITEMS     = "cart_items"
)

const DEFAULT_ROOM_NAME = "Meeting Room"

type CartItem struct {
	Name     string  `json:"name" binding:"required"`
	Price    float64 `json:"price" binding:"gt=0"`
	Quantity int64   `json:"quantity" binding:"required,min=1"`
}

type CreateCheckoutSessionRequestBody struct {
	CartItems     []CartItem `json:"cart_items" binding:"required,min=1,dive"`
	CustomerName  string     `json:"customer_name" binding:"required,max=500"`
	CustomerEmail string     `json:"customer_email" binding:"required,email,max=500"`
	OfficeNumber  string     `json:"office_number" binding:"required,max=500"`
	Notes         string     `json:"notes,omitempty" binding:"max=500"`
	TotalAmount   float64    `json:"total_amount"`
}

type CheckoutSessionResponse struct {
	SessionID   string `json:"sessionId"`
	URL         string `json:"url"`
	TempOrderID string `json:"tempOrderId"`
}

type CreateRoomBookingRequestBody struct {
	RoomID          uint   `json:"room_id" binding:"required"`
	CustomerName    string `json:"customer_name" binding:"required,max=500"`
	CustomerEmail   string `json:"customer_email" binding:"required,email,max=500"`
	CustomerPhone   string `json:"customer_phone,omitempty"`
	BookingDate     string `json:"booking_date" binding:"required,bookingdate"`
	StartTime       string `json:"start_time" binding:"required,clocktime"`
	EndTime         string `json:"end_time" binding:"required,clocktime,aftertime=StartTime"`
	Attendees       int    `json:"attendees" binding:"required,min=1"`
	Purpose         string `json:"purpose,omitempty"`
	IsMemberBooking bool   `json:"is_member_booking"`
}

type RoomBookingResponse struct {
	BookingID string `json:"bookingId"`
	SessionID string `json:"sessionId,omitempty"`
	URL       string `json:"url,omitempty"`
	Confirmed bool   `json:"confirmed"`
}

type MemberHoursRequestBody struct {
	Email string `json:"email" binding:"required"`
}

// ManualBookingRequestBody is the booking-shaped input of the calendar diagnostics.
// Nothing is persisted.
type ManualBookingRequestBody struct {
	CustomerName  string `json:"customer_name" binding:"required"`
	CustomerEmail string `json:"customer_email" binding:"omitempty,email"`
	CustomerPhone string `json:"customer_phone,omitempty"`
	RoomName      string `json:"room_name,omitempty"`
	BookingDate   string `json:"booking_date" binding:"required,datestring"`
	StartTime     string `json:"start_time" binding:"required,clocktime"`
	EndTime       string `json:"end_time" binding:"required,clocktime,aftertime=StartTime"`
	Attendees     int    `json:"attendees,omitempty"`
	Purpose       string `json:"purpose,omitempty"`
}

type DebugCalendarQuery struct {
	Action string `form:"action" binding:"required"`
}

type BookingSuccessQuery struct {
	SessionID string `form:"session_id"`
}

type APIResponseBooking struct {
	ID              string  `json:"id"`
	CustomerName    string  `json:"customer_name"`
	CustomerEmail   string  `json:"customer_email"`
	CustomerPhone   string  `json:"customer_phone"`
	BookingDate     string  `json:"booking_date"`
	StartTime       string  `json:"start_time"`
	EndTime         string  `json:"end_time"`
	DurationHours   float64 `json:"duration_hours"`
	TotalAmount     float64 `json:"total_amount"`
	Attendees       int     `json:"attendees"`
	Purpose         string  `json:"purpose"`
	RoomName        string  `json:"room_name"`
	IsMemberBooking bool    `json:"is_member_booking"`
	Status          string  `json:"status"`
	PaymentStatus   string  `json:"payment_status"`
}

type APIResponseMemberHours struct {
	TotalHours     float64 `json:"total_hours"`
	UsedHours      float64 `json:"used_hours"`
	RemainingHours float64 `json:"remaining_hours"`
	MembershipType string  `json:"membership_type"`
}

type APIResponseMember struct {
	ID             uint   `json:"id"`
	Email          string `json:"email"`
	MembershipType string `json:"membership_type"`
	Status         string `json:"status"`
}

type MemberHoursResponse struct {
	MemberHours APIResponseMemberHours `json:"memberHours"`
	Member      APIResponseMember      `json:"member"`
}

type APIResponseRoom struct {
	ID         uint    `json:"id"`
	Slug       string  `json:"slug"`
	Name       string  `json:"name"`
	Capacity   int     `json:"capacity"`
	HourlyRate float64 `json:"hourly_rate"`
}

type WebhookStatusResponse struct {
	Status         string          `json:"status"`
	Environment    string          `json:"environment"`
	WebhookURL     string          `json:"webhook_url"`
	Configured     map[string]bool `json:"configured"`
	ExpectedEvents []string        `json:"expected_events"`
}
