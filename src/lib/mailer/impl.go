package mailer

import (
	"cowork/src/config"
	"cowork/src/lib"
	"cowork/src/models"
	"cowork/src/types"
	"fmt"
	"strings"
)

func BookingConfirmation(cfg *config.Config, b *models.Booking) *lib.SendMailInput {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Hi %s,\n\n", b.CustomerName)
	fmt.Fprintf(&sb, "Your booking for %s is confirmed.\n\n", b.RoomName())
	fmt.Fprintf(&sb, "Date: %s\n", b.BookingDate.Format(config.DATE_FORMAT))
	fmt.Fprintf(&sb, "Time: %s - %s\n", b.StartTime, b.EndTime)
	fmt.Fprintf(&sb, "Attendees: %d\n", b.Attendees)
	if !b.IsMemberBooking {
		fmt.Fprintf(&sb, "Amount paid: %.2f %s\n", b.TotalAmount, strings.ToUpper(cfg.Currency))
	}
	fmt.Fprintf(&sb, "Booking reference: %s\n", b.ID.String())

	return &lib.SendMailInput{
		From:     cfg.SMTPFrom,
		FromName: "Bookings",
		To:       []string{b.CustomerEmail},
		Subject:  fmt.Sprintf("Booking confirmed: %s on %s", b.RoomName(), b.BookingDate.Format(config.DATE_FORMAT)),
		Body:     sb.String(),
	}
}

func OrderReceipt(cfg *config.Config, orderID string, name string, email string, items []types.CartItem) *lib.SendMailInput {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Hi %s,\n\nThanks for your order %s.\n\n", name, orderID)
	var total float64
	for _, item := range items {
		line := item.Price * float64(item.Quantity)
		total += line
		fmt.Fprintf(&sb, "%d x %s  %.2f\n", item.Quantity, item.Name, line)
	}
	fmt.Fprintf(&sb, "\nTotal: %.2f %s\n", total, strings.ToUpper(cfg.Currency))

	return &lib.SendMailInput{
		From:     cfg.SMTPFrom,
		FromName: "Snack Shop",
		To:       []string{email},
		Subject:  fmt.Sprintf("Receipt for order %s", orderID),
		Body:     sb.String(),
	}
}
