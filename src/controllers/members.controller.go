package controllers

import (
	"context"
	"cowork/src/config"
	"cowork/src/models"
	"cowork/src/types"
	"cowork/src/utils"
	"fmt"
	"log"
	"time"
)

type MemberHoursController struct {
	cfg      *config.Config
	members  MemberStore
	bookings BookingStore
	now      func() time.Time
}

func NewMemberHoursController(cfg *config.Config, members MemberStore, bookings BookingStore) *MemberHoursController {
	return &MemberHoursController{cfg: cfg, members: members, bookings: bookings, now: time.Now}
}

// ActiveMember returns the single active member for email. Inactive members
// are indistinguishable from unknown ones.
func (c *MemberHoursController) ActiveMember(ctx context.Context, email string) (*models.Member, error) {
	email = models.NormalizeEmail(email)
	if email == "" {
		return nil, types.MissingParameter("email")
	}
	dctx, cancel := context.WithTimeout(ctx, c.cfg.ExternalCallTimeout)
	defer cancel()
	members, err := c.members.ActiveByEmail(dctx, email)
	if err != nil {
		log.Printf("[MemberHours] Error retrieving member %s: %s\n", email, err.Error())
		return nil, types.DataStoreError(err)
	}
	switch len(members) {
	case 0:
		return nil, types.NotFound("member_not_found", "No active membership found for this email")
	case 1:
		return &members[0], nil
	}
	appErr := types.DataIntegrityError(fmt.Sprintf("more than one active member for %s", email))
	log.Printf("[MemberHours] %s\n", appErr.Error())
	return nil, appErr
}

// UsedHours sums this month's member bookings that are not cancelled.
func (c *MemberHoursController) UsedHours(ctx context.Context, email string) (float64, error) {
	start, end := utils.MonthWindow(c.now(), c.cfg.Location())
	dctx, cancel := context.WithTimeout(ctx, c.cfg.ExternalCallTimeout)
	defer cancel()
	bookings, err := c.bookings.MemberBookingsInWindow(dctx, models.NormalizeEmail(email), start, end)
	if err != nil {
		log.Printf("[MemberHours] Error retrieving bookings for %s: %s\n", email, err.Error())
		return 0, types.DataStoreError(err)
	}
	var used float64
	for _, b := range bookings {
		if b.CountsTowardAllowance() && utils.InWindow(b.BookingDate, start, end) {
			used += b.DurationHours
		}
	}
	return used, nil
}

func (c *MemberHoursController) MemberHours(ctx context.Context, email string) (*types.MemberHoursResponse, error) {
	member, err := c.ActiveMember(ctx, email)
	if err != nil {
		return nil, err
	}
	used, err := c.UsedHours(ctx, member.Email)
	if err != nil {
		return nil, err
	}
	return &types.MemberHoursResponse{
		MemberHours: types.APIResponseMemberHours{
			TotalHours:     member.MonthlyMeetingHours,
			UsedHours:      used,
			RemainingHours: utils.RemainingHours(member.MonthlyMeetingHours, used),
			MembershipType: member.MembershipType,
		},
		Member: member.Identity(),
	}, nil
}
