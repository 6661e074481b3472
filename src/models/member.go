package models

import (
	"cowork/src/types"
	"strings"

	"gorm.io/gorm"
)

type Member struct {
	ID                  uint               `gorm:"primarykey" json:"id"`
	Email               string             `gorm:"index" json:"email"`
	Name                string             `json:"name,omitempty"`
	MembershipType      string             `json:"membership_type"`
	MonthlyMeetingHours float64            `json:"monthly_meeting_hours"`
	Status              types.MemberStatus `gorm:"default:'active'" json:"status"`

	types.Timestamps
}

func (m *Member) BeforeSave(tx *gorm.DB) error {
	m.Email = NormalizeEmail(m.Email)
	return nil
}

func (m *Member) Identity() types.APIResponseMember {
	return types.APIResponseMember{
		ID:             m.ID,
		Email:          m.Email,
		MembershipType: m.MembershipType,
		Status:         string(m.Status),
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
