package db

import (
	"context"
	"cowork/src/models"
	"cowork/src/types"

	"gorm.io/gorm"
)

type MemberRepo struct {
	db *gorm.DB
}

func NewMemberRepo(db *gorm.DB) *MemberRepo {
	return &MemberRepo{db: db}
}

// ActiveByEmail fetches at most two rows: enough for the caller to tell
// "exactly one" from "duplicated".
func (r *MemberRepo) ActiveByEmail(ctx context.Context, email string) ([]models.Member, error) {
	var members []models.Member
	err := r.db.WithContext(ctx).
		Model(&models.Member{}).
		Where("LOWER(email) = ?", email).
		Where("status = ?", types.MEMBER_ACTIVE).
		Order("id").
		Limit(2).
		Find(&members).
		Error
	return members, err
}
