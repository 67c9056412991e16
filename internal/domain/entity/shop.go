package entity

import (
	"time"
)

type ShopStatus string

const (
	ShopPending  ShopStatus = "PENDING"
	ShopApproved ShopStatus = "APPROVED"
	ShopRejected ShopStatus = "REJECTED"
	ShopBanned   ShopStatus = "BANNED"
)

func (s ShopStatus) Valid() bool {
	switch s {
	case ShopPending, ShopApproved, ShopRejected, ShopBanned:
		return true
	}
	return false
}

// Tier is computed from the stored flags at read time and never persisted.
type Tier string

const (
	TierOrdinary Tier = "ordinary"
	TierVIP      Tier = "vip"
	TierPartner  Tier = "partner"
)

type Shop struct {
	ID          string     `json:"id" gorm:"primaryKey;size:36" firestore:"id"`
	OwnerID     string     `json:"owner_id" gorm:"size:128;not null;uniqueIndex" firestore:"ownerId"`
	Name        string     `json:"name" gorm:"size:120;not null" firestore:"name"`
	Slug        string     `json:"slug" gorm:"size:160;not null;uniqueIndex" firestore:"slug"`
	Description string     `json:"description" gorm:"type:text" firestore:"description"`
	AvatarURL   string     `json:"avatar_url,omitempty" gorm:"size:512" firestore:"avatarUrl,omitempty"`
	CoverURL    string     `json:"cover_url,omitempty" gorm:"size:512" firestore:"coverUrl,omitempty"`
	Status      ShopStatus `json:"status" gorm:"size:16;not null;index" firestore:"status"`
	// RejectReason is shown to the owner after a reject or ban.
	RejectReason string `json:"reject_reason,omitempty" gorm:"type:text" firestore:"rejectReason,omitempty"`
	IsVerified   bool   `json:"is_verified" gorm:"not null;default:false" firestore:"isVerified"`

	IsVipShop          bool       `json:"is_vip_shop" gorm:"not null;default:false" firestore:"isVipShop"`
	VipShopEndTime     *time.Time `json:"vip_shop_end_time,omitempty" firestore:"vipShopEndTime,omitempty"`
	IsStrategicPartner bool       `json:"is_strategic_partner" gorm:"not null;default:false" firestore:"isStrategicPartner"`
	PartnerTier        string     `json:"partner_tier,omitempty" gorm:"size:32" firestore:"partnerTier,omitempty"`
	PartnerSince       *time.Time `json:"partner_since,omitempty" firestore:"partnerSince,omitempty"`

	Rating       float64 `json:"rating" gorm:"not null;default:0" firestore:"rating"`
	TotalReviews int     `json:"total_reviews" gorm:"not null;default:0" firestore:"totalReviews"`
	TotalSales   int     `json:"total_sales" gorm:"not null;default:0" firestore:"totalSales"`
	TotalViews   int64   `json:"total_views" gorm:"not null;default:0" firestore:"totalViews"`

	CreatedAt  time.Time  `json:"created_at" gorm:"index" firestore:"createdAt"`
	UpdatedAt  time.Time  `json:"updated_at" firestore:"updatedAt"`
	ApprovedAt *time.Time `json:"approved_at,omitempty" firestore:"approvedAt,omitempty"`
}

func (Shop) TableName() string { return "shops" }

// IsVipActive reports whether the VIP flag is in force at now. An expired
// end time disables VIP without anything being written back.
func (s *Shop) IsVipActive(now time.Time) bool {
	if !s.IsVipShop {
		return false
	}
	return s.VipShopEndTime == nil || s.VipShopEndTime.After(now)
}

// TierAt resolves the effective tier. Strategic partner supersedes VIP.
func (s *Shop) TierAt(now time.Time) Tier {
	switch {
	case s.IsStrategicPartner:
		return TierPartner
	case s.IsVipActive(now):
		return TierVIP
	default:
		return TierOrdinary
	}
}

func (s *Shop) IsPublic() bool {
	return s.Status == ShopApproved
}

// ShopProfile holds the owner-editable fields.
type ShopProfile struct {
	Description *string
	AvatarURL   *string
	CoverURL    *string
}

func (p ShopProfile) Empty() bool {
	return p.Description == nil && p.AvatarURL == nil && p.CoverURL == nil
}

// ShopStatusChange carries the columns written together with a status transition.
type ShopStatusChange struct {
	RejectReason *string
	ApprovedAt   *time.Time
}
