package entity

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AccStatus string

const (
	AccPending  AccStatus = "PENDING"
	AccApproved AccStatus = "APPROVED"
	AccRejected AccStatus = "REJECTED"
	AccSold     AccStatus = "SOLD"
)

func (s AccStatus) Valid() bool {
	switch s {
	case AccPending, AccApproved, AccRejected, AccSold:
		return true
	}
	return false
}

// Acc is a single game account listed for sale by a shop.
type Acc struct {
	ID            string                      `json:"id" gorm:"primaryKey;size:36" firestore:"id"`
	SellerID      string                      `json:"seller_id" gorm:"size:36;not null;index" firestore:"sellerId"`
	GameID        string                      `json:"game_id" gorm:"size:36;not null;index" firestore:"gameId"`
	Slug          string                      `json:"slug" gorm:"size:200;not null;uniqueIndex" firestore:"slug"`
	Title         string                      `json:"title" gorm:"size:200;not null" firestore:"title"`
	Description   string                      `json:"description" gorm:"type:text" firestore:"description"`
	Price         int64                       `json:"price" gorm:"not null;index" firestore:"price"`
	OriginalPrice *int64                      `json:"original_price,omitempty" firestore:"originalPrice,omitempty"`
	Images        datatypes.JSONSlice[string] `json:"images" firestore:"images"`
	Attributes    datatypes.JSONMap           `json:"attributes" firestore:"attributes"`
	Status        AccStatus                   `json:"status" gorm:"size:16;not null;index" firestore:"status"`
	IsVip         bool                        `json:"is_vip" gorm:"not null;default:false" firestore:"isVip"`
	IsHot         bool                        `json:"is_hot" gorm:"not null;default:false" firestore:"isHot"`
	Views         int64                       `json:"views" gorm:"not null;default:0" firestore:"views"`
	AdminNote     string                      `json:"admin_note,omitempty" gorm:"type:text" firestore:"adminNote,omitempty"`
	CreatedAt     time.Time                   `json:"created_at" gorm:"index" firestore:"createdAt"`
	UpdatedAt     time.Time                   `json:"updated_at" firestore:"updatedAt"`
	SoldAt        *time.Time                  `json:"sold_at,omitempty" firestore:"soldAt,omitempty"`

	DeletedAt gorm.DeletedAt `json:"-" gorm:"index" firestore:"-"`
	Deleted   bool           `json:"-" gorm:"-" firestore:"deleted"`
}

func (Acc) TableName() string { return "accs" }

// Cover is the first image, used as the listing thumbnail.
func (a *Acc) Cover() string {
	if len(a.Images) == 0 {
		return ""
	}
	return a.Images[0]
}

// IsPubliclyVisible is the display-eligibility rule: both the listing and its
// owning shop must be approved. Banning or rejecting a shop hides its accs
// without touching them.
func IsPubliclyVisible(acc *Acc, shop *Shop) bool {
	if acc == nil || shop == nil || acc.SellerID != shop.ID {
		return false
	}
	return acc.Status == AccApproved && shop.Status == ShopApproved
}

// AccPatch is an owner edit. Nil fields are left untouched.
type AccPatch struct {
	GameID        *string
	Title         *string
	Description   *string
	Price         *int64
	OriginalPrice *int64
	ClearOriginal bool
	Images        []string
	Attributes    map[string]interface{}
}

// AccStatusChange carries the columns written together with a status transition.
type AccStatusChange struct {
	AdminNote *string
	SoldAt    *time.Time
}

// AccFlags are admin-controlled monetisation markers.
type AccFlags struct {
	IsVip *bool `json:"is_vip"`
	IsHot *bool `json:"is_hot"`
}
