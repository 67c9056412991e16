package entity

import (
	"time"
)

// Review is left on a shop after a mediated sale. BuyerName is free text,
// not a verified identity.
type Review struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36" firestore:"id"`
	ShopID    string    `json:"shop_id" gorm:"size:36;not null;index" firestore:"shopId"`
	Rating    int       `json:"rating" gorm:"not null" firestore:"rating"`
	Text      string    `json:"text,omitempty" gorm:"type:text" firestore:"text,omitempty"`
	BuyerName string    `json:"buyer_name" gorm:"size:120" firestore:"buyerName"`
	CreatedAt time.Time `json:"created_at" gorm:"index" firestore:"createdAt"`
}

func (Review) TableName() string { return "reviews" }

// ShopStats is the derived review aggregate stored on the shop row.
type ShopStats struct {
	Rating       float64 `json:"rating"`
	TotalReviews int     `json:"total_reviews"`
}
