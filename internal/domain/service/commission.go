package service

import (
	"math"
	"time"

	"accmarket/internal/domain/entity"
)

// CommissionPolicy maps a shop's tier to the advisory fee the admin charges
// when mediating a sale. Nothing in the system collects it.
type CommissionPolicy struct {
	BaseRate    float64
	VIPRate     float64
	PartnerRate float64
	MinFee      int64
}

func DefaultCommissionPolicy() CommissionPolicy {
	return CommissionPolicy{BaseRate: 5, VIPRate: 3, PartnerRate: 0, MinFee: 10000}
}

type Commission struct {
	Tier        entity.Tier `json:"tier"`
	RatePercent float64     `json:"rate_percent"`
	MinFee      int64       `json:"min_fee"`
}

func (p CommissionPolicy) For(shop *entity.Shop, now time.Time) Commission {
	tier := shop.TierAt(now)
	c := Commission{Tier: tier, MinFee: p.MinFee}
	switch tier {
	case entity.TierPartner:
		c.RatePercent = p.PartnerRate
	case entity.TierVIP:
		c.RatePercent = p.VIPRate
	default:
		c.RatePercent = p.BaseRate
	}
	return c
}

// FeeFor applies the percentage, raises it to the floor, and never exceeds
// the price. A zero rate means no fee at all.
func (c Commission) FeeFor(price int64) int64 {
	if c.RatePercent <= 0 || price <= 0 {
		return 0
	}
	fee := int64(math.Round(float64(price) * c.RatePercent / 100))
	if fee < c.MinFee {
		fee = c.MinFee
	}
	if fee > price {
		fee = price
	}
	return fee
}
