package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShop_IsVipActive(t *testing.T) {
	now := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	past := now.Add(-time.Second)
	future := now.Add(time.Hour)

	assert.False(t, (&Shop{}).IsVipActive(now))
	assert.True(t, (&Shop{IsVipShop: true}).IsVipActive(now), "no end time means indefinite")
	assert.True(t, (&Shop{IsVipShop: true, VipShopEndTime: &future}).IsVipActive(now))
	assert.False(t, (&Shop{IsVipShop: true, VipShopEndTime: &past}).IsVipActive(now))
	assert.False(t, (&Shop{IsVipShop: true, VipShopEndTime: &now}).IsVipActive(now), "expires at the end time")
	assert.False(t, (&Shop{IsVipShop: false, VipShopEndTime: &future}).IsVipActive(now))
}

func TestShop_TierAt(t *testing.T) {
	now := time.Now()
	assert.Equal(t, TierPartner, (&Shop{IsStrategicPartner: true, IsVipShop: true}).TierAt(now))
	assert.Equal(t, TierVIP, (&Shop{IsVipShop: true}).TierAt(now))
	assert.Equal(t, TierOrdinary, (&Shop{}).TierAt(now))
}

func TestIsPubliclyVisible(t *testing.T) {
	for _, shopStatus := range []ShopStatus{ShopPending, ShopApproved, ShopRejected, ShopBanned} {
		for _, accStatus := range []AccStatus{AccPending, AccApproved, AccRejected, AccSold} {
			shop := &Shop{ID: "s1", Status: shopStatus}
			acc := &Acc{SellerID: "s1", Status: accStatus}
			want := shopStatus == ShopApproved && accStatus == AccApproved
			assert.Equal(t, want, IsPubliclyVisible(acc, shop), "%s/%s", shopStatus, accStatus)
		}
	}
	assert.False(t, IsPubliclyVisible(&Acc{SellerID: "other", Status: AccApproved}, &Shop{ID: "s1", Status: ShopApproved}))
	assert.False(t, IsPubliclyVisible(&Acc{Status: AccApproved}, nil))
}

func TestAcc_Cover(t *testing.T) {
	assert.Equal(t, "", (&Acc{}).Cover())
	assert.Equal(t, "a", (&Acc{Images: []string{"a", "b"}}).Cover())
}
