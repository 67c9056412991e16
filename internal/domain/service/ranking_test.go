package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accmarket/internal/domain/entity"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func shopAt(id string, minute int, rating float64) *entity.Shop {
	return &entity.Shop{
		ID:        id,
		Status:    entity.ShopApproved,
		Rating:    rating,
		CreatedAt: now.Add(-time.Hour).Add(time.Duration(minute) * time.Minute),
	}
}

func ids(shops []*entity.Shop) []string {
	out := make([]string, len(shops))
	for i, s := range shops {
		out[i] = s.ID
	}
	return out
}

func TestRankShops_TierPrecedence(t *testing.T) {
	partner := shopAt("partner", 5, 3.0)
	partner.IsStrategicPartner = true
	partner.IsVipShop = true

	vip := shopAt("vip", 4, 4.0)
	vip.IsVipShop = true
	end := now.Add(24 * time.Hour)
	vip.VipShopEndTime = &end

	lifetimeVIP := shopAt("vip-forever", 3, 3.5)
	lifetimeVIP.IsVipShop = true

	plain := shopAt("plain", 1, 5.0)

	r := RankShops([]*entity.Shop{plain, vip, lifetimeVIP, partner}, now)

	assert.Equal(t, []string{"partner"}, ids(r.Partners))
	assert.Equal(t, []string{"vip", "vip-forever"}, ids(r.VIPs))
	assert.Equal(t, []string{"plain"}, ids(r.Developing))
	assert.Equal(t, []string{"partner", "vip", "vip-forever", "plain"}, ids(r.Ordered()))
}

func TestRankShops_ExpiredVIPFallsToDeveloping(t *testing.T) {
	yesterday := now.Add(-24 * time.Hour)
	expired := shopAt("expired-vip", 1, 4.9)
	expired.IsVipShop = true
	expired.VipShopEndTime = &yesterday

	top := shopAt("top", 2, 5.0)
	low := shopAt("low", 3, 4.8)

	r := RankShops([]*entity.Shop{low, expired, top}, now)

	assert.Empty(t, r.VIPs)
	assert.Equal(t, []string{"top", "expired-vip", "low"}, ids(r.Developing))
	assert.True(t, expired.IsVipShop, "stored flag must not be written back")
}

func TestRankShops_OnlyApproved(t *testing.T) {
	pending := shopAt("pending", 1, 5)
	pending.Status = entity.ShopPending
	banned := shopAt("banned", 2, 5)
	banned.Status = entity.ShopBanned
	banned.IsStrategicPartner = true
	ok := shopAt("ok", 3, 1)

	r := RankShops([]*entity.Shop{pending, banned, ok, nil}, now)
	assert.Equal(t, []string{"ok"}, ids(r.Ordered()))
}

func TestRankShops_CapsAndOverflow(t *testing.T) {
	var shops []*entity.Shop
	for i := 0; i < 6; i++ {
		s := shopAt(fmt.Sprintf("p%d", i), i, float64(i)/2)
		s.IsStrategicPartner = true
		shops = append(shops, s)
	}
	for i := 0; i < 10; i++ {
		s := shopAt(fmt.Sprintf("v%d", i), 10+i, 2.0)
		s.IsVipShop = true
		shops = append(shops, s)
	}
	shops = append(shops, shopAt("o1", 30, 4.9))

	r := RankShops(shops, now)

	require.Len(t, r.Partners, PartnerShowcaseSize)
	require.Len(t, r.VIPs, VIPShowcaseSize)
	assert.Equal(t, []string{"p5", "p4", "p3", "p2"}, ids(r.Partners))
	// equal ratings keep creation order
	assert.Equal(t, []string{"v0", "v1", "v2", "v3", "v4", "v5", "v6", "v7"}, ids(r.VIPs))
	assert.Equal(t, []string{"o1", "v8", "v9", "p1", "p0"}, ids(r.Developing))
	assert.Len(t, r.Ordered(), len(shops))
}

func TestRankShops_StableAcrossRuns(t *testing.T) {
	var shops []*entity.Shop
	for i := 0; i < 40; i++ {
		shops = append(shops, shopAt(fmt.Sprintf("s%02d", i), i, float64(i%3)))
	}
	first := ids(RankShops(shops, now).Ordered())

	// reversed input must not change the outcome
	reversed := make([]*entity.Shop, len(shops))
	for i, s := range shops {
		reversed[len(shops)-1-i] = s
	}
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, ids(RankShops(reversed, now).Ordered()))
	}
}

func TestShopRanking_DevelopingPage(t *testing.T) {
	var shops []*entity.Shop
	for i := 0; i < 15; i++ {
		shops = append(shops, shopAt(fmt.Sprintf("s%02d", i), i, 0))
	}
	r := RankShops(shops, now)

	page, more := r.DevelopingPage(DevelopingPreviewSize)
	assert.Len(t, page, DevelopingPreviewSize)
	assert.True(t, more)
	assert.Equal(t, ids(r.Developing[:DevelopingPreviewSize]), ids(page))

	all, more := r.DevelopingPage(0)
	assert.Len(t, all, 15)
	assert.False(t, more)
}

func accAt(id string, minute int, price, views int64, vip bool) *entity.Acc {
	return &entity.Acc{
		ID:        id,
		Price:     price,
		Views:     views,
		IsVip:     vip,
		CreatedAt: now.Add(time.Duration(minute) * time.Minute),
	}
}

func accIDs(accs []*entity.Acc) []string {
	out := make([]string, len(accs))
	for i, a := range accs {
		out[i] = a.ID
	}
	return out
}

func TestRankAccs_VIPFirstForEverySortKey(t *testing.T) {
	accs := []*entity.Acc{
		accAt("a", 1, 300, 5, false),
		accAt("b", 2, 100, 50, true),
		accAt("c", 3, 200, 10, false),
		accAt("d", 4, 400, 1, true),
	}

	tests := []struct {
		sort AccSort
		want []string
	}{
		{SortNewest, []string{"d", "b", "c", "a"}},
		{SortOldest, []string{"b", "d", "a", "c"}},
		{SortPriceAsc, []string{"b", "d", "c", "a"}},
		{SortPriceDesc, []string{"d", "b", "a", "c"}},
		{SortViews, []string{"b", "d", "c", "a"}},
		{AccSort("bogus"), []string{"d", "b", "c", "a"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.sort), func(t *testing.T) {
			assert.Equal(t, tt.want, accIDs(RankAccs(accs, tt.sort)))
		})
	}
}

func TestRankAccs_TiesKeepCreationOrder(t *testing.T) {
	accs := []*entity.Acc{
		accAt("late", 3, 100, 0, false),
		accAt("early", 1, 100, 0, false),
		accAt("mid", 2, 100, 0, false),
	}
	assert.Equal(t, []string{"early", "mid", "late"}, accIDs(RankAccs(accs, SortPriceAsc)))
	assert.Equal(t, []string{"late", "mid", "early"}, accIDs(RankAccs(accs, SortNewest)))
}

func TestParseAccSort(t *testing.T) {
	assert.Equal(t, SortNewest, ParseAccSort(""))
	assert.Equal(t, SortViews, ParseAccSort("views"))
	assert.Equal(t, SortNewest, ParseAccSort("price"))
}
