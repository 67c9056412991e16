package service

import (
	"sort"
	"time"

	"accmarket/internal/domain/entity"
)

const (
	PartnerShowcaseSize   = 4
	VIPShowcaseSize       = 8
	DevelopingPreviewSize = 12
)

// ShopRanking is the home page order: partners, then active VIPs, then
// everyone else ("developing"). Every approved shop appears exactly once.
type ShopRanking struct {
	Partners   []*entity.Shop `json:"partners"`
	VIPs       []*entity.Shop `json:"vips"`
	Developing []*entity.Shop `json:"developing"`
}

// Ordered flattens the ranking into one sequence.
func (r ShopRanking) Ordered() []*entity.Shop {
	out := make([]*entity.Shop, 0, len(r.Partners)+len(r.VIPs)+len(r.Developing))
	out = append(out, r.Partners...)
	out = append(out, r.VIPs...)
	return append(out, r.Developing...)
}

// DevelopingPage cuts the developing tier for "show more" pagination.
func (r ShopRanking) DevelopingPage(limit int) ([]*entity.Shop, bool) {
	if limit <= 0 || limit >= len(r.Developing) {
		return r.Developing, false
	}
	return r.Developing[:limit], true
}

// RankShops orders approved shops for the home page. Tier membership is
// evaluated against now, so an expired VIP falls through to developing.
// Overflow beyond the showcase caps joins the developing tier.
func RankShops(shops []*entity.Shop, now time.Time) ShopRanking {
	base := creationOrder(shops, func(s *entity.Shop) bool { return s.Status == entity.ShopApproved })

	var partners, vips, rest []*entity.Shop
	for _, s := range base {
		switch s.TierAt(now) {
		case entity.TierPartner:
			partners = append(partners, s)
		case entity.TierVIP:
			vips = append(vips, s)
		default:
			rest = append(rest, s)
		}
	}
	byRatingDesc(partners)
	byRatingDesc(vips)

	ranking := ShopRanking{
		Partners:   capTo(partners, PartnerShowcaseSize),
		VIPs:       capTo(vips, VIPShowcaseSize),
		Developing: make([]*entity.Shop, 0, len(rest)),
	}

	// Re-merge overflow with the ordinary shops and keep creation order as
	// the tie-break before sorting by rating.
	overflow := map[string]bool{}
	for _, s := range partners[len(ranking.Partners):] {
		overflow[s.ID] = true
	}
	for _, s := range vips[len(ranking.VIPs):] {
		overflow[s.ID] = true
	}
	for _, s := range base {
		if overflow[s.ID] || s.TierAt(now) == entity.TierOrdinary {
			ranking.Developing = append(ranking.Developing, s)
		}
	}
	byRatingDesc(ranking.Developing)

	return ranking
}

func creationOrder(shops []*entity.Shop, keep func(*entity.Shop) bool) []*entity.Shop {
	out := make([]*entity.Shop, 0, len(shops))
	for _, s := range shops {
		if s != nil && keep(s) {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func byRatingDesc(shops []*entity.Shop) {
	sort.SliceStable(shops, func(i, j int) bool {
		return shops[i].Rating > shops[j].Rating
	})
}

func capTo(shops []*entity.Shop, n int) []*entity.Shop {
	if len(shops) > n {
		shops = shops[:n]
	}
	out := make([]*entity.Shop, len(shops))
	copy(out, shops)
	return out
}

type AccSort string

const (
	SortNewest    AccSort = "newest"
	SortOldest    AccSort = "oldest"
	SortPriceAsc  AccSort = "price_asc"
	SortPriceDesc AccSort = "price_desc"
	SortViews     AccSort = "views"
)

// ParseAccSort maps a query value to a sort key, defaulting to newest.
func ParseAccSort(s string) AccSort {
	switch AccSort(s) {
	case SortOldest, SortPriceAsc, SortPriceDesc, SortViews:
		return AccSort(s)
	default:
		return SortNewest
	}
}

// RankAccs orders listings VIP first, then by the requested key. The VIP
// precedence is applied whatever key is requested.
func RankAccs(accs []*entity.Acc, key AccSort) []*entity.Acc {
	out := make([]*entity.Acc, 0, len(accs))
	for _, a := range accs {
		if a != nil {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.IsVip != b.IsVip {
			return a.IsVip
		}
		switch ParseAccSort(string(key)) {
		case SortOldest:
			return a.CreatedAt.Before(b.CreatedAt)
		case SortPriceAsc:
			return a.Price < b.Price
		case SortPriceDesc:
			return a.Price > b.Price
		case SortViews:
			return a.Views > b.Views
		default:
			return a.CreatedAt.After(b.CreatedAt)
		}
	})
	return out
}
