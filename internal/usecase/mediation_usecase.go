package usecase

import (
	"context"

	"accmarket/internal/domain/entity"
	"accmarket/pkg/errors"
)

// MediationWarning is shown on every purchase guide. Off-platform contact
// cannot be prevented, only disclaimed.
const MediationWarning = "Only pay the admin named on this page. Never transfer money to a seller directly or " +
	"continue a deal outside the admin group chat. Transactions that bypass the admin are not protected and the " +
	"marketplace accepts no liability for them."

// AdminContact is the external channel a buyer uses to start a purchase.
type AdminContact struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type GuideStep struct {
	Step        int    `json:"step"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type GuideCommission struct {
	Tier        entity.Tier `json:"tier"`
	RatePercent float64     `json:"rate_percent"`
	MinFee      int64       `json:"min_fee"`
	Fee         int64       `json:"fee"`
}

// PurchaseGuide never carries seller contact details.
type PurchaseGuide struct {
	AccID        string          `json:"acc_id"`
	AccSlug      string          `json:"acc_slug"`
	Title        string          `json:"title"`
	Price        int64           `json:"price"`
	ShopName     string          `json:"shop_name"`
	ShopVerified bool            `json:"shop_verified"`
	Commission   GuideCommission `json:"commission"`
	AdminContact AdminContact    `json:"admin_contact"`
	Steps        []GuideStep     `json:"steps"`
	Warning      string          `json:"warning"`
}

var purchaseSteps = []GuideStep{
	{1, "Contact the admin", "Send the listing link to the admin through the contact below. Do not contact the seller yourself."},
	{2, "Join the group chat", "The admin opens a chat with you, the seller and the admin before any money moves."},
	{3, "Check the account", "The seller proves the account matches the listing while the admin watches."},
	{4, "Pay the admin", "Transfer the price to the admin only. The admin holds it until you confirm."},
	{5, "Confirm and close", "After you confirm you received the account, the listing is marked sold and the admin pays the seller."},
}

type MediationUseCase struct {
	listing *ListingUseCase
	contact AdminContact
}

func NewMediationUseCase(listing *ListingUseCase, contact AdminContact) *MediationUseCase {
	return &MediationUseCase{listing: listing, contact: contact}
}

// AccDetail is the public listing page: the acc, its shop and how to buy it.
type AccDetail struct {
	Acc   *entity.Acc    `json:"acc"`
	Shop  *entity.Shop   `json:"shop"`
	Guide *PurchaseGuide `json:"purchase_guide"`
}

// Detail leaves Guide nil when no admin contact is configured so the listing
// page still renders.
func (uc *MediationUseCase) Detail(ctx context.Context, accSlug string) (*AccDetail, error) {
	acc, shop, err := uc.listing.GetAcc(ctx, accSlug)
	if err != nil {
		return nil, err
	}
	detail := &AccDetail{Acc: acc, Shop: shop}
	if uc.contact.URL == "" {
		return detail, nil
	}
	if detail.Guide, err = uc.guide(acc, shop); err != nil {
		return nil, err
	}
	return detail, nil
}

func (uc *MediationUseCase) PurchaseGuide(ctx context.Context, accSlug string) (*PurchaseGuide, error) {
	acc, shop, err := uc.listing.GetAcc(ctx, accSlug)
	if err != nil {
		return nil, err
	}
	return uc.guide(acc, shop)
}

func (uc *MediationUseCase) guide(acc *entity.Acc, shop *entity.Shop) (*PurchaseGuide, error) {
	if uc.contact.URL == "" {
		return nil, errors.Internal("Admin contact is not configured", nil)
	}

	c := uc.listing.policy.For(shop, uc.listing.now())
	steps := make([]GuideStep, len(purchaseSteps))
	copy(steps, purchaseSteps)

	return &PurchaseGuide{
		AccID:        acc.ID,
		AccSlug:      acc.Slug,
		Title:        acc.Title,
		Price:        acc.Price,
		ShopName:     shop.Name,
		ShopVerified: shop.IsVerified,
		Commission: GuideCommission{
			Tier:        c.Tier,
			RatePercent: c.RatePercent,
			MinFee:      c.MinFee,
			Fee:         c.FeeFor(acc.Price),
		},
		AdminContact: uc.contact,
		Steps:        steps,
		Warning:      MediationWarning,
	}, nil
}
