package usecase

import (
	"context"
	"strings"
	"time"

	"accmarket/internal/domain/entity"
	"accmarket/internal/domain/repository"
	"accmarket/internal/domain/service"
	"accmarket/pkg/errors"
	"accmarket/pkg/utils"
)

type ShopUseCase struct {
	shopRepo repository.ShopRepository
	accRepo  repository.AccRepository
	events   EventPublisher
	policy   service.CommissionPolicy
	now      func() time.Time
}

func NewShopUseCase(
	shopRepo repository.ShopRepository,
	accRepo repository.AccRepository,
	events EventPublisher,
	policy service.CommissionPolicy,
) *ShopUseCase {
	return &ShopUseCase{
		shopRepo: shopRepo,
		accRepo:  accRepo,
		events:   events,
		policy:   policy,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type SubmitShopInput struct {
	Name        string `json:"name" validate:"required,min=3,max=120"`
	Description string `json:"description" validate:"max=2000"`
	AvatarURL   string `json:"avatar_url" validate:"omitempty,url"`
	CoverURL    string `json:"cover_url" validate:"omitempty,url"`
}

type UpdateShopInput struct {
	Description *string `json:"description" validate:"omitempty,max=2000"`
	AvatarURL   *string `json:"avatar_url" validate:"omitempty,url"`
	CoverURL    *string `json:"cover_url" validate:"omitempty,url"`
}

type ShopDashboard struct {
	Shop       *entity.Shop               `json:"shop"`
	Commission service.Commission         `json:"commission"`
	AccCounts  map[entity.AccStatus]int64 `json:"acc_counts"`
}

// Submit creates the caller's shop in PENDING. The slug is derived from the
// name once and never changes.
func (uc *ShopUseCase) Submit(ctx context.Context, ownerID string, input SubmitShopInput) (*entity.Shop, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.Validation("name", "Shop name is required")
	}
	slug := utils.Slugify(name)
	if slug == "" {
		return nil, errors.Validation("name", "Shop name must contain letters or digits")
	}

	// Friendly pre-checks; the unique indexes decide under a race.
	if _, err := uc.shopRepo.GetByOwnerID(ctx, ownerID); err == nil {
		return nil, errors.DuplicateShop()
	} else if !errors.Is(err, errors.CodeNotFound) {
		return nil, err
	}
	if _, err := uc.shopRepo.GetBySlug(ctx, slug); err == nil {
		return nil, errors.SlugCollision(slug)
	} else if !errors.Is(err, errors.CodeNotFound) {
		return nil, err
	}

	shop := &entity.Shop{
		OwnerID:     ownerID,
		Name:        name,
		Slug:        slug,
		Description: strings.TrimSpace(input.Description),
		AvatarURL:   input.AvatarURL,
		CoverURL:    input.CoverURL,
		Status:      entity.ShopPending,
	}
	if err := uc.shopRepo.Create(ctx, shop); err != nil {
		return nil, err
	}

	uc.emit(ctx, entity.EventShopSubmitted, shop, "")
	return shop, nil
}

// Approve publishes the shop and clears any earlier rejection reason.
func (uc *ShopUseCase) Approve(ctx context.Context, id string) (*entity.Shop, error) {
	now := uc.now()
	cleared := ""
	return uc.transition(ctx, id, shopMove{
		action:     "approve",
		from:       []entity.ShopStatus{entity.ShopPending, entity.ShopRejected},
		to:         entity.ShopApproved,
		idempotent: true,
		change:     entity.ShopStatusChange{ApprovedAt: &now, RejectReason: &cleared},
		event:      entity.EventShopApproved,
	})
}

// Reject hides the shop and, through the display rule, all of its accs.
// Rejecting an already rejected shop replaces the reason.
func (uc *ShopUseCase) Reject(ctx context.Context, id, reason string) (*entity.Shop, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, errors.Validation("reason", "A rejection reason is required")
	}
	return uc.transition(ctx, id, shopMove{
		action: "reject",
		from:   []entity.ShopStatus{entity.ShopPending, entity.ShopApproved, entity.ShopRejected},
		to:     entity.ShopRejected,
		change: entity.ShopStatusChange{RejectReason: &reason},
		event:  entity.EventShopRejected,
		reason: reason,
	})
}

// Resubmit sends a rejected shop back to the moderation queue.
func (uc *ShopUseCase) Resubmit(ctx context.Context, ownerID, id string) (*entity.Shop, error) {
	if _, err := uc.owned(ctx, ownerID, id); err != nil {
		return nil, err
	}
	return uc.transition(ctx, id, shopMove{
		action:     "resubmit",
		from:       []entity.ShopStatus{entity.ShopRejected},
		to:         entity.ShopPending,
		idempotent: true,
		event:      entity.EventShopResubmitted,
	})
}

// Ban is terminal. There is no unban.
func (uc *ShopUseCase) Ban(ctx context.Context, id, reason string) (*entity.Shop, error) {
	reason = strings.TrimSpace(reason)
	move := shopMove{
		action:     "ban",
		from:       []entity.ShopStatus{entity.ShopPending, entity.ShopApproved, entity.ShopRejected},
		to:         entity.ShopBanned,
		idempotent: true,
		event:      entity.EventShopBanned,
		reason:     reason,
	}
	if reason != "" {
		move.change.RejectReason = &reason
	}
	return uc.transition(ctx, id, move)
}

type shopMove struct {
	action string
	from   []entity.ShopStatus
	to     entity.ShopStatus
	change entity.ShopStatusChange
	event  string
	reason string
	// idempotent makes a request for a shop already in `to` succeed without a write.
	idempotent bool
}

func (m shopMove) allows(s entity.ShopStatus) bool {
	for _, f := range m.from {
		if f == s {
			return true
		}
	}
	return false
}

// transition is a compare-and-set on the current status. When the CAS
// misses, the row is re-read: a concurrent caller that already reached the
// target state counts as success for idempotent moves.
func (uc *ShopUseCase) transition(ctx context.Context, id string, m shopMove) (*entity.Shop, error) {
	shop, err := uc.shopRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.idempotent && shop.Status == m.to {
		return shop, nil
	}
	if !m.allows(shop.Status) {
		return nil, errors.InvalidTransition("shop", string(shop.Status), m.action)
	}

	ok, err := uc.shopRepo.TransitionStatus(ctx, id, m.from, m.to, m.change)
	if err != nil {
		return nil, err
	}

	current, err := uc.shopRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		if m.idempotent && current.Status == m.to {
			return current, nil
		}
		return nil, errors.InvalidTransition("shop", string(current.Status), m.action)
	}

	uc.emit(ctx, m.event, current, m.reason)
	return current, nil
}

func (uc *ShopUseCase) emit(ctx context.Context, kind string, shop *entity.Shop, reason string) {
	publish(ctx, uc.events, entity.DomainEvent{
		Type:     kind,
		EntityID: shop.ID,
		ShopID:   shop.ID,
		Status:   string(shop.Status),
		Reason:   reason,
		At:       uc.now(),
	})
}

// owned resolves a shop for its owner. A missing shop and someone else's
// shop produce the same error so the response does not reveal which.
func (uc *ShopUseCase) owned(ctx context.Context, ownerID, id string) (*entity.Shop, error) {
	shop, err := uc.shopRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			return nil, errors.Forbidden("You do not have access to this shop", nil)
		}
		return nil, err
	}
	if shop.OwnerID != ownerID {
		return nil, errors.Forbidden("You do not have access to this shop", nil)
	}
	return shop, nil
}

// UpdateProfile edits the owner-mutable fields. Name and slug are fixed.
func (uc *ShopUseCase) UpdateProfile(ctx context.Context, ownerID, id string, input UpdateShopInput) (*entity.Shop, error) {
	shop, err := uc.owned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if shop.Status == entity.ShopBanned {
		return nil, errors.ImmutableState("A banned shop cannot be edited")
	}

	profile := entity.ShopProfile{
		Description: input.Description,
		AvatarURL:   input.AvatarURL,
		CoverURL:    input.CoverURL,
	}
	if profile.Empty() {
		return shop, nil
	}
	if profile.Description != nil {
		d := strings.TrimSpace(*profile.Description)
		profile.Description = &d
	}
	if err := uc.shopRepo.UpdateProfile(ctx, id, profile); err != nil {
		return nil, err
	}
	return uc.shopRepo.GetByID(ctx, id)
}

func (uc *ShopUseCase) SetVerified(ctx context.Context, id string, verified bool) (*entity.Shop, error) {
	if err := uc.shopRepo.SetVerified(ctx, id, verified); err != nil {
		return nil, err
	}
	return uc.shopRepo.GetByID(ctx, id)
}

// GrantVIP extends VIP by days, counting from the current end when the VIP
// is still running. Nothing is written when it later expires.
func (uc *ShopUseCase) GrantVIP(ctx context.Context, id string, days int) (*entity.Shop, error) {
	if days <= 0 {
		return nil, errors.Validation("days", "days must be greater than 0")
	}
	shop, err := uc.shopRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	start := now
	if shop.IsVipActive(now) {
		if shop.VipShopEndTime == nil {
			return shop, nil
		}
		start = *shop.VipShopEndTime
	}
	end := start.AddDate(0, 0, days)
	if err := uc.shopRepo.SetVIP(ctx, id, true, &end); err != nil {
		return nil, err
	}
	return uc.shopRepo.GetByID(ctx, id)
}

func (uc *ShopUseCase) RevokeVIP(ctx context.Context, id string) (*entity.Shop, error) {
	if err := uc.shopRepo.SetVIP(ctx, id, false, nil); err != nil {
		return nil, err
	}
	return uc.shopRepo.GetByID(ctx, id)
}

func (uc *ShopUseCase) SetPartner(ctx context.Context, id, tier string) (*entity.Shop, error) {
	tier = strings.TrimSpace(tier)
	if tier == "" {
		tier = "strategic"
	}
	shop, err := uc.shopRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	since := uc.now()
	if shop.IsStrategicPartner && shop.PartnerSince != nil {
		since = *shop.PartnerSince
	}
	if err := uc.shopRepo.SetPartner(ctx, id, true, tier, &since); err != nil {
		return nil, err
	}
	return uc.shopRepo.GetByID(ctx, id)
}

func (uc *ShopUseCase) RemovePartner(ctx context.Context, id string) (*entity.Shop, error) {
	if err := uc.shopRepo.SetPartner(ctx, id, false, "", nil); err != nil {
		return nil, err
	}
	return uc.shopRepo.GetByID(ctx, id)
}

func (uc *ShopUseCase) Commission(shop *entity.Shop) service.Commission {
	return uc.policy.For(shop, uc.now())
}

// Dashboard is the owner's view: status, rejection reason, fee terms and
// listing counts per status.
func (uc *ShopUseCase) Dashboard(ctx context.Context, ownerID string) (*ShopDashboard, error) {
	shop, err := uc.shopRepo.GetByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	counts, err := uc.accRepo.CountByStatus(ctx, shop.ID)
	if err != nil {
		return nil, err
	}
	return &ShopDashboard{
		Shop:       shop,
		Commission: uc.Commission(shop),
		AccCounts:  counts,
	}, nil
}

func (uc *ShopUseCase) GetByID(ctx context.Context, id string) (*entity.Shop, error) {
	return uc.shopRepo.GetByID(ctx, id)
}

func (uc *ShopUseCase) ListForModeration(ctx context.Context, status entity.ShopStatus, limit, offset int) ([]*entity.Shop, int64, error) {
	if status != "" && !status.Valid() {
		return nil, 0, errors.Validation("status", "Unknown shop status")
	}
	return uc.shopRepo.List(ctx, repository.ShopFilter{Status: status, Limit: limit, Offset: offset})
}
