package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"accmarket/internal/domain/entity"
	"accmarket/internal/domain/repository"
	"accmarket/internal/domain/service"
	"accmarket/pkg/errors"
	"accmarket/pkg/logger"
	"accmarket/pkg/utils"
)

const (
	editAttempts       = 3
	slugCreateAttempts = 3
)

type AccUseCase struct {
	accRepo        repository.AccRepository
	shopRepo       repository.ShopRepository
	gameRepo       repository.GameRepository
	events         EventPublisher
	minDescription int
	now            func() time.Time
}

func NewAccUseCase(
	accRepo repository.AccRepository,
	shopRepo repository.ShopRepository,
	gameRepo repository.GameRepository,
	events EventPublisher,
	minDescription int,
) *AccUseCase {
	if minDescription <= 0 {
		minDescription = service.DefaultMinDescriptionLength
	}
	return &AccUseCase{
		accRepo:        accRepo,
		shopRepo:       shopRepo,
		gameRepo:       gameRepo,
		events:         events,
		minDescription: minDescription,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

type SubmitAccInput struct {
	GameID        string                 `json:"game_id" validate:"required"`
	Title         string                 `json:"title" validate:"required,max=200"`
	Description   string                 `json:"description"`
	Price         int64                  `json:"price"`
	OriginalPrice *int64                 `json:"original_price"`
	Images        []string               `json:"images"`
	Attributes    map[string]interface{} `json:"attributes"`
}

// EditAccInput is a partial update. Omitted fields keep their value.
type EditAccInput struct {
	GameID        *string                `json:"game_id"`
	Title         *string                `json:"title" validate:"omitempty,max=200"`
	Description   *string                `json:"description"`
	Price         *int64                 `json:"price"`
	OriginalPrice *int64                 `json:"original_price"`
	ClearOriginal bool                   `json:"clear_original_price"`
	Images        []string               `json:"images"`
	Attributes    map[string]interface{} `json:"attributes"`
}

// Submit lists a new acc in PENDING under the caller's shop, which must be
// approved.
func (uc *AccUseCase) Submit(ctx context.Context, ownerID string, input SubmitAccInput) (*entity.Acc, error) {
	shop, err := uc.shopRepo.GetByOwnerID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			return nil, errors.OwnerNotApproved()
		}
		return nil, err
	}
	if shop.Status != entity.ShopApproved {
		return nil, errors.OwnerNotApproved()
	}

	draft := service.ListingDraft{
		Title:         strings.TrimSpace(input.Title),
		Description:   strings.TrimSpace(input.Description),
		Price:         input.Price,
		OriginalPrice: input.OriginalPrice,
		Images:        input.Images,
	}
	if err := service.ValidateListing(draft, uc.minDescription); err != nil {
		return nil, err
	}
	game, err := uc.activeGame(ctx, input.GameID)
	if err != nil {
		return nil, err
	}
	attrs, err := service.ValidateAttributes(game, input.Attributes)
	if err != nil {
		return nil, err
	}

	acc := &entity.Acc{
		SellerID:      shop.ID,
		GameID:        game.ID,
		Title:         draft.Title,
		Description:   draft.Description,
		Price:         draft.Price,
		OriginalPrice: draft.OriginalPrice,
		Images:        draft.Images,
		Attributes:    attrs,
		Status:        entity.AccPending,
	}

	for attempt := 1; ; attempt++ {
		acc.ID = ""
		acc.Slug = accSlug(acc.Title)
		err = uc.accRepo.Create(ctx, acc)
		if err == nil {
			break
		}
		if !errors.Is(err, errors.CodeSlugCollision) || attempt == slugCreateAttempts {
			return nil, err
		}
	}

	uc.emit(ctx, entity.EventAccSubmitted, acc, "")
	return acc, nil
}

func accSlug(title string) string {
	base := utils.Slugify(title)
	if len(base) > 80 {
		base = strings.TrimRight(base[:80], "-")
	}
	if base == "" {
		base = "acc"
	}
	return base + "-" + strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}

func (uc *AccUseCase) activeGame(ctx context.Context, id string) (*entity.Game, error) {
	game, err := uc.gameRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			return nil, errors.Validation("game_id", "Unknown game")
		}
		return nil, err
	}
	if !game.IsActive {
		return nil, errors.Validation("game_id", "This game is not accepting listings")
	}
	return game, nil
}

// owned resolves an acc through the caller's shop. Missing and foreign accs
// give the same error.
func (uc *AccUseCase) owned(ctx context.Context, ownerID, id string) (*entity.Acc, error) {
	denied := errors.Forbidden("You do not have access to this listing", nil)
	shop, err := uc.shopRepo.GetByOwnerID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			return nil, denied
		}
		return nil, err
	}
	acc, err := uc.accRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			return nil, denied
		}
		return nil, err
	}
	if acc.SellerID != shop.ID {
		return nil, denied
	}
	return acc, nil
}

// Approve is legal from PENDING only. Approving an approved acc is a no-op.
func (uc *AccUseCase) Approve(ctx context.Context, id string) (*entity.Acc, error) {
	cleared := ""
	return uc.transition(ctx, id, accMove{
		action:     "approve",
		from:       []entity.AccStatus{entity.AccPending},
		to:         entity.AccApproved,
		idempotent: true,
		change:     entity.AccStatusChange{AdminNote: &cleared},
		event:      entity.EventAccApproved,
	})
}

// Reject stores the reason as the admin note. It also un-approves a live
// listing, and re-rejecting replaces the note.
func (uc *AccUseCase) Reject(ctx context.Context, id, reason string) (*entity.Acc, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, errors.Validation("reason", "A rejection reason is required")
	}
	return uc.transition(ctx, id, accMove{
		action: "reject",
		from:   []entity.AccStatus{entity.AccPending, entity.AccApproved, entity.AccRejected},
		to:     entity.AccRejected,
		change: entity.AccStatusChange{AdminNote: &reason},
		event:  entity.EventAccRejected,
		reason: reason,
	})
}

// MarkSold records the sale for the owning seller. Exactly one of several
// concurrent calls succeeds.
func (uc *AccUseCase) MarkSold(ctx context.Context, ownerID, id string) (*entity.Acc, error) {
	if _, err := uc.owned(ctx, ownerID, id); err != nil {
		return nil, err
	}
	return uc.markSold(ctx, id)
}

// MarkSoldByAdmin is used by the mediating admin once the buyer confirms.
func (uc *AccUseCase) MarkSoldByAdmin(ctx context.Context, id string) (*entity.Acc, error) {
	return uc.markSold(ctx, id)
}

func (uc *AccUseCase) markSold(ctx context.Context, id string) (*entity.Acc, error) {
	soldAt := uc.now()
	acc, err := uc.transition(ctx, id, accMove{
		action: "mark sold",
		from:   []entity.AccStatus{entity.AccApproved},
		to:     entity.AccSold,
		change: entity.AccStatusChange{SoldAt: &soldAt},
		event:  entity.EventAccSold,
	})
	if err != nil {
		return nil, err
	}
	if err := uc.shopRepo.IncrementSales(ctx, acc.SellerID); err != nil {
		logger.Error("Failed to count sale of %s for shop %s: %v", acc.ID, acc.SellerID, err)
	}
	return acc, nil
}

type accMove struct {
	action     string
	from       []entity.AccStatus
	to         entity.AccStatus
	change     entity.AccStatusChange
	event      string
	reason     string
	idempotent bool
}

func (m accMove) allows(s entity.AccStatus) bool {
	for _, f := range m.from {
		if f == s {
			return true
		}
	}
	return false
}

func (uc *AccUseCase) transition(ctx context.Context, id string, m accMove) (*entity.Acc, error) {
	acc, err := uc.accRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.idempotent && acc.Status == m.to {
		return acc, nil
	}
	if !m.allows(acc.Status) {
		return nil, errors.InvalidTransition("acc", string(acc.Status), m.action)
	}

	ok, err := uc.accRepo.TransitionStatus(ctx, id, m.from, m.to, m.change)
	if err != nil {
		return nil, err
	}

	current, err := uc.accRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		if m.idempotent && current.Status == m.to {
			return current, nil
		}
		return nil, errors.InvalidTransition("acc", string(current.Status), m.action)
	}

	uc.emit(ctx, m.event, current, m.reason)
	return current, nil
}

// Edit applies an owner patch. A rejected acc goes back to PENDING, an
// approved one stays live, and a sold one cannot change. The write is
// conditional on the status read, so a concurrent moderation decision forces
// a re-read instead of being overwritten.
func (uc *AccUseCase) Edit(ctx context.Context, ownerID, id string, input EditAccInput) (*entity.Acc, error) {
	if _, err := uc.owned(ctx, ownerID, id); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < editAttempts; attempt++ {
		acc, err := uc.accRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if acc.Status == entity.AccSold {
			return nil, errors.ImmutableState("A sold listing cannot be edited")
		}

		patch, err := uc.buildPatch(ctx, acc, input)
		if err != nil {
			return nil, err
		}

		next := acc.Status
		if acc.Status == entity.AccRejected {
			next = entity.AccPending
		}
		ok, err := uc.accRepo.ApplyEdit(ctx, id, acc.Status, next, patch)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		updated, err := uc.accRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if acc.Status != next {
			uc.emit(ctx, entity.EventAccResubmitted, updated, "")
		}
		return updated, nil
	}
	return nil, errors.New(errors.CodeInvalidTransition, "The listing changed while saving, please retry", http.StatusConflict, nil)
}

// buildPatch validates the listing as it will look after the edit.
func (uc *AccUseCase) buildPatch(ctx context.Context, acc *entity.Acc, input EditAccInput) (entity.AccPatch, error) {
	patch := entity.AccPatch{
		Price:         input.Price,
		OriginalPrice: input.OriginalPrice,
		ClearOriginal: input.ClearOriginal,
		Images:        input.Images,
	}
	draft := service.ListingDraft{
		Title:         acc.Title,
		Description:   acc.Description,
		Price:         acc.Price,
		OriginalPrice: acc.OriginalPrice,
		Images:        acc.Images,
	}
	if input.Title != nil {
		t := strings.TrimSpace(*input.Title)
		patch.Title = &t
		draft.Title = t
	}
	if input.Description != nil {
		d := strings.TrimSpace(*input.Description)
		patch.Description = &d
		draft.Description = d
	}
	if input.Price != nil {
		draft.Price = *input.Price
	}
	if input.ClearOriginal {
		draft.OriginalPrice = nil
	} else if input.OriginalPrice != nil {
		draft.OriginalPrice = input.OriginalPrice
	}
	if input.Images != nil {
		draft.Images = input.Images
	}
	if err := service.ValidateListing(draft, uc.minDescription); err != nil {
		return entity.AccPatch{}, err
	}

	if input.GameID == nil && input.Attributes == nil {
		return patch, nil
	}
	gameID := acc.GameID
	if input.GameID != nil {
		gameID = *input.GameID
		patch.GameID = &gameID
	}
	game, err := uc.activeGame(ctx, gameID)
	if err != nil {
		return entity.AccPatch{}, err
	}
	attrs := input.Attributes
	if attrs == nil {
		attrs = acc.Attributes
	}
	normalised, err := service.ValidateAttributes(game, attrs)
	if err != nil {
		return entity.AccPatch{}, err
	}
	patch.Attributes = normalised
	return patch, nil
}

// RecordView adds one view with a store-side increment.
func (uc *AccUseCase) RecordView(ctx context.Context, id string) error {
	return uc.accRepo.IncrementViews(ctx, id)
}

// Delete hides the acc from every query but keeps the row, so sold records
// stay available as history.
func (uc *AccUseCase) Delete(ctx context.Context, ownerID, id string) error {
	acc, err := uc.owned(ctx, ownerID, id)
	if err != nil {
		return err
	}
	return uc.delete(ctx, acc)
}

func (uc *AccUseCase) DeleteByAdmin(ctx context.Context, id string) error {
	acc, err := uc.accRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return uc.delete(ctx, acc)
}

func (uc *AccUseCase) delete(ctx context.Context, acc *entity.Acc) error {
	if err := uc.accRepo.SoftDelete(ctx, acc.ID); err != nil {
		return err
	}
	uc.emit(ctx, entity.EventAccDeleted, acc, "")
	return nil
}

func (uc *AccUseCase) SetFlags(ctx context.Context, id string, flags entity.AccFlags) (*entity.Acc, error) {
	if flags.IsVip == nil && flags.IsHot == nil {
		return nil, errors.BadRequest("Nothing to update", nil)
	}
	if err := uc.accRepo.SetFlags(ctx, id, flags); err != nil {
		return nil, err
	}
	return uc.accRepo.GetByID(ctx, id)
}

func (uc *AccUseCase) GetForOwner(ctx context.Context, ownerID, id string) (*entity.Acc, error) {
	return uc.owned(ctx, ownerID, id)
}

func (uc *AccUseCase) GetByID(ctx context.Context, id string) (*entity.Acc, error) {
	return uc.accRepo.GetByID(ctx, id)
}

func (uc *AccUseCase) ListMine(ctx context.Context, ownerID string, status entity.AccStatus, limit, offset int) ([]*entity.Acc, int64, error) {
	if status != "" && !status.Valid() {
		return nil, 0, errors.Validation("status", "Unknown listing status")
	}
	shop, err := uc.shopRepo.GetByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, 0, err
	}
	return uc.accRepo.List(ctx, repository.AccFilter{SellerID: shop.ID, Status: status}, limit, offset)
}

func (uc *AccUseCase) ListForModeration(ctx context.Context, status entity.AccStatus, limit, offset int) ([]*entity.Acc, int64, error) {
	if status != "" && !status.Valid() {
		return nil, 0, errors.Validation("status", "Unknown listing status")
	}
	return uc.accRepo.List(ctx, repository.AccFilter{Status: status}, limit, offset)
}

func (uc *AccUseCase) emit(ctx context.Context, kind string, acc *entity.Acc, reason string) {
	publish(ctx, uc.events, entity.DomainEvent{
		Type:     kind,
		EntityID: acc.ID,
		ShopID:   acc.SellerID,
		Status:   string(acc.Status),
		Reason:   reason,
		At:       uc.now(),
	})
}
