package repository

import (
	"context"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"

	"accmarket/internal/domain/entity"
	"accmarket/internal/domain/repository"
	"accmarket/pkg/errors"
	"accmarket/pkg/utils"
)

type firestoreAccRepository struct {
	firestoreStore
	shops repository.ShopRepository
}

func NewFirestoreAccRepository(client *firestore.Client, retry Retrier) repository.AccRepository {
	store := firestoreStore{client: client, retry: retry}
	return &firestoreAccRepository{
		firestoreStore: store,
		shops:          &firestoreShopRepository{store},
	}
}

func (r *firestoreAccRepository) Create(ctx context.Context, acc *entity.Acc) error {
	if acc.ID == "" {
		acc.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	acc.CreatedAt = now
	acc.UpdatedAt = now

	slugRef := r.client.Collection(colAccSlugs).Doc(acc.Slug)
	accRef := r.client.Collection(colAccs).Doc(acc.ID)

	err := r.write(ctx, "create acc", func(ctx context.Context) error {
		return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
			taken, err := exists(tx, slugRef)
			if err != nil {
				return err
			}
			if taken {
				return errors.SlugCollision(acc.Slug)
			}
			if err := tx.Create(slugRef, reservation{EntityID: acc.ID}); err != nil {
				return err
			}
			return tx.Create(accRef, acc)
		})
	})
	if err != nil {
		return fsErr("Acc", "Failed to create acc", err)
	}
	return nil
}

func (r *firestoreAccRepository) GetByID(ctx context.Context, id string) (*entity.Acc, error) {
	var acc entity.Acc
	err := r.do(ctx, "get acc", func(ctx context.Context) error {
		doc, err := r.client.Collection(colAccs).Doc(id).Get(ctx)
		if err != nil {
			return err
		}
		return doc.DataTo(&acc)
	})
	if err != nil {
		return nil, fsErr("Acc", "Failed to get acc", err)
	}
	if acc.Deleted {
		return nil, errors.NotFound("Acc", nil)
	}
	return &acc, nil
}

func (r *firestoreAccRepository) GetBySlug(ctx context.Context, slug string) (*entity.Acc, error) {
	accs, err := r.query(ctx, r.client.Collection(colAccs).Where("slug", "==", slug).Limit(1))
	if err != nil {
		return nil, err
	}
	if len(accs) == 0 {
		return nil, errors.NotFound("Acc", nil)
	}
	return accs[0], nil
}

// query runs q and drops soft-deleted documents.
func (r *firestoreAccRepository) query(ctx context.Context, q firestore.Query) ([]*entity.Acc, error) {
	var docs []*entity.Acc
	err := r.do(ctx, "query accs", func(ctx context.Context) error {
		var err error
		docs, err = collect[entity.Acc](q.Documents(ctx))
		return err
	})
	if err != nil {
		return nil, fsErr("Acc", "Failed to query accs", err)
	}
	out := docs[:0]
	for _, a := range docs {
		if !a.Deleted {
			out = append(out, a)
		}
	}
	return out, nil
}

// filtered applies equality filters in the query and the rest in memory.
func (r *firestoreAccRepository) filtered(ctx context.Context, filter repository.AccFilter) ([]*entity.Acc, error) {
	q := r.client.Collection(colAccs).Query
	if filter.GameID != "" {
		q = q.Where("gameId", "==", filter.GameID)
	}
	if filter.SellerID != "" {
		q = q.Where("sellerId", "==", filter.SellerID)
	}
	if filter.Status != "" {
		q = q.Where("status", "==", string(filter.Status))
	}
	accs, err := r.query(ctx, q)
	if err != nil {
		return nil, err
	}

	text := strings.ToLower(strings.TrimSpace(filter.Query))
	out := accs[:0]
	for _, a := range accs {
		if filter.MinPrice > 0 && a.Price < filter.MinPrice {
			continue
		}
		if filter.MaxPrice > 0 && a.Price > filter.MaxPrice {
			continue
		}
		if text != "" && !strings.Contains(strings.ToLower(a.Title), text) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func sortAccsByCreation(accs []*entity.Acc, desc bool) {
	sort.SliceStable(accs, func(i, j int) bool {
		a, b := accs[i], accs[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			if desc {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

func (r *firestoreAccRepository) ListPublic(ctx context.Context, filter repository.AccFilter) ([]*entity.Acc, error) {
	filter.Status = entity.AccApproved
	accs, err := r.filtered(ctx, filter)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(accs))
	seen := map[string]bool{}
	for _, a := range accs {
		if !seen[a.SellerID] {
			seen[a.SellerID] = true
			ids = append(ids, a.SellerID)
		}
	}
	shops, err := r.shops.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]*entity.Acc, 0, len(accs))
	for _, a := range accs {
		if entity.IsPubliclyVisible(a, shops[a.SellerID]) {
			out = append(out, a)
		}
	}
	sortAccsByCreation(out, false)
	return out, nil
}

func (r *firestoreAccRepository) List(ctx context.Context, filter repository.AccFilter, limit, offset int) ([]*entity.Acc, int64, error) {
	accs, err := r.filtered(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	sortAccsByCreation(accs, true)
	total := int64(len(accs))
	if limit > 0 {
		accs = utils.Window(accs, offset, limit)
	}
	return accs, total, nil
}

func (r *firestoreAccRepository) CountByStatus(ctx context.Context, sellerID string) (map[entity.AccStatus]int64, error) {
	accs, err := r.query(ctx, r.client.Collection(colAccs).Where("sellerId", "==", sellerID))
	if err != nil {
		return nil, err
	}
	out := map[entity.AccStatus]int64{
		entity.AccPending:  0,
		entity.AccApproved: 0,
		entity.AccRejected: 0,
		entity.AccSold:     0,
	}
	for _, a := range accs {
		out[a.Status]++
	}
	return out, nil
}

// casUpdate applies updates only while the stored status is in from.
func (r *firestoreAccRepository) casUpdate(ctx context.Context, op, id string, from []entity.AccStatus, updates []firestore.Update) (bool, error) {
	ref := r.client.Collection(colAccs).Doc(id)
	var matched bool

	err := r.write(ctx, op, func(ctx context.Context) error {
		return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
			matched = false
			doc, err := tx.Get(ref)
			if err != nil {
				return err
			}
			var acc entity.Acc
			if err := doc.DataTo(&acc); err != nil {
				return err
			}
			if acc.Deleted || !containsAccStatus(from, acc.Status) {
				return nil
			}
			matched = true
			return tx.Update(ref, updates)
		})
	})
	if err != nil {
		return false, fsErr("Acc", "Failed to update acc", err)
	}
	return matched, nil
}

func containsAccStatus(set []entity.AccStatus, s entity.AccStatus) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

func (r *firestoreAccRepository) ApplyEdit(ctx context.Context, id string, expected, next entity.AccStatus, patch entity.AccPatch) (bool, error) {
	updates := []firestore.Update{
		{Path: "status", Value: string(next)},
		{Path: "updatedAt", Value: time.Now().UTC()},
	}
	if patch.GameID != nil {
		updates = append(updates, firestore.Update{Path: "gameId", Value: *patch.GameID})
	}
	if patch.Title != nil {
		updates = append(updates, firestore.Update{Path: "title", Value: *patch.Title})
	}
	if patch.Description != nil {
		updates = append(updates, firestore.Update{Path: "description", Value: *patch.Description})
	}
	if patch.Price != nil {
		updates = append(updates, firestore.Update{Path: "price", Value: *patch.Price})
	}
	if patch.ClearOriginal {
		updates = append(updates, firestore.Update{Path: "originalPrice", Value: firestore.Delete})
	} else if patch.OriginalPrice != nil {
		updates = append(updates, firestore.Update{Path: "originalPrice", Value: *patch.OriginalPrice})
	}
	if patch.Images != nil {
		updates = append(updates, firestore.Update{Path: "images", Value: patch.Images})
	}
	if patch.Attributes != nil {
		updates = append(updates, firestore.Update{Path: "attributes", Value: patch.Attributes})
	}
	return r.casUpdate(ctx, "edit acc", id, []entity.AccStatus{expected}, updates)
}

func (r *firestoreAccRepository) TransitionStatus(ctx context.Context, id string, from []entity.AccStatus, to entity.AccStatus, change entity.AccStatusChange) (bool, error) {
	updates := []firestore.Update{
		{Path: "status", Value: string(to)},
		{Path: "updatedAt", Value: time.Now().UTC()},
	}
	if change.AdminNote != nil {
		updates = append(updates, firestore.Update{Path: "adminNote", Value: *change.AdminNote})
	}
	if change.SoldAt != nil {
		updates = append(updates, firestore.Update{Path: "soldAt", Value: *change.SoldAt})
	}
	return r.casUpdate(ctx, "transition acc", id, from, updates)
}

func (r *firestoreAccRepository) update(ctx context.Context, op, id string, updates []firestore.Update) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	err := r.write(ctx, op, func(ctx context.Context) error {
		_, err := r.client.Collection(colAccs).Doc(id).Update(ctx, updates)
		return err
	})
	if err != nil {
		return fsErr("Acc", "Failed to update acc", err)
	}
	return nil
}

func (r *firestoreAccRepository) SetFlags(ctx context.Context, id string, flags entity.AccFlags) error {
	updates := []firestore.Update{{Path: "updatedAt", Value: time.Now().UTC()}}
	if flags.IsVip != nil {
		updates = append(updates, firestore.Update{Path: "isVip", Value: *flags.IsVip})
	}
	if flags.IsHot != nil {
		updates = append(updates, firestore.Update{Path: "isHot", Value: *flags.IsHot})
	}
	return r.update(ctx, "set acc flags", id, updates)
}

func (r *firestoreAccRepository) IncrementViews(ctx context.Context, id string) error {
	return r.update(ctx, "increment acc views", id, []firestore.Update{
		{Path: "views", Value: firestore.Increment(1)},
	})
}

func (r *firestoreAccRepository) SoftDelete(ctx context.Context, id string) error {
	return r.update(ctx, "delete acc", id, []firestore.Update{
		{Path: "deleted", Value: true},
		{Path: "updatedAt", Value: time.Now().UTC()},
	})
}
