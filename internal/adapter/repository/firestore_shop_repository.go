package repository

import (
	"context"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"

	"accmarket/internal/domain/entity"
	"accmarket/internal/domain/repository"
	"accmarket/pkg/errors"
	"accmarket/pkg/utils"
)

type firestoreShopRepository struct {
	firestoreStore
}

func NewFirestoreShopRepository(client *firestore.Client, retry Retrier) repository.ShopRepository {
	return &firestoreShopRepository{firestoreStore{client: client, retry: retry}}
}

func (r *firestoreShopRepository) Create(ctx context.Context, shop *entity.Shop) error {
	if shop.ID == "" {
		shop.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	shop.CreatedAt = now
	shop.UpdatedAt = now

	ownerRef := r.client.Collection(colShopOwners).Doc(shop.OwnerID)
	slugRef := r.client.Collection(colShopSlugs).Doc(shop.Slug)
	shopRef := r.client.Collection(colShops).Doc(shop.ID)

	err := r.write(ctx, "create shop", func(ctx context.Context) error {
		return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
			taken, err := exists(tx, ownerRef)
			if err != nil {
				return err
			}
			if taken {
				return errors.DuplicateShop()
			}
			if taken, err = exists(tx, slugRef); err != nil {
				return err
			}
			if taken {
				return errors.SlugCollision(shop.Slug)
			}
			if err := tx.Create(ownerRef, reservation{EntityID: shop.ID}); err != nil {
				return err
			}
			if err := tx.Create(slugRef, reservation{EntityID: shop.ID}); err != nil {
				return err
			}
			return tx.Create(shopRef, shop)
		})
	})
	if err != nil {
		return fsErr("Shop", "Failed to create shop", err)
	}
	return nil
}

func (r *firestoreShopRepository) GetByID(ctx context.Context, id string) (*entity.Shop, error) {
	var shop entity.Shop
	err := r.do(ctx, "get shop", func(ctx context.Context) error {
		doc, err := r.client.Collection(colShops).Doc(id).Get(ctx)
		if err != nil {
			return err
		}
		return doc.DataTo(&shop)
	})
	if err != nil {
		return nil, fsErr("Shop", "Failed to get shop", err)
	}
	return &shop, nil
}

func (r *firestoreShopRepository) findOne(ctx context.Context, field, value string) (*entity.Shop, error) {
	var shops []*entity.Shop
	err := r.do(ctx, "find shop", func(ctx context.Context) error {
		var err error
		shops, err = collect[entity.Shop](r.client.Collection(colShops).Where(field, "==", value).Limit(1).Documents(ctx))
		return err
	})
	if err != nil {
		return nil, fsErr("Shop", "Failed to query shop", err)
	}
	if len(shops) == 0 {
		return nil, errors.NotFound("Shop", nil)
	}
	return shops[0], nil
}

func (r *firestoreShopRepository) GetBySlug(ctx context.Context, slug string) (*entity.Shop, error) {
	return r.findOne(ctx, "slug", slug)
}

func (r *firestoreShopRepository) GetByOwnerID(ctx context.Context, ownerID string) (*entity.Shop, error) {
	return r.findOne(ctx, "ownerId", ownerID)
}

func (r *firestoreShopRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*entity.Shop, error) {
	out := make(map[string]*entity.Shop, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	refs := make([]*firestore.DocumentRef, len(ids))
	for i, id := range ids {
		refs[i] = r.client.Collection(colShops).Doc(id)
	}

	err := r.do(ctx, "get shops", func(ctx context.Context) error {
		docs, err := r.client.GetAll(ctx, refs)
		if err != nil {
			return err
		}
		for _, doc := range docs {
			if !doc.Exists() {
				continue
			}
			var shop entity.Shop
			if err := doc.DataTo(&shop); err != nil {
				return err
			}
			out[shop.ID] = &shop
		}
		return nil
	})
	if err != nil {
		return nil, fsErr("Shop", "Failed to get shops", err)
	}
	return out, nil
}

// query loads shops filtered by status and sorts them by creation time in
// memory, which avoids a composite index per status.
func (r *firestoreShopRepository) query(ctx context.Context, status entity.ShopStatus) ([]*entity.Shop, error) {
	q := r.client.Collection(colShops).Query
	if status != "" {
		q = q.Where("status", "==", string(status))
	}
	var shops []*entity.Shop
	err := r.do(ctx, "list shops", func(ctx context.Context) error {
		var err error
		shops, err = collect[entity.Shop](q.Documents(ctx))
		return err
	})
	if err != nil {
		return nil, fsErr("Shop", "Failed to list shops", err)
	}
	sort.SliceStable(shops, func(i, j int) bool {
		if !shops[i].CreatedAt.Equal(shops[j].CreatedAt) {
			return shops[i].CreatedAt.Before(shops[j].CreatedAt)
		}
		return shops[i].ID < shops[j].ID
	})
	return shops, nil
}

func (r *firestoreShopRepository) List(ctx context.Context, filter repository.ShopFilter) ([]*entity.Shop, int64, error) {
	shops, err := r.query(ctx, filter.Status)
	if err != nil {
		return nil, 0, err
	}
	total := int64(len(shops))
	if filter.Limit > 0 {
		shops = utils.Window(shops, filter.Offset, filter.Limit)
	}
	return shops, total, nil
}

func (r *firestoreShopRepository) ListApproved(ctx context.Context) ([]*entity.Shop, error) {
	return r.query(ctx, entity.ShopApproved)
}

func (r *firestoreShopRepository) update(ctx context.Context, op, id string, updates []firestore.Update) error {
	updates = append(updates, firestore.Update{Path: "updatedAt", Value: time.Now().UTC()})
	err := r.write(ctx, op, func(ctx context.Context) error {
		_, err := r.client.Collection(colShops).Doc(id).Update(ctx, updates)
		return err
	})
	if err != nil {
		return fsErr("Shop", "Failed to update shop", err)
	}
	return nil
}

func (r *firestoreShopRepository) UpdateProfile(ctx context.Context, id string, profile entity.ShopProfile) error {
	var updates []firestore.Update
	if profile.Description != nil {
		updates = append(updates, firestore.Update{Path: "description", Value: *profile.Description})
	}
	if profile.AvatarURL != nil {
		updates = append(updates, firestore.Update{Path: "avatarUrl", Value: *profile.AvatarURL})
	}
	if profile.CoverURL != nil {
		updates = append(updates, firestore.Update{Path: "coverUrl", Value: *profile.CoverURL})
	}
	return r.update(ctx, "update shop profile", id, updates)
}

func (r *firestoreShopRepository) TransitionStatus(ctx context.Context, id string, from []entity.ShopStatus, to entity.ShopStatus, change entity.ShopStatusChange) (bool, error) {
	ref := r.client.Collection(colShops).Doc(id)
	var matched bool

	err := r.write(ctx, "transition shop", func(ctx context.Context) error {
		return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
			matched = false
			doc, err := tx.Get(ref)
			if err != nil {
				return err
			}
			var shop entity.Shop
			if err := doc.DataTo(&shop); err != nil {
				return err
			}
			if !containsShopStatus(from, shop.Status) {
				return nil
			}

			updates := []firestore.Update{
				{Path: "status", Value: string(to)},
				{Path: "updatedAt", Value: time.Now().UTC()},
			}
			if change.RejectReason != nil {
				updates = append(updates, firestore.Update{Path: "rejectReason", Value: *change.RejectReason})
			}
			if change.ApprovedAt != nil {
				updates = append(updates, firestore.Update{Path: "approvedAt", Value: *change.ApprovedAt})
			}
			matched = true
			return tx.Update(ref, updates)
		})
	})
	if err != nil {
		return false, fsErr("Shop", "Failed to update shop status", err)
	}
	return matched, nil
}

func containsShopStatus(set []entity.ShopStatus, s entity.ShopStatus) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

func (r *firestoreShopRepository) SetVerified(ctx context.Context, id string, verified bool) error {
	return r.update(ctx, "set shop verified", id, []firestore.Update{
		{Path: "isVerified", Value: verified},
	})
}

func (r *firestoreShopRepository) SetVIP(ctx context.Context, id string, active bool, endTime *time.Time) error {
	var end interface{}
	if endTime != nil {
		end = *endTime
	}
	return r.update(ctx, "set shop vip", id, []firestore.Update{
		{Path: "isVipShop", Value: active},
		{Path: "vipShopEndTime", Value: end},
	})
}

func (r *firestoreShopRepository) SetPartner(ctx context.Context, id string, partner bool, tier string, since *time.Time) error {
	var s interface{}
	if since != nil {
		s = *since
	}
	return r.update(ctx, "set shop partner", id, []firestore.Update{
		{Path: "isStrategicPartner", Value: partner},
		{Path: "partnerTier", Value: tier},
		{Path: "partnerSince", Value: s},
	})
}

func (r *firestoreShopRepository) IncrementViews(ctx context.Context, id string) error {
	return r.update(ctx, "increment shop views", id, []firestore.Update{
		{Path: "totalViews", Value: firestore.Increment(1)},
	})
}

func (r *firestoreShopRepository) IncrementSales(ctx context.Context, id string) error {
	return r.update(ctx, "increment shop sales", id, []firestore.Update{
		{Path: "totalSales", Value: firestore.Increment(1)},
	})
}
