package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"accmarket/internal/domain/entity"
	"accmarket/internal/domain/repository"
	"accmarket/pkg/errors"
)

// newFirestoreStores connects to the emulator under a fresh project id so
// every test starts from an empty database.
func newFirestoreStores(t *testing.T) stores {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	client, err := firestore.NewClient(context.Background(), "accmarket-test-"+uuid.NewString()[:8])
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	retry := NewRetrier(1, time.Millisecond)
	return stores{
		shops:   NewFirestoreShopRepository(client, retry),
		accs:    NewFirestoreAccRepository(client, retry),
		reviews: NewFirestoreReviewRepository(client, retry),
		games:   NewFirestoreGameRepository(client, retry),
	}
}

func TestFirestoreShopRepository_UniqueConstraints(t *testing.T) {
	s := newFirestoreStores(t)
	ctx := context.Background()
	seedShop(t, s, "u1", entity.ShopPending)

	err := s.shops.Create(ctx, &entity.Shop{OwnerID: "u1", Name: "Other", Slug: "other", Status: entity.ShopPending})
	assert.True(t, errors.Is(err, errors.CodeDuplicateShop), "got %v", err)

	err = s.shops.Create(ctx, &entity.Shop{OwnerID: "u2", Name: "Shop u1", Slug: "shop-u1", Status: entity.ShopPending})
	assert.True(t, errors.Is(err, errors.CodeSlugCollision), "got %v", err)

	_, err = s.shops.GetByOwnerID(ctx, "u2")
	assert.True(t, errors.Is(err, errors.CodeNotFound), "rejected create must not leave an owner reservation")
}

func TestFirestoreShopRepository_TransitionStatusIsConditional(t *testing.T) {
	s := newFirestoreStores(t)
	ctx := context.Background()
	shop := seedShop(t, s, "u1", entity.ShopPending)

	now := time.Now().UTC()
	ok, err := s.shops.TransitionStatus(ctx, shop.ID, []entity.ShopStatus{entity.ShopPending}, entity.ShopApproved, entity.ShopStatusChange{ApprovedAt: &now})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.shops.TransitionStatus(ctx, shop.ID, []entity.ShopStatus{entity.ShopPending}, entity.ShopRejected, entity.ShopStatusChange{})
	require.NoError(t, err)
	assert.False(t, ok, "status is no longer PENDING")

	got, err := s.shops.GetByID(ctx, shop.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ShopApproved, got.Status)
	require.NotNil(t, got.ApprovedAt)
}

func TestFirestoreAccRepository_MarkSoldSucceedsOnce(t *testing.T) {
	s := newFirestoreStores(t)
	ctx := context.Background()
	shop := seedShop(t, s, "u1", entity.ShopApproved)
	acc := seedAcc(t, s, shop, "a1", entity.AccApproved)

	const callers = 5
	results := make([]bool, callers)
	var g errgroup.Group
	for i := 0; i < callers; i++ {
		g.Go(func() error {
			soldAt := time.Now().UTC()
			ok, err := s.accs.TransitionStatus(ctx, acc.ID, []entity.AccStatus{entity.AccApproved}, entity.AccSold, entity.AccStatusChange{SoldAt: &soldAt})
			results[i] = ok
			return err
		})
	}
	require.NoError(t, g.Wait())

	won := 0
	for _, ok := range results {
		if ok {
			won++
		}
	}
	assert.Equal(t, 1, won)

	got, err := s.accs.GetByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.AccSold, got.Status)
	assert.NotNil(t, got.SoldAt)
}

func TestFirestoreAccRepository_ApplyEditIsConditional(t *testing.T) {
	s := newFirestoreStores(t)
	ctx := context.Background()
	shop := seedShop(t, s, "u1", entity.ShopApproved)
	acc := seedAcc(t, s, shop, "a1", entity.AccRejected)

	price := int64(90000)
	ok, err := s.accs.ApplyEdit(ctx, acc.ID, entity.AccApproved, entity.AccApproved, entity.AccPatch{Price: &price})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.accs.ApplyEdit(ctx, acc.ID, entity.AccRejected, entity.AccPending, entity.AccPatch{Price: &price})
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := s.accs.GetByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.AccPending, got.Status)
	assert.Equal(t, price, got.Price)
}

func TestFirestoreAccRepository_ConcurrentViewsAreNotLost(t *testing.T) {
	s := newFirestoreStores(t)
	ctx := context.Background()
	shop := seedShop(t, s, "u1", entity.ShopApproved)
	acc := seedAcc(t, s, shop, "a1", entity.AccApproved)

	var g errgroup.Group
	for i := 0; i < 50; i++ {
		g.Go(func() error { return s.accs.IncrementViews(ctx, acc.ID) })
	}
	require.NoError(t, g.Wait())

	got, err := s.accs.GetByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), got.Views)
}

func TestFirestoreAccRepository_SoftDeleteHidesEverywhere(t *testing.T) {
	s := newFirestoreStores(t)
	ctx := context.Background()
	shop := seedShop(t, s, "u1", entity.ShopApproved)
	kept := seedAcc(t, s, shop, "a1", entity.AccApproved)
	gone := seedAcc(t, s, shop, "a2", entity.AccApproved)

	require.NoError(t, s.accs.SoftDelete(ctx, gone.ID))

	_, err := s.accs.GetByID(ctx, gone.ID)
	assert.True(t, errors.Is(err, errors.CodeNotFound), "got %v", err)
	_, err = s.accs.GetBySlug(ctx, gone.Slug)
	assert.True(t, errors.Is(err, errors.CodeNotFound), "got %v", err)

	accs, err := s.accs.ListPublic(ctx, repository.AccFilter{})
	require.NoError(t, err)
	require.Len(t, accs, 1)
	assert.Equal(t, kept.ID, accs[0].ID)
}

func TestFirestoreAccRepository_ListPublicRequiresApprovedShop(t *testing.T) {
	s := newFirestoreStores(t)
	ctx := context.Background()
	good := seedShop(t, s, "u1", entity.ShopApproved)
	hidden := seedShop(t, s, "u2", entity.ShopRejected)

	live := seedAcc(t, s, good, "a1", entity.AccApproved)
	seedAcc(t, s, good, "a2", entity.AccPending)
	seedAcc(t, s, hidden, "a3", entity.AccApproved)

	accs, err := s.accs.ListPublic(ctx, repository.AccFilter{})
	require.NoError(t, err)
	require.Len(t, accs, 1)
	assert.Equal(t, live.ID, accs[0].ID)
}
