package repository

import (
	"context"
	stderrors "errors"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"accmarket/pkg/errors"
)

// Reservation collections hold one document per unique key. Creating the
// reservation and the entity in one transaction is how uniqueness is
// enforced in the document store.
const (
	colShops      = "shops"
	colAccs       = "accs"
	colGames      = "games"
	colReviews    = "reviews"
	colShopOwners = "shop_owners"
	colShopSlugs  = "shop_slugs"
	colAccSlugs   = "acc_slugs"
	colGameSlugs  = "game_slugs"
)

type reservation struct {
	EntityID string `firestore:"entityId"`
}

type firestoreStore struct {
	client *firestore.Client
	retry  Retrier
}

func (s firestoreStore) do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	return s.retry.Do(ctx, op, fn)
}

func (s firestoreStore) write(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	return s.retry.DoWrite(ctx, op, fn)
}

// exists reads a document inside a transaction and reports whether it is there.
func exists(tx *firestore.Transaction, ref *firestore.DocumentRef) (bool, error) {
	doc, err := tx.Get(ref)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return false, nil
		}
		return false, err
	}
	return doc.Exists(), nil
}

// fsErr maps a firestore failure to the application error taxonomy.
func fsErr(resource, message string, err error) error {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return err
	}
	if status.Code(err) == codes.NotFound {
		return errors.NotFound(resource, err)
	}
	return errors.Internal(message, err)
}

// collect drains an iterator into typed values.
func collect[T any](iter *firestore.DocumentIterator) ([]*T, error) {
	defer iter.Stop()
	var out []*T
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		var v T
		if err := doc.DataTo(&v); err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
}
