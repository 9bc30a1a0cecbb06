/*
split_wallets collection. One document per bill split; participants are
embedded. Every participant/status write is conditional on the version
read (optimistic concurrency) so concurrent payments cannot silently
discard each other.
*/
package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/splitpay/split_wallet_service/db"
	"github.com/splitpay/split_wallet_service/entity"
	wrapErrors "github.com/splitpay/split_wallet_service/errors"
)

type SplitWalletRepo struct {
	col *mongo.Collection
}

func NewSplitWalletRepo() *SplitWalletRepo {
	return &SplitWalletRepo{col: db.MongoDB.SplitWalletColl}
}

// NewSplitWalletRepoWithCollection is used by the index bootstrap script
// and tests that bring their own collection handle.
func NewSplitWalletRepoWithCollection(col *mongo.Collection) *SplitWalletRepo {
	return &SplitWalletRepo{col: col}
}

// idFilter matches on the service-assigned id, or on the storage _id when
// the caller happens to hold the ObjectID hex instead.
func idFilter(id string) bson.M {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{"$or": bson.A{bson.M{"id": id}, bson.M{"_id": oid}}}
	}
	return bson.M{"id": id}
}

func (r *SplitWalletRepo) Create(ctx context.Context, w *entity.SplitWallet) (string, error) {
	res, err := r.col.InsertOne(ctx, w)
	if err != nil {
		return "", wrapErrors.WrapWithCode(wrapErrors.CodeStorage, "insert split wallet", err)
	}
	objectID := res.InsertedID.(primitive.ObjectID)
	w.StorageID = objectID
	return objectID.Hex(), nil
}

func (r *SplitWalletRepo) GetByID(ctx context.Context, id string) (*entity.SplitWallet, error) {
	var w entity.SplitWallet
	err := r.col.FindOne(ctx, idFilter(id)).Decode(&w)
	if err == mongo.ErrNoDocuments {
		return nil, wrapErrors.Newf(wrapErrors.CodeNotFound, "get split wallet", "wallet %s not found", id)
	}
	if err != nil {
		return nil, wrapErrors.WrapWithCode(wrapErrors.CodeStorage, "get split wallet", err)
	}
	return &w, nil
}

func (r *SplitWalletRepo) GetByBillID(ctx context.Context, billID string) (*entity.SplitWallet, error) {
	var w entity.SplitWallet
	err := r.col.FindOne(ctx, bson.M{"bill_id": billID}).Decode(&w)
	if err == mongo.ErrNoDocuments {
		return nil, wrapErrors.Newf(wrapErrors.CodeNotFound, "get split wallet by bill", "no wallet for bill %s", billID)
	}
	if err != nil {
		return nil, wrapErrors.WrapWithCode(wrapErrors.CodeStorage, "get split wallet by bill", err)
	}
	return &w, nil
}

// UpdateParticipants writes the full participant list back, conditional on
// the version the caller read. A missed match on an existing wallet means
// a concurrent writer advanced the version first.
func (r *SplitWalletRepo) UpdateParticipants(ctx context.Context, id string, participants []entity.Participant, version int64) error {
	filter := idFilter(id)
	filter["version"] = version
	res, err := r.col.UpdateOne(ctx, filter, bson.M{
		"$set": bson.M{"participants": participants, "updated_at": time.Now()},
		"$inc": bson.M{"version": 1},
	})
	if err != nil {
		return wrapErrors.WrapWithCode(wrapErrors.CodeStorage, "update participants", err)
	}
	if res.MatchedCount == 0 {
		return wrapErrors.Newf(wrapErrors.CodeVersionConflict, "update participants", "wallet %s changed since read", id)
	}
	return nil
}

// UpdateStatus transitions the wallet status, conditional on version.
func (r *SplitWalletRepo) UpdateStatus(ctx context.Context, id string, status entity.WalletStatus, version int64) error {
	filter := idFilter(id)
	filter["version"] = version
	res, err := r.col.UpdateOne(ctx, filter, bson.M{
		"$set": bson.M{"status": status, "updated_at": time.Now()},
		"$inc": bson.M{"version": 1},
	})
	if err != nil {
		return wrapErrors.WrapWithCode(wrapErrors.CodeStorage, "update status", err)
	}
	if res.MatchedCount == 0 {
		return wrapErrors.Newf(wrapErrors.CodeVersionConflict, "update status", "wallet %s changed since read", id)
	}
	return nil
}

// UpdateTotalAmount rewrites the canonical total (migration path).
func (r *SplitWalletRepo) UpdateTotalAmount(ctx context.Context, id string, total float64, version int64) error {
	filter := idFilter(id)
	filter["version"] = version
	res, err := r.col.UpdateOne(ctx, filter, bson.M{
		"$set": bson.M{"total_amount": total, "updated_at": time.Now()},
		"$inc": bson.M{"version": 1},
	})
	if err != nil {
		return wrapErrors.WrapWithCode(wrapErrors.CodeStorage, "update total amount", err)
	}
	if res.MatchedCount == 0 {
		return wrapErrors.Newf(wrapErrors.CodeVersionConflict, "update total amount", "wallet %s changed since read", id)
	}
	return nil
}
