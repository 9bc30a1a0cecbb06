package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/splitpay/split_wallet_service/db"
	"github.com/splitpay/split_wallet_service/entity"
	wrapErrors "github.com/splitpay/split_wallet_service/errors"
)

type SplitRepo struct {
	col *mongo.Collection
}

func NewSplitRepo() *SplitRepo {
	return &SplitRepo{col: db.MongoDB.SplitColl}
}

func (r *SplitRepo) Create(ctx context.Context, s *entity.Split) error {
	_, err := r.col.InsertOne(ctx, s)
	return wrapErrors.WrapWithCode(wrapErrors.CodeStorage, "insert split", err)
}

func (r *SplitRepo) GetByID(ctx context.Context, id string) (*entity.Split, error) {
	var s entity.Split
	err := r.col.FindOne(ctx, bson.M{"id": id}).Decode(&s)
	if err == mongo.ErrNoDocuments {
		return nil, wrapErrors.Newf(wrapErrors.CodeNotFound, "get split", "split %s not found", id)
	}
	if err != nil {
		return nil, wrapErrors.WrapWithCode(wrapErrors.CodeStorage, "get split", err)
	}
	return &s, nil
}

// AddParticipant records a participant on the split description. $addToSet
// keeps the call idempotent for repeated joins.
func (r *SplitRepo) AddParticipant(ctx context.Context, splitID, userID string) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"id": splitID}, bson.M{
		"$addToSet": bson.M{"participant_ids": userID},
		"$set":      bson.M{"updated_at": time.Now()},
	})
	if err != nil {
		return wrapErrors.WrapWithCode(wrapErrors.CodeStorage, "add split participant", err)
	}
	if res.MatchedCount == 0 {
		return wrapErrors.Newf(wrapErrors.CodeNotFound, "add split participant", "split %s not found", splitID)
	}
	return nil
}
