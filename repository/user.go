package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/splitpay/split_wallet_service/db"
	"github.com/splitpay/split_wallet_service/entity"
	wrapErrors "github.com/splitpay/split_wallet_service/errors"
)

type UserRepo struct {
	col *mongo.Collection
}

func NewUserRepo() *UserRepo {
	return &UserRepo{col: db.MongoDB.UserColl}
}

func (r *UserRepo) Create(ctx context.Context, u *entity.UserProfile) error {
	_, err := r.col.InsertOne(ctx, u)
	return wrapErrors.WrapWithCode(wrapErrors.CodeStorage, "insert user", err)
}

func (r *UserRepo) GetByUserID(ctx context.Context, userID string) (*entity.UserProfile, error) {
	var u entity.UserProfile
	err := r.col.FindOne(ctx, bson.M{"user_id": userID}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, wrapErrors.Newf(wrapErrors.CodeNotFound, "get user", "user %s not found", userID)
	}
	if err != nil {
		return nil, wrapErrors.WrapWithCode(wrapErrors.CodeStorage, "get user", err)
	}
	return &u, nil
}
