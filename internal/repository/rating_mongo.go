package repo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	ratingDomain "goarena/internal/domain/rating"
)

const ratingsCollection = "ratings"

type ratingDoc struct {
	Identity  string    `bson:"_id"`
	Rating    int       `bson:"rating"`
	Highest   int       `bson:"highest"`
	Games     int       `bson:"games"`
	Wins      int       `bson:"wins"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// RatingRepository keeps player ratings next to the game archive.
type RatingRepository struct {
	log   *zap.SugaredLogger
	mongo *mongo.Database
}

func NewRatingRepository(log *zap.SugaredLogger, mongo *mongo.Database) *RatingRepository {
	return &RatingRepository{
		log:   log,
		mongo: mongo,
	}
}

func (r *RatingRepository) GetRating(ctx context.Context, identity string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var doc ratingDoc
	err := r.mongo.Collection(ratingsCollection).FindOne(ctx, bson.M{"_id": identity}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ratingDomain.Default, nil
	}
	if err != nil {
		return 0, err
	}
	return doc.Rating, nil
}

// SaveRating stores the new rating and counts the game.
func (r *RatingRepository) SaveRating(ctx context.Context, identity string, rating int, won bool) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	wins := 0
	if won {
		wins = 1
	}
	update := bson.M{
		"$set": bson.M{"rating": rating, "updated_at": time.Now().UTC()},
		"$max": bson.M{"highest": rating},
		"$inc": bson.M{"games": 1, "wins": wins},
	}
	_, err := r.mongo.Collection(ratingsCollection).UpdateOne(ctx, bson.M{"_id": identity}, update, options.Update().SetUpsert(true))
	if err != nil {
		r.log.Errorw("failed to save rating", "identity", identity, "error", err)
		return err
	}
	return nil
}
