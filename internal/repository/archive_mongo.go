package repo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"goarena/internal/domain/game"
	errs "goarena/internal/errors"
)

const gamesCollection = "games"

type GameArchiveRepository struct {
	log   *zap.SugaredLogger
	mongo *mongo.Database
}

func NewGameArchiveRepository(log *zap.SugaredLogger, mongo *mongo.Database) *GameArchiveRepository {
	return &GameArchiveRepository{
		log:   log,
		mongo: mongo,
	}
}

func (g *GameArchiveRepository) SaveRecord(ctx context.Context, rec game.Record) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	collection := g.mongo.Collection(gamesCollection)
	_, err := collection.ReplaceOne(ctx, bson.M{"_id": rec.GameID}, rec, options.Replace().SetUpsert(true))
	if err != nil {
		g.log.Errorw("failed to archive game", "game_id", rec.GameID, "error", err)
		return err
	}
	return nil
}

func (g *GameArchiveRepository) FindRecord(ctx context.Context, gameID string) (game.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var rec game.Record
	err := g.mongo.Collection(gamesCollection).FindOne(ctx, bson.M{"_id": gameID}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return game.Record{}, errs.ErrGameNotFound
	}
	if err != nil {
		return game.Record{}, err
	}
	return rec, nil
}
