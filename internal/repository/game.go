package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/thud-backend/internal/apperror"
	"github.com/rocketscienceinc/thud-backend/internal/thud"
)

type GameRepository interface {
	CreateOrUpdate(ctx context.Context, snapshot thud.Snapshot) error
	GetByID(ctx context.Context, id string) (thud.Snapshot, error)
	DeleteByID(ctx context.Context, id string) error
}

type dbGame struct {
	client *redis.Client
}

func NewGameRepository(client *redis.Client) GameRepository {
	return &dbGame{
		client: client,
	}
}

func gameKey(id string) string {
	return "game:" + id
}

func (that *dbGame) CreateOrUpdate(ctx context.Context, snapshot thud.Snapshot) error {
	gameJSON, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("could not marshal game: %w", err)
	}

	if err = that.client.Set(ctx, gameKey(snapshot.ID), gameJSON, 0).Err(); err != nil {
		return fmt.Errorf("failed to set game: %w", err)
	}

	return nil
}

func (that *dbGame) GetByID(ctx context.Context, id string) (thud.Snapshot, error) {
	response, err := that.client.Get(ctx, gameKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return thud.Snapshot{}, apperror.ErrGameNotFound
	}

	if err != nil {
		return thud.Snapshot{}, fmt.Errorf("failed to get game by id: %w", err)
	}

	var snapshot thud.Snapshot
	if err = json.Unmarshal(response, &snapshot); err != nil {
		return thud.Snapshot{}, fmt.Errorf("%w: %w", apperror.ErrCorruptSnapshot, err)
	}

	return snapshot, nil
}

func (that *dbGame) DeleteByID(ctx context.Context, id string) error {
	deleted, err := that.client.Del(ctx, gameKey(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete game by id: %w", err)
	}

	if deleted == 0 {
		return apperror.ErrGameNotFound
	}

	return nil
}
