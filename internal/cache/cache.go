// Package cache publishes game action records to Redis for the historian.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ActionsChannel is the pub/sub channel every action record is published on.
const ActionsChannel = "apuestas:actions"

// actionLogTTL bounds how long a game's action list is kept.
const actionLogTTL = 24 * time.Hour

// GameActionRecord describes one applied action of a game.
type GameActionRecord struct {
	GameID        uuid.UUID              `json:"gameId"`
	ActionIndex   int                    `json:"actionIndex"`
	Actor         string                 `json:"actor,omitempty"`
	ActionType    string                 `json:"actionType"`
	ActionPayload map[string]interface{} `json:"actionPayload"`
	Timestamp     int64                  `json:"timestamp"`
}

// Publisher writes action records to Redis.
type Publisher struct {
	rdb *redis.Client
}

// Connect parses a redis:// URL and waits for the server to answer a PING.
func Connect(ctx context.Context, url string, log logrus.FieldLogger) (*Publisher, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	for i := 1; ; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err = rdb.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			break
		}
		if i == 5 {
			rdb.Close()
			return nil, fmt.Errorf("redis unavailable at %s: %w", opts.Addr, err)
		}
		log.Warnf("redis not ready (%d/5), retrying...", i)
		select {
		case <-ctx.Done():
			rdb.Close()
			return nil, ctx.Err()
		case <-time.After(time.Second):
		}
	}
	log.Infof("redis connected at %s", opts.Addr)
	return &Publisher{rdb: rdb}, nil
}

// NewPublisher wraps an existing client.
func NewPublisher(rdb *redis.Client) *Publisher {
	return &Publisher{rdb: rdb}
}

// actionsKey is the list holding a game's ordered action log.
func actionsKey(gameID uuid.UUID) string {
	return "apuestas:game:" + gameID.String() + ":actions"
}

// PublishGameAction appends the record to the game's action list and announces
// it on ActionsChannel.
func (p *Publisher) PublishGameAction(ctx context.Context, rec GameActionRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal action record: %w", err)
	}
	key := actionsKey(rec.GameID)
	_, err = p.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, payload)
		pipe.Expire(ctx, key, actionLogTTL)
		pipe.Publish(ctx, ActionsChannel, payload)
		return nil
	})
	if err != nil {
		return fmt.Errorf("publish action %d: %w", rec.ActionIndex, err)
	}
	return nil
}

// Close releases the client.
func (p *Publisher) Close() error { return p.rdb.Close() }
