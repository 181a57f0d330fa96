// Package cache puts a read-through Redis cache in front of the quiz
// definition store. Definitions are immutable during attempts, so a TTL
// cache never serves a quiz mid-edit to a live session.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/coursekit/quiz-engine/internal/models"
	"github.com/coursekit/quiz-engine/internal/store"
	"github.com/coursekit/quiz-engine/internal/utils"
)

// CachedQuizStore decorates a store.QuizStore with Redis. Cache failures are
// logged and fall through to the underlying store; they never fail a read.
type CachedQuizStore struct {
	next   store.QuizStore
	client *redis.Client
	ttl    time.Duration
	logger utils.Logger
}

func NewCachedQuizStore(next store.QuizStore, client *redis.Client, ttl time.Duration, logger utils.Logger) *CachedQuizStore {
	return &CachedQuizStore{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func quizKey(quizID string) string {
	return "quiz-engine:quiz:" + quizID
}

func (c *CachedQuizStore) GetQuiz(ctx context.Context, quizID string) (*models.Quiz, error) {
	payload, err := c.client.Get(ctx, quizKey(quizID)).Bytes()
	if err == nil {
		var quiz models.Quiz
		if unmarshalErr := json.Unmarshal(payload, &quiz); unmarshalErr == nil {
			return &quiz, nil
		}
		// Corrupt entry; drop it and fall through to the store.
		c.client.Del(ctx, quizKey(quizID))
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn("quiz cache read failed", "quiz_id", quizID, "error", err)
	}

	quiz, err := c.next.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(quiz); err == nil {
		if err := c.client.Set(ctx, quizKey(quizID), payload, c.ttl).Err(); err != nil {
			c.logger.Warn("quiz cache write failed", "quiz_id", quizID, "error", err)
		}
	}
	return quiz, nil
}

// Invalidate drops a cached definition, for callers that repopulate the
// underlying store.
func (c *CachedQuizStore) Invalidate(ctx context.Context, quizID string) error {
	if err := c.client.Del(ctx, quizKey(quizID)).Err(); err != nil {
		return fmt.Errorf("invalidate quiz %s: %w", quizID, err)
	}
	return nil
}
