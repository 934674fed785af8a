// Package lexicon 不適切語の補助リストをRedisセットで管理する
package lexicon

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// lexiconKey 補助レキシコンを保持するRedisセットのキー
const lexiconKey = "profanity:lexicon"

// RedisLexicon Redisセットによる補助レキシコン
type RedisLexicon struct {
	client *redis.Client
}

// NewRedisLexicon 新しいRedisLexiconを作成
func NewRedisLexicon(client *redis.Client) *RedisLexicon {
	return &RedisLexicon{client: client}
}

// Add 単語を補助レキシコンに追加
func (l *RedisLexicon) Add(ctx context.Context, word string) error {
	if err := l.client.SAdd(ctx, lexiconKey, word).Err(); err != nil {
		return fmt.Errorf("failed to add lexicon word: %w", err)
	}
	return nil
}

// Remove 単語を補助レキシコンから削除
func (l *RedisLexicon) Remove(ctx context.Context, word string) error {
	if err := l.client.SRem(ctx, lexiconKey, word).Err(); err != nil {
		return fmt.Errorf("failed to remove lexicon word: %w", err)
	}
	return nil
}

// All 補助レキシコンの全単語を返す
func (l *RedisLexicon) All(ctx context.Context) ([]string, error) {
	words, err := l.client.SMembers(ctx, lexiconKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load lexicon words: %w", err)
	}
	return words, nil
}
