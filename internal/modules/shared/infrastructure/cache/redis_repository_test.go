package cache

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"grammar-api-app/internal/config"
	"grammar-api-app/internal/modules/shared/infrastructure/testcontainer"
)

func setupRedisRepo(t *testing.T) (*RedisRepository, func()) {
	t.Helper()
	ctx := context.Background()

	// TestContainer起動
	redisContainer, err := testcontainer.StartRedis(ctx, t)
	if err != nil {
		t.Fatalf("Failed to start redis container: %v", err)
	}

	port, err := strconv.Atoi(redisContainer.Port)
	if err != nil {
		_ = redisContainer.Close(ctx)
		t.Fatalf("Failed to parse redis port: %v", err)
	}

	repo, err := NewRedisRepository(&config.RedisConfig{
		Host:     redisContainer.Host,
		Port:     port,
		Password: "",
		DB:       0,
	})
	if err != nil {
		_ = redisContainer.Close(ctx)
		t.Fatalf("Failed to create redis repository: %v", err)
	}

	return repo, func() {
		_ = repo.Close()
		_ = redisContainer.Close(ctx)
	}
}

func TestRedisRepository_SetAndGet(t *testing.T) {
	repo, cleanup := setupRedisRepo(t)
	defer cleanup()

	ctx := context.Background()

	tests := []struct {
		name       string
		key        string
		value      []byte
		expiration time.Duration
	}{
		{
			name:       "正常系: 補正結果のキャッシュ",
			key:        "grammar:formal:sya suka makan nasi",
			value:      []byte(`{"corrected":"Saya suka makan nasi"}`),
			expiration: 1 * time.Hour,
		},
		{
			name:       "正常系: 不適切語結果のキャッシュ",
			key:        "profanity:dia goblok sekali",
			value:      []byte(`{"found":true}`),
			expiration: 1 * time.Hour,
		},
		{
			name:       "正常系: 長い値",
			key:        "grammar:formal:long",
			value:      make([]byte, 10000),
			expiration: 1 * time.Hour,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := repo.Set(ctx, tt.key, tt.value, tt.expiration); err != nil {
				t.Fatalf("Set() error = %v", err)
			}

			value, err := repo.Get(ctx, tt.key)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if string(value) != string(tt.value) {
				t.Errorf("Get() value = %q, want %q", value, tt.value)
			}
		})
	}
}

func TestRedisRepository_Get_CacheMiss(t *testing.T) {
	repo, cleanup := setupRedisRepo(t)
	defer cleanup()

	ctx := context.Background()

	_, err := repo.Get(ctx, "grammar:formal:nonexistent")
	if err == nil {
		t.Fatal("Get() expected error for non-existent key")
	}
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get() error = %v, want ErrCacheMiss", err)
	}
}

func TestRedisRepository_Expiration(t *testing.T) {
	repo, cleanup := setupRedisRepo(t)
	defer cleanup()

	ctx := context.Background()

	key := "grammar:formal:expiring"
	if err := repo.Set(ctx, key, []byte("value"), 1*time.Second); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	// 有効期限内は取得できる
	if _, err := repo.Get(ctx, key); err != nil {
		t.Fatalf("Get() before expiration error = %v", err)
	}

	time.Sleep(1500 * time.Millisecond)

	// 期限切れ後はキャッシュミス
	_, err := repo.Get(ctx, key)
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get() after expiration error = %v, want ErrCacheMiss", err)
	}
}

func TestRedisRepository_Delete(t *testing.T) {
	repo, cleanup := setupRedisRepo(t)
	defer cleanup()

	ctx := context.Background()

	key := "grammar:formal:to-delete"
	if err := repo.Set(ctx, key, []byte("value"), 1*time.Hour); err != nil {
		t.Fatalf("Failed to set test data: %v", err)
	}

	if err := repo.Delete(ctx, key); err != nil {
		t.Errorf("Delete() error = %v", err)
	}

	_, err := repo.Get(ctx, key)
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get() after delete error = %v, want ErrCacheMiss", err)
	}
}

func TestRedisRepository_Exists(t *testing.T) {
	repo, cleanup := setupRedisRepo(t)
	defer cleanup()

	ctx := context.Background()

	key := "grammar:formal:exists"
	if err := repo.Set(ctx, key, []byte("value"), 1*time.Hour); err != nil {
		t.Fatalf("Failed to set test data: %v", err)
	}

	tests := []struct {
		name       string
		key        string
		wantExists bool
	}{
		{name: "正常系: 存在するキー", key: key, wantExists: true},
		{name: "正常系: 存在しないキー", key: "grammar:formal:missing", wantExists: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exists, err := repo.Exists(ctx, tt.key)
			if err != nil {
				t.Fatalf("Exists() error = %v", err)
			}
			if exists != tt.wantExists {
				t.Errorf("Exists() = %v, want %v", exists, tt.wantExists)
			}
		})
	}
}

func TestNewRedisRepository_Unreachable(t *testing.T) {
	_, err := NewRedisRepository(&config.RedisConfig{
		Host: "127.0.0.1",
		Port: 1,
		DB:   0,
	})
	if err == nil {
		t.Fatal("Expected error for unreachable redis")
	}
}
