// Package resultlog publishes the outcome of query runs to Redis.
package resultlog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ruslano69/dataselector/pkg/config"
)

const (
	// DefaultChannel - канал по умолчанию
	DefaultChannel = "dataselector:runs"
	// DefaultTTL - время жизни последнего результата
	DefaultTTL = 24 * time.Hour
)

// RunResult представляет результат выполнения запроса, публикуемый в Redis
// после завершения (успешного или с ошибкой).
//
// Redis-ключи:
//
//	SET  <channel>:<query>:state  <JSON>  EX <ttl>  - последнее состояние запроса
//	PUB  <channel>                                  - событие для подписчиков
type RunResult struct {
	Query      string    `json:"query"` // Имя .qsf или таблицы
	Table      string    `json:"table"`
	Format     string    `json:"format"`
	Statement  string    `json:"statement"`
	Status     string    `json:"status"` // "success" | "failed"
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	DurationMs int64     `json:"duration_ms"`
	Rows       int       `json:"rows"`
	Files      []string  `json:"files,omitempty"`
	Checksum   string    `json:"checksum,omitempty"`
	Location   string    `json:"location,omitempty"` // s3:// адрес после загрузки
	Error      *string   `json:"error,omitempty"`
}

// SetError - отметить результат как неудачный
func (r *RunResult) SetError(err error) {
	if err == nil {
		r.Status = "success"
		r.Error = nil
		return
	}
	r.Status = "failed"
	msg := err.Error()
	r.Error = &msg
}

// client - подмножество redis.Client, используемое publisher
type client interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Close() error
}

// RedisPublisher публикует результаты выполнения запросов в Redis
type RedisPublisher struct {
	client  client
	channel string
	ttl     time.Duration
}

// NewRedisPublisher создает новый Redis publisher на основе конфигурации
func NewRedisPublisher(cfg config.ResultLogConfig) *RedisPublisher {
	c := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return newPublisher(c, cfg)
}

func newPublisher(c client, cfg config.ResultLogConfig) *RedisPublisher {
	channel := cfg.Channel
	if channel == "" {
		channel = DefaultChannel
	}
	ttl := DefaultTTL
	if cfg.TTL > 0 {
		ttl = time.Duration(cfg.TTL) * time.Second
	}
	return &RedisPublisher{client: c, channel: channel, ttl: ttl}
}

// StateKey - ключ последнего состояния запроса
func (p *RedisPublisher) StateKey(query string) string {
	return fmt.Sprintf("%s:%s:state", p.channel, query)
}

// Publish публикует результат:
//   - SET <channel>:<query>:state <JSON> EX <ttl>  → для опроса (polling)
//   - PUBLISH <channel> <JSON>                     → для подписки (pub/sub)
//
// Вызывается независимо от результата выполнения.
func (p *RedisPublisher) Publish(ctx context.Context, result RunResult) error {
	if result.DurationMs == 0 && !result.FinishedAt.IsZero() {
		result.DurationMs = result.FinishedAt.Sub(result.StartedAt).Milliseconds()
	}
	if result.Status == "" {
		result.Status = "success"
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	if err := p.client.Set(ctx, p.StateKey(result.Query), payload, p.ttl).Err(); err != nil {
		return fmt.Errorf("redis SET failed: %w", err)
	}

	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis PUBLISH failed: %w", err)
	}

	return nil
}

// Close закрывает соединение с Redis
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
