package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"reconciliation-service/internal/core/importer"
	"reconciliation-service/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisConfig are the Redis settings. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Channel  string
	LockTTL  time.Duration
}

// Redis guarda o lock de importação por usuário e publica as notificações.
type Redis struct {
	client  *redis.Client
	channel string
	lockTTL time.Duration
}

// NewRedis conecta e testa a conexão com PING.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("erro ao conectar ao redis: %w", err)
	}

	ttl := cfg.LockTTL
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &Redis{client: client, channel: cfg.Channel, lockTTL: ttl}, nil
}

// releaseScript só apaga o lock se ele ainda pertence a quem o criou.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func lockKey(userID uint64) string {
	return fmt.Sprintf("reconciliation:import-lock:%d", userID)
}

// Acquire pega o lock de importação do usuário (SET NX com TTL).
func (r *Redis) Acquire(ctx context.Context, userID uint64) (func(), error) {
	key := lockKey(userID)
	token := uuid.NewString()

	ok, err := r.client.SetNX(ctx, key, token, r.lockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("erro ao obter lock de importação: %w", err)
	}
	if !ok {
		return nil, importer.ErrImportInProgress
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, r.client, []string{key}, token).Err()
	}, nil
}

// ImportNotification é a mensagem publicada ao fim de cada importação.
type ImportNotification struct {
	Event     string               `json:"event"`
	UserID    uint64               `json:"user_id"`
	Files     []domain.FileOutcome `json:"files"`
	Timestamp int64                `json:"timestamp"`
}

// NewImportNotification monta a mensagem de importação concluída.
func NewImportNotification(userID uint64, outcomes []domain.FileOutcome, at time.Time) ImportNotification {
	return ImportNotification{
		Event:     "import.completed",
		UserID:    userID,
		Files:     outcomes,
		Timestamp: at.Unix(),
	}
}

// ImportCompleted publica a notificação no canal configurado.
func (r *Redis) ImportCompleted(ctx context.Context, userID uint64, outcomes []domain.FileOutcome) error {
	msg, err := json.Marshal(NewImportNotification(userID, outcomes, time.Now()))
	if err != nil {
		return fmt.Errorf("erro ao serializar notificação: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, msg).Err(); err != nil {
		return fmt.Errorf("erro ao publicar notificação: %w", err)
	}
	return nil
}

// Close fecha a conexão com o Redis.
func (r *Redis) Close() error {
	return r.client.Close()
}
