package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taskmaster/routine/internal/domain/entities"
	"github.com/taskmaster/routine/internal/infrastructure/database"
	"github.com/taskmaster/routine/internal/ports"
)

// SQLBackupStore keeps one backup document per user in the backups table.
type SQLBackupStore struct {
	db  *database.DB
	now func() time.Time
}

func NewSQLBackupStore(db *database.DB) ports.BackupStore {
	return &SQLBackupStore{db: db, now: time.Now}
}

func (s *SQLBackupStore) Put(ctx context.Context, userID string, document []byte) error {
	_, err := s.db.DB.ExecContext(ctx, s.db.DB.Rebind(`
		INSERT INTO backups (user_id, document, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			document = excluded.document,
			updated_at = excluded.updated_at`),
		userID, string(document), stamp(s.now()))
	if err != nil {
		return fmt.Errorf("put backup: %w", err)
	}
	return nil
}

func (s *SQLBackupStore) Get(ctx context.Context, userID string) ([]byte, error) {
	var document string
	err := s.db.DB.GetContext(ctx, &document, s.db.DB.Rebind(`SELECT document FROM backups WHERE user_id = ?`), userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &entities.NotFoundError{Entity: "backup", ID: userID}
		}
		return nil, fmt.Errorf("get backup: %w", err)
	}
	return []byte(document), nil
}

// RedisBackupStore keeps backup documents under backup:<userID>.
type RedisBackupStore struct {
	client *redis.Client
}

func NewRedisBackupStore(client *redis.Client) ports.BackupStore {
	return &RedisBackupStore{client: client}
}

func backupKey(userID string) string {
	return "backup:" + userID
}

func (s *RedisBackupStore) Put(ctx context.Context, userID string, document []byte) error {
	if err := s.client.Set(ctx, backupKey(userID), document, 0).Err(); err != nil {
		return fmt.Errorf("put backup: %w", err)
	}
	return nil
}

func (s *RedisBackupStore) Get(ctx context.Context, userID string) ([]byte, error) {
	document, err := s.client.Get(ctx, backupKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, &entities.NotFoundError{Entity: "backup", ID: userID}
		}
		return nil, fmt.Errorf("get backup: %w", err)
	}
	return document, nil
}
