package repository

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"chatbuysell/internal/domain/repository"
	"chatbuysell/pkg/errors"
)

type sessionEntry struct {
	Name      string `gorm:"primaryKey;size:128"`
	Value     []byte
	UpdatedAt time.Time
}

func (sessionEntry) TableName() string {
	return "session_entries"
}

type sqliteSessionRepository struct {
	db *gorm.DB
}

// OpenSessionDB opens (creating if needed) the local session database at dsn.
func OpenSessionDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.Internal("Failed to open session store", err)
	}
	if err := db.AutoMigrate(&sessionEntry{}); err != nil {
		return nil, errors.Internal("Failed to migrate session store", err)
	}
	return db, nil
}

func NewSQLiteSessionRepository(db *gorm.DB) repository.SessionRepository {
	return &sqliteSessionRepository{
		db: db,
	}
}

func (r *sqliteSessionRepository) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var entry sessionEntry
	err := r.db.WithContext(ctx).Where("name = ?", key).First(&entry).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Internal("Failed to read session entry", err)
	}
	return entry.Value, true, nil
}

func (r *sqliteSessionRepository) Set(ctx context.Context, key string, value []byte) error {
	entry := sessionEntry{
		Name:      key,
		Value:     value,
		UpdatedAt: time.Now(),
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return errors.Internal("Failed to write session entry", err)
	}
	return nil
}

func (r *sqliteSessionRepository) Delete(ctx context.Context, key string) error {
	err := r.db.WithContext(ctx).Where("name = ?", key).Delete(&sessionEntry{}).Error
	if err != nil {
		return errors.Internal("Failed to delete session entry", err)
	}
	return nil
}
