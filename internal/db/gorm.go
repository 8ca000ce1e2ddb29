package db

import (
	"fmt"
	"log"

	"docbase/internal/config"
	"docbase/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormDB wraps the GORM database instance.
type GormDB struct {
	*gorm.DB
}

// NewGorm opens the database, enables pgvector and migrates the schema.
// TranslateError is on so unique-constraint violations surface as
// gorm.ErrDuplicatedKey instead of driver-specific errors; the repository
// relies on that to detect concurrent inserts of the same fingerprint.
func NewGorm(cfg *config.Config) (*GormDB, error) {
	dsn := cfg.DatabaseURL()

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return nil, fmt.Errorf("failed to enable pgvector extension: %w", err)
	}

	if err := db.AutoMigrate(
		&models.Document{},
		&models.Chunk{},
	); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// GORM has no native vector index support, so the cosine index is raw SQL.
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_chunks_embedding
		ON chunks USING ivfflat (embedding vector_cosine_ops)
	`).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create vector index: %w", err)
	}

	log.Println("database connected and migrated")

	return &GormDB{db}, nil
}

// Close closes the underlying connection pool.
func (db *GormDB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
