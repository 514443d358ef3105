package storage

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kiasilver/rozegar-sub005/internal/models"
)

// Client wraps the shared Postgres database. The admin CMS owns the schema
// for sources and settings; this service owns the pipeline tables and
// migrates only those.
type Client struct {
	db *gorm.DB
}

func New(databaseURL string) (*Client, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("gorm.Open: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(
		&models.RunLogEntry{},
		&models.QueueItem{},
		&models.CarPrice{},
		&models.TokenUsage{},
	); err != nil {
		return nil, fmt.Errorf("auto-migrate pipeline tables: %w", err)
	}

	slog.Info("Connected to Postgres")
	return &Client{db: db}, nil
}

// NewWithDB wraps an existing gorm handle. Used by tests.
func NewWithDB(db *gorm.DB) *Client {
	return &Client{db: db}
}

func (c *Client) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
