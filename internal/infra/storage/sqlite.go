package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"marketsim/internal/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Storage is the persistent price store. It mirrors the latest quote per
// symbol so prices survive restarts: written best-effort after every
// successful provider fetch, read on cold-start to pre-warm the cache and
// as the last-resort fallback when no provider and no cache entry exist.
type Storage struct {
	db *gorm.DB
}

// NewStorage opens (or creates) the SQLite database at path. An empty path
// falls back to the OS config directory.
func NewStorage(path string) (*Storage, error) {
	dbPath := path
	if dbPath == "" {
		var err error
		dbPath, err = defaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve DB path: %w", err)
		}
	}

	// Ensure directory exists
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	// Connect to SQLite (Pure Go)
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto Migration
	if err := db.AutoMigrate(&domain.PriceRecord{}, &domain.AppConfig{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Storage{db: db}, nil
}

// defaultDBPath resolves the database file path based on OS
func defaultDBPath() (string, error) {
	var configDir string
	var err error

	if runtime.GOOS == "windows" {
		configDir = os.Getenv("LOCALAPPDATA")
		if configDir == "" {
			configDir, err = os.UserConfigDir()
		}
	} else {
		configDir, err = os.UserConfigDir()
	}

	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "MarketSim", "data", "marketsim.db"), nil
}

// ======================================================================================
// Price Operations
// ======================================================================================

// UpsertPrice creates or overwrites the durable record for a symbol.
// Last write wins, no versioning.
func (s *Storage) UpsertPrice(rec *domain.PriceRecord) error {
	return s.db.Save(rec).Error
}

// GetPrice retrieves the last stored price for a symbol
func (s *Storage) GetPrice(symbol string) (*domain.PriceRecord, error) {
	var rec domain.PriceRecord
	err := s.db.First(&rec, "symbol = ?", symbol).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // Not found is not an error
	}
	return &rec, err
}

// AllPrices retrieves every stored record, used to pre-warm the cache
func (s *Storage) AllPrices() ([]domain.PriceRecord, error) {
	var recs []domain.PriceRecord
	err := s.db.Find(&recs).Error
	return recs, err
}

// SaveAll writes a batch of records in a single transaction. Used by the
// shutdown flush.
func (s *Storage) SaveAll(recs []domain.PriceRecord) error {
	if len(recs) == 0 {
		return nil
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		for i := range recs {
			if err := tx.Save(&recs[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// PurgeOlderThan deletes records not updated since cutoff. Explicit
// maintenance only; normal operation never deletes rows.
func (s *Storage) PurgeOlderThan(cutoff time.Time) (int64, error) {
	res := s.db.Where("last_updated < ?", cutoff).Delete(&domain.PriceRecord{})
	return res.RowsAffected, res.Error
}

// ======================================================================================
// Config Operations
// ======================================================================================

// SaveConfig saves an operational key-value entry
func (s *Storage) SaveConfig(key, value string) error {
	config := domain.AppConfig{
		Key:   key,
		Value: value,
	}
	return s.db.Save(&config).Error
}

// LoadConfigMap loads all operational entries as a map
func (s *Storage) LoadConfigMap() (map[string]string, error) {
	var configs []domain.AppConfig
	if err := s.db.Find(&configs).Error; err != nil {
		return nil, err
	}

	result := make(map[string]string)
	for _, cfg := range configs {
		result[cfg.Key] = cfg.Value
	}
	return result, nil
}
