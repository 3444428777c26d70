package store

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	_ "github.com/glebarez/go-sqlite" // Pure Go SQLite driver
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/gmsas95/quitcoach/internal/config"
	apperrors "github.com/gmsas95/quitcoach/internal/errors"
)

// Store provides unified access to SQLite (event log, tags, profile,
// insights) and BadgerDB (scheduler counters, feature-vector history).
type Store struct {
	db     *gorm.DB
	badger *badger.DB
	config *config.StorageConfig
}

// New creates a new Store instance
func New(cfg *config.Config) (*Store, error) {
	sqlitePath := cfg.Storage.SQLitePath
	if sqlitePath == "" {
		sqlitePath = filepath.Join(cfg.Storage.DataDir, "quitcoach.db")
	}

	sqliteDB, err := sql.Open("sqlite", sqlitePath+"?_journal=WAL&_synchronous=NORMAL&_busy_timeout=5000&_cache_size=-64000")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	sqliteDB.SetMaxOpenConns(10)
	sqliteDB.SetMaxIdleConns(5)
	sqliteDB.SetConnMaxLifetime(time.Hour)

	db, err := gorm.Open(sqlite.Dialector{Conn: sqliteDB}, &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	if err := db.AutoMigrate(
		&SmokingEvent{},
		&Tag{},
		&UserProfile{},
		&InsightRecord{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	badgerPath := cfg.Storage.BadgerPath
	if badgerPath == "" {
		badgerPath = filepath.Join(cfg.Storage.DataDir, "badger")
	}

	badgerOpts := badger.DefaultOptions(badgerPath).
		WithLogger(nil).
		WithNumVersionsToKeep(1).
		WithCompactL0OnClose(true).
		WithValueLogFileSize(16 << 20).
		WithMemTableSize(16 << 20)

	badgerDB, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}

	store := &Store{
		db:     db,
		badger: badgerDB,
		config: &cfg.Storage,
	}

	if err := store.ensureDefaultProfile(); err != nil {
		return nil, fmt.Errorf("failed to create default profile: %w", err)
	}

	return store, nil
}

// NewWithDB wraps an existing gorm DB without badger, for tests.
func NewWithDB(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(
		&SmokingEvent{},
		&Tag{},
		&UserProfile{},
		&InsightRecord{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	store := &Store{db: db}
	if err := store.ensureDefaultProfile(); err != nil {
		return nil, err
	}
	return store, nil
}

// Close closes all database connections
func (s *Store) Close() error {
	if s.badger == nil {
		return nil
	}
	return s.badger.Close()
}

// DB returns the GORM database instance
func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) ensureDefaultProfile() error {
	var count int64
	if err := s.db.Model(&UserProfile{}).Count(&count).Error; err != nil {
		return err
	}

	if count == 0 {
		profile := &UserProfile{ID: "default"}
		return s.db.Create(profile).Error
	}

	return nil
}

// ==================== Event Methods ====================

// CreateEvent logs a smoking event, resolving tag names to tags and creating
// missing ones on the fly.
func (s *Store) CreateEvent(smokedAt time.Time, tagNames []string) (*SmokingEvent, error) {
	event := &SmokingEvent{
		ID:       uuid.NewString(),
		SmokedAt: smokedAt,
	}

	for _, name := range tagNames {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		tag, err := s.FindOrCreateTag(name)
		if err != nil {
			return nil, apperrors.Wrap(err, "STORE_002", "failed to resolve tag")
		}
		event.Tags = append(event.Tags, *tag)
	}

	if err := s.db.Create(event).Error; err != nil {
		return nil, apperrors.Wrap(err, "STORE_002", "failed to create event")
	}
	return event, nil
}

// FetchAllEvents returns the full event log, newest first, with tags loaded.
func (s *Store) FetchAllEvents() ([]SmokingEvent, error) {
	var events []SmokingEvent
	err := s.db.Preload("Tags").Order("smoked_at DESC").Find(&events).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "STORE_001", "failed to fetch events")
	}
	return events, nil
}

// RecentEvents returns the newest n events with tags loaded.
func (s *Store) RecentEvents(n int) ([]SmokingEvent, error) {
	var events []SmokingEvent
	err := s.db.Preload("Tags").Order("smoked_at DESC").Limit(n).Find(&events).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "STORE_001", "failed to fetch recent events")
	}
	return events, nil
}

// LatestEvent returns the most recent event, or nil when the log is empty.
func (s *Store) LatestEvent() (*SmokingEvent, error) {
	var event SmokingEvent
	err := s.db.Order("smoked_at DESC").First(&event).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "STORE_001", "failed to fetch latest event")
	}
	return &event, nil
}

// CountEventsBetween counts events with smoked_at in [start, end).
func (s *Store) CountEventsBetween(start, end time.Time) (int64, error) {
	var count int64
	err := s.db.Model(&SmokingEvent{}).
		Where("smoked_at >= ? AND smoked_at < ?", start, end).
		Count(&count).Error
	if err != nil {
		return 0, apperrors.Wrap(err, "STORE_001", "failed to count events")
	}
	return count, nil
}

// DeleteEvent removes an event and its tag associations.
func (s *Store) DeleteEvent(id string) error {
	event := &SmokingEvent{ID: id}
	if err := s.db.Model(event).Association("Tags").Clear(); err != nil {
		return apperrors.Wrap(err, "STORE_002", "failed to clear event tags")
	}
	if err := s.db.Delete(event).Error; err != nil {
		return apperrors.Wrap(err, "STORE_002", "failed to delete event")
	}
	return nil
}

// ==================== Tag Methods ====================

// FindTagByName looks up a tag case-insensitively.
func (s *Store) FindTagByName(name string) (*Tag, error) {
	var tag Tag
	err := s.db.Where("LOWER(name) = LOWER(?)", name).First(&tag).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

// FindOrCreateTag returns the existing tag for name or creates one.
func (s *Store) FindOrCreateTag(name string) (*Tag, error) {
	tag, err := s.FindTagByName(name)
	if err != nil {
		return nil, err
	}
	if tag != nil {
		return tag, nil
	}

	tag = &Tag{
		ID:   uuid.NewString(),
		Name: name,
	}
	if err := s.db.Create(tag).Error; err != nil {
		return nil, err
	}
	return tag, nil
}

// ListTags returns all tags ordered by name.
func (s *Store) ListTags() ([]Tag, error) {
	var tags []Tag
	err := s.db.Order("name ASC").Find(&tags).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "STORE_001", "failed to list tags")
	}
	return tags, nil
}

// DeleteTag removes a tag and its event associations. Events survive.
func (s *Store) DeleteTag(id string) error {
	tag := &Tag{ID: id}
	if err := s.db.Exec("DELETE FROM event_tags WHERE tag_id = ?", id).Error; err != nil {
		return apperrors.Wrap(err, "STORE_002", "failed to clear tag associations")
	}
	if err := s.db.Delete(tag).Error; err != nil {
		return apperrors.Wrap(err, "STORE_002", "failed to delete tag")
	}
	return nil
}

// ==================== Profile Methods ====================

// FetchUserProfile returns the singleton profile.
func (s *Store) FetchUserProfile() (*UserProfile, error) {
	var profile UserProfile
	err := s.db.First(&profile, "id = ?", "default").Error
	if err == gorm.ErrRecordNotFound {
		return nil, apperrors.ErrProfileNotFound
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "STORE_001", "failed to fetch profile")
	}
	return &profile, nil
}

// SaveUserProfile persists profile changes.
func (s *Store) SaveUserProfile(profile *UserProfile) error {
	profile.ID = "default"
	if err := s.db.Save(profile).Error; err != nil {
		return apperrors.Wrap(err, "STORE_002", "failed to save profile")
	}
	return nil
}

// ==================== Insight Methods ====================

// ReplaceInsights swaps the persisted insight set for this run's result.
func (s *Store) ReplaceInsights(insights []InsightRecord) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&InsightRecord{}).Error; err != nil {
			return err
		}
		for i := range insights {
			if insights[i].ID == "" {
				insights[i].ID = uuid.NewString()
			}
			if err := tx.Create(&insights[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ListInsights returns persisted insights, highest risk first.
func (s *Store) ListInsights() ([]InsightRecord, error) {
	var insights []InsightRecord
	err := s.db.Order("risk DESC").Find(&insights).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "STORE_001", "failed to list insights")
	}
	return insights, nil
}

// PruneInsights drops insights detected before the cutoff.
func (s *Store) PruneInsights(cutoff time.Time) (int64, error) {
	res := s.db.Where("detected_at < ?", cutoff).Delete(&InsightRecord{})
	if res.Error != nil {
		return 0, apperrors.Wrap(res.Error, "STORE_002", "failed to prune insights")
	}
	return res.RowsAffected, nil
}
