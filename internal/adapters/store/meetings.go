// Package store persists meeting records with gorm.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dkeye/Connectify/internal/domain"
	"github.com/google/uuid"
	nanoid "github.com/jaevor/go-nanoid"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 6
	codeRetries  = 5
)

var ErrCodeExhausted = errors.New("could not allocate a unique meeting code")

// Open connects to the sqlite database at path and migrates the schema.
func Open(path string, debug bool) (*gorm.DB, error) {
	level := logger.Silent
	if debug {
		level = logger.Warn
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&domain.Meeting{}); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

// MeetingRepository stores meetings and ends them when their room empties.
type MeetingRepository struct {
	db      *gorm.DB
	newCode func() string
}

func NewMeetingRepository(db *gorm.DB) (*MeetingRepository, error) {
	gen, err := nanoid.CustomASCII(codeAlphabet, codeLength)
	if err != nil {
		return nil, fmt.Errorf("meeting code generator: %w", err)
	}
	return &MeetingRepository{db: db, newCode: gen}, nil
}

// Create saves a new active meeting under a freshly generated code.
func (r *MeetingRepository) Create(ctx context.Context, title, host string) (*domain.Meeting, error) {
	for range codeRetries {
		m := &domain.Meeting{
			ID:       uuid.NewString(),
			Code:     r.newCode(),
			Title:    strings.TrimSpace(title),
			HostName: domain.DisplayName(host),
			Active:   true,
		}
		err := r.db.WithContext(ctx).Create(m).Error
		if err == nil {
			log.Info().Str("module", "store").Str("code", m.Code).Msg("meeting created")
			return m, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) && !strings.Contains(err.Error(), "UNIQUE") {
			return nil, fmt.Errorf("failed to create meeting: %w", err)
		}
		log.Debug().Str("module", "store").Str("code", m.Code).Msg("meeting code collision")
	}
	return nil, ErrCodeExhausted
}

func (r *MeetingRepository) FindByCode(ctx context.Context, code string) (*domain.Meeting, error) {
	var m domain.Meeting
	if err := r.db.WithContext(ctx).First(&m, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMeetingNotFound
		}
		return nil, fmt.Errorf("failed to find meeting: %w", err)
	}
	return &m, nil
}

// Deactivate marks the meeting as ended. Ending an already ended meeting is a no-op.
func (r *MeetingRepository) Deactivate(ctx context.Context, code string) error {
	m, err := r.FindByCode(ctx, code)
	if err != nil {
		return err
	}
	if !m.Active {
		return nil
	}
	now := time.Now().UTC()
	err = r.db.WithContext(ctx).Model(&domain.Meeting{}).
		Where("id = ?", m.ID).
		Updates(map[string]any{"active": false, "ended_at": now}).Error
	if err != nil {
		return fmt.Errorf("failed to deactivate meeting: %w", err)
	}
	return nil
}
