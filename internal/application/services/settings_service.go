package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/taskmaster/routine/internal/domain/entities"
	"github.com/taskmaster/routine/internal/infrastructure/logger"
	"github.com/taskmaster/routine/internal/ports"
)

// SettingsService keeps the current notification settings in memory, persists
// changes and pushes them to subscribers.
type SettingsService struct {
	repo   ports.SettingsRepository
	logger *logger.Logger

	mu      sync.RWMutex
	current entities.Settings
	subs    map[chan entities.Settings]struct{}
}

// NewSettingsService loads stored settings. On first run defaults are stored.
func NewSettingsService(ctx context.Context, repo ports.SettingsRepository, defaults entities.Settings, logger *logger.Logger) (*SettingsService, error) {
	if err := defaults.Validate(); err != nil {
		return nil, fmt.Errorf("invalid default settings: %w", err)
	}

	current, found, err := repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if !found {
		current = defaults
		if err := repo.Save(ctx, current); err != nil {
			return nil, fmt.Errorf("failed to seed settings: %w", err)
		}
	}

	return &SettingsService{
		repo:    repo,
		logger:  logger.WithComponent("settings"),
		current: current,
		subs:    make(map[chan entities.Settings]struct{}),
	}, nil
}

func (s *SettingsService) Current() entities.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Subscribe delivers every later change. A slow subscriber sees only the newest value.
func (s *SettingsService) Subscribe(ctx context.Context) <-chan entities.Settings {
	ch := make(chan entities.Settings, 1)

	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, ch)
		close(ch)
		s.mu.Unlock()
	}()

	return ch
}

func (s *SettingsService) Update(ctx context.Context, settings entities.Settings) (entities.Settings, error) {
	if err := settings.Validate(); err != nil {
		return entities.Settings{}, err
	}
	if err := s.repo.Save(ctx, settings); err != nil {
		return entities.Settings{}, fmt.Errorf("failed to save settings: %w", err)
	}

	s.mu.Lock()
	s.current = settings
	for ch := range s.subs {
		offer(ch, settings)
	}
	s.mu.Unlock()

	s.logger.Infow("Settings updated",
		"notifications_enabled", settings.NotificationsEnabled,
		"offset_minutes", settings.NotificationOffsetMinutes,
	)
	return settings, nil
}
