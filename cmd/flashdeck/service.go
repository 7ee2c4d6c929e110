package main

import (
	"fmt"
	"math/rand"

	"github.com/danieldreier/flashdeck/internal/config"
	"github.com/danieldreier/flashdeck/internal/storage"
	"github.com/danieldreier/flashdeck/internal/study"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// StudyService is what the MCP handlers and CLI commands work against.
type StudyService struct {
	App    *study.App
	Store  storage.Storage
	Logger *zap.Logger
}

// newLogger builds the zap logger described by cfg. Output always goes to
// stderr because stdout carries the MCP protocol.
func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	logConfig := zap.NewProductionConfig()
	if cfg.Development {
		logConfig = zap.NewDevelopmentConfig()
	}
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	logConfig.Level = zap.NewAtomicLevelAt(level)
	logConfig.OutputPaths = []string{"stderr"}
	logConfig.ErrorOutputPaths = []string{"stderr"}
	return logConfig.Build(zap.AddStacktrace(zapcore.ErrorLevel))
}

// NewStudyService opens storage and the configured deck.
func NewStudyService(cfg *config.Config) (*StudyService, error) {
	logger, err := newLogger(cfg.Log)
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(cfg.Storage.Driver, cfg.Storage.Path, logger.Named("storage"))
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	svc := newStudyServiceWith(store, logger, cfg.Study.Seed)
	if err := svc.App.OpenDeck(cfg.Study.Deck); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to open deck %q: %w", cfg.Study.Deck, err)
	}
	return svc, nil
}

func newStudyServiceWith(store storage.Storage, logger *zap.Logger, seed int64, opts ...study.Option) *StudyService {
	base := []study.Option{study.WithLogger(logger.Named("study"))}
	if seed != 0 {
		base = append(base, study.WithRand(rand.New(rand.NewSource(seed))))
	}
	app := study.New(store, append(base, opts...)...)
	app.Subscribe(func(e study.Event) {
		logger.Debug("Deck event",
			zap.String("kind", string(e.Kind)),
			zap.String("deck", e.Deck),
			zap.String("front", e.Front))
	})
	return &StudyService{App: app, Store: store, Logger: logger}
}

// Close saves the current deck, closes storage and flushes the logger.
func (s *StudyService) Close() error {
	err := s.App.Close()
	_ = s.Logger.Sync()
	return err
}
