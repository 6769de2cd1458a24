package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/spacemark/pagecache/internal/domain"
)

const keyHighlightColors = "settings:highlightColors"

// BadgerStore persists highlight color settings in a Badger database.
type BadgerStore struct {
	db     *badger.DB
	logger *slog.Logger
}

// OpenBadger opens the settings database at path. An empty path opens an in-memory database.
func OpenBadger(path string, logger *slog.Logger) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	} else {
		opts.SyncWrites = true
		opts.CompactL0OnClose = true
	}
	opts.Logger = nil // Disable Badger's internal logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open settings db: %w", err)
	}

	if logger != nil {
		logger.Info("Settings database opened", slog.String("path", path), slog.Bool("in_memory", path == ""))
	}

	return &BadgerStore{db: db, logger: logger}, nil
}

// Close gracefully closes the database.
func (s *BadgerStore) Close() error {
	if s.logger != nil {
		s.logger.Info("Closing settings database")
	}
	return s.db.Close()
}

// HighlightColors returns the saved palette.
// When nothing has been saved yet the default palette is stored and returned.
func (s *BadgerStore) HighlightColors(ctx context.Context) ([]domain.HighlightColor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var colors []domain.HighlightColor
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyHighlightColors))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &colors)
		})
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		colors = domain.DefaultHighlightColors()
		if err := s.SaveHighlightColors(ctx, colors); err != nil {
			return nil, fmt.Errorf("seed default highlight colors: %w", err)
		}
		return colors, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get highlight colors: %w", err)
	}
	return colors, nil
}

// SaveHighlightColors replaces the saved palette.
func (s *BadgerStore) SaveHighlightColors(ctx context.Context, colors []domain.HighlightColor) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(colors)
	if err != nil {
		return fmt.Errorf("marshal highlight colors: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyHighlightColors), data)
	})
}
