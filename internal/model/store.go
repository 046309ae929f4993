package model

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/newthinker/insight/internal/core"
	"github.com/newthinker/insight/internal/storage/artifact"
	"go.uber.org/zap"
)

// GenericArtifact is the model used for symbols without their own artifact.
const GenericArtifact = "general_model.json"

// ArtifactKey returns the per-symbol artifact name, e.g. "RELIANCE_NS_lstm.json"
// for RELIANCE.NS and "NSEI_lstm.json" for ^NSEI.
func ArtifactKey(symbol string) string {
	clean := strings.ToUpper(strings.TrimSpace(symbol))
	clean = strings.ReplaceAll(clean, ".", "_")
	clean = strings.ReplaceAll(clean, "^", "")
	return clean + "_lstm.json"
}

// Store loads networks from artifact storage: the symbol's own artifact
// first, then the generic one.
type Store struct {
	storage artifact.Storage
	generic string
	logger  *zap.Logger

	mu     sync.Mutex
	loaded map[string]*Network
}

// NewStore creates a Store. An empty generic name disables the generic fallback.
func NewStore(storage artifact.Storage, generic string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		storage: storage,
		generic: generic,
		logger:  logger,
		loaded:  make(map[string]*Network),
	}
}

// Load implements Source.
func (s *Store) Load(ctx context.Context, symbol string) (Model, error) {
	keys := []string{ArtifactKey(symbol)}
	if s.generic != "" {
		keys = append(keys, s.generic)
	}

	for _, key := range keys {
		n, err := s.load(ctx, key)
		if errors.Is(err, artifact.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		s.logger.Debug("model resolved",
			zap.String("symbol", symbol),
			zap.String("artifact", key),
		)
		return n, nil
	}
	return nil, ErrNotFound
}

func (s *Store) load(ctx context.Context, key string) (*Network, error) {
	s.mu.Lock()
	n, ok := s.loaded[key]
	s.mu.Unlock()
	if ok {
		return n, nil
	}

	data, err := s.storage.Get(ctx, key)
	if err != nil {
		if errors.Is(err, artifact.ErrNotExist) {
			return nil, err
		}
		return nil, core.WrapError(core.ErrModelFailed, err)
	}

	n, err = Decode(bytes.NewReader(data))
	if err != nil {
		s.logger.Warn("invalid model artifact", zap.String("artifact", key), zap.Error(err))
		return nil, err
	}

	s.mu.Lock()
	s.loaded[key] = n
	s.mu.Unlock()
	return n, nil
}

// Evict drops the memoised network for key so the next Load re-reads it.
func (s *Store) Evict(key string) {
	s.mu.Lock()
	delete(s.loaded, key)
	s.mu.Unlock()
}
