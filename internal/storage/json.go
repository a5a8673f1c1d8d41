package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/starford/cradle/internal/apperr"
)

// LoadJSON decodes the document stored under key.
// An absent key and a malformed document both yield ok=false; the latter is
// logged and otherwise treated as first run. Only I/O errors are returned.
func LoadJSON[T any](kv KV, key string, logger *slog.Logger) (v T, ok bool, err error) {
	data, found, err := kv.Load(key)
	if err != nil {
		return v, false, err
	}
	if !found || len(data) == 0 {
		return v, false, nil
	}
	if err := json.Unmarshal(data, &v); err != nil {
		logger.Warn("storage: malformed document ignored",
			slog.String("key", key),
			slog.String("error", err.Error()))
		var zero T
		return zero, false, nil
	}
	return v, true, nil
}

// SaveJSON encodes v and saves it under key. Failures wrap apperr.ErrPersistence.
func SaveJSON(kv KV, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("storage: encode %s: %w", key, err)
	}
	if err := kv.Save(key, data); err != nil {
		return fmt.Errorf("%w: %s: %w", apperr.ErrPersistence, key, err)
	}
	return nil
}

// DeleteKey removes key. Failures wrap apperr.ErrPersistence.
func DeleteKey(kv KV, key string) error {
	if err := kv.Delete(key); err != nil {
		return fmt.Errorf("%w: %s: %w", apperr.ErrPersistence, key, err)
	}
	return nil
}
