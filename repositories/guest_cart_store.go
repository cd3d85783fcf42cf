package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gpu-shop/models"
)

// GuestCartStore is the persistent key-value storage backing anonymous carts.
// One JSON document per guest key, rewritten on every change.
type GuestCartStore interface {
	Load(guestKey string) ([]models.CartLineItem, error)
	Save(guestKey string, items []models.CartLineItem) error
	Clear(guestKey string) error
}

type FileGuestCartStore struct {
	dir string
}

func NewFileGuestCartStore(dir string) (*FileGuestCartStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create guest cart dir: %w", err)
	}
	return &FileGuestCartStore{dir: dir}, nil
}

func (s *FileGuestCartStore) path(guestKey string) (string, error) {
	key := sanitizeGuestKey(guestKey)
	if key == "" {
		return "", errors.New("invalid guest key")
	}
	return filepath.Join(s.dir, key+".json"), nil
}

func (s *FileGuestCartStore) Load(guestKey string) ([]models.CartLineItem, error) {
	path, err := s.path(guestKey)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return []models.CartLineItem{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read guest cart: %w", err)
	}

	items := []models.CartLineItem{}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode guest cart: %w", err)
	}
	return items, nil
}

func (s *FileGuestCartStore) Save(guestKey string, items []models.CartLineItem) error {
	path, err := s.path(guestKey)
	if err != nil {
		return err
	}

	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode guest cart: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write guest cart: %w", err)
	}
	return os.Rename(tmp, path)
}

func (s *FileGuestCartStore) Clear(guestKey string) error {
	path, err := s.path(guestKey)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func sanitizeGuestKey(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	out := b.String()
	if len(out) > 64 {
		out = out[:64]
	}
	return out
}
