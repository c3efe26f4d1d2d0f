package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/mmeshcher/seller-tracker/internal/model"
)

// FileSignups хранит заявки в JSON-файле. Чтение и запись файла выполняются под мьютексом.
type FileSignups struct {
	mu     sync.Mutex
	path   string
	logger *zap.Logger
}

// NewFileSignups создаёт хранилище заявок в файле path; каталог создаётся при необходимости.
func NewFileSignups(path string, logger *zap.Logger) (*FileSignups, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create signups dir: %w", err)
	}
	return &FileSignups{path: path, logger: logger}, nil
}

// read возвращает заявки из файла. Отсутствующий или повреждённый файл читается как пустой список.
func (f *FileSignups) read() ([]model.Signup, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read signups: %w", err)
	}

	var signups []model.Signup
	if err := json.Unmarshal(raw, &signups); err != nil {
		f.logger.Warn("signups file is corrupt, starting empty", zap.String("path", f.path), zap.Error(err))
		return nil, nil
	}
	return signups, nil
}

// AddSignup дописывает заявку; при совпадении email возвращает ErrSignupExists.
func (f *FileSignups) AddSignup(_ context.Context, s model.Signup) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	signups, err := f.read()
	if err != nil {
		return err
	}
	for _, existing := range signups {
		if existing.Email == s.Email {
			return fmt.Errorf("%w: %s", ErrSignupExists, s.Email)
		}
	}

	raw, err := json.MarshalIndent(append(signups, s), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal signups: %w", err)
	}

	// запись через временный файл, чтобы не оставить файл наполовину записанным
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write signups: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace signups: %w", err)
	}
	return nil
}

// ListSignups возвращает заявки в порядке поступления.
func (f *FileSignups) ListSignups(_ context.Context) ([]model.Signup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.read()
}

// Close ничего не делает; нужен для единообразия с SQL-хранилищами.
func (f *FileSignups) Close() error {
	return nil
}
