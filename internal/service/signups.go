package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/mmeshcher/seller-tracker/internal/events"
	"github.com/mmeshcher/seller-tracker/internal/model"
	"github.com/mmeshcher/seller-tracker/internal/repository"
	"github.com/mmeshcher/seller-tracker/internal/validation"
)

// ErrInvalidEmail возвращается, если email пуст или не содержит «@».
var ErrInvalidEmail = errors.New("a valid email is required")

const (
	signupSource  = "seller-tracker-ui"
	defaultName   = "Guest"
	maxNameLength = 100
	createdLayout = "2006-01-02T15:04:05.000Z"
)

// SignupRepository описывает контракт хранилища заявок, используемый сервисом.
type SignupRepository interface {
	Close() error
	AddSignup(ctx context.Context, s model.Signup) error
	ListSignups(ctx context.Context) ([]model.Signup, error)
}

// SignupService принимает заявки на бета-тест.
type SignupService struct {
	repo   SignupRepository
	bus    Publisher
	logger *zap.Logger
	opts   options
}

// NewSignupService создаёт сервис заявок поверх репозитория.
func NewSignupService(repo SignupRepository, bus Publisher, logger *zap.Logger, opts ...Option) *SignupService {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &SignupService{repo: repo, bus: bus, logger: logger, opts: o}
}

// Close закрывает ресурсы сервиса.
func (s *SignupService) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// Register сохраняет заявку. duplicate == true, если такой email уже зарегистрирован.
func (s *SignupService) Register(ctx context.Context, name, email string) (bool, error) {
	email = validation.NormalizeEmail(email)
	if !validation.IsValidEmail(email) {
		return false, ErrInvalidEmail
	}

	name = validation.Truncate(strings.TrimSpace(name), maxNameLength)
	if name == "" {
		name = defaultName
	}

	now := s.opts.now()
	signup := model.Signup{
		ID:        now.UnixMilli(),
		Name:      name,
		Email:     email,
		Source:    signupSource,
		CreatedAt: now.UTC().Format(createdLayout),
	}

	if err := s.repo.AddSignup(ctx, signup); err != nil {
		if errors.Is(err, repository.ErrSignupExists) {
			return true, nil
		}
		return false, fmt.Errorf("add signup: %w", err)
	}

	s.logger.Info("signup received", zap.String("source", signup.Source))
	publish(s.bus, s.logger, s.opts, events.SignupReceived, strconv.FormatInt(signup.ID, 10), map[string]string{"source": signup.Source})
	return false, nil
}

// List возвращает все заявки в порядке поступления.
func (s *SignupService) List(ctx context.Context) ([]model.Signup, error) {
	signups, err := s.repo.ListSignups(ctx)
	if err != nil {
		return nil, fmt.Errorf("list signups: %w", err)
	}
	if signups == nil {
		signups = []model.Signup{}
	}
	return signups, nil
}
