package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mmeshcher/seller-tracker/internal/model"
	"github.com/mmeshcher/seller-tracker/internal/validation"
)

// ProfileStore хранит единственный профиль продавца.
type ProfileStore struct {
	storage Storage
	logger  *zap.Logger
	profile model.Profile
}

// NewProfileStore загружает профиль; отсутствующие поля получают значения по умолчанию.
func NewProfileStore(ctx context.Context, storage Storage, logger *zap.Logger) (*ProfileStore, error) {
	s := &ProfileStore{
		storage: storage,
		logger:  logger,
		profile: model.DefaultProfile(),
	}

	raw, err := storage.Load(ctx, ProfileKey)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if len(raw) == 0 {
		return s, nil
	}

	var p model.Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		logger.Warn("stored profile is corrupt, using defaults", zap.Error(err))
		return s, nil
	}
	s.profile = p.WithDefaults()

	return s, nil
}

// Get возвращает текущий профиль.
func (s *ProfileStore) Get() model.Profile {
	return s.profile
}

// Form возвращает профиль в виде полей формы: без @ и без кода региона в телефоне.
func (s *ProfileStore) Form() model.ProfileForm {
	p := s.profile
	phone := ""
	if p.Phone != "" {
		phone = validation.SplitPhone(p.AreaCode, p.Phone)
	}
	return model.ProfileForm{
		Name:           p.Name,
		Email:          p.Email,
		SocialHandle:   validation.StripHandle(p.SocialHandle),
		SocialPlatform: p.SocialPlatform,
		AreaCode:       p.AreaCode,
		Phone:          phone,
		ReceiptNote:    p.ReceiptNote,
		HasLogo:        p.LogoData != "",
	}
}

// Save нормализует и сохраняет профиль целиком.
func (s *ProfileStore) Save(ctx context.Context, in model.ProfileInput) (model.Profile, error) {
	areaCode := strings.TrimSpace(in.AreaCode)
	if areaCode == "" {
		areaCode = model.DefaultAreaCode
	}

	next := model.Profile{
		Name:           strings.TrimSpace(in.Name),
		Email:          strings.TrimSpace(in.Email),
		SocialHandle:   validation.NormalizeHandle(in.SocialHandle),
		SocialPlatform: strings.TrimSpace(in.SocialPlatform),
		AreaCode:       areaCode,
		Phone:          validation.JoinPhone(areaCode, in.Phone),
		LogoData:       s.profile.LogoData,
		ReceiptNote:    strings.TrimSpace(in.ReceiptNote),
	}
	if in.LogoData != nil {
		next.LogoData = *in.LogoData
	}
	next = next.WithDefaults()

	raw, err := json.Marshal(next)
	if err != nil {
		return model.Profile{}, fmt.Errorf("marshal profile: %w", err)
	}
	if err := s.storage.Save(ctx, ProfileKey, raw); err != nil {
		return model.Profile{}, fmt.Errorf("save profile: %w", err)
	}
	s.profile = next

	return next, nil
}
