package services

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/huangang/tripplanner/internal/models"
	"github.com/huangang/tripplanner/pkg/response"
	"gorm.io/gorm"
)

type SystemConfigService struct {
	db *gorm.DB
}

func NewSystemConfigService(db *gorm.DB) *SystemConfigService {
	return &SystemConfigService{db: db}
}

func (s *SystemConfigService) Get(key string) (string, error) {
	var cfg models.SystemConfig
	if err := s.db.Where("config_key = ?", key).First(&cfg).Error; err != nil {
		return "", err
	}
	return cfg.Value, nil
}

func (s *SystemConfigService) GetWithDefault(key, defaultValue string) string {
	value, err := s.Get(key)
	if err != nil {
		return defaultValue
	}
	return value
}

// GetInt returns the integer value of key, or defaultValue when it is
// missing, unparsable or not positive.
func (s *SystemConfigService) GetInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(s.GetWithDefault(key, ""))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}

func (s *SystemConfigService) GetBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(s.GetWithDefault(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func (s *SystemConfigService) Set(key, value string) error {
	var cfg models.SystemConfig
	err := s.db.Where("config_key = ?", key).First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cfg = models.SystemConfig{
			Key:   key,
			Value: value,
		}
		return s.db.Create(&cfg).Error
	}
	if err != nil {
		return err
	}
	return s.db.Model(&cfg).Update("value", value).Error
}

func (s *SystemConfigService) GetByGroup(group string) ([]models.SystemConfig, error) {
	var configs []models.SystemConfig
	if err := s.db.Where("config_group = ?", group).Order("config_key").Find(&configs).Error; err != nil {
		return nil, err
	}
	return configs, nil
}

func (s *SystemConfigService) List() ([]models.SystemConfig, error) {
	var configs []models.SystemConfig
	if err := s.db.Order("config_group, config_key").Find(&configs).Error; err != nil {
		return nil, err
	}
	return configs, nil
}

// Update changes a seeded setting. The value must parse as the setting's type.
func (s *SystemConfigService) Update(key, value string) (*models.SystemConfig, error) {
	var cfg models.SystemConfig
	if err := s.db.Where("config_key = ?", key).First(&cfg).Error; err != nil {
		return nil, notFoundOr(err, "config")
	}

	switch cfg.Type {
	case "int":
		if n, err := strconv.Atoi(value); err != nil || n <= 0 {
			return nil, response.NewBadRequest(fmt.Sprintf("%s must be a positive integer", key))
		}
	case "bool":
		if _, err := strconv.ParseBool(value); err != nil {
			return nil, response.NewBadRequest(fmt.Sprintf("%s must be true or false", key))
		}
	}

	if err := s.db.Model(&cfg).Update("value", value).Error; err != nil {
		return nil, err
	}
	return &cfg, nil
}
