package services

import (
	"errors"
	"time"

	"github.com/huangang/tripplanner/internal/config"
	"github.com/huangang/tripplanner/internal/models"
	"github.com/huangang/tripplanner/internal/utils"
	"github.com/huangang/tripplanner/pkg/logger"
	"github.com/huangang/tripplanner/pkg/response"
	"gorm.io/gorm"
)

type AuthService struct {
	db        *gorm.DB
	users     *UserService
	jwtConfig *config.JWTConfig
	configSvc *SystemConfigService
}

func NewAuthService(db *gorm.DB, jwtCfg *config.JWTConfig) *AuthService {
	return &AuthService{
		db:        db,
		users:     NewUserService(db),
		jwtConfig: jwtCfg,
		configSvc: NewSystemConfigService(db),
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// ClientInfo is recorded with each issued refresh token
type ClientInfo struct {
	IP        string
	UserAgent string
}

type AuthResult struct {
	AccessToken     string       `json:"access_token"`
	AccessExpireAt  time.Time    `json:"access_expire_at"`
	RefreshToken    string       `json:"refresh_token"`
	RefreshExpireAt time.Time    `json:"refresh_expire_at"`
	User            *models.User `json:"user,omitempty"`
}

var errInvalidCredentials = response.NewUnauthorized("invalid email or password")

// Register creates the account and signs the user in
func (s *AuthService) Register(req *RegisterRequest, client ClientInfo) (*AuthResult, error) {
	user, err := s.users.Create(req)
	if err != nil {
		return nil, err
	}
	return s.issue(user, client)
}

// Login authenticates by email and password
func (s *AuthService) Login(req *LoginRequest, client ClientInfo) (*AuthResult, error) {
	user, err := s.users.GetByEmail(req.Email)
	if err != nil {
		var appErr *response.AppError
		if errors.As(err, &appErr) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}

	if !utils.CheckPassword(req.Password, user.Password) {
		return nil, errInvalidCredentials
	}
	if !user.IsActive {
		return nil, response.NewForbidden("user is disabled")
	}

	result, err := s.issue(user, client)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.db.Model(user).Update("last_login", now).Error; err != nil {
		logger.Warn().Err(err).Uint("user_id", user.ID).Msg("[Auth] failed to record last login")
	}
	user.LastLogin = &now
	return result, nil
}

func (s *AuthService) issue(user *models.User, client ClientInfo) (*AuthResult, error) {
	accessHours := s.configSvc.GetInt("auth_access_token_expire_hours", s.jwtConfig.ExpireHour)
	refreshHours := s.configSvc.GetInt("auth_refresh_token_expire_hours", s.refreshDefault())

	token, err := utils.GenerateToken(user.ID, user.Username, user.Role, accessHours)
	if err != nil {
		return nil, err
	}

	refreshToken, refreshHash, err := utils.GenerateOpaqueToken()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	record := models.RefreshToken{
		UserID:      user.ID,
		TokenHash:   refreshHash,
		ExpiresAt:   now.Add(time.Duration(refreshHours) * time.Hour),
		CreatedByIP: client.IP,
		UserAgent:   truncate(client.UserAgent, 255),
	}
	if err := s.db.Create(&record).Error; err != nil {
		return nil, err
	}

	return &AuthResult{
		AccessToken:     token,
		AccessExpireAt:  now.Add(time.Duration(accessHours) * time.Hour),
		RefreshToken:    refreshToken,
		RefreshExpireAt: record.ExpiresAt,
		User:            user,
	}, nil
}

func (s *AuthService) refreshDefault() int {
	if s.jwtConfig.RefreshExpireHour > 0 {
		return s.jwtConfig.RefreshExpireHour
	}
	return 720
}

// Refresh exchanges a refresh token for a new pair. The old token is revoked
// and linked to its replacement.
func (s *AuthService) Refresh(refreshToken string, client ClientInfo) (*AuthResult, error) {
	if refreshToken == "" {
		return nil, response.NewBadRequest("refresh token required")
	}

	var stored models.RefreshToken
	if err := s.db.Where("token_hash = ?", utils.HashOpaqueToken(refreshToken)).First(&stored).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewUnauthorized("invalid refresh token")
		}
		return nil, err
	}

	now := time.Now()
	if err := stored.Usable(now); err != nil {
		return nil, response.NewUnauthorized(err.Error())
	}

	user, err := s.users.GetByID(stored.UserID)
	if err != nil {
		return nil, response.NewUnauthorized("user not found")
	}
	if !user.IsActive {
		return nil, response.NewForbidden("user is disabled")
	}

	var result *AuthResult
	err = s.db.Transaction(func(tx *gorm.DB) error {
		txAuth := &AuthService{db: tx, users: s.users, jwtConfig: s.jwtConfig, configSvc: s.configSvc}
		issued, err := txAuth.issue(user, client)
		if err != nil {
			return err
		}

		var replacement models.RefreshToken
		if err := tx.Where("token_hash = ?", utils.HashOpaqueToken(issued.RefreshToken)).First(&replacement).Error; err != nil {
			return err
		}

		res := tx.Model(&models.RefreshToken{}).
			Where("id = ? AND revoked_at IS NULL", stored.ID).
			Updates(map[string]interface{}{
				"revoked_at":           now,
				"replaced_by_token_id": replacement.ID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// lost a race with a concurrent refresh of the same token
			return response.NewUnauthorized(models.ErrRefreshTokenRevoked.Error())
		}
		result = issued
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RevokeRefreshToken is used by logout; unknown tokens are ignored
func (s *AuthService) RevokeRefreshToken(refreshToken string) error {
	if refreshToken == "" {
		return nil
	}

	return s.db.Model(&models.RefreshToken{}).
		Where("token_hash = ? AND revoked_at IS NULL", utils.HashOpaqueToken(refreshToken)).
		Update("revoked_at", time.Now()).Error
}

// CreateAdminIfNotExists seeds the configured admin account
func (s *AuthService) CreateAdminIfNotExists(cfg config.AdminConfig) error {
	var count int64
	s.db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count)
	if count > 0 {
		return nil
	}

	hashedPassword, err := utils.HashPassword(cfg.Password)
	if err != nil {
		return err
	}

	admin := models.User{
		Username:  cfg.Username,
		Email:     cfg.Email,
		Password:  hashedPassword,
		FirstName: "Administrator",
		Role:      models.RoleAdmin,
		IsActive:  true,
	}
	return s.db.Create(&admin).Error
}
