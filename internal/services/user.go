package services

import (
	"strings"

	"github.com/huangang/tripplanner/internal/models"
	"github.com/huangang/tripplanner/internal/utils"
	"github.com/huangang/tripplanner/pkg/response"
	"gorm.io/gorm"
)

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

type RegisterRequest struct {
	Username        string `json:"username" binding:"required,notblank,min=3,max=50"`
	Email           string `json:"email" binding:"required,email,max=255"`
	Password        string `json:"password" binding:"required,min=6,max=72"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
	FirstName       string `json:"first_name" binding:"omitempty,max=50"`
	LastName        string `json:"last_name" binding:"omitempty,max=50"`
}

type UpdateProfileRequest struct {
	FirstName *string `json:"first_name" binding:"omitempty,max=50"`
	LastName  *string `json:"last_name" binding:"omitempty,max=50"`
	Bio       *string `json:"bio" binding:"omitempty,max=500"`
	AvatarURL *string `json:"avatar_url" binding:"omitempty,max=500"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6,max=72"`
}

// Create registers a new local user
func (s *UserService) Create(req *RegisterRequest) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	username := strings.TrimSpace(req.Username)

	if req.Password != req.ConfirmPassword {
		return nil, response.NewBadRequest("Passwords do not match")
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, response.NewConflict("Email is already in use")
	}
	if err := s.db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, response.NewConflict("Username is already taken")
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:  username,
		Email:     email,
		Password:  hashed,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Role:      models.RoleUser,
		IsActive:  true,
	}
	if err := s.db.Create(user).Error; err != nil {
		if isDuplicate(err) {
			return nil, response.NewConflict("Email or username is already in use")
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		return nil, notFoundOr(err, "user")
	}
	return &user, nil
}

func (s *UserService) GetByEmail(email string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error; err != nil {
		return nil, notFoundOr(err, "user")
	}
	return &user, nil
}

func (s *UserService) GetByUsername(username string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, notFoundOr(err, "user")
	}
	return &user, nil
}

// Search matches active users on username, email or name, case-insensitively
func (s *UserService) Search(q string, limit int) ([]models.User, error) {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return []models.User{}, nil
	}
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}

	like := "%" + escapeLike(q) + "%"
	var users []models.User
	err := s.db.Where("is_active = ?", true).
		Where("(LOWER(username) LIKE ? ESCAPE '!' OR LOWER(email) LIKE ? ESCAPE '!' OR "+
			"LOWER(first_name) LIKE ? ESCAPE '!' OR LOWER(last_name) LIKE ? ESCAPE '!')",
			like, like, like, like).
		Order("username").
		Limit(limit).
		Find(&users).Error
	return users, err
}

func (s *UserService) ListActive(req *PageRequest) (*ListResponse[models.User], error) {
	req.normalize(defaultPageSize)

	query := s.db.Model(&models.User{}).Where("is_active = ?", true)
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var users []models.User
	if err := query.Order("id").Offset(req.offset()).Limit(req.PageSize).Find(&users).Error; err != nil {
		return nil, err
	}
	return &ListResponse[models.User]{Total: total, Page: req.Page, PageSize: req.PageSize, Items: users}, nil
}

// TripMembers returns users with an accepted membership in the trip
func (s *UserService) TripMembers(tripID uint) ([]models.User, error) {
	var users []models.User
	err := s.db.Joins("JOIN trip_members ON trip_members.user_id = users.id").
		Where("trip_members.trip_id = ? AND trip_members.status = ?", tripID, models.TripMemberAccepted).
		Order("users.id").
		Find(&users).Error
	return users, err
}

func (s *UserService) GroupMembers(groupID uint) ([]models.User, error) {
	var users []models.User
	err := s.db.Joins("JOIN group_members ON group_members.user_id = users.id").
		Where("group_members.group_id = ?", groupID).
		Order("users.id").
		Find(&users).Error
	return users, err
}

// Update applies a partial profile update
func (s *UserService) Update(userID uint, req *UpdateProfileRequest) (*models.User, error) {
	user, err := s.GetByID(userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.FirstName != nil {
		updates["first_name"] = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		updates["last_name"] = strings.TrimSpace(*req.LastName)
	}
	if req.Bio != nil {
		updates["bio"] = *req.Bio
	}
	if req.AvatarURL != nil {
		updates["avatar_url"] = *req.AvatarURL
	}
	if len(updates) == 0 {
		return user, nil
	}

	if err := s.db.Model(user).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.GetByID(userID)
}

func (s *UserService) SetAvatar(userID uint, url string) (*models.User, error) {
	return s.Update(userID, &UpdateProfileRequest{AvatarURL: &url})
}

// IsActive reports whether the user exists and has not been deactivated
func (s *UserService) IsActive(userID uint) (bool, error) {
	var count int64
	err := s.db.Model(&models.User{}).
		Where("id = ? AND is_active = ?", userID, true).
		Count(&count).Error
	return count > 0, err
}

// Deactivate soft-deletes a user and revokes their refresh tokens
func (s *UserService) Deactivate(userID uint) error {
	user, err := s.GetByID(userID)
	if err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(user).Update("is_active", false).Error; err != nil {
			return err
		}
		return tx.Model(&models.RefreshToken{}).
			Where("user_id = ? AND revoked_at IS NULL", userID).
			Update("revoked_at", gorm.Expr("CURRENT_TIMESTAMP")).Error
	})
}

func (s *UserService) ChangePassword(userID uint, req *ChangePasswordRequest) error {
	user, err := s.GetByID(userID)
	if err != nil {
		return err
	}

	if !utils.CheckPassword(req.OldPassword, user.Password) {
		return response.NewBadRequest("incorrect old password")
	}

	hashed, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	return s.db.Model(user).Update("password", hashed).Error
}

// requireActiveUser loads userID and fails with 404 when the account is gone
// or deactivated.
func requireActiveUser(db *gorm.DB, userID uint) (*models.User, error) {
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return nil, notFoundOr(err, "user")
	}
	if !user.IsActive {
		return nil, response.NewNotFound("user not found")
	}
	return &user, nil
}
