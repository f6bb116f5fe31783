package db

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/techagentng/chatline/models"
	"gorm.io/gorm"
)

type AuthRepository interface {
	CreateUser(user *models.User) (*models.User, error)
	FindUserByID(id uuid.UUID) (*models.User, error)
	FindUserByUsername(username string) (*models.User, error)
	FindUserByEmail(email string) (*models.User, error)
	UserExists(id uuid.UUID) (bool, error)
	UpdateUser(user *models.User) error
	UpdateDeviceToken(userID uuid.UUID, token string) error
	AddToBlacklist(blacklist *models.Blacklist) error
	IsTokenInBlacklist(token string) bool
}

type authRepo struct {
	DB *gorm.DB
}

func NewAuthRepo(db *GormDB) AuthRepository {
	return &authRepo{db.DB}
}

func (a *authRepo) CreateUser(user *models.User) (*models.User, error) {
	if err := a.DB.Create(user).Error; err != nil {
		return nil, errors.Wrap(err, "could not create user")
	}
	return user, nil
}

func (a *authRepo) FindUserByID(id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := a.DB.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (a *authRepo) FindUserByUsername(username string) (*models.User, error) {
	var user models.User
	if err := a.DB.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (a *authRepo) FindUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := a.DB.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (a *authRepo) UserExists(id uuid.UUID) (bool, error) {
	var count int64
	if err := a.DB.Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, errors.Wrap(err, "could not count users")
	}
	return count > 0, nil
}

func (a *authRepo) UpdateUser(user *models.User) error {
	if err := a.DB.Save(user).Error; err != nil {
		return errors.Wrap(err, "could not update user")
	}
	return nil
}

func (a *authRepo) UpdateDeviceToken(userID uuid.UUID, token string) error {
	err := a.DB.Model(&models.User{}).Where("id = ?", userID).
		Update("device_token", token).Error
	if err != nil {
		return errors.Wrap(err, "could not update device token")
	}
	return nil
}

func (a *authRepo) AddToBlacklist(blacklist *models.Blacklist) error {
	if err := a.DB.Create(blacklist).Error; err != nil {
		return errors.Wrap(err, "could not blacklist token")
	}
	return nil
}

func (a *authRepo) IsTokenInBlacklist(token string) bool {
	var count int64
	a.DB.Model(&models.Blacklist{}).Where("token = ?", token).Count(&count)
	return count > 0
}
