package models

import (
	"errors"
	"fmt"

	goval "github.com/go-passwd/validator"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/leebenson/conform"
	"golang.org/x/crypto/bcrypt"
)

// User represents an account that can authenticate and exchange messages.
type User struct {
	Model
	Fullname       string `json:"fullname" binding:"required,min=2" conform:"trim"`
	Username       string `json:"username" gorm:"unique;not null" binding:"required,min=2" conform:"trim,lower"`
	Email          string `json:"email" gorm:"unique;not null" binding:"required,email" conform:"trim,lower"`
	Password       string `json:"password,omitempty" gorm:"-" validate:"omitempty,min=6"`
	HashedPassword string `json:"-"`
	AvatarURL      string `json:"avatar_url,omitempty"`
	// DeviceToken is the FCM registration token used for push fallback when
	// the user has no live channel.
	DeviceToken string `json:"-"`
	Online      bool   `gorm:"default:false" json:"online"`
}

// Blacklist stores revoked access tokens until they expire.
type Blacklist struct {
	Model
	Token string `gorm:"index;not null" json:"token"`
}

// VerifyPassword compares the given plaintext against the stored hash.
func (u *User) VerifyPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.HashedPassword), []byte(password))
}

// ValidatePassword enforces the account password policy.
func ValidatePassword(password string) error {
	passwordValidator := goval.New(goval.MinLength(6, errors.New("password cant be less than 6 characters")),
		goval.MaxLength(64, errors.New("password cant be more than 64 characters")))
	return passwordValidator.Validate(password)
}

// ConformInput trims and normalizes tagged string fields in place.
func ConformInput(data interface{}) error {
	return conform.Strings(data)
}

func TranslateError(err error, trans ut.Translator) (errs []error) {
	if err == nil {
		return nil
	}
	validatorErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []error{err}
	}
	for _, e := range validatorErrs {
		translatedErr := fmt.Errorf(e.Translate(trans) + "; ")
		errs = append(errs, translatedErr)
	}
	return errs
}

type UserResponse struct {
	ID        string `json:"id"`
	Fullname  string `json:"fullname"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Online    bool   `json:"online"`
}

func (u *User) Response() UserResponse {
	return UserResponse{
		ID:        u.ID.String(),
		Fullname:  u.Fullname,
		Username:  u.Username,
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
		Online:    u.Online,
	}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	UserResponse
	AccessToken string `json:"access_token"`
}

// DeviceTokenRequest registers an FCM token for push fallback delivery.
type DeviceTokenRequest struct {
	DeviceToken string `json:"device_token" binding:"required"`
}
