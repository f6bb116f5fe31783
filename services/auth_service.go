package services

import (
	"log"

	"github.com/google/uuid"
	"github.com/techagentng/chatline/config"
	"github.com/techagentng/chatline/db"
	apiError "github.com/techagentng/chatline/errors"
	"github.com/techagentng/chatline/models"
	"github.com/techagentng/chatline/services/jwt"
	"golang.org/x/crypto/bcrypt"
)

// AuthService is the thin account layer: registration, login, logout and
// profile reads. Token validation for requests lives in the server
// middleware.
type AuthService interface {
	RegisterUser(user *models.User) (*models.User, *apiError.Error)
	LoginUser(req *models.LoginRequest) (*models.LoginResponse, *apiError.Error)
	LogoutUser(accessToken string) *apiError.Error
	GetUserProfile(userID uuid.UUID) (*models.User, *apiError.Error)
	UpdateDeviceToken(userID uuid.UUID, deviceToken string) *apiError.Error
}

type authService struct {
	Config   *config.Config
	authRepo db.AuthRepository
}

func NewAuthService(authRepo db.AuthRepository, conf *config.Config) AuthService {
	return &authService{
		Config:   conf,
		authRepo: authRepo,
	}
}

func (a *authService) RegisterUser(user *models.User) (*models.User, *apiError.Error) {
	if err := models.ConformInput(user); err != nil {
		return nil, apiError.BadRequest(err.Error())
	}
	if err := models.ValidatePassword(user.Password); err != nil {
		return nil, apiError.BadRequest(err.Error())
	}
	if _, err := a.authRepo.FindUserByUsername(user.Username); err == nil {
		return nil, apiError.Conflict("username is already taken")
	}
	if _, err := a.authRepo.FindUserByEmail(user.Email); err == nil {
		return nil, apiError.Conflict("email is already registered")
	}

	hashed, err := GenerateHashPassword(user.Password)
	if err != nil {
		log.Printf("error hashing password: %v", err)
		return nil, apiError.ErrInternalServerError
	}
	user.HashedPassword = hashed
	user.Password = ""

	created, err := a.authRepo.CreateUser(user)
	if err != nil {
		return nil, apiError.ErrInternalServerError
	}
	return created, nil
}

func GenerateHashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hashed), err
}

func (a *authService) LoginUser(req *models.LoginRequest) (*models.LoginResponse, *apiError.Error) {
	user, err := a.authRepo.FindUserByUsername(req.Username)
	if err != nil {
		return nil, apiError.New("invalid username or password", 401)
	}
	if err := user.VerifyPassword(req.Password); err != nil {
		return nil, apiError.New("invalid username or password", 401)
	}

	token, err := jwt.GenerateToken(user.ID, user.Username, a.Config.JWTSecret)
	if err != nil {
		log.Printf("error generating token for %s: %v", user.Username, err)
		return nil, apiError.ErrInternalServerError
	}

	return &models.LoginResponse{
		UserResponse: user.Response(),
		AccessToken:  token,
	}, nil
}

func (a *authService) LogoutUser(accessToken string) *apiError.Error {
	err := a.authRepo.AddToBlacklist(&models.Blacklist{Token: accessToken})
	if err != nil {
		return apiError.ErrInternalServerError
	}
	return nil
}

func (a *authService) GetUserProfile(userID uuid.UUID) (*models.User, *apiError.Error) {
	user, err := a.authRepo.FindUserByID(userID)
	if err != nil {
		return nil, apiError.NotFound("user not found")
	}
	return user, nil
}

func (a *authService) UpdateDeviceToken(userID uuid.UUID, deviceToken string) *apiError.Error {
	if err := a.authRepo.UpdateDeviceToken(userID, deviceToken); err != nil {
		return apiError.ErrInternalServerError
	}
	return nil
}
