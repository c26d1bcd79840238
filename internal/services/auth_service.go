package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/terraincognita07/nutriwell/internal/models"
	"github.com/terraincognita07/nutriwell/internal/security"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrAuthEmailExists           = errors.New("auth email already exists")
	ErrAuthInvalidLogin          = errors.New("auth invalid email or password")
	ErrAuthUserNotFound          = errors.New("auth user not found")
	ErrPasswordChangeInvalid     = errors.New("password change invalid input")
	ErrPasswordMismatch          = errors.New("password confirmation mismatch")
	ErrInvalidCurrentPassword    = errors.New("invalid current password")
	ErrNewPasswordMustDiffer     = errors.New("new password must differ")
	ErrTemporaryPasswordTooShort = errors.New("temporary password too short")
)

const (
	temporaryPasswordLength = 12

	temporaryPasswordUpper  = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	temporaryPasswordLower  = "abcdefghijkmnopqrstuvwxyz"
	temporaryPasswordDigits = "23456789"

	temporaryPasswordAlphabet = temporaryPasswordUpper + temporaryPasswordLower + temporaryPasswordDigits
)

type AuthUserRepository interface {
	CountUsers() (int64, error)
	ExistsByNormalizedEmail(email string) (bool, error)
	FindByNormalizedEmail(email string) (models.User, error)
	FindByID(userID uint) (models.User, error)
	Create(user *models.User) error
	UpdatePassword(userID uint, passwordHash string, mustChangePassword bool) error
}

type AuthService struct {
	users  AuthUserRepository
	logger *log.Logger
	cost   int
}

func NewAuthService(users AuthUserRepository, logger *log.Logger) *AuthService {
	return &AuthService{
		users:  users,
		logger: loggerOrDiscard(logger),
		cost:   bcrypt.DefaultCost,
	}
}

// Register creates an account. The first account on a fresh install is the
// admin that manages reference materials.
func (service *AuthService) Register(emailRaw string, passwordRaw string) (models.User, error) {
	email, password, err := NormalizeCredentialsInput(emailRaw, passwordRaw)
	if err != nil {
		return models.User{}, err
	}
	if err := ValidatePasswordStrength(password); err != nil {
		return models.User{}, err
	}

	exists, err := service.users.ExistsByNormalizedEmail(email)
	if err != nil {
		return models.User{}, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return models.User{}, ErrAuthEmailExists
	}

	usersCount, err := service.users.CountUsers()
	if err != nil {
		return models.User{}, fmt.Errorf("count users: %w", err)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), service.cost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Email:        email,
		PasswordHash: string(passwordHash),
		Role:         models.RoleUser,
	}
	if usersCount == 0 {
		user.Role = models.RoleAdmin
	}
	if err := service.users.Create(&user); err != nil {
		return models.User{}, fmt.Errorf("create user: %w", err)
	}

	service.logger.Info("account registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

func (service *AuthService) Authenticate(emailRaw string, passwordRaw string) (models.User, error) {
	email, password, err := NormalizeCredentialsInput(emailRaw, passwordRaw)
	if err != nil {
		return models.User{}, ErrAuthInvalidLogin
	}

	user, err := service.users.FindByNormalizedEmail(email)
	if err != nil {
		return models.User{}, ErrAuthInvalidLogin
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return models.User{}, ErrAuthInvalidLogin
	}
	return user, nil
}

func (service *AuthService) FindByID(userID uint) (models.User, error) {
	user, err := service.users.FindByID(userID)
	if err != nil {
		return models.User{}, ErrAuthUserNotFound
	}
	return user, nil
}

func (service *AuthService) ChangePassword(userID uint, currentPassword string, newPassword string, confirmPassword string) error {
	user, err := service.FindByID(userID)
	if err != nil {
		return err
	}

	currentPassword = strings.TrimSpace(currentPassword)
	newPassword = strings.TrimSpace(newPassword)
	confirmPassword = strings.TrimSpace(confirmPassword)

	if currentPassword == "" || newPassword == "" || confirmPassword == "" {
		return ErrPasswordChangeInvalid
	}
	if newPassword != confirmPassword {
		return ErrPasswordMismatch
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)) != nil {
		return ErrInvalidCurrentPassword
	}
	if currentPassword == newPassword {
		return ErrNewPasswordMustDiffer
	}
	if err := ValidatePasswordStrength(newPassword); err != nil {
		return err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), service.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := service.users.UpdatePassword(user.ID, string(passwordHash), false); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// ResetPassword replaces the password of the given account with a random
// temporary one that must be changed on next login.
func (service *AuthService) ResetPassword(emailRaw string) (string, error) {
	email := NormalizeAuthEmail(emailRaw)
	if email == "" {
		return "", ErrAuthCredentialsInvalid
	}

	user, err := service.users.FindByNormalizedEmail(email)
	if err != nil {
		return "", ErrAuthUserNotFound
	}

	temporaryPassword, err := GenerateTemporaryPassword(temporaryPasswordLength)
	if err != nil {
		return "", fmt.Errorf("generate temporary password: %w", err)
	}
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(temporaryPassword), service.cost)
	if err != nil {
		return "", fmt.Errorf("hash temporary password: %w", err)
	}
	if err := service.users.UpdatePassword(user.ID, string(passwordHash), true); err != nil {
		return "", fmt.Errorf("update password: %w", err)
	}

	service.logger.Info("password reset", "user_id", user.ID)
	return temporaryPassword, nil
}

// SetPassword stores an operator-chosen password for the account and
// clears the forced change flag.
func (service *AuthService) SetPassword(emailRaw string, password string) error {
	email := NormalizeAuthEmail(emailRaw)
	if email == "" {
		return ErrAuthCredentialsInvalid
	}
	if err := ValidatePasswordStrength(password); err != nil {
		return err
	}

	user, err := service.users.FindByNormalizedEmail(email)
	if err != nil {
		return ErrAuthUserNotFound
	}
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), service.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := service.users.UpdatePassword(user.ID, string(passwordHash), false); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	service.logger.Info("password set by operator", "user_id", user.ID)
	return nil
}

func GenerateTemporaryPassword(length int) (string, error) {
	if length < 8 {
		return "", ErrTemporaryPasswordTooShort
	}
	// every class present, so the password passes ValidatePasswordStrength
	return security.RandomStringWithClasses(length, temporaryPasswordUpper, temporaryPasswordLower, temporaryPasswordDigits)
}
