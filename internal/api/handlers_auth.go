package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/nutriwell/internal/models"
)

func (handler *Handler) Register(c *fiber.Ctx) error {
	credentials := credentialsInput{}
	if err := c.BodyParser(&credentials); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	user, err := handler.authService.Register(credentials.Email, credentials.Password)
	if err != nil {
		return authAPIError(c, err)
	}
	return handler.respondWithSession(c, &user, fiber.StatusCreated)
}

func (handler *Handler) Login(c *fiber.Ctx) error {
	credentials := credentialsInput{}
	if err := c.BodyParser(&credentials); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	limiterKey := loginLimiterKey(c, credentials.Email)
	now := handler.now()
	if handler.loginLimiter.tooManyRecent(limiterKey, now, loginAttemptLimit, loginAttemptWindow) {
		return apiError(c, fiber.StatusTooManyRequests, "too many login attempts")
	}

	user, err := handler.authService.Authenticate(credentials.Email, credentials.Password)
	if err != nil {
		handler.loginLimiter.addFailure(limiterKey, now, loginAttemptWindow)
		return authAPIError(c, err)
	}
	handler.loginLimiter.reset(limiterKey)
	return handler.respondWithSession(c, &user, fiber.StatusOK)
}

func (handler *Handler) Logout(c *fiber.Ctx) error {
	handler.clearAuthCookie(c)
	return c.JSON(fiber.Map{"ok": true})
}

func (handler *Handler) Me(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	return c.JSON(fiber.Map{"user": authUserView(user)})
}

func (handler *Handler) ChangePassword(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	input := changePasswordInput{}
	if err := c.BodyParser(&input); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	if err := handler.authService.ChangePassword(user.ID, input.CurrentPassword, input.NewPassword, input.ConfirmPassword); err != nil {
		return authAPIError(c, err)
	}
	refreshed, err := handler.authService.FindByID(user.ID)
	if err != nil {
		return apiError(c, fiber.StatusInternalServerError, "failed to reload account")
	}
	return handler.respondWithSession(c, &refreshed, fiber.StatusOK)
}

func (handler *Handler) respondWithSession(c *fiber.Ctx, user *models.User, status int) error {
	token, err := handler.buildToken(user, authTokenTTL)
	if err != nil {
		return apiError(c, fiber.StatusInternalServerError, "failed to create session")
	}
	handler.setAuthCookie(c, token)
	return c.Status(status).JSON(fiber.Map{
		"user":  authUserView(user),
		"token": token,
	})
}

func authUserView(user *models.User) authUserResponse {
	return authUserResponse{
		ID:                  user.ID,
		Email:               user.Email,
		Role:                user.Role,
		MustChangePassword:  user.MustChangePassword,
		OnboardingCompleted: user.OnboardingCompleted,
	}
}
