package controller

import (
	"context"

	"go.uber.org/zap"
)

// SuccessToken is the body returned by ListUsers.
const SuccessToken = "success"

// SimulatedMessage is carried by every SimulatedError.
const SimulatedMessage = "Simulating an exception in getAllUsers()"

// SimulatedError is returned unconditionally by ListUsersFaulting.
type SimulatedError struct {
	Message string
}

func (e *SimulatedError) Error() string {
	return e.Message
}

// UsersController serves the users endpoints.
type UsersController struct {
	logger *zap.Logger
}

// NewUsersController creates a controller that emits its diagnostics to logger.
func NewUsersController(logger *zap.Logger) *UsersController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UsersController{logger: logger.Named("controller")}
}

// ListUsers returns SuccessToken.
func (c *UsersController) ListUsers(ctx context.Context) string {
	c.logger.Info("Get all users from users controller class")
	return SuccessToken
}

// ListUsersFaulting always fails with a SimulatedError.
func (c *UsersController) ListUsersFaulting(ctx context.Context) (string, error) {
	c.logger.Info("Get all users from users controller class")
	return "", &SimulatedError{Message: SimulatedMessage}
}
