package controller

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestListUsersReturnsSuccessToken(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	c := NewUsersController(zap.New(core))

	for i := 0; i < 3; i++ {
		assert.Equal(t, SuccessToken, c.ListUsers(context.Background()))
	}
	assert.Equal(t, 3, logs.FilterMessage("Get all users from users controller class").Len())
}

func TestListUsersFaultingAlwaysFails(t *testing.T) {
	c := NewUsersController(nil)

	for i := 0; i < 2; i++ {
		result, err := c.ListUsersFaulting(context.Background())
		require.Error(t, err)
		assert.Empty(t, result)

		var simErr *SimulatedError
		require.True(t, errors.As(err, &simErr))
		assert.Equal(t, "Simulating an exception in getAllUsers()", simErr.Error())
	}
}
