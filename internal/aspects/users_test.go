package aspects

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/madeeasy/weave"
	"github.com/madeeasy/weave/internal/controller"
)

const usersController = "github.com/madeeasy/weave/internal/controller.UsersController"

func setupUsersProxy(t *testing.T, around AroundOptions) (*weave.Proxy, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	registry := weave.NewRegistry()
	NewUsersAspect(logger, around).Register(registry, weave.Within(usersController))

	proxy, err := registry.Build().Proxy(controller.NewUsersController(logger))
	require.NoError(t, err)
	return proxy, logs
}

func messages(logs *observer.ObservedLogs) []string {
	var out []string
	for _, entry := range logs.All() {
		out = append(out, entry.Message)
	}
	return out
}

func TestUsersAspectSuccessSequence(t *testing.T) {
	proxy, logs := setupUsersProxy(t, AroundOptions{Enabled: true, Suppress: true})

	result, err := proxy.Invoke(context.Background(), "ListUsers")
	require.NoError(t, err)
	assert.Equal(t, controller.SuccessToken, result)

	assert.Equal(t, []string{
		"beforeAdvice",
		"aroundAdvice before join point",
		"Get all users from users controller class",
		"afterReturningAdvice",
		"aroundAdvice after join point",
		"afterAdvice",
	}, messages(logs))

	entry := logs.FilterMessage("beforeAdvice").All()[0]
	fields := entry.ContextMap()
	assert.Equal(t, "ListUsers", fields["method"])
	assert.Equal(t, usersController, fields["target"])
}

func TestUsersAspectSuppressesFault(t *testing.T) {
	proxy, logs := setupUsersProxy(t, AroundOptions{Enabled: true, Suppress: true})

	result, err := proxy.Invoke(context.Background(), "ListUsersFaulting")
	require.NoError(t, err)
	assert.Nil(t, result)

	assert.Equal(t, []string{
		"beforeAdvice",
		"aroundAdvice before join point",
		"Get all users from users controller class",
		"afterThrowingAdvice",
		"aroundAdvice caught error",
		"aroundAdvice after join point",
		"afterAdvice",
	}, messages(logs))

	thrown := logs.FilterMessage("afterThrowingAdvice").All()[0].ContextMap()
	assert.Equal(t, controller.SimulatedMessage, thrown["exception"])

	after := logs.FilterMessage("afterAdvice").All()[0].ContextMap()
	assert.Equal(t, false, after["failed"])
	assert.Equal(t, true, after["executed"])
}

func TestUsersAspectPropagatesWhenNotSuppressing(t *testing.T) {
	proxy, logs := setupUsersProxy(t, AroundOptions{Enabled: true})

	_, err := proxy.Invoke(context.Background(), "ListUsersFaulting")
	var simErr *controller.SimulatedError
	require.True(t, errors.As(err, &simErr))

	after := logs.FilterMessage("afterAdvice").All()[0].ContextMap()
	assert.Equal(t, true, after["failed"])
}

func TestUsersAspectWithoutAround(t *testing.T) {
	proxy, logs := setupUsersProxy(t, AroundOptions{})

	_, err := proxy.Invoke(context.Background(), "ListUsersFaulting")
	require.Error(t, err)

	assert.Equal(t, []string{
		"beforeAdvice",
		"Get all users from users controller class",
		"afterThrowingAdvice",
		"afterAdvice",
	}, messages(logs))
	assert.Zero(t, logs.FilterMessage("afterReturningAdvice").Len())
}

func TestUsersAspectSuppressionKeepsAdviceErrors(t *testing.T) {
	hookErr := errors.New("audit unavailable")
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	registry := weave.NewRegistry()
	pc := weave.Within(usersController)
	NewUsersAspect(logger, AroundOptions{Enabled: true, Suppress: true}).Register(registry, pc)
	registry.AfterReturning(pc, func(ctx context.Context, jp *weave.JoinPoint, result any) error {
		return hookErr
	})

	proxy, err := registry.Build().Proxy(controller.NewUsersController(logger))
	require.NoError(t, err)

	result, err := proxy.Invoke(context.Background(), "ListUsers")
	assert.Nil(t, result)
	var aerr *weave.AdviceError
	require.ErrorAs(t, err, &aerr)
	assert.ErrorIs(t, err, hookErr)
	assert.Equal(t, weave.PointAfterReturning, aerr.Point)

	after := logs.FilterMessage("afterAdvice").All()[0].ContextMap()
	assert.Equal(t, true, after["failed"])
}
