package user_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/get-eventually/eventcore/aggregate"
	"github.com/get-eventually/eventcore/command"
	"github.com/get-eventually/eventcore/event"
	"github.com/get-eventually/eventcore/internal/user"
	"github.com/get-eventually/eventcore/partition"
	"github.com/get-eventually/eventcore/version"
)

func newRegistry(t *testing.T) *event.Registry {
	registry := event.NewRegistry()
	require.NoError(t, user.Register(registry))

	return registry
}

func registerWith(emails ...string) func(context.Context, *command.Executor, user.RegisterUser) (command.Response, error) {
	taken := make(map[string]bool, len(emails))
	for _, email := range emails {
		taken[email] = true
	}

	return func(ctx context.Context, e *command.Executor, cmd user.RegisterUser) (command.Response, error) {
		return command.ExecuteWithInjection[user.Injection](ctx, e, cmd, user.Injection{
			EmailExists: func(email string) bool { return taken[email] },
		})
	}
}

func executeHandling(ctx context.Context, e *command.Executor, cmd command.Handling) (command.Response, error) {
	return e.Execute(ctx, cmd)
}

func TestProjector(t *testing.T) {
	keys := partition.Generate("User")

	aggregate.Scenario(user.Projector{}).
		GivenPayloads(keys, user.Registered{UserName: "john", Email: "john@example.com"}).
		Then(user.UnconfirmedUser{UserName: "john", Email: "john@example.com"}, 1).
		AssertOn(t)

	aggregate.Scenario(user.Projector{}).
		GivenPayloads(keys,
			user.Registered{UserName: "john", Email: "john@example.com"},
			user.Confirmed{},
			user.Confirmed{},
		).
		Then(user.ConfirmedUser{UserName: "john", Email: "john@example.com"}, 3).
		AssertOn(t)

	aggregate.Scenario(user.Projector{}).
		GivenPayloads(keys,
			user.Registered{UserName: "john", Email: "john@example.com"},
			user.Confirmed{},
			user.Unconfirmed{},
		).
		Then(user.UnconfirmedUser{UserName: "john", Email: "john@example.com"}, 3).
		AssertOn(t)
}

func TestRegisterUser(t *testing.T) {
	id := uuid.New()

	t.Run("a new email registers the user", func(t *testing.T) {
		command.Scenario[user.RegisterUser](newRegistry(t)).
			When(user.RegisterUser{ID: id, UserName: "john", Email: "john@example.com"}).
			Then(1, user.Registered{UserName: "john", Email: "john@example.com"}).
			AssertOn(t, registerWith("jane@example.com"))
	})

	t.Run("an existing email is refused", func(t *testing.T) {
		command.Scenario[user.RegisterUser](newRegistry(t)).
			When(user.RegisterUser{ID: id, UserName: "john", Email: "john@example.com"}).
			ThenError(user.ErrEmailExists).
			AssertOn(t, registerWith("john@example.com"))
	})

	t.Run("empty fields are refused", func(t *testing.T) {
		command.Scenario[user.RegisterUser](newRegistry(t)).
			When(user.RegisterUser{ID: id, Email: "john@example.com"}).
			ThenError(user.ErrInvalidName).
			AssertOn(t, registerWith())

		command.Scenario[user.RegisterUser](newRegistry(t)).
			When(user.RegisterUser{ID: id, UserName: "john"}).
			ThenError(user.ErrInvalidEmail).
			AssertOn(t, registerWith())
	})
}

func TestConfirmation(t *testing.T) {
	keys := partition.Generate("User")
	registered := aggregate.EventsOf(keys, user.Registered{UserName: "john", Email: "john@example.com"})
	confirmed := aggregate.EventsOf(keys, user.Registered{UserName: "john", Email: "john@example.com"}, user.Confirmed{})

	t.Run("unconfirmed users can be confirmed", func(t *testing.T) {
		command.Scenario[command.Handling](newRegistry(t)).
			Given(registered...).
			When(user.ConfirmUser{UserID: keys.AggregateID}).
			Then(2, user.Confirmed{}).
			AssertOn(t, executeHandling)
	})

	t.Run("confirmed users cannot be confirmed again", func(t *testing.T) {
		var restrictionErr command.TypeRestrictionError

		command.Scenario[command.Handling](newRegistry(t)).
			Given(confirmed...).
			When(user.ConfirmUser{UserID: keys.AggregateID}).
			ThenErrorAs(&restrictionErr).
			AssertOn(t, executeHandling)

		assert.Equal(t, command.TypeRestrictionError{
			Command:  "ConfirmUser",
			Expected: "UnconfirmedUser",
			Actual:   "ConfirmedUser",
		}, restrictionErr)
	})

	t.Run("confirmed users can be unconfirmed", func(t *testing.T) {
		command.Scenario[command.Handling](newRegistry(t)).
			Given(confirmed...).
			When(user.UnconfirmUser{UserID: keys.AggregateID}).
			Then(3, user.Unconfirmed{}).
			AssertOn(t, executeHandling)
	})

	t.Run("unconfirming needs a confirmed user", func(t *testing.T) {
		command.Scenario[command.Handling](newRegistry(t)).
			Given(registered...).
			When(user.UnconfirmUser{UserID: keys.AggregateID}).
			ThenErrorAs(new(command.TypeRestrictionError)).
			AssertOn(t, executeHandling)
	})
}

func TestUserLifecycle(t *testing.T) {
	ctx := context.Background()
	store := event.NewInMemoryStore()
	executor := command.NewExecutor(aggregate.NewEventSourcedRepository(store), newRegistry(t))

	response, err := registerWith()(ctx, executor, user.RegisterUser{UserName: "john", Email: "john@example.com"})
	require.NoError(t, err)

	id := response.PartitionKeys.AggregateID

	_, err = executor.Execute(ctx, user.ConfirmUser{UserID: id})
	require.NoError(t, err)

	agg, err := executor.Load(ctx, response.PartitionKeys, user.Projector{})
	require.NoError(t, err)

	confirmed, err := aggregate.As[user.ConfirmedUser](agg)
	require.NoError(t, err)
	assert.Equal(t, "john@example.com", confirmed.Payload.Email)
	assert.Equal(t, version.Version(2), confirmed.Version)

	_, err = aggregate.As[user.UnconfirmedUser](agg)
	assert.ErrorAs(t, err, new(aggregate.TypeMismatchError))
}
