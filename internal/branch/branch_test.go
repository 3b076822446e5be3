package branch_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/get-eventually/eventcore/aggregate"
	"github.com/get-eventually/eventcore/command"
	"github.com/get-eventually/eventcore/event"
	"github.com/get-eventually/eventcore/internal/branch"
	"github.com/get-eventually/eventcore/partition"
	"github.com/get-eventually/eventcore/sortable"
	"github.com/get-eventually/eventcore/version"
)

func newRegistry(t *testing.T) *event.Registry {
	registry := event.NewRegistry()
	require.NoError(t, branch.Register(registry))

	return registry
}

func newExecutor(t *testing.T) (*command.Executor, *event.InMemoryStore) {
	store := event.NewInMemoryStore()
	executor := command.NewExecutor(aggregate.NewEventSourcedRepository(store), newRegistry(t))

	return executor, store
}

func streamOf(t *testing.T, store event.Store, keys partition.Keys) []event.Event {
	events, err := event.StreamToSlice(context.Background(), func(ctx context.Context, stream event.StreamWrite) error {
		return store.Stream(ctx, stream, keys, version.SelectFromBeginning)
	})
	require.NoError(t, err)

	return events
}

func executeHandling(ctx context.Context, e *command.Executor, cmd command.Handling) (command.Response, error) {
	return e.Execute(ctx, cmd)
}

func TestProjector(t *testing.T) {
	keys := partition.Generate("Branch")

	aggregate.Scenario(branch.Projector{}).
		GivenPayloads(keys,
			branch.Created{BranchName: "branch1", Country: "japan"},
			branch.NameChanged{BranchName: "branch name2"},
			branch.CountryChanged{Country: "usa"},
		).
		Then(branch.Branch{BranchName: "branch name2", Country: "usa"}, 3).
		AssertOn(t)

	aggregate.Scenario(branch.Projector{}).
		GivenPayloads(keys, branch.NameChanged{BranchName: "orphan"}).
		Then(aggregate.Empty{}, 1).
		AssertOn(t)
}

func TestRegisterBranch(t *testing.T) {
	ctx := context.Background()
	executor, store := newExecutor(t)

	response, err := executor.Execute(ctx, branch.RegisterBranch{BranchName: "branch1", Country: "japan"})
	require.NoError(t, err)

	events := streamOf(t, store, response.PartitionKeys)
	require.Len(t, events, 1)
	assert.Equal(t, "BranchCreated", events[0].Name())
	assert.Equal(t, response.Events, events)

	agg, err := executor.Load(ctx, response.PartitionKeys, branch.Projector{})
	require.NoError(t, err)
	assert.Equal(t, branch.Branch{BranchName: "branch1", Country: "japan"}, agg.Payload)
	assert.Equal(t, version.Version(1), agg.Version)
	assert.Equal(t, "Branch", response.PartitionKeys.Group)
	assert.Equal(t, partition.DefaultRootPartitionKey, response.PartitionKeys.RootPartitionKey)
}

func TestRegisterThenRename(t *testing.T) {
	ctx := context.Background()
	executor, store := newExecutor(t)

	registered, err := executor.Execute(ctx, branch.RegisterBranch{BranchName: "branch1", Country: "japan"})
	require.NoError(t, err)

	renamed, err := executor.Execute(ctx, branch.ChangeBranchName{
		BranchID:     registered.PartitionKeys.AggregateID,
		NameToChange: "branch name2",
	})
	require.NoError(t, err)
	assert.Equal(t, registered.PartitionKeys, renamed.PartitionKeys)

	events := streamOf(t, store, registered.PartitionKeys)
	require.Len(t, events, 2)
	assert.Equal(t, version.Version(1), events[0].Version)
	assert.Equal(t, version.Version(2), events[1].Version)

	agg, err := executor.Load(ctx, registered.PartitionKeys, branch.Projector{})
	require.NoError(t, err)
	assert.Equal(t, branch.Branch{BranchName: "branch name2", Country: "japan"}, agg.Payload)
	assert.Equal(t, version.Version(2), agg.Version)
}

func TestRenameFromWriterWithSlowerClock(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	repository := aggregate.NewEventSourcedRepository(event.NewInMemoryStore())

	newSkewedExecutor := func(skew time.Duration) *command.Executor {
		return command.NewExecutor(repository, newRegistry(t), command.WithSortableGenerator(&sortable.Generator{
			Clock: func() time.Time { return now.Add(skew) },
		}))
	}

	fast, slow := newSkewedExecutor(2*time.Second), newSkewedExecutor(0)

	registered, err := fast.Execute(ctx, branch.RegisterBranch{BranchName: "branch1", Country: "japan"})
	require.NoError(t, err)

	_, err = slow.Execute(ctx, branch.ChangeBranchName{
		BranchID:     registered.PartitionKeys.AggregateID,
		NameToChange: "branch name2",
	})
	require.NoError(t, err)

	agg, err := slow.Load(ctx, registered.PartitionKeys, branch.Projector{})
	require.NoError(t, err)
	assert.Equal(t, branch.Branch{BranchName: "branch name2", Country: "japan"}, agg.Payload)
	assert.Equal(t, version.Version(2), agg.Version)

	renamed, err := fast.Execute(ctx, branch.ChangeBranchName{
		BranchID:     registered.PartitionKeys.AggregateID,
		NameToChange: "branch name3",
	})
	require.NoError(t, err)
	assert.Equal(t, version.Version(3), renamed.Version)
}

func TestRenameSecondOfTwoBranches(t *testing.T) {
	ctx := context.Background()
	executor, store := newExecutor(t)

	first, err := executor.Execute(ctx, branch.RegisterBranch{BranchName: "branch1", Country: "japan"})
	require.NoError(t, err)

	second, err := executor.Execute(ctx, branch.RegisterBranch{BranchName: "branch2", Country: "japan"})
	require.NoError(t, err)

	renamed, err := executor.Execute(ctx, branch.ChangeBranchName{
		BranchID:     second.PartitionKeys.AggregateID,
		NameToChange: "branch name3",
	})
	require.NoError(t, err)
	assert.Equal(t, version.Version(2), renamed.Version)

	assert.Len(t, streamOf(t, store, first.PartitionKeys), 1)
	assert.Len(t, streamOf(t, store, second.PartitionKeys), 2)

	firstAgg, err := executor.Load(ctx, first.PartitionKeys, branch.Projector{})
	require.NoError(t, err)
	assert.Equal(t, version.Version(1), firstAgg.Version)
	assert.Equal(t, branch.Branch{BranchName: "branch1", Country: "japan"}, firstAgg.Payload)
}

func TestChangeBranchName_NonexistentBranch(t *testing.T) {
	var restrictionErr command.TypeRestrictionError

	command.Scenario[command.Handling](newRegistry(t)).
		When(branch.ChangeBranchName{BranchID: uuid.New(), NameToChange: "renamed"}).
		ThenErrorAs(&restrictionErr).
		AssertOn(t, executeHandling)

	assert.Equal(t, "Branch", restrictionErr.Expected)
	assert.Equal(t, "EmptyAggregatePayload", restrictionErr.Actual)
}

func TestChangeBranchName(t *testing.T) {
	keys := partition.Generate("Branch")
	given := aggregate.EventsOf(keys, branch.Created{BranchName: "branch1", Country: "japan"})

	t.Run("renaming to the same name is a no-op", func(t *testing.T) {
		command.Scenario[command.Handling](newRegistry(t)).
			Given(given...).
			When(branch.ChangeBranchName{BranchID: keys.AggregateID, NameToChange: "branch1"}).
			Then(1).
			AssertOn(t, executeHandling)
	})

	t.Run("empty names are refused", func(t *testing.T) {
		command.Scenario[command.Handling](newRegistry(t)).
			Given(given...).
			When(branch.ChangeBranchName{BranchID: keys.AggregateID}).
			ThenError(branch.ErrEmptyName).
			AssertOn(t, executeHandling)
	})

	t.Run("tenants are separate partitions", func(t *testing.T) {
		command.Scenario[command.Handling](newRegistry(t)).
			Given(given...).
			When(branch.ChangeBranchName{BranchID: keys.AggregateID, NameToChange: "x", RootPartitionKey: "tenant"}).
			ThenErrorAs(new(command.TypeRestrictionError)).
			AssertOn(t, executeHandling)
	})
}

func TestRegisterBranch_Validation(t *testing.T) {
	command.Scenario[command.Handling](newRegistry(t)).
		When(branch.RegisterBranch{Country: "japan"}).
		ThenError(branch.ErrEmptyName).
		AssertOn(t, executeHandling)

	command.Scenario[command.Handling](newRegistry(t)).
		When(branch.RegisterBranch{BranchName: "branch1"}).
		ThenError(branch.ErrEmptyCountry).
		AssertOn(t, executeHandling)
}

func TestChangeBranchCountry(t *testing.T) {
	keys := partition.Generate("Branch")

	command.Scenario[branch.ChangeBranchCountry](newRegistry(t)).
		Given(aggregate.EventsOf(keys, branch.Created{BranchName: "Tokyo", Country: "Japan"})...).
		When(branch.ChangeBranchCountry{BranchID: keys.AggregateID, Country: "USA"}).
		Then(2, branch.CountryChanged{Country: "USA"}).
		AssertOn(t, branch.ExecuteChangeBranchCountry)

	command.Scenario[branch.ChangeBranchCountry](newRegistry(t)).
		When(branch.ChangeBranchCountry{BranchID: keys.AggregateID, Country: "USA"}).
		ThenErrorAs(new(command.TypeRestrictionError)).
		AssertOn(t, branch.ExecuteChangeBranchCountry)
}

func TestRegister(t *testing.T) {
	registry := newRegistry(t)

	assert.Equal(t, []string{"BranchCountryChanged", "BranchCreated", "BranchNameChanged"}, registry.Names())
	assert.NoError(t, branch.Register(registry))
}
