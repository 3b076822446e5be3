package opentelemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/get-eventually/eventcore/aggregate"
	"github.com/get-eventually/eventcore/event"
	"github.com/get-eventually/eventcore/internal/branch"
	"github.com/get-eventually/eventcore/opentelemetry"
	"github.com/get-eventually/eventcore/partition"
	"github.com/get-eventually/eventcore/version"
)

func options() []opentelemetry.Option {
	return []opentelemetry.Option{
		opentelemetry.WithMeterProvider(metricnoop.NewMeterProvider()),
		opentelemetry.WithTracerProvider(tracenoop.NewTracerProvider()),
	}
}

func TestInstrumentedEventStore(t *testing.T) {
	suite.Run(t, event.NewStoreSuite(func() event.Store {
		store, err := opentelemetry.NewInstrumentedEventStore(event.NewInMemoryStore(), options()...)
		require.NoError(t, err)

		return store
	}))
}

func TestInstrumentedRepository(t *testing.T) {
	ctx := context.Background()

	store, err := opentelemetry.NewInstrumentedEventStore(event.NewInMemoryStore())
	require.NoError(t, err, "global providers are used by default")

	repository, err := opentelemetry.NewInstrumentedRepository(aggregate.NewEventSourcedRepository(store), options()...)
	require.NoError(t, err)

	keys := partition.Generate("Branch")
	events := aggregate.EventsOf(keys,
		branch.Created{BranchName: "branch1", Country: "japan"},
		branch.NameChanged{BranchName: "branch2"},
	)

	require.NoError(t, repository.Save(ctx, events...))
	require.NoError(t, repository.Save(ctx))

	agg, err := repository.Load(ctx, keys, branch.Projector{})
	require.NoError(t, err)
	assert.Equal(t, branch.Branch{BranchName: "branch2", Country: "japan"}, agg.Payload)

	err = repository.Save(ctx, events[0])
	assert.ErrorAs(t, err, new(version.ConflictError))

	_, err = repository.Load(ctx, partition.Keys{}, branch.Projector{})
	assert.ErrorIs(t, err, partition.ErrInvalidKeys)
}

func TestWithAttributes(t *testing.T) {
	ctx := context.Background()
	recorder := tracetest.NewSpanRecorder()
	replica := attribute.String("store.replica", "eu-west")

	store, err := opentelemetry.NewInstrumentedEventStore(event.NewInMemoryStore(),
		opentelemetry.WithMeterProvider(metricnoop.NewMeterProvider()),
		opentelemetry.WithTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))),
		opentelemetry.WithAttributes(replica),
	)
	require.NoError(t, err)

	keys := partition.Generate("Branch")
	events := aggregate.EventsOf(keys, branch.Created{BranchName: "branch1", Country: "japan"})

	_, err = store.Append(ctx, keys, version.Any, events...)
	require.NoError(t, err)

	_, err = store.Append(ctx, keys, version.CheckExact(0), events...)
	require.ErrorAs(t, err, new(version.ConflictError))

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	for _, span := range spans {
		assert.Equal(t, "event.Store.Append", span.Name())
		assert.Contains(t, span.Attributes(), replica)
		assert.Contains(t, span.Attributes(), opentelemetry.PartitionAttribute.String(keys.String()))
	}

	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}
