package command

import (
	"context"
	"fmt"

	"github.com/get-eventually/eventcore/aggregate"
	"github.com/get-eventually/eventcore/event"
	"github.com/get-eventually/eventcore/logger"
	"github.com/get-eventually/eventcore/partition"
	"github.com/get-eventually/eventcore/sortable"
	"github.com/get-eventually/eventcore/version"
)

// Response is returned by the Executor after a successful Command execution.
type Response struct {
	PartitionKeys partition.Keys
	// Events are the Events persisted by the Command, in order.
	Events []event.Event
	// Version is the resulting version of the Aggregate.
	Version version.Version
	// Aggregate is the resulting Aggregate.
	Aggregate aggregate.Aggregate
}

// Executor runs Commands against the Aggregates loaded from a Repository.
//
// An Executor holds no per-Command state and is safe for concurrent use.
type Executor struct {
	repository aggregate.Repository
	catalog    event.Catalog
	ids        *sortable.Generator
	logger     logger.Logger
}

// ExecutorOption customizes an Executor.
type ExecutorOption func(*Executor)

// WithLogger sets the logger.Logger used by the Executor.
func WithLogger(l logger.Logger) ExecutorOption {
	return func(e *Executor) { e.logger = l }
}

// WithSortableGenerator sets the generator of the Events ordering keys.
// By default, sortable.Default is used.
func WithSortableGenerator(g *sortable.Generator) ExecutorOption {
	return func(e *Executor) { e.ids = g }
}

// NewExecutor returns a new Executor using the provided Repository, and the
// Catalog to materialize Event payloads.
func NewExecutor(repository aggregate.Repository, catalog event.Catalog, opts ...ExecutorOption) *Executor {
	e := &Executor{
		repository: repository,
		catalog:    catalog,
		ids:        sortable.Default,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

type handleFunc func(ctx context.Context, c *Context) (EventOrNone, error)

type plan struct {
	command     Command
	projector   aggregate.Projector
	keys        partition.Keys
	restriction aggregate.Restriction
	handle      handleFunc
}

func (e *Executor) fail(p plan, stage string, err error) (Response, error) {
	logger.Error(e.logger, "Command execution failed",
		logger.With("command", p.command.Name()),
		logger.With("partition", p.keys.String()),
		logger.With("stage", stage),
		logger.Err(err),
	)

	return Response{}, fmt.Errorf("command.Execute: %s failed to %s, %w", p.command.Name(), stage, err)
}

func (e *Executor) run(ctx context.Context, p plan) (Response, error) {
	p.keys = p.keys.WithDefaults(p.projector.Name())
	if err := p.keys.Validate(); err != nil {
		return e.fail(p, "derive partition keys", err)
	}

	agg, err := e.repository.Load(ctx, p.keys, p.projector)
	if err != nil {
		return e.fail(p, "load aggregate", err)
	}

	logger.Debug(e.logger, "Aggregate loaded",
		logger.With("command", p.command.Name()),
		logger.With("partition", p.keys.String()),
		logger.With("payload", agg.PayloadName()),
		logger.With("version", agg.Version),
	)

	if !p.restriction.Allows(agg.Payload) {
		return e.fail(p, "check aggregate type", TypeRestrictionError{
			Command:  p.command.Name(),
			Expected: p.restriction.Name(),
			Actual:   agg.PayloadName(),
		})
	}

	cctx := &Context{
		aggregate: agg,
		projector: p.projector,
		catalog:   e.catalog,
		ids:       e.ids,
	}

	result, err := p.handle(ctx, cctx)
	if err != nil {
		return e.fail(p, "handle command", err)
	}

	if payload, ok := result.Payload(); ok {
		if _, err := cctx.AppendEvent(payload); err != nil {
			return e.fail(p, "materialize event", err)
		}
	}

	events := cctx.Events()
	if len(events) == 0 {
		logger.Debug(e.logger, "Command produced no events",
			logger.With("command", p.command.Name()),
			logger.With("partition", p.keys.String()),
		)

		return Response{
			PartitionKeys: p.keys,
			Version:       agg.Version,
			Aggregate:     agg,
		}, nil
	}

	if err := e.repository.Save(ctx, events...); err != nil {
		return e.fail(p, "save events", err)
	}

	resulting := cctx.Aggregate()

	logger.Debug(e.logger, "Command executed",
		logger.With("command", p.command.Name()),
		logger.With("partition", p.keys.String()),
		logger.With("events", len(events)),
		logger.With("version", resulting.Version),
	)

	return Response{
		PartitionKeys: p.keys,
		Events:        events,
		Version:       resulting.Version,
		Aggregate:     resulting,
	}, nil
}

// Execute runs the Command with a plain handler, following its Definition.
func Execute[C Command](
	ctx context.Context,
	e *Executor,
	cmd C,
	def Definition[C],
	handler Handler[C],
) (Response, error) {
	return e.run(ctx, plan{
		command:     cmd,
		projector:   def.Projector,
		keys:        def.PartitionKeys(cmd),
		restriction: def.Restriction,
		handle: func(ctx context.Context, c *Context) (EventOrNone, error) {
			return handler(ctx, cmd, c)
		},
	})
}

// ExecuteInjected runs the Command with a handler receiving the injected
// capability, following its Definition.
func ExecuteInjected[C Command, I any](
	ctx context.Context,
	e *Executor,
	cmd C,
	def Definition[C],
	inject I,
	handler InjectedHandler[C, I],
) (Response, error) {
	return e.run(ctx, plan{
		command:     cmd,
		projector:   def.Projector,
		keys:        def.PartitionKeys(cmd),
		restriction: def.Restriction,
		handle: func(ctx context.Context, c *Context) (EventOrNone, error) {
			return handler(ctx, cmd, inject, c)
		},
	})
}

// Execute runs a self-describing Command.
func (e *Executor) Execute(ctx context.Context, cmd Handling) (Response, error) {
	return e.run(ctx, plan{
		command:     cmd,
		projector:   cmd.Projector(),
		keys:        cmd.PartitionKeys(),
		restriction: restrictionOf(cmd),
		handle:      cmd.Handle,
	})
}

// ExecuteWithInjection runs a self-describing Command whose handler
// needs the injected capability.
func ExecuteWithInjection[I any](ctx context.Context, e *Executor, cmd Injecting[I], inject I) (Response, error) {
	return e.run(ctx, plan{
		command:     cmd,
		projector:   cmd.Projector(),
		keys:        cmd.PartitionKeys(),
		restriction: restrictionOf(cmd),
		handle: func(ctx context.Context, c *Context) (EventOrNone, error) {
			return cmd.HandleWith(ctx, inject, c)
		},
	})
}

// Load returns the current Aggregate of the partition, as reconstructed by the Projector.
func (e *Executor) Load(ctx context.Context, keys partition.Keys, projector aggregate.Projector) (aggregate.Aggregate, error) {
	agg, err := e.repository.Load(ctx, keys.WithDefaults(projector.Name()), projector)
	if err != nil {
		return aggregate.Aggregate{}, fmt.Errorf("command.Executor: failed to load aggregate, %w", err)
	}

	return agg, nil
}
