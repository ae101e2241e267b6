package bus

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Command represents a command that changes state
type Command interface {
	Validate() error
}

// Keyed is implemented by commands that touch specific nodes. The in-flight
// guard serialises commands sharing a key.
type Keyed interface {
	Keys() []string
}

// Result is what a handler hands back to the caller
type Result struct {
	CommandID string
	Data      interface{}
}

// CommandHandler handles a specific command type
type CommandHandler interface {
	Handle(ctx context.Context, cmd Command) (*Result, error)
}

// CommandHandlerFunc is an adapter to allow functions to be used as handlers
type CommandHandlerFunc func(ctx context.Context, cmd Command) (*Result, error)

// Handle implements CommandHandler
func (f CommandHandlerFunc) Handle(ctx context.Context, cmd Command) (*Result, error) {
	return f(ctx, cmd)
}

// Middleware defines command middleware
type Middleware func(next CommandHandler) CommandHandler

// CommandBus dispatches commands to their handlers
type CommandBus struct {
	handlers map[reflect.Type]CommandHandler
	pipeline *Pipeline
	mu       sync.RWMutex
}

// NewCommandBus creates a new command bus. Middleware runs outermost first.
func NewCommandBus(middlewares ...Middleware) *CommandBus {
	return &CommandBus{
		handlers: make(map[reflect.Type]CommandHandler),
		pipeline: NewPipeline(middlewares...),
	}
}

// Register registers a handler for a command type
func (b *CommandBus) Register(cmdType Command, handler CommandHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := reflect.TypeOf(cmdType)
	if _, exists := b.handlers[t]; exists {
		return fmt.Errorf("handler already registered for command type %s", CommandName(cmdType))
	}

	b.handlers[t] = b.pipeline.Execute(handler)
	return nil
}

// Send dispatches a command to its handler
func (b *CommandBus) Send(ctx context.Context, cmd Command) (*Result, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	b.mu.RLock()
	handler, exists := b.handlers[reflect.TypeOf(cmd)]
	b.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrHandlerNotFound, CommandName(cmd))
	}

	id := uuid.New().String()
	ctx = WithCommandID(ctx, id)

	res, err := handler.Handle(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if res == nil {
		res = &Result{}
	}
	res.CommandID = id
	return res, nil
}

// CommandName returns the type name of a command for logs and metrics
func CommandName(cmd Command) string {
	t := reflect.TypeOf(cmd)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

type commandIDKey struct{}

// WithCommandID stores the command id in the context
func WithCommandID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, commandIDKey{}, id)
}

// CommandIDFromContext returns the id of the command being handled
func CommandIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(commandIDKey{}).(string)
	return id
}

// LoggingMiddleware logs command execution
func LoggingMiddleware(logger *zap.Logger) Middleware {
	return func(next CommandHandler) CommandHandler {
		return CommandHandlerFunc(func(ctx context.Context, cmd Command) (*Result, error) {
			cmdType := CommandName(cmd)
			start := time.Now()
			logger.Debug("Executing command",
				zap.String("type", cmdType),
				zap.String("command_id", CommandIDFromContext(ctx)),
			)

			res, err := next.Handle(ctx, cmd)
			if err != nil {
				logger.Warn("Command failed",
					zap.String("type", cmdType),
					zap.String("command_id", CommandIDFromContext(ctx)),
					zap.Duration("duration", time.Since(start)),
					zap.Error(err),
				)
			} else {
				logger.Info("Command succeeded",
					zap.String("type", cmdType),
					zap.String("command_id", CommandIDFromContext(ctx)),
					zap.Duration("duration", time.Since(start)),
				)
			}

			return res, err
		})
	}
}

// Recorder receives command timings
type Recorder interface {
	RecordCommand(name string, duration time.Duration, err error)
}

// MetricsMiddleware reports every command to the recorder
func MetricsMiddleware(recorder Recorder) Middleware {
	return func(next CommandHandler) CommandHandler {
		return CommandHandlerFunc(func(ctx context.Context, cmd Command) (*Result, error) {
			start := time.Now()
			res, err := next.Handle(ctx, cmd)
			recorder.RecordCommand(CommandName(cmd), time.Since(start), err)
			return res, err
		})
	}
}

// InFlightMiddleware rejects a command while another command holding one of
// its keys has not completed.
func InFlightMiddleware(guard *InFlight) Middleware {
	return func(next CommandHandler) CommandHandler {
		return CommandHandlerFunc(func(ctx context.Context, cmd Command) (*Result, error) {
			keyed, ok := cmd.(Keyed)
			if !ok {
				return next.Handle(ctx, cmd)
			}
			keys := keyed.Keys()
			if err := guard.Acquire(CommandIDFromContext(ctx), keys...); err != nil {
				return nil, err
			}
			defer guard.Release(keys...)
			return next.Handle(ctx, cmd)
		})
	}
}

// AfterCommitMiddleware calls hook once a command has succeeded
func AfterCommitMiddleware(hook func(ctx context.Context, cmd Command)) Middleware {
	return func(next CommandHandler) CommandHandler {
		return CommandHandlerFunc(func(ctx context.Context, cmd Command) (*Result, error) {
			res, err := next.Handle(ctx, cmd)
			if err == nil {
				hook(ctx, cmd)
			}
			return res, err
		})
	}
}

// Pipeline chains multiple middleware together
type Pipeline struct {
	middlewares []Middleware
}

// NewPipeline creates a new middleware pipeline
func NewPipeline(middlewares ...Middleware) *Pipeline {
	return &Pipeline{
		middlewares: middlewares,
	}
}

// Execute runs the command through the pipeline
func (p *Pipeline) Execute(handler CommandHandler) CommandHandler {
	// Apply middleware in reverse order
	for i := len(p.middlewares) - 1; i >= 0; i-- {
		handler = p.middlewares[i](handler)
	}
	return handler
}

// Errors
var (
	ErrHandlerNotFound = errors.New("command handler not found")
)
