// Package engine executes DexScript against an entity store.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/google/uuid"

	"github.com/dotsian/dexscript/internal/model"
	"github.com/dotsian/dexscript/internal/script"
	"github.com/dotsian/dexscript/internal/store"
	"github.com/dotsian/dexscript/internal/yield"
)

// Store is the entity persistence the commands run against.
type Store interface {
	Create(ctx context.Context, schema *store.Schema, record store.Record) (store.Record, error)
	Save(ctx context.Context, schema *store.Schema, record store.Record) error
	Delete(ctx context.Context, schema *store.Schema, record store.Record) error
	Filter(ctx context.Context, schema *store.Schema, field string, value any) ([]store.Record, error)
	All(ctx context.Context, schema *store.Schema) ([]store.Record, error)
	First(ctx context.Context, schema *store.Schema) (store.Record, error)
}

// Uploader persists attachments. Save returns a reference under the
// static namespace; Resolve maps such a reference back to a file.
type Uploader interface {
	Save(ctx context.Context, filename string, content []byte) (string, error)
	Resolve(ref string) (string, bool)
}

// Attachment is a file sent along with a script.
type Attachment struct {
	Filename string
	Content  []byte
}

// Reply is one message sent back to the caller.
type Reply struct {
	Text  string   `json:"text,omitempty"`
	Files []string `json:"files,omitempty"`
}

// Replier delivers replies to whoever invoked the script.
type Replier interface {
	Send(ctx context.Context, reply Reply) error
}

// Invocation carries the reply channel and attachments of one script run.
type Invocation struct {
	Replier     Replier
	Attachments []Attachment
}

// Status is the outcome of a script run.
type Status int

const (
	StatusSuccess Status = iota
	StatusFailure
)

func (s Status) String() string {
	if s == StatusFailure {
		return "failure"
	}
	return "success"
}

// Result is the outcome of a whole script.
type Result struct {
	Status  Status
	Summary string
	Detail  string
	Err     *Error
}

// OK reports whether the script ran to completion.
func (r Result) OK() bool {
	return r.Status == StatusSuccess
}

// Message returns the failure text to show: the detail when debug is set,
// the summary otherwise.
func (r Result) Message(debug bool) string {
	if debug {
		return r.Detail
	}
	return r.Summary
}

// handler runs one command.
type handler func(ctx context.Context, c *call) error

// Engine runs scripts. Executions are serialized so the shared yield cache
// has a single writer at a time.
type Engine struct {
	mu       sync.Mutex
	registry *model.Registry
	store    Store
	uploads  Uploader
	yields   *yield.Cache
	typer    *script.Typer
	commands map[string]handler
}

// New returns an Engine over the given registry, store and uploader.
func New(registry *model.Registry, st Store, uploads Uploader) *Engine {
	e := &Engine{
		registry: registry,
		store:    st,
		uploads:  uploads,
		yields:   yield.NewCache(),
	}

	e.commands = map[string]handler{
		"push":   e.push,
		"create": e.create,
		"delete": e.delete,
		"update": e.update,
		"view":   e.view,
		"list":   e.list,
		"file":   e.file,
		"show":   e.show,
	}
	e.typer = script.NewTyper(e.Commands(), registry)

	return e
}

// Commands returns the command names, sorted.
func (e *Engine) Commands() []string {
	names := make([]string, 0, len(e.commands))
	for name := range e.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Registry returns the model registry.
func (e *Engine) Registry() *model.Registry {
	return e.registry
}

// Yields returns the shared yield cache.
func (e *Engine) Yields() *yield.Cache {
	return e.yields
}

// Execute runs every line of code in order and stops at the first error.
// Lines that already ran are not rolled back.
func (e *Engine) Execute(ctx context.Context, inv Invocation, code string) Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	ctx = logging.NewContextWithLogger(ctx, logging.GetFromContext(ctx), "invocation", uuid.NewString())
	log := logging.GetFromContext(ctx)

	lines := e.typer.Parse(code)
	log.Debug("executing script", slog.Int("lines", len(lines)))

	for _, line := range lines {
		// The first command word drives the line; later ones, such as the
		// DELETE of FILE > DELETE, are plain arguments.
		method, ok := line.Method()
		if !ok {
			continue
		}

		name := strings.ToUpper(method.Raw)
		if err := ctx.Err(); err != nil {
			return e.fail(ctx, tag(err, name, line.Number, line.Text))
		}

		log.Debug("dispatching", slog.Int("line", line.Number), slog.String("command", name))

		c := &call{
			name: name,
			args: line.Values,
			inv:  inv,
		}
		if err := e.commands[strings.ToLower(method.Raw)](ctx, c); err != nil {
			return e.fail(ctx, tag(err, name, line.Number, line.Text))
		}
	}

	return Result{Status: StatusSuccess}
}

func (e *Engine) fail(ctx context.Context, err *Error) Result {
	logging.GetFromContext(ctx).Info("script failed",
		slog.String("kind", err.Kind.String()),
		slog.Int("line", err.Line),
		"err", err.Error(),
	)

	summary := err.Error()
	detail := summary
	if err.Kind != KindMissingArgument {
		detail = fmt.Sprintf("%s on line %d in %s (%s)\n%s", err.Kind, err.Line, err.Command, err.Text, summary)
	}

	return Result{
		Status:  StatusFailure,
		Summary: summary,
		Detail:  detail,
		Err:     err,
	}
}
