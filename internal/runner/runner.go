// Package runner wraps script execution with the version check and the
// rendering shared by the CLI and the HTTP front end.
package runner

import (
	"context"
	"fmt"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"

	"github.com/dotsian/dexscript/internal/config"
	"github.com/dotsian/dexscript/internal/engine"
	"github.com/dotsian/dexscript/internal/script"
	"github.com/dotsian/dexscript/internal/version"
)

// SuccessReaction acknowledges a script that ran to completion.
const SuccessReaction = "✅"

// VersionChecker reports whether a newer version is published on a ref.
type VersionChecker interface {
	Check(ctx context.Context, ref string) (version.Status, error)
}

// Output is everything a script run sends back.
type Output struct {
	Status   string         `json:"status"`
	Replies  []engine.Reply `json:"replies"`
	Reaction string         `json:"reaction,omitempty"`
	Error    string         `json:"error,omitempty"`
	Kind     string         `json:"kind,omitempty"`
}

// Runner executes scripts on an engine with the current settings.
type Runner struct {
	engine   *engine.Engine
	settings func() config.Settings
	checker  VersionChecker
}

// New returns a Runner. settings is consulted on every run; checker may
// be nil to disable the version check entirely.
func New(e *engine.Engine, settings func() config.Settings, checker VersionChecker) *Runner {
	return &Runner{engine: e, settings: settings, checker: checker}
}

// Engine returns the wrapped engine.
func (r *Runner) Engine() *engine.Engine {
	return r.engine
}

// Run strips code fences from code, warns when outdated, executes the
// script and renders a failure as an ERROR block.
func (r *Runner) Run(ctx context.Context, code string, attachments []engine.Attachment) Output {
	settings := r.settings()
	transcript := &engine.Transcript{}

	if warning := r.Warning(ctx, settings); warning != "" {
		transcript.Send(ctx, engine.Reply{Text: "-# " + warning})
	}

	res := r.engine.Execute(ctx, engine.Invocation{
		Replier:     transcript,
		Attachments: attachments,
	}, script.CleanupCode(code))

	out := Output{Status: res.Status.String()}
	if res.OK() {
		out.Reaction = SuccessReaction
	} else {
		out.Error = res.Message(settings.Debug)
		out.Kind = res.Err.Kind.String()
		transcript.Send(ctx, engine.Reply{Text: fmt.Sprintf("```ERROR: %s\n```", out.Error)})
	}
	out.Replies = transcript.Replies()

	return out
}

// Warning returns the outdated-version warning, or "" when the check is
// disabled, fails or finds nothing newer.
func (r *Runner) Warning(ctx context.Context, settings config.Settings) string {
	if !settings.OutdatedWarning || r.checker == nil {
		return ""
	}

	status, err := r.checker.Check(ctx, settings.Reference)
	if err != nil {
		logging.GetFromContext(ctx).Debug("version check failed", "err", err.Error())
		return ""
	}
	return status.Warning()
}
