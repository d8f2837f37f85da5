package audit

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ayatskii/panel-sub002/internal/cache"
	"github.com/ayatskii/panel-sub002/internal/client"
	"github.com/ayatskii/panel-sub002/internal/logging"
)

// Recorder turns settled cache mutations into journal entries. Journal
// failures are logged and otherwise ignored.
type Recorder struct {
	logger  Logger
	context string
	actor   string
	log     *slog.Logger
}

func NewRecorder(logger Logger, contextName, actor string, log *slog.Logger) *Recorder {
	if log == nil {
		log = logging.Discard()
	}
	return &Recorder{logger: logger, context: contextName, actor: actor, log: log}
}

func (r *Recorder) ObserveMutation(ctx context.Context, ev cache.MutationEvent) {
	if r == nil || r.logger == nil {
		return
	}
	entry := Entry{
		Context:   r.context,
		Actor:     r.actor,
		Timestamp: ev.Started,
		Operation: ev.Name,
		Outcome:   OutcomeSuccess,
		RequestID: client.RequestIDFromContext(ctx),
		Duration:  ev.Duration,
	}
	for _, tag := range ev.Invalidated {
		entry.Tags = append(entry.Tags, tag.String())
	}
	if ev.Err != nil {
		entry.Outcome = OutcomeError
		entry.Error = ev.Err.Error()
		var apiErr *client.APIError
		if errors.As(ev.Err, &apiErr) {
			entry.Metadata = map[string]any{"status": apiErr.Status}
		}
	}
	if err := r.logger.Log(context.WithoutCancel(ctx), entry); err != nil {
		r.log.Warn("activity journal write failed", "operation", ev.Name, "error", err.Error())
	}
}

