package publishers

import (
	"context"
	"time"

	"github.com/samvad-hq/samvad-news-topics/internal/domain"
	"github.com/samvad-hq/samvad-news-topics/internal/logger"
)

// Logger is the logging surface publishers write to.
type Logger = logger.Logger

// Publisher delivers run events to one sink.
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt Event) error
}

// Event is the payload published after a pipeline run.
type Event struct {
	RunID      string                     `json:"run_id"`
	Query      domain.QueryParams         `json:"query"`
	Fetched    int                        `json:"fetched"`
	Retained   int                        `json:"retained"`
	Entries    []domain.ClassifiedArticle `json:"entries"`
	Error      string                     `json:"error,omitempty"`
	StartedAt  time.Time                  `json:"started_at"`
	FinishedAt time.Time                  `json:"finished_at"`
}

// NewEvent builds the event for a run and its result.
func NewEvent(rec domain.RunRecord, result domain.TopicResult) Event {
	return Event{
		RunID:      rec.ID,
		Query:      rec.Query,
		Fetched:    rec.Fetched,
		Retained:   rec.Retained,
		Entries:    result.Entries(),
		Error:      rec.Error,
		StartedAt:  rec.StartedAt,
		FinishedAt: rec.FinishedAt,
	}
}

// Failed reports whether the event describes a failed run.
func (e Event) Failed() bool { return e.Error != "" }

func ensureLogger(log Logger) Logger {
	if log == nil {
		return logger.NopLogger{}
	}
	return log
}
