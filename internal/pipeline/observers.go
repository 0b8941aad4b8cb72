package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/samvad-hq/samvad-news-topics/internal/domain"
	"github.com/samvad-hq/samvad-news-topics/internal/store"
	"github.com/samvad-hq/samvad-news-topics/pkg/publishers"
)

// StoreObserver records every run in the run store.
type StoreObserver struct {
	Runs store.RunStore
}

func (o StoreObserver) Name() string { return "store" }

func (o StoreObserver) ObserveRun(ctx context.Context, rec domain.RunRecord, _ domain.TopicResult) error {
	if o.Runs == nil {
		return nil
	}
	return o.Runs.SaveRun(ctx, rec)
}

// PublisherObserver sends the run event to every configured publisher.
// All publishers are attempted even when one fails.
type PublisherObserver struct {
	Publishers []publishers.Publisher
}

func (o PublisherObserver) Name() string { return "publishers" }

func (o PublisherObserver) ObserveRun(ctx context.Context, rec domain.RunRecord, result domain.TopicResult) error {
	if len(o.Publishers) == 0 {
		return nil
	}
	evt := publishers.NewEvent(rec, result)

	var errs []error
	for _, pub := range o.Publishers {
		if err := pub.Publish(ctx, evt); err != nil {
			errs = append(errs, fmt.Errorf("publisher %s: %w", pub.ID(), err))
		}
	}
	return errors.Join(errs...)
}
