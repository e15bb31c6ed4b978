package batch

import (
	"context"
	"errors"
	"fmt"

	"github.com/samvad-hq/sammi-go/internal/logger"
	"github.com/samvad-hq/sammi-go/pkg/publishers"
)

// Summary counts the outcome of one pass.
type Summary struct {
	Sent    int `json:"sent"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Service sends batch entries in order and reports each outcome.
type Service struct {
	sender    Sender
	publisher EventPublisher
	journal   Journal
	log       logger.Logger
}

// NewService wires a batch runner. publisher and journal may be nil.
func NewService(sender Sender, publisher EventPublisher, journal Journal, log logger.Logger) *Service {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Service{
		sender:    sender,
		publisher: publisher,
		journal:   journal,
		log:       log,
	}
}

// Run performs one pass over entries. Failed entries do not stop the pass;
// their errors are joined into the returned error.
func (s *Service) Run(ctx context.Context, entries []Entry) (Summary, error) {
	var summary Summary
	if s == nil || s.sender == nil {
		return summary, fmt.Errorf("batch service is not initialized")
	}
	if len(entries) == 0 {
		return summary, fmt.Errorf("no requests configured")
	}

	var errs []error
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		skipped, err := s.runEntry(ctx, entry)
		switch {
		case skipped:
			summary.Skipped++
		case err != nil:
			summary.Failed++
			errs = append(errs, err)
			s.log.ErrorObj("request dispatch failed", "dispatch_error", map[string]any{
				"entry_id": entry.ID,
				"request":  entry.Descriptor.Request(),
				"error":    err.Error(),
			})
		default:
			summary.Sent++
		}
	}
	return summary, errors.Join(errs...)
}

func (s *Service) runEntry(ctx context.Context, entry Entry) (bool, error) {
	if entry.Once && s.journal != nil {
		delivered, err := s.journal.Delivered(entry.ID)
		if err != nil {
			return false, fmt.Errorf("journal lookup for %s: %w", entry.ID, err)
		}
		if delivered {
			s.log.DebugObj("request already delivered", "entry_id", entry.ID)
			return true, nil
		}
	}

	res := s.sender.SendRequest(ctx, entry.Descriptor)

	var errs []error
	if res.Err != nil {
		errs = append(errs, fmt.Errorf("send %s: %w", entry.ID, res.Err))
	} else {
		s.log.InfoObj("request dispatched", "dispatch_result", map[string]any{
			"entry_id": entry.ID,
			"request":  entry.Descriptor.Request(),
			"value":    res.Value,
		})
	}

	if s.publisher != nil {
		evt := publishers.NewEvent(entry.ID, entry.Descriptor, res)
		if _, err := s.publisher.Publish(ctx, evt); err != nil {
			errs = append(errs, fmt.Errorf("publish %s: %w", entry.ID, err))
		}
	}

	if res.Err == nil && entry.Once && s.journal != nil {
		if err := s.journal.MarkDelivered(entry.ID); err != nil {
			errs = append(errs, fmt.Errorf("journal mark for %s: %w", entry.ID, err))
		}
	}
	return false, errors.Join(errs...)
}
