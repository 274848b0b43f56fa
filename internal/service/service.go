package service

import (
	"context"
	"unicode/utf8"

	"beerfinder/internal/domain"
	"beerfinder/internal/events"
	"beerfinder/internal/policy"
	"beerfinder/internal/thumbnail"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Page is one slice of a paginated listing.
type Page[T any] struct {
	Items    []T `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// eventSink publishes events after commit. Delivery failures are logged and
// never reach the caller.
type eventSink struct {
	publisher events.Publisher
	logger    *zap.Logger
}

func newEventSink(publisher events.Publisher, logger *zap.Logger) eventSink {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return eventSink{publisher: publisher, logger: logger}
}

func (s eventSink) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish event",
			zap.String("event_type", event.Type),
			zap.String("aggregate_id", event.AggregateID.String()),
			zap.Error(err),
		)
	}
}

func orDefaultCompressor(c thumbnail.Compressor) thumbnail.Compressor {
	if c == nil {
		return thumbnail.Compress
	}
	return c
}

func authorize(caller domain.Identity, action policy.Action, owner *uuid.UUID) error {
	return policy.Decide(caller, action, owner).Err()
}

func validateName(name string) error {
	if name == "" {
		return domain.ValidationError{Field: "name", Message: "This field is required"}
	}
	if utf8.RuneCountInString(name) > 200 {
		return domain.ValidationError{Field: "name", Message: "Value is too long"}
	}
	return nil
}
