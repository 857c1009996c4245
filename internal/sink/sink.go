// Package sink composes scoring event sinks.
package sink

import (
	"context"
	"errors"
	"fmt"

	"github.com/nepcscore/services/live-scoring/internal/retry"
	"github.com/nepcscore/services/live-scoring/pkg/contracts"
	"github.com/nepcscore/services/live-scoring/pkg/models"
)

// Named pairs a sink with a label used in error messages
type Named struct {
	Name string
	Sink contracts.EventSink
}

// Multi fans an event out to every sink. All sinks are attempted even when
// one fails; failures are joined.
type Multi struct {
	sinks []Named
}

// NewMulti creates a fan-out sink
func NewMulti(sinks ...Named) *Multi {
	return &Multi{sinks: sinks}
}

// Add appends a sink
func (m *Multi) Add(name string, s contracts.EventSink) {
	m.sinks = append(m.sinks, Named{Name: name, Sink: s})
}

// Len returns the number of attached sinks
func (m *Multi) Len() int {
	return len(m.sinks)
}

// Record sends the event to all sinks
func (m *Multi) Record(ctx context.Context, event models.ScoringEvent) error {
	var errs []error
	for _, n := range m.sinks {
		if err := n.Sink.Record(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", n.Name, err))
		}
	}
	return errors.Join(errs...)
}

// Retrying retries a sink under a retry policy
type Retrying struct {
	next   contracts.EventSink
	policy *retry.Policy
}

// NewRetrying wraps a sink with retries
func NewRetrying(next contracts.EventSink, policy *retry.Policy) *Retrying {
	return &Retrying{next: next, policy: policy}
}

// Record delivers the event, retrying on failure
func (r *Retrying) Record(ctx context.Context, event models.ScoringEvent) error {
	return r.policy.Execute(ctx, func(ctx context.Context) error {
		return r.next.Record(ctx, event)
	})
}

// Discard drops every event. Used when no backing store is configured.
type Discard struct{}

// Record implements contracts.EventSink
func (Discard) Record(context.Context, models.ScoringEvent) error { return nil }
