// Package service runs the tracker operations: every call takes an explicit
// actor, is checked by the policy package, and touches the store inside one
// transaction.
package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/consultdesk/tracker-backend/internal/tracker/domain"
	"github.com/consultdesk/tracker-backend/internal/tracker/policy"
)

// StatsCache is the cache StatsService reads through and ProjectService
// invalidates. See cache.StatsCache.
type StatsCache interface {
	Lookup(ctx context.Context, scope policy.Scope) (domain.ProjectStats, int64, bool, error)
	Store(ctx context.Context, gen int64, scope policy.Scope, stats domain.ProjectStats) error
	Invalidate(ctx context.Context) error
}

// Clock returns the current time. Tests replace it to drive updated_at.
type Clock func() time.Time

var tracer = otel.Tracer("github.com/consultdesk/tracker-backend/internal/tracker/service")

func startSpan(ctx context.Context, name string, actor domain.Actor) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("actor.id", actor.ID),
		attribute.String("actor.role", string(actor.Role)),
	))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
