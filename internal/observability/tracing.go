package observability

import (
	"context"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type SpanStatus string

const (
	SpanStatusOK    SpanStatus = "OK"
	SpanStatusError SpanStatus = "ERROR"
)

// Span times one operation. Spans started from a context that already carries
// a span join its trace as children. They are reported through slog rather
// than exported.
type Span struct {
	TraceID   string
	SpanID    string
	ParentID  string
	Operation string
	Status    SpanStatus
	Error     string

	start time.Time
	end   time.Time
	tags  []slog.Attr
}

type spanContextKey struct{}

func StartSpan(ctx context.Context, operation string) (context.Context, *Span) {
	span := &Span{
		SpanID:    newID(),
		Operation: operation,
		Status:    SpanStatusOK,
		start:     time.Now(),
	}
	if parent := GetSpan(ctx); parent != nil {
		span.TraceID = parent.TraceID
		span.ParentID = parent.SpanID
	} else {
		span.TraceID = newID()
	}
	return context.WithValue(ctx, spanContextKey{}, span), span
}

func GetSpan(ctx context.Context) *Span {
	span, _ := ctx.Value(spanContextKey{}).(*Span)
	return span
}

// Finish stops the clock. Later calls are ignored.
func (s *Span) Finish() {
	if s.end.IsZero() {
		s.end = time.Now()
	}
}

// Duration is the elapsed time so far, or the final time once finished.
func (s *Span) Duration() time.Duration {
	if s.end.IsZero() {
		return time.Since(s.start)
	}
	return s.end.Sub(s.start)
}

func (s *Span) SetTag(key, value string) {
	s.tags = append(s.tags, slog.String(key, value))
}

func (s *Span) SetError(err error) {
	s.Status = SpanStatusError
	if err != nil {
		s.Error = err.Error()
	}
}

// LogValue lets a span be passed straight to slog as a grouped attribute.
func (s *Span) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, 7+len(s.tags))
	attrs = append(attrs,
		slog.String("trace_id", s.TraceID),
		slog.String("span_id", s.SpanID),
		slog.String("operation", s.Operation),
		slog.String("status", string(s.Status)),
		slog.Duration("duration", s.Duration()),
	)
	if s.ParentID != "" {
		attrs = append(attrs, slog.String("parent_id", s.ParentID))
	}
	if s.Error != "" {
		attrs = append(attrs, slog.String("error", s.Error))
	}
	return slog.GroupValue(append(attrs, s.tags...)...)
}

// newID returns 16 hex characters taken from a random UUID.
func newID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:8])
}
