package history

import "context"

// Sink receives a copy of every history entry for downstream alerting. Sinks
// are best-effort: delivery is attempted after the owning transaction commits
// and a failure never rolls the transition back.
type Sink interface {
	Publish(ctx context.Context, entry Entry) error
}

// NopSink discards entries. Used when no broker is configured.
type NopSink struct{}

func (NopSink) Publish(context.Context, Entry) error { return nil }
