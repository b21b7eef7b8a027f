package dashgram

import (
	"context"
	"log/slog"
)

// Tracker is the part of Client used by framework observers.
type Tracker interface {
	TrackEventAsync(ctx context.Context, event any, opts ...CallOption) *Pending
	Logger() *slog.Logger
}

// Observe fires tracking for update without waiting for the result. It
// never panics and never blocks on the network; failures end up as warnings
// in the tracker's log. The request outlives ctx cancellation.
func Observe(ctx context.Context, t Tracker, update any, opts ...CallOption) {
	defer func() {
		if r := recover(); r != nil {
			t.Logger().Warn("tracking observer panicked", "panic", r)
		}
	}()
	if ctx == nil {
		ctx = context.Background()
	}
	t.TrackEventAsync(context.WithoutCancel(ctx), update, opts...)
}
