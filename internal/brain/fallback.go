package brain

import "context"

// FallbackAdapter tries a primary backend and falls back on any error. The
// error from the primary is intentionally dropped; callers that care about
// failure rates watch the brain error metrics instead.
type FallbackAdapter struct {
	primary   Adapter
	secondary Adapter

	// OnFallback, when set, observes the primary's error before the
	// secondary is consulted.
	OnFallback func(primaryName string, err error)
}

func NewFallbackAdapter(primary, secondary Adapter) *FallbackAdapter {
	return &FallbackAdapter{primary: primary, secondary: secondary}
}

func (a *FallbackAdapter) Name() string { return a.primary.Name() }

func (a *FallbackAdapter) Reply(ctx context.Context, req Request) (Response, error) {
	res, err := a.primary.Reply(ctx, req)
	if err == nil {
		return res, nil
	}
	if ctx.Err() != nil {
		// Do not mask cancellation with a secondary reply.
		return Response{}, err
	}
	if a.OnFallback != nil {
		a.OnFallback(a.primary.Name(), err)
	}
	return a.secondary.Reply(ctx, req)
}
