package llm

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limited caps how often the wrapped provider is called. Calls over budget
// fail fast with ErrRateLimited instead of queueing, so a busy chat falls back
// to canned replies rather than piling up requests.
type Limited struct {
	Provider
	limiter *rate.Limiter
}

// NewLimited allows perMinute calls per minute with a burst of the same size.
// perMinute <= 0 disables limiting.
func NewLimited(p Provider, perMinute int) Provider {
	if perMinute <= 0 {
		return p
	}
	return &Limited{
		Provider: p,
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
	}
}

func (l *Limited) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if !l.limiter.Allow() {
		return nil, ErrRateLimited
	}
	return l.Provider.Chat(ctx, req)
}
