package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	ActionSendMessage = "send_message"
	ActionCreateChat  = "create_chat"
	ActionCreatePost  = "create_post"
	ActionSearch      = "search"
	ActionCallback    = "oauth_callback"
)

// Policy is a bucket size and the interval at which one token is added back.
type Policy struct {
	Burst  int
	Refill time.Duration
}

var defaultPolicies = map[string]Policy{
	// 10 messages per minute
	ActionSendMessage: {Burst: 10, Refill: 6 * time.Second},
	// 5 room creations, then one every 12 minutes
	ActionCreateChat: {Burst: 5, Refill: 12 * time.Minute},
	ActionCreatePost: {Burst: 5, Refill: time.Minute},
	ActionSearch:     {Burst: 20, Refill: 3 * time.Second},
	ActionCallback:   {Burst: 5, Refill: 10 * time.Second},
}

var defaultPolicy = Policy{Burst: 20, Refill: 3 * time.Second}

// RateLimiter throttles user actions locally, keyed by "userID:action", so a
// stuck key or a double submit never floods the backend.
type RateLimiter struct {
	policies map[string]Policy
	limiters map[string]*rate.Limiter
	mutex    sync.Mutex
}

func NewRateLimiter() *RateLimiter {
	return NewRateLimiterWithPolicies(nil)
}

// NewRateLimiterWithPolicies overrides the default policy of the given actions.
func NewRateLimiterWithPolicies(overrides map[string]Policy) *RateLimiter {
	policies := make(map[string]Policy, len(defaultPolicies)+len(overrides))
	for action, p := range defaultPolicies {
		policies[action] = p
	}
	for action, p := range overrides {
		policies[action] = p
	}
	return &RateLimiter{
		policies: policies,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (rl *RateLimiter) limiter(userID, action string) *rate.Limiter {
	key := userID + ":" + action

	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	if l, ok := rl.limiters[key]; ok {
		return l
	}
	p, ok := rl.policies[action]
	if !ok {
		p = defaultPolicy
	}
	l := rate.NewLimiter(rate.Every(p.Refill), p.Burst)
	rl.limiters[key] = l
	return l
}

// Allow consumes a token for the action if one is available. Otherwise it
// returns false and how long until the next token.
func (rl *RateLimiter) Allow(userID, action string) (bool, time.Duration) {
	if rl == nil {
		return true, 0
	}

	now := time.Now()
	r := rl.limiter(userID, action).ReserveN(now, 1)
	if !r.OK() {
		return false, 0
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Check reports whether a token is available without consuming it. Pair it
// with Consume for actions that are only charged when they succeed.
func (rl *RateLimiter) Check(userID, action string) (bool, time.Duration) {
	if rl == nil {
		return true, 0
	}

	l := rl.limiter(userID, action)
	tokens := l.TokensAt(time.Now())
	if tokens >= 1 {
		return true, 0
	}
	if l.Limit() <= 0 {
		return false, 0
	}
	wait := time.Duration((1 - tokens) / float64(l.Limit()) * float64(time.Second))
	return false, wait
}

// Consume takes a token for an action that already happened, even if the
// bucket is empty.
func (rl *RateLimiter) Consume(userID, action string) {
	if rl == nil {
		return
	}
	rl.limiter(userID, action).ReserveN(time.Now(), 1)
}

// Tokens reports the tokens currently available for the action.
func (rl *RateLimiter) Tokens(userID, action string) float64 {
	if rl == nil {
		return 0
	}
	return rl.limiter(userID, action).Tokens()
}

// Reset forgets all buckets, e.g. after logout.
func (rl *RateLimiter) Reset() {
	if rl == nil {
		return
	}
	rl.mutex.Lock()
	rl.limiters = make(map[string]*rate.Limiter)
	rl.mutex.Unlock()
}
