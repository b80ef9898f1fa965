// Package chatbot simulates an air-quality assistant with canned replies
// and a daily message quota for free accounts.
package chatbot

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/airalert/airalert/internal/featureflags"
	"github.com/airalert/airalert/internal/kvstore"
	"github.com/airalert/airalert/internal/telemetry"
	"github.com/airalert/airalert/internal/user"
)

// Predefined errors.
var (
	ErrEmptyMessage    = errors.New("message is empty")
	ErrMessageTooLong  = errors.New("message is too long")
	ErrQuotaExceeded   = errors.New("daily message limit reached")
	ErrChatbotDisabled = errors.New("chatbot is disabled")
)

// MaxMessageLength bounds user messages, in runes.
const MaxMessageLength = 1000

// Unlimited is reported as Remaining for Pro accounts.
const Unlimited = -1

// Selector picks an index in [0, n).
type Selector interface {
	Pick(n int) int
}

// SelectorFunc adapts a function to Selector.
type SelectorFunc func(n int) int

// Pick calls f(n).
func (f SelectorFunc) Pick(n int) int { return f(n) }

type randomSelector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomSelector returns a Selector backed by a seeded PCG source.
func NewRandomSelector(seed uint64) Selector {
	return &randomSelector{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *randomSelector) Pick(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}

// Reply is a bot message.
type Reply struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Sender    string    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`

	// Remaining is the number of messages left today, or Unlimited.
	Remaining int `json:"remaining"`
}

// Config holds configuration for the bot.
type Config struct {
	Store    kvstore.Store
	Flags    *featureflags.Service
	Selector Selector
	Metrics  *telemetry.DomainMetrics
	Logger   zerolog.Logger

	// Now returns the current time. Default: time.Now
	Now func() time.Time
}

// Bot answers chat messages.
type Bot struct {
	store    kvstore.Store
	flags    *featureflags.Service
	selector Selector
	metrics  *telemetry.DomainMetrics
	logger   zerolog.Logger
	now      func() time.Time
}

// New creates a bot.
func New(cfg Config) *Bot {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	selector := cfg.Selector
	if selector == nil {
		selector = NewRandomSelector(uint64(now().UnixNano()))
	}
	return &Bot{
		store:    cfg.Store,
		flags:    cfg.Flags,
		selector: selector,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
		now:      now,
	}
}

func counterKey(userID string, day time.Time) string {
	return fmt.Sprintf("chat:%s:%s", userID, day.UTC().Format("2006-01-02"))
}

// ForgetUser deletes every daily counter of the user.
func (b *Bot) ForgetUser(ctx context.Context, userID string) error {
	keys, err := b.store.Keys(ctx, "chat:"+userID+":")
	if err != nil {
		return fmt.Errorf("listing chat counters: %w", err)
	}
	for _, key := range keys {
		if err := b.store.Delete(ctx, key); err != nil {
			return fmt.Errorf("deleting chat counter: %w", err)
		}
	}
	return nil
}

// Send answers text for u. Free accounts consume one message of their
// daily quota per call; the counter resets at UTC midnight.
func (b *Bot) Send(ctx context.Context, u *user.User, text string) (*Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if len([]rune(text)) > MaxMessageLength {
		return nil, ErrMessageTooLong
	}
	if b.flags.IsChatbotDisabled(ctx) {
		b.metrics.RecordChatMessage(ctx, string(u.UserType), "disabled")
		return nil, ErrChatbotDisabled
	}

	now := b.now()
	remaining := Unlimited

	if !u.IsPro {
		limit := b.flags.ChatDailyLimit(ctx)
		n, err := b.store.Incr(ctx, counterKey(u.ID, now), 24*time.Hour)
		if err != nil {
			return nil, fmt.Errorf("counting message: %w", err)
		}
		if int(n) > limit {
			b.metrics.RecordChatMessage(ctx, string(u.UserType), "quota_exceeded")
			b.logger.Debug().Str("user_id", u.ID).Int64("count", n).Msg("chat quota exceeded")
			return nil, ErrQuotaExceeded
		}
		remaining = limit - int(n)
	}

	pool := Responses(u.UserType)
	reply := &Reply{
		ID:        uuid.NewString(),
		Text:      pool[b.selector.Pick(len(pool))],
		Sender:    "bot",
		Timestamp: now.UTC(),
		Remaining: remaining,
	}

	b.metrics.RecordChatMessage(ctx, string(u.UserType), "answered")
	return reply, nil
}

// Remaining returns how many messages u may still send today.
func (b *Bot) Remaining(ctx context.Context, u *user.User) (int, error) {
	if u.IsPro {
		return Unlimited, nil
	}

	var used int64
	err := b.store.Get(ctx, counterKey(u.ID, b.now()), &used)
	if err != nil && !errors.Is(err, kvstore.ErrNotFound) {
		return 0, fmt.Errorf("reading message count: %w", err)
	}

	left := b.flags.ChatDailyLimit(ctx) - int(used)
	if left < 0 {
		left = 0
	}
	return left, nil
}

// Greet returns the opening message for u.
func (b *Bot) Greet(ctx context.Context, u *user.User) (*Reply, error) {
	remaining, err := b.Remaining(ctx, u)
	if err != nil {
		return nil, err
	}
	return &Reply{
		ID:        uuid.NewString(),
		Text:      greeting(u, remaining),
		Sender:    "bot",
		Timestamp: b.now().UTC(),
		Remaining: remaining,
	}, nil
}
