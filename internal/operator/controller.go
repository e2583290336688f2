// Package operator implements the mutating command surface: target and
// source management with resolve checks, keywords, blacklist, test sends.
package operator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/msolovyev/chanrelay/internal/source"
	"github.com/msolovyev/chanrelay/internal/state"
	"github.com/msolovyev/chanrelay/internal/telegram"
)

const defaultResolveRetries = 2

var (
	ErrBadChannelRef = errors.New("operator: channel must be @name or a t.me link")
	ErrBadSourceRef  = errors.New("operator: source must be an http(s) URL, @name, or a t.me link")
	ErrNoTarget      = errors.New("operator: target channel not set")
)

// Messenger is the delivery-side collaborator: resolves chats and sends test
// messages.
type Messenger interface {
	GetChat(ctx context.Context, chat string) error
	SendText(ctx context.Context, chat, text string) error
}

// ChannelResolver checks that a source channel exists and is readable.
type ChannelResolver interface {
	ResolveIdentity(ctx context.Context, channel string) error
}

// PhraseStore persists blacklist phrases.
type PhraseStore interface {
	AddPhrase(ctx context.Context, phrase string) error
	Phrases(ctx context.Context) ([]string, error)
}

// Options configures a Controller. Channels may be nil when channel sources
// are not used; Blacklist may be nil when no phrase store is open.
type Options struct {
	State     *state.State
	Blacklist PhraseStore
	Messenger Messenger
	Channels  ChannelResolver
	Logger    *slog.Logger

	// ResolveRetries is how many extra attempts a transient resolve failure
	// gets before the add is rejected. Not-found and access-denied reject
	// immediately.
	ResolveRetries int
}

// Controller validates and applies operator commands against the persisted
// configuration.
type Controller struct {
	state     *state.State
	blacklist PhraseStore
	tg        Messenger
	channels  ChannelResolver
	logger    *slog.Logger
	retries   int
}

func New(opts Options) *Controller {
	c := &Controller{
		state:     opts.State,
		blacklist: opts.Blacklist,
		tg:        opts.Messenger,
		channels:  opts.Channels,
		logger:    opts.Logger,
		retries:   opts.ResolveRetries,
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.retries <= 0 {
		c.retries = defaultResolveRetries
	}
	return c
}

// NormalizeChannel turns a t.me link or @name into the canonical @name form.
func NormalizeChannel(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	for _, prefix := range []string{"https://t.me/", "http://t.me/", "t.me/"} {
		if rest, ok := strings.CutPrefix(raw, prefix); ok {
			raw = "@" + strings.TrimSuffix(rest, "/")
			break
		}
	}
	if len(raw) < 2 || !strings.HasPrefix(raw, "@") {
		return "", ErrBadChannelRef
	}
	return raw, nil
}

func isChannelRef(raw string) bool {
	return strings.HasPrefix(raw, "@") || strings.HasPrefix(raw, "t.me/") ||
		strings.HasPrefix(raw, "https://t.me/") || strings.HasPrefix(raw, "http://t.me/")
}

func isSiteRef(raw string) bool {
	return strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://")
}

// SetTarget resolves and records the destination channel. The bot must be
// able to see the chat, so an unresolvable target is rejected.
func (c *Controller) SetTarget(ctx context.Context, raw string) (string, error) {
	channel, err := NormalizeChannel(raw)
	if err != nil {
		return "", err
	}
	if err := c.resolveTarget(ctx, channel); err != nil {
		return "", err
	}
	if err := c.state.SetTarget(channel); err != nil {
		return "", err
	}
	c.logger.Info("target set", "channel", channel)
	return channel, nil
}

// AddSource classifies raw as a site URL or a channel reference and adds it.
// Channels are resolved before being accepted. Returns the canonical id.
func (c *Controller) AddSource(ctx context.Context, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	switch {
	case isChannelRef(raw):
		channel, err := NormalizeChannel(raw)
		if err != nil {
			return "", err
		}
		if err := c.resolveChannel(ctx, channel); err != nil {
			return "", err
		}
		if err := c.state.AddChannel(channel); err != nil {
			return "", err
		}
		c.logger.Info("channel source added", "channel", channel)
		return channel, nil
	case isSiteRef(raw):
		if err := c.state.AddSite(raw); err != nil {
			return "", err
		}
		c.logger.Info("site source added", "url", raw)
		return raw, nil
	}
	return "", ErrBadSourceRef
}

// AddFeed records an RSS/Atom feed source.
func (c *Controller) AddFeed(_ context.Context, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if !isSiteRef(raw) {
		return "", ErrBadSourceRef
	}
	if err := c.state.AddFeed(raw); err != nil {
		return "", err
	}
	c.logger.Info("feed source added", "url", raw)
	return raw, nil
}

// RemoveSource deletes a source by id, accepting the same channel spellings
// AddSource does.
func (c *Controller) RemoveSource(raw string) error {
	raw = strings.TrimSpace(raw)
	if isChannelRef(raw) {
		if channel, err := NormalizeChannel(raw); err == nil {
			raw = channel
		}
	}
	if err := c.state.RemoveSource(raw); err != nil {
		return err
	}
	c.logger.Info("source removed", "id", raw)
	return nil
}

// SetKeywords replaces the keyword set. The single word "-" clears it.
func (c *Controller) SetKeywords(words []string) error {
	if len(words) == 1 && words[0] == "-" {
		words = nil
	}
	cleaned := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			cleaned = append(cleaned, w)
		}
	}
	return c.state.SetKeywords(cleaned)
}

// AddBlacklistPhrase stores a phrase to scrub from every outgoing message.
func (c *Controller) AddBlacklistPhrase(ctx context.Context, phrase string) error {
	if c.blacklist == nil {
		return errors.New("operator: blacklist store not configured")
	}
	return c.blacklist.AddPhrase(ctx, phrase)
}

// BlacklistPhrases lists the stored phrases.
func (c *Controller) BlacklistPhrases(ctx context.Context) ([]string, error) {
	if c.blacklist == nil {
		return nil, nil
	}
	return c.blacklist.Phrases(ctx)
}

// TestSend delivers text to the configured target, verifying the publish
// path end to end.
func (c *Controller) TestSend(ctx context.Context, text string) error {
	target := c.state.Target()
	if target == "" {
		return ErrNoTarget
	}
	return c.tg.SendText(ctx, target, text)
}

// resolveTarget checks the destination through the delivery transport. A
// chat-not-found answer is final; transient failures get retried.
func (c *Controller) resolveTarget(ctx context.Context, channel string) error {
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		err := c.tg.GetChat(ctx, channel)
		if err == nil {
			return nil
		}
		if errors.Is(err, telegram.ErrChatNotFound) || ctx.Err() != nil {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("resolve %s: %w", channel, lastErr)
}

// resolveChannel checks a source channel through the channel reader. When no
// reader is configured the add is accepted unchecked.
func (c *Controller) resolveChannel(ctx context.Context, channel string) error {
	if c.channels == nil {
		return nil
	}
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		err := c.channels.ResolveIdentity(ctx, channel)
		if err == nil {
			return nil
		}
		if errors.Is(err, source.ErrNotFound) || errors.Is(err, source.ErrAccessDenied) || ctx.Err() != nil {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("resolve %s: %w", channel, lastErr)
}
