// Package relay runs the ingestion loop: scan sources, filter and
// deduplicate items, publish survivors to the target channel.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/msolovyev/chanrelay/internal/filter"
	"github.com/msolovyev/chanrelay/internal/fingerprint"
	"github.com/msolovyev/chanrelay/internal/sanitize"
	"github.com/msolovyev/chanrelay/internal/source"
	"github.com/msolovyev/chanrelay/internal/state"
	"github.com/msolovyev/chanrelay/internal/telegram"
)

const (
	defaultInterval     = time.Minute
	defaultWinddown     = 5 * time.Second
	defaultChannelLimit = 50

	textLimit    = 4000
	captionLimit = 1024
)

var (
	ErrAlreadyRunning = errors.New("relay: already running")
	ErrNotRunning     = errors.New("relay: not running")
	ErrNoTarget       = errors.New("relay: target channel not set")
)

// sleepFunc sleeps for d unless ctx is canceled first, reporting whether the
// full duration elapsed. Overridden in tests.
var sleepFunc = func(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Publisher delivers items to the target channel.
type Publisher interface {
	SendText(ctx context.Context, chat, text string) error
	SendPhoto(ctx context.Context, chat, fileRef, caption string) error
	SendDocument(ctx context.Context, chat, fileRef, caption string) error
	Forward(ctx context.Context, chat, fromChat string, messageID int64) error
}

// SiteScanner fetches one item from a website.
type SiteScanner interface {
	Scan(ctx context.Context, url string) (*source.Item, error)
}

// FeedScanner fetches items from an RSS/Atom feed.
type FeedScanner interface {
	Scan(ctx context.Context, url string) ([]source.Item, error)
}

// PhraseSource lists the blacklist phrases to scrub from outgoing text.
type PhraseSource interface {
	Phrases(ctx context.Context) ([]string, error)
}

// Options configures a Loop. State and Publisher are required; scanners for
// source kinds that are never configured may be nil.
type Options struct {
	State     *state.State
	Blacklist PhraseSource
	Publisher Publisher
	Sites     SiteScanner
	Feeds     FeedScanner
	Channels  source.ChannelReader
	Logger    *slog.Logger

	Interval     time.Duration
	Winddown     time.Duration
	ChannelLimit int
	Signature    string
}

// Status is a point-in-time snapshot of the loop.
type Status struct {
	Running    bool
	Target     string
	Channels   int
	Sites      int
	Feeds      int
	Keywords   int
	LedgerSize int
	Published  int
	LastPass   time.Time
}

// Loop is the ingestion state machine. Idle until Start, Running until Stop,
// then Idle again; Start and Stop may alternate any number of times.
type Loop struct {
	state     *state.State
	blacklist PhraseSource
	publisher Publisher
	sites     SiteScanner
	feeds     FeedScanner
	channels  source.ChannelReader
	logger    *slog.Logger

	interval     time.Duration
	winddown     time.Duration
	channelLimit int
	signature    string

	mu        sync.Mutex
	running   bool
	cancel    context.CancelFunc
	done      chan struct{}
	published int
	lastPass  time.Time
}

// New builds a Loop from opts, filling in defaults.
func New(opts Options) *Loop {
	l := &Loop{
		state:        opts.State,
		blacklist:    opts.Blacklist,
		publisher:    opts.Publisher,
		sites:        opts.Sites,
		feeds:        opts.Feeds,
		channels:     opts.Channels,
		logger:       opts.Logger,
		interval:     opts.Interval,
		winddown:     opts.Winddown,
		channelLimit: opts.ChannelLimit,
		signature:    opts.Signature,
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	if l.interval <= 0 {
		l.interval = defaultInterval
	}
	if l.winddown <= 0 {
		l.winddown = defaultWinddown
	}
	if l.channelLimit <= 0 {
		l.channelLimit = defaultChannelLimit
	}
	return l
}

// Start transitions Idle -> Running and spawns the loop goroutine. A target
// channel must be configured first.
func (l *Loop) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return ErrAlreadyRunning
	}
	if l.state.Target() == "" {
		return ErrNoTarget
	}

	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.done = make(chan struct{})
	l.running = true
	go l.run(ctx)
	return nil
}

// Stop cancels the loop and waits for the goroutine to exit. Cancellation is
// observed at pass and per-item boundaries, never mid-delivery.
func (l *Loop) Stop() error {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return ErrNotRunning
	}
	l.cancel()
	done := l.done
	l.mu.Unlock()

	<-done
	return nil
}

// Status reports the current loop state and counters.
func (l *Loop) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Status{
		Running:    l.running,
		Target:     l.state.Target(),
		Channels:   len(l.state.Channels()),
		Sites:      len(l.state.Sites()),
		Feeds:      len(l.state.Feeds()),
		Keywords:   len(l.state.Keywords()),
		LedgerSize: l.state.LedgerSize(),
		Published:  l.published,
		LastPass:   l.lastPass,
	}
}

// RunOnce executes a single scan pass and returns. The loop must be idle.
func (l *Loop) RunOnce(ctx context.Context) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return ErrAlreadyRunning
	}
	l.mu.Unlock()

	if l.state.Target() == "" {
		return ErrNoTarget
	}

	l.pass(ctx)
	l.mu.Lock()
	l.lastPass = time.Now()
	l.mu.Unlock()
	return ctx.Err()
}

func (l *Loop) run(ctx context.Context) {
	defer func() {
		l.mu.Lock()
		l.running = false
		close(l.done)
		l.mu.Unlock()
	}()

	l.logger.Info("ingestion started",
		"target", l.state.Target(),
		"interval", l.interval,
	)

	for {
		l.pass(ctx)

		l.mu.Lock()
		l.lastPass = time.Now()
		l.mu.Unlock()

		if ctx.Err() != nil {
			// Stop arrived mid-pass; give in-flight state writes a moment
			// before reporting stopped.
			sleepFunc(context.Background(), l.winddown)
			l.logger.Info("ingestion stopped")
			return
		}
		if !sleepFunc(ctx, l.interval) {
			l.logger.Info("ingestion stopped")
			return
		}
	}
}

// pass runs one scan over every configured source. Channel scanning and
// site/feed scanning proceed concurrently; a failure in one source never
// aborts the pass.
func (l *Loop) pass(ctx context.Context) {
	target := l.state.Target()
	if target == "" {
		return
	}
	keywords := l.state.Keywords()
	blacklist := l.phrases(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		l.guard("channels", func() { l.scanChannels(gctx, target, keywords, blacklist) })
		return nil
	})
	g.Go(func() error {
		l.guard("sites", func() { l.scanSites(gctx, target, keywords, blacklist) })
		l.guard("feeds", func() { l.scanFeeds(gctx, target, keywords, blacklist) })
		return nil
	})
	_ = g.Wait()
}

func (l *Loop) guard(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("scan panicked", "scan", name, "panic", r)
		}
	}()
	fn()
}

func (l *Loop) phrases(ctx context.Context) []string {
	if l.blacklist == nil {
		return nil
	}
	phrases, err := l.blacklist.Phrases(ctx)
	if err != nil {
		l.logger.Warn("blacklist unavailable for this pass", "error", err)
		return nil
	}
	return phrases
}

func (l *Loop) scanChannels(ctx context.Context, target string, keywords, blacklist []string) {
	if l.channels == nil {
		return
	}
	for _, ch := range l.state.Channels() {
		if ctx.Err() != nil {
			return
		}
		msgs, err := l.channels.IterateRecent(ctx, ch, l.channelLimit)
		if err != nil {
			switch {
			case errors.Is(err, source.ErrAccessDenied), errors.Is(err, source.ErrNotFound):
				l.logger.Warn("channel unavailable", "channel", ch, "error", err)
			default:
				l.logger.Warn("channel scan failed", "channel", ch, "error", err)
			}
			continue
		}
		for _, msg := range msgs {
			if ctx.Err() != nil {
				return
			}
			item, ok := channelItem(ch, msg)
			if !ok {
				continue
			}
			l.process(ctx, target, item, keywords, blacklist)
		}
	}
}

// channelItem turns a raw message into an item, dropping messages with
// neither text nor media. Hyperlinks are stripped before the text is used
// for matching and fingerprinting.
func channelItem(channel string, msg source.Message) (source.Item, bool) {
	text := msg.Text
	if text == "" {
		text = msg.Caption
	}
	text = sanitize.StripHyperlinks(text)
	if text == "" && msg.Media == nil {
		return source.Item{}, false
	}
	return source.Item{
		Kind:      source.KindChannel,
		Origin:    channel,
		MessageID: msg.ID,
		Text:      text,
		Media:     msg.Media,
	}, true
}

func (l *Loop) scanSites(ctx context.Context, target string, keywords, blacklist []string) {
	if l.sites == nil {
		return
	}
	for _, url := range l.state.Sites() {
		if ctx.Err() != nil {
			return
		}
		item, err := l.sites.Scan(ctx, url)
		if err != nil {
			l.logger.Warn("site scan failed", "url", url, "error", err)
			continue
		}
		if item == nil {
			continue
		}
		l.process(ctx, target, *item, keywords, blacklist)
	}
}

func (l *Loop) scanFeeds(ctx context.Context, target string, keywords, blacklist []string) {
	if l.feeds == nil {
		return
	}
	for _, url := range l.state.Feeds() {
		if ctx.Err() != nil {
			return
		}
		items, err := l.feeds.Scan(ctx, url)
		if err != nil {
			l.logger.Warn("feed scan failed", "url", url, "error", err)
			continue
		}
		for _, item := range items {
			if ctx.Err() != nil {
				return
			}
			l.process(ctx, target, item, keywords, blacklist)
		}
	}
}

// process runs the per-item pipeline: dedup, keyword filter, delivery. The
// hash is recorded only after a successful delivery, so a crash or failure
// re-attempts the item on a later pass.
func (l *Loop) process(ctx context.Context, target string, item source.Item, keywords, blacklist []string) {
	hash := itemHash(item)
	if l.state.Seen(hash) {
		return
	}
	if !filter.Matches(item.Text, keywords) {
		return
	}

	if err := l.deliver(ctx, target, item, blacklist); err != nil {
		var rl *telegram.RateLimitedError
		if errors.As(err, &rl) {
			l.logger.Info("rate limited, pausing", "retry_after", rl.RetryAfter, "origin", item.Origin)
			sleepFunc(ctx, rl.RetryAfter)
			return
		}
		l.logger.Warn("delivery failed", "origin", item.Origin, "error", err)
		if !l.fallbackText(ctx, target, item, blacklist) {
			return
		}
	}

	if err := l.state.RecordSent(hash); err != nil {
		l.logger.Error("ledger update failed", "error", err)
	}
	l.mu.Lock()
	l.published++
	l.mu.Unlock()
	l.logger.Info("published", "kind", item.Kind, "origin", item.Origin)
}

// itemHash derives the dedup fingerprint. Channel items mix in the media
// reference so the same caption with different attachments counts as new.
func itemHash(item source.Item) string {
	if item.Kind == source.KindChannel {
		return fingerprint.Sum(item.Text + item.Media.String())
	}
	return fingerprint.Sum(item.Text)
}

// deliver dispatches the item by media kind. Items without a dedicated send
// method are forwarded from their source channel.
func (l *Loop) deliver(ctx context.Context, target string, item source.Item, blacklist []string) error {
	if item.Media != nil {
		caption := sanitize.FirstRunes(
			sanitize.Clean(item.Text, blacklist, l.signature), captionLimit)
		switch item.Media.Kind {
		case source.MediaPhoto:
			return l.publisher.SendPhoto(ctx, target, item.Media.Ref, caption)
		case source.MediaDocument:
			return l.publisher.SendDocument(ctx, target, item.Media.Ref, caption)
		default:
			return l.publisher.Forward(ctx, target, item.Origin, item.MessageID)
		}
	}

	text := l.textBody(item, blacklist)
	if text == "" {
		return nil
	}
	return l.publisher.SendText(ctx, target, text)
}

// fallbackText retries a failed media delivery as plain text, once. Reports
// whether the fallback went through.
func (l *Loop) fallbackText(ctx context.Context, target string, item source.Item, blacklist []string) bool {
	if item.Media == nil {
		return false
	}
	text := l.textBody(item, blacklist)
	if text == "" {
		return false
	}
	if err := l.publisher.SendText(ctx, target, text); err != nil {
		l.logger.Warn("text fallback failed", "origin", item.Origin, "error", err)
		return false
	}
	return true
}

// textBody renders the outgoing message text: blacklist scrub, snippet
// marker for site and feed excerpts, length cap, signature.
func (l *Loop) textBody(item source.Item, blacklist []string) string {
	body := sanitize.Clean(item.Text, blacklist, "")
	if body == "" {
		return ""
	}
	if item.Kind != source.KindChannel {
		body += "..."
	} else if r := []rune(body); len(r) > textLimit {
		body = string(r[:textLimit]) + "..."
	}
	if l.signature != "" {
		body = fmt.Sprintf("%s\n\n%s", body, l.signature)
	}
	return body
}
