package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gotd/td/telegram/message"
	"github.com/gotd/td/telegram/message/styling"
	"github.com/gotd/td/tg"
	"github.com/rs/zerolog"

	"github.com/xeptore/drtvd/config"
	"github.com/xeptore/drtvd/errutil"
	"github.com/xeptore/drtvd/log"
	"github.com/xeptore/drtvd/waitqueue"
)

type Sender interface {
	Send(ctx context.Context, e Event) error
}

// PeerSender posts events as messages to a single Telegram peer.
type PeerSender struct {
	sender *message.Sender
	peer   string
}

func NewPeerSender(api *tg.Client, peer string) *PeerSender {
	return &PeerSender{
		sender: message.NewSender(api),
		peer:   peer,
	}
}

func (s *PeerSender) Send(ctx context.Context, e Event) error {
	lines := []styling.StyledTextOption{
		styling.Bold(e.Kind.String()),
		styling.Plain(" "),
		styling.Code(e.ID),
	}
	if e.Path != "" {
		lines = append(lines, styling.Plain("\n"), styling.Italic(e.Path))
	}
	if e.Kind == KindShowListed {
		lines = append(lines, styling.Plain(fmt.Sprintf("\n%d items", e.Items)))
	}
	if nil != e.Err {
		lines = append(lines, styling.Plain("\n"), styling.Code(e.Err.Error()))
	}
	_, err := s.sender.Resolve(s.peer).StyledText(ctx, lines...)
	return err
}

// Telegram queues item events and posts them from a single observer
// goroutine. Producers never block: events arriving while the queue is full
// are dropped.
type Telegram struct {
	sender  Sender
	queue   *waitqueue.WaitQueue
	logger  zerolog.Logger
	events  chan Event
	dropped atomic.Int64

	mux    sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewTelegram(sender Sender, queue *waitqueue.WaitQueue, size int, logger zerolog.Logger) *Telegram {
	return &Telegram{
		sender:  sender,
		queue:   queue,
		logger:  logger,
		events:  make(chan Event, size),
		dropped: atomic.Int64{},
		mux:     sync.RWMutex{},
		closed:  false,
		done:    make(chan struct{}),
	}
}

// Run posts queued events until Close is called and the queue is drained, or
// ctx is done.
func (t *Telegram) Run(ctx context.Context) {
	defer close(t.done)
	for {
		select {
		case <-ctx.Done():
			t.logger.Warn().Int("pending", len(t.events)).Msg("Stopped posting events before the queue was drained")
			return
		case e, ok := <-t.events:
			if !ok {
				return
			}
			t.post(ctx, e)
		}
	}
}

func (t *Telegram) post(ctx context.Context, e Event) {
	sendCtx, cancel := context.WithTimeout(ctx, config.TelegramSendTimeout)
	defer cancel()

	err := t.queue.SendSingle(sendCtx, func() error { return t.sender.Send(sendCtx, e) })
	if nil != err {
		switch {
		case errutil.IsContext(ctx):
			t.logger.Debug().Str("id", e.ID).Msg("Event post canceled")
		case errors.Is(err, context.DeadlineExceeded):
			t.logger.Warn().Str("id", e.ID).Stringer("kind", e.Kind).Msg("Timed out posting event")
		default:
			t.logger.Error().Str("id", e.ID).Stringer("kind", e.Kind).Func(log.Flaw(err)).Msg("Failed to post event")
		}
	}
}

// Close stops accepting events and waits for Run to return or ctx to end.
func (t *Telegram) Close(ctx context.Context) error {
	t.mux.Lock()
	if !t.closed {
		t.closed = true
		close(t.events)
	}
	t.mux.Unlock()

	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Telegram) Dropped() int64 {
	return t.dropped.Load()
}

func (t *Telegram) emit(e Event) {
	t.mux.RLock()
	defer t.mux.RUnlock()
	if t.closed {
		t.dropped.Add(1)
		return
	}
	select {
	case t.events <- e:
	default:
		t.dropped.Add(1)
		t.logger.Warn().Str("id", e.ID).Stringer("kind", e.Kind).Msg("Notification queue is full. Dropping event")
	}
}

func (t *Telegram) DownloadStarted(id string) {
	t.emit(Event{Kind: KindDownloadStarted, ID: id, Path: "", Items: 0, Err: nil})
}

func (t *Telegram) Converting(id, path string) {
	t.emit(Event{Kind: KindConverting, ID: id, Path: path, Items: 0, Err: nil})
}

func (t *Telegram) Finished(id string) {
	t.emit(Event{Kind: KindFinished, ID: id, Path: "", Items: 0, Err: nil})
}

func (t *Telegram) Failed(id string, err error) {
	t.emit(Event{Kind: KindFailed, ID: id, Path: "", Items: 0, Err: err})
}

func (t *Telegram) ConvertFailed(id, path string, err error) {
	t.emit(Event{Kind: KindConvertFailed, ID: id, Path: path, Items: 0, Err: err})
}

func (t *Telegram) ShowListed(showURL string, items int) {
	t.emit(Event{Kind: KindShowListed, ID: showURL, Path: "", Items: items, Err: nil})
}
