package waitqueue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// Limits bounds how often the queue lets a send through: at most PerInterval
// units per Interval, and at least Gap between consecutive sends.
type Limits struct {
	PerInterval int32
	Interval    time.Duration
	Gap         time.Duration
}

type WaitQueue struct {
	limits          Limits
	timer           *time.Timer
	intervalTicker  *time.Ticker
	intervalCounter atomic.Int32
	intervalReset   chan struct{}
	sendLock        *sync.Mutex
	cancelTicker    context.CancelFunc
	done            chan struct{}
}

func New(ctx context.Context, limits Limits) *WaitQueue {
	ctx, cancel := context.WithCancel(ctx)
	wq := &WaitQueue{
		limits:          limits,
		timer:           time.NewTimer(0),
		done:            make(chan struct{}),
		intervalTicker:  time.NewTicker(limits.Interval),
		intervalCounter: atomic.Int32{},
		intervalReset:   make(chan struct{}, 1),
		sendLock:        &sync.Mutex{},
		cancelTicker:    cancel,
	}

	go wq.runTicker(ctx)
	return wq
}

func (w *WaitQueue) runTicker(ctx context.Context) {
	defer close(w.done)
	defer w.intervalTicker.Stop()
	for {
		select {
		case <-w.intervalTicker.C:
			w.intervalCounter.Store(0)
			select {
			case w.intervalReset <- struct{}{}:
			default:
			}
		case <-ctx.Done():
			return
		}
	}
}

func (w *WaitQueue) Close() {
	w.cancelTicker()
	<-w.done
}

func (w *WaitQueue) SendSingle(ctx context.Context, fn func() error) error {
	return w.SendMany(ctx, 1, fn)
}

// SendMany calls fn once the queue has room for n units in the current interval.
func (w *WaitQueue) SendMany(ctx context.Context, n int32, fn func() error) error {
	if n > w.limits.PerInterval {
		return ErrExceedsInterval
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-w.timer.C:
	}
	defer w.timer.Reset(w.limits.Gap)

	for {
		if err := w.trySend(fn, n); nil != err {
			if errors.Is(err, errIntervalCapReached) {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-w.intervalReset:
				}
				continue
			}
			return err
		}
		return nil
	}
}

var (
	ErrExceedsInterval    = errors.New("requested units exceed the interval capacity")
	errIntervalCapReached = errors.New("wait queue interval capacity has reached, waiting for next interval")
)

func (w *WaitQueue) trySend(fn func() error, n int32) error {
	w.sendLock.Lock()
	defer w.sendLock.Unlock()

	if c := w.intervalCounter.Load(); w.limits.PerInterval-c >= n {
		if err := fn(); nil != err {
			return err
		}
		w.intervalCounter.Add(n)
		return nil
	}
	return errIntervalCapReached
}
