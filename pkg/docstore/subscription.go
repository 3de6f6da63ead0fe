package docstore

import (
	"bytes"
	"context"
	"sync"

	"go.uber.org/zap"
)

// Subscription is the handle returned by Client.Subscribe.
type Subscription struct {
	once   sync.Once
	cancel context.CancelFunc
	done   chan struct{}
}

// Unsubscribe stops future deliveries. Calling it more than once is a no-op.
func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(s.cancel)
}

// Done is closed once the delivery goroutine has exited.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Stream describes one subscription for StartStream.
type Stream struct {
	Path Path
	// Initial is delivered first. It must be read after the change source was attached.
	Initial Snapshot
	// Changes signals that the watched collection may have changed.
	Changes <-chan struct{}
	// Read fetches the current value of Path.
	Read func(ctx context.Context) (Snapshot, error)
	// OnStop releases the change source.
	OnStop func()
	Logger *zap.Logger
}

// StartStream delivers the initial snapshot and then a fresh snapshot after every change signal,
// sequentially from a single goroutine. Values equal to the previous delivery are dropped.
func StartStream(ctx context.Context, st Stream, listener Listener) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{cancel: cancel, done: make(chan struct{})}
	logger := st.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	go func() {
		defer close(sub.done)
		if st.OnStop != nil {
			defer st.OnStop()
		}

		var last []byte
		delivered := false
		deliver := func(snap Snapshot) {
			if ctx.Err() != nil {
				return
			}
			if delivered && bytes.Equal(last, snap.Value) {
				return
			}
			last, delivered = append([]byte(nil), snap.Value...), true
			listener(snap)
		}

		deliver(st.Initial)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-st.Changes:
				if !ok {
					return
				}
				snap, err := st.Read(ctx)
				if err != nil {
					if ctx.Err() == nil {
						logger.Warn("subscription read failed", zap.String("path", st.Path.String()), zap.Error(err))
					}
					continue
				}
				deliver(snap)
			}
		}
	}()

	return sub
}
