package storeconn

import (
	"context"
	"time"

	"github.com/noah-isme/campuspass-api/pkg/docstore"
)

// Recorder receives store instrumentation. *service.MetricsService satisfies it.
type Recorder interface {
	ObserveStoreOperation(driver, op string, err error, duration time.Duration)
	SubscriptionOpened(collection string)
	SubscriptionClosed(collection string)
	SnapshotDelivered(collection string)
}

// Instrumented decorates a Client with metrics and an optional per-operation timeout.
type Instrumented struct {
	docstore.Client
	recorder Recorder
	timeout  time.Duration
}

var _ docstore.Client = (*Instrumented)(nil)

// Instrument wraps client. A zero timeout leaves operation deadlines to the caller.
func Instrument(client docstore.Client, recorder Recorder, timeout time.Duration) *Instrumented {
	return &Instrumented{Client: client, recorder: recorder, timeout: timeout}
}

// Unwrap returns the decorated client.
func (i *Instrumented) Unwrap() docstore.Client {
	return i.Client
}

func (i *Instrumented) observe(op string, start time.Time, err error) {
	if i.recorder != nil {
		i.recorder.ObserveStoreOperation(i.Client.Driver(), op, err, time.Since(start))
	}
}

func (i *Instrumented) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if i.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, i.timeout)
}

// Get implements docstore.Client.
func (i *Instrumented) Get(ctx context.Context, path docstore.Path) (snap docstore.Snapshot, err error) {
	ctx, cancel := i.bound(ctx)
	defer cancel()
	defer func(start time.Time) { i.observe("get", start, err) }(time.Now())
	return i.Client.Get(ctx, path)
}

// Set implements docstore.Client.
func (i *Instrumented) Set(ctx context.Context, path docstore.Path, value any) (err error) {
	ctx, cancel := i.bound(ctx)
	defer cancel()
	defer func(start time.Time) { i.observe("set", start, err) }(time.Now())
	return i.Client.Set(ctx, path, value)
}

// SetIfAbsent implements docstore.Client.
func (i *Instrumented) SetIfAbsent(ctx context.Context, path docstore.Path, value any) (written bool, err error) {
	ctx, cancel := i.bound(ctx)
	defer cancel()
	defer func(start time.Time) { i.observe("set_if_absent", start, err) }(time.Now())
	return i.Client.SetIfAbsent(ctx, path, value)
}

// Remove implements docstore.Client.
func (i *Instrumented) Remove(ctx context.Context, path docstore.Path) (err error) {
	ctx, cancel := i.bound(ctx)
	defer cancel()
	defer func(start time.Time) { i.observe("remove", start, err) }(time.Now())
	return i.Client.Remove(ctx, path)
}

// Subscribe implements docstore.Client. The subscription itself lives as long as ctx, so
// only the registration is timed.
func (i *Instrumented) Subscribe(ctx context.Context, path docstore.Path, listener docstore.Listener) (sub *docstore.Subscription, err error) {
	collection := path.Collection()
	start := time.Now()
	sub, err = i.Client.Subscribe(ctx, path, func(snap docstore.Snapshot) {
		if i.recorder != nil {
			i.recorder.SnapshotDelivered(collection)
		}
		listener(snap)
	})
	i.observe("subscribe", start, err)
	if err != nil || i.recorder == nil {
		return sub, err
	}
	i.recorder.SubscriptionOpened(collection)
	go func() {
		<-sub.Done()
		i.recorder.SubscriptionClosed(collection)
	}()
	return sub, nil
}
