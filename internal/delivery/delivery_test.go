package delivery

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type fakeChannel struct {
	name        string
	configured  bool
	err         error
	delay       time.Duration
	calls       atomic.Int32
	sawCancel   atomic.Bool
	sawDeadline atomic.Bool
}

func (f *fakeChannel) Name() string     { return f.name }
func (f *fakeChannel) Configured() bool { return f.configured }

func (f *fakeChannel) Send(ctx context.Context, msg Message) error {
	f.calls.Add(1)
	if _, ok := ctx.Deadline(); ok {
		f.sawDeadline.Store(true)
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			f.sawCancel.Store(true)
			return ctx.Err()
		}
	}
	return f.err
}

func TestDispatcher_Outcomes(t *testing.T) {
	cases := []struct {
		name      string
		tg, mail  *fakeChannel
		wantTG    Status
		wantMail  Status
		wantAny   bool
		wantCalls [2]int32
	}{
		{
			name:      "both delivered",
			tg:        &fakeChannel{name: "telegram", configured: true},
			mail:      &fakeChannel{name: "smtp", configured: true},
			wantTG:    StatusDelivered,
			wantMail:  StatusDelivered,
			wantAny:   true,
			wantCalls: [2]int32{1, 1},
		},
		{
			name:      "one fails the other still delivers",
			tg:        &fakeChannel{name: "telegram", configured: true, err: errors.New("502")},
			mail:      &fakeChannel{name: "smtp", configured: true},
			wantTG:    StatusFailed,
			wantMail:  StatusDelivered,
			wantAny:   true,
			wantCalls: [2]int32{1, 1},
		},
		{
			name:     "unconfigured channels are not attempted",
			tg:       &fakeChannel{name: "telegram"},
			mail:     &fakeChannel{name: "smtp"},
			wantTG:   StatusNotConfigured,
			wantMail: StatusNotConfigured,
		},
		{
			name:      "channel reporting not configured at send time",
			tg:        &fakeChannel{name: "telegram", configured: true, err: ErrNotConfigured},
			mail:      &fakeChannel{name: "smtp", configured: true, err: errors.New("auth")},
			wantTG:    StatusNotConfigured,
			wantMail:  StatusFailed,
			wantCalls: [2]int32{1, 1},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := &Dispatcher{Telegram: tc.tg, Email: tc.mail}
			res := d.Deliver(context.Background(), Message{Subject: "s", Text: "t"})

			if res.Telegram.Status != tc.wantTG || res.Email.Status != tc.wantMail {
				t.Fatalf("statuses = %s/%s; want %s/%s", res.Telegram.Status, res.Email.Status, tc.wantTG, tc.wantMail)
			}
			if res.Any() != tc.wantAny {
				t.Fatalf("Any() = %v", res.Any())
			}
			if got := [2]int32{tc.tg.calls.Load(), tc.mail.calls.Load()}; got != tc.wantCalls {
				t.Fatalf("calls = %v; want %v", got, tc.wantCalls)
			}
			if res.Telegram.Channel != "telegram" || res.Email.Channel != "email" {
				t.Fatalf("channel names: %+v", res)
			}
		})
	}
}

func TestDispatcher_NilChannels(t *testing.T) {
	res := (&Dispatcher{}).Deliver(context.Background(), Message{})
	if res.Telegram.Status != StatusNotConfigured || res.Email.Status != StatusNotConfigured {
		t.Fatalf("nil channels: %+v", res)
	}
}

func TestDispatcher_RunsConcurrently(t *testing.T) {
	tg := &fakeChannel{name: "telegram", configured: true, delay: 100 * time.Millisecond}
	mail := &fakeChannel{name: "smtp", configured: true, delay: 100 * time.Millisecond}
	d := &Dispatcher{Telegram: tg, Email: mail}

	start := time.Now()
	res := d.Deliver(context.Background(), Message{})
	if took := time.Since(start); took >= 190*time.Millisecond {
		t.Fatalf("channels ran sequentially: %v", took)
	}
	if !res.Telegram.Delivered() || !res.Email.Delivered() {
		t.Fatalf("res = %+v", res)
	}
}

func TestDispatcher_TimeoutBoundsEachSend(t *testing.T) {
	slow := &fakeChannel{name: "telegram", configured: true, delay: time.Second}
	fast := &fakeChannel{name: "smtp", configured: true}
	d := &Dispatcher{Telegram: slow, Email: fast, Timeout: 20 * time.Millisecond}

	res := d.Deliver(context.Background(), Message{})
	if res.Telegram.Status != StatusFailed || !errors.Is(res.Telegram.Err, context.DeadlineExceeded) {
		t.Fatalf("slow channel: %+v", res.Telegram)
	}
	if !res.Email.Delivered() {
		t.Fatalf("fast channel must not be affected: %+v", res.Email)
	}
	if !fast.sawDeadline.Load() {
		t.Fatalf("send context must carry a deadline")
	}
}

func TestDispatcher_IgnoresCallerCancellation(t *testing.T) {
	ch := &fakeChannel{name: "telegram", configured: true, delay: 30 * time.Millisecond}
	d := &Dispatcher{Telegram: ch, Timeout: time.Second}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := d.Deliver(ctx, Message{})
	if !res.Telegram.Delivered() || ch.sawCancel.Load() {
		t.Fatalf("delivery aborted by caller cancellation: %+v", res.Telegram)
	}
}
