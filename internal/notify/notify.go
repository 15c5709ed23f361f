// Package notify delivers the short user-visible notices ("toasts") that the
// client-state stores emit. Delivery is fire-and-forget: sinks never return
// errors to the stores.
package notify

import (
	"context"
	"sync"

	"github.com/hometex/storefront/pkg/enums"
	"github.com/hometex/storefront/pkg/logger"
	"github.com/hometex/storefront/pkg/types"
)

// Notifier receives notices from the stores.
type Notifier interface {
	Success(ctx context.Context, message string)
	Error(ctx context.Context, message string)
	Info(ctx context.Context, message string)
	Dismiss(ctx context.Context)
}

// Nop discards every notice.
type Nop struct{}

func (Nop) Success(context.Context, string) {}
func (Nop) Error(context.Context, string)   {}
func (Nop) Info(context.Context, string)    {}
func (Nop) Dismiss(context.Context)         {}

// LogSink writes notices to the structured log.
type LogSink struct {
	logg *logger.Logger
}

func NewLogSink(logg *logger.Logger) *LogSink {
	if logg == nil {
		logg = logger.Nop()
	}
	return &LogSink{logg: logg}
}

func (s *LogSink) Success(ctx context.Context, message string) {
	s.log(ctx, enums.NoticeLevelSuccess, message)
}

func (s *LogSink) Error(ctx context.Context, message string) {
	s.log(ctx, enums.NoticeLevelError, message)
}

func (s *LogSink) Info(ctx context.Context, message string) {
	s.log(ctx, enums.NoticeLevelInfo, message)
}

func (s *LogSink) Dismiss(ctx context.Context) {
	s.log(ctx, enums.NoticeLevelDismiss, "")
}

func (s *LogSink) log(ctx context.Context, level enums.NoticeLevel, message string) {
	ctx = s.logg.WithField(ctx, "notice_level", level.String())
	s.logg.Debug(ctx, "notice: "+message)
}

// Feed keeps the most recent notices for one device until they are drained.
// When full, the oldest notice is dropped.
type Feed struct {
	mu       sync.Mutex
	capacity int
	notices  []types.Notice
}

// NewFeed returns a feed holding at most capacity notices (minimum 1).
func NewFeed(capacity int) *Feed {
	if capacity < 1 {
		capacity = 1
	}
	return &Feed{capacity: capacity}
}

func (f *Feed) Success(_ context.Context, message string) {
	f.push(enums.NoticeLevelSuccess, message)
}

func (f *Feed) Error(_ context.Context, message string) {
	f.push(enums.NoticeLevelError, message)
}

func (f *Feed) Info(_ context.Context, message string) {
	f.push(enums.NoticeLevelInfo, message)
}

func (f *Feed) Dismiss(context.Context) {
	f.push(enums.NoticeLevelDismiss, "")
}

func (f *Feed) push(level enums.NoticeLevel, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.notices) == f.capacity {
		f.notices = append(f.notices[:0], f.notices[1:]...)
	}
	f.notices = append(f.notices, types.Notice{Level: level.String(), Message: message})
}

// Drain returns pending notices oldest first and empties the feed.
func (f *Feed) Drain() []types.Notice {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.notices) == 0 {
		return nil
	}
	out := f.notices
	f.notices = nil
	return out
}

// Len reports the number of pending notices.
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.notices)
}

type fanout []Notifier

// Fanout forwards every notice to each non-nil notifier in order.
func Fanout(notifiers ...Notifier) Notifier {
	out := make(fanout, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

func (f fanout) Success(ctx context.Context, message string) {
	for _, n := range f {
		n.Success(ctx, message)
	}
}

func (f fanout) Error(ctx context.Context, message string) {
	for _, n := range f {
		n.Error(ctx, message)
	}
}

func (f fanout) Info(ctx context.Context, message string) {
	for _, n := range f {
		n.Info(ctx, message)
	}
}

func (f fanout) Dismiss(ctx context.Context) {
	for _, n := range f {
		n.Dismiss(ctx)
	}
}
