package notify

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/hometex/storefront/pkg/logger"
)

func TestFeedDrainsInOrder(t *testing.T) {
	feed := NewFeed(5)
	ctx := context.Background()
	feed.Success(ctx, "added")
	feed.Error(ctx, "failed")
	feed.Dismiss(ctx)

	got := feed.Drain()
	if len(got) != 3 {
		t.Fatalf("expected 3 notices, got %d", len(got))
	}
	if got[0].Level != "success" || got[0].Message != "added" {
		t.Fatalf("unexpected first notice %+v", got[0])
	}
	if got[1].Level != "error" || got[2].Level != "dismiss" {
		t.Fatalf("unexpected levels %+v", got)
	}
	if feed.Drain() != nil || feed.Len() != 0 {
		t.Fatal("expected feed to be empty after drain")
	}
}

func TestFeedDropsOldestWhenFull(t *testing.T) {
	feed := NewFeed(2)
	ctx := context.Background()
	feed.Info(ctx, "one")
	feed.Info(ctx, "two")
	feed.Info(ctx, "three")

	got := feed.Drain()
	if len(got) != 2 || got[0].Message != "two" || got[1].Message != "three" {
		t.Fatalf("unexpected notices %+v", got)
	}
}

func TestFanoutDeliversToAll(t *testing.T) {
	a, b := NewFeed(3), NewFeed(3)
	n := Fanout(a, nil, b)
	n.Success(context.Background(), "hi")
	if a.Len() != 1 || b.Len() != 1 {
		t.Fatalf("expected both feeds to receive, got %d/%d", a.Len(), b.Len())
	}
}

func TestLogSinkWritesLevel(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: &buf})
	NewLogSink(logg).Error(context.Background(), "no token received")
	out := buf.String()
	if !strings.Contains(out, `"notice_level":"error"`) || !strings.Contains(out, "no token received") {
		t.Fatalf("unexpected log output %s", out)
	}
}
