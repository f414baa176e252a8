package app_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedhub/internal/app"
	"feedhub/internal/infra/db"
	"feedhub/internal/infra/fetcher"
)

// feedServer serves an RSS document whose items can be swapped between requests.
type feedServer struct {
	mu    sync.Mutex
	items []string
}

func (f *feedServer) set(links ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = links
}

func (f *feedServer) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?><rss version="2.0"><channel><title>Test</title>`)
	b.WriteString(`<image><url>https://cdn.example.com/logo.png</url></image>`)
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, link := range f.items {
		fmt.Fprintf(&b, `<item><title>Item %d</title><link>%s</link><pubDate>%s</pubDate></item>`,
			i, link, base.Add(-time.Duration(i)*time.Hour).Format(time.RFC1123Z))
	}
	b.WriteString(`</channel></rss>`)
	w.Header().Set("Content-Type", "application/rss+xml")
	_, _ = io.WriteString(w, b.String())
}

func newTestApp(t *testing.T) *app.App {
	t.Helper()
	cfg := fetcher.DefaultConfig()
	cfg.DenyPrivateIPs = false
	cfg.HostRate = 0

	a, err := app.New(context.Background(), app.Options{
		DSN:         "sqlite://:memory:",
		Fetcher:     cfg,
		Concurrency: 4,
		Migrate:     true,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestNew_SQLite(t *testing.T) {
	a := newTestApp(t)
	assert.Equal(t, db.DialectSQLite, a.Dialect)
	assert.NotNil(t, a.Refresh)
}

func TestNew_RejectsBadInput(t *testing.T) {
	_, err := app.New(context.Background(), app.Options{DSN: "mysql://localhost/db", Fetcher: fetcher.DefaultConfig()}, nil)
	assert.ErrorIs(t, err, db.ErrUnsupportedDSN)

	bad := fetcher.DefaultConfig()
	bad.Timeout = 0
	_, err = app.New(context.Background(), app.Options{DSN: "sqlite://:memory:", Fetcher: bad}, nil)
	assert.Error(t, err)
}

func TestRefreshCycle_EndToEnd(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)

	_, err := a.DB.ExecContext(ctx, `INSERT INTO users (id, email) VALUES (1, 'reader@example.com')`)
	require.NoError(t, err)
	_, err = a.DB.ExecContext(ctx, `INSERT INTO categories (id, owner_id, name) VALUES (7, 1, 'News')`)
	require.NoError(t, err)

	upstream := &feedServer{}
	upstream.set("https://news.example.com/a", "https://news.example.com/b", "https://news.example.com/c")
	srv := httptest.NewServer(upstream)
	defer srv.Close()

	added, err := a.Refresh.AddFeed(ctx, srv.URL+"/rss", 7)
	require.NoError(t, err)
	assert.True(t, added.Created)

	feed, err := a.Feeds.Get(ctx, added.ID)
	require.NoError(t, err)
	require.Len(t, feed.ArticleIDs, 3)
	assert.Equal(t, "https://cdn.example.com/logo.png", feed.DefaultMedia)

	again, err := a.Refresh.AddFeed(ctx, srv.URL+"/rss/", 7)
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, added.ID, again.ID)

	// b disappears upstream but stays through backfill; d is new.
	upstream.set("https://news.example.com/d", "https://news.example.com/a", "https://news.example.com/c")
	stats, err := a.Refresh.RefreshAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Refreshed)
	assert.Equal(t, int64(0), stats.Failed)

	feed, err = a.Feeds.Get(ctx, added.ID)
	require.NoError(t, err)
	assert.Len(t, feed.ArticleIDs, 4)

	count, err := a.Articles.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)
}

func TestReportPoolStats_StopsWithContext(t *testing.T) {
	a := newTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		a.ReportPoolStats(ctx, time.Millisecond)
		close(done)
	}()
	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("ReportPoolStats did not return after cancel")
	}
}
