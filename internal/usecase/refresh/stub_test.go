package refresh_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"feedhub/internal/domain/entity"
	"feedhub/internal/repository"
	"feedhub/internal/usecase/refresh"
)

/* ───────── in-memory store ───────── */

// memStore implements every repository the engine depends on.
type memStore struct {
	mu         sync.Mutex
	nextID     int64
	articles   map[int64]*entity.Article
	byURL      map[string]int64
	feeds      map[int64]*entity.Feed
	favorites  []int64
	categories map[int64]map[int64]bool

	inserts   int
	insertErr error
	listErr   error
	deleteErr error
	onCreate  func(*entity.Feed) error
	updateErr map[int64]error
}

func newMemStore() *memStore {
	return &memStore{
		articles:   make(map[int64]*entity.Article),
		byURL:      make(map[string]int64),
		feeds:      make(map[int64]*entity.Feed),
		categories: make(map[int64]map[int64]bool),
		updateErr:  make(map[int64]error),
	}
}

// seedArticle stores an article directly and returns its id.
func (m *memStore) seedArticle(url string, date *time.Time, createdAt time.Time) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.articles[m.nextID] = &entity.Article{ID: m.nextID, URL: url, Title: url, Date: date, Author: entity.UnknownAuthor, CreatedAt: createdAt}
	m.byURL[url] = m.nextID
	return m.nextID
}

func (m *memStore) seedFeed(feed *entity.Feed) *entity.Feed {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	feed.ID = m.nextID
	if feed.URLKey == "" {
		feed.URLKey = entity.FeedURLKey(feed.URL)
	}
	cp := *feed
	cp.ArticleIDs = append([]int64(nil), feed.ArticleIDs...)
	m.feeds[feed.ID] = &cp
	return feed
}

func (m *memStore) window(feedID int64) []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.feeds[feedID].ArticleIDs...)
}

func (m *memStore) has(id int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.articles[id]
	return ok
}

func (m *memStore) idOf(url string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byURL[url]
}

// ArticleRepository

func (m *memStore) Insert(_ context.Context, a *entity.Article) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return 0, m.insertErr
	}
	if id, ok := m.byURL[a.URL]; ok {
		return id, nil
	}
	m.nextID++
	m.inserts++
	cp := *a
	cp.ID = m.nextID
	m.articles[cp.ID] = &cp
	m.byURL[cp.URL] = cp.ID
	return cp.ID, nil
}

func (m *memStore) FindByURLs(_ context.Context, urls []string) (map[string]*entity.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]*entity.Article)
	for _, u := range urls {
		if id, ok := m.byURL[u]; ok {
			cp := *m.articles[id]
			out[u] = &cp
		}
	}
	return out, nil
}

func (m *memStore) FindByIDs(_ context.Context, ids []int64) ([]*entity.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*entity.Article, 0, len(ids))
	for _, id := range ids {
		if a, ok := m.articles[id]; ok {
			cp := *a
			out = append(out, &cp)
		}
	}
	// Storage order is not the requested order.
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memStore) ListIDsCreatedBefore(_ context.Context, cutoff time.Time) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []int64
	for id, a := range m.articles {
		if a.CreatedAt.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *memStore) DeleteByIDs(_ context.Context, ids []int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return 0, m.deleteErr
	}
	var n int64
	for _, id := range ids {
		if a, ok := m.articles[id]; ok {
			delete(m.byURL, a.URL)
			delete(m.articles, id)
			n++
		}
	}
	return n, nil
}

func (m *memStore) Count(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.articles)), nil
}

// FeedRepository

func (m *memStore) List(_ context.Context) ([]*entity.Feed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]*entity.Feed, 0, len(m.feeds))
	for _, f := range m.feeds {
		cp := *f
		cp.ArticleIDs = append([]int64(nil), f.ArticleIDs...)
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) Get(_ context.Context, id int64) (*entity.Feed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.feeds[id]
	if !ok {
		return nil, nil
	}
	cp := *f
	return &cp, nil
}

func (m *memStore) FindByURLKey(_ context.Context, key string) (*entity.Feed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.feeds {
		if f.URLKey == key {
			cp := *f
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) Create(_ context.Context, feed *entity.Feed) error {
	if m.onCreate != nil {
		return m.onCreate(feed)
	}
	m.seedFeed(feed)
	return nil
}

func (m *memStore) UpdateArticles(_ context.Context, feedID int64, ids []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.updateErr[feedID]; err != nil {
		return err
	}
	f, ok := m.feeds[feedID]
	if !ok {
		return entity.ErrNotFound
	}
	f.ArticleIDs = append([]int64(nil), ids...)
	return nil
}

// FavoritesRepository

func (m *memStore) ListFavoriteArticleIDs(_ context.Context) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.favorites...), nil
}

// CategoryRepository

func (m *memStore) Exists(_ context.Context, categoryID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.categories[categoryID]
	return ok, nil
}

func (m *memStore) AttachFeed(_ context.Context, categoryID, feedID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories[categoryID][feedID] = true
	return nil
}

var (
	_ repository.ArticleRepository   = (*memStore)(nil)
	_ repository.FeedRepository      = (*memStore)(nil)
	_ repository.FavoritesRepository = (*memStore)(nil)
	_ repository.CategoryRepository  = (*memStore)(nil)
)

/* ───────── upstream stub ───────── */

// upstream serves parsed documents by URL. Fetch returns the URL as the body
// and Parse looks it up again.
type upstream struct {
	mu       sync.Mutex
	docs     map[string]*refresh.ParsedFeed
	fetchErr map[string]error
	parseErr map[string]error
	fetches  map[string]int
}

func newUpstream() *upstream {
	return &upstream{
		docs:     make(map[string]*refresh.ParsedFeed),
		fetchErr: make(map[string]error),
		parseErr: make(map[string]error),
		fetches:  make(map[string]int),
	}
}

func (u *upstream) serve(url string, feed *refresh.ParsedFeed) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.docs[url] = feed
}

func (u *upstream) Fetch(_ context.Context, url string) ([]byte, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.fetches[url]++
	if err := u.fetchErr[url]; err != nil {
		return nil, err
	}
	return []byte(url), nil
}

func (u *upstream) Parse(data []byte) (*refresh.ParsedFeed, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	url := string(data)
	if err := u.parseErr[url]; err != nil {
		return nil, err
	}
	doc, ok := u.docs[url]
	if !ok {
		return nil, errors.New("no document")
	}
	return doc, nil
}

/* ───────── helpers ───────── */

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func day(d int) *time.Time {
	t := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d-1)
	return &t
}

func entry(link string, date *time.Time) refresh.ParsedEntry {
	return refresh.ParsedEntry{Link: link, Title: link, PublishedAt: date}
}

func newTestService(store *memStore, up *upstream) *refresh.Service {
	svc := refresh.NewService(store, store, store, store, up, up, refresh.Config{Concurrency: 4})
	svc.SetClock(func() time.Time { return baseTime })
	return svc
}
