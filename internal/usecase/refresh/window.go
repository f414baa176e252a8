package refresh

import (
	"context"
	"fmt"
	"sort"
	"time"

	"feedhub/internal/domain/entity"
)

// buildWindow reconciles parsed entries with stored articles and returns the
// new newest-first window of article ids, at most WindowSize long.
//
// Entries are matched to stored articles by link. Unknown links become new
// articles. When fewer than WindowSize ids result, the window is padded with
// the most recent ids of prior that were not already used.
func (s *Service) buildWindow(
	ctx context.Context,
	parsed *ParsedFeed,
	defaultMedia string,
	prior []int64,
) ([]int64, *FeedResult, error) {
	res := &FeedResult{}

	entries := make([]ParsedEntry, 0, len(parsed.Entries))
	for _, e := range parsed.Entries {
		if e.Link != "" {
			entries = append(entries, e)
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entity.DateAfter(entries[i].PublishedAt, entries[j].PublishedAt)
	})

	links := make([]string, 0, len(entries))
	for _, e := range entries {
		links = append(links, e.Link)
	}

	byURL := make(map[string]int64, len(links))
	if len(links) > 0 {
		var existing map[string]*entity.Article
		err := s.read(ctx, func() error {
			var err error
			existing, err = s.Articles.FindByURLs(ctx, links)
			return err
		})
		if err != nil {
			return nil, nil, fmt.Errorf("find articles by url: %w", err)
		}
		for url, a := range existing {
			byURL[url] = a.ID
		}
	}

	// Every linked entry is walked. Stored dates can differ from the parsed
	// ones, so the cut to WindowSize happens only after the final re-sort.
	fresh := make([]int64, 0, len(entries))
	seen := make(map[int64]struct{}, len(entries))
	for _, e := range entries {
		id, ok := byURL[e.Link]
		if ok {
			res.Reused++
		} else {
			var err error
			id, err = s.Articles.Insert(ctx, newArticle(e, defaultMedia, s.now()))
			if err != nil {
				return nil, nil, fmt.Errorf("insert article: %w", err)
			}
			byURL[e.Link] = id
			res.Inserted++
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		fresh = append(fresh, id)
	}

	if len(fresh) < WindowSize && len(prior) > 0 {
		pool := make([]int64, 0, len(prior))
		for _, id := range prior {
			if _, ok := seen[id]; !ok {
				pool = append(pool, id)
			}
		}
		if len(pool) > 0 {
			stored, err := s.findByIDs(ctx, pool)
			if err != nil {
				return nil, nil, err
			}
			entity.SortArticlesByDateDesc(inOrder(stored, pool))
			for _, a := range stored {
				if len(fresh) == WindowSize {
					break
				}
				if _, ok := seen[a.ID]; ok {
					continue
				}
				seen[a.ID] = struct{}{}
				fresh = append(fresh, a.ID)
				res.Backfilled++
			}
		}
	}

	if len(fresh) == 0 {
		return []int64{}, res, nil
	}

	stored, err := s.findByIDs(ctx, fresh)
	if err != nil {
		return nil, nil, err
	}
	entity.SortArticlesByDateDesc(inOrder(stored, fresh))
	if len(stored) > WindowSize {
		stored = stored[:WindowSize]
	}

	ids := make([]int64, len(stored))
	for i, a := range stored {
		ids[i] = a.ID
	}
	res.Size = len(ids)
	return ids, res, nil
}

func (s *Service) findByIDs(ctx context.Context, ids []int64) ([]*entity.Article, error) {
	var stored []*entity.Article
	err := s.read(ctx, func() error {
		var err error
		stored, err = s.Articles.FindByIDs(ctx, ids)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("find articles by id: %w", err)
	}
	return stored, nil
}

// inOrder sorts articles in place to follow the id order of ids, so that a
// later stable date sort breaks ties by that order. It returns articles.
func inOrder(articles []*entity.Article, ids []int64) []*entity.Article {
	pos := make(map[int64]int, len(ids))
	for i, id := range ids {
		if _, ok := pos[id]; !ok {
			pos[id] = i
		}
	}
	sort.SliceStable(articles, func(i, j int) bool {
		return pos[articles[i].ID] < pos[articles[j].ID]
	})
	return articles
}

func newArticle(e ParsedEntry, defaultMedia string, now time.Time) *entity.Article {
	media := e.Media
	if media == "" {
		media = defaultMedia
	}
	author := e.Author
	if author == "" {
		author = entity.UnknownAuthor
	}
	return &entity.Article{
		URL:         e.Link,
		Title:       e.Title,
		Description: e.Description,
		Media:       media,
		Date:        e.PublishedAt,
		Author:      author,
		CreatedAt:   now,
	}
}
