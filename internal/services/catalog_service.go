package services

import (
	"context"
	"math/rand"
	"net/url"
	"strconv"

	"github.com/moizayub1255/Tezaabi-Tottay/pkg/tmdb"
)

// MediaKind selects the movie or tv half of the catalog.
type MediaKind string

const (
	MediaMovie MediaKind = "movie"
	MediaTV    MediaKind = "tv"
)

// CatalogFetcher is the part of *tmdb.Client the catalog needs.
type CatalogFetcher interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
}

// CatalogService proxies read-only catalog requests to the upstream API.
// Upstream failures are returned as *tmdb.UpstreamError, unchanged.
type CatalogService struct {
	client           CatalogFetcher
	originalLanguage string
	pick             func(n int) int
}

// NewCatalogService creates a new CatalogService. originalLanguage filters
// trending, trailer, detail, similar and category requests when non-empty.
func NewCatalogService(client CatalogFetcher, originalLanguage string) *CatalogService {
	return &CatalogService{
		client:           client,
		originalLanguage: originalLanguage,
		pick:             rand.Intn,
	}
}

// Trending returns one random item trending today, or nil when there is none.
func (s *CatalogService) Trending(ctx context.Context, kind MediaKind) (map[string]any, error) {
	var page tmdb.Page
	if err := s.client.Get(ctx, "/trending/"+string(kind)+"/day", s.query(true, 0), &page); err != nil {
		return nil, err
	}
	if len(page.Results) == 0 {
		return nil, nil
	}
	return page.Results[s.pick(len(page.Results))], nil
}

// Discover lists the catalog by popularity.
func (s *CatalogService) Discover(ctx context.Context, kind MediaKind, page int) (*tmdb.Page, error) {
	q := s.query(false, page)
	q.Set("sort_by", "popularity.desc")
	return s.page(ctx, "/discover/"+string(kind), q)
}

func (s *CatalogService) Popular(ctx context.Context, kind MediaKind, page int) (*tmdb.Page, error) {
	return s.page(ctx, "/"+string(kind)+"/popular", s.query(false, page))
}

// Upcoming lists movies about to be released. There is no tv equivalent.
func (s *CatalogService) Upcoming(ctx context.Context, page int) (*tmdb.Page, error) {
	return s.page(ctx, "/movie/upcoming", s.query(false, page))
}

// Trailers returns the videos attached to an item.
func (s *CatalogService) Trailers(ctx context.Context, kind MediaKind, id string) ([]map[string]any, error) {
	p, err := s.page(ctx, itemPath(kind, id)+"/videos", s.query(true, 0))
	if err != nil {
		return nil, err
	}
	return p.Results, nil
}

// Details returns the full upstream record of an item.
func (s *CatalogService) Details(ctx context.Context, kind MediaKind, id string) (map[string]any, error) {
	var content map[string]any
	if err := s.client.Get(ctx, itemPath(kind, id), s.query(true, 0), &content); err != nil {
		return nil, err
	}
	return content, nil
}

func (s *CatalogService) Similar(ctx context.Context, kind MediaKind, id string) ([]map[string]any, error) {
	p, err := s.page(ctx, itemPath(kind, id)+"/similar", s.query(true, 1))
	if err != nil {
		return nil, err
	}
	return p.Results, nil
}

// Category returns the first page of a named list such as now_playing or top_rated.
func (s *CatalogService) Category(ctx context.Context, kind MediaKind, category string) ([]map[string]any, error) {
	p, err := s.page(ctx, itemPath(kind, category), s.query(true, 1))
	if err != nil {
		return nil, err
	}
	return p.Results, nil
}

func (s *CatalogService) page(ctx context.Context, path string, q url.Values) (*tmdb.Page, error) {
	var p tmdb.Page
	if err := s.client.Get(ctx, path, q, &p); err != nil {
		return nil, err
	}
	if p.Results == nil {
		p.Results = []map[string]any{}
	}
	return &p, nil
}

func (s *CatalogService) query(original bool, page int) url.Values {
	q := url.Values{}
	q.Set("language", "en-US")
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if original && s.originalLanguage != "" {
		q.Set("with_original_language", s.originalLanguage)
	}
	return q
}

func itemPath(kind MediaKind, segment string) string {
	return "/" + string(kind) + "/" + url.PathEscape(segment)
}
