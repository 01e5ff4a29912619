package handlers

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"Reelrank/models"
	"Reelrank/services"
)

type fakeStore struct {
	mu      sync.Mutex
	movies  map[int]models.Movie
	nextID  int
	listErr error
	pingErr error
	saves   int
}

func newFakeStore(movies ...models.Movie) *fakeStore {
	s := &fakeStore{movies: make(map[int]models.Movie), nextID: 1}
	for _, m := range movies {
		s.movies[m.ID] = m
		if m.ID >= s.nextID {
			s.nextID = m.ID + 1
		}
	}
	return s
}

func (s *fakeStore) ListAll(ctx context.Context) ([]models.Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]models.Movie, 0, len(s.movies))
	for _, m := range s.movies {
		out = append(out, m)
	}
	slices.SortFunc(out, func(a, b models.Movie) int { return a.ID - b.ID })
	return out, nil
}

func (s *fakeStore) Get(ctx context.Context, id int) (*models.Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.movies[id]
	if !ok {
		return nil, fmt.Errorf("movie %d: %w", id, services.ErrNotFound)
	}
	return &m, nil
}

func (s *fakeStore) Insert(ctx context.Context, nm models.NewMovie) (*models.Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	m := models.Movie{
		ID:          s.nextID,
		Title:       nm.Title,
		Year:        nm.Year,
		Description: nm.Description,
		ImgURL:      nm.ImgURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.movies[m.ID] = m
	s.nextID++
	return &m, nil
}

func (s *fakeStore) UpdateRating(ctx context.Context, id int, rating float64, review *string) (*models.Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.movies[id]
	if !ok {
		return nil, fmt.Errorf("movie %d: %w", id, services.ErrNotFound)
	}
	m.Rating = &rating
	m.Review = review
	m.UpdatedAt = time.Now()
	s.movies[id] = m
	return &m, nil
}

func (s *fakeStore) Delete(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.movies[id]; !ok {
		return fmt.Errorf("movie %d: %w", id, services.ErrNotFound)
	}
	delete(s.movies, id)
	return nil
}

func (s *fakeStore) SaveRankings(ctx context.Context, movies []models.Movie) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	for _, m := range movies {
		stored, ok := s.movies[m.ID]
		if !ok {
			continue
		}
		stored.Ranking = m.Ranking
		s.movies[m.ID] = stored
	}
	return nil
}

func (s *fakeStore) Ping(ctx context.Context) error {
	return s.pingErr
}

func (s *fakeStore) snapshot() map[int]models.Movie {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int]models.Movie, len(s.movies))
	for k, v := range s.movies {
		out[k] = v
	}
	return out
}

type fakeMetadata struct {
	search  func(ctx context.Context, query string) ([]services.SearchResult, error)
	details func(ctx context.Context, id int) (*services.MovieDetails, error)
}

func (f *fakeMetadata) Search(ctx context.Context, query string) ([]services.SearchResult, error) {
	if f.search == nil {
		return []services.SearchResult{}, nil
	}
	return f.search(ctx, query)
}

func (f *fakeMetadata) GetDetails(ctx context.Context, id int) (*services.MovieDetails, error) {
	if f.details == nil {
		return nil, fmt.Errorf("details %d: %w", id, services.ErrUpstreamUnavailable)
	}
	return f.details(ctx, id)
}
