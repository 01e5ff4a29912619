package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Reelrank/config"
	"Reelrank/logger"
	"Reelrank/models"
	"Reelrank/services"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func floatPtr(f float64) *float64 { return &f }
func strPtr(s string) *string     { return &s }

func newTestHandler(t *testing.T, store MovieStore, meta MetadataClient) *Handler {
	t.Helper()
	sessions, err := services.NewSessionStore(&config.Config{SessionSecret: testSecret, Environment: "test"})
	require.NoError(t, err)

	h, err := New(Deps{
		Store:        store,
		Metadata:     meta,
		Sessions:     sessions,
		ImageBaseURL: "https://img.example/t/p/w500",
		Logger:       logger.Discard(),
	})
	require.NoError(t, err)
	return h
}

func postForm(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestNew_RequiresDeps(t *testing.T) {
	_, err := New(Deps{Store: newFakeStore()})
	assert.Error(t, err)
}

func TestHome_RanksAndPersists(t *testing.T) {
	store := newFakeStore(
		models.Movie{ID: 1, Title: "Unrated"},
		models.Movie{ID: 2, Title: "Okay", Rating: floatPtr(6)},
		models.Movie{ID: 3, Title: "Best", Rating: floatPtr(9.5)},
	)
	h := newTestHandler(t, store, &fakeMetadata{})

	res := h.home(httptest.NewRequest(http.MethodGet, "/", nil))

	require.True(t, res.IsRendered())
	assert.Equal(t, "index", res.View)
	assert.Equal(t, http.StatusOK, res.Status)

	data := res.Data.(*IndexData)
	require.Len(t, data.Movies, 3)
	assert.Equal(t, []string{"Best", "Okay", "Unrated"},
		[]string{data.Movies[0].Title, data.Movies[1].Title, data.Movies[2].Title})

	stored := store.snapshot()
	assert.Equal(t, 1, *stored[3].Ranking)
	assert.Equal(t, 2, *stored[2].Ranking)
	assert.Equal(t, 3, *stored[1].Ranking)
	assert.Equal(t, 1, store.saves)
}

func TestHome_StoreFailure(t *testing.T) {
	store := newFakeStore()
	store.listErr = errors.New("connection refused")
	h := newTestHandler(t, store, &fakeMetadata{})

	res := h.home(httptest.NewRequest(http.MethodGet, "/", nil))

	require.True(t, res.IsFailed())
	assert.Equal(t, http.StatusInternalServerError, res.Status)
}

func TestAddSearch(t *testing.T) {
	tests := []struct {
		name       string
		title      string
		search     func(context.Context, string) ([]services.SearchResult, error)
		wantView   string
		wantStatus int
		check      func(t *testing.T, res Result)
	}{
		{
			name:  "lists candidates",
			title: "  Inception ",
			search: func(_ context.Context, q string) ([]services.SearchResult, error) {
				return []services.SearchResult{{ExternalID: 27205, Title: q, ReleaseDate: "2010-07-15"}}, nil
			},
			wantView:   "select",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, res Result) {
				data := res.Data.(*SelectData)
				assert.Equal(t, "Inception", data.Query)
				require.Len(t, data.Options, 1)
				assert.Equal(t, 27205, data.Options[0].ExternalID)
			},
		},
		{
			name:       "missing title",
			title:      "   ",
			wantView:   "add",
			wantStatus: http.StatusUnprocessableEntity,
			check: func(t *testing.T, res Result) {
				data := res.Data.(*AddData)
				assert.NotEmpty(t, data.Errors.For("title"))
			},
		},
		{
			name:       "title too long",
			title:      strings.Repeat("x", maxTitleLen+1),
			wantView:   "add",
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:  "upstream unavailable",
			title: "Inception",
			search: func(context.Context, string) ([]services.SearchResult, error) {
				return nil, services.ErrUpstreamUnavailable
			},
			wantView:   "add",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, res Result) {
				data := res.Data.(*AddData)
				assert.Equal(t, upstreamErrorMsg, data.Error)
				assert.Equal(t, "Inception", data.Form.Title)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			meta := &fakeMetadata{search: func(ctx context.Context, q string) ([]services.SearchResult, error) {
				called = true
				if tt.search == nil {
					return nil, nil
				}
				return tt.search(ctx, q)
			}}
			h := newTestHandler(t, newFakeStore(), meta)

			res := h.addSearch(postForm("/add", url.Values{"title": {tt.title}}))

			require.True(t, res.IsRendered())
			assert.Equal(t, tt.wantView, res.View)
			assert.Equal(t, tt.wantStatus, res.Status)
			if tt.wantStatus == http.StatusUnprocessableEntity {
				assert.False(t, called, "search must not run on invalid input")
			}
			if tt.check != nil {
				tt.check(t, res)
			}
		})
	}
}

func TestFind(t *testing.T) {
	details := func(_ context.Context, id int) (*services.MovieDetails, error) {
		return &services.MovieDetails{
			ID:          id,
			Title:       "Inception",
			ReleaseDate: "2010-07-15",
			PosterPath:  strPtr("/inc.jpg"),
			Overview:    "Dreams.",
		}, nil
	}

	t.Run("inserts and redirects to edit", func(t *testing.T) {
		store := newFakeStore()
		h := newTestHandler(t, store, &fakeMetadata{details: details})

		res := h.find(httptest.NewRequest(http.MethodGet, "/find?id=27205", nil))

		require.True(t, res.IsRedirect())
		assert.Equal(t, "/edit?id=1", res.Target)
		assert.Equal(t, http.StatusSeeOther, res.Status)
		assert.Contains(t, res.Flash, "Inception")

		m := store.snapshot()[1]
		assert.Equal(t, "Inception", m.Title)
		assert.Equal(t, 2010, *m.Year)
		assert.Equal(t, "https://img.example/t/p/w500/inc.jpg", *m.ImgURL)
		assert.Nil(t, m.Rating)
	})

	t.Run("missing id goes home", func(t *testing.T) {
		h := newTestHandler(t, newFakeStore(), &fakeMetadata{details: details})

		res := h.find(httptest.NewRequest(http.MethodGet, "/find", nil))

		require.True(t, res.IsRedirect())
		assert.Equal(t, "/", res.Target)
	})

	t.Run("malformed id", func(t *testing.T) {
		h := newTestHandler(t, newFakeStore(), &fakeMetadata{details: details})

		res := h.find(httptest.NewRequest(http.MethodGet, "/find?id=abc", nil))

		require.True(t, res.IsFailed())
		assert.Equal(t, http.StatusBadRequest, res.Status)
	})

	t.Run("upstream failure inserts nothing", func(t *testing.T) {
		store := newFakeStore()
		h := newTestHandler(t, store, &fakeMetadata{details: func(context.Context, int) (*services.MovieDetails, error) {
			return nil, services.ErrMalformedUpstream
		}})

		res := h.find(httptest.NewRequest(http.MethodGet, "/find?id=27205", nil))

		require.True(t, res.IsRendered())
		assert.Equal(t, "add", res.View)
		assert.Equal(t, http.StatusOK, res.Status)
		assert.Equal(t, upstreamErrorMsg, res.Data.(*AddData).Error)
		assert.Empty(t, store.snapshot())
	})
}

func TestFind_OversizedUpstreamFields(t *testing.T) {
	store := newFakeStore()
	h := newTestHandler(t, store, &fakeMetadata{details: func(_ context.Context, id int) (*services.MovieDetails, error) {
		return &services.MovieDetails{
			ID:         id,
			Title:      strings.Repeat("t", models.MaxTitleLen*2),
			PosterPath: strPtr("/" + strings.Repeat("p", models.MaxImgURLLen)),
		}, nil
	}})

	res := h.find(httptest.NewRequest(http.MethodGet, "/find?id=7", nil))

	require.True(t, res.IsRedirect())
	m := store.snapshot()[1]
	assert.Len(t, m.Title, models.MaxTitleLen)
	assert.Nil(t, m.ImgURL)
}

func TestEditForm(t *testing.T) {
	store := newFakeStore(
		models.Movie{ID: 1, Title: "Heat", Rating: floatPtr(8.5), Review: strPtr("Tense")},
		models.Movie{ID: 2, Title: "Primer"},
	)
	h := newTestHandler(t, store, &fakeMetadata{})

	t.Run("prefilled", func(t *testing.T) {
		res := h.editForm(httptest.NewRequest(http.MethodGet, "/edit?id=1", nil))

		require.True(t, res.IsRendered())
		data := res.Data.(*EditData)
		assert.Equal(t, "8.5", data.Form.Rating)
		assert.Equal(t, "Tense", data.Form.Review)
	})

	t.Run("unrated", func(t *testing.T) {
		res := h.editForm(httptest.NewRequest(http.MethodGet, "/edit?id=2", nil))

		require.True(t, res.IsRendered())
		assert.Empty(t, res.Data.(*EditData).Form.Rating)
	})

	t.Run("unknown id", func(t *testing.T) {
		res := h.editForm(httptest.NewRequest(http.MethodGet, "/edit?id=99", nil))

		require.True(t, res.IsFailed())
		assert.Equal(t, http.StatusNotFound, res.Status)
		assert.ErrorIs(t, res.Err, services.ErrNotFound)
	})

	t.Run("malformed id", func(t *testing.T) {
		for _, target := range []string{"/edit", "/edit?id=x", "/edit?id=-3"} {
			res := h.editForm(httptest.NewRequest(http.MethodGet, target, nil))
			assert.Equal(t, http.StatusBadRequest, res.Status, target)
		}
	})
}

func TestEditSave(t *testing.T) {
	tests := []struct {
		name        string
		target      string
		rating      string
		review      string
		wantStatus  int
		wantField   string
		wantRating  *float64
		wantReview  *string
		wantChanged bool
	}{
		{name: "valid", target: "/edit?id=1", rating: "7.5", review: "Solid", wantStatus: http.StatusSeeOther, wantRating: floatPtr(7.5), wantReview: strPtr("Solid"), wantChanged: true},
		{name: "empty review clears", target: "/edit?id=1", rating: "10", wantStatus: http.StatusSeeOther, wantRating: floatPtr(10), wantChanged: true},
		{name: "zero is a rating", target: "/edit?id=1", rating: "0", wantStatus: http.StatusSeeOther, wantRating: floatPtr(0), wantChanged: true},
		{name: "missing rating", target: "/edit?id=1", rating: "", wantStatus: http.StatusUnprocessableEntity, wantField: "rating"},
		{name: "not a number", target: "/edit?id=1", rating: "great", wantStatus: http.StatusUnprocessableEntity, wantField: "rating"},
		{name: "NaN", target: "/edit?id=1", rating: "NaN", wantStatus: http.StatusUnprocessableEntity, wantField: "rating"},
		{name: "above range", target: "/edit?id=1", rating: "10.5", wantStatus: http.StatusUnprocessableEntity, wantField: "rating"},
		{name: "below range", target: "/edit?id=1", rating: "-1", wantStatus: http.StatusUnprocessableEntity, wantField: "rating"},
		{name: "review too long", target: "/edit?id=1", rating: "5", review: strings.Repeat("r", maxReviewLen+1), wantStatus: http.StatusUnprocessableEntity, wantField: "review"},
		{name: "unknown id", target: "/edit?id=42", rating: "5", wantStatus: http.StatusNotFound},
		{name: "unknown id with bad input", target: "/edit?id=42", rating: "", wantStatus: http.StatusNotFound},
		{name: "malformed id", target: "/edit?id=abc", rating: "5", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := models.Movie{ID: 1, Title: "Heat", Rating: floatPtr(3), Review: strPtr("Old")}
			store := newFakeStore(before)
			h := newTestHandler(t, store, &fakeMetadata{})

			res := h.editSave(postForm(tt.target, url.Values{"rating": {tt.rating}, "review": {tt.review}}))

			assert.Equal(t, tt.wantStatus, res.Status)
			after := store.snapshot()[1]

			if !tt.wantChanged {
				assert.Equal(t, before, after, "entry must not change")
			} else {
				require.True(t, res.IsRedirect())
				assert.Equal(t, "/", res.Target)
				assert.Equal(t, *tt.wantRating, *after.Rating)
				assert.Equal(t, tt.wantReview, after.Review)
			}

			if tt.wantField != "" {
				require.True(t, res.IsRendered())
				assert.Equal(t, "edit", res.View)
				data := res.Data.(*EditData)
				assert.NotEmpty(t, data.Errors.For(tt.wantField))
				assert.Equal(t, tt.rating, data.Form.Rating, "input is echoed back")
			}
		})
	}
}

func TestDelete(t *testing.T) {
	t.Run("removes entry", func(t *testing.T) {
		store := newFakeStore(models.Movie{ID: 1, Title: "Heat"}, models.Movie{ID: 2, Title: "Ran"})
		h := newTestHandler(t, store, &fakeMetadata{})

		res := h.delete(httptest.NewRequest(http.MethodPost, "/delete?id=1", nil))

		require.True(t, res.IsRedirect())
		assert.Equal(t, "/", res.Target)
		assert.NotEmpty(t, res.Flash)
		assert.NotContains(t, store.snapshot(), 1)
		assert.Contains(t, store.snapshot(), 2)
	})

	t.Run("unknown id", func(t *testing.T) {
		store := newFakeStore(models.Movie{ID: 1, Title: "Heat"})
		h := newTestHandler(t, store, &fakeMetadata{})

		res := h.delete(httptest.NewRequest(http.MethodGet, "/delete?id=9", nil))

		assert.Equal(t, http.StatusNotFound, res.Status)
		assert.Len(t, store.snapshot(), 1)
	})
}

func TestDelete_RerankIsDense(t *testing.T) {
	store := newFakeStore(
		models.Movie{ID: 1, Title: "A", Rating: floatPtr(9)},
		models.Movie{ID: 2, Title: "B", Rating: floatPtr(7)},
		models.Movie{ID: 3, Title: "C", Rating: floatPtr(5)},
	)
	h := newTestHandler(t, store, &fakeMetadata{})

	h.home(httptest.NewRequest(http.MethodGet, "/", nil))
	h.delete(httptest.NewRequest(http.MethodGet, "/delete?id=2", nil))
	h.home(httptest.NewRequest(http.MethodGet, "/", nil))

	stored := store.snapshot()
	assert.Equal(t, 1, *stored[1].Ranking)
	assert.Equal(t, 2, *stored[3].Ranking)
}

func TestParseIDFromQuery(t *testing.T) {
	tests := []struct {
		query   string
		want    int
		wantErr bool
		missing bool
	}{
		{query: "id=12", want: 12},
		{query: "", wantErr: true, missing: true},
		{query: "id=", wantErr: true, missing: true},
		{query: "id=abc", wantErr: true},
		{query: "id=0", wantErr: true},
		{query: "id=1.5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/x?"+tt.query, nil)
			got, err := ParseIDFromQuery(req, "id")
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.missing, errors.Is(err, errMissingParam))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
