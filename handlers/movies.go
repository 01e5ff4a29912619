package handlers

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"Reelrank/models"
	"Reelrank/services"
)

const (
	maxTitleLen  = models.MaxTitleLen
	maxReviewLen = models.MaxReviewLen
	minRating    = 0.0
	maxRating    = 10.0

	upstreamErrorMsg = "The movie database is not reachable right now. Please try again later."
)

type IndexData struct {
	Page
	Movies []models.Movie
}

type AddForm struct {
	Title string
}

type AddData struct {
	Page
	Form   AddForm
	Errors *services.ValidationError
}

type SelectData struct {
	Page
	Query   string
	Options []services.SearchResult
}

type EditForm struct {
	Rating string
	Review string
}

type EditData struct {
	Page
	Movie  *models.Movie
	Form   EditForm
	Errors *services.ValidationError
}

// home reranks the whole list, persists the new rankings and renders it in
// rank order.
func (h *Handler) home(r *http.Request) Result {
	ctx := r.Context()

	movies, err := h.store.ListAll(ctx)
	if err != nil {
		return Failed(http.StatusInternalServerError, err)
	}

	ranked := services.Rerank(movies)
	if err := h.store.SaveRankings(ctx, ranked); err != nil {
		return Failed(http.StatusInternalServerError, err)
	}

	return Rendered("index", &IndexData{Movies: ranked}, http.StatusOK)
}

func (h *Handler) addForm(r *http.Request) Result {
	return Rendered("add", &AddData{}, http.StatusOK)
}

func (h *Handler) addSearch(r *http.Request) Result {
	if err := r.ParseForm(); err != nil {
		return Failed(http.StatusBadRequest, err)
	}

	form := AddForm{Title: strings.TrimSpace(r.PostFormValue("title"))}
	if verr := validateAdd(form); verr != nil {
		return Rendered("add", &AddData{Form: form, Errors: verr}, http.StatusUnprocessableEntity)
	}

	options, err := h.metadata.Search(r.Context(), form.Title)
	if err != nil {
		if errors.Is(err, services.ErrUpstreamUnavailable) {
			return Rendered("add", &AddData{Page: Page{Error: upstreamErrorMsg}, Form: form}, http.StatusOK)
		}
		return Failed(http.StatusInternalServerError, err)
	}

	return Rendered("select", &SelectData{Query: form.Title, Options: options}, http.StatusOK)
}

// find adds the chosen search result to the watchlist and sends the user on
// to rate it.
func (h *Handler) find(r *http.Request) Result {
	externalID, err := ParseIDFromQuery(r, "id")
	if errors.Is(err, errMissingParam) {
		return Redirect("/")
	}
	if err != nil {
		return Failed(http.StatusBadRequest, err)
	}

	ctx := r.Context()

	details, err := h.metadata.GetDetails(ctx, externalID)
	if err != nil {
		if errors.Is(err, services.ErrUpstreamUnavailable) {
			return Rendered("add", &AddData{Page: Page{Error: upstreamErrorMsg}}, http.StatusOK)
		}
		return Failed(http.StatusInternalServerError, err)
	}

	movie, err := h.store.Insert(ctx, details.ToNewMovie(h.imageBaseURL))
	if err != nil {
		return Failed(http.StatusInternalServerError, err)
	}

	return Redirect(fmt.Sprintf("/edit?id=%d", movie.ID)).
		WithFlash(fmt.Sprintf("Added %s to your list.", movie.Title))
}

func (h *Handler) editForm(r *http.Request) Result {
	id, err := ParseIDFromQuery(r, "id")
	if err != nil {
		return Failed(http.StatusBadRequest, err)
	}

	movie, err := h.store.Get(r.Context(), id)
	if err != nil {
		return failedLookup(err)
	}

	form := EditForm{}
	if movie.Rating != nil {
		form.Rating = strconv.FormatFloat(*movie.Rating, 'f', -1, 64)
	}
	if movie.Review != nil {
		form.Review = *movie.Review
	}

	return Rendered("edit", &EditData{Movie: movie, Form: form}, http.StatusOK)
}

func (h *Handler) editSave(r *http.Request) Result {
	id, err := ParseIDFromQuery(r, "id")
	if err != nil {
		return Failed(http.StatusBadRequest, err)
	}
	if err := r.ParseForm(); err != nil {
		return Failed(http.StatusBadRequest, err)
	}

	ctx := r.Context()
	form := EditForm{
		Rating: strings.TrimSpace(r.PostFormValue("rating")),
		Review: strings.TrimSpace(r.PostFormValue("review")),
	}

	rating, review, verr := validateEdit(form)
	if verr != nil {
		movie, err := h.store.Get(ctx, id)
		if err != nil {
			return failedLookup(err)
		}
		return Rendered("edit", &EditData{Movie: movie, Form: form, Errors: verr}, http.StatusUnprocessableEntity)
	}

	movie, err := h.store.UpdateRating(ctx, id, rating, review)
	if err != nil {
		return failedLookup(err)
	}

	return Redirect("/").WithFlash(fmt.Sprintf("Updated %s.", movie.Title))
}

func (h *Handler) delete(r *http.Request) Result {
	id, err := ParseIDFromQuery(r, "id")
	if err != nil {
		return Failed(http.StatusBadRequest, err)
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		return failedLookup(err)
	}

	return Redirect("/").WithFlash("Movie removed from your list.")
}

func failedLookup(err error) Result {
	if errors.Is(err, services.ErrNotFound) {
		return Failed(http.StatusNotFound, err)
	}
	return Failed(http.StatusInternalServerError, err)
}

func validateAdd(form AddForm) *services.ValidationError {
	verr := &services.ValidationError{}
	switch {
	case form.Title == "":
		verr.Add("title", "Please enter a movie title.")
	case utf8.RuneCountInString(form.Title) > maxTitleLen:
		verr.Add("title", fmt.Sprintf("Title must be at most %d characters.", maxTitleLen))
	}
	if verr.Err() == nil {
		return nil
	}
	return verr
}

// validateEdit parses the rating form. An empty review clears the stored one.
func validateEdit(form EditForm) (float64, *string, *services.ValidationError) {
	verr := &services.ValidationError{}

	var rating float64
	if form.Rating == "" {
		verr.Add("rating", "Please enter a rating.")
	} else if v, err := strconv.ParseFloat(form.Rating, 64); err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		verr.Add("rating", "Rating must be a number, e.g. 7.5.")
	} else if v < minRating || v > maxRating {
		verr.Add("rating", fmt.Sprintf("Rating must be between %g and %g.", minRating, maxRating))
	} else {
		rating = v
	}

	if utf8.RuneCountInString(form.Review) > maxReviewLen {
		verr.Add("review", fmt.Sprintf("Review must be at most %d characters.", maxReviewLen))
	}

	if verr.Err() != nil {
		return 0, nil, verr
	}

	var review *string
	if form.Review != "" {
		review = &form.Review
	}
	return rating, review, nil
}
