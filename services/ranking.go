package services

import (
	"cmp"
	"slices"

	"Reelrank/models"
)

// Rerank orders movies by rating, highest first, and numbers them 1..N.
// Unrated movies sort after every rated one; ties keep their input order.
// The input slice is not modified.
func Rerank(movies []models.Movie) []models.Movie {
	ranked := slices.Clone(movies)

	slices.SortStableFunc(ranked, func(a, b models.Movie) int {
		switch {
		case !a.HasRating() && !b.HasRating():
			return 0
		case !a.HasRating():
			return 1
		case !b.HasRating():
			return -1
		}
		return cmp.Compare(*b.Rating, *a.Rating)
	})

	for i := range ranked {
		rank := i + 1
		ranked[i].Ranking = &rank
	}

	return ranked
}
