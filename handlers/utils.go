package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
)

var errMissingParam = errors.New("missing parameter")

// ParseIDFromQuery extracts a positive integer id from the query string.
func ParseIDFromQuery(r *http.Request, param string) (int, error) {
	idStr := r.URL.Query().Get(param)
	if idStr == "" {
		return 0, fmt.Errorf("%w: %s", errMissingParam, param)
	}
	id, err := strconv.Atoi(idStr)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s parameter %q", param, idStr)
	}
	return id, nil
}
