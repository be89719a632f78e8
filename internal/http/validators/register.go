package validators

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const (
	maxURLLength   = 500
	maxTitleLength = 200
)

type RegisterRequest struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	Duration int    `json:"duration"`
}

type BatchRegisterRequest struct {
	Entries []RegisterRequest `json:"entries"`
}

func ValidateRegisterRequest(r *RegisterRequest) error {
	if r.URL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "url is required")
	}
	if len(r.URL) > maxURLLength {
		return echo.NewHTTPError(http.StatusBadRequest, "url exceeds 500 characters")
	}
	if len(r.Title) > maxTitleLength {
		return echo.NewHTTPError(http.StatusBadRequest, "title exceeds 200 characters")
	}
	if r.Duration < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "duration must not be negative")
	}
	return nil
}

func ValidateBatchRegisterRequest(r *BatchRegisterRequest) error {
	if len(r.Entries) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "entries must not be empty")
	}
	for i := range r.Entries {
		if err := ValidateRegisterRequest(&r.Entries[i]); err != nil {
			return err
		}
	}
	return nil
}
