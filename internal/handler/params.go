package handler

import (
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/minhvu/edupay/edupay-backend/internal/domain"
)

// parseInt32Param parses a query parameter into an int32
func parseInt32Param(s string, out *int32) error {
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return err
	}
	*out = int32(v)
	return nil
}

// parseUUIDParam parses a path or query parameter into a UUID
func parseUUIDParam(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}

// bindPagination reads page/pageSize query parameters into the filter fields,
// clamping pageSize to the domain maximum
func bindPagination(c echo.Context, page, pageSize *int32) error {
	if pageStr := c.QueryParam("page"); pageStr != "" {
		if err := parseInt32Param(pageStr, page); err != nil || *page < 1 {
			return errors.New("Invalid page (must be positive integer)")
		}
	}
	if pageSizeStr := c.QueryParam("pageSize"); pageSizeStr != "" {
		if err := parseInt32Param(pageSizeStr, pageSize); err != nil || *pageSize < 1 {
			return errors.New("Invalid pageSize (must be positive integer)")
		}
		if *pageSize > domain.MaxPageSize {
			*pageSize = domain.MaxPageSize
		}
	}
	return nil
}
