package pagination

import (
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"go-leave/internal/shared/apperror"
)

const (
	DefaultPage = 1
	DefaultSize = 25
	MaxSize     = 100
)

type Params struct {
	Page      int
	Size      int
	SortField string
	SortDesc  bool
}

func (p Params) Offset() int {
	return (p.Page - 1) * p.Size
}

// OrderClause is safe to pass to gorm Order because SortField always comes
// from the allowlist given to Parse.
func (p Params) OrderClause() string {
	dir := "ASC"
	if p.SortDesc {
		dir = "DESC"
	}
	return p.SortField + " " + dir
}

type Options struct {
	MaxSize     int
	SortFields  []string
	DefaultSort string
	DefaultDesc bool
}

// Parse validates raw page, size and sort ("field" or "field,asc|desc")
// query values.
func Parse(rawPage, rawSize, rawSort string, opts Options) (Params, error) {
	maxSize := opts.MaxSize
	if maxSize <= 0 {
		maxSize = MaxSize
	}

	p := Params{
		Page:      DefaultPage,
		Size:      DefaultSize,
		SortField: opts.DefaultSort,
		SortDesc:  opts.DefaultDesc,
	}
	if p.Size > maxSize {
		p.Size = maxSize
	}

	if rawPage != "" {
		page, err := strconv.Atoi(rawPage)
		if err != nil || page < 1 {
			return Params{}, invalid("page", "page must be a positive integer")
		}
		p.Page = page
	}

	if rawSize != "" {
		size, err := strconv.Atoi(rawSize)
		if err != nil || size < 1 || size > maxSize {
			return Params{}, invalid("size", fmt.Sprintf("size must be between 1 and %d", maxSize))
		}
		p.Size = size
	}

	if rawSort != "" {
		field, dir, _ := strings.Cut(rawSort, ",")
		field = strings.TrimSpace(field)
		if !slices.Contains(opts.SortFields, field) {
			return Params{}, invalid("sort", "unsupported sort field").WithDetails(map[string]any{
				"field":   "sort",
				"allowed": opts.SortFields,
			})
		}
		p.SortField = field
		switch strings.ToLower(strings.TrimSpace(dir)) {
		case "", "asc":
			p.SortDesc = false
		case "desc":
			p.SortDesc = true
		default:
			return Params{}, invalid("sort", "sort direction must be asc or desc")
		}
	}

	return p, nil
}

func invalid(field, message string) *apperror.AppError {
	return apperror.New(apperror.CodeValidation, message, http.StatusBadRequest).
		WithDetails(map[string]any{"field": field})
}
