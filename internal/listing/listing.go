// Package listing implements the search, status filter and pagination rules used
// by the company list view.
//
// The functions are generic over the listed record so the same rules apply to
// application and persistence values. Callers supply an extractor returning the
// Fields the rules inspect.
package listing

import (
	"fmt"
	"sort"
	"strings"
)

// MaxRound is the highest outreach round a company can be in.
const MaxRound = 3

// DefaultPageSize is used when a query does not specify a positive page size.
const DefaultPageSize = 10

// Status selects companies by response state.
type Status string

const (
	StatusAll          Status = "all"
	StatusResponded    Status = "responded"
	StatusNotResponded Status = "not-responded"
	StatusAttemptsLeft Status = "attempts-left"
)

// ParseStatus converts a query parameter into a Status. A blank value selects StatusAll.
func ParseStatus(raw string) (Status, error) {
	switch status := Status(strings.ToLower(strings.TrimSpace(raw))); status {
	case "":
		return StatusAll, nil
	case StatusAll, StatusResponded, StatusNotResponded, StatusAttemptsLeft:
		return status, nil
	default:
		return "", fmt.Errorf("unknown status %q", raw)
	}
}

// Fields are the attributes of a listed record that the rules read.
type Fields struct {
	ID           string
	Name         string
	Website      string
	HasResponded bool
	TotalEmails  int
	TotalPeople  int
	Seq          uint64
}

// Query combines a search term, a status filter and a page request.
type Query struct {
	Search   string
	Status   Status
	Page     int
	PageSize int
}

// Page is one slice of a filtered listing.
type Page[T any] struct {
	Items      []T
	Page       int
	PageSize   int
	Total      int
	TotalPages int
}

// CurrentRound returns the outreach round implied by the email and people totals:
// zero when nothing was sent, otherwise ceil(emails/people) capped at MaxRound.
func CurrentRound(totalEmails, totalPeople int) int {
	if totalEmails <= 0 {
		return 0
	}
	if totalPeople <= 0 {
		return MaxRound
	}
	round := (totalEmails + totalPeople - 1) / totalPeople
	if round > MaxRound {
		return MaxRound
	}
	return round
}

// Search keeps the items whose name or website contains term, ignoring case.
// A blank term keeps everything.
func Search[T any](items []T, term string, fields func(T) Fields) []T {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return append([]T(nil), items...)
	}

	matched := make([]T, 0, len(items))
	for _, item := range items {
		f := fields(item)
		if strings.Contains(strings.ToLower(f.Name), term) || strings.Contains(strings.ToLower(f.Website), term) {
			matched = append(matched, item)
		}
	}
	return matched
}

// Filter keeps the items matching status. An empty status behaves like StatusAll.
func Filter[T any](items []T, status Status, fields func(T) Fields) []T {
	if status == "" || status == StatusAll {
		return append([]T(nil), items...)
	}

	matched := make([]T, 0, len(items))
	for _, item := range items {
		f := fields(item)
		var keep bool
		switch status {
		case StatusResponded:
			keep = f.HasResponded
		case StatusNotResponded:
			keep = !f.HasResponded
		case StatusAttemptsLeft:
			keep = CurrentRound(f.TotalEmails, f.TotalPeople) < MaxRound
		}
		if keep {
			matched = append(matched, item)
		}
	}
	return matched
}

// Sort orders items by creation sequence, then by ID, so pages are deterministic.
func Sort[T any](items []T, fields func(T) Fields) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := fields(items[i]), fields(items[j])
		if a.Seq != b.Seq {
			return a.Seq < b.Seq
		}
		return a.ID < b.ID
	})
}

// Paginate returns the requested page of items. The page number is clamped into
// [1, TotalPages] and an empty input yields page 1 of 1 with no items.
func Paginate[T any](items []T, page, pageSize int) Page[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	total := len(items)
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if end > total {
		end = total
	}

	pageItems := make([]T, 0, end-start)
	if start < end {
		pageItems = append(pageItems, items[start:end]...)
	}

	return Page[T]{
		Items:      pageItems,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	}
}

// Apply runs search, filter, sort and pagination in that order. Search and
// filter compose with AND semantics.
func Apply[T any](items []T, q Query, fields func(T) Fields) Page[T] {
	matched := Search(items, q.Search, fields)
	matched = Filter(matched, q.Status, fields)
	Sort(matched, fields)
	return Paginate(matched, q.Page, q.PageSize)
}
