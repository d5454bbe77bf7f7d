// Package googlebooks is a client for the Google Books volumes API. Searches
// never fail: any upstream problem is logged and reported as an empty result.
package googlebooks

import (
	"regexp"
	"strings"
)

const (
	maxPageSize = 40
	// The API refuses startIndex values past 1000.
	maxTotalItems = 1000
)

var (
	isbn13Query = regexp.MustCompile(`^(978|979)\d{10}$`)
	isbn10Query = regexp.MustCompile(`^\d{9}[\dXx]$`)
)

// Volume is a search hit translated to the fields a book is registered with.
type Volume struct {
	GoogleBooksID string `json:"google_books_id"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	Publisher     string `json:"publisher"`
	PublishedDate string `json:"published_date"`
	Description   string `json:"description"`
	ISBN          string `json:"isbn"`
	ImageURL      string `json:"image_url"`
}

// LastPage is the highest page reachable under the API's total item ceiling.
func LastPage(perPage int) int {
	if perPage < 1 {
		return 1
	}
	return (maxTotalItems + perPage - 1) / perPage
}

type SearchResult struct {
	Results     []Volume `json:"results"`
	TotalItems  int      `json:"total_items"`
	CurrentPage int      `json:"current_page"`
	PerPage     int      `json:"per_page"`
	TotalPages  int      `json:"total_pages"`
}

func emptyResult(page, perPage int) SearchResult {
	return SearchResult{
		Results:     []Volume{},
		CurrentPage: page,
		PerPage:     perPage,
	}
}

// FormatQuery prefixes ISBN-looking queries with "isbn:".
func FormatQuery(q string) string {
	if isbn13Query.MatchString(q) || isbn10Query.MatchString(q) {
		return "isbn:" + q
	}
	return q
}

type volumesResponse struct {
	TotalItems int          `json:"totalItems"`
	Items      []volumeItem `json:"items"`
}

type volumeItem struct {
	ID         string      `json:"id"`
	VolumeInfo *volumeInfo `json:"volumeInfo"`
}

type volumeInfo struct {
	Title               string   `json:"title"`
	Authors             []string `json:"authors"`
	Publisher           string   `json:"publisher"`
	PublishedDate       string   `json:"publishedDate"`
	Description         string   `json:"description"`
	IndustryIdentifiers []struct {
		Type       string `json:"type"`
		Identifier string `json:"identifier"`
	} `json:"industryIdentifiers"`
	ImageLinks struct {
		Thumbnail string `json:"thumbnail"`
	} `json:"imageLinks"`
}

func (it volumeItem) toVolume() (Volume, bool) {
	vi := it.VolumeInfo
	if vi == nil {
		return Volume{}, false
	}
	return Volume{
		GoogleBooksID: it.ID,
		Title:         vi.Title,
		Author:        strings.Join(vi.Authors, ", "),
		Publisher:     vi.Publisher,
		PublishedDate: vi.PublishedDate,
		Description:   vi.Description,
		ISBN:          vi.isbn(),
		ImageURL:      secure(vi.ImageLinks.Thumbnail),
	}, true
}

// isbn prefers ISBN_13 over ISBN_10.
func (vi *volumeInfo) isbn() string {
	var isbn10 string
	for _, id := range vi.IndustryIdentifiers {
		switch id.Type {
		case "ISBN_13":
			return id.Identifier
		case "ISBN_10":
			if isbn10 == "" {
				isbn10 = id.Identifier
			}
		}
	}
	return isbn10
}

func secure(u string) string {
	if rest, ok := strings.CutPrefix(u, "http:"); ok {
		return "https:" + rest
	}
	return u
}

func (r volumesResponse) toResult(page, perPage int) SearchResult {
	res := emptyResult(page, perPage)
	for _, it := range r.Items {
		if v, ok := it.toVolume(); ok {
			res.Results = append(res.Results, v)
		}
	}
	res.TotalItems = min(r.TotalItems, maxTotalItems)
	if perPage > 0 {
		res.TotalPages = (res.TotalItems + perPage - 1) / perPage
	}
	return res
}
