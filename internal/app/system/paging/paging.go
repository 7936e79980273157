// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultLimit is the page size when the client does not send ?limit=.
const DefaultLimit = 20

// MaxLimit caps ?limit= so a client cannot pull a whole collection.
const MaxLimit = 200

// Params is a 1-based page request.
type Params struct {
	Page  int
	Limit int
}

// Skip returns the number of documents before the page.
func (p Params) Skip() int64 { return int64((p.Page - 1) * p.Limit) }

// Parse reads ?page= and ?limit=. Missing or invalid values fall back to
// page 1 and DefaultLimit; limit is clamped to MaxLimit.
func Parse(r *http.Request) Params {
	p := Params{Page: 1, Limit: DefaultLimit}
	if n, err := strconv.Atoi(query.Get(r, "page")); err == nil && n > 0 {
		p.Page = n
	}
	if n, err := strconv.Atoi(query.Get(r, "limit")); err == nil && n > 0 {
		p.Limit = n
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// FindOptions returns Find options for the page with the given sort.
func (p Params) FindOptions(sort bson.D) *options.FindOptions {
	return options.Find().SetSort(sort).SetSkip(p.Skip()).SetLimit(int64(p.Limit))
}

// Pagination is the "pagination" object of list responses.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

// New builds Pagination for a total count.
func New(p Params, total int64) Pagination {
	pages := int64(0)
	if p.Limit > 0 {
		pages = (total + int64(p.Limit) - 1) / int64(p.Limit)
	}
	return Pagination{Page: p.Page, Limit: p.Limit, Total: total, Pages: pages}
}

// ParseSort reads ?sort=field or ?sort=-field and returns a sort document
// ending with _id for a stable order. Fields outside allowed fall back to def.
func ParseSort(r *http.Request, allowed map[string]string, def bson.D) bson.D {
	raw := strings.TrimSpace(query.Get(r, "sort"))
	if raw == "" {
		return def
	}
	dir := 1
	if strings.HasPrefix(raw, "-") {
		dir = -1
		raw = raw[1:]
	}
	field, ok := allowed[raw]
	if !ok {
		return def
	}
	return bson.D{{Key: field, Value: dir}, {Key: "_id", Value: dir}}
}
