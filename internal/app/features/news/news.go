// internal/app/features/news/news.go
package news

import (
	"errors"
	"net/http"

	newsstore "github.com/dalemusser/shelterhub/internal/app/store/news"
	"github.com/dalemusser/shelterhub/internal/app/system/authz"
	"github.com/dalemusser/shelterhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/shelterhub/internal/app/system/httpx"
	"github.com/dalemusser/shelterhub/internal/app/system/paging"
	"github.com/dalemusser/shelterhub/internal/app/system/timeouts"
	"github.com/dalemusser/shelterhub/internal/app/system/uploads"
	"github.com/dalemusser/shelterhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// summaryLength bounds summaries derived from the article body.
const summaryLength = 280

type articleInput struct {
	Title     string `json:"title" validate:"required,notblank,max=200" label:"Title"`
	Slug      string `json:"slug" validate:"max=120" label:"Slug"`
	Summary   string `json:"summary" validate:"max=1000" label:"Summary"`
	Content   string `json:"content" validate:"required,notblank,max=100000" label:"Content"`
	Published bool   `json:"published"`
}

func (in articleInput) model() models.News {
	n := models.News{
		Title:     in.Title,
		Slug:      in.Slug,
		Summary:   htmlsanitize.StripTags(in.Summary),
		Content:   htmlsanitize.PrepareContent(in.Content),
		Published: in.Published,
	}
	if n.Summary == "" {
		n.Summary = excerpt(htmlsanitize.StripTags(n.Content), summaryLength)
	}
	return n
}

// excerpt cuts s to at most n runes on a word boundary.
func excerpt(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	cut := n
	for cut > n/2 && rs[cut] != ' ' {
		cut--
	}
	return string(rs[:cut]) + "…"
}

func (h *Handler) storeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, newsstore.ErrDuplicateSlug):
		httpx.Conflict(w, "An article with this slug already exists")
	case errors.Is(err, newsstore.ErrEmptySlug):
		httpx.BadRequest(w, "A slug cannot be derived from this title")
	default:
		httpx.StoreError(w, r, h.Log, err, "Article not found")
	}
}

// PublicList handles GET /api/public/news: published articles, newest first.
func (h *Handler) PublicList(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, true)
}

// PublicGet handles GET /api/public/news/{slug}. Drafts are reported as not
// found.
func (h *Handler) PublicGet(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "news public get")
	defer cancel()

	n, err := h.Store.GetBySlug(ctx, chi.URLParam(r, "slug"), true)
	if err != nil {
		httpx.StoreError(w, r, h.Log, err, "Article not found")
		return
	}
	httpx.OK(w, n)
}

// List handles GET /api/news, drafts included.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, false)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, publishedOnly bool) {
	p := paging.Parse(r)
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "news list")
	defer cancel()

	rows, total, err := h.Store.List(ctx, publishedOnly, p)
	if err != nil {
		httpx.ServerError(w, r, h.Log, "list news failed", err)
		return
	}
	httpx.List(w, rows, paging.New(p, total))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "news get")
	defer cancel()

	n, err := h.Store.GetByID(ctx, id)
	if err != nil {
		httpx.StoreError(w, r, h.Log, err, "Article not found")
		return
	}
	httpx.OK(w, n)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in articleInput
	if !httpx.Bind(w, r, &in) {
		return
	}
	n := in.model()
	n.Author = authz.UserIDPtr(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "news create")
	defer cancel()

	out, err := h.Store.Create(ctx, n)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	httpx.Created(w, out)
}

// Update edits title, slug, summary and content. Publishing goes through
// Publish.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	var in articleInput
	if !httpx.Bind(w, r, &in) {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "news update")
	defer cancel()

	if err := h.Store.Update(ctx, id, in.model()); err != nil {
		h.storeError(w, r, err)
		return
	}
	out, err := h.Store.GetByID(ctx, id)
	if err != nil {
		httpx.StoreError(w, r, h.Log, err, "Article not found")
		return
	}
	httpx.OK(w, out)
}

type publishInput struct {
	Published *bool `json:"published" validate:"required"`
}

// Publish handles PATCH /api/news/{id}/publish {published}.
func (h *Handler) Publish(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	var in publishInput
	if !httpx.Bind(w, r, &in) {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "news publish")
	defer cancel()

	out, err := h.Store.SetPublished(ctx, id, *in.Published)
	if err != nil {
		httpx.StoreError(w, r, h.Log, err, "Article not found")
		return
	}
	httpx.OK(w, out)
}

// UploadImage handles POST /api/news/{id}/image (multipart field "image").
// The previous image file is removed.
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "news image upload")
	defer cancel()

	n, err := h.Store.GetByID(ctx, id)
	if err != nil {
		httpx.StoreError(w, r, h.Log, err, "Article not found")
		return
	}

	httpx.LimitUpload(w, r, h.Files.MaxSize())
	info, err := h.Files.FromRequest(r, "image", uploads.KindNews, uploads.ImageTypes)
	if err != nil {
		httpx.UploadError(w, r, h.Log, err)
		return
	}
	if err := h.Store.SetImage(ctx, id, info.URL); err != nil {
		h.removeFile(r, info.Key)
		httpx.StoreError(w, r, h.Log, err, "Article not found")
		return
	}
	h.removeFile(r, h.Files.KeyForURL(n.Image))
	httpx.OK(w, map[string]string{"image": info.URL})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "news delete")
	defer cancel()

	n, err := h.Store.GetByID(ctx, id)
	if err != nil {
		httpx.StoreError(w, r, h.Log, err, "Article not found")
		return
	}
	if _, err := h.Store.Delete(ctx, id); err != nil {
		httpx.ServerError(w, r, h.Log, "delete article failed", err)
		return
	}
	if h.Files != nil {
		h.removeFile(r, h.Files.KeyForURL(n.Image))
	}
	httpx.Message(w, "Article deleted")
}

func (h *Handler) removeFile(r *http.Request, key string) {
	if h.Files == nil || key == "" {
		return
	}
	if err := h.Files.Delete(r.Context(), key); err != nil {
		h.Log.Warn("delete stored file failed", zap.Error(err), zap.String("key", key))
	}
}
