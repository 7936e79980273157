// internal/app/features/beneficiaries/documents.go
package beneficiaries

import (
	"net/http"
	"time"

	"github.com/dalemusser/shelterhub/internal/app/system/authz"
	"github.com/dalemusser/shelterhub/internal/app/system/dates"
	"github.com/dalemusser/shelterhub/internal/app/system/httpx"
	"github.com/dalemusser/shelterhub/internal/app/system/timeouts"
	"github.com/dalemusser/shelterhub/internal/app/system/uploads"
	"github.com/dalemusser/shelterhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// removeFile deletes a stored upload, logging failures. The database record
// is the source of truth, so a leftover file is not an error for the client.
func (h *Handler) removeFile(r *http.Request, key string) {
	if h.Files == nil || key == "" {
		return
	}
	if err := h.Files.Delete(r.Context(), key); err != nil {
		h.Log.Warn("delete stored file failed", zap.Error(err), zap.String("key", key))
	}
}

// UploadDocument handles POST /api/beneficiaries/{id}/documents (multipart
// field "document", optional "nom").
func (h *Handler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "beneficiary document upload")
	defer cancel()

	exists, err := h.Store.Exists(ctx, id)
	if err != nil {
		httpx.ServerError(w, r, h.Log, "check beneficiary failed", err)
		return
	}
	if !exists {
		httpx.NotFound(w, "Beneficiary not found")
		return
	}

	httpx.LimitUpload(w, r, h.Files.MaxSize())
	info, err := h.Files.FromRequest(r, "document", uploads.KindDocuments, uploads.DocumentTypes)
	if err != nil {
		httpx.UploadError(w, r, h.Log, err)
		return
	}
	name := r.FormValue("nom")
	if name == "" {
		name = info.FileName
	}

	doc, err := h.Store.AddDocument(ctx, id, models.Document{
		Nom:        name,
		Type:       info.ContentType,
		URL:        info.URL,
		Key:        info.Key,
		Taille:     info.Size,
		UploadedAt: time.Now().UTC(),
		UploadedBy: authz.UserIDPtr(r),
	})
	if err != nil {
		h.removeFile(r, info.Key)
		httpx.StoreError(w, r, h.Log, err, "Beneficiary not found")
		return
	}
	httpx.Created(w, doc)
}

// DeleteDocument handles DELETE /api/beneficiaries/{id}/documents/{docId}.
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	docID, ok := httpx.IDParam(w, r, "docId")
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "beneficiary document delete")
	defer cancel()

	doc, err := h.Store.RemoveDocument(ctx, id, docID)
	if err != nil {
		httpx.StoreError(w, r, h.Log, err, "Document not found")
		return
	}
	h.removeFile(r, doc.Key)
	httpx.Message(w, "Document deleted")
}

// UploadPhoto handles POST /api/beneficiaries/{id}/photo (multipart field
// "photo"). The previous photo file is removed.
func (h *Handler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "beneficiary photo upload")
	defer cancel()

	b, err := h.Store.GetByID(ctx, id)
	if err != nil {
		httpx.StoreError(w, r, h.Log, err, "Beneficiary not found")
		return
	}

	httpx.LimitUpload(w, r, h.Files.MaxSize())
	info, err := h.Files.FromRequest(r, "photo", uploads.KindPhotos, uploads.ImageTypes)
	if err != nil {
		httpx.UploadError(w, r, h.Log, err)
		return
	}
	if err := h.Store.SetPhoto(ctx, id, info.URL); err != nil {
		h.removeFile(r, info.Key)
		httpx.StoreError(w, r, h.Log, err, "Beneficiary not found")
		return
	}
	h.removeFile(r, h.Files.KeyForURL(b.Photo))
	httpx.OK(w, map[string]string{"photo": info.URL})
}

type suiviInput struct {
	Date            string `json:"date"`
	Type            string `json:"type" validate:"notblank,max=50" label:"Type"`
	Description     string `json:"description" validate:"notblank,max=5000" label:"Description"`
	Intervenant     string `json:"intervenant" validate:"omitempty,objectid"`
	ProchaineAction string `json:"prochaineAction" validate:"max=1000"`
}

func (in suiviInput) entry(r *http.Request) (models.SuiviEntry, bool) {
	e := models.SuiviEntry{
		Type:            in.Type,
		Description:     in.Description,
		ProchaineAction: in.ProchaineAction,
	}
	if in.Date != "" {
		d, err := dates.Parse(in.Date)
		if err != nil {
			return e, false
		}
		e.Date = d
	}
	e.Intervenant = authz.UserIDPtr(r)
	if in.Intervenant != "" {
		oid, _ := primitive.ObjectIDFromHex(in.Intervenant)
		e.Intervenant = &oid
	}
	return e, true
}

// AddSuivi handles POST /api/beneficiaries/{id}/suivi.
func (h *Handler) AddSuivi(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	var in suiviInput
	if !httpx.Bind(w, r, &in) {
		return
	}
	e, ok := in.entry(r)
	if !ok {
		httpx.BadRequest(w, "Invalid date")
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "suivi add")
	defer cancel()

	created, err := h.Store.AddSuivi(ctx, id, e)
	if err != nil {
		httpx.StoreError(w, r, h.Log, err, "Beneficiary not found")
		return
	}
	httpx.Created(w, created)
}

// UpdateSuivi handles PUT /api/beneficiaries/{id}/suivi/{entryId}.
func (h *Handler) UpdateSuivi(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	entryID, ok := httpx.IDParam(w, r, "entryId")
	if !ok {
		return
	}
	var in suiviInput
	if !httpx.Bind(w, r, &in) {
		return
	}
	e, ok := in.entry(r)
	if !ok {
		httpx.BadRequest(w, "Invalid date")
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "suivi update")
	defer cancel()

	if err := h.Store.UpdateSuivi(ctx, id, entryID, e); err != nil {
		httpx.StoreError(w, r, h.Log, err, "Follow-up entry not found")
		return
	}
	b, err := h.Store.GetByID(ctx, id)
	if err != nil {
		httpx.StoreError(w, r, h.Log, err, "Beneficiary not found")
		return
	}
	for _, s := range b.SuiviSocial {
		if s.ID == entryID {
			httpx.OK(w, s)
			return
		}
	}
	httpx.NotFound(w, "Follow-up entry not found")
}

// DeleteSuivi handles DELETE /api/beneficiaries/{id}/suivi/{entryId}.
func (h *Handler) DeleteSuivi(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IDParam(w, r, "id")
	if !ok {
		return
	}
	entryID, ok := httpx.IDParam(w, r, "entryId")
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "suivi delete")
	defer cancel()

	if err := h.Store.DeleteSuivi(ctx, id, entryID); err != nil {
		httpx.StoreError(w, r, h.Log, err, "Follow-up entry not found")
		return
	}
	httpx.Message(w, "Follow-up entry deleted")
}
