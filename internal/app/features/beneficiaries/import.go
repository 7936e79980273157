// internal/app/features/beneficiaries/import.go
package beneficiaries

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/shelterhub/internal/app/store/audit"
	beneficiarystore "github.com/dalemusser/shelterhub/internal/app/store/beneficiaries"
	"github.com/dalemusser/shelterhub/internal/app/system/authz"
	"github.com/dalemusser/shelterhub/internal/app/system/httpx"
	"github.com/dalemusser/shelterhub/internal/app/system/sheetimport"
	"github.com/dalemusser/shelterhub/internal/app/system/timeouts"
	"github.com/dalemusser/shelterhub/internal/domain/models"
	"go.uber.org/zap"
)

// maxImportBytes caps the uploaded spreadsheet.
const maxImportBytes = 10 << 20

// RowError reports why one spreadsheet line was not imported.
type RowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// ImportResult is the response body of Import.
type ImportResult struct {
	Imported int        `json:"imported"`
	Skipped  int        `json:"skipped"`
	Errors   []RowError `json:"errors"`
}

// Import handles POST /api/beneficiaries/import (multipart field "file",
// .xlsx or .csv).
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			httpx.Error(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		httpx.BadRequest(w, "No file provided")
		return
	}
	defer file.Close()

	table, err := sheetimport.ReadTable(file, header.Filename)
	if err != nil {
		switch {
		case errors.Is(err, sheetimport.ErrFormat):
			httpx.BadRequest(w, "Unsupported file format, use .xlsx or .csv")
		case errors.Is(err, sheetimport.ErrEmpty):
			httpx.BadRequest(w, "The file is empty")
		default:
			httpx.BadRequest(w, "Could not read the file")
		}
		return
	}
	rows, err := sheetimport.Rows(table)
	if err != nil {
		switch {
		case errors.Is(err, sheetimport.ErrNoHeader):
			httpx.BadRequest(w, "No header row with a name column was found")
		default:
			httpx.BadRequest(w, "The file has no data rows")
		}
		return
	}
	if len(rows) > h.ImportMaxRows {
		httpx.BadRequest(w, fmt.Sprintf("Too many rows (%d), the limit is %d", len(rows), h.ImportMaxRows))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "beneficiary import")
	defer cancel()

	res := ImportResult{Errors: []RowError{}}
	actor := authz.UserIDPtr(r)
	for _, row := range rows {
		b, reason := rowToBeneficiary(row)
		if reason != "" {
			res.Errors = append(res.Errors, RowError{Line: row.Line, Reason: reason})
			continue
		}
		dup, err := h.Store.ExistsForImport(ctx, b.NumeroDossier, b.Prenom, b.Nom, b.DateNaissance)
		if err != nil {
			h.Log.Error("import duplicate check failed", zap.Error(err), zap.Int("line", row.Line))
			res.Errors = append(res.Errors, RowError{Line: row.Line, Reason: "database error"})
			continue
		}
		if dup {
			res.Skipped++
			continue
		}
		b.CreatedBy = actor
		if _, err := h.Store.Create(ctx, b); err != nil {
			if errors.Is(err, beneficiarystore.ErrDuplicateDossier) {
				res.Skipped++
				continue
			}
			h.Log.Error("import insert failed", zap.Error(err), zap.Int("line", row.Line))
			res.Errors = append(res.Errors, RowError{Line: row.Line, Reason: "database error"})
			continue
		}
		res.Imported++
	}

	h.AuditLog.RecordEvent(ctx, r, audit.EventBeneficiaryImport, authz.UserID(r), authz.UserID(r), map[string]string{
		"file":     header.Filename,
		"imported": strconv.Itoa(res.Imported),
		"skipped":  strconv.Itoa(res.Skipped),
		"errors":   strconv.Itoa(len(res.Errors)),
	})
	h.Log.Info("beneficiary import finished",
		zap.String("file", header.Filename),
		zap.Int("imported", res.Imported),
		zap.Int("skipped", res.Skipped),
		zap.Int("errors", len(res.Errors)))
	httpx.OK(w, res)
}

// rowToBeneficiary maps a spreadsheet row. A non-empty reason means the row
// is rejected.
func rowToBeneficiary(row sheetimport.Row) (models.Beneficiary, string) {
	nom := row.Get(sheetimport.FieldNom)
	prenom := row.Get(sheetimport.FieldPrenom)
	if nom == "" && prenom == "" {
		prenom, nom = splitFullName(row.Get(sheetimport.FieldNomComplet))
	}
	if nom == "" && prenom == "" {
		return models.Beneficiary{}, "missing name"
	}
	// A single-word name fills both fields so the record stays searchable.
	if nom == "" {
		nom = prenom
	}
	if prenom == "" {
		prenom = nom
	}

	b := models.Beneficiary{
		NumeroDossier:      row.Get(sheetimport.FieldNumeroDossier),
		Nom:                nom,
		Prenom:             prenom,
		Sexe:               sheetimport.NormalizeSexe(row.Get(sheetimport.FieldSexe)),
		LieuNaissance:      row.Get(sheetimport.FieldLieuNaissance),
		CIN:                row.Get(sheetimport.FieldCIN),
		Telephone:          row.Get(sheetimport.FieldTelephone),
		AdresseOrigine:     row.Get(sheetimport.FieldAdresseOrigine),
		SituationType:      sheetimport.NormalizeSituationType(row.Get(sheetimport.FieldSituationType)),
		SituationFamiliale: sheetimport.NormalizeSituationFamiliale(row.Get(sheetimport.FieldSituationFamiliale)),
		Observations:       row.Get(sheetimport.FieldObservations),
	}
	// An empty outcome stays empty so the record gets the en_cours default.
	if v := row.Get(sheetimport.FieldMaBaadAlIwaa); v != "" {
		b.MaBaadAlIwaa = sheetimport.NormalizeIssue(v)
	}
	b.DateNaissance = optionalDate(row.Get(sheetimport.FieldDateNaissance))
	if d := optionalDate(row.Get(sheetimport.FieldDateEntree)); d != nil {
		b.DateEntree = *d
	}
	if d := optionalDate(row.Get(sheetimport.FieldDateSortie)); d != nil {
		b.DateSortie = d
		b.Statut = models.BeneficiarySorti
	}
	return b, ""
}

// splitFullName takes the first word as prenom and the rest as nom.
func splitFullName(full string) (prenom, nom string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}

func optionalDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, ok := sheetimport.ParseDate(s)
	if !ok {
		return nil
	}
	return &t
}
