package beneficiaries_test

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dalemusser/shelterhub/internal/app/features/beneficiaries"
	"github.com/dalemusser/shelterhub/internal/app/system/indexes"
	"github.com/dalemusser/shelterhub/internal/app/system/uploads"
	"github.com/dalemusser/shelterhub/internal/domain/models"
	"github.com/dalemusser/shelterhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*beneficiaries.Handler, *mongo.Database, string) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	root := t.TempDir()
	files, err := uploads.NewLocal(root, "/uploads", 1<<20)
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	return beneficiaries.NewHandler(db, files, nil, 0, zap.NewNop()), db, root
}

func TestCreateGetUpdate(t *testing.T) {
	h, db, _ := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	worker := testutil.AsTestUser(fixtures.CreateUser(ctx, "Salma", "Berrada", "salma@shelter.test", models.RoleSocialWorker))

	rec := testutil.NewRecorder()
	h.Create(rec, testutil.NewJSONRequest(t, "POST", "/api/beneficiaries", map[string]any{
		"nom": "el amrani", "prenom": "youssef", "sexe": "homme", "dateNaissance": "12/04/1980",
	}, worker))
	rec.AssertStatus(t, http.StatusCreated)
	var created models.Beneficiary
	rec.Decode(t, &created)
	if !strings.HasPrefix(created.NumeroDossier, "BEN-") {
		t.Errorf("numeroDossier = %q, want generated BEN-", created.NumeroDossier)
	}
	if created.Statut != models.BeneficiaryActif || created.SituationType != models.SituationAutre {
		t.Errorf("defaults not applied: %+v", created)
	}
	if created.DateNaissance == nil || created.DateNaissance.Year() != 1980 {
		t.Errorf("dateNaissance = %v", created.DateNaissance)
	}

	rec = testutil.NewRecorder()
	req := testutil.NewAuthenticatedRequest("GET", "/api/beneficiaries/x", worker)
	h.Get(rec, testutil.WithChiURLParam(req, "id", created.ID.Hex()))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"prenom":"Salma"`)

	rec = testutil.NewRecorder()
	req = testutil.NewJSONRequest(t, "PUT", "/api/beneficiaries/x", map[string]any{
		"nom": "El Amrani", "prenom": "Youssef", "statut": "sorti", "maBaadAlIwaa": "reintegration_familiale",
	}, worker)
	h.Update(rec, testutil.WithChiURLParam(req, "id", created.ID.Hex()))
	rec.AssertStatus(t, http.StatusOK)
	var updated models.Beneficiary
	rec.Decode(t, &updated)
	if updated.NumeroDossier != created.NumeroDossier {
		t.Errorf("numeroDossier changed to %q", updated.NumeroDossier)
	}
	if updated.Statut != models.BeneficiarySorti || updated.MaBaadAlIwaa != models.IssueReintegrationFamiliale {
		t.Errorf("update not applied: %+v", updated)
	}
}

func TestCreate_Rejects(t *testing.T) {
	h, db, _ := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fixtures.CreateBeneficiary(ctx, "BEN-2026-00001", "Hamid", "Saidi")
	user := testutil.SocialWorkerUser()

	rec := testutil.NewRecorder()
	h.Create(rec, testutil.NewJSONRequest(t, "POST", "/api/beneficiaries", map[string]any{
		"numeroDossier": "BEN-2026-00001", "nom": "Other", "prenom": "Person",
	}, user))
	rec.AssertStatus(t, http.StatusConflict)

	rec = testutil.NewRecorder()
	h.Create(rec, testutil.NewJSONRequest(t, "POST", "/api/beneficiaries", map[string]any{
		"nom": "X", "prenom": " ", "sexe": "robot",
	}, user))
	rec.AssertStatus(t, http.StatusBadRequest)
	env := rec.Decode(t, nil)
	for _, f := range []string{"prenom", "sexe"} {
		if _, ok := env.Errors[f]; !ok {
			t.Errorf("errors = %v, want %s", env.Errors, f)
		}
	}
}

func TestList(t *testing.T) {
	h, db, _ := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fixtures.CreateBeneficiary(ctx, "BEN-2026-00001", "Hamid", "Saidi")
	fixtures.CreateBeneficiary(ctx, "BEN-2026-00002", "Fatima", "Zahraoui")
	b := fixtures.CreateBeneficiary(ctx, "BEN-2026-00003", "Hassan", "Ouali")
	if _, err := db.Collection("beneficiaries").UpdateByID(ctx, b.ID, bson.M{"$set": bson.M{"statut": models.BeneficiarySorti}}); err != nil {
		t.Fatalf("set statut: %v", err)
	}

	tests := []struct {
		target string
		want   int64
	}{
		{"/api/beneficiaries", 3},
		{"/api/beneficiaries?search=ha", 2},
		{"/api/beneficiaries?statut=sorti", 1},
		{"/api/beneficiaries?search=BEN-2026-00002", 1},
		{"/api/beneficiaries?limit=2&sort=-numeroDossier", 3},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := testutil.NewRecorder()
			h.List(rec, testutil.NewAuthenticatedRequest("GET", tt.target, testutil.StaffUser()))
			rec.AssertStatus(t, http.StatusOK)
			env := rec.Decode(t, nil)
			if env.Pagination == nil || env.Pagination.Total != tt.want {
				t.Errorf("pagination = %+v, want total %d", env.Pagination, tt.want)
			}
		})
	}
}

func TestDelete_Cascades(t *testing.T) {
	h, db, _ := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	b := fixtures.CreateBeneficiary(ctx, "BEN-2026-00001", "Hamid", "Saidi")
	fixtures.CreateExitLog(ctx, b.ID)

	rec := testutil.NewRecorder()
	req := testutil.NewAuthenticatedRequest("DELETE", "/api/beneficiaries/x", testutil.ManagerUser())
	h.Delete(rec, testutil.WithChiURLParam(req, "id", b.ID.Hex()))
	rec.AssertStatus(t, http.StatusOK)

	n, err := db.Collection("exit_logs").CountDocuments(ctx, bson.M{"beneficiaire": b.ID})
	if err != nil || n != 0 {
		t.Errorf("exit logs left = %d (%v), want 0", n, err)
	}

	rec = testutil.NewRecorder()
	req = testutil.NewAuthenticatedRequest("DELETE", "/api/beneficiaries/x", testutil.ManagerUser())
	h.Delete(rec, testutil.WithChiURLParam(req, "id", b.ID.Hex()))
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestDocuments(t *testing.T) {
	h, db, root := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	b := fixtures.CreateBeneficiary(ctx, "BEN-2026-00001", "Hamid", "Saidi")
	user := testutil.SocialWorkerUser()

	pdf := testutil.FilePart{Field: "document", FileName: "cin scan.pdf", Content: []byte("%PDF-1.4\n%test document\n")}
	rec := testutil.NewRecorder()
	req := testutil.NewMultipartRequest(t, "POST", "/api/beneficiaries/x/documents", pdf, map[string]string{"nom": "CIN"}, user)
	h.UploadDocument(rec, testutil.WithChiURLParam(req, "id", b.ID.Hex()))
	rec.AssertStatus(t, http.StatusCreated)
	var doc models.Document
	rec.Decode(t, &doc)
	if doc.Nom != "CIN" || doc.Type != "application/pdf" || !strings.HasPrefix(doc.URL, "/uploads/documents/") {
		t.Fatalf("doc = %+v", doc)
	}
	stored := filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(doc.URL, "/uploads/")))
	if _, err := os.Stat(stored); err != nil {
		t.Fatalf("stored file missing: %v", err)
	}

	script := testutil.FilePart{Field: "document", FileName: "x.sh", Content: []byte("#!/bin/sh\necho hi\n")}
	rec = testutil.NewRecorder()
	req = testutil.NewMultipartRequest(t, "POST", "/api/beneficiaries/x/documents", script, nil, user)
	h.UploadDocument(rec, testutil.WithChiURLParam(req, "id", b.ID.Hex()))
	rec.AssertStatus(t, http.StatusBadRequest)

	rec = testutil.NewRecorder()
	req = testutil.NewAuthenticatedRequest("DELETE", "/api/beneficiaries/x/documents/y", user)
	req = testutil.WithChiURLParam(req, "id", b.ID.Hex())
	h.DeleteDocument(rec, testutil.WithChiURLParam(req, "docId", doc.ID.Hex()))
	rec.AssertStatus(t, http.StatusOK)
	if _, err := os.Stat(stored); !os.IsNotExist(err) {
		t.Errorf("stored file still present: %v", err)
	}

	rec = testutil.NewRecorder()
	req = testutil.NewAuthenticatedRequest("DELETE", "/api/beneficiaries/x/documents/y", user)
	req = testutil.WithChiURLParam(req, "id", b.ID.Hex())
	h.DeleteDocument(rec, testutil.WithChiURLParam(req, "docId", doc.ID.Hex()))
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestSuivi(t *testing.T) {
	h, db, _ := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	b := fixtures.CreateBeneficiary(ctx, "BEN-2026-00001", "Hamid", "Saidi")
	user := testutil.SocialWorkerUser()

	rec := testutil.NewRecorder()
	req := testutil.NewJSONRequest(t, "POST", "/api/beneficiaries/x/suivi", map[string]string{
		"date": "2026-03-10", "type": "entretien", "description": "Premier entretien",
	}, user)
	h.AddSuivi(rec, testutil.WithChiURLParam(req, "id", b.ID.Hex()))
	rec.AssertStatus(t, http.StatusCreated)
	var e models.SuiviEntry
	rec.Decode(t, &e)
	if e.Intervenant == nil || e.Intervenant.Hex() != user.ID {
		t.Errorf("intervenant = %v, want %s", e.Intervenant, user.ID)
	}

	rec = testutil.NewRecorder()
	req = testutil.NewJSONRequest(t, "PUT", "/api/beneficiaries/x/suivi/y", map[string]string{
		"type": "orientation", "description": "Orienté vers l'hôpital", "prochaineAction": "rappeler",
	}, user)
	req = testutil.WithChiURLParam(req, "id", b.ID.Hex())
	h.UpdateSuivi(rec, testutil.WithChiURLParam(req, "entryId", e.ID.Hex()))
	rec.AssertStatus(t, http.StatusOK)
	var got models.SuiviEntry
	rec.Decode(t, &got)
	if got.Type != "orientation" || got.Date.Day() != 10 {
		t.Errorf("updated entry = %+v", got)
	}

	rec = testutil.NewRecorder()
	req = testutil.NewAuthenticatedRequest("DELETE", "/api/beneficiaries/x/suivi/y", user)
	req = testutil.WithChiURLParam(req, "id", b.ID.Hex())
	h.DeleteSuivi(rec, testutil.WithChiURLParam(req, "entryId", e.ID.Hex()))
	rec.AssertStatus(t, http.StatusOK)
}

func TestImport(t *testing.T) {
	h, db, _ := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fixtures.CreateBeneficiary(ctx, "D-7", "Hamid", "Saidi")

	csv := strings.Join([]string{
		"Numero dossier;Nom et prénom;Sexe;Date de naissance;Situation",
		"D-1;Youssef El Amrani;M;12/04/1980;SDF",
		"D-2;Khadija Tazi;Femme;1975;violence conjugale",
		";;F;;",
		"D-7;Hamid Saidi;H;;",
		"D-1;Youssef El Amrani;M;12/04/1980;",
	}, "\n")
	file := testutil.FilePart{Field: "file", FileName: "residents.csv", Content: []byte(csv)}

	rec := testutil.NewRecorder()
	h.Import(rec, testutil.NewMultipartRequest(t, "POST", "/api/beneficiaries/import", file, nil, testutil.SocialWorkerUser()))
	rec.AssertStatus(t, http.StatusOK)
	var res beneficiaries.ImportResult
	rec.Decode(t, &res)
	if res.Imported != 2 || res.Skipped != 2 || len(res.Errors) != 1 {
		t.Fatalf("result = %+v, want 2 imported, 2 skipped, 1 error", res)
	}
	if res.Errors[0].Line != 4 {
		t.Errorf("error line = %d, want 4", res.Errors[0].Line)
	}

	var b models.Beneficiary
	if err := db.Collection("beneficiaries").FindOne(ctx, bson.M{"numeroDossier": "D-1"}).Decode(&b); err != nil {
		t.Fatalf("find imported: %v", err)
	}
	if b.Prenom != "Youssef" || b.Nom != "El Amrani" || b.SituationType != models.SituationSansAbri {
		t.Errorf("imported = %+v", b)
	}

	bad := testutil.FilePart{Field: "file", FileName: "residents.pdf", Content: []byte("%PDF")}
	rec = testutil.NewRecorder()
	h.Import(rec, testutil.NewMultipartRequest(t, "POST", "/api/beneficiaries/import", bad, nil, testutil.SocialWorkerUser()))
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestStats(t *testing.T) {
	h, db, _ := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fixtures.CreateBeneficiary(ctx, "BEN-2026-00001", "Hamid", "Saidi")

	rec := testutil.NewRecorder()
	h.Stats(rec, testutil.NewAuthenticatedRequest("GET", "/api/beneficiaries/stats", testutil.StaffUser()))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"actif":1`)
}
