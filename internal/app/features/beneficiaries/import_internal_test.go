package beneficiaries

import (
	"testing"

	"github.com/dalemusser/shelterhub/internal/app/system/sheetimport"
	"github.com/dalemusser/shelterhub/internal/domain/models"
)

func TestSplitFullName(t *testing.T) {
	tests := []struct {
		in, prenom, nom string
	}{
		{"", "", ""},
		{"Youssef", "Youssef", ""},
		{"Youssef El Amrani", "Youssef", "El Amrani"},
		{"  Khadija   Tazi ", "Khadija", "Tazi"},
	}
	for _, tt := range tests {
		p, n := splitFullName(tt.in)
		if p != tt.prenom || n != tt.nom {
			t.Errorf("splitFullName(%q) = (%q, %q), want (%q, %q)", tt.in, p, n, tt.prenom, tt.nom)
		}
	}
}

func TestRowToBeneficiary(t *testing.T) {
	row := sheetimport.Row{Line: 2, Values: map[string]string{
		sheetimport.FieldNom:          "Tazi",
		sheetimport.FieldSexe:         "Femme",
		sheetimport.FieldDateSortie:   "2025-11-02",
		sheetimport.FieldMaBaadAlIwaa: "retour en famille",
	}}
	b, reason := rowToBeneficiary(row)
	if reason != "" {
		t.Fatalf("reason = %q", reason)
	}
	if b.Prenom != "Tazi" || b.Nom != "Tazi" {
		t.Errorf("names = %q %q", b.Prenom, b.Nom)
	}
	if b.Sexe != models.SexeFemme || b.Statut != models.BeneficiarySorti || b.DateSortie == nil {
		t.Errorf("b = %+v", b)
	}
	if b.MaBaadAlIwaa != models.IssueReintegrationFamiliale {
		t.Errorf("maBaadAlIwaa = %q", b.MaBaadAlIwaa)
	}

	_, reason = rowToBeneficiary(sheetimport.Row{Line: 3, Values: map[string]string{sheetimport.FieldSexe: "H"}})
	if reason == "" {
		t.Error("row without a name was accepted")
	}
}
