package sheetimport

import (
	"strings"
	"unicode"
)

// Canonical field names produced by MapHeaders.
const (
	FieldNumeroDossier      = "numeroDossier"
	FieldNom                = "nom"
	FieldPrenom             = "prenom"
	FieldNomComplet         = "nomComplet"
	FieldSexe               = "sexe"
	FieldDateNaissance      = "dateNaissance"
	FieldLieuNaissance      = "lieuNaissance"
	FieldCIN                = "cin"
	FieldTelephone          = "telephone"
	FieldAdresseOrigine     = "adresseOrigine"
	FieldDateEntree         = "dateEntree"
	FieldDateSortie         = "dateSortie"
	FieldSituationType      = "situationType"
	FieldSituationFamiliale = "situationFamiliale"
	FieldMaBaadAlIwaa       = "maBaadAlIwaa"
	FieldObservations       = "observations"
)

// headerVariants lists accepted spellings per field. Entries are compared
// after headerKey normalization, so accents, case and punctuation do not matter.
var headerVariants = map[string][]string{
	FieldNumeroDossier:      {"numero dossier", "n dossier", "no dossier", "num dossier", "dossier", "numero", "n°", "file number", "رقم الملف", "الرقم"},
	FieldNom:                {"nom", "nom de famille", "last name", "surname", "family name", "النسب", "الاسم العائلي"},
	FieldPrenom:             {"prenom", "first name", "given name", "الاسم الشخصي", "الاسم"},
	FieldNomComplet:         {"nom complet", "nom et prenom", "nom prenom", "full name", "name", "الاسم الكامل", "الاسم والنسب"},
	FieldSexe:               {"sexe", "genre", "sex", "gender", "الجنس"},
	FieldDateNaissance:      {"date de naissance", "date naissance", "ne le", "date of birth", "birth date", "dob", "تاريخ الازدياد", "تاريخ الميلاد"},
	FieldLieuNaissance:      {"lieu de naissance", "lieu naissance", "place of birth", "مكان الازدياد", "مكان الميلاد"},
	FieldCIN:                {"cin", "cni", "carte nationale", "numero cin", "id card", "national id", "رقم البطاقة الوطنية", "البطاقة الوطنية"},
	FieldTelephone:          {"telephone", "tel", "gsm", "phone", "mobile", "الهاتف", "رقم الهاتف"},
	FieldAdresseOrigine:     {"adresse", "adresse origine", "adresse d origine", "origine", "ville d origine", "address", "origin", "العنوان", "الأصل", "العنوان الأصلي"},
	FieldDateEntree:         {"date entree", "date d entree", "date d admission", "date admission", "entree", "admission date", "entry date", "تاريخ الدخول", "تاريخ الإيواء"},
	FieldDateSortie:         {"date sortie", "date de sortie", "sortie", "exit date", "تاريخ الخروج", "تاريخ المغادرة"},
	FieldSituationType:      {"situation", "type de situation", "situation type", "motif d admission", "cas", "الوضعية", "نوع الحالة", "الحالة"},
	FieldSituationFamiliale: {"situation familiale", "etat civil", "marital status", "الحالة العائلية", "الحالة الاجتماعية"},
	FieldMaBaadAlIwaa:       {"ma baad al iwaa", "mabaad al iwaa", "apres hebergement", "apres l hebergement", "issue", "devenir", "outcome", "ما بعد الإيواء", "مابعد الايواء"},
	FieldObservations:       {"observations", "observation", "remarques", "notes", "commentaire", "ملاحظات"},
}

var headerIndex = buildHeaderIndex()

func buildHeaderIndex() map[string]string {
	idx := map[string]string{}
	for field, variants := range headerVariants {
		for _, v := range append([]string{field}, variants...) {
			if k := headerKey(v); k != "" {
				idx[k] = field
			}
		}
	}
	return idx
}

// headerKey folds case and Latin diacritics, unifies Arabic alef and
// teh-marbuta forms, and drops everything that is not a letter or digit.
func headerKey(s string) string {
	s = fold(s)
	var b strings.Builder
	for _, r := range s {
		switch r {
		case 'أ', 'إ', 'آ':
			r = 'ا'
		case 'ة':
			r = 'ه'
		case 'ى':
			r = 'ي'
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// MapHeaders maps column index to canonical field. Unknown columns are
// skipped; when two columns map to the same field the first wins.
func MapHeaders(header []string) map[int]string {
	out := map[int]string{}
	seen := map[string]bool{}
	for i, h := range header {
		key := headerKey(h)
		if key == "" {
			continue
		}
		field, ok := headerIndex[key]
		if !ok || seen[field] {
			continue
		}
		seen[field] = true
		out[i] = field
	}
	return out
}
