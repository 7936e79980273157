package sheetimport

import (
	"regexp"
	"strings"

	"github.com/dalemusser/shelterhub/internal/domain/models"
)

type rule struct {
	re    *regexp.Regexp
	value string
}

func rules(pairs ...string) []rule {
	out := make([]rule, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, rule{re: regexp.MustCompile(pairs[i]), value: pairs[i+1]})
	}
	return out
}

// Rules run against the folded cell text, first match wins.
var (
	sexeRules = rules(
		`^(h|m)$|homme|masculin|^male$|garcon|ذكر|رجل`, models.SexeHomme,
		`^f$|femme|feminin|female|fille|انثى|أنثى|امرأة|امراة`, models.SexeFemme,
	)
	situationTypeRules = rules(
		`sans.?abri|sdf|sans domicile|homeless|بدون ماوى|بدون مأوى|متشرد`, models.SituationSansAbri,
		`errance|errant|wander|تيه|التيه`, models.SituationErrance,
		`mendi|beggar|begging|تسول|متسول`, models.SituationMendicite,
		`abandon|rejet familial|abandoned|تخلي|مهمل|طرد`, models.SituationAbandonFamilial,
		`violence|maltrait|abuse|عنف`, models.SituationViolence,
	)
	situationFamilialeRules = rules(
		`celibat|single|عازب|عزباء`, models.FamilleCelibataire,
		`divorc|مطلق`, models.FamilleDivorce,
		`veu|widow|ارمل|أرمل`, models.FamilleVeuf,
		`mari|married|متزوج`, models.FamilleMarie,
	)
	issueRules = rules(
		`reintegr|retour.*famil|family reunification|ادماج اسري|إدماج أسري|عودة`, models.IssueReintegrationFamiliale,
		`insertion|emploi|travail|employment|ادماج مهني|إدماج مهني|شغل`, models.IssueInsertionProfessionnelle,
		`transf|orient|نقل|تحويل`, models.IssueTransfert,
		`autonom|logement|independent|سكن مستقل`, models.IssueHebergementAutonome,
		`deces|decede|death|died|وفاة|توفي`, models.IssueDeces,
		`fugue|evade|disparu|ran away|هروب|فرار`, models.IssueFugue,
		`en cours|encours|pending|ongoing|قيد|جاري`, models.IssueEnCours,
	)
)

func normalize(s string, table []rule, allowed []string, def string) string {
	v := strings.TrimSpace(fold(s))
	if v == "" {
		return def
	}
	// Already canonical (e.g. a re-import of an export).
	for _, a := range allowed {
		if v == a {
			return a
		}
	}
	for _, r := range table {
		if r.re.MatchString(v) {
			return r.value
		}
	}
	return def
}

// NormalizeSexe maps free text to a sexe value, defaulting to non_precise.
func NormalizeSexe(s string) string {
	return normalize(s, sexeRules, models.Sexes, models.SexeNonPrecise)
}

// NormalizeSituationType defaults to autre.
func NormalizeSituationType(s string) string {
	return normalize(s, situationTypeRules, models.SituationTypes, models.SituationAutre)
}

// NormalizeSituationFamiliale defaults to autre.
func NormalizeSituationFamiliale(s string) string {
	return normalize(s, situationFamilialeRules, models.SituationsFamiliales, models.FamilleAutre)
}

// NormalizeIssue maps the "after shelter" outcome, defaulting to autre.
func NormalizeIssue(s string) string {
	return normalize(s, issueRules, models.Issues, models.IssueAutre)
}
