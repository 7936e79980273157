package beneficiarystore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// Age brackets, by lower bound in years.
var ageBoundaries = []int{0, 18, 26, 41, 61, 150}

// AgeLabels names each bracket; AgeUnknown collects records without a
// usable birth date.
var AgeLabels = map[int]string{0: "0-17", 18: "18-25", 26: "26-40", 41: "41-60", 61: "61+"}

const AgeUnknown = "inconnu"

// Stats is the breakdown returned by the stats and report endpoints.
type Stats struct {
	Total           int64            `json:"total"`
	ByStatut        map[string]int64 `json:"byStatut"`
	BySexe          map[string]int64 `json:"bySexe"`
	BySituationType map[string]int64 `json:"bySituationType"`
	ByMaBaadAlIwaa  map[string]int64 `json:"byMaBaadAlIwaa"`
	ByAge           map[string]int64 `json:"byAge"`
}

type bucket struct {
	ID    any   `bson:"_id"`
	Count int64 `bson:"count"`
}

func groupBy(field string) bson.A {
	return bson.A{
		bson.M{"$group": bson.M{"_id": "$" + field, "count": bson.M{"$sum": 1}}},
	}
}

// Stats aggregates every beneficiary in one $facet pass. Ages are computed
// against now.
func (s *Store) Stats(ctx context.Context, now time.Time) (Stats, error) {
	const msPerYear = 365.25 * 24 * 3600 * 1000

	pipeline := bson.A{
		bson.M{"$facet": bson.M{
			"total":         bson.A{bson.M{"$count": "count"}},
			"statut":        groupBy("statut"),
			"sexe":          groupBy("sexe"),
			"situationType": groupBy("situationType"),
			"maBaadAlIwaa":  groupBy("maBaadAlIwaa"),
			"age": bson.A{
				bson.M{"$project": bson.M{"age": bson.M{"$cond": bson.A{
					bson.M{"$eq": bson.A{bson.M{"$type": "$dateNaissance"}, "date"}},
					bson.M{"$divide": bson.A{bson.M{"$subtract": bson.A{now, "$dateNaissance"}}, msPerYear}},
					nil,
				}}}},
				bson.M{"$bucket": bson.M{
					"groupBy":    "$age",
					"boundaries": ageBoundaries,
					"default":    AgeUnknown,
					"output":     bson.M{"count": bson.M{"$sum": 1}},
				}},
			},
		}},
	}

	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return Stats{}, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		Total         []bucket `bson:"total"`
		Statut        []bucket `bson:"statut"`
		Sexe          []bucket `bson:"sexe"`
		SituationType []bucket `bson:"situationType"`
		MaBaadAlIwaa  []bucket `bson:"maBaadAlIwaa"`
		Age           []bucket `bson:"age"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return Stats{}, err
	}

	out := Stats{
		ByStatut:        map[string]int64{},
		BySexe:          map[string]int64{},
		BySituationType: map[string]int64{},
		ByMaBaadAlIwaa:  map[string]int64{},
		ByAge:           map[string]int64{},
	}
	if len(rows) == 0 {
		return out, nil
	}
	r := rows[0]
	if len(r.Total) > 0 {
		out.Total = r.Total[0].Count
	}
	fill(out.ByStatut, r.Statut)
	fill(out.BySexe, r.Sexe)
	fill(out.BySituationType, r.SituationType)
	fill(out.ByMaBaadAlIwaa, r.MaBaadAlIwaa)
	for _, b := range r.Age {
		out.ByAge[ageLabel(b.ID)] += b.Count
	}
	return out, nil
}

func fill(dst map[string]int64, rows []bucket) {
	for _, b := range rows {
		key, _ := b.ID.(string)
		if key == "" {
			key = AgeUnknown
		}
		dst[key] += b.Count
	}
}

func ageLabel(id any) string {
	var lower int
	switch v := id.(type) {
	case int32:
		lower = int(v)
	case int64:
		lower = int(v)
	case float64:
		lower = int(v)
	default:
		return AgeUnknown
	}
	if l, ok := AgeLabels[lower]; ok {
		return l
	}
	return AgeUnknown
}
