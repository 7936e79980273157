// Package stockstatus derives the statut of a stock line (food or pharmacy)
// from its quantity, critical threshold and expiration date.
package stockstatus

import (
	"math"
	"time"

	"github.com/dalemusser/shelterhub/internal/domain/models"
)

// LowFactor is the multiple of the critical threshold under which a line
// is reported as faible.
const LowFactor = 1.5

// DaysUntil returns the number of whole days from now until exp, rounded up
// the same way a calendar countdown would be. A negative result means the
// date has passed.
func DaysUntil(exp, now time.Time) int {
	return int(math.Ceil(exp.Sub(now).Hours() / 24))
}

// Derive computes the statut. Rules, first match wins:
//
//	expire     expiration set and days until expiration <= 0
//	critique   quantite <= seuil
//	faible     quantite <= 1.5 * seuil
//	disponible otherwise
func Derive(quantite, seuil float64, exp *time.Time, now time.Time) string {
	if exp != nil && !exp.IsZero() && DaysUntil(*exp, now) <= 0 {
		return models.StockExpire
	}
	if quantite <= seuil {
		return models.StockCritique
	}
	if quantite <= LowFactor*seuil {
		return models.StockFaible
	}
	return models.StockDisponible
}

// ExpiringWithin reports whether exp falls in (now, now+days].
func ExpiringWithin(exp *time.Time, now time.Time, days int) bool {
	if exp == nil || exp.IsZero() {
		return false
	}
	d := DaysUntil(*exp, now)
	return d > 0 && d <= days
}
