package stockstatus

import (
	"testing"
	"time"

	"github.com/dalemusser/shelterhub/internal/domain/models"
)

func TestDerive(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	today := now.Add(-12 * time.Hour) // midnight of the same day
	tomorrow := now.Add(24 * time.Hour)
	nextMonth := now.AddDate(0, 1, 0)

	tests := []struct {
		name     string
		quantite float64
		seuil    float64
		exp      *time.Time
		want     string
	}{
		{"plenty, no expiration", 100, 10, nil, models.StockDisponible},
		{"just above low band", 15.5, 10, nil, models.StockDisponible},
		{"on low boundary", 15, 10, nil, models.StockFaible},
		{"inside low band", 12, 10, nil, models.StockFaible},
		{"on critical boundary", 10, 10, nil, models.StockCritique},
		{"below critical", 3, 10, nil, models.StockCritique},
		{"empty", 0, 10, nil, models.StockCritique},
		{"zero threshold, zero qty", 0, 0, nil, models.StockCritique},
		{"zero threshold, some qty", 1, 0, nil, models.StockDisponible},
		{"expired wins over plenty", 100, 10, &past, models.StockExpire},
		{"expires today", 100, 10, &today, models.StockExpire},
		{"expired wins over critical", 0, 10, &past, models.StockExpire},
		{"expires tomorrow is not expired", 100, 10, &tomorrow, models.StockDisponible},
		{"future expiration, critical", 2, 10, &nextMonth, models.StockCritique},
		{"zero expiration is ignored", 100, 10, &time.Time{}, models.StockDisponible},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Derive(tt.quantite, tt.seuil, tt.exp, now)
			if got != tt.want {
				t.Errorf("Derive(%v, %v, %v) = %q, want %q", tt.quantite, tt.seuil, tt.exp, got, tt.want)
			}
		})
	}
}

func TestDaysUntil(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		exp  time.Time
		want int
	}{
		{now, 0},
		{now.Add(time.Minute), 1},
		{now.Add(24 * time.Hour), 1},
		{now.Add(25 * time.Hour), 2},
		{now.Add(-time.Minute), 0},
		{now.Add(-48 * time.Hour), -2},
	}
	for _, tt := range tests {
		if got := DaysUntil(tt.exp, now); got != tt.want {
			t.Errorf("DaysUntil(%v) = %d, want %d", tt.exp, got, tt.want)
		}
	}
}

func TestExpiringWithin(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	in3 := now.AddDate(0, 0, 3)
	in10 := now.AddDate(0, 0, 10)
	past := now.AddDate(0, 0, -1)

	if !ExpiringWithin(&in3, now, 7) {
		t.Error("expected item expiring in 3 days to be within 7")
	}
	if ExpiringWithin(&in10, now, 7) {
		t.Error("expected item expiring in 10 days to be outside 7")
	}
	if ExpiringWithin(&past, now, 7) {
		t.Error("already expired items are not 'expiring'")
	}
	if ExpiringWithin(nil, now, 7) {
		t.Error("nil expiration is never expiring")
	}
}
