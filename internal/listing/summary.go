package listing

import (
	"github.com/shopspring/decimal"

	"github.com/christopherklint97/mybtp/internal/btp"
)

// Summary is the dashboard digest of the current week and the pipeline.
type Summary struct {
	WeekHours decimal.Decimal
	WeekCost  decimal.Decimal

	ChantiersTotal  int
	ChantiersActive int
	DevisTotal      decimal.Decimal

	PistesTotal     int
	PistesQualified int
	PistesWon       int
	EstimatedTotal  decimal.Decimal
}

// Summarize totals server-provided values only; nothing is recomputed from
// slot times.
func Summarize(slots []btp.Slot, chantiers []btp.Chantier, pistes []btp.Piste) Summary {
	var s Summary
	for _, slot := range slots {
		s.WeekHours = s.WeekHours.Add(slot.Hours)
		s.WeekCost = s.WeekCost.Add(slot.Cost)
	}

	s.ChantiersTotal = len(chantiers)
	for _, c := range chantiers {
		if c.AvancementChantier < 100 {
			s.ChantiersActive++
		}
		s.DevisTotal = s.DevisTotal.Add(c.DevisHT)
	}

	s.PistesTotal = len(pistes)
	for _, p := range pistes {
		switch p.Statut {
		case "Qualifié", "Devis":
			s.PistesQualified++
		case "Gagné":
			s.PistesWon++
		}
		s.EstimatedTotal = s.EstimatedTotal.Add(p.MontantEstime)
	}
	return s
}
