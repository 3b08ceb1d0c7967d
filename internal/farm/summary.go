package farm

import (
	"time"

	"github.com/erazemk/agrogestor/internal/model"
)

// Summary holds the dashboard counters of a document.
type Summary struct {
	Items            int             `json:"itens"`
	Alerts           int             `json:"alertas"`
	Animals          int             `json:"animais"`
	Weighings        int             `json:"pesagens"`
	OpenOrders       int             `json:"osAbertas"`
	OpenOrdersToday  int             `json:"osAbertasHoje"`
	InProgressOrders int             `json:"osEmAndamento"`
	FinishedOrders   int             `json:"osFinalizadas"`
	LastMovement     *model.Movement `json:"ultimaMovimentacao,omitempty"`
	LastUpdated      time.Time       `json:"ultimaAtualizacao"`
}

// Summarize computes the dashboard counters. "Today" is the calendar day of
// now in now's location.
func Summarize(doc model.Document, now time.Time) Summary {
	sum := Summary{
		Items:       len(doc.Inventory),
		Alerts:      len(Alerts(doc)),
		Animals:     len(doc.Animals),
		Weighings:   len(doc.Weighings),
		LastUpdated: doc.Meta.LastUpdated,
	}

	y, m, d := now.Date()
	for _, o := range doc.WorkOrders {
		switch o.Status {
		case model.StatusOpen:
			sum.OpenOrders++
			cy, cm, cd := o.CreatedAt.In(now.Location()).Date()
			if cy == y && cm == m && cd == d {
				sum.OpenOrdersToday++
			}
		case model.StatusInProgress:
			sum.InProgressOrders++
		case model.StatusFinished:
			sum.FinishedOrders++
		}
	}

	for i := range doc.Movements {
		mov := doc.Movements[i]
		if sum.LastMovement == nil || mov.CreatedAt.After(sum.LastMovement.CreatedAt) {
			sum.LastMovement = &mov
		}
	}
	return sum
}
