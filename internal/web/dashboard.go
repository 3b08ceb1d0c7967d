package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/erazemk/agrogestor/internal/farm"
	"github.com/erazemk/agrogestor/internal/model"
)

// recentLimit caps the history tables on each page.
const recentLimit = 20

// recent returns the first n entries; collections are kept newest-first.
func recent[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}

// formNumber reads a decimal form value, accepting a decimal comma. Blank or
// malformed input reads as zero.
func formNumber(r *http.Request, key string) float64 {
	v := strings.Replace(strings.TrimSpace(r.FormValue(key)), ",", ".", 1)
	return model.Finite(strconv.ParseFloat(v, 64))
}

// Dashboard handles GET /.
func (s *Server) Dashboard(w http.ResponseWriter, r *http.Request) {
	doc := s.Farm.Load(r.Context())

	s.Templates.Render(w, "dashboard.html", &struct {
		PageData
		Summary         farm.Summary
		Alerts          []model.InventoryItem
		RecentMovements []model.Movement
		OpenOrders      []model.WorkOrder
	}{
		PageData:        s.page(r, "Painel"),
		Summary:         farm.Summarize(doc, s.now()),
		Alerts:          farm.Alerts(doc),
		RecentMovements: recent(doc.Movements, 5),
		OpenOrders:      openOrders(doc),
	})
}

func openOrders(doc model.Document) []model.WorkOrder {
	var out []model.WorkOrder
	for _, o := range doc.WorkOrders {
		if o.Status != model.StatusFinished {
			out = append(out, o)
		}
	}
	return recent(out, 5)
}
