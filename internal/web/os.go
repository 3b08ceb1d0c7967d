package web

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/agrogestor/internal/model"
)

// OSPage handles GET /os.
func (s *Server) OSPage(w http.ResponseWriter, r *http.Request) {
	doc := s.Farm.Load(r.Context())

	s.Templates.Render(w, "os.html", &struct {
		PageData
		Orders []model.WorkOrder
	}{
		PageData: s.page(r, "Ordens de serviço"),
		Orders:   doc.WorkOrders,
	})
}

// WorkOrderCreateSubmit handles POST /os.
func (s *Server) WorkOrderCreateSubmit(w http.ResponseWriter, r *http.Request) {
	if _, err := s.Farm.AddWorkOrder(r.Context(), r.FormValue("title"), r.FormValue("responsible")); err != nil {
		slog.Error("failed to create work order", "error", err)
	}
	http.Redirect(w, r, "/os", http.StatusSeeOther)
}

// WorkOrderStatusSubmit handles POST /os/{id}/status.
func (s *Server) WorkOrderStatusSubmit(w http.ResponseWriter, r *http.Request) {
	status := model.WorkOrderStatus(r.FormValue("status"))
	if _, err := s.Farm.UpdateWorkOrderStatus(r.Context(), r.PathValue("id"), status); err != nil {
		slog.Error("failed to update work order", "error", err)
	}
	http.Redirect(w, r, "/os", http.StatusSeeOther)
}

// WorkOrderTransitionSubmit handles POST /os/{id}/{action} for the
// iniciar, finalizar and reabrir buttons.
func (s *Server) WorkOrderTransitionSubmit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var err error
	switch r.PathValue("action") {
	case "iniciar":
		_, err = s.Farm.StartWorkOrder(r.Context(), id)
	case "finalizar":
		_, err = s.Farm.FinishWorkOrder(r.Context(), id)
	case "reabrir":
		_, err = s.Farm.ReopenWorkOrder(r.Context(), id)
	default:
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.Error("failed to update work order", "error", err)
	}
	http.Redirect(w, r, "/os", http.StatusSeeOther)
}

// WorkOrderDeleteSubmit handles POST /os/{id}/excluir (manager+).
func (s *Server) WorkOrderDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	if !requireRole(w, r, model.RoleManager) {
		return
	}

	id := r.PathValue("id")
	if _, err := s.Farm.DeleteWorkOrder(r.Context(), id); err != nil {
		slog.Error("failed to delete work order", "error", err)
	} else {
		slog.Info("work order deleted", "user", GetWebClaims(r.Context()).Email, "order", id)
	}
	http.Redirect(w, r, "/os", http.StatusSeeOther)
}
