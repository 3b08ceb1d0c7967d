package farm

import (
	"context"
	"strings"
	"time"

	"github.com/erazemk/agrogestor/internal/model"
)

// AddWorkOrder prepends an open work order. Empty title or responsible is
// ignored.
func (s *Store) AddWorkOrder(ctx context.Context, title, responsible string) (model.Document, error) {
	return s.mutate(ctx, "add_work_order", func(doc *model.Document, now time.Time) (bool, error) {
		title = strings.TrimSpace(title)
		responsible = strings.TrimSpace(responsible)
		if title == "" || responsible == "" {
			return false, nil
		}
		o := model.WorkOrder{
			ID:          s.newID(model.PrefixWorkOrder),
			Title:       title,
			Responsible: responsible,
			Status:      model.StatusOpen,
			CreatedAt:   now.UTC(),
		}
		doc.WorkOrders = append([]model.WorkOrder{o}, doc.WorkOrders...)
		return true, nil
	})
}

// UpdateWorkOrderStatus moves a work order to status. Any status may follow
// any other; unknown orders and statuses are ignored.
func (s *Store) UpdateWorkOrderStatus(ctx context.Context, id string, status model.WorkOrderStatus) (model.Document, error) {
	return s.mutate(ctx, "update_work_order_status", func(doc *model.Document, now time.Time) (bool, error) {
		if !status.Valid() {
			return false, nil
		}
		i := doc.FindWorkOrder(strings.TrimSpace(id))
		if i < 0 {
			return false, nil
		}
		doc.WorkOrders[i].SetStatus(status, now)
		return true, nil
	})
}

// StartWorkOrder moves a work order to EM_ANDAMENTO.
func (s *Store) StartWorkOrder(ctx context.Context, id string) (model.Document, error) {
	return s.UpdateWorkOrderStatus(ctx, id, model.StatusInProgress)
}

// FinishWorkOrder moves a work order to FINALIZADA.
func (s *Store) FinishWorkOrder(ctx context.Context, id string) (model.Document, error) {
	return s.UpdateWorkOrderStatus(ctx, id, model.StatusFinished)
}

// ReopenWorkOrder moves a work order back to ABERTA.
func (s *Store) ReopenWorkOrder(ctx context.Context, id string) (model.Document, error) {
	return s.UpdateWorkOrderStatus(ctx, id, model.StatusOpen)
}

// DeleteWorkOrder removes a work order.
func (s *Store) DeleteWorkOrder(ctx context.Context, id string) (model.Document, error) {
	return s.mutate(ctx, "delete_work_order", func(doc *model.Document, _ time.Time) (bool, error) {
		i := doc.FindWorkOrder(strings.TrimSpace(id))
		if i < 0 {
			return false, nil
		}
		doc.WorkOrders = append(doc.WorkOrders[:i:i], doc.WorkOrders[i+1:]...)
		return true, nil
	})
}
