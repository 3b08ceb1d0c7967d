package farm

import (
	"testing"
	"time"

	"github.com/erazemk/agrogestor/internal/model"
)

func TestSummarize(t *testing.T) {
	now := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour)

	doc := model.NewDocument(now)
	doc.Inventory = []model.InventoryItem{
		{ID: "est_1", Balance: 2, Minimum: 5},
		{ID: "est_2", Balance: 9, Minimum: 5},
	}
	doc.Movements = []model.Movement{
		{ID: "mov_old", ItemID: "est_1", CreatedAt: yesterday},
		{ID: "mov_new", ItemID: "est_2", CreatedAt: now.Add(-time.Hour)},
	}
	doc.Animals = []model.Animal{{ID: "ani_1", Tag: "1"}}
	doc.WorkOrders = []model.WorkOrder{
		{ID: "os_1", Status: model.StatusOpen, CreatedAt: now.Add(-2 * time.Hour)},
		{ID: "os_2", Status: model.StatusOpen, CreatedAt: yesterday},
		{ID: "os_3", Status: model.StatusInProgress, CreatedAt: now},
		{ID: "os_4", Status: model.StatusFinished, CreatedAt: now},
	}

	sum := Summarize(doc, now)
	if sum.Items != 2 || sum.Alerts != 1 || sum.Animals != 1 {
		t.Errorf("unexpected counts %+v", sum)
	}
	if sum.OpenOrders != 2 || sum.OpenOrdersToday != 1 {
		t.Errorf("expected 2 open, 1 today; got %d, %d", sum.OpenOrders, sum.OpenOrdersToday)
	}
	if sum.InProgressOrders != 1 || sum.FinishedOrders != 1 {
		t.Errorf("unexpected status counts %+v", sum)
	}
	if sum.LastMovement == nil || sum.LastMovement.ID != "mov_new" {
		t.Errorf("expected mov_new as last movement, got %+v", sum.LastMovement)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	sum := Summarize(model.NewDocument(testNow), testNow)
	if sum.LastMovement != nil || sum.Items != 0 || sum.OpenOrders != 0 {
		t.Errorf("expected zero summary, got %+v", sum)
	}
}
