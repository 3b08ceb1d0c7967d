package farm

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/erazemk/agrogestor/internal/model"
)

// AddInventoryItem prepends a new item. Empty names are ignored; non-finite
// numbers become 0.
func (s *Store) AddInventoryItem(ctx context.Context, name, unit string, balance, minimum float64) (model.Document, error) {
	return s.mutate(ctx, "add_inventory_item", func(doc *model.Document, now time.Time) (bool, error) {
		name = strings.TrimSpace(name)
		if name == "" {
			return false, nil
		}
		item := model.InventoryItem{
			ID:        s.newID(model.PrefixItem),
			Name:      name,
			Unit:      strings.TrimSpace(unit),
			Balance:   model.Finite(balance, nil),
			Minimum:   model.Finite(minimum, nil),
			CreatedAt: now.UTC(),
			UpdatedAt: now.UTC(),
		}
		doc.Inventory = append([]model.InventoryItem{item}, doc.Inventory...)
		return true, nil
	})
}

// DeleteInventoryItem removes an item together with its movements.
func (s *Store) DeleteInventoryItem(ctx context.Context, id string) (model.Document, error) {
	return s.mutate(ctx, "delete_inventory_item", func(doc *model.Document, _ time.Time) (bool, error) {
		i := doc.FindItem(strings.TrimSpace(id))
		if i < 0 {
			return false, nil
		}
		doc.Inventory = append(doc.Inventory[:i:i], doc.Inventory[i+1:]...)
		if n := doc.EnforceReferences(); n > 0 {
			s.log.Info("cascaded inventory delete", "item", id, "movements", n)
		}
		return true, nil
	})
}

// AddMovement records a stock movement and applies it to the item balance in
// the same save. Unknown items and non-positive quantities are ignored.
func (s *Store) AddMovement(ctx context.Context, itemID string, kind model.MovementKind, quantity float64, note string) (model.Document, error) {
	return s.mutate(ctx, "add_movement", func(doc *model.Document, now time.Time) (bool, error) {
		qty := model.Finite(quantity, nil)
		if qty <= 0 {
			return false, nil
		}
		i := doc.FindItem(strings.TrimSpace(itemID))
		if i < 0 {
			return false, nil
		}
		item := &doc.Inventory[i]

		mov := model.Movement{
			ID:        s.newID(model.PrefixMovement),
			ItemID:    item.ID,
			ItemName:  item.Name,
			Kind:      model.ParseMovementKind(string(kind)),
			Quantity:  qty,
			Note:      strings.TrimSpace(note),
			CreatedAt: now.UTC(),
		}

		item.Balance += mov.Signed()
		if s.clamp {
			item.Balance = math.Max(0, item.Balance)
		}
		item.UpdatedAt = now.UTC()

		doc.Movements = append([]model.Movement{mov}, doc.Movements...)
		return true, nil
	})
}

// Alerts returns the items whose balance is at or below their minimum.
func Alerts(doc model.Document) []model.InventoryItem {
	alerts := []model.InventoryItem{}
	for _, item := range doc.Inventory {
		if item.InAlert() {
			alerts = append(alerts, item)
		}
	}
	return alerts
}

// MovementsFor returns the movements of one item, newest first.
func MovementsFor(doc model.Document, itemID string) []model.Movement {
	out := []model.Movement{}
	for _, m := range doc.Movements {
		if m.ItemID == itemID {
			out = append(out, m)
		}
	}
	return out
}
