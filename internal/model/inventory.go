package model

import "time"

// InventoryItem is a stock-keeping entry with a running balance.
type InventoryItem struct {
	ID        string    `json:"id"`
	Name      string    `json:"nome"`
	Unit      string    `json:"unidade,omitempty"`
	Balance   float64   `json:"saldo"`
	Minimum   float64   `json:"minimo"`
	CreatedAt time.Time `json:"criadoEm"`
	UpdatedAt time.Time `json:"atualizadoEm"`
}

// InAlert reports whether the balance has fallen to or below the minimum.
func (i InventoryItem) InAlert() bool {
	return i.Balance <= i.Minimum
}

// MovementKind is the direction of a stock movement.
type MovementKind string

// Movement kinds.
const (
	MovementInbound  MovementKind = "ENTRADA"
	MovementOutbound MovementKind = "SAIDA"
)

// ParseMovementKind maps any value outside the known set to MovementInbound.
func ParseMovementKind(s string) MovementKind {
	if MovementKind(s) == MovementOutbound {
		return MovementOutbound
	}
	return MovementInbound
}

// Movement records a stock entry or exit. Movements are never updated.
type Movement struct {
	ID        string       `json:"id"`
	ItemID    string       `json:"itemId"`
	ItemName  string       `json:"itemNome"`
	Kind      MovementKind `json:"tipo"`
	Quantity  float64      `json:"quantidade"`
	Note      string       `json:"obs,omitempty"`
	CreatedAt time.Time    `json:"criadoEm"`
}

// Signed returns the quantity as a balance delta.
func (m Movement) Signed() float64 {
	if m.Kind == MovementOutbound {
		return -m.Quantity
	}
	return m.Quantity
}
