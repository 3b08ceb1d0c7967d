package model

import (
	"time"

	"github.com/google/uuid"
)

// SchemaVersion is the version stamped into every persisted document.
const SchemaVersion = 1

// Meta holds document-level metadata, recomputed on every save.
type Meta struct {
	Version     int       `json:"version"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// Document is the whole farm state: five collections plus metadata.
// Collections are kept newest-first.
type Document struct {
	Meta       Meta            `json:"meta"`
	Inventory  []InventoryItem `json:"estoque"`
	Movements  []Movement      `json:"movimentacoes"`
	Animals    []Animal        `json:"animais"`
	Weighings  []Weighing      `json:"pesagens"`
	WorkOrders []WorkOrder     `json:"os"`
}

// NewDocument returns an empty document with every collection present.
func NewDocument(now time.Time) Document {
	return Document{
		Meta:       Meta{Version: SchemaVersion, LastUpdated: now.UTC()},
		Inventory:  []InventoryItem{},
		Movements:  []Movement{},
		Animals:    []Animal{},
		Weighings:  []Weighing{},
		WorkOrders: []WorkOrder{},
	}
}

// Clone returns a copy whose collections can be modified without touching d.
func (d Document) Clone() Document {
	c := d
	c.Inventory = append([]InventoryItem{}, d.Inventory...)
	c.Movements = append([]Movement{}, d.Movements...)
	c.Animals = append([]Animal{}, d.Animals...)
	c.Weighings = append([]Weighing{}, d.Weighings...)
	c.WorkOrders = append([]WorkOrder{}, d.WorkOrders...)
	return c
}

// FindItem returns the index of the inventory item with the given id, or -1.
func (d *Document) FindItem(id string) int {
	for i := range d.Inventory {
		if d.Inventory[i].ID == id {
			return i
		}
	}
	return -1
}

// FindAnimal returns the index of the animal with the given id, or -1.
func (d *Document) FindAnimal(id string) int {
	for i := range d.Animals {
		if d.Animals[i].ID == id {
			return i
		}
	}
	return -1
}

// FindAnimalByTag returns the index of the animal carrying tag, or -1.
func (d *Document) FindAnimalByTag(tag string) int {
	for i := range d.Animals {
		if d.Animals[i].Tag == tag {
			return i
		}
	}
	return -1
}

// FindWorkOrder returns the index of the work order with the given id, or -1.
func (d *Document) FindWorkOrder(id string) int {
	for i := range d.WorkOrders {
		if d.WorkOrders[i].ID == id {
			return i
		}
	}
	return -1
}

// ID prefixes per collection.
const (
	PrefixItem      = "est"
	PrefixMovement  = "mov"
	PrefixAnimal    = "ani"
	PrefixWeighing  = "pes"
	PrefixWorkOrder = "os"
)

// IDFunc generates a fresh identifier for a record of the given prefix.
type IDFunc func(prefix string) string

// NewID returns a random identifier such as "est_3f0c...".
func NewID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}
