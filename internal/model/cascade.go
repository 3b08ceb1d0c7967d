package model

// Collection names a collection of the document, by its JSON key.
type Collection string

// Collections.
const (
	CollectionInventory  Collection = "estoque"
	CollectionMovements  Collection = "movimentacoes"
	CollectionAnimals    Collection = "animais"
	CollectionWeighings  Collection = "pesagens"
	CollectionWorkOrders Collection = "os"
)

// Cascade is a referential rule: records of Dependent that point at a missing
// record of Owner are deleted.
type Cascade struct {
	Owner     Collection
	Dependent Collection
	ownerIDs  func(d *Document) map[string]bool
	prune     func(d *Document, alive map[string]bool) int
}

// Cascades is the referential-integrity table of the document.
var Cascades = []Cascade{
	{
		Owner:     CollectionInventory,
		Dependent: CollectionMovements,
		ownerIDs: func(d *Document) map[string]bool {
			return idSet(d.Inventory, func(i InventoryItem) string { return i.ID })
		},
		prune: func(d *Document, alive map[string]bool) int {
			var n int
			d.Movements, n = keepReferenced(d.Movements, func(m Movement) string { return m.ItemID }, alive)
			return n
		},
	},
	{
		Owner:     CollectionAnimals,
		Dependent: CollectionWeighings,
		ownerIDs: func(d *Document) map[string]bool {
			return idSet(d.Animals, func(a Animal) string { return a.ID })
		},
		prune: func(d *Document, alive map[string]bool) int {
			var n int
			d.Weighings, n = keepReferenced(d.Weighings, func(w Weighing) string { return w.AnimalID }, alive)
			return n
		},
	},
}

// EnforceReferences applies every cascade rule, dropping dependents whose
// owner no longer exists. It returns the number of records removed.
func (d *Document) EnforceReferences() int {
	removed := 0
	for _, c := range Cascades {
		removed += c.prune(d, c.ownerIDs(d))
	}
	return removed
}

// DependentsOf lists the collections cascaded from owner.
func DependentsOf(owner Collection) []Collection {
	var out []Collection
	for _, c := range Cascades {
		if c.Owner == owner {
			out = append(out, c.Dependent)
		}
	}
	return out
}

func idSet[T any](items []T, id func(T) string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, it := range items {
		set[id(it)] = true
	}
	return set
}

func keepReferenced[T any](items []T, ref func(T) string, alive map[string]bool) ([]T, int) {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if alive[ref(it)] {
			out = append(out, it)
		}
	}
	return out, len(items) - len(out)
}
