package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Normalize parses raw persisted bytes into a well-formed Document.
//
// Malformed input never fails: an unparseable or non-object payload yields a
// fresh document, bad collections become empty, records missing a required
// string are dropped, numbers fall back to 0, enums fall back to their
// defaults and dangling references are cascaded away. Normalizing the
// marshalled output again yields the same document except for
// Meta.LastUpdated.
func Normalize(raw []byte, now time.Time, newID IDFunc) Document {
	if newID == nil {
		newID = NewID
	}
	doc := NewDocument(now)

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var root map[string]any
	if err := dec.Decode(&root); err != nil || root == nil {
		return doc
	}

	if meta, ok := root["meta"].(map[string]any); ok {
		doc.Meta.LastUpdated = timestamp(meta["lastUpdated"], doc.Meta.LastUpdated)
	}
	fallback := doc.Meta.LastUpdated

	ids := map[string]bool{}
	for _, m := range records(root["estoque"]) {
		name := text(m["nome"])
		if name == "" {
			continue
		}
		created := timestamp(m["criadoEm"], fallback)
		it := InventoryItem{
			ID:        recordID(m, PrefixItem, newID),
			Name:      name,
			Unit:      text(m["unidade"]),
			Balance:   number(m["saldo"]),
			Minimum:   number(m["minimo"]),
			CreatedAt: created,
			UpdatedAt: timestamp(m["atualizadoEm"], created),
		}
		if ids[it.ID] {
			continue
		}
		ids[it.ID] = true
		doc.Inventory = append(doc.Inventory, it)
	}

	ids = map[string]bool{}
	for _, m := range records(root["movimentacoes"]) {
		mv := Movement{
			ItemID:   text(m["itemId"]),
			ItemName: text(m["itemNome"]),
			Kind:     ParseMovementKind(text(m["tipo"])),
			Quantity: number(m["quantidade"]),
			Note:     text(m["obs"]),
		}
		if mv.ItemID == "" || mv.ItemName == "" || mv.Quantity <= 0 {
			continue
		}
		mv.ID = recordID(m, PrefixMovement, newID)
		mv.CreatedAt = timestamp(m["criadoEm"], fallback)
		if ids[mv.ID] {
			continue
		}
		ids[mv.ID] = true
		doc.Movements = append(doc.Movements, mv)
	}

	ids = map[string]bool{}
	tags := map[string]bool{}
	for _, m := range records(root["animais"]) {
		tag := text(m["brinco"])
		if tag == "" || tags[tag] {
			continue
		}
		a := Animal{
			ID:        recordID(m, PrefixAnimal, newID),
			Tag:       tag,
			Sex:       ParseSex(text(m["sexo"])),
			Category:  ParseCategory(text(m["categoria"])),
			Lot:       text(m["lote"]),
			BirthDate: ParseDate(text(m["nascimento"])),
			CreatedAt: timestamp(m["criadoEm"], fallback),
		}
		if ids[a.ID] {
			continue
		}
		ids[a.ID] = true
		tags[tag] = true
		doc.Animals = append(doc.Animals, a)
	}

	ids = map[string]bool{}
	for _, m := range records(root["pesagens"]) {
		w := Weighing{
			AnimalID:  text(m["animalId"]),
			AnimalTag: text(m["animalBrinco"]),
			WeightKg:  number(m["pesoKg"]),
			Date:      ParseDate(text(m["data"])),
			Note:      text(m["obs"]),
		}
		if w.AnimalID == "" || w.AnimalTag == "" || w.WeightKg <= 0 || w.Date == "" {
			continue
		}
		w.ID = recordID(m, PrefixWeighing, newID)
		w.CreatedAt = timestamp(m["criadoEm"], fallback)
		if ids[w.ID] {
			continue
		}
		ids[w.ID] = true
		doc.Weighings = append(doc.Weighings, w)
	}

	ids = map[string]bool{}
	for _, m := range records(root["os"]) {
		o := WorkOrder{
			Title:       text(m["titulo"]),
			Responsible: text(m["responsavel"]),
			Status:      ParseWorkOrderStatus(text(m["status"])),
		}
		if o.Title == "" || o.Responsible == "" {
			continue
		}
		o.ID = recordID(m, PrefixWorkOrder, newID)
		o.CreatedAt = timestamp(m["criadoEm"], fallback)
		o.StartedAt = optionalTimestamp(m["iniciadoEm"])
		o.FinishedAt = optionalTimestamp(m["finalizadoEm"])
		if ids[o.ID] {
			continue
		}
		ids[o.ID] = true
		doc.WorkOrders = append(doc.WorkOrders, o)
	}

	doc.EnforceReferences()
	return doc
}

// records returns the object elements of v when v is a list.
func records(v any) []map[string]any {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(list))
	for _, el := range list {
		if m, ok := el.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func recordID(m map[string]any, prefix string, newID IDFunc) string {
	if id := text(m["id"]); id != "" {
		return id
	}
	return newID(prefix)
}

// text returns v trimmed when it is a string, "" otherwise.
func text(v any) string {
	s, _ := v.(string)
	return trim(s)
}

func trim(s string) string {
	return strings.TrimSpace(s)
}

// number coerces JSON numbers and numeric strings; everything else is 0.
func number(v any) float64 {
	var f float64
	var err error
	switch x := v.(type) {
	case json.Number:
		f, err = x.Float64()
	case float64:
		f = x
	case string:
		f, err = strconv.ParseFloat(trim(x), 64)
	default:
		return 0
	}
	return Finite(f, err)
}

// Finite returns f, or 0 when err is set or f is NaN or infinite.
func Finite(f float64, err error) float64 {
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func timestamp(v any, fallback time.Time) time.Time {
	if t := optionalTimestamp(v); t != nil {
		return *t
	}
	return fallback
}

func optionalTimestamp(v any) *time.Time {
	s := text(v)
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}
