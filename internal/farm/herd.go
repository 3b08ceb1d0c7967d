package farm

import (
	"context"
	"strings"
	"time"

	"github.com/erazemk/agrogestor/internal/model"
)

// AnimalInput is the data needed to register an animal.
type AnimalInput struct {
	Tag       string
	Sex       model.Sex
	Category  model.Category
	Lot       string
	BirthDate string
}

// AddAnimal prepends a new animal. An empty or already used tag is rejected
// with ErrEmptyTag or ErrDuplicateTag and the herd is left untouched.
func (s *Store) AddAnimal(ctx context.Context, in AnimalInput) (model.Document, error) {
	return s.mutate(ctx, "add_animal", func(doc *model.Document, now time.Time) (bool, error) {
		tag := strings.TrimSpace(in.Tag)
		if tag == "" {
			return false, ErrEmptyTag
		}
		if doc.FindAnimalByTag(tag) >= 0 {
			return false, ErrDuplicateTag
		}
		animal := model.Animal{
			ID:        s.newID(model.PrefixAnimal),
			Tag:       tag,
			Sex:       model.ParseSex(string(in.Sex)),
			Category:  model.ParseCategory(string(in.Category)),
			Lot:       strings.TrimSpace(in.Lot),
			BirthDate: model.ParseDate(in.BirthDate),
			CreatedAt: now.UTC(),
		}
		doc.Animals = append([]model.Animal{animal}, doc.Animals...)
		return true, nil
	})
}

// DeleteAnimal removes an animal together with its weighings.
func (s *Store) DeleteAnimal(ctx context.Context, id string) (model.Document, error) {
	return s.mutate(ctx, "delete_animal", func(doc *model.Document, _ time.Time) (bool, error) {
		i := doc.FindAnimal(strings.TrimSpace(id))
		if i < 0 {
			return false, nil
		}
		doc.Animals = append(doc.Animals[:i:i], doc.Animals[i+1:]...)
		if n := doc.EnforceReferences(); n > 0 {
			s.log.Info("cascaded animal delete", "animal", id, "weighings", n)
		}
		return true, nil
	})
}

// AddWeighing records a weight for an animal. Unknown animals, non-positive
// weights and empty or invalid dates are ignored.
func (s *Store) AddWeighing(ctx context.Context, animalID string, weightKg float64, date, note string) (model.Document, error) {
	return s.mutate(ctx, "add_weighing", func(doc *model.Document, now time.Time) (bool, error) {
		kg := model.Finite(weightKg, nil)
		date = model.ParseDate(date)
		if kg <= 0 || date == "" {
			return false, nil
		}
		i := doc.FindAnimal(strings.TrimSpace(animalID))
		if i < 0 {
			return false, nil
		}
		animal := doc.Animals[i]
		w := model.Weighing{
			ID:        s.newID(model.PrefixWeighing),
			AnimalID:  animal.ID,
			AnimalTag: animal.Tag,
			WeightKg:  kg,
			Date:      date,
			Note:      strings.TrimSpace(note),
			CreatedAt: now.UTC(),
		}
		doc.Weighings = append([]model.Weighing{w}, doc.Weighings...)
		return true, nil
	})
}

// WeighingsFor returns the weighings of one animal, newest first.
func WeighingsFor(doc model.Document, animalID string) []model.Weighing {
	out := []model.Weighing{}
	for _, w := range doc.Weighings {
		if w.AnimalID == animalID {
			out = append(out, w)
		}
	}
	return out
}

// LatestWeights maps each animal id to its most recent weighing, by date and
// then by creation time.
func LatestWeights(doc model.Document) map[string]model.Weighing {
	latest := make(map[string]model.Weighing)
	for _, w := range doc.Weighings {
		cur, ok := latest[w.AnimalID]
		if !ok || w.Date > cur.Date || (w.Date == cur.Date && w.CreatedAt.After(cur.CreatedAt)) {
			latest[w.AnimalID] = w
		}
	}
	return latest
}
