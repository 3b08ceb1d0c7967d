package farm

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/erazemk/agrogestor/internal/model"
)

func TestAddAnimal(t *testing.T) {
	s, _ := newTestStore(t, Options{})
	ctx := context.Background()

	doc, err := s.AddAnimal(ctx, AnimalInput{
		Tag:       " 1021 ",
		Sex:       model.SexFemale,
		Category:  model.CategoryCow,
		Lot:       " Pasto 2 ",
		BirthDate: "2023-09-31",
	})
	if err != nil {
		t.Fatalf("AddAnimal: %v", err)
	}
	a := doc.Animals[0]
	if a.Tag != "1021" || a.Lot != "Pasto 2" {
		t.Errorf("expected trimmed fields, got %+v", a)
	}
	if a.Sex != model.SexFemale || a.Category != model.CategoryCow {
		t.Errorf("unexpected enums %+v", a)
	}
	if a.BirthDate != "" {
		t.Errorf("expected invalid birth date dropped, got %q", a.BirthDate)
	}

	doc, _ = s.AddAnimal(ctx, AnimalInput{Tag: "1022", Sex: "F", Category: "Boi", BirthDate: "2024-01-15"})
	if doc.Animals[0].Sex != model.SexUnspecified || doc.Animals[0].Category != model.CategoryOther {
		t.Errorf("expected default enums, got %+v", doc.Animals[0])
	}
	if doc.Animals[0].BirthDate != "2024-01-15" {
		t.Errorf("expected birth date kept, got %q", doc.Animals[0].BirthDate)
	}
}

func TestAddAnimalRejectsEmptyAndDuplicateTags(t *testing.T) {
	s, _ := newTestStore(t, Options{})
	ctx := context.Background()

	if _, err := s.AddAnimal(ctx, AnimalInput{Tag: "  "}); !errors.Is(err, ErrEmptyTag) {
		t.Errorf("expected ErrEmptyTag, got %v", err)
	}

	before, _ := s.AddAnimal(ctx, AnimalInput{Tag: "B-7"})
	after, err := s.AddAnimal(ctx, AnimalInput{Tag: " B-7", Category: model.CategoryBull})
	if !errors.Is(err, ErrDuplicateTag) {
		t.Fatalf("expected ErrDuplicateTag, got %v", err)
	}
	if !reflect.DeepEqual(before.Animals, after.Animals) {
		t.Errorf("expected herd unchanged, got %+v", after.Animals)
	}
	if got := s.Load(ctx); !reflect.DeepEqual(before.Animals, got.Animals) {
		t.Errorf("expected stored herd unchanged, got %+v", got.Animals)
	}
}

func TestAddWeighing(t *testing.T) {
	s, _ := newTestStore(t, Options{})
	ctx := context.Background()

	doc, _ := s.AddAnimal(ctx, AnimalInput{Tag: "300"})
	id := doc.Animals[0].ID

	doc, err := s.AddWeighing(ctx, id, 412.5, "2026-03-01", " após desmama ")
	if err != nil {
		t.Fatalf("AddWeighing: %v", err)
	}
	w := doc.Weighings[0]
	if w.AnimalTag != "300" || w.WeightKg != 412.5 || w.Date != "2026-03-01" || w.Note != "após desmama" {
		t.Errorf("unexpected weighing %+v", w)
	}

	noops := []struct {
		name     string
		animalID string
		kg       float64
		date     string
	}{
		{"unknown animal", "ani_missing", 100, "2026-03-01"},
		{"zero weight", id, 0, "2026-03-01"},
		{"negative weight", id, -10, "2026-03-01"},
		{"empty date", id, 100, "  "},
		{"invalid date", id, 100, "01/03/2026"},
	}
	for _, c := range noops {
		t.Run(c.name, func(t *testing.T) {
			got, err := s.AddWeighing(ctx, c.animalID, c.kg, c.date, "")
			if err != nil {
				t.Fatalf("expected silent no-op, got %v", err)
			}
			if len(got.Weighings) != 1 {
				t.Errorf("expected no new weighing, got %d", len(got.Weighings))
			}
		})
	}
}

func TestDeleteAnimalCascades(t *testing.T) {
	s, _ := newTestStore(t, Options{})
	ctx := context.Background()

	doc, _ := s.AddAnimal(ctx, AnimalInput{Tag: "A"})
	a := doc.Animals[0].ID
	doc, _ = s.AddAnimal(ctx, AnimalInput{Tag: "B"})
	b := doc.Animals[0].ID

	s.AddWeighing(ctx, a, 100, "2026-01-01", "")
	s.AddWeighing(ctx, b, 200, "2026-01-01", "")
	s.AddWeighing(ctx, a, 110, "2026-02-01", "")

	doc, _ = s.DeleteAnimal(ctx, a)
	if doc.FindAnimal(a) >= 0 {
		t.Error("expected animal removed")
	}
	if len(doc.Weighings) != 1 || doc.Weighings[0].AnimalID != b {
		t.Errorf("expected only B's weighing left, got %+v", doc.Weighings)
	}

	// The tag is free again once the animal is gone.
	if _, err := s.AddAnimal(ctx, AnimalInput{Tag: "A"}); err != nil {
		t.Errorf("expected tag reusable after delete, got %v", err)
	}
}

func TestLatestWeights(t *testing.T) {
	doc := model.NewDocument(testNow)
	doc.Weighings = []model.Weighing{
		{ID: "pes_1", AnimalID: "ani_a", Date: "2026-01-10", WeightKg: 300, CreatedAt: testNow},
		{ID: "pes_2", AnimalID: "ani_a", Date: "2026-02-10", WeightKg: 320, CreatedAt: testNow},
		{ID: "pes_3", AnimalID: "ani_b", Date: "2026-02-10", WeightKg: 150, CreatedAt: testNow},
	}

	latest := LatestWeights(doc)
	if latest["ani_a"].ID != "pes_2" {
		t.Errorf("expected pes_2 latest for ani_a, got %s", latest["ani_a"].ID)
	}
	if latest["ani_b"].WeightKg != 150 {
		t.Errorf("expected 150 for ani_b, got %v", latest["ani_b"].WeightKg)
	}
	if got := WeighingsFor(doc, "ani_a"); len(got) != 2 {
		t.Errorf("expected 2 weighings for ani_a, got %d", len(got))
	}
}
