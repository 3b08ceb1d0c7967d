package model

import "time"

// Sex of an animal.
type Sex string

// Sexes.
const (
	SexMale        Sex = "Macho"
	SexFemale      Sex = "Fêmea"
	SexUnspecified Sex = "Não informado"
)

// Sexes lists the accepted values in display order.
var Sexes = []Sex{SexUnspecified, SexMale, SexFemale}

// ParseSex maps unknown values to SexUnspecified.
func ParseSex(s string) Sex {
	for _, v := range Sexes {
		if string(v) == s {
			return v
		}
	}
	return SexUnspecified
}

// Category of an animal within the herd.
type Category string

// Categories.
const (
	CategoryCalf   Category = "Bezerro"
	CategoryHeifer Category = "Novilho"
	CategoryCow    Category = "Vaca"
	CategoryBull   Category = "Touro"
	CategoryOther  Category = "Outro"
)

// Categories lists the accepted values in display order.
var Categories = []Category{CategoryCalf, CategoryHeifer, CategoryCow, CategoryBull, CategoryOther}

// ParseCategory maps unknown values to CategoryOther.
func ParseCategory(s string) Category {
	for _, v := range Categories {
		if string(v) == s {
			return v
		}
	}
	return CategoryOther
}

// Animal is one head of the herd, identified by its ear tag.
type Animal struct {
	ID        string    `json:"id"`
	Tag       string    `json:"brinco"`
	Sex       Sex       `json:"sexo"`
	Category  Category  `json:"categoria"`
	Lot       string    `json:"lote,omitempty"`
	BirthDate string    `json:"nascimento,omitempty"`
	CreatedAt time.Time `json:"criadoEm"`
}

// Weighing is a dated weight measurement of one animal.
type Weighing struct {
	ID        string    `json:"id"`
	AnimalID  string    `json:"animalId"`
	AnimalTag string    `json:"animalBrinco"`
	WeightKg  float64   `json:"pesoKg"`
	Date      string    `json:"data"`
	Note      string    `json:"obs,omitempty"`
	CreatedAt time.Time `json:"criadoEm"`
}

// DateLayout is the layout of calendar-date fields.
const DateLayout = "2006-01-02"

// ParseDate trims s and returns it when it is a valid calendar date, or "".
func ParseDate(s string) string {
	s = trim(s)
	if s == "" {
		return ""
	}
	if _, err := time.Parse(DateLayout, s); err != nil {
		return ""
	}
	return s
}
