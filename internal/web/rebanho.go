package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/agrogestor/internal/farm"
	"github.com/erazemk/agrogestor/internal/model"
)

type animalRow struct {
	model.Animal
	Latest    *model.Weighing
	Weighings int
}

// animalForm echoes the create form back after a rejected submission.
type animalForm struct {
	Tag       string
	Sex       string
	Category  string
	Lot       string
	BirthDate string
}

type rebanhoPage struct {
	PageData
	Animals    []animalRow
	Weighings  []model.Weighing
	Sexes      []model.Sex
	Categories []model.Category
	Today      string
	Form       animalForm
}

// RebanhoPage handles GET /rebanho.
func (s *Server) RebanhoPage(w http.ResponseWriter, r *http.Request) {
	s.renderRebanho(w, r, http.StatusOK, s.page(r, "Rebanho"), animalForm{})
}

func (s *Server) renderRebanho(w http.ResponseWriter, r *http.Request, status int, pd PageData, form animalForm) {
	doc := s.Farm.Load(r.Context())
	latest := farm.LatestWeights(doc)

	data := rebanhoPage{
		PageData:   pd,
		Animals:    make([]animalRow, 0, len(doc.Animals)),
		Weighings:  recent(doc.Weighings, recentLimit),
		Sexes:      model.Sexes,
		Categories: model.Categories,
		Today:      s.now().Format(model.DateLayout),
		Form:       form,
	}
	for _, a := range doc.Animals {
		row := animalRow{Animal: a, Weighings: len(farm.WeighingsFor(doc, a.ID))}
		if wg, ok := latest[a.ID]; ok {
			row.Latest = &wg
		}
		data.Animals = append(data.Animals, row)
	}

	s.Templates.RenderStatus(w, status, "rebanho.html", &data)
}

// AnimalCreateSubmit handles POST /rebanho. Empty and duplicate tags are
// reported back on the page.
func (s *Server) AnimalCreateSubmit(w http.ResponseWriter, r *http.Request) {
	form := animalForm{
		Tag:       r.FormValue("tag"),
		Sex:       r.FormValue("sex"),
		Category:  r.FormValue("category"),
		Lot:       r.FormValue("lot"),
		BirthDate: r.FormValue("birth_date"),
	}

	_, err := s.Farm.AddAnimal(r.Context(), farm.AnimalInput{
		Tag:       form.Tag,
		Sex:       model.Sex(form.Sex),
		Category:  model.Category(form.Category),
		Lot:       form.Lot,
		BirthDate: form.BirthDate,
	})
	if errors.Is(err, farm.ErrEmptyTag) || errors.Is(err, farm.ErrDuplicateTag) {
		pd := s.page(r, "Rebanho")
		pd.Error = err.Error()
		status := http.StatusBadRequest
		if errors.Is(err, farm.ErrDuplicateTag) {
			status = http.StatusConflict
		}
		s.renderRebanho(w, r, status, pd, form)
		return
	}
	if err != nil {
		slog.Error("failed to create animal", "error", err)
	}
	http.Redirect(w, r, "/rebanho", http.StatusSeeOther)
}

// WeighingSubmit handles POST /rebanho/{id}/pesagens.
func (s *Server) WeighingSubmit(w http.ResponseWriter, r *http.Request) {
	_, err := s.Farm.AddWeighing(r.Context(), r.PathValue("id"),
		formNumber(r, "weight"),
		r.FormValue("date"),
		r.FormValue("note"),
	)
	if err != nil {
		slog.Error("failed to record weighing", "error", err)
	}
	http.Redirect(w, r, "/rebanho", http.StatusSeeOther)
}

// AnimalDeleteSubmit handles POST /rebanho/{id}/excluir (manager+). The
// animal's weighings are removed with it.
func (s *Server) AnimalDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	if !requireRole(w, r, model.RoleManager) {
		return
	}

	id := r.PathValue("id")
	if _, err := s.Farm.DeleteAnimal(r.Context(), id); err != nil {
		slog.Error("failed to delete animal", "error", err)
	} else {
		slog.Info("animal deleted", "user", GetWebClaims(r.Context()).Email, "animal", id)
	}
	http.Redirect(w, r, "/rebanho", http.StatusSeeOther)
}
