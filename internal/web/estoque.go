package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/agrogestor/internal/farm"
	"github.com/erazemk/agrogestor/internal/imaging"
	"github.com/erazemk/agrogestor/internal/model"
	"github.com/erazemk/agrogestor/internal/store"
)

type itemRow struct {
	model.InventoryItem
	HasPhoto bool
}

type estoquePage struct {
	PageData
	Items     []itemRow
	Selected  *model.InventoryItem
	Movements []model.Movement
	Kinds     []model.MovementKind
	Clamp     bool
}

// EstoquePage handles GET /estoque. ?item=<id> narrows the history to one item.
func (s *Server) EstoquePage(w http.ResponseWriter, r *http.Request) {
	s.renderEstoque(w, r, http.StatusOK, s.page(r, "Estoque"))
}

func (s *Server) renderEstoque(w http.ResponseWriter, r *http.Request, status int, pd PageData) {
	doc := s.Farm.Load(r.Context())

	photos, err := store.ItemImageIDs(r.Context(), s.DB)
	if err != nil {
		slog.Error("failed to list item photos", "error", err)
	}

	data := estoquePage{
		PageData:  pd,
		Items:     make([]itemRow, 0, len(doc.Inventory)),
		Movements: recent(doc.Movements, recentLimit),
		Kinds:     []model.MovementKind{model.MovementInbound, model.MovementOutbound},
		Clamp:     s.Farm.ClampBalance(),
	}
	for _, it := range doc.Inventory {
		data.Items = append(data.Items, itemRow{InventoryItem: it, HasPhoto: photos[it.ID]})
	}
	if id := r.URL.Query().Get("item"); id != "" {
		if i := doc.FindItem(id); i >= 0 {
			data.Selected = &doc.Inventory[i]
			data.Movements = farm.MovementsFor(doc, id)
		}
	}

	s.Templates.RenderStatus(w, status, "estoque.html", &data)
}

// ItemCreateSubmit handles POST /estoque.
func (s *Server) ItemCreateSubmit(w http.ResponseWriter, r *http.Request) {
	_, err := s.Farm.AddInventoryItem(r.Context(),
		r.FormValue("name"),
		r.FormValue("unit"),
		formNumber(r, "balance"),
		formNumber(r, "minimum"),
	)
	if err != nil {
		slog.Error("failed to create item", "error", err)
	}
	http.Redirect(w, r, "/estoque", http.StatusSeeOther)
}

// MovementSubmit handles POST /estoque/{id}/movimentacoes.
func (s *Server) MovementSubmit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	_, err := s.Farm.AddMovement(r.Context(), id,
		model.MovementKind(r.FormValue("kind")),
		formNumber(r, "quantity"),
		r.FormValue("note"),
	)
	if err != nil {
		slog.Error("failed to record movement", "error", err)
	}
	http.Redirect(w, r, "/estoque?item="+id, http.StatusSeeOther)
}

// ItemDeleteSubmit handles POST /estoque/{id}/excluir (manager+). Movements
// and the photo of the item go with it.
func (s *Server) ItemDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	if !requireRole(w, r, model.RoleManager) {
		return
	}

	id := r.PathValue("id")
	doc, err := s.Farm.DeleteInventoryItem(r.Context(), id)
	if err == nil && doc.FindItem(id) < 0 {
		if err := store.DeleteItemImage(r.Context(), s.DB, id); err != nil {
			slog.Error("failed to delete item photo", "item", id, "error", err)
		}
		slog.Info("item deleted", "user", GetWebClaims(r.Context()).Email, "item", id)
	}
	http.Redirect(w, r, "/estoque", http.StatusSeeOther)
}

// ItemPhotoSubmit handles POST /estoque/{id}/foto (manager+).
func (s *Server) ItemPhotoSubmit(w http.ResponseWriter, r *http.Request) {
	if !requireRole(w, r, model.RoleManager) {
		return
	}

	id := r.PathValue("id")
	doc := s.Farm.Load(r.Context())
	if doc.FindItem(id) < 0 {
		http.NotFound(w, r)
		return
	}

	fail := func(msg string) {
		pd := s.page(r, "Estoque")
		pd.Error = msg
		s.renderEstoque(w, r, http.StatusBadRequest, pd)
	}

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+(1<<20))
	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		fail("Arquivo grande demais.")
		return
	}

	file, _, err := r.FormFile("foto")
	if err != nil {
		fail("Selecione uma foto.")
		return
	}
	defer file.Close()

	photo, err := imaging.Process(file, 0)
	if errors.Is(err, imaging.ErrUnsupported) || errors.Is(err, imaging.ErrTooLarge) {
		fail(err.Error())
		return
	}
	if err != nil {
		fail("Não foi possível ler a imagem.")
		return
	}

	if err := store.SetItemImage(r.Context(), s.DB, id, photo.Data, photo.MIME); err != nil {
		slog.Error("failed to save item photo", "item", id, "error", err)
		fail("Erro ao salvar foto.")
		return
	}

	slog.Info("item photo uploaded", "user", GetWebClaims(r.Context()).Email, "item", id)
	http.Redirect(w, r, "/estoque?item="+id, http.StatusSeeOther)
}

// ItemPhotoGet handles GET /estoque/{id}/foto. ?thumb=1 returns a thumbnail.
func (s *Server) ItemPhotoGet(w http.ResponseWriter, r *http.Request) {
	data, mime, err := store.GetItemImage(r.Context(), s.DB, r.PathValue("id"))
	if err != nil {
		slog.Error("failed to get image", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if data == nil {
		http.NotFound(w, r)
		return
	}

	if r.URL.Query().Get("thumb") != "" {
		if thumb, err := imaging.Thumbnail(data); err == nil {
			data, mime = thumb.Data, thumb.MIME
		}
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Disposition", "inline")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "private, max-age=300")
	if _, err := w.Write(data); err != nil {
		slog.Error("failed to write image response", "error", err)
	}
}
