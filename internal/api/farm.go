package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/agrogestor/internal/farm"
	"github.com/erazemk/agrogestor/internal/imaging"
	"github.com/erazemk/agrogestor/internal/model"
	"github.com/erazemk/agrogestor/internal/store"
)

// FarmHandler exposes the farm document operations. Mutations answer with
// the whole resulting document; ignored input answers 200 with the document
// unchanged.
type FarmHandler struct {
	Store *farm.Store
	DB    *sql.DB
	Now   func() time.Time
}

type dashboardResponse struct {
	Summary farm.Summary          `json:"resumo"`
	Alerts  []model.InventoryItem `json:"alertas"`
}

type itemRequest struct {
	Name    string  `json:"nome"`
	Unit    string  `json:"unidade"`
	Balance float64 `json:"saldo"`
	Minimum float64 `json:"minimo"`
}

type movementRequest struct {
	Kind     string  `json:"tipo"`
	Quantity float64 `json:"quantidade"`
	Note     string  `json:"obs"`
}

type animalRequest struct {
	Tag       string `json:"brinco"`
	Sex       string `json:"sexo"`
	Category  string `json:"categoria"`
	Lot       string `json:"lote"`
	BirthDate string `json:"nascimento"`
}

type weighingRequest struct {
	WeightKg float64 `json:"pesoKg"`
	Date     string  `json:"data"`
	Note     string  `json:"obs"`
}

type workOrderRequest struct {
	Title       string `json:"titulo"`
	Responsible string `json:"responsavel"`
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *FarmHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *FarmHandler) document(w http.ResponseWriter, doc model.Document, err error) {
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "erro interno")
		return
	}
	jsonResponse(w, http.StatusOK, doc)
}

// Document handles GET /api/db.
func (h *FarmHandler) Document(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, h.Store.Load(r.Context()))
}

// Dashboard handles GET /api/dashboard.
func (h *FarmHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	doc := h.Store.Load(r.Context())
	jsonResponse(w, http.StatusOK, dashboardResponse{
		Summary: farm.Summarize(doc, h.now()),
		Alerts:  farm.Alerts(doc),
	})
}

// Alerts handles GET /api/estoque/alertas.
func (h *FarmHandler) Alerts(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, farm.Alerts(h.Store.Load(r.Context())))
}

// CreateItem handles POST /api/estoque.
func (h *FarmHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "corpo da requisição inválido")
		return
	}
	doc, err := h.Store.AddInventoryItem(r.Context(), req.Name, req.Unit, req.Balance, req.Minimum)
	h.document(w, doc, err)
}

// DeleteItem handles DELETE /api/estoque/{id}. The item photo goes with it.
func (h *FarmHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	doc, err := h.Store.DeleteInventoryItem(r.Context(), id)
	if err == nil && doc.FindItem(id) < 0 {
		if err := store.DeleteItemImage(r.Context(), h.DB, id); err != nil {
			slog.Error("failed to delete item photo", "item", id, "error", err)
		}
	}
	h.document(w, doc, err)
}

// AddMovement handles POST /api/estoque/{id}/movimentacoes.
func (h *FarmHandler) AddMovement(w http.ResponseWriter, r *http.Request) {
	var req movementRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "corpo da requisição inválido")
		return
	}
	doc, err := h.Store.AddMovement(r.Context(), r.PathValue("id"), model.MovementKind(req.Kind), req.Quantity, req.Note)
	h.document(w, doc, err)
}

// UploadPhoto handles PUT /api/estoque/{id}/foto with a multipart "foto" file.
func (h *FarmHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	doc := h.Store.Load(r.Context())
	if doc.FindItem(id) < 0 {
		jsonError(w, http.StatusNotFound, "item não encontrado")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+(1<<20))
	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		jsonError(w, http.StatusBadRequest, "arquivo grande demais ou formulário inválido")
		return
	}
	file, _, err := r.FormFile("foto")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "envie a foto no campo \"foto\"")
		return
	}
	defer file.Close()

	photo, err := imaging.Process(file, 0)
	if errors.Is(err, imaging.ErrUnsupported) || errors.Is(err, imaging.ErrTooLarge) {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		jsonError(w, http.StatusBadRequest, "não foi possível ler a imagem")
		return
	}

	if err := store.SetItemImage(r.Context(), h.DB, id, photo.Data, photo.MIME); err != nil {
		slog.Error("failed to save item photo", "item", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "erro ao salvar foto")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("item photo uploaded", "user", claims.Email, "item", id, "width", photo.Width, "height", photo.Height)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "foto atualizada"})
}

// GetPhoto handles GET /api/estoque/{id}/foto. ?thumb=1 returns a thumbnail.
func (h *FarmHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	data, mime, err := store.GetItemImage(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "erro ao carregar foto")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "item sem foto")
		return
	}

	if r.URL.Query().Get("thumb") != "" {
		if thumb, err := imaging.Thumbnail(data); err == nil {
			data, mime = thumb.Data, thumb.MIME
		}
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.Write(data)
}

// CreateAnimal handles POST /api/animais. Empty tags answer 400 and tags in
// use answer 409.
func (h *FarmHandler) CreateAnimal(w http.ResponseWriter, r *http.Request) {
	var req animalRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "corpo da requisição inválido")
		return
	}
	doc, err := h.Store.AddAnimal(r.Context(), farm.AnimalInput{
		Tag:       req.Tag,
		Sex:       model.Sex(req.Sex),
		Category:  model.Category(req.Category),
		Lot:       req.Lot,
		BirthDate: req.BirthDate,
	})
	switch {
	case errors.Is(err, farm.ErrEmptyTag):
		jsonError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, farm.ErrDuplicateTag):
		jsonError(w, http.StatusConflict, err.Error())
	default:
		h.document(w, doc, err)
	}
}

// DeleteAnimal handles DELETE /api/animais/{id}.
func (h *FarmHandler) DeleteAnimal(w http.ResponseWriter, r *http.Request) {
	doc, err := h.Store.DeleteAnimal(r.Context(), r.PathValue("id"))
	h.document(w, doc, err)
}

// AddWeighing handles POST /api/animais/{id}/pesagens.
func (h *FarmHandler) AddWeighing(w http.ResponseWriter, r *http.Request) {
	var req weighingRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "corpo da requisição inválido")
		return
	}
	doc, err := h.Store.AddWeighing(r.Context(), r.PathValue("id"), req.WeightKg, req.Date, req.Note)
	h.document(w, doc, err)
}

// CreateWorkOrder handles POST /api/os.
func (h *FarmHandler) CreateWorkOrder(w http.ResponseWriter, r *http.Request) {
	var req workOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "corpo da requisição inválido")
		return
	}
	doc, err := h.Store.AddWorkOrder(r.Context(), req.Title, req.Responsible)
	h.document(w, doc, err)
}

// UpdateWorkOrderStatus handles PUT /api/os/{id}/status.
func (h *FarmHandler) UpdateWorkOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "corpo da requisição inválido")
		return
	}
	doc, err := h.Store.UpdateWorkOrderStatus(r.Context(), r.PathValue("id"), model.WorkOrderStatus(req.Status))
	h.document(w, doc, err)
}

// DeleteWorkOrder handles DELETE /api/os/{id}.
func (h *FarmHandler) DeleteWorkOrder(w http.ResponseWriter, r *http.Request) {
	doc, err := h.Store.DeleteWorkOrder(r.Context(), r.PathValue("id"))
	h.document(w, doc, err)
}
