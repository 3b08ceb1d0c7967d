// Package farm holds the farm document store: one JSON document with the
// inventory, herd and work orders, loaded and persisted whole on every
// operation.
package farm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/erazemk/agrogestor/internal/model"
)

// Raised failures. Every other invalid input is a silent no-op.
var (
	ErrEmptyTag     = errors.New("informe o brinco do animal")
	ErrDuplicateTag = errors.New("já existe um animal com este brinco")
)

// Result classifies the outcome of a mutation for metrics.
type Result string

// Mutation results.
const (
	ResultApplied  Result = "applied"
	ResultNoop     Result = "noop"
	ResultRejected Result = "rejected"
)

// Recorder receives store instrumentation. A nil Recorder is allowed.
type Recorder interface {
	StoreOp(op string, result Result)
	PersistFailure(stage string)
	Alerts(n int)
}

// Options configure a Store. Zero values select defaults.
type Options struct {
	// ClampBalance floors item balances at zero on outbound movements.
	ClampBalance bool
	Clock        func() time.Time
	NewID        model.IDFunc
	Recorder     Recorder
	Logger       *slog.Logger
}

// Store serializes all access to the farm document. Each mutation runs
// load, apply, stamp and persist under one lock.
type Store struct {
	mu       sync.Mutex
	backend  Backend
	clamp    bool
	clock    func() time.Time
	newID    model.IDFunc
	recorder Recorder
	log      *slog.Logger
}

// NewStore returns a Store persisting through backend.
func NewStore(backend Backend, opts Options) *Store {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = model.NewID
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Store{
		backend:  backend,
		clamp:    opts.ClampBalance,
		clock:    opts.Clock,
		newID:    opts.NewID,
		recorder: opts.Recorder,
		log:      opts.Logger.With("component", "farm"),
	}
}

// ClampBalance reports whether outbound movements floor balances at zero.
func (s *Store) ClampBalance() bool { return s.clamp }

// Load returns the current document. Absent or corrupt storage yields a fresh
// document, which is persisted; a document that needed repair is written
// back normalized.
func (s *Store) Load(ctx context.Context) model.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Save stamps the metadata and persists doc as a whole, returning the stored
// document.
func (s *Store) Save(ctx context.Context, doc model.Document) model.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, doc, s.clock())
}

func (s *Store) load(ctx context.Context) model.Document {
	now := s.clock()
	raw, err := s.backend.Read(ctx)
	if err != nil {
		s.log.Error("reading farm document", "error", err)
		s.failure("read")
		doc := model.NewDocument(now)
		s.write(ctx, doc)
		return doc
	}
	if raw == nil {
		s.log.Info("initializing farm document")
		doc := model.NewDocument(now)
		s.write(ctx, doc)
		return doc
	}

	doc := model.Normalize(raw, now, s.newID)
	if out, err := json.Marshal(doc); err == nil && !bytes.Equal(bytes.TrimSpace(raw), out) {
		s.log.Warn("repairing farm document")
		s.write(ctx, doc)
	}
	return doc
}

func (s *Store) save(ctx context.Context, doc model.Document, now time.Time) model.Document {
	doc.Meta = model.Meta{Version: model.SchemaVersion, LastUpdated: now.UTC()}
	if doc.Inventory == nil {
		doc.Inventory = []model.InventoryItem{}
	}
	if doc.Movements == nil {
		doc.Movements = []model.Movement{}
	}
	if doc.Animals == nil {
		doc.Animals = []model.Animal{}
	}
	if doc.Weighings == nil {
		doc.Weighings = []model.Weighing{}
	}
	if doc.WorkOrders == nil {
		doc.WorkOrders = []model.WorkOrder{}
	}
	s.write(ctx, doc)
	if s.recorder != nil {
		s.recorder.Alerts(len(Alerts(doc)))
	}
	return doc
}

// write persists doc; failures are logged and counted, never returned.
func (s *Store) write(ctx context.Context, doc model.Document) {
	data, err := json.Marshal(doc)
	if err != nil {
		s.log.Error("encoding farm document", "error", err)
		s.failure("encode")
		return
	}
	if err := s.backend.Write(ctx, data); err != nil {
		s.log.Error("writing farm document", "error", err)
		s.failure("write")
	}
}

func (s *Store) failure(stage string) {
	if s.recorder != nil {
		s.recorder.PersistFailure(stage)
	}
}

// mutate runs apply on a copy of the current document. apply reports whether
// it changed anything; unchanged documents are returned without a save.
func (s *Store) mutate(ctx context.Context, op string, apply func(doc *model.Document, now time.Time) (bool, error)) (model.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load(ctx)
	now := s.clock()
	next := doc.Clone()

	changed, err := apply(&next, now)
	switch {
	case err != nil:
		s.record(op, ResultRejected)
		return doc, err
	case !changed:
		s.record(op, ResultNoop)
		s.log.Debug("store operation ignored", "op", op)
		return doc, nil
	}

	saved := s.save(ctx, next, now)
	s.record(op, ResultApplied)
	return saved, nil
}

func (s *Store) record(op string, result Result) {
	if s.recorder != nil {
		s.recorder.StoreOp(op, result)
	}
}

// Replace normalizes raw and stores it as the whole document.
func (s *Store) Replace(ctx context.Context, raw []byte) model.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock()
	doc := model.Normalize(raw, now, s.newID)
	saved := s.save(ctx, doc, now)
	s.record("replace", ResultApplied)
	s.log.Info("farm document replaced",
		"items", len(saved.Inventory),
		"animals", len(saved.Animals),
		"work_orders", len(saved.WorkOrders),
	)
	return saved
}

// Export returns the current document as indented JSON.
func (s *Store) Export(ctx context.Context) ([]byte, error) {
	doc := s.Load(ctx)
	return json.MarshalIndent(doc, "", "  ")
}
