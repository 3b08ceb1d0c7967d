package farm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/erazemk/agrogestor/internal/db"
	"github.com/erazemk/agrogestor/internal/model"
)

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

// testClock returns a clock advancing one second per call.
func testClock() func() time.Time {
	var mu sync.Mutex
	t := testNow
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func seqID() model.IDFunc {
	var mu sync.Mutex
	n := 0
	return func(prefix string) string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s_%d", prefix, n)
	}
}

type fakeRecorder struct {
	mu       sync.Mutex
	ops      map[string]int
	failures map[string]int
	alerts   int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{ops: map[string]int{}, failures: map[string]int{}}
}

func (r *fakeRecorder) StoreOp(op string, result Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops[op+"/"+string(result)]++
}

func (r *fakeRecorder) PersistFailure(stage string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[stage]++
}

func (r *fakeRecorder) Alerts(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = n
}

func newTestStore(t *testing.T, opts Options) (*Store, Backend) {
	t.Helper()
	backend := NewSQLiteBackend(db.NewTestDB(t))
	if opts.Clock == nil {
		opts.Clock = testClock()
	}
	if opts.NewID == nil {
		opts.NewID = seqID()
	}
	return NewStore(backend, opts), backend
}

type brokenBackend struct {
	readErr, writeErr error
	data              []byte
	writes            int
}

func (b *brokenBackend) Read(context.Context) ([]byte, error) { return b.data, b.readErr }

func (b *brokenBackend) Write(_ context.Context, data []byte) error {
	b.writes++
	if b.writeErr != nil {
		return b.writeErr
	}
	b.data = data
	return nil
}

func TestLoadInitializesAndPersistsFreshDocument(t *testing.T) {
	s, backend := newTestStore(t, Options{})
	ctx := context.Background()

	doc := s.Load(ctx)
	if doc.Meta.Version != model.SchemaVersion {
		t.Errorf("expected version %d, got %d", model.SchemaVersion, doc.Meta.Version)
	}
	if doc.Inventory == nil || doc.Movements == nil || doc.Animals == nil || doc.Weighings == nil || doc.WorkOrders == nil {
		t.Error("expected all collections present")
	}

	raw, err := backend.Read(ctx)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if raw == nil {
		t.Fatal("expected fresh document persisted")
	}
}

func TestLoadSelfHealsCorruptStorage(t *testing.T) {
	ctx := context.Background()
	for _, payload := range []string{"{not json", `"a string"`, `[1,2,3]`, `null`} {
		t.Run(payload, func(t *testing.T) {
			s, backend := newTestStore(t, Options{})
			backend.Write(ctx, []byte(payload))

			doc := s.Load(ctx)
			if len(doc.Inventory) != 0 || len(doc.WorkOrders) != 0 {
				t.Errorf("expected empty document, got %+v", doc)
			}

			raw, _ := backend.Read(ctx)
			var stored map[string]any
			if err := json.Unmarshal(raw, &stored); err != nil {
				t.Fatalf("expected repaired JSON stored, got %q", raw)
			}
			if _, ok := stored["estoque"]; !ok {
				t.Error("expected repaired document to contain estoque")
			}
		})
	}
}

func TestLoadRepairsMalformedRecords(t *testing.T) {
	ctx := context.Background()
	s, backend := newTestStore(t, Options{})
	backend.Write(ctx, []byte(`{
		"estoque": [{"id": "est_a", "nome": "  Milho ", "saldo": "12", "minimo": 3}, {"nome": "   "}],
		"movimentacoes": [{"id": "mov_x", "itemId": "est_gone", "itemNome": "X", "tipo": "SAIDA", "quantidade": 1}],
		"os": "oops"
	}`))

	doc := s.Load(ctx)
	if len(doc.Inventory) != 1 || doc.Inventory[0].Name != "Milho" || doc.Inventory[0].Balance != 12 {
		t.Errorf("unexpected inventory %+v", doc.Inventory)
	}
	if len(doc.Movements) != 0 {
		t.Errorf("expected dangling movement dropped, got %+v", doc.Movements)
	}

	raw, _ := backend.Read(ctx)
	again := model.Normalize(raw, testNow, seqID())
	if len(again.Inventory) != 1 || again.Inventory[0].Name != "Milho" {
		t.Errorf("expected normalized document written back, got %s", raw)
	}
}

func TestReadFailureIsAbsorbed(t *testing.T) {
	rec := newFakeRecorder()
	backend := &brokenBackend{readErr: errors.New("disk gone")}
	s := NewStore(backend, Options{Clock: testClock(), NewID: seqID(), Recorder: rec})

	doc := s.Load(context.Background())
	if len(doc.Inventory) != 0 {
		t.Error("expected fresh document")
	}
	if rec.failures["read"] != 1 {
		t.Errorf("expected one read failure recorded, got %v", rec.failures)
	}
}

func TestWriteFailureIsAbsorbed(t *testing.T) {
	rec := newFakeRecorder()
	backend := &brokenBackend{writeErr: errors.New("read-only")}
	s := NewStore(backend, Options{Clock: testClock(), NewID: seqID(), Recorder: rec})

	doc, err := s.AddInventoryItem(context.Background(), "Sal", "kg", 10, 5)
	if err != nil {
		t.Fatalf("expected write failure not surfaced, got %v", err)
	}
	if len(doc.Inventory) != 1 {
		t.Errorf("expected returned document to carry the new item, got %d items", len(doc.Inventory))
	}
	if rec.failures["write"] == 0 {
		t.Error("expected write failure recorded")
	}
}

func TestSaveStampsMetadata(t *testing.T) {
	clock := testClock()
	s, _ := newTestStore(t, Options{Clock: clock})
	ctx := context.Background()

	doc := s.Load(ctx)
	doc.Meta.Version = 99
	saved := s.Save(ctx, doc)

	if saved.Meta.Version != model.SchemaVersion {
		t.Errorf("expected version reset to %d, got %d", model.SchemaVersion, saved.Meta.Version)
	}
	if !saved.Meta.LastUpdated.After(doc.Meta.LastUpdated) {
		t.Errorf("expected lastUpdated advanced, got %v", saved.Meta.LastUpdated)
	}
	if got := s.Load(ctx); !got.Meta.LastUpdated.Equal(saved.Meta.LastUpdated) {
		t.Errorf("expected stored lastUpdated %v, got %v", saved.Meta.LastUpdated, got.Meta.LastUpdated)
	}
}

func TestReplaceNormalizesImport(t *testing.T) {
	s, _ := newTestStore(t, Options{})
	ctx := context.Background()

	doc := s.Replace(ctx, []byte(`{"animais": [{"brinco": "A1", "sexo": "??"}, {"brinco": "A1"}]}`))
	if len(doc.Animals) != 1 {
		t.Fatalf("expected duplicate tag dropped, got %d animals", len(doc.Animals))
	}
	if doc.Animals[0].Sex != model.SexUnspecified {
		t.Errorf("expected default sex, got %q", doc.Animals[0].Sex)
	}

	out, err := s.Export(ctx)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	var exported model.Document
	if err := json.Unmarshal(out, &exported); err != nil {
		t.Fatalf("exported JSON invalid: %v", err)
	}
	if len(exported.Animals) != 1 || exported.Animals[0].Tag != "A1" {
		t.Errorf("unexpected export %s", out)
	}
}

func TestConcurrentMutationsSerialize(t *testing.T) {
	s, _ := newTestStore(t, Options{})
	ctx := context.Background()

	doc, _ := s.AddInventoryItem(ctx, "Ração", "kg", 0, 0)
	id := doc.Inventory[0].ID

	const workers = 20
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.AddMovement(ctx, id, model.MovementInbound, 1, "")
		}()
	}
	wg.Wait()

	final := s.Load(ctx)
	if final.Inventory[0].Balance != workers {
		t.Errorf("expected balance %d, got %v", workers, final.Inventory[0].Balance)
	}
	if len(final.Movements) != workers {
		t.Errorf("expected %d movements, got %d", workers, len(final.Movements))
	}
}

func TestFileBackend(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "agrogestor.json")
	backend := &FileBackend{Path: path}

	raw, err := backend.Read(ctx)
	if err != nil || raw != nil {
		t.Fatalf("expected nil, nil for missing file, got %q, %v", raw, err)
	}

	s := NewStore(backend, Options{Clock: testClock(), NewID: seqID()})
	s.AddWorkOrder(ctx, "Vacinar bezerros", "João")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var doc model.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("stored file is not valid JSON: %v", err)
	}
	if len(doc.WorkOrders) != 1 {
		t.Errorf("expected 1 work order in file, got %d", len(doc.WorkOrders))
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("expected only the document file, found %d entries", len(entries))
	}
}

func TestRecorderCountsOutcomes(t *testing.T) {
	rec := newFakeRecorder()
	s, _ := newTestStore(t, Options{Recorder: rec})
	ctx := context.Background()

	s.AddInventoryItem(ctx, "Sal", "kg", 1, 5)
	s.AddInventoryItem(ctx, "  ", "", 1, 5)
	s.AddAnimal(ctx, AnimalInput{})

	if rec.ops["add_inventory_item/applied"] != 1 {
		t.Errorf("expected one applied op, got %v", rec.ops)
	}
	if rec.ops["add_inventory_item/noop"] != 1 {
		t.Errorf("expected one noop op, got %v", rec.ops)
	}
	if rec.ops["add_animal/rejected"] != 1 {
		t.Errorf("expected one rejected op, got %v", rec.ops)
	}
	if rec.alerts != 1 {
		t.Errorf("expected alert gauge 1, got %d", rec.alerts)
	}
}
