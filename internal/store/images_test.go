package store

import (
	"bytes"
	"context"
	"testing"

	"github.com/erazemk/agrogestor/internal/db"
)

func TestItemImageLifecycle(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	data, mime, err := GetItemImage(ctx, database, "est_1")
	if err != nil {
		t.Fatalf("GetItemImage: %v", err)
	}
	if data != nil || mime != "" {
		t.Error("expected no image for new item")
	}

	if err := SetItemImage(ctx, database, "est_1", []byte{1, 2, 3}, "image/jpeg"); err != nil {
		t.Fatalf("SetItemImage: %v", err)
	}
	if err := SetItemImage(ctx, database, "est_1", []byte{4, 5}, "image/jpeg"); err != nil {
		t.Fatalf("SetItemImage replace: %v", err)
	}

	data, mime, _ = GetItemImage(ctx, database, "est_1")
	if !bytes.Equal(data, []byte{4, 5}) {
		t.Errorf("expected replaced image, got %v", data)
	}
	if mime != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %q", mime)
	}

	ids, err := ItemImageIDs(ctx, database)
	if err != nil {
		t.Fatalf("ItemImageIDs: %v", err)
	}
	if !ids["est_1"] || len(ids) != 1 {
		t.Errorf("unexpected image ids %v", ids)
	}

	if err := DeleteItemImage(ctx, database, "est_1"); err != nil {
		t.Fatalf("DeleteItemImage: %v", err)
	}
	data, _, _ = GetItemImage(ctx, database, "est_1")
	if data != nil {
		t.Error("expected image removed")
	}
}
