package store

import (
	"context"
	"database/sql"
	"fmt"
)

// SetItemImage stores (or replaces) the photo of an inventory item.
func SetItemImage(ctx context.Context, db *sql.DB, itemID string, image []byte, mime string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO item_images (item_id, image, image_mime, updated_at)
		 VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(item_id) DO UPDATE SET
		     image = excluded.image,
		     image_mime = excluded.image_mime,
		     updated_at = excluded.updated_at`,
		itemID, image, mime,
	)
	if err != nil {
		return fmt.Errorf("setting item image: %w", err)
	}
	return nil
}

// GetItemImage returns the photo and its MIME type. A missing photo yields
// nil data and no error.
func GetItemImage(ctx context.Context, db *sql.DB, itemID string) ([]byte, string, error) {
	var image []byte
	var mime string
	err := db.QueryRowContext(ctx,
		`SELECT image, image_mime FROM item_images WHERE item_id = ?`, itemID,
	).Scan(&image, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item image: %w", err)
	}
	return image, mime, nil
}

// DeleteItemImage removes an item's photo, if any.
func DeleteItemImage(ctx context.Context, db *sql.DB, itemID string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM item_images WHERE item_id = ?`, itemID); err != nil {
		return fmt.Errorf("deleting item image: %w", err)
	}
	return nil
}

// ItemImageIDs returns the ids of all items that have a photo.
func ItemImageIDs(ctx context.Context, db *sql.DB) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, `SELECT item_id FROM item_images`)
	if err != nil {
		return nil, fmt.Errorf("listing item images: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning item image: %w", err)
		}
		ids[id] = true
	}
	return ids, rows.Err()
}
