// Package wardrobe persists profiles, clothing items and outfits, keeps the
// curated-look feed, and indexes the closet for search.
package wardrobe

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"muse-workers/internal/common/errors"
	"muse-workers/internal/models"
)

const (
	queryGetProfile = `SELECT user_id, nickname, gender, created_at, updated_at FROM muse_profiles WHERE app_id = $1 AND user_id = $2`

	queryUpsertProfile = `INSERT INTO muse_profiles (app_id, user_id, nickname, gender, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $5)
ON CONFLICT (app_id, user_id) DO UPDATE SET nickname = EXCLUDED.nickname, gender = EXCLUDED.gender, updated_at = EXCLUDED.updated_at
RETURNING created_at, updated_at`

	queryInsertItem = `INSERT INTO muse_clothing_items (id, app_id, user_id, image, category, color, style, description, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	querySelectItems = `SELECT id, user_id, image, category, color, style, description, created_at FROM muse_clothing_items`

	queryListItems = querySelectItems + ` WHERE app_id = $1 AND user_id = $2 ORDER BY created_at DESC`

	queryGetItems = querySelectItems + ` WHERE app_id = $1 AND user_id = $2 AND id = ANY($3) ORDER BY created_at DESC`

	queryDeleteItem = `DELETE FROM muse_clothing_items WHERE app_id = $1 AND user_id = $2 AND id = $3`

	queryInsertOutfit = `INSERT INTO muse_outfits (id, app_id, user_id, top_id, bottom_id, shoes_id, accessory_id, reasoning, missing_item, occasion, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	queryListOutfits = `SELECT id, user_id, top_id, bottom_id, shoes_id, accessory_id, reasoning, missing_item, occasion, created_at
FROM muse_outfits WHERE app_id = $1 AND user_id = $2 ORDER BY created_at DESC`

	queryDeleteOutfit = `DELETE FROM muse_outfits WHERE app_id = $1 AND user_id = $2 AND id = $3`
)

// Store is the Postgres-backed wardrobe. All rows are scoped by app and user.
type Store struct {
	db    *sql.DB
	appID string
	now   func() time.Time
	newID func() string
}

func NewStore(db *sql.DB, appID string) *Store {
	return &Store{
		db:    db,
		appID: appID,
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return uuid.New().String() },
	}
}

func (s *Store) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	var p models.Profile
	var gender string
	err := s.db.QueryRowContext(ctx, queryGetProfile, s.appID, userID).
		Scan(&p.UserID, &p.Nickname, &gender, &p.CreatedAt, &p.UpdatedAt)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewProfileNotFoundError(userID)
	}
	if err != nil {
		return nil, errors.NewStoreFailedError("get_profile", err)
	}
	p.Gender = models.Gender(gender)
	return &p, nil
}

// SaveProfile creates or replaces the user's profile.
func (s *Store) SaveProfile(ctx context.Context, p models.Profile) (*models.Profile, error) {
	err := s.db.QueryRowContext(ctx, queryUpsertProfile, s.appID, p.UserID, p.Nickname, string(p.Gender), s.now()).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, errors.NewStoreFailedError("save_profile", err)
	}
	return &p, nil
}

func (s *Store) AddItem(ctx context.Context, item models.ClothingItem) (*models.ClothingItem, error) {
	item.ID = s.newID()
	item.CreatedAt = s.now()

	_, err := s.db.ExecContext(ctx, queryInsertItem,
		item.ID, s.appID, item.UserID, item.Image, item.Category, item.Color, item.Style, item.Description, item.CreatedAt)
	if err != nil {
		return nil, errors.NewStoreFailedError("add_item", err)
	}
	return &item, nil
}

// ListItems returns the user's closet, newest first.
func (s *Store) ListItems(ctx context.Context, userID string) ([]models.ClothingItem, error) {
	rows, err := s.db.QueryContext(ctx, queryListItems, s.appID, userID)
	if err != nil {
		return nil, errors.NewStoreFailedError("list_items", err)
	}
	return scanItems(rows, "list_items")
}

// GetItems returns the subset of ids that exist in the user's closet. Unknown ids are skipped.
func (s *Store) GetItems(ctx context.Context, userID string, ids []string) ([]models.ClothingItem, error) {
	if len(ids) == 0 {
		return []models.ClothingItem{}, nil
	}
	rows, err := s.db.QueryContext(ctx, queryGetItems, s.appID, userID, pq.Array(ids))
	if err != nil {
		return nil, errors.NewStoreFailedError("get_items", err)
	}
	return scanItems(rows, "get_items")
}

func scanItems(rows *sql.Rows, op string) ([]models.ClothingItem, error) {
	defer rows.Close()

	items := []models.ClothingItem{}
	for rows.Next() {
		var it models.ClothingItem
		if err := rows.Scan(&it.ID, &it.UserID, &it.Image, &it.Category, &it.Color, &it.Style, &it.Description, &it.CreatedAt); err != nil {
			return nil, errors.NewStoreFailedError(op, err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStoreFailedError(op, err)
	}
	return items, nil
}

func (s *Store) DeleteItem(ctx context.Context, userID, id string) error {
	return s.deleteOne(ctx, queryDeleteItem, "delete_item", "item", userID, id)
}

func (s *Store) SaveOutfit(ctx context.Context, o models.Outfit) (*models.Outfit, error) {
	o.ID = s.newID()
	o.CreatedAt = s.now()

	var missing interface{}
	if o.MissingItem != nil {
		raw, err := json.Marshal(o.MissingItem)
		if err != nil {
			return nil, errors.NewStoreFailedError("save_outfit", err)
		}
		missing = string(raw)
	}

	_, err := s.db.ExecContext(ctx, queryInsertOutfit,
		o.ID, s.appID, o.UserID, o.TopID, o.BottomID, o.ShoesID, nullString(o.AccessoryID), o.Reasoning, missing, o.Occasion, o.CreatedAt)
	if err != nil {
		return nil, errors.NewStoreFailedError("save_outfit", err)
	}
	return &o, nil
}

func (s *Store) ListOutfits(ctx context.Context, userID string) ([]models.Outfit, error) {
	rows, err := s.db.QueryContext(ctx, queryListOutfits, s.appID, userID)
	if err != nil {
		return nil, errors.NewStoreFailedError("list_outfits", err)
	}
	defer rows.Close()

	outfits := []models.Outfit{}
	for rows.Next() {
		var (
			o         models.Outfit
			accessory sql.NullString
			missing   []byte
			occasion  sql.NullString
		)
		if err := rows.Scan(&o.ID, &o.UserID, &o.TopID, &o.BottomID, &o.ShoesID, &accessory, &o.Reasoning, &missing, &occasion, &o.CreatedAt); err != nil {
			return nil, errors.NewStoreFailedError("list_outfits", err)
		}
		if accessory.Valid {
			v := accessory.String
			o.AccessoryID = &v
		}
		if len(missing) > 0 {
			var mi models.MissingItem
			if err := json.Unmarshal(missing, &mi); err == nil {
				o.MissingItem = &mi
			}
		}
		o.Occasion = occasion.String
		outfits = append(outfits, o)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStoreFailedError("list_outfits", err)
	}
	return outfits, nil
}

func (s *Store) DeleteOutfit(ctx context.Context, userID, id string) error {
	return s.deleteOne(ctx, queryDeleteOutfit, "delete_outfit", "outfit", userID, id)
}

func (s *Store) deleteOne(ctx context.Context, query, op, kind, userID, id string) error {
	res, err := s.db.ExecContext(ctx, query, s.appID, userID, id)
	if err != nil {
		return errors.NewStoreFailedError(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.NewStoreFailedError(op, err)
	}
	if n == 0 {
		return errors.NewNotFoundError(kind, id)
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
