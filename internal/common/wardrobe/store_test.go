package wardrobe

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"muse-workers/internal/common/errors"
	"muse-workers/internal/models"
)

var fixedNow = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := NewStore(db, "muse-closet-ai")
	s.now = func() time.Time { return fixedNow }
	s.newID = func() string { return "id-1" }
	return s, mock
}

func TestStore_GetProfile(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(queryGetProfile)).
		WithArgs("muse-closet-ai", "u1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "nickname", "gender", "created_at", "updated_at"}).
			AddRow("u1", "Ria", "Women", fixedNow, fixedNow))

	p, err := s.GetProfile(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ria", p.Nickname)
	assert.Equal(t, models.GenderWomen, p.Gender)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_GetProfile_NotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(queryGetProfile)).
		WithArgs("muse-closet-ai", "ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := s.GetProfile(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeProfileNotFound))
}

func TestStore_SaveProfile(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(queryUpsertProfile)).
		WithArgs("muse-closet-ai", "u1", "Ria", "Women", fixedNow).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(fixedNow.Add(-time.Hour), fixedNow))

	p, err := s.SaveProfile(context.Background(), models.Profile{UserID: "u1", Nickname: "Ria", Gender: models.GenderWomen})
	require.NoError(t, err)
	assert.Equal(t, fixedNow.Add(-time.Hour), p.CreatedAt)
	assert.Equal(t, fixedNow, p.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_AddItem(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(queryInsertItem)).
		WithArgs("id-1", "muse-closet-ai", "u1", "data:image/png;base64,AAA", "Top", "Navy", "Casual", "Linen shirt", fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	item, err := s.AddItem(context.Background(), models.ClothingItem{
		UserID: "u1", Image: "data:image/png;base64,AAA", Category: "Top", Color: "Navy", Style: "Casual", Description: "Linen shirt",
	})
	require.NoError(t, err)
	assert.Equal(t, "id-1", item.ID)
	assert.Equal(t, fixedNow, item.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_AddItem_DatabaseError(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(queryInsertItem)).WillReturnError(fmt.Errorf("connection reset"))

	_, err := s.AddItem(context.Background(), models.ClothingItem{UserID: "u1"})
	require.Error(t, err)
	stdErr, ok := errors.AsStandard(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeStoreFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

func itemRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "image", "category", "color", "style", "description", "created_at"}).
		AddRow("i2", "u1", "img2", "Bottom", "Black", "Formal", "Trousers", fixedNow).
		AddRow("i1", "u1", "img1", "Top", "White", "Casual", "Tee", fixedNow.Add(-time.Hour))
}

func TestStore_ListItems(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(queryListItems)).
		WithArgs("muse-closet-ai", "u1").
		WillReturnRows(itemRows())

	items, err := s.ListItems(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "i2", items[0].ID)
	assert.Equal(t, "Tee", items[1].Description)
}

func TestStore_GetItems(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(queryGetItems)).
		WithArgs("muse-closet-ai", "u1", sqlmock.AnyArg()).
		WillReturnRows(itemRows())

	items, err := s.GetItems(context.Background(), "u1", []string{"i1", "i2", "bogus"})
	require.NoError(t, err)
	assert.Len(t, items, 2)

	empty, err := s.GetItems(context.Background(), "u1", nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_DeleteItem(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(queryDeleteItem)).
		WithArgs("muse-closet-ai", "u1", "i1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(queryDeleteItem)).
		WithArgs("muse-closet-ai", "u1", "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.DeleteItem(context.Background(), "u1", "i1"))

	err := s.DeleteItem(context.Background(), "u1", "missing")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeWardrobeEntryNotFound))
}

func TestStore_SaveAndListOutfits(t *testing.T) {
	s, mock := newMockStore(t)
	acc := "a1"

	mock.ExpectExec(regexp.QuoteMeta(queryInsertOutfit)).
		WithArgs("id-1", "muse-closet-ai", "u1", "t1", "b1", "s1",
			sql.NullString{String: "a1", Valid: true}, "Sharp", `{"name":"Belt","type":"Accessory","why":"Ties it together","myntraQuery":"brown belt"}`, "Office", fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	saved, err := s.SaveOutfit(context.Background(), models.Outfit{
		UserID: "u1", TopID: "t1", BottomID: "b1", ShoesID: "s1", AccessoryID: &acc, Reasoning: "Sharp", Occasion: "Office",
		MissingItem: &models.MissingItem{Name: "Belt", Type: "Accessory", Why: "Ties it together", MyntraQuery: "brown belt"},
	})
	require.NoError(t, err)
	assert.Equal(t, "id-1", saved.ID)

	mock.ExpectQuery(regexp.QuoteMeta(queryListOutfits)).
		WithArgs("muse-closet-ai", "u1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "top_id", "bottom_id", "shoes_id", "accessory_id", "reasoning", "missing_item", "occasion", "created_at"}).
			AddRow("o1", "u1", "t1", "b1", "s1", "a1", "Sharp", []byte(`{"name":"Belt","type":"Accessory","why":"x","myntraQuery":"belt"}`), "Office", fixedNow).
			AddRow("o2", "u1", "t2", "b2", "s2", nil, "Personally curated look.", nil, nil, fixedNow))

	outfits, err := s.ListOutfits(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, outfits, 2)
	require.NotNil(t, outfits[0].AccessoryID)
	assert.Equal(t, "a1", *outfits[0].AccessoryID)
	require.NotNil(t, outfits[0].MissingItem)
	assert.Equal(t, "Belt", outfits[0].MissingItem.Name)
	assert.Nil(t, outfits[1].AccessoryID)
	assert.Nil(t, outfits[1].MissingItem)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_DeleteOutfit(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(queryDeleteOutfit)).
		WithArgs("muse-closet-ai", "u1", "o1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, s.DeleteOutfit(context.Background(), "u1", "o1"))
}

func TestBootstrap(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	for range schemaStatements {
		mock.ExpectExec("CREATE").WillReturnResult(sqlmock.NewResult(0, 0))
	}
	require.NoError(t, Bootstrap(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}
