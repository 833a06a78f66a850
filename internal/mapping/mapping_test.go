package mapping

import (
	"testing"

	"WooWithSupplier/internal/database"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
)

func newTestDB(t *testing.T) *sqlx.DB {
	db, err := sqlx.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(database.DB_SCHEMA); err != nil {
		t.Fatal(err)
	}
	return db
}

func TestResolveEmpty(t *testing.T) {
	Assert := assert.New(t)

	db := newTestDB(t)
	defer db.Close()
	mapper := NewMapper(db)

	_, found := mapper.Resolve("CAT-1")
	Assert.False(found)
}

func TestResolveAuto(t *testing.T) {
	Assert := assert.New(t)

	db := newTestDB(t)
	defer db.Close()
	mapper := NewMapper(db)

	Assert.NoError(mapper.SetAuto("CAT-1", 10))

	id, found := mapper.Resolve("CAT-1")
	Assert.True(found)
	Assert.Equal(10, id)
}

func TestManualWinsOverAuto(t *testing.T) {
	Assert := assert.New(t)

	db := newTestDB(t)
	defer db.Close()
	mapper := NewMapper(db)

	Assert.NoError(mapper.SetAuto("CAT-1", 10))
	Assert.NoError(mapper.SetManual("CAT-1", 99))

	id, found := mapper.Resolve("CAT-1")
	Assert.True(found)
	Assert.Equal(99, id)

	// SetAuto не трогает ручной маппинг
	Assert.NoError(mapper.SetAuto("CAT-1", 11))
	id, _ = mapper.Resolve("CAT-1")
	Assert.Equal(99, id)
}

func TestDeleteManualFallsBackToAuto(t *testing.T) {
	Assert := assert.New(t)

	db := newTestDB(t)
	defer db.Close()
	mapper := NewMapper(db)

	Assert.NoError(mapper.SetAuto("CAT-1", 10))
	Assert.NoError(mapper.SetManual("CAT-1", 99))
	Assert.NoError(mapper.DeleteManual("CAT-1"))

	id, found := mapper.Resolve("CAT-1")
	Assert.True(found)
	Assert.Equal(10, id)
}

func TestSetAutoUpsert(t *testing.T) {
	Assert := assert.New(t)

	db := newTestDB(t)
	defer db.Close()
	mapper := NewMapper(db)

	Assert.NoError(mapper.SetAuto("CAT-1", 10))
	Assert.NoError(mapper.SetAuto("CAT-1", 12))

	id, _ := mapper.Resolve("CAT-1")
	Assert.Equal(12, id)

	rows, err := mapper.List()
	Assert.NoError(err)
	Assert.Len(rows, 1)
}
