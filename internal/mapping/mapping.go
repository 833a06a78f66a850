package mapping

import (
	"database/sql"

	"WooWithSupplier/internal/database"
	"WooWithSupplier/pkg/logging"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

const (
	KIND_AUTO   = "auto"   // построено синхронизацией из иерархии поставщика, перезаписываемо
	KIND_MANUAL = "manual" // задано оператором, синхронизация не трогает
)

type Mapper struct {
	db *sqlx.DB
}

func NewMapper(db *sqlx.DB) *Mapper {
	return &Mapper{db: db}
}

// Resolve - reference поставщика -> ID категории WooCommerce.
// Ручной маппинг всегда побеждает автоматический.
func (m *Mapper) Resolve(ref string) (int, bool) {
	logger := logging.GetLogger()

	var row database.CategoryMap
	err := m.db.Get(&row, "SELECT * FROM CategoryMap WHERE Ref=? AND Kind=?", ref, KIND_MANUAL)
	if err == nil {
		return row.WooID, true
	}
	if err != sql.ErrNoRows {
		logger.Errorf("Ошибка при чтении CategoryMap: %v", err)
		return 0, false
	}

	err = m.db.Get(&row, "SELECT * FROM CategoryMap WHERE Ref=? AND Kind=?", ref, KIND_AUTO)
	if err == sql.ErrNoRows {
		return 0, false
	}
	if err != nil {
		logger.Errorf("Ошибка при чтении CategoryMap: %v", err)
		return 0, false
	}
	return row.WooID, true
}

// SetAuto - upsert только auto-строки, manual не затрагивается никогда
func (m *Mapper) SetAuto(ref string, wooID int) error {
	_, err := m.db.Exec(`INSERT INTO CategoryMap (Ref, WooID, Kind) VALUES (?, ?, ?)
		ON CONFLICT(Ref, Kind) DO UPDATE SET WooID=excluded.WooID`, ref, wooID, KIND_AUTO)
	if err != nil {
		return errors.Wrapf(err, "Ошибка при записи auto-маппинга, Ref=%s", ref)
	}
	return nil
}

func (m *Mapper) SetManual(ref string, wooID int) error {
	_, err := m.db.Exec(`INSERT INTO CategoryMap (Ref, WooID, Kind) VALUES (?, ?, ?)
		ON CONFLICT(Ref, Kind) DO UPDATE SET WooID=excluded.WooID`, ref, wooID, KIND_MANUAL)
	if err != nil {
		return errors.Wrapf(err, "Ошибка при записи manual-маппинга, Ref=%s", ref)
	}
	return nil
}

func (m *Mapper) DeleteManual(ref string) error {
	_, err := m.db.Exec("DELETE FROM CategoryMap WHERE Ref=? AND Kind=?", ref, KIND_MANUAL)
	if err != nil {
		return errors.Wrapf(err, "Ошибка при удалении manual-маппинга, Ref=%s", ref)
	}
	return nil
}

func (m *Mapper) List() ([]database.CategoryMap, error) {
	var rows []database.CategoryMap
	err := m.db.Select(&rows, "SELECT * FROM CategoryMap ORDER BY Ref, Kind")
	if err != nil {
		return nil, errors.Wrap(err, "Ошибка при выборке CategoryMap")
	}
	return rows, nil
}
