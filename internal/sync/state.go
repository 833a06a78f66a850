package sync

import (
	"fmt"
	"time"

	"WooWithSupplier/internal/database"
	"WooWithSupplier/pkg/logging"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// GetState - единственная строка SyncState (ID=1)
func GetState(db *sqlx.DB) (*database.SyncState, error) {
	var state database.SyncState
	err := db.Get(&state, "SELECT * FROM SyncState WHERE ID=1")
	if err != nil {
		return nil, errors.Wrap(err, "Ошибка при чтении SyncState")
	}
	return &state, nil
}

// saveState - оркестратор единственный писатель полей прогресса,
// Requested при сохранении не трогаем
func saveState(db *sqlx.DB, state *database.SyncState) error {
	state.UpdatedAt = time.Now().Format(time.RFC3339)
	_, err := db.Exec(`UPDATE SyncState SET
		Status=?, ProfileID=?, BatchID=?, Page=?, Processed=?, Created=?, Updated=?, Failed=?, StartedAt=?, UpdatedAt=?
		WHERE ID=1`,
		state.Status, state.ProfileID, state.BatchID, state.Page,
		state.Processed, state.Created, state.Updated, state.Failed,
		state.StartedAt, state.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, "Ошибка при записи SyncState")
	}
	return nil
}

// setRequested - запись запроса оператора; хендлеры пишут только это поле
func setRequested(db *sqlx.DB, requested string) error {
	_, err := db.Exec("UPDATE SyncState SET Requested=? WHERE ID=1", requested)
	if err != nil {
		return errors.Wrap(err, "Ошибка при записи SyncState.Requested")
	}
	return nil
}

// takeRequested - забрать и обнулить запрос оператора
func takeRequested(db *sqlx.DB) (string, error) {
	state, err := GetState(db)
	if err != nil {
		return "", err
	}
	if state.Requested == "" {
		return "", nil
	}
	if err := setRequested(db, ""); err != nil {
		return "", err
	}
	return state.Requested, nil
}

func appendLog(db *sqlx.DB, batchID string, level string, reference string, message string) {
	logger := logging.GetLogger()

	_, err := db.Exec(`INSERT INTO SyncLog (BatchID, Level, Reference, Message, CreatedAt) VALUES (?, ?, ?, ?, ?)`,
		batchID, level, reference, message, time.Now().Format(time.RFC3339))
	if err != nil {
		logger.Errorf("Ошибка при записи SyncLog: %v", err)
	}
}

func appendHistory(db *sqlx.DB, state *database.SyncState) error {
	_, err := db.Exec(`INSERT INTO SyncHistory (BatchID, ProfileID, Status, Page, Processed, Created, Updated, Failed, StartedAt, FinishedAt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		state.BatchID, state.ProfileID, state.Status, state.Page,
		state.Processed, state.Created, state.Updated, state.Failed,
		state.StartedAt, time.Now().Format(time.RFC3339))
	if err != nil {
		return errors.Wrap(err, "Ошибка при записи SyncHistory")
	}
	return nil
}

func HistoryList(db *sqlx.DB, limit int) ([]database.SyncHistory, error) {
	if limit <= 0 {
		limit = 50
	}
	var history []database.SyncHistory
	err := db.Select(&history, "SELECT * FROM SyncHistory ORDER BY ID DESC LIMIT ?", limit)
	if err != nil {
		return nil, errors.Wrap(err, "Ошибка при выборке SyncHistory")
	}
	return history, nil
}

// LogFilter - фильтры выборки журнала
type LogFilter struct {
	Level     string
	Reference string
	BatchID   string
	Page      int
	PerPage   int
}

func LogList(db *sqlx.DB, filter LogFilter) ([]database.SyncLog, error) {
	if filter.PerPage <= 0 {
		filter.PerPage = 100
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}

	query := "SELECT * FROM SyncLog WHERE 1=1"
	args := make([]interface{}, 0)
	if filter.Level != "" {
		query += " AND Level=?"
		args = append(args, filter.Level)
	}
	if filter.Reference != "" {
		query += " AND Reference=?"
		args = append(args, filter.Reference)
	}
	if filter.BatchID != "" {
		query += " AND BatchID=?"
		args = append(args, filter.BatchID)
	}
	query += fmt.Sprintf(" ORDER BY ID DESC LIMIT %d OFFSET %d", filter.PerPage, (filter.Page-1)*filter.PerPage)

	var logs []database.SyncLog
	err := db.Select(&logs, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "Ошибка при выборке SyncLog")
	}
	return logs, nil
}
