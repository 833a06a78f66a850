package sync

// Статусы запуска синхронизации
const (
	STATUS_IDLE      = "idle"
	STATUS_RUNNING   = "running"
	STATUS_PAUSING   = "pausing"
	STATUS_PAUSED    = "paused"
	STATUS_STOPPING  = "stopping"
	STATUS_STOPPED   = "stopped"
	STATUS_COMPLETED = "completed"
	STATUS_FAILED    = "failed"
)

// Запросы оператора, пишутся хендлерами в SyncState.Requested,
// оркестратор забирает их на ближайшем чекпоинте
const (
	REQUEST_PAUSE  = "pause"
	REQUEST_RESUME = "resume"
	REQUEST_STOP   = "stop"
)

// Уровни SyncLog
const (
	LOG_SUCCESS = "success"
	LOG_WARNING = "warning"
	LOG_ERROR   = "error"
)

// SETTING_LAST_SYNC - отметка времени последнего успешного запуска,
// уходит в newerThan следующего инкрементального запроса
const SETTING_LAST_SYNC = "last_sync"

// isTerminal - из этих статусов можно запускать новый проход
func isTerminal(status string) bool {
	switch status {
	case STATUS_IDLE, STATUS_COMPLETED, STATUS_FAILED, STATUS_STOPPED:
		return true
	}
	return false
}
