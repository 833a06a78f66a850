package sync

import (
	"WooWithSupplier/internal/database"
	"WooWithSupplier/pkg/logging"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
)

const (
	SCHEDULE_NONE   = "none"
	SCHEDULE_HOURLY = "hourly"
	SCHEDULE_DAILY  = "daily"
	SCHEDULE_WEEKLY = "weekly"
)

// Scheduler - запуск проходов по расписанию профилей
type Scheduler struct {
	orchestrator *Orchestrator
	cron         *cron.Cron
}

func NewScheduler(orchestrator *Orchestrator) *Scheduler {
	return &Scheduler{
		orchestrator: orchestrator,
		cron:         cron.New(),
	}
}

// Reload - перечитать профили из базы и пересобрать задания.
// Вызывается на старте и после изменения профилей через HTTP.
func (s *Scheduler) Reload() error {
	logger := logging.GetLogger()
	logger.Info("Start Scheduler.Reload")
	defer logger.Info("End Scheduler.Reload")

	profiles, err := database.ProfileList(s.orchestrator.db)
	if err != nil {
		return errors.Wrap(err, "failed in ProfileList()")
	}

	s.cron.Stop()
	s.cron = cron.New()

	for _, profile := range profiles {
		spec := scheduleSpec(profile.Schedule)
		if spec == "" {
			continue
		}
		slug := profile.Slug
		_, err := s.cron.AddFunc(spec, func() {
			// попытка запуска поверх идущего прохода не ошибка расписания
			if err := s.orchestrator.Start(slug); err != nil {
				logging.GetLogger().Warningf("Запуск по расписанию пропущен, профиль %s: %v", slug, err)
			}
		})
		if err != nil {
			return errors.Wrapf(err, "failed in AddFunc(profile=%s)", slug)
		}
		logger.Infof("Расписание профиля %s: %s (%s)", slug, profile.Schedule, spec)
	}

	s.cron.Start()
	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func scheduleSpec(schedule string) string {
	switch schedule {
	case SCHEDULE_HOURLY:
		return "0 * * * *"
	case SCHEDULE_DAILY:
		return "0 3 * * *"
	case SCHEDULE_WEEKLY:
		return "0 3 * * 1"
	}
	return ""
}
