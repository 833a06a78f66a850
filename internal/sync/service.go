package sync

import (
	"fmt"
	"time"

	"WooWithSupplier/internal/telegram"
	"WooWithSupplier/pkg/logging"
)

// ServiceWithRecovered - обертка цикла синхронизации с перехватом паники.
// Вызывается из main в бесконечном цикле, после паники цикл поднимается заново.
func (o *Orchestrator) ServiceWithRecovered() {
	logger := logging.GetLogger()
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("Паника в цикле синхронизации: %v", r)
			telegram.SendMessageToTelegramWithLogError(fmt.Sprintf("WooWithSupplier: паника в цикле синхронизации: %v", r))
		}
	}()
	o.Service()
}

// Service - вечный цикл тиков. Активный проход тикает раз в секунду,
// в простое цикл спит SYNC.Timeout секунд.
func (o *Orchestrator) Service() {
	logger := logging.GetLogger()
	logger.Info("Start Service")
	defer logger.Info("End Service")

	timeout := o.cfg.SYNC.Timeout
	if timeout <= 0 {
		timeout = 10
	}

	for {
		if err := o.Tick(); err != nil {
			logger.Errorf("Ошибка в Tick(): %v", err)
		}

		state, err := GetState(o.db)
		if err != nil {
			logger.Errorf("Ошибка в GetState(): %v", err)
			time.Sleep(time.Duration(timeout) * time.Second)
			continue
		}

		// пауза тоже опрашивается часто, иначе resume будет ждать до минуты
		if isTerminal(state.Status) {
			time.Sleep(time.Duration(timeout) * time.Second)
		} else {
			time.Sleep(1 * time.Second)
		}
	}
}
