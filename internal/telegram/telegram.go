package telegram

import (
	"sync"

	"WooWithSupplier/internal/config"
	"WooWithSupplier/pkg/logging"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"github.com/pkg/errors"
)

var bot *tgbotapi.BotAPI
var once sync.Once
var initErr error

func getBot() (*tgbotapi.BotAPI, error) {
	once.Do(func() {
		cfg := config.GetConfig()
		if cfg.TELEGRAM.BotToken == "" {
			initErr = errors.New("TELEGRAM.BotToken не задан")
			return
		}
		bot, initErr = tgbotapi.NewBotAPI(cfg.TELEGRAM.BotToken)
		if initErr != nil {
			initErr = errors.Wrap(initErr, "failed in NewBotAPI()")
			return
		}
		bot.Debug = cfg.TELEGRAM.Debug == 1
	})
	return bot, initErr
}

// SendMessage - отправка отчета в чат из конфига
func SendMessage(text string) error {
	b, err := getBot()
	if err != nil {
		return err
	}
	cfg := config.GetConfig()
	message := tgbotapi.NewMessage(cfg.TELEGRAM.ChatID, text)
	if _, err := b.Send(message); err != nil {
		return errors.Wrap(err, "failed in Send()")
	}
	return nil
}

// SendMessageToTelegramWithLogError - то же, но ошибка отправки только в лог,
// для вызовов из мест, где телеграм не должен ронять основную работу
func SendMessageToTelegramWithLogError(text string) {
	if err := SendMessage(text); err != nil {
		logging.GetLogger().Errorf("Ошибка при отправке сообщения в Telegram: %v", err)
	}
}
