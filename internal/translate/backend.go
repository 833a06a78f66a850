package translate

import (
	"fmt"

	"WooWithSupplier/internal/config"

	"github.com/pkg/errors"
)

// Backend - движок перевода. Batch обязан сохранять порядок входа,
// движки без нативного bulk-эндпоинта реализуют его последовательными вызовами.
type Backend interface {
	Name() string
	Translate(text string, sourceLang string, targetLang string) (string, error)
	TranslateBatch(texts []string, sourceLang string, targetLang string) ([]string, error)
}

func NewBackendFromConfig(cfg *config.Config) (Backend, error) {
	if cfg.TRANSLATE.Key == "" {
		return nil, errors.New("TRANSLATE.Key не задан")
	}
	switch cfg.TRANSLATE.Driver {
	case "google":
		return NewGoogleBackend(cfg.TRANSLATE.Key, cfg.TRANSLATE.Timeout), nil
	case "deepl":
		return NewDeepLBackend(cfg.TRANSLATE.Key, cfg.TRANSLATE.Timeout), nil
	case "llm":
		return NewLLMBackend("", cfg.TRANSLATE.Key, cfg.TRANSLATE.Model, cfg.TRANSLATE.Timeout), nil
	default:
		return nil, errors.New(fmt.Sprintf("неизвестный TRANSLATE.Driver: %s", cfg.TRANSLATE.Driver))
	}
}
