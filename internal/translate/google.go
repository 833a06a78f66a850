package translate

import (
	"fmt"
	"time"

	"WooWithSupplier/pkg/logging"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

const GOOGLE_TRANSLATE_URL = "https://translation.googleapis.com/language/translate/v2"

type GoogleBackend struct {
	key    string
	client *resty.Client
}

func NewGoogleBackend(key string, timeout int) *GoogleBackend {
	if timeout <= 0 {
		timeout = 15
	}
	client := resty.New()
	client.SetTimeout(time.Duration(timeout) * time.Second)
	return &GoogleBackend{key: key, client: client}
}

func (g *GoogleBackend) Name() string {
	return "google"
}

type googleResponse struct {
	Data struct {
		Translations []struct {
			TranslatedText string `json:"translatedText"`
		} `json:"translations"`
	} `json:"data"`
}

func (g *GoogleBackend) Translate(text string, sourceLang string, targetLang string) (string, error) {
	result, err := g.TranslateBatch([]string{text}, sourceLang, targetLang)
	if err != nil {
		return "", err
	}
	return result[0], nil
}

func (g *GoogleBackend) TranslateBatch(texts []string, sourceLang string, targetLang string) ([]string, error) {
	logger := logging.GetLogger()
	logger.Println("GoogleBackend.TranslateBatch:>Start")
	defer logger.Println("GoogleBackend.TranslateBatch:>End")

	var result googleResponse
	resp, err := g.client.R().
		SetQueryParam("key", g.key).
		SetBody(map[string]interface{}{
			"q":      texts,
			"source": sourceLang,
			"target": targetLang,
			"format": "text",
		}).
		SetResult(&result).
		Post(GOOGLE_TRANSLATE_URL)
	if err != nil {
		return nil, errors.Wrap(err, "Ошибка при запросе в Google Translate")
	}
	if !resp.IsSuccess() {
		return nil, errors.New(fmt.Sprintf("Google Translate: status %d: %s", resp.StatusCode(), resp.Body()))
	}
	if len(result.Data.Translations) != len(texts) {
		return nil, errors.New(fmt.Sprintf("Google Translate: ожидали %d переводов, получили %d", len(texts), len(result.Data.Translations)))
	}

	translated := make([]string, len(texts))
	for i, t := range result.Data.Translations {
		translated[i] = t.TranslatedText
	}
	return translated, nil
}
