package translate

import (
	"fmt"
	"strings"
	"time"

	"WooWithSupplier/pkg/logging"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

const (
	DEEPL_FREE_URL = "https://api-free.deepl.com/v2/translate"
	DEEPL_PRO_URL  = "https://api.deepl.com/v2/translate"
)

type DeepLBackend struct {
	key    string
	url    string
	client *resty.Client
}

// NewDeepLBackend - бесплатные ключи DeepL заканчиваются на ":fx", по этому признаку
// выбираем free/pro эндпоинт
func NewDeepLBackend(key string, timeout int) *DeepLBackend {
	if timeout <= 0 {
		timeout = 15
	}
	url := DEEPL_PRO_URL
	if strings.HasSuffix(key, ":fx") {
		url = DEEPL_FREE_URL
	}
	client := resty.New()
	client.SetTimeout(time.Duration(timeout) * time.Second)
	return &DeepLBackend{key: key, url: url, client: client}
}

func (d *DeepLBackend) Name() string {
	return "deepl"
}

type deeplResponse struct {
	Translations []struct {
		Text string `json:"text"`
	} `json:"translations"`
}

func (d *DeepLBackend) Translate(text string, sourceLang string, targetLang string) (string, error) {
	result, err := d.TranslateBatch([]string{text}, sourceLang, targetLang)
	if err != nil {
		return "", err
	}
	return result[0], nil
}

func (d *DeepLBackend) TranslateBatch(texts []string, sourceLang string, targetLang string) ([]string, error) {
	logger := logging.GetLogger()
	logger.Println("DeepLBackend.TranslateBatch:>Start")
	defer logger.Println("DeepLBackend.TranslateBatch:>End")

	var result deeplResponse
	resp, err := d.client.R().
		SetHeader("Authorization", fmt.Sprintf("DeepL-Auth-Key %s", d.key)).
		SetBody(map[string]interface{}{
			"text":        texts,
			"source_lang": strings.ToUpper(sourceLang),
			"target_lang": strings.ToUpper(targetLang),
		}).
		SetResult(&result).
		Post(d.url)
	if err != nil {
		return nil, errors.Wrap(err, "Ошибка при запросе в DeepL")
	}
	if !resp.IsSuccess() {
		return nil, errors.New(fmt.Sprintf("DeepL: status %d: %s", resp.StatusCode(), resp.Body()))
	}
	if len(result.Translations) != len(texts) {
		return nil, errors.New(fmt.Sprintf("DeepL: ожидали %d переводов, получили %d", len(texts), len(result.Translations)))
	}

	translated := make([]string, len(texts))
	for i, t := range result.Translations {
		translated[i] = t.Text
	}
	return translated, nil
}
