package translate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"WooWithSupplier/pkg/logging"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

const LLM_DEFAULT_URL = "https://api.openai.com"

// LLM_BATCH_RETRY_DELAY - одна повторная попытка для batch, фиксированная пауза
const LLM_BATCH_RETRY_DELAY = 3 * time.Second

// slowModels - reasoning-модели, перевод через них занимает минуты,
// такие запросы не делаем вообще
var slowModels = []string{"o1", "o1-mini", "o1-preview", "o3", "o3-mini", "deepseek-reasoner", "deepseek-r1"}

type LLMBackend struct {
	url        string
	key        string
	model      string
	client     *resty.Client
	retryDelay time.Duration
}

func NewLLMBackend(url string, key string, model string, timeout int) *LLMBackend {
	if url == "" {
		url = LLM_DEFAULT_URL
	}
	if timeout <= 0 {
		timeout = 60 // LLM заметно медленнее классических MT
	}
	client := resty.New()
	client.SetTimeout(time.Duration(timeout) * time.Second)
	return &LLMBackend{url: url, key: key, model: model, client: client, retryDelay: LLM_BATCH_RETRY_DELAY}
}

func (l *LLMBackend) Name() string {
	return "llm"
}

// IsSlowModel - известная медленная модель, переводить не будем
func (l *LLMBackend) IsSlowModel() bool {
	model := strings.ToLower(l.model)
	for _, slow := range slowModels {
		if model == slow || strings.HasPrefix(model, slow+"-") {
			return true
		}
	}
	return strings.Contains(model, "reasoning") || strings.Contains(model, "thinking")
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (l *LLMBackend) complete(system string, user string) (string, error) {
	var result chatResponse
	resp, err := l.client.R().
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", l.key)).
		SetBody(chatRequest{
			Model: l.model,
			Messages: []chatMessage{
				{Role: "system", Content: system},
				{Role: "user", Content: user},
			},
			Temperature: 0,
		}).
		SetResult(&result).
		Post(fmt.Sprintf("%s/v1/chat/completions", l.url))
	if err != nil {
		return "", errors.Wrap(err, "Ошибка при запросе в LLM")
	}
	if !resp.IsSuccess() {
		return "", errors.New(fmt.Sprintf("LLM: status %d: %s", resp.StatusCode(), resp.Body()))
	}
	if len(result.Choices) == 0 {
		return "", errors.New("LLM: пустой ответ, нет choices")
	}
	return result.Choices[0].Message.Content, nil
}

func (l *LLMBackend) Translate(text string, sourceLang string, targetLang string) (string, error) {
	logger := logging.GetLogger()
	logger.Println("LLMBackend.Translate:>Start")
	defer logger.Println("LLMBackend.Translate:>End")

	if l.IsSlowModel() {
		logger.Warningf("Модель %s слишком медленная для перевода, возвращаем текст без изменений", l.model)
		return text, nil
	}

	system := fmt.Sprintf("You are a professional translator. Translate the user text from %s to %s. Reply with the translation only, no explanations.", sourceLang, targetLang)
	return l.complete(system, text)
}

func (l *LLMBackend) TranslateBatch(texts []string, sourceLang string, targetLang string) ([]string, error) {
	logger := logging.GetLogger()
	logger.Println("LLMBackend.TranslateBatch:>Start")
	defer logger.Println("LLMBackend.TranslateBatch:>End")

	if l.IsSlowModel() {
		logger.Warningf("Модель %s слишком медленная для перевода, возвращаем тексты без изменений", l.model)
		result := make([]string, len(texts))
		copy(result, texts)
		return result, nil
	}

	system := fmt.Sprintf("You are a professional translator. Translate each numbered line from %s to %s. Reply with the same numbered list, one translation per line, no explanations.", sourceLang, targetLang)

	var sb strings.Builder
	for i, text := range texts {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, strings.ReplaceAll(text, "\n", " ")))
	}
	user := sb.String()

	content, err := l.complete(system, user)
	if err != nil {
		logger.Warningf("Повтор batch-перевода через %s, ошибка: %v", l.retryDelay, err)
		time.Sleep(l.retryDelay)
		content, err = l.complete(system, user)
		if err != nil {
			return nil, errors.Wrap(err, "failed in complete()")
		}
	}

	return parseNumberedList(content, texts), nil
}

var numberedLine = regexp.MustCompile(`^\s*(\d+)[.)]\s*(.*)$`)

// parseNumberedList - разбор нумерованного ответа модели обратно по позициям.
// Непонятные и пропущенные позиции заполняются исходным текстом,
// кривой ответ модели не должен ничего ронять.
func parseNumberedList(content string, originals []string) []string {
	parsed := make(map[int]string)
	current := 0
	for _, line := range strings.Split(content, "\n") {
		if m := numberedLine.FindStringSubmatch(line); m != nil {
			n, err := strconv.Atoi(m[1])
			if err == nil && n >= 1 && n <= len(originals) {
				current = n
				parsed[current] = m[2]
				continue
			}
		}
		if current != 0 && strings.TrimSpace(line) != "" {
			parsed[current] = parsed[current] + " " + strings.TrimSpace(line)
		}
	}

	result := make([]string, len(originals))
	for i := range originals {
		if text, found := parsed[i+1]; found && strings.TrimSpace(text) != "" {
			result[i] = strings.TrimSpace(text)
		} else {
			result[i] = originals[i]
		}
	}
	return result
}
