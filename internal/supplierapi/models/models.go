package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// APIError - ошибка верхнего уровня от API поставщика (не-2xx либо Ok=false в конверте)
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API Supplier: status: %d; message: %s", e.StatusCode, e.Message)
}

type envelope struct {
	Data    json.RawMessage
	Ok      *bool
	Message string
}

// Unwrap - разбор конверта {Data, Ok, Message}, ключи в любом регистре.
// Сначала проверяем Ok=false, иначе возвращаем Data.
// Если конверта нет - ответ отдается как есть.
func Unwrap(raw []byte) (json.RawMessage, error) {
	var asMap map[string]json.RawMessage
	if err := json.Unmarshal(raw, &asMap); err != nil {
		// не объект - например голый список, отдаем как есть
		return raw, nil
	}

	var env envelope
	for k, v := range asMap {
		switch strings.ToLower(k) {
		case "data":
			env.Data = v
		case "ok":
			var ok bool
			if err := json.Unmarshal(v, &ok); err == nil {
				env.Ok = &ok
			}
		case "message":
			_ = json.Unmarshal(v, &env.Message)
		}
	}

	if env.Ok != nil && !*env.Ok {
		return nil, &APIError{Message: env.Message}
	}
	if env.Data != nil {
		return env.Data, nil
	}
	return raw, nil
}

type TranslationEntry struct {
	Reference string `json:"reference"` // код языка
	Value     string `json:"value"`
}

// Multilingual - мультиязычное поле поставщика, приходит в двух форматах:
// плоская карта {"es": "...", "en": "..."} либо
// {"defaultLanguageCode": "es", "translations": [{"reference": "es", "value": "..."}]}
type Multilingual struct {
	DefaultLanguageCode string
	Translations        []TranslationEntry
	Flat                map[string]string
}

func (m *Multilingual) UnmarshalJSON(data []byte) error {
	var structured struct {
		DefaultLanguageCode string             `json:"defaultLanguageCode"`
		Translations        []TranslationEntry `json:"translations"`
	}
	if err := json.Unmarshal(data, &structured); err == nil && structured.Translations != nil {
		m.DefaultLanguageCode = structured.DefaultLanguageCode
		m.Translations = structured.Translations
		return nil
	}

	var flat map[string]string
	if err := json.Unmarshal(data, &flat); err == nil {
		m.Flat = flat
		return nil
	}

	// одиночная строка тоже встречается, кладем как флэт без языка
	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		m.Flat = map[string]string{"": plain}
		return nil
	}

	return nil // незнакомый формат не валит разбор всей записи
}

// IsZero - поле пустое в обоих форматах
func (m *Multilingual) IsZero() bool {
	return len(m.Translations) == 0 && len(m.Flat) == 0
}

type Variant struct {
	Reference  string            `json:"reference"`
	Net        float64           `json:"net"`
	Attributes map[string]string `json:"attributes"`
}

type Product struct {
	Reference   string            `json:"reference"`
	Name        Multilingual      `json:"name"`
	Description Multilingual      `json:"description"`
	RRP         float64           `json:"rrp"`
	Net         float64           `json:"net"`
	Currency    string            `json:"currency"`
	Active      bool              `json:"active"`
	Images      []string          `json:"images"`
	Categories  []string          `json:"categories"`
	Attributes  map[string]string `json:"attributes"`
	Variants    []Variant         `json:"variants"`
	UpdatedAt   string            `json:"updatedAt"`
}

type Category struct {
	Reference       string       `json:"reference"`
	Name            Multilingual `json:"name"`
	ParentReference string       `json:"parentReference"`
}

type StockItem struct {
	Reference string `json:"reference"`
	Quantity  int    `json:"quantity"`
}
