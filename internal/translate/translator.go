package translate

import (
	"crypto/sha256"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"WooWithSupplier/internal/database"
	"WooWithSupplier/internal/supplierapi/models"
	"WooWithSupplier/pkg/logging"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// SOURCE_LANG_DEFAULT - родной язык каталога поставщика
const SOURCE_LANG_DEFAULT = "es"

// languagePriority - порядок выбора языка при отсутствии целевого в мультиязычном поле
var languagePriority = []string{"en", "es", "de", "fr", "it"}

type Translator struct {
	db         *sqlx.DB
	backend    Backend
	targetLang string
}

func NewTranslator(db *sqlx.DB, backend Backend, targetLang string) (*Translator, error) {
	if targetLang == "" {
		return nil, errors.New("targetLang не задан")
	}
	return &Translator{
		db:         db,
		backend:    backend,
		targetLang: strings.ToLower(targetLang),
	}, nil
}

// NormalizeSourceLang - пустой, auto и мусорные длинные коды считаем родным языком поставщика
func NormalizeSourceLang(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" || lang == "auto" || len(lang) > 5 {
		return SOURCE_LANG_DEFAULT
	}
	return lang
}

func cacheHash(text string, sourceLang string, targetLang string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s", text, sourceLang, targetLang)))
	return fmt.Sprintf("%x", sum)
}

func (t *Translator) cacheGet(hash string) (string, bool) {
	logger := logging.GetLogger()

	var entry database.TranslationCache
	err := t.db.Get(&entry, "SELECT * FROM TranslationCache WHERE Hash=?", hash)
	if err == sql.ErrNoRows {
		return "", false
	}
	if err != nil {
		logger.Errorf("Ошибка при чтении TranslationCache: %v", err)
		return "", false
	}
	return entry.TranslatedText, true
}

func (t *Translator) cachePut(hash string, sourceLang string, sourceText string, translated string) {
	logger := logging.GetLogger()

	_, err := t.db.Exec(`INSERT INTO TranslationCache (Hash, SourceLang, TargetLang, SourceText, TranslatedText, Service, CreatedAt)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(Hash) DO UPDATE SET TranslatedText=excluded.TranslatedText, Service=excluded.Service`,
		hash, sourceLang, t.targetLang, sourceText, translated, t.backend.Name(), time.Now().Format(time.RFC3339))
	if err != nil {
		logger.Errorf("Ошибка при записи TranslationCache: %v", err)
	}
}

// Translate - перевод с кешем. Ошибка движка логируется, возвращается исходный текст:
// неудачный перевод не должен блокировать импорт товара.
func (t *Translator) Translate(text string, sourceLang string) string {
	logger := logging.GetLogger()

	if text == "" {
		return ""
	}

	sourceLang = NormalizeSourceLang(sourceLang)
	if sourceLang == t.targetLang {
		return text
	}

	hash := cacheHash(text, sourceLang, t.targetLang)
	if cached, found := t.cacheGet(hash); found {
		return cached
	}

	translated, err := t.backend.Translate(text, sourceLang, t.targetLang)
	if err != nil {
		logger.Errorf("Ошибка перевода (%s->%s), возвращаем исходный текст: %v", sourceLang, t.targetLang, err)
		return text
	}

	t.cachePut(hash, sourceLang, text, translated)
	return translated
}

// TranslateBatch - пачка с кешем: в движок уходит ровно один batch-запрос
// по некешированной части, порядок входа сохраняется.
// При ошибке движка без перевода остается только некешированная часть.
func (t *Translator) TranslateBatch(texts []string, sourceLang string) []string {
	logger := logging.GetLogger()

	sourceLang = NormalizeSourceLang(sourceLang)

	result := make([]string, len(texts))
	if sourceLang == t.targetLang {
		copy(result, texts)
		return result
	}

	uncachedIdx := make([]int, 0, len(texts))
	uncached := make([]string, 0, len(texts))
	for i, text := range texts {
		if text == "" {
			continue
		}
		hash := cacheHash(text, sourceLang, t.targetLang)
		if cached, found := t.cacheGet(hash); found {
			result[i] = cached
		} else {
			uncachedIdx = append(uncachedIdx, i)
			uncached = append(uncached, text)
		}
	}

	if len(uncached) == 0 {
		return result
	}

	translated, err := t.backend.TranslateBatch(uncached, sourceLang, t.targetLang)
	if err != nil || len(translated) != len(uncached) {
		logger.Errorf("Ошибка batch-перевода (%s->%s), некешированная часть без перевода: %v", sourceLang, t.targetLang, err)
		for n, i := range uncachedIdx {
			result[i] = uncached[n]
		}
		return result
	}

	for n, i := range uncachedIdx {
		hash := cacheHash(uncached[n], sourceLang, t.targetLang)
		t.cachePut(hash, sourceLang, uncached[n], translated[n])
		result[i] = translated[n]
	}
	return result
}

// FromMultilingual - достать локализованный текст из мультиязычного поля поставщика.
// Целевой язык берется как есть, иначе идем по списку приоритетов и переводим
// первый заполненный, иначе берем первый попавшийся элемент.
func (t *Translator) FromMultilingual(m *models.Multilingual) string {
	if m == nil || m.IsZero() {
		return ""
	}

	if m.Flat != nil {
		// ключи у поставщика бывают в любом регистре ("EN", "en")
		for lang, v := range m.Flat {
			if v != "" && strings.EqualFold(lang, t.targetLang) {
				return v
			}
		}
		for _, lang := range languagePriority {
			for flatLang, v := range m.Flat {
				if v != "" && strings.EqualFold(flatLang, lang) {
					return t.Translate(v, lang)
				}
			}
		}
		for lang, v := range m.Flat {
			if v != "" {
				return t.Translate(v, lang)
			}
		}
		return ""
	}

	for _, entry := range m.Translations {
		if strings.EqualFold(entry.Reference, t.targetLang) && entry.Value != "" {
			return entry.Value
		}
	}
	for _, lang := range languagePriority {
		for _, entry := range m.Translations {
			if strings.EqualFold(entry.Reference, lang) && entry.Value != "" {
				return t.Translate(entry.Value, lang)
			}
		}
	}

	first := m.Translations[0]
	sourceLang := first.Reference
	if sourceLang == "" {
		sourceLang = m.DefaultLanguageCode
	}
	return t.Translate(first.Value, sourceLang)
}

// ClearCache - полная очистка кеша переводов, по явной команде оператора
func (t *Translator) ClearCache() error {
	_, err := t.db.Exec("DELETE FROM TranslationCache")
	if err != nil {
		return errors.Wrap(err, "Ошибка при очистке TranslationCache")
	}
	return nil
}
