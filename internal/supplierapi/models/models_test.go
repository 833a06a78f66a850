package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnwrapEnvelope(t *testing.T) {
	Assert := assert.New(t)

	data, err := Unwrap([]byte(`{"Data": [{"reference": "A-1"}], "Ok": true, "Message": ""}`))
	Assert.NoError(err)
	Assert.JSONEq(`[{"reference": "A-1"}]`, string(data))
}

func TestUnwrapEnvelopeLowercaseKeys(t *testing.T) {
	Assert := assert.New(t)

	data, err := Unwrap([]byte(`{"data": [1, 2], "ok": true}`))
	Assert.NoError(err)
	Assert.JSONEq(`[1, 2]`, string(data))
}

func TestUnwrapOkFalse(t *testing.T) {
	Assert := assert.New(t)

	// Ok=false важнее содержимого Data
	_, err := Unwrap([]byte(`{"Data": [1], "Ok": false, "Message": "invalid key"}`))
	Assert.Error(err)

	apiErr, ok := err.(*APIError)
	Assert.True(ok)
	Assert.Equal("invalid key", apiErr.Message)
}

func TestUnwrapBareList(t *testing.T) {
	Assert := assert.New(t)

	data, err := Unwrap([]byte(`[{"reference": "A-1"}]`))
	Assert.NoError(err)
	Assert.JSONEq(`[{"reference": "A-1"}]`, string(data))
}

func TestUnwrapPlainObject(t *testing.T) {
	Assert := assert.New(t)

	// объект без конверта отдается как есть
	data, err := Unwrap([]byte(`{"EUR_USD": 1.1}`))
	Assert.NoError(err)
	Assert.JSONEq(`{"EUR_USD": 1.1}`, string(data))
}

func TestMultilingualFlat(t *testing.T) {
	Assert := assert.New(t)

	var m Multilingual
	err := json.Unmarshal([]byte(`{"es": "Silla", "en": "Chair"}`), &m)
	Assert.NoError(err)
	Assert.Equal("Silla", m.Flat["es"])
	Assert.Equal("Chair", m.Flat["en"])
	Assert.False(m.IsZero())
}

func TestMultilingualStructured(t *testing.T) {
	Assert := assert.New(t)

	var m Multilingual
	err := json.Unmarshal([]byte(`{"defaultLanguageCode": "es", "translations": [{"reference": "es", "value": "Silla"}]}`), &m)
	Assert.NoError(err)
	Assert.Equal("es", m.DefaultLanguageCode)
	Assert.Len(m.Translations, 1)
	Assert.Equal("Silla", m.Translations[0].Value)
}

func TestMultilingualPlainString(t *testing.T) {
	Assert := assert.New(t)

	var m Multilingual
	err := json.Unmarshal([]byte(`"Silla plegable"`), &m)
	Assert.NoError(err)
	Assert.Equal("Silla plegable", m.Flat[""])
}

func TestMultilingualUnknownShape(t *testing.T) {
	Assert := assert.New(t)

	// незнакомый формат не валит разбор записи целиком
	var m Multilingual
	err := json.Unmarshal([]byte(`12345`), &m)
	Assert.NoError(err)
	Assert.True(m.IsZero())
}

func TestProductUnmarshal(t *testing.T) {
	Assert := assert.New(t)

	raw := `{
		"reference": "A-1",
		"name": {"es": "Silla"},
		"rrp": 99.9,
		"net": 50,
		"active": true,
		"categories": ["CAT-1"],
		"variants": [{"reference": "A-1-R", "net": 45, "attributes": {"color": "rojo"}}]
	}`
	var p Product
	err := json.Unmarshal([]byte(raw), &p)
	Assert.NoError(err)
	Assert.Equal("A-1", p.Reference)
	Assert.Equal(99.9, p.RRP)
	Assert.True(p.Active)
	Assert.Len(p.Variants, 1)
	Assert.Equal("rojo", p.Variants[0].Attributes["color"])
}
