package pricing

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

type ratesMock struct {
	rates map[string]float64
	err   error
	calls int
}

func (m *ratesMock) Rates() (map[string]float64, error) {
	m.calls++
	return m.rates, m.err
}

func TestConvert(t *testing.T) {
	Assert := assert.New(t)

	provider := &ratesMock{rates: map[string]float64{"EUR_USD": 5}}
	converter := NewConverter(provider, "EUR", "USD", 20, ROUNDING_NONE)

	price, err := converter.Convert(100)
	Assert.NoError(err)
	Assert.Equal(600.0, price)
}

func TestConvertZeroPrice(t *testing.T) {
	Assert := assert.New(t)

	provider := &ratesMock{rates: map[string]float64{"EUR_USD": 5}}
	converter := NewConverter(provider, "EUR", "USD", 20, ROUNDING_NONE)

	price, err := converter.Convert(0)
	Assert.NoError(err)
	Assert.Equal(0.0, price)
	Assert.Equal(0, provider.calls)
}

func TestConvertNegativePrice(t *testing.T) {
	Assert := assert.New(t)

	provider := &ratesMock{rates: map[string]float64{"EUR_USD": 5}}
	converter := NewConverter(provider, "EUR", "USD", 20, ROUNDING_NONE)

	_, err := converter.Convert(-1)
	Assert.Error(err)
}

func TestConvertSameCurrency(t *testing.T) {
	Assert := assert.New(t)

	provider := &ratesMock{}
	converter := NewConverter(provider, "EUR", "EUR", 0, ROUNDING_NONE)

	price, err := converter.Convert(12.34)
	Assert.NoError(err)
	Assert.Equal(12.34, price)
	Assert.Equal(0, provider.calls)
}

func TestConvertReverseRate(t *testing.T) {
	Assert := assert.New(t)

	// прямого EUR_USD нет, есть обратный USD_EUR=0.5 -> курс 2
	provider := &ratesMock{rates: map[string]float64{"USD_EUR": 0.5}}
	converter := NewConverter(provider, "EUR", "USD", 0, ROUNDING_NONE)

	price, err := converter.Convert(10)
	Assert.NoError(err)
	Assert.Equal(20.0, price)
}

func TestConvertRateNotFound(t *testing.T) {
	Assert := assert.New(t)

	provider := &ratesMock{rates: map[string]float64{"GBP_USD": 1.3}}
	converter := NewConverter(provider, "EUR", "USD", 0, ROUNDING_NONE)

	_, err := converter.Convert(10)
	Assert.Error(err)
}

func TestConvertProviderError(t *testing.T) {
	Assert := assert.New(t)

	provider := &ratesMock{err: errors.New("сеть недоступна")}
	converter := NewConverter(provider, "EUR", "USD", 0, ROUNDING_NONE)

	_, err := converter.Convert(10)
	Assert.Error(err)
}

func TestRateCached(t *testing.T) {
	Assert := assert.New(t)

	provider := &ratesMock{rates: map[string]float64{"EUR_USD": 2}}
	converter := NewConverter(provider, "EUR", "USD", 0, ROUNDING_NONE)

	_, err := converter.Convert(10)
	Assert.NoError(err)
	_, err = converter.Convert(20)
	Assert.NoError(err)
	Assert.Equal(1, provider.calls)

	converter.ClearCache()
	_, err = converter.Convert(30)
	Assert.NoError(err)
	Assert.Equal(2, provider.calls)
}

func TestApplyRounding(t *testing.T) {
	Assert := assert.New(t)

	tests := []struct {
		value    float64
		policy   string
		expected float64
	}{
		{602.3, ROUNDING_NONE, 602.3},
		{602.3, ROUNDING_CEIL, 603},
		{602.3, ROUNDING_NEAREST5, 605},
		{602.3, ROUNDING_NEAREST10, 610},
		{600, ROUNDING_NEAREST10, 600},
		{601, ROUNDING_NEAREST5, 605},
	}
	for _, test := range tests {
		t.Logf("Test rounding: %f %s", test.value, test.policy)
		Assert.InDelta(test.expected, applyRounding(test.value, test.policy), 0.0001)
	}

	Assert.InDelta(602.99, applyRounding(602.3, ROUNDING_99), 0.0001)
	Assert.InDelta(602.99, applyRounding(602.99, ROUNDING_99), 0.0001)
}
