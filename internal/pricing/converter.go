package pricing

import (
	"fmt"
	"math"

	"WooWithSupplier/pkg/logging"

	"github.com/pkg/errors"
)

const (
	ROUNDING_NONE      = "none"
	ROUNDING_CEIL      = "ceil"
	ROUNDING_99        = "99"
	ROUNDING_NEAREST5  = "nearest5"
	ROUNDING_NEAREST10 = "nearest10"
)

// RateProvider - источник курсов валют, ключи вида EUR_USD
type RateProvider interface {
	Rates() (map[string]float64, error)
}

// FixedRateProvider - фиксированный курс из конфига или профиля
type FixedRateProvider struct {
	From string
	To   string
	Rate float64
}

func (p *FixedRateProvider) Rates() (map[string]float64, error) {
	return map[string]float64{fmt.Sprintf("%s_%s", p.From, p.To): p.Rate}, nil
}

type Converter struct {
	provider RateProvider
	from     string
	to       string
	markup   float64
	rounding string

	rate       float64
	rateLoaded bool
}

func NewConverter(provider RateProvider, from string, to string, markup float64, rounding string) *Converter {
	if rounding == "" {
		rounding = ROUNDING_NONE
	}
	return &Converter{
		provider: provider,
		from:     from,
		to:       to,
		markup:   markup,
		rounding: rounding,
	}
}

// ClearCache - сбросить закешированный курс, следующий Convert перечитает провайдера
func (c *Converter) ClearCache() {
	c.rateLoaded = false
	c.rate = 0
}

// Convert - цена поставщика -> цена магазина:
// price * rate * (1 + markup/100), округление до 2 знаков, затем политика округления
func (c *Converter) Convert(price float64) (float64, error) {
	if price < 0 {
		return 0, errors.New(fmt.Sprintf("отрицательная цена: %f", price))
	}
	if price == 0 {
		return 0, nil
	}

	rate, err := c.getRate()
	if err != nil {
		return 0, err
	}

	converted := price * rate * (1 + c.markup/100)
	converted = math.Round(converted*100) / 100

	return applyRounding(converted, c.rounding), nil
}

func (c *Converter) getRate() (float64, error) {
	logger := logging.GetLogger()

	if c.rateLoaded {
		return c.rate, nil
	}
	if c.from == c.to {
		c.rate = 1
		c.rateLoaded = true
		return c.rate, nil
	}

	rates, err := c.provider.Rates()
	if err != nil {
		return 0, errors.Wrap(err, "failed in RateProvider.Rates()")
	}

	direct := fmt.Sprintf("%s_%s", c.from, c.to)
	reverse := fmt.Sprintf("%s_%s", c.to, c.from)

	if rate, found := rates[direct]; found && rate != 0 {
		c.rate = rate
	} else if rate, found := rates[reverse]; found && rate != 0 {
		c.rate = 1 / rate
	} else {
		return 0, errors.New(fmt.Sprintf("курс %s не найден", direct))
	}

	logger.Debugf("Курс %s = %f", direct, c.rate)
	c.rateLoaded = true
	return c.rate, nil
}

func applyRounding(v float64, policy string) float64 {
	switch policy {
	case ROUNDING_CEIL:
		return math.Ceil(v)
	case ROUNDING_99:
		return math.Floor(v) + 0.99
	case ROUNDING_NEAREST5:
		return math.Ceil(v/5) * 5
	case ROUNDING_NEAREST10:
		return math.Ceil(v/10) * 10
	default:
		return v
	}
}
