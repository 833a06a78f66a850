package supplierapi

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"WooWithSupplier/internal/supplierapi/models"
	"WooWithSupplier/pkg/logging"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

// MAX_PAGES_FETCH - предохранитель от бесконечной пагинации при выгрузке данных
const MAX_PAGES_FETCH = 100

// MAX_PAGES_COUNT - предохранитель для подсчета, лимит выше, т.к. страницы не копим
const MAX_PAGES_COUNT = 200

type SUPPLIERAPI interface {
	CategoryList(page int, pageSize int) ([]models.Category, error)
	CategoryListAll() ([]models.Category, error)

	ProductList(page int, pageSize int, filter *ProductFilter) ([]models.Product, error)
	ProductListAll(filter *ProductFilter) ([]models.Product, error)
	ProductCount(filter *ProductFilter) (int, error)

	StockList() (map[string]int, error)
	RateList() (map[string]float64, error)
}

// ProductFilter - фильтры списка товаров.
// NewerThan уходит query-параметром, остальное в JSON-теле запроса.
type ProductFilter struct {
	Active        *bool
	HasImages     *bool
	HasVariants   *bool
	CategoryRef   string
	ReferenceLike string
	NewerThan     string
}

func (f *ProductFilter) Body() map[string]interface{} {
	body := make(map[string]interface{})
	if f == nil {
		return body
	}
	if f.Active != nil {
		body["active"] = *f.Active
	}
	if f.HasImages != nil {
		body["hasImages"] = *f.HasImages
	}
	if f.HasVariants != nil {
		body["hasVariants"] = *f.HasVariants
	}
	if f.CategoryRef != "" {
		body["category"] = f.CategoryRef
	}
	if f.ReferenceLike != "" {
		body["productReference"] = f.ReferenceLike
	}
	return body
}

var supplierapiGlobal SUPPLIERAPI

type supplierapi struct {
	url      string
	client   *resty.Client
	pageSize int
}

func NewAPI(url string, key string, pageSize int) SUPPLIERAPI {
	client := resty.New()
	client.SetTimeout(30 * time.Second)
	client.SetHeader("X-API-KEY", key)
	client.SetHeader("Content-Type", "application/json")

	supplierapiGlobal = &supplierapi{
		url:      url,
		client:   client,
		pageSize: pageSize,
	}
	return supplierapiGlobal
}

func GetAPI() SUPPLIERAPI {
	return supplierapiGlobal
}

// unwrapList - снять конверт и разобрать список; незнакомая, но безобидная форма
// ответа дает пустой список, а не ошибку
func unwrapList(raw []byte, out interface{}) error {
	logger := logging.GetLogger()

	data, err := models.Unwrap(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		logger.Warningf("Неожиданная форма ответа поставщика, считаем список пустым: %s", err)
		return nil
	}
	return nil
}

func (s *supplierapi) checkStatus(resp *resty.Response) error {
	if resp.IsSuccess() {
		return nil
	}
	apiErr := &models.APIError{StatusCode: resp.StatusCode()}
	if data, err := models.Unwrap(resp.Body()); err != nil {
		if e, ok := err.(*models.APIError); ok {
			apiErr.Message = e.Message
		}
	} else {
		_ = json.Unmarshal(data, &apiErr.Message)
	}
	return apiErr
}

func (s *supplierapi) CategoryList(page int, pageSize int) ([]models.Category, error) {
	logger := logging.GetLogger()
	logger.Println("CategoryList:>Start")
	defer logger.Println("CategoryList:>End")

	resp, err := s.client.R().
		SetQueryParam("page", strconv.Itoa(page)).
		SetQueryParam("pageSize", strconv.Itoa(pageSize)).
		Get(fmt.Sprintf("%s/rest/catalog/categories", s.url))
	if err != nil {
		return nil, errors.Wrap(err, "Ошибка при запросе категорий у поставщика")
	}
	logger.Debugf("Response:\n%s", resp.Body())

	if err := s.checkStatus(resp); err != nil {
		return nil, err
	}

	var categories []models.Category
	if err := unwrapList(resp.Body(), &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (s *supplierapi) CategoryListAll() ([]models.Category, error) {
	logger := logging.GetLogger()
	logger.Println("CategoryListAll:>Start")
	defer logger.Println("CategoryListAll:>End")

	all := make([]models.Category, 0)
	for page := 1; ; page++ {
		if page > MAX_PAGES_FETCH {
			logger.Warningf("Достигнут предохранитель пагинации категорий (%d страниц), останавливаемся", MAX_PAGES_FETCH)
			break
		}
		categories, err := s.CategoryList(page, s.pageSize)
		if err != nil {
			return nil, errors.Wrapf(err, "failed in CategoryList(page=%d)", page)
		}
		all = append(all, categories...)
		if len(categories) < s.pageSize {
			break
		}
	}
	logger.Infof("Длина списка категорий поставщика = %d", len(all))
	return all, nil
}

func (s *supplierapi) ProductList(page int, pageSize int, filter *ProductFilter) ([]models.Product, error) {
	logger := logging.GetLogger()
	logger.Println("ProductList:>Start")
	defer logger.Println("ProductList:>End")

	req := s.client.R().
		SetQueryParam("page", strconv.Itoa(page)).
		SetQueryParam("pageSize", strconv.Itoa(pageSize)).
		SetBody(filter.Body())
	if filter != nil && filter.NewerThan != "" {
		req.SetQueryParam("newerThan", filter.NewerThan)
	}

	resp, err := req.Post(fmt.Sprintf("%s/rest/catalog/products", s.url))
	if err != nil {
		return nil, errors.Wrap(err, "Ошибка при запросе товаров у поставщика")
	}
	logger.Debugf("Response:\n%s", resp.Body())

	if err := s.checkStatus(resp); err != nil {
		return nil, err
	}

	var products []models.Product
	if err := unwrapList(resp.Body(), &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *supplierapi) ProductListAll(filter *ProductFilter) ([]models.Product, error) {
	logger := logging.GetLogger()
	logger.Println("ProductListAll:>Start")
	defer logger.Println("ProductListAll:>End")

	all := make([]models.Product, 0)
	for page := 1; ; page++ {
		if page > MAX_PAGES_FETCH {
			logger.Warningf("Достигнут предохранитель пагинации товаров (%d страниц), останавливаемся", MAX_PAGES_FETCH)
			break
		}
		products, err := s.ProductList(page, s.pageSize, filter)
		if err != nil {
			return nil, errors.Wrapf(err, "failed in ProductList(page=%d)", page)
		}
		all = append(all, products...)
		if len(products) < s.pageSize {
			break
		}
	}
	logger.Infof("Длина списка товаров поставщика = %d", len(all))
	return all, nil
}

// ProductCount - дешевый подсчет товаров, страницы не накапливаем
func (s *supplierapi) ProductCount(filter *ProductFilter) (int, error) {
	logger := logging.GetLogger()
	logger.Println("ProductCount:>Start")
	defer logger.Println("ProductCount:>End")

	count := 0
	for page := 1; ; page++ {
		if page > MAX_PAGES_COUNT {
			logger.Warningf("Достигнут предохранитель пагинации подсчета (%d страниц), останавливаемся", MAX_PAGES_COUNT)
			break
		}
		products, err := s.ProductList(page, s.pageSize, filter)
		if err != nil {
			return 0, errors.Wrapf(err, "failed in ProductList(page=%d)", page)
		}
		count += len(products)
		if len(products) < s.pageSize {
			break
		}
	}
	return count, nil
}

// StockList - остатки без пагинации, индексируем по reference варианта
func (s *supplierapi) StockList() (map[string]int, error) {
	logger := logging.GetLogger()
	logger.Println("StockList:>Start")
	defer logger.Println("StockList:>End")

	resp, err := s.client.R().Get(fmt.Sprintf("%s/rest/catalog/stock", s.url))
	if err != nil {
		return nil, errors.Wrap(err, "Ошибка при запросе остатков у поставщика")
	}
	logger.Debugf("Response:\n%s", resp.Body())

	if err := s.checkStatus(resp); err != nil {
		return nil, err
	}

	var items []models.StockItem
	if err := unwrapList(resp.Body(), &items); err != nil {
		return nil, err
	}

	stock := make(map[string]int, len(items))
	for _, item := range items {
		stock[item.Reference] = item.Quantity
	}
	logger.Infof("Длина списка остатков поставщика = %d", len(stock))
	return stock, nil
}

// RateList - курсы валют поставщика, ключи вида EUR_USD
func (s *supplierapi) RateList() (map[string]float64, error) {
	logger := logging.GetLogger()
	logger.Println("RateList:>Start")
	defer logger.Println("RateList:>End")

	resp, err := s.client.R().Get(fmt.Sprintf("%s/rest/exchange-rates", s.url))
	if err != nil {
		return nil, errors.Wrap(err, "Ошибка при запросе курсов валют у поставщика")
	}
	logger.Debugf("Response:\n%s", resp.Body())

	if err := s.checkStatus(resp); err != nil {
		return nil, err
	}

	data, err := models.Unwrap(resp.Body())
	if err != nil {
		return nil, err
	}
	rates := make(map[string]float64)
	if err := json.Unmarshal(data, &rates); err != nil {
		return nil, errors.Wrap(err, "Ошибка при разборе курсов валют")
	}
	return rates, nil
}
