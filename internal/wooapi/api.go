package wooapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"WooWithSupplier/internal/wooapi/models"
	optionsWoo "WooWithSupplier/internal/wooapi/options"
	"WooWithSupplier/pkg/logging"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

const PER_PAGE_MAX = 100

type WOOAPI interface {
	ProductGet(ID int) (*models.Product, error)
	ProductGetBySku(sku string) (*models.Product, error)
	ProductList(opts ...optionsWoo.Option) ([]*models.Product, error)
	ProductListAll() ([]*models.Product, error)
	ProductAdd(p *models.Product) (*models.Product, error)
	ProductUpdate(p *models.Product) (*models.Product, error)
	ProductDel(ID int, opts ...optionsWoo.Option) error

	ProductCategoryGet(ID int) (*models.ProductCategory, error)
	ProductCategoryList(opts ...optionsWoo.Option) ([]*models.ProductCategory, error)
	ProductCategoryListAll() ([]*models.ProductCategory, error)
	ProductCategoryAdd(c *models.ProductCategory) (*models.ProductCategory, error)
	ProductCategoryUpdate(c *models.ProductCategory) (*models.ProductCategory, error)
	ProductCategoryDel(ID int, opts ...optionsWoo.Option) error

	ProductVariationGet(productID int, ID int) (*models.ProductVariation, error)
	ProductVariationList(productID int, opts ...optionsWoo.Option) ([]*models.ProductVariation, error)
	ProductVariationAdd(productID int, v *models.ProductVariation) (*models.ProductVariation, error)
	ProductVariationUpdate(productID int, v *models.ProductVariation) (*models.ProductVariation, error)
	ProductVariationDel(productID int, ID int, opts ...optionsWoo.Option) error
}

var wooapiGlobal WOOAPI

type wooapi struct {
	url         string
	key         string
	secret      string
	client      *resty.Client
	rps         int
	requestTime time.Time
}

func NewAPI(url string, key string, secret string, rps int) WOOAPI {
	if rps <= 0 {
		rps = 5
	}
	client := resty.New()
	client.SetTimeout(30 * time.Second)

	wooapiGlobal = &wooapi{
		url:    url,
		key:    key,
		secret: secret,
		client: client,
		rps:    rps,
	}
	return wooapiGlobal
}

func GetAPI() WOOAPI {
	return wooapiGlobal
}

// CheckRPS - WooCommerce на шаредах легко уложить частыми запросами, притормаживаем
func (w *wooapi) CheckRPS() {
	logger := logging.GetLogger()

	TimeDiff := time.Now().Sub(w.requestTime)
	TimeRPS := time.Second / time.Duration(w.rps)

	if TimeDiff <= TimeRPS {
		timeSleep := w.requestTime.Add(TimeRPS).Sub(time.Now())
		logger.Debugf("Over RPS, timeSleep: %s", timeSleep)
		time.Sleep(timeSleep)
	}
}

func (w *wooapi) do(method string, endpoint string, body interface{}, out interface{}, opts ...optionsWoo.Option) error {
	logger := logging.GetLogger()

	w.CheckRPS()
	defer func() {
		w.requestTime = time.Now()
	}()

	req := w.client.R().
		SetQueryParam("consumer_key", w.key).
		SetQueryParam("consumer_secret", w.secret)
	for _, opt := range opts {
		optionStruct := optionsWoo.OptionStruct{}
		opt(&optionStruct)
		req.SetQueryParam(optionStruct.Key, optionStruct.Value)
	}
	if body != nil {
		req.SetBody(body)
	}

	url := fmt.Sprintf("%s/wp-json/wc/v3/%s", w.url, endpoint)
	logger.Debugf("Endpoint: %s %s", method, url)

	resp, err := req.Execute(method, url)
	if err != nil {
		return errors.Wrapf(err, "ошибка при отправке запроса в Woo Api, endpoint:%s", endpoint)
	}
	logger.Debugf(string(resp.Body()))

	if !resp.IsSuccess() {
		var errorWoo models.ErrorWoo
		if err := json.Unmarshal(resp.Body(), &errorWoo); err != nil {
			return errors.New(fmt.Sprintf("Woo Api: status %d, endpoint:%s, body:%s", resp.StatusCode(), endpoint, resp.Body()))
		}
		return &errorWoo
	}

	if out != nil {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return errors.Wrapf(err, "ошибка при json.Unmarshal(), endpoint:%s", endpoint)
		}
	}
	return nil
}

func (w *wooapi) ProductGet(ID int) (*models.Product, error) {
	logger := logging.GetLogger()
	logger.Println("ProductGet:>Start")
	defer logger.Println("ProductGet:>End")

	var product models.Product
	err := w.do(http.MethodGet, fmt.Sprintf("products/%d", ID), nil, &product)
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// ProductGetBySku - поиск по sku, nil если товара нет
func (w *wooapi) ProductGetBySku(sku string) (*models.Product, error) {
	logger := logging.GetLogger()
	logger.Println("ProductGetBySku:>Start")
	defer logger.Println("ProductGetBySku:>End")

	products, err := w.ProductList(optionsWoo.Sku(sku))
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, nil
	}
	return products[0], nil
}

func (w *wooapi) ProductList(opts ...optionsWoo.Option) ([]*models.Product, error) {
	logger := logging.GetLogger()
	logger.Println("ProductList:>Start")
	defer logger.Println("ProductList:>End")

	var products []*models.Product
	err := w.do(http.MethodGet, "products", nil, &products, opts...)
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (w *wooapi) ProductListAll() ([]*models.Product, error) {
	logger := logging.GetLogger()
	logger.Println("ProductListAll:>Start")
	defer logger.Println("ProductListAll:>End")

	all := make([]*models.Product, 0)
	for page := 1; ; page++ {
		products, err := w.ProductList(optionsWoo.Page(page), optionsWoo.PerPage(PER_PAGE_MAX))
		if err != nil {
			return nil, errors.Wrapf(err, "failed in ProductList(page=%d)", page)
		}
		all = append(all, products...)
		if len(products) < PER_PAGE_MAX {
			break
		}
	}
	logger.Infof("Длина списка товаров WOO = %d", len(all))
	return all, nil
}

func (w *wooapi) ProductAdd(p *models.Product) (*models.Product, error) {
	logger := logging.GetLogger()
	logger.Println("ProductAdd:>Start")
	defer logger.Println("ProductAdd:>End")

	var product models.Product
	err := w.do(http.MethodPost, "products", p, &product)
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (w *wooapi) ProductUpdate(p *models.Product) (*models.Product, error) {
	logger := logging.GetLogger()
	logger.Println("ProductUpdate:>Start")
	defer logger.Println("ProductUpdate:>End")

	var product models.Product
	err := w.do(http.MethodPut, fmt.Sprintf("products/%d", p.ID), p, &product)
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (w *wooapi) ProductDel(ID int, opts ...optionsWoo.Option) error {
	logger := logging.GetLogger()
	logger.Println("ProductDel:>Start")
	defer logger.Println("ProductDel:>End")

	return w.do(http.MethodDelete, fmt.Sprintf("products/%d", ID), nil, nil, opts...)
}

func (w *wooapi) ProductCategoryGet(ID int) (*models.ProductCategory, error) {
	logger := logging.GetLogger()
	logger.Println("ProductCategoryGet:>Start")
	defer logger.Println("ProductCategoryGet:>End")

	var category models.ProductCategory
	err := w.do(http.MethodGet, fmt.Sprintf("products/categories/%d", ID), nil, &category)
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (w *wooapi) ProductCategoryList(opts ...optionsWoo.Option) ([]*models.ProductCategory, error) {
	logger := logging.GetLogger()
	logger.Println("ProductCategoryList:>Start")
	defer logger.Println("ProductCategoryList:>End")

	var categories []*models.ProductCategory
	err := w.do(http.MethodGet, "products/categories", nil, &categories, opts...)
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (w *wooapi) ProductCategoryListAll() ([]*models.ProductCategory, error) {
	logger := logging.GetLogger()
	logger.Println("ProductCategoryListAll:>Start")
	defer logger.Println("ProductCategoryListAll:>End")

	all := make([]*models.ProductCategory, 0)
	for page := 1; ; page++ {
		categories, err := w.ProductCategoryList(optionsWoo.Page(page), optionsWoo.PerPage(PER_PAGE_MAX))
		if err != nil {
			return nil, errors.Wrapf(err, "failed in ProductCategoryList(page=%d)", page)
		}
		all = append(all, categories...)
		if len(categories) < PER_PAGE_MAX {
			break
		}
	}
	logger.Infof("Длина списка категорий WOO = %d", len(all))
	return all, nil
}

func (w *wooapi) ProductCategoryAdd(c *models.ProductCategory) (*models.ProductCategory, error) {
	logger := logging.GetLogger()
	logger.Println("ProductCategoryAdd:>Start")
	defer logger.Println("ProductCategoryAdd:>End")

	var category models.ProductCategory
	err := w.do(http.MethodPost, "products/categories", c, &category)
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (w *wooapi) ProductCategoryUpdate(c *models.ProductCategory) (*models.ProductCategory, error) {
	logger := logging.GetLogger()
	logger.Println("ProductCategoryUpdate:>Start")
	defer logger.Println("ProductCategoryUpdate:>End")

	var category models.ProductCategory
	err := w.do(http.MethodPut, fmt.Sprintf("products/categories/%d", c.ID), c, &category)
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (w *wooapi) ProductCategoryDel(ID int, opts ...optionsWoo.Option) error {
	logger := logging.GetLogger()
	logger.Println("ProductCategoryDel:>Start")
	defer logger.Println("ProductCategoryDel:>End")

	return w.do(http.MethodDelete, fmt.Sprintf("products/categories/%d", ID), nil, nil, opts...)
}

func (w *wooapi) ProductVariationGet(productID int, ID int) (*models.ProductVariation, error) {
	logger := logging.GetLogger()
	logger.Println("ProductVariationGet:>Start")
	defer logger.Println("ProductVariationGet:>End")

	var variation models.ProductVariation
	err := w.do(http.MethodGet, fmt.Sprintf("products/%d/variations/%d", productID, ID), nil, &variation)
	if err != nil {
		return nil, err
	}
	return &variation, nil
}

func (w *wooapi) ProductVariationList(productID int, opts ...optionsWoo.Option) ([]*models.ProductVariation, error) {
	logger := logging.GetLogger()
	logger.Println("ProductVariationList:>Start")
	defer logger.Println("ProductVariationList:>End")

	var variations []*models.ProductVariation
	err := w.do(http.MethodGet, fmt.Sprintf("products/%d/variations", productID), nil, &variations, opts...)
	if err != nil {
		return nil, err
	}
	return variations, nil
}

func (w *wooapi) ProductVariationAdd(productID int, v *models.ProductVariation) (*models.ProductVariation, error) {
	logger := logging.GetLogger()
	logger.Println("ProductVariationAdd:>Start")
	defer logger.Println("ProductVariationAdd:>End")

	var variation models.ProductVariation
	err := w.do(http.MethodPost, fmt.Sprintf("products/%d/variations", productID), v, &variation)
	if err != nil {
		return nil, err
	}
	return &variation, nil
}

func (w *wooapi) ProductVariationUpdate(productID int, v *models.ProductVariation) (*models.ProductVariation, error) {
	logger := logging.GetLogger()
	logger.Println("ProductVariationUpdate:>Start")
	defer logger.Println("ProductVariationUpdate:>End")

	var variation models.ProductVariation
	err := w.do(http.MethodPut, fmt.Sprintf("products/%d/variations/%d", productID, v.ID), v, &variation)
	if err != nil {
		return nil, err
	}
	return &variation, nil
}

func (w *wooapi) ProductVariationDel(productID int, ID int, opts ...optionsWoo.Option) error {
	logger := logging.GetLogger()
	logger.Println("ProductVariationDel:>Start")
	defer logger.Println("ProductVariationDel:>End")

	return w.do(http.MethodDelete, fmt.Sprintf("products/%d/variations/%d", productID, ID), nil, nil, opts...)
}
