package sync

import (
	"fmt"
	"testing"

	"WooWithSupplier/internal/config"
	"WooWithSupplier/internal/database"
	"WooWithSupplier/internal/mapping"
	"WooWithSupplier/internal/supplierapi"
	modelsSupplier "WooWithSupplier/internal/supplierapi/models"
	"WooWithSupplier/internal/translate"
	modelsWoo "WooWithSupplier/internal/wooapi/models"
	optionsWoo "WooWithSupplier/internal/wooapi/options"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

// supplierMock - постраничный каталог поставщика
type supplierMock struct {
	pages      [][]modelsSupplier.Product
	categories []modelsSupplier.Category
	stock      map[string]int
	failPage   int
}

func (s *supplierMock) CategoryList(page int, pageSize int) ([]modelsSupplier.Category, error) {
	if page == 1 {
		return s.categories, nil
	}
	return nil, nil
}

func (s *supplierMock) CategoryListAll() ([]modelsSupplier.Category, error) {
	return s.categories, nil
}

func (s *supplierMock) ProductList(page int, pageSize int, filter *supplierapi.ProductFilter) ([]modelsSupplier.Product, error) {
	if s.failPage != 0 && page == s.failPage {
		return nil, errors.New("поставщик недоступен")
	}
	if page > len(s.pages) {
		return nil, nil
	}
	return s.pages[page-1], nil
}

func (s *supplierMock) ProductListAll(filter *supplierapi.ProductFilter) ([]modelsSupplier.Product, error) {
	var all []modelsSupplier.Product
	for _, page := range s.pages {
		all = append(all, page...)
	}
	return all, nil
}

func (s *supplierMock) ProductCount(filter *supplierapi.ProductFilter) (int, error) {
	count := 0
	for _, page := range s.pages {
		count += len(page)
	}
	return count, nil
}

func (s *supplierMock) StockList() (map[string]int, error) {
	return s.stock, nil
}

func (s *supplierMock) RateList() (map[string]float64, error) {
	return map[string]float64{}, nil
}

// wooMock - WooCommerce в памяти
type wooMock struct {
	products   map[int]*modelsWoo.Product
	categories map[int]*modelsWoo.ProductCategory
	variations map[int][]*modelsWoo.ProductVariation
	nextID     int
	failAddSku string
}

func newWooMock() *wooMock {
	return &wooMock{
		products:   make(map[int]*modelsWoo.Product),
		categories: make(map[int]*modelsWoo.ProductCategory),
		variations: make(map[int][]*modelsWoo.ProductVariation),
	}
}

func (w *wooMock) ProductGet(ID int) (*modelsWoo.Product, error) {
	return w.products[ID], nil
}

func (w *wooMock) ProductGetBySku(sku string) (*modelsWoo.Product, error) {
	for _, p := range w.products {
		if p.Sku == sku {
			return p, nil
		}
	}
	return nil, nil
}

func (w *wooMock) ProductList(opts ...optionsWoo.Option) ([]*modelsWoo.Product, error) {
	return w.ProductListAll()
}

func (w *wooMock) ProductListAll() ([]*modelsWoo.Product, error) {
	var all []*modelsWoo.Product
	for id := 1; id <= w.nextID; id++ {
		if p, found := w.products[id]; found {
			all = append(all, p)
		}
	}
	return all, nil
}

func (w *wooMock) ProductAdd(p *modelsWoo.Product) (*modelsWoo.Product, error) {
	if w.failAddSku != "" && p.Sku == w.failAddSku {
		return nil, errors.New("duplicate sku")
	}
	w.nextID++
	stored := *p
	stored.ID = w.nextID
	w.products[stored.ID] = &stored
	return &stored, nil
}

func (w *wooMock) ProductUpdate(p *modelsWoo.Product) (*modelsWoo.Product, error) {
	existing, found := w.products[p.ID]
	if !found {
		return nil, errors.New("product not found")
	}
	if p.Name != "" {
		existing.Name = p.Name
	}
	if p.Description != "" {
		existing.Description = p.Description
	}
	if p.RegularPrice != "" {
		existing.RegularPrice = p.RegularPrice
	}
	if p.Status != "" {
		existing.Status = p.Status
	}
	if p.StockQuantity != nil {
		existing.ManageStock = p.ManageStock
		existing.StockQuantity = p.StockQuantity
		existing.StockStatus = p.StockStatus
	}
	return existing, nil
}

func (w *wooMock) ProductDel(ID int, opts ...optionsWoo.Option) error {
	delete(w.products, ID)
	return nil
}

func (w *wooMock) ProductCategoryGet(ID int) (*modelsWoo.ProductCategory, error) {
	c, found := w.categories[ID]
	if !found {
		return nil, errors.New("category not found")
	}
	return c, nil
}

func (w *wooMock) ProductCategoryList(opts ...optionsWoo.Option) ([]*modelsWoo.ProductCategory, error) {
	return w.ProductCategoryListAll()
}

func (w *wooMock) ProductCategoryListAll() ([]*modelsWoo.ProductCategory, error) {
	var all []*modelsWoo.ProductCategory
	for _, c := range w.categories {
		all = append(all, c)
	}
	return all, nil
}

func (w *wooMock) ProductCategoryAdd(c *modelsWoo.ProductCategory) (*modelsWoo.ProductCategory, error) {
	w.nextID++
	stored := *c
	stored.ID = w.nextID
	w.categories[stored.ID] = &stored
	return &stored, nil
}

func (w *wooMock) ProductCategoryUpdate(c *modelsWoo.ProductCategory) (*modelsWoo.ProductCategory, error) {
	existing, found := w.categories[c.ID]
	if !found {
		return nil, errors.New("category not found")
	}
	if c.Name != "" {
		existing.Name = c.Name
	}
	existing.Parent = c.Parent
	return existing, nil
}

func (w *wooMock) ProductCategoryDel(ID int, opts ...optionsWoo.Option) error {
	delete(w.categories, ID)
	return nil
}

func (w *wooMock) ProductVariationGet(productID int, ID int) (*modelsWoo.ProductVariation, error) {
	for _, v := range w.variations[productID] {
		if v.ID == ID {
			return v, nil
		}
	}
	return nil, nil
}

func (w *wooMock) ProductVariationList(productID int, opts ...optionsWoo.Option) ([]*modelsWoo.ProductVariation, error) {
	return w.variations[productID], nil
}

func (w *wooMock) ProductVariationAdd(productID int, v *modelsWoo.ProductVariation) (*modelsWoo.ProductVariation, error) {
	w.nextID++
	stored := *v
	stored.ID = w.nextID
	w.variations[productID] = append(w.variations[productID], &stored)
	return &stored, nil
}

func (w *wooMock) ProductVariationUpdate(productID int, v *modelsWoo.ProductVariation) (*modelsWoo.ProductVariation, error) {
	for i, existing := range w.variations[productID] {
		if existing.ID == v.ID {
			stored := *v
			w.variations[productID][i] = &stored
			return &stored, nil
		}
	}
	return nil, errors.New("variation not found")
}

func (w *wooMock) ProductVariationDel(productID int, ID int, opts ...optionsWoo.Option) error {
	return nil
}

type backendMock struct{}

func (b *backendMock) Name() string { return "mock" }

func (b *backendMock) Translate(text string, sourceLang string, targetLang string) (string, error) {
	return text, nil
}

func (b *backendMock) TranslateBatch(texts []string, sourceLang string, targetLang string) ([]string, error) {
	result := make([]string, len(texts))
	copy(result, texts)
	return result, nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.SYNC.PageSize = 2
	cfg.PRICE.CurrencyFrom = "EUR"
	cfg.PRICE.CurrencyTo = "EUR"
	cfg.PRICE.Rounding = "none"
	return cfg
}

func newTestOrchestrator(t *testing.T, cfg *config.Config, supplier *supplierMock, woo *wooMock) (*Orchestrator, *sqlx.DB) {
	db, err := sqlx.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(database.DB_SCHEMA); err != nil {
		t.Fatal(err)
	}

	translator, err := translate.NewTranslator(db, &backendMock{}, "en")
	if err != nil {
		t.Fatal(err)
	}
	mapper := mapping.NewMapper(db)
	return NewOrchestrator(db, cfg, supplier, woo, translator, mapper), db
}

func supplierProduct(ref string) modelsSupplier.Product {
	return modelsSupplier.Product{
		Reference: ref,
		Name:      modelsSupplier.Multilingual{Flat: map[string]string{"en": "Product " + ref}},
		RRP:       10,
		Active:    true,
	}
}

func TestRunToCompletion(t *testing.T) {
	Assert := assert.New(t)

	supplier := &supplierMock{pages: [][]modelsSupplier.Product{
		{supplierProduct("A-1"), supplierProduct("A-2")},
		{supplierProduct("A-3"), supplierProduct("A-4")},
		{supplierProduct("A-5")},
	}}
	woo := newWooMock()
	orchestrator, db := newTestOrchestrator(t, testConfig(), supplier, woo)
	defer db.Close()

	Assert.NoError(orchestrator.Start(""))

	state, err := GetState(db)
	Assert.NoError(err)
	Assert.Equal(STATUS_RUNNING, state.Status)

	// по одной странице на тик, короткая третья страница завершает проход
	for i := 0; i < 3; i++ {
		Assert.NoError(orchestrator.Tick())
	}

	state, err = GetState(db)
	Assert.NoError(err)
	Assert.Equal(STATUS_COMPLETED, state.Status)
	Assert.Equal(3, state.Page)
	Assert.Equal(5, state.Processed)
	Assert.Equal(5, state.Created)
	Assert.Equal(0, state.Failed)

	Assert.Len(woo.products, 5)

	history, err := HistoryList(db, 10)
	Assert.NoError(err)
	Assert.Len(history, 1)
	Assert.Equal(STATUS_COMPLETED, history[0].Status)

	// отметка инкрементального запуска выставлена на начало прохода
	lastSync, err := database.GetSetting(db, SETTING_LAST_SYNC)
	Assert.NoError(err)
	Assert.Equal(state.StartedAt, lastSync)
}

func TestSecondRunUpdates(t *testing.T) {
	Assert := assert.New(t)

	supplier := &supplierMock{pages: [][]modelsSupplier.Product{
		{supplierProduct("A-1")},
	}}
	woo := newWooMock()
	orchestrator, db := newTestOrchestrator(t, testConfig(), supplier, woo)
	defer db.Close()

	Assert.NoError(orchestrator.Start(""))
	Assert.NoError(orchestrator.Tick())

	// повторный проход по тому же каталогу ничего не дублирует
	Assert.NoError(orchestrator.Start(""))
	Assert.NoError(orchestrator.Tick())

	state, _ := GetState(db)
	Assert.Equal(STATUS_COMPLETED, state.Status)
	Assert.Equal(0, state.Created)
	Assert.Equal(1, state.Updated)
	Assert.Len(woo.products, 1)
}

func TestSecondRunFindsRenamedSku(t *testing.T) {
	Assert := assert.New(t)

	supplier := &supplierMock{pages: [][]modelsSupplier.Product{
		{supplierProduct("A-1")},
	}}
	woo := newWooMock()

	// sku переписали в магазине, связь осталась в meta_data
	woo.nextID = 1
	woo.products[1] = &modelsWoo.Product{
		ID:  1,
		Sku: "SHOP-111",
		MetaData: []modelsWoo.MetaData{
			{Key: modelsWoo.META_SUPPLIER_REFERENCE, Value: "A-1"},
		},
	}

	orchestrator, db := newTestOrchestrator(t, testConfig(), supplier, woo)
	defer db.Close()

	Assert.NoError(orchestrator.Start(""))
	Assert.NoError(orchestrator.Tick())

	state, _ := GetState(db)
	Assert.Equal(STATUS_COMPLETED, state.Status)
	Assert.Equal(0, state.Created)
	Assert.Equal(1, state.Updated)
	Assert.Len(woo.products, 1)
}

func TestPaginationSafetyCap(t *testing.T) {
	Assert := assert.New(t)

	// каталог без короткой страницы: проход завершает только предохранитель
	pages := make([][]modelsSupplier.Product, supplierapi.MAX_PAGES_FETCH+20)
	for i := range pages {
		pages[i] = []modelsSupplier.Product{
			supplierProduct(fmt.Sprintf("A-%d-1", i+1)),
			supplierProduct(fmt.Sprintf("A-%d-2", i+1)),
		}
	}
	supplier := &supplierMock{pages: pages}
	woo := newWooMock()
	orchestrator, db := newTestOrchestrator(t, testConfig(), supplier, woo)
	defer db.Close()

	Assert.NoError(orchestrator.Start(""))
	for i := 0; i < supplierapi.MAX_PAGES_FETCH; i++ {
		Assert.NoError(orchestrator.Tick())
	}

	state, _ := GetState(db)
	Assert.Equal(STATUS_COMPLETED, state.Status)
	Assert.Equal(supplierapi.MAX_PAGES_FETCH, state.Page)
	Assert.Equal(supplierapi.MAX_PAGES_FETCH*2, state.Processed)

	logs, err := LogList(db, LogFilter{Level: LOG_WARNING})
	Assert.NoError(err)
	Assert.Len(logs, 1)
}

func TestPauseResume(t *testing.T) {
	Assert := assert.New(t)

	supplier := &supplierMock{pages: [][]modelsSupplier.Product{
		{supplierProduct("A-1"), supplierProduct("A-2")},
		{supplierProduct("A-3"), supplierProduct("A-4")},
		{supplierProduct("A-5")},
	}}
	woo := newWooMock()
	orchestrator, db := newTestOrchestrator(t, testConfig(), supplier, woo)
	defer db.Close()

	Assert.NoError(orchestrator.Start(""))
	Assert.NoError(orchestrator.Tick())

	Assert.NoError(RequestPause(db))
	Assert.NoError(orchestrator.Tick())

	state, _ := GetState(db)
	Assert.Equal(STATUS_PAUSED, state.Status)
	Assert.Equal(1, state.Page)
	Assert.Equal(2, state.Processed)

	// на паузе тики ничего не обрабатывают
	Assert.NoError(orchestrator.Tick())
	state, _ = GetState(db)
	Assert.Equal(STATUS_PAUSED, state.Status)
	Assert.Equal(2, state.Processed)

	// возобновление продолжает со следующей страницы
	Assert.NoError(RequestResume(db))
	Assert.NoError(orchestrator.Tick())

	state, _ = GetState(db)
	Assert.Equal(STATUS_RUNNING, state.Status)
	Assert.Equal(2, state.Page)
	Assert.Equal(4, state.Processed)
}

func TestStop(t *testing.T) {
	Assert := assert.New(t)

	supplier := &supplierMock{pages: [][]modelsSupplier.Product{
		{supplierProduct("A-1"), supplierProduct("A-2")},
		{supplierProduct("A-3"), supplierProduct("A-4")},
	}}
	woo := newWooMock()
	orchestrator, db := newTestOrchestrator(t, testConfig(), supplier, woo)
	defer db.Close()

	Assert.NoError(orchestrator.Start(""))
	Assert.NoError(orchestrator.Tick())
	Assert.NoError(RequestStop(db))
	Assert.NoError(orchestrator.Tick())

	state, _ := GetState(db)
	Assert.Equal(STATUS_STOPPED, state.Status)

	history, err := HistoryList(db, 10)
	Assert.NoError(err)
	Assert.Len(history, 1)
	Assert.Equal(STATUS_STOPPED, history[0].Status)

	// после остановки можно запускать заново
	Assert.NoError(orchestrator.Start(""))
}

func TestStartWhileRunning(t *testing.T) {
	Assert := assert.New(t)

	supplier := &supplierMock{pages: [][]modelsSupplier.Product{
		{supplierProduct("A-1"), supplierProduct("A-2")},
	}}
	woo := newWooMock()
	orchestrator, db := newTestOrchestrator(t, testConfig(), supplier, woo)
	defer db.Close()

	Assert.NoError(orchestrator.Start(""))
	Assert.Error(orchestrator.Start(""))
}

func TestRequestsRejectedWhenIdle(t *testing.T) {
	Assert := assert.New(t)

	supplier := &supplierMock{}
	woo := newWooMock()
	_, db := newTestOrchestrator(t, testConfig(), supplier, woo)
	defer db.Close()

	Assert.Error(RequestPause(db))
	Assert.Error(RequestResume(db))
	Assert.Error(RequestStop(db))
}

func TestRecordFailureIsolation(t *testing.T) {
	Assert := assert.New(t)

	supplier := &supplierMock{pages: [][]modelsSupplier.Product{
		{supplierProduct("A-1"), supplierProduct("A-2")},
		{supplierProduct("A-3")},
	}}
	woo := newWooMock()
	woo.failAddSku = "A-2"
	orchestrator, db := newTestOrchestrator(t, testConfig(), supplier, woo)
	defer db.Close()

	Assert.NoError(orchestrator.Start(""))
	Assert.NoError(orchestrator.Tick())
	Assert.NoError(orchestrator.Tick())

	// ошибка одной записи не валит проход
	state, _ := GetState(db)
	Assert.Equal(STATUS_COMPLETED, state.Status)
	Assert.Equal(3, state.Processed)
	Assert.Equal(2, state.Created)
	Assert.Equal(1, state.Failed)

	logs, err := LogList(db, LogFilter{Level: LOG_ERROR})
	Assert.NoError(err)
	Assert.Len(logs, 1)
	Assert.Equal("A-2", logs[0].Reference)
}

func TestPageFetchFailure(t *testing.T) {
	Assert := assert.New(t)

	supplier := &supplierMock{
		pages:    [][]modelsSupplier.Product{{supplierProduct("A-1")}},
		failPage: 1,
	}
	woo := newWooMock()
	orchestrator, db := newTestOrchestrator(t, testConfig(), supplier, woo)
	defer db.Close()

	Assert.NoError(orchestrator.Start(""))
	Assert.NoError(orchestrator.Tick())

	state, _ := GetState(db)
	Assert.Equal(STATUS_FAILED, state.Status)

	history, err := HistoryList(db, 10)
	Assert.NoError(err)
	Assert.Len(history, 1)
	Assert.Equal(STATUS_FAILED, history[0].Status)
}

func TestTestLimit(t *testing.T) {
	Assert := assert.New(t)

	cfg := testConfig()
	cfg.SYNC.TestLimit = 3

	supplier := &supplierMock{pages: [][]modelsSupplier.Product{
		{supplierProduct("A-1"), supplierProduct("A-2")},
		{supplierProduct("A-3"), supplierProduct("A-4")},
		{supplierProduct("A-5"), supplierProduct("A-6")},
	}}
	woo := newWooMock()
	orchestrator, db := newTestOrchestrator(t, cfg, supplier, woo)
	defer db.Close()

	Assert.NoError(orchestrator.Start(""))
	Assert.NoError(orchestrator.Tick())
	Assert.NoError(orchestrator.Tick())

	state, _ := GetState(db)
	Assert.Equal(STATUS_COMPLETED, state.Status)
	Assert.Equal(3, state.Processed)
}

func TestCategoryImport(t *testing.T) {
	Assert := assert.New(t)

	cfg := testConfig()
	cfg.SYNC.SyncCategories = 1

	// ребенок приходит раньше родителя, связь чинит второй проход
	supplier := &supplierMock{
		pages: [][]modelsSupplier.Product{{supplierProduct("A-1")}},
		categories: []modelsSupplier.Category{
			{Reference: "C-2", Name: modelsSupplier.Multilingual{Flat: map[string]string{"en": "Chairs"}}, ParentReference: "C-1"},
			{Reference: "C-1", Name: modelsSupplier.Multilingual{Flat: map[string]string{"en": "Furniture"}}},
		},
	}
	woo := newWooMock()
	orchestrator, db := newTestOrchestrator(t, cfg, supplier, woo)
	defer db.Close()

	Assert.NoError(orchestrator.Start(""))
	Assert.NoError(orchestrator.Tick())

	mapper := mapping.NewMapper(db)
	childID, foundChild := mapper.Resolve("C-2")
	parentID, foundParent := mapper.Resolve("C-1")
	Assert.True(foundChild)
	Assert.True(foundParent)

	child, err := woo.ProductCategoryGet(childID)
	Assert.NoError(err)
	Assert.Equal(parentID, child.Parent)
}

func TestStockStage(t *testing.T) {
	Assert := assert.New(t)

	cfg := testConfig()
	cfg.SYNC.SyncStock = 1

	supplier := &supplierMock{
		pages: [][]modelsSupplier.Product{{supplierProduct("A-1")}},
		// лишний reference в остатках никого не ломает
		stock: map[string]int{"A-1": 7, "GHOST": 3},
	}
	woo := newWooMock()
	orchestrator, db := newTestOrchestrator(t, cfg, supplier, woo)
	defer db.Close()

	Assert.NoError(orchestrator.Start(""))
	Assert.NoError(orchestrator.Tick())

	state, _ := GetState(db)
	Assert.Equal(STATUS_COMPLETED, state.Status)

	product, err := woo.ProductGetBySku("A-1")
	Assert.NoError(err)
	Assert.NotNil(product)
	Assert.True(product.ManageStock)
	Assert.Equal(7, *product.StockQuantity)
	Assert.Equal(modelsWoo.STOCK_IN, product.StockStatus)
}
