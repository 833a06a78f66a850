package sync

import (
	"fmt"
	"time"

	"WooWithSupplier/internal/config"
	"WooWithSupplier/internal/database"
	"WooWithSupplier/internal/mapping"
	"WooWithSupplier/internal/pricing"
	"WooWithSupplier/internal/supplierapi"
	modelsSupplier "WooWithSupplier/internal/supplierapi/models"
	"WooWithSupplier/internal/telegram"
	"WooWithSupplier/internal/transform"
	"WooWithSupplier/internal/translate"
	"WooWithSupplier/internal/wooapi"
	modelsWoo "WooWithSupplier/internal/wooapi/models"
	optionsWoo "WooWithSupplier/internal/wooapi/options"
	"WooWithSupplier/pkg/logging"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// supplierRates - курсы валют из API поставщика как RateProvider
type supplierRates struct {
	api supplierapi.SUPPLIERAPI
}

func (s *supplierRates) Rates() (map[string]float64, error) {
	return s.api.RateList()
}

// Orchestrator - машина состояний одного прохода синхронизации.
// Каждый Tick обрабатывает одну страницу каталога и сохраняет срез прогресса,
// поэтому проход переживает рестарт процесса и ограничения по времени.
type Orchestrator struct {
	db           *sqlx.DB
	cfg          *config.Config
	supplier     supplierapi.SUPPLIERAPI
	woo          wooapi.WOOAPI
	translator   *translate.Translator
	mapper       *mapping.Mapper
	fields       transform.FieldConfig
	productRepo  *ProductRepository
	categoryRepo *CategoryRepository
	pageSize     int

	// пересобирается на каждый запуск, курс валют кешируется на время прохода
	transformer        *transform.Transformer
	transformerProfile int
	filter             *supplierapi.ProductFilter
	testLimit          int
}

func NewOrchestrator(db *sqlx.DB, cfg *config.Config, supplier supplierapi.SUPPLIERAPI, woo wooapi.WOOAPI, translator *translate.Translator, mapper *mapping.Mapper) *Orchestrator {
	return &Orchestrator{
		db:                 db,
		cfg:                cfg,
		supplier:           supplier,
		woo:                woo,
		translator:         translator,
		mapper:             mapper,
		fields:             transform.FieldConfigFromConfig(cfg),
		productRepo:        NewProductRepository(woo),
		categoryRepo:       NewCategoryRepository(woo, mapper, translator),
		pageSize:           cfg.SYNC.PageSize,
		transformerProfile: -1,
	}
}

// Start - запустить проход по профилю. Одновременно может идти только один проход:
// запуск при статусе running/pausing/paused/stopping отклоняется.
func (o *Orchestrator) Start(profileSlug string) error {
	logger := logging.GetLogger()
	logger.Info("Start Orchestrator.Start")
	defer logger.Info("End Orchestrator.Start")

	if profileSlug == "" {
		profileSlug = database.PROFILE_DEFAULT_SLUG
	}
	profile, err := database.GetProfileBySlug(o.db, profileSlug)
	if err != nil {
		return errors.Wrap(err, "failed in GetProfileBySlug()")
	}
	if profile == nil {
		return errors.New(fmt.Sprintf("профиль %s не найден", profileSlug))
	}

	state, err := GetState(o.db)
	if err != nil {
		return errors.Wrap(err, "failed in GetState()")
	}
	if !isTerminal(state.Status) {
		return errors.New(fmt.Sprintf("синхронизация уже запущена, статус: %s", state.Status))
	}

	state.Status = STATUS_RUNNING
	state.ProfileID = profile.ID
	state.BatchID = fmt.Sprintf("sync-%s", time.Now().Format("20060102-150405"))
	state.Page = 0
	state.Processed = 0
	state.Created = 0
	state.Updated = 0
	state.Failed = 0
	state.StartedAt = time.Now().Format(time.RFC3339)

	if err := setRequested(o.db, ""); err != nil {
		return err
	}
	if err := saveState(o.db, state); err != nil {
		return err
	}

	// новый проход - новый конвертер, курс перечитается
	o.transformer = nil
	o.transformerProfile = -1
	o.productRepo.ResetCache()

	appendLog(o.db, state.BatchID, LOG_SUCCESS, "", fmt.Sprintf("запуск синхронизации, профиль: %s", profileSlug))
	logger.Infof("Синхронизация запущена, BatchID=%s", state.BatchID)
	return nil
}

// RequestPause - пауза на ближайшем чекпоинте
func RequestPause(db *sqlx.DB) error {
	state, err := GetState(db)
	if err != nil {
		return err
	}
	if state.Status != STATUS_RUNNING {
		return errors.New(fmt.Sprintf("пауза невозможна, статус: %s", state.Status))
	}
	return setRequested(db, REQUEST_PAUSE)
}

// RequestResume - продолжить с последней завершенной страницы
func RequestResume(db *sqlx.DB) error {
	state, err := GetState(db)
	if err != nil {
		return err
	}
	if state.Status != STATUS_PAUSED && state.Status != STATUS_PAUSING {
		return errors.New(fmt.Sprintf("возобновление невозможно, статус: %s", state.Status))
	}
	return setRequested(db, REQUEST_RESUME)
}

// RequestStop - остановка без возобновления
func RequestStop(db *sqlx.DB) error {
	state, err := GetState(db)
	if err != nil {
		return err
	}
	switch state.Status {
	case STATUS_RUNNING, STATUS_PAUSING, STATUS_PAUSED:
		return setRequested(db, REQUEST_STOP)
	}
	return errors.New(fmt.Sprintf("остановка невозможна, статус: %s", state.Status))
}

// Tick - один шаг машины состояний: забрать запрос оператора, перевести статус,
// при статусе running обработать одну страницу каталога
func (o *Orchestrator) Tick() error {
	logger := logging.GetLogger()

	state, err := GetState(o.db)
	if err != nil {
		return errors.Wrap(err, "failed in GetState()")
	}

	requested, err := takeRequested(o.db)
	if err != nil {
		return errors.Wrap(err, "failed in takeRequested()")
	}

	switch requested {
	case REQUEST_PAUSE:
		if state.Status == STATUS_RUNNING {
			state.Status = STATUS_PAUSING
		}
	case REQUEST_RESUME:
		if state.Status == STATUS_PAUSED || state.Status == STATUS_PAUSING {
			state.Status = STATUS_RUNNING
		}
	case REQUEST_STOP:
		switch state.Status {
		case STATUS_RUNNING, STATUS_PAUSING, STATUS_PAUSED:
			state.Status = STATUS_STOPPING
		}
	}

	switch state.Status {
	case STATUS_PAUSING:
		state.Status = STATUS_PAUSED
		appendLog(o.db, state.BatchID, LOG_WARNING, "", fmt.Sprintf("пауза, страница %d", state.Page))
		logger.Infof("Синхронизация на паузе, страница %d", state.Page)
		return saveState(o.db, state)

	case STATUS_STOPPING:
		state.Status = STATUS_STOPPED
		appendLog(o.db, state.BatchID, LOG_WARNING, "", "остановлено оператором")
		if err := saveState(o.db, state); err != nil {
			return err
		}
		return appendHistory(o.db, state)

	case STATUS_RUNNING:
		return o.processPage(state)

	default:
		// idle, paused и терминальные статусы: делать нечего
		return saveState(o.db, state)
	}
}

// buildRun - собрать зависимые от профиля части прохода
func (o *Orchestrator) buildRun(profileID int) error {
	if o.transformer != nil && o.transformerProfile == profileID {
		return nil
	}

	profile, err := database.GetProfileByID(o.db, profileID)
	if err != nil {
		return errors.Wrap(err, "failed in GetProfileByID()")
	}

	markup := o.cfg.PRICE.Markup
	if profile != nil && profile.Markup >= 0 {
		markup = profile.Markup
	}

	var provider pricing.RateProvider
	switch {
	case profile != nil && profile.ExchangeRate > 0:
		provider = &pricing.FixedRateProvider{From: o.cfg.PRICE.CurrencyFrom, To: o.cfg.PRICE.CurrencyTo, Rate: profile.ExchangeRate}
	case o.cfg.PRICE.ExchangeRate > 0:
		provider = &pricing.FixedRateProvider{From: o.cfg.PRICE.CurrencyFrom, To: o.cfg.PRICE.CurrencyTo, Rate: o.cfg.PRICE.ExchangeRate}
	default:
		provider = &supplierRates{api: o.supplier}
	}

	converter := pricing.NewConverter(provider, o.cfg.PRICE.CurrencyFrom, o.cfg.PRICE.CurrencyTo, markup, o.cfg.PRICE.Rounding)
	o.transformer = transform.NewTransformer(o.translator, converter, o.mapper, o.fields)
	o.transformerProfile = profileID

	filter := &supplierapi.ProductFilter{}
	if profile != nil {
		if profile.OnlyActive == 1 {
			active := true
			filter.Active = &active
		}
		if profile.HasImages == 1 {
			hasImages := true
			filter.HasImages = &hasImages
		}
		if profile.HasVariants == 1 {
			hasVariants := true
			filter.HasVariants = &hasVariants
		}
		filter.CategoryRef = profile.CategoryRef
		filter.ReferenceLike = profile.ReferenceLike
	}

	lastSync, err := database.GetSetting(o.db, SETTING_LAST_SYNC)
	if err != nil {
		return errors.Wrap(err, "failed in GetSetting(last_sync)")
	}
	filter.NewerThan = lastSync
	o.filter = filter

	o.testLimit = o.cfg.SYNC.TestLimit
	if profile != nil && profile.TestLimit > 0 {
		o.testLimit = profile.TestLimit
	}
	return nil
}

func (o *Orchestrator) processPage(state *database.SyncState) error {
	logger := logging.GetLogger()

	if err := o.buildRun(state.ProfileID); err != nil {
		return o.fail(state, errors.Wrap(err, "failed in buildRun()"))
	}

	// нулевая страница - подготовительный шаг: импорт дерева категорий
	if state.Page == 0 && o.fields.SyncCategories {
		categories, err := o.supplier.CategoryListAll()
		if err != nil {
			return o.fail(state, errors.Wrap(err, "failed in CategoryListAll()"))
		}
		failed, err := o.categoryRepo.ImportAll(categories)
		if err != nil {
			return o.fail(state, errors.Wrap(err, "failed in ImportAll()"))
		}
		if failed > 0 {
			appendLog(o.db, state.BatchID, LOG_WARNING, "", fmt.Sprintf("категории с ошибками: %d", failed))
		}
	}

	page := state.Page + 1
	logger.Infof("Обработка страницы %d", page)

	products, err := o.supplier.ProductList(page, o.pageSize, o.filter)
	if err != nil {
		// ошибка загрузки страницы фатальна для прохода, в отличие от ошибок записей
		return o.fail(state, errors.Wrapf(err, "failed in ProductList(page=%d)", page))
	}

	limitReached := false
	for i := range products {
		o.processRecord(state, &products[i])
		if o.testLimit > 0 && state.Processed >= o.testLimit {
			logger.Warningf("Достигнут тестовый лимит %d, завершаем", o.testLimit)
			limitReached = true
			break
		}
	}

	state.Page = page
	if err := saveState(o.db, state); err != nil {
		return err
	}

	if len(products) < o.pageSize || limitReached || page >= supplierapi.MAX_PAGES_FETCH {
		if page >= supplierapi.MAX_PAGES_FETCH && len(products) >= o.pageSize {
			logger.Warningf("Достигнут предохранитель пагинации (%d страниц), завершаем проход", supplierapi.MAX_PAGES_FETCH)
			appendLog(o.db, state.BatchID, LOG_WARNING, "", "достигнут предохранитель пагинации")
		}
		return o.complete(state)
	}
	return nil
}

// processRecord - обработка одной записи каталога.
// Любая ошибка здесь изолирована: счетчик failed, запись в журнал, проход продолжается.
func (o *Orchestrator) processRecord(state *database.SyncState, product *modelsSupplier.Product) {
	logger := logging.GetLogger()

	state.Processed++

	existing, err := o.productRepo.FindByReference(product.Reference)
	if err != nil {
		state.Failed++
		logger.Errorf("Ошибка поиска товара, reference=%s: %v", product.Reference, err)
		appendLog(o.db, state.BatchID, LOG_ERROR, product.Reference, fmt.Sprintf("поиск: %v", err))
		return
	}

	transformed, err := o.transformer.Transform(product, existing)
	if err != nil {
		state.Failed++
		logger.Errorf("Ошибка трансформации, reference=%s: %v", product.Reference, err)
		appendLog(o.db, state.BatchID, LOG_ERROR, product.Reference, fmt.Sprintf("трансформация: %v", err))
		return
	}

	_, created, err := o.productRepo.Save(transformed)
	if err != nil {
		state.Failed++
		logger.Errorf("Ошибка записи товара, reference=%s: %v", product.Reference, err)
		appendLog(o.db, state.BatchID, LOG_ERROR, product.Reference, fmt.Sprintf("запись: %v", err))
		return
	}

	if created {
		state.Created++
		appendLog(o.db, state.BatchID, LOG_SUCCESS, product.Reference, "создан")
	} else {
		state.Updated++
		appendLog(o.db, state.BatchID, LOG_SUCCESS, product.Reference, "обновлен")
	}
}

func (o *Orchestrator) complete(state *database.SyncState) error {
	logger := logging.GetLogger()

	if o.cfg.SYNC.SyncStock == 1 {
		o.syncStock(state)
	}

	state.Status = STATUS_COMPLETED
	if err := saveState(o.db, state); err != nil {
		return err
	}
	if err := appendHistory(o.db, state); err != nil {
		return err
	}
	// отметка для следующего инкрементального запроса: начало этого прохода,
	// изменения во время прохода не потеряются
	if err := database.SetSetting(o.db, SETTING_LAST_SYNC, state.StartedAt); err != nil {
		return err
	}

	message := fmt.Sprintf("Синхронизация завершена. Обработано: %d, создано: %d, обновлено: %d, с ошибками: %d",
		state.Processed, state.Created, state.Updated, state.Failed)
	appendLog(o.db, state.BatchID, LOG_SUCCESS, "", message)
	logger.Info(message)
	if o.cfg.SYNC.TelegramReport == 1 {
		telegram.SendMessageToTelegramWithLogError(message)
	}
	return nil
}

func (o *Orchestrator) fail(state *database.SyncState, cause error) error {
	logger := logging.GetLogger()

	state.Status = STATUS_FAILED
	appendLog(o.db, state.BatchID, LOG_ERROR, "", cause.Error())
	if err := saveState(o.db, state); err != nil {
		return err
	}
	if err := appendHistory(o.db, state); err != nil {
		return err
	}

	logger.Errorf("Синхронизация завершилась с ошибкой: %v", cause)
	if o.cfg.SYNC.TelegramReport == 1 {
		telegram.SendMessageToTelegramWithLogError(fmt.Sprintf("Синхронизация завершилась с ошибкой: %v", cause))
	}
	return nil
}

// syncStock - финальная стадия: остатки поставщика в остатки WOO.
// Ошибки здесь не фатальны для прохода.
func (o *Orchestrator) syncStock(state *database.SyncState) {
	logger := logging.GetLogger()
	logger.Info("Start syncStock")
	defer logger.Info("End syncStock")

	stock, err := o.supplier.StockList()
	if err != nil {
		logger.Errorf("Ошибка при загрузке остатков: %v", err)
		appendLog(o.db, state.BatchID, LOG_WARNING, "", fmt.Sprintf("остатки не загружены: %v", err))
		return
	}

	products, err := o.woo.ProductListAll()
	if err != nil {
		logger.Errorf("Ошибка при загрузке товаров WOO: %v", err)
		appendLog(o.db, state.BatchID, LOG_WARNING, "", fmt.Sprintf("товары WOO не загружены: %v", err))
		return
	}

	for _, product := range products {
		if product.Type == modelsWoo.PRODUCT_TYPE_VARIABLE {
			o.syncVariationStock(state, product.ID, stock)
			continue
		}
		quantity, found := stock[product.Sku]
		if !found {
			continue
		}
		if err := o.updateProductStock(product.ID, quantity); err != nil {
			logger.Errorf("Ошибка при обновлении остатка, sku=%s: %v", product.Sku, err)
			appendLog(o.db, state.BatchID, LOG_WARNING, product.Sku, fmt.Sprintf("остаток: %v", err))
		}
	}
}

func (o *Orchestrator) syncVariationStock(state *database.SyncState, productID int, stock map[string]int) {
	logger := logging.GetLogger()

	variations, err := o.woo.ProductVariationList(productID, optionsWoo.PerPage(wooapi.PER_PAGE_MAX))
	if err != nil {
		logger.Errorf("Ошибка при загрузке вариаций товара %d: %v", productID, err)
		return
	}
	for _, variation := range variations {
		quantity, found := stock[variation.Sku]
		if !found {
			continue
		}
		variation.ManageStock = true
		variation.StockQuantity = &quantity
		variation.StockStatus = stockStatus(quantity)
		if _, err := o.woo.ProductVariationUpdate(productID, variation); err != nil {
			logger.Errorf("Ошибка при обновлении остатка вариации, sku=%s: %v", variation.Sku, err)
			appendLog(o.db, state.BatchID, LOG_WARNING, variation.Sku, fmt.Sprintf("остаток: %v", err))
		}
	}
}

func (o *Orchestrator) updateProductStock(productID int, quantity int) error {
	patch := &modelsWoo.Product{
		ID:            productID,
		ManageStock:   true,
		StockQuantity: &quantity,
		StockStatus:   stockStatus(quantity),
	}
	_, err := o.woo.ProductUpdate(patch)
	return err
}

func stockStatus(quantity int) string {
	if quantity > 0 {
		return modelsWoo.STOCK_IN
	}
	return modelsWoo.STOCK_OUT
}
