package sync

import (
	"WooWithSupplier/internal/mapping"
	modelsSupplier "WooWithSupplier/internal/supplierapi/models"
	"WooWithSupplier/internal/transform"
	"WooWithSupplier/internal/translate"
	"WooWithSupplier/internal/wooapi"
	modelsWoo "WooWithSupplier/internal/wooapi/models"
	optionsWoo "WooWithSupplier/internal/wooapi/options"
	"WooWithSupplier/pkg/logging"

	"github.com/pkg/errors"
)

// ProductRepository - идемпотентный upsert товаров в WooCommerce.
// Поиск по reference поставщика (хранится как sku + meta_data), не по имени:
// переименование товара в магазине связь не рвет.
type ProductRepository struct {
	woo    wooapi.WOOAPI
	byMeta map[string]*modelsWoo.Product
}

func NewProductRepository(woo wooapi.WOOAPI) *ProductRepository {
	return &ProductRepository{woo: woo}
}

// FindByReference - сперва по sku, мимо - по reference из meta_data.
// Товару с переписанным в магазине sku meta_data сохраняет связь.
func (r *ProductRepository) FindByReference(ref string) (*modelsWoo.Product, error) {
	product, err := r.woo.ProductGetBySku(ref)
	if err != nil || product != nil {
		return product, err
	}

	if r.byMeta == nil {
		if err := r.loadMetaIndex(); err != nil {
			return nil, err
		}
	}
	return r.byMeta[ref], nil
}

// loadMetaIndex - ленивый индекс reference -> товар по meta_data всего магазина.
// Строится один раз за проход, ResetCache сбрасывает перед следующим.
func (r *ProductRepository) loadMetaIndex() error {
	products, err := r.woo.ProductListAll()
	if err != nil {
		return errors.Wrap(err, "failed in ProductListAll()")
	}
	r.byMeta = make(map[string]*modelsWoo.Product, len(products))
	for i, product := range products {
		if ref := product.SupplierReference(); ref != "" {
			r.byMeta[ref] = products[i]
		}
	}
	return nil
}

func (r *ProductRepository) ResetCache() {
	r.byMeta = nil
}

// Save - создать либо обновить. При создании reference поставщика пишется в meta_data,
// при обновлении meta_data не трогается.
func (r *ProductRepository) Save(t *transform.TransformedProduct) (int, bool, error) {
	logger := logging.GetLogger()

	var productID int
	var created bool

	if t.Product.ID == 0 {
		t.Product.MetaData = append(t.Product.MetaData, modelsWoo.MetaData{
			Key:   modelsWoo.META_SUPPLIER_REFERENCE,
			Value: t.Product.Sku,
		})
		product, err := r.woo.ProductAdd(t.Product)
		if err != nil {
			return 0, false, errors.Wrapf(err, "failed in ProductAdd(), sku=%s", t.Product.Sku)
		}
		productID = product.ID
		created = true
		logger.Infof("Товар создан в WOO, sku=%s, ID=%d", t.Product.Sku, productID)
	} else {
		product, err := r.woo.ProductUpdate(t.Product)
		if err != nil {
			return 0, false, errors.Wrapf(err, "failed in ProductUpdate(), sku=%s", t.Product.Sku)
		}
		productID = product.ID
		logger.Infof("Товар обновлен в WOO, sku=%s, ID=%d", t.Product.Sku, productID)
	}

	if len(t.Variations) > 0 {
		if err := r.saveVariations(productID, t.Variations); err != nil {
			return productID, created, err
		}
	}

	return productID, created, nil
}

func (r *ProductRepository) saveVariations(productID int, variations []*modelsWoo.ProductVariation) error {
	existing, err := r.woo.ProductVariationList(productID, optionsWoo.PerPage(wooapi.PER_PAGE_MAX))
	if err != nil {
		return errors.Wrapf(err, "failed in ProductVariationList(%d)", productID)
	}

	existingBySku := make(map[string]*modelsWoo.ProductVariation, len(existing))
	for i, variation := range existing {
		existingBySku[variation.Sku] = existing[i]
	}

	for _, variation := range variations {
		if found, ok := existingBySku[variation.Sku]; ok {
			variation.ID = found.ID
			if _, err := r.woo.ProductVariationUpdate(productID, variation); err != nil {
				return errors.Wrapf(err, "failed in ProductVariationUpdate(), sku=%s", variation.Sku)
			}
		} else {
			if _, err := r.woo.ProductVariationAdd(productID, variation); err != nil {
				return errors.Wrapf(err, "failed in ProductVariationAdd(), sku=%s", variation.Sku)
			}
		}
	}
	return nil
}

// CategoryRepository - идемпотентный upsert категорий.
// Связь reference поставщика <-> ID категории живет в таблице CategoryMap.
type CategoryRepository struct {
	woo        wooapi.WOOAPI
	mapper     *mapping.Mapper
	translator *translate.Translator
}

func NewCategoryRepository(woo wooapi.WOOAPI, mapper *mapping.Mapper, translator *translate.Translator) *CategoryRepository {
	return &CategoryRepository{woo: woo, mapper: mapper, translator: translator}
}

// Save - создать либо обновить категорию. Родитель резолвится по reference родителя,
// если родитель еще не создан - категория встает в корень, дальше ее поправит ReLink.
func (r *CategoryRepository) Save(category *modelsSupplier.Category) (int, error) {
	logger := logging.GetLogger()

	name := r.translator.FromMultilingual(&category.Name)

	parentID := 0
	if category.ParentReference != "" {
		if wooID, found := r.mapper.Resolve(category.ParentReference); found {
			parentID = wooID
		}
	}

	if wooID, found := r.mapper.Resolve(category.Reference); found {
		_, err := r.woo.ProductCategoryUpdate(&modelsWoo.ProductCategory{
			ID:     wooID,
			Name:   name,
			Parent: parentID,
		})
		if err != nil {
			return 0, errors.Wrapf(err, "failed in ProductCategoryUpdate(), ref=%s", category.Reference)
		}
		logger.Debugf("Категория обновлена, ref=%s, ID=%d", category.Reference, wooID)
		return wooID, nil
	}

	created, err := r.woo.ProductCategoryAdd(&modelsWoo.ProductCategory{
		Name:   name,
		Parent: parentID,
	})
	if err != nil {
		return 0, errors.Wrapf(err, "failed in ProductCategoryAdd(), ref=%s", category.Reference)
	}

	if err := r.mapper.SetAuto(category.Reference, created.ID); err != nil {
		return 0, errors.Wrap(err, "failed in SetAuto()")
	}
	logger.Infof("Категория создана, ref=%s, ID=%d", category.Reference, created.ID)
	return created.ID, nil
}

// ImportAll - импорт категорий в порядке выдачи поставщика плюс второй проход
// по родительским связям: ребенок мог быть создан раньше родителя.
func (r *CategoryRepository) ImportAll(categories []modelsSupplier.Category) (int, error) {
	logger := logging.GetLogger()
	logger.Info("Start ImportAll категорий")
	defer logger.Info("End ImportAll категорий")

	failed := 0
	for i := range categories {
		if _, err := r.Save(&categories[i]); err != nil {
			logger.Errorf("Ошибка при импорте категории, ref=%s: %v", categories[i].Reference, err)
			failed++
		}
	}

	r.ReLink(categories)
	return failed, nil
}

// ReLink - поправить родительские связи, когда на момент создания ребенка
// родителя в WooCommerce еще не было
func (r *CategoryRepository) ReLink(categories []modelsSupplier.Category) {
	logger := logging.GetLogger()

	for i := range categories {
		category := &categories[i]
		if category.ParentReference == "" {
			continue
		}
		childID, foundChild := r.mapper.Resolve(category.Reference)
		parentID, foundParent := r.mapper.Resolve(category.ParentReference)
		if !foundChild || !foundParent {
			continue
		}

		current, err := r.woo.ProductCategoryGet(childID)
		if err != nil {
			logger.Errorf("Ошибка при чтении категории %d: %v", childID, err)
			continue
		}
		if current.Parent == parentID {
			continue
		}

		_, err = r.woo.ProductCategoryUpdate(&modelsWoo.ProductCategory{ID: childID, Parent: parentID})
		if err != nil {
			logger.Errorf("Ошибка при перелинковке категории %d -> родитель %d: %v", childID, parentID, err)
		}
	}
}
