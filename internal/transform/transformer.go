package transform

import (
	"strconv"
	"strings"

	"WooWithSupplier/internal/config"
	"WooWithSupplier/internal/mapping"
	"WooWithSupplier/internal/pricing"
	modelsSupplier "WooWithSupplier/internal/supplierapi/models"
	"WooWithSupplier/internal/translate"
	modelsWoo "WooWithSupplier/internal/wooapi/models"
	"WooWithSupplier/pkg/logging"

	"github.com/pkg/errors"
)

const (
	SOURCE_NAME        = "name"
	SOURCE_REFERENCE   = "reference"
	SOURCE_DESCRIPTION = "description"
	SOURCE_PATTERN     = "pattern"
	SOURCE_NONE        = "none"

	PRICE_RRP = "rrp"
	PRICE_NET = "net"
)

// FieldConfig - источники и защита полей при синхронизации
type FieldConfig struct {
	NameSource         string
	DescriptionSource  string
	ShortDescSource    string
	PriceSource        string
	SyncImages         bool
	SyncCategories     bool
	SyncAttributes     bool
	ProtectName        bool
	ProtectDescription bool
	ProtectShortDesc   bool
	ProtectPrice       bool
	ProtectImages      bool
	ProtectCategories  bool
	NamePattern        string
	DescriptionPattern string
}

func FieldConfigFromConfig(cfg *config.Config) FieldConfig {
	return FieldConfig{
		NameSource:         defaultSource(cfg.SYNC.NameSource, SOURCE_NAME),
		DescriptionSource:  defaultSource(cfg.SYNC.DescriptionSource, SOURCE_DESCRIPTION),
		ShortDescSource:    defaultSource(cfg.SYNC.ShortDescSource, SOURCE_NONE),
		PriceSource:        defaultSource(cfg.SYNC.PriceSource, PRICE_RRP),
		SyncImages:         cfg.SYNC.SyncImages == 1,
		SyncCategories:     cfg.SYNC.SyncCategories == 1,
		SyncAttributes:     cfg.SYNC.SyncAttributes == 1,
		ProtectName:        cfg.SYNC.ProtectName == 1,
		ProtectDescription: cfg.SYNC.ProtectDescription == 1,
		ProtectShortDesc:   cfg.SYNC.ProtectShortDesc == 1,
		ProtectPrice:       cfg.SYNC.ProtectPrice == 1,
		ProtectImages:      cfg.SYNC.ProtectImages == 1,
		ProtectCategories:  cfg.SYNC.ProtectCategories == 1,
		NamePattern:        cfg.SYNC.NamePattern,
		DescriptionPattern: cfg.SYNC.DescriptionPattern,
	}
}

func defaultSource(value string, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// TransformedProduct - запись в форме WooCommerce, живет ровно до upsert
type TransformedProduct struct {
	Product    *modelsWoo.Product
	Variations []*modelsWoo.ProductVariation
}

type Transformer struct {
	translator *translate.Translator
	converter  *pricing.Converter
	mapper     *mapping.Mapper
	fields     FieldConfig
}

func NewTransformer(translator *translate.Translator, converter *pricing.Converter, mapper *mapping.Mapper, fields FieldConfig) *Transformer {
	return &Transformer{
		translator: translator,
		converter:  converter,
		mapper:     mapper,
		fields:     fields,
	}
}

// Transform - одна запись поставщика -> товар WooCommerce.
// existing != nil означает обновление: защищенные поля не заполняются вообще,
// независимо от настроенного источника.
func (t *Transformer) Transform(p *modelsSupplier.Product, existing *modelsWoo.Product) (*TransformedProduct, error) {
	logger := logging.GetLogger()
	logger.Debugf("Transform: %s", p.Reference)

	localName := t.translator.FromMultilingual(&p.Name)
	localDescription := t.translator.FromMultilingual(&p.Description)

	price, err := t.resolvePrice(p)
	if err != nil {
		return nil, errors.Wrapf(err, "ошибка цены, reference=%s", p.Reference)
	}

	product := &modelsWoo.Product{
		Sku:    p.Reference,
		Status: modelsWoo.PRODUCT_STATUS_PUBLISH,
	}
	if !p.Active {
		product.Status = modelsWoo.PRODUCT_STATUS_DRAFT
	}

	isUpdate := existing != nil
	if isUpdate {
		product.ID = existing.ID
	}

	if !(isUpdate && t.fields.ProtectName) {
		product.Name = t.resolveText(t.fields.NameSource, t.fields.NamePattern, p, localName, localDescription, price)
	}
	if !(isUpdate && t.fields.ProtectDescription) {
		product.Description = t.resolveText(t.fields.DescriptionSource, t.fields.DescriptionPattern, p, localName, localDescription, price)
	}
	if !(isUpdate && t.fields.ProtectShortDesc) {
		product.ShortDescription = t.resolveText(t.fields.ShortDescSource, "", p, localName, localDescription, price)
	}
	if t.fields.PriceSource != SOURCE_NONE && !(isUpdate && t.fields.ProtectPrice) {
		product.RegularPrice = formatPrice(price)
	}

	if t.fields.SyncImages && !(isUpdate && t.fields.ProtectImages) {
		for _, src := range p.Images {
			product.Images = append(product.Images, modelsWoo.ProductImage{Src: src})
		}
	}

	if t.fields.SyncCategories && !(isUpdate && t.fields.ProtectCategories) {
		for _, ref := range p.Categories {
			if wooID, found := t.mapper.Resolve(ref); found {
				product.Categories = append(product.Categories, &modelsWoo.Categories{Id: wooID})
			} else {
				logger.Debugf("Категория поставщика %s не замаплена, пропускаем", ref)
			}
		}
	}

	transformed := &TransformedProduct{Product: product}

	if len(p.Variants) > 0 {
		product.Type = modelsWoo.PRODUCT_TYPE_VARIABLE
		if err := t.fillVariations(p, transformed); err != nil {
			return nil, err
		}
	} else {
		product.Type = modelsWoo.PRODUCT_TYPE_SIMPLE
		if t.fields.SyncAttributes {
			for name, value := range p.Attributes {
				product.Attributes = append(product.Attributes, modelsWoo.ProductAttribute{
					Name:    name,
					Visible: true,
					Options: []string{value},
				})
			}
		}
	}

	return transformed, nil
}

func (t *Transformer) fillVariations(p *modelsSupplier.Product, transformed *TransformedProduct) error {
	// атрибуты вариативного товара собираются по всем вариантам
	optionsByName := make(map[string][]string)
	order := make([]string, 0)
	for _, variant := range p.Variants {
		for name, value := range variant.Attributes {
			if _, found := optionsByName[name]; !found {
				order = append(order, name)
			}
			if !containsString(optionsByName[name], value) {
				optionsByName[name] = append(optionsByName[name], value)
			}
		}
	}
	for _, name := range order {
		transformed.Product.Attributes = append(transformed.Product.Attributes, modelsWoo.ProductAttribute{
			Name:      name,
			Visible:   true,
			Variation: true,
			Options:   optionsByName[name],
		})
	}

	for _, variant := range p.Variants {
		price, err := t.converter.Convert(variant.Net)
		if err != nil {
			return errors.Wrapf(err, "ошибка цены варианта, reference=%s", variant.Reference)
		}

		variation := &modelsWoo.ProductVariation{
			Sku:          variant.Reference,
			RegularPrice: formatPrice(price),
			Status:       modelsWoo.PRODUCT_STATUS_PUBLISH,
		}
		for name, value := range variant.Attributes {
			variation.Attributes = append(variation.Attributes, modelsWoo.VariationAttribute{
				Name:   name,
				Option: value,
			})
		}
		transformed.Variations = append(transformed.Variations, variation)
	}
	return nil
}

func (t *Transformer) resolvePrice(p *modelsSupplier.Product) (float64, error) {
	var raw float64
	switch t.fields.PriceSource {
	case PRICE_RRP:
		raw = p.RRP
	case PRICE_NET:
		raw = p.Net
	default:
		return 0, nil
	}
	// нулевая или отсутствующая цена дает 0, а не ошибку
	if raw == 0 {
		return 0, nil
	}
	return t.converter.Convert(raw)
}

func (t *Transformer) resolveText(source string, pattern string, p *modelsSupplier.Product, localName string, localDescription string, price float64) string {
	switch source {
	case SOURCE_NAME:
		return localName
	case SOURCE_REFERENCE:
		return p.Reference
	case SOURCE_DESCRIPTION:
		return localDescription
	case SOURCE_PATTERN:
		return applyPattern(pattern, p.Reference, localName, localDescription, price)
	default:
		return ""
	}
}

// applyPattern - подстановка токенов {name}, {reference}, {price}, {description}
func applyPattern(pattern string, reference string, name string, description string, price float64) string {
	result := pattern
	result = strings.ReplaceAll(result, "{name}", name)
	result = strings.ReplaceAll(result, "{reference}", reference)
	result = strings.ReplaceAll(result, "{price}", formatPrice(price))
	result = strings.ReplaceAll(result, "{description}", description)
	return result
}

func formatPrice(price float64) string {
	return strconv.FormatFloat(price, 'f', 2, 64)
}

func containsString(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
