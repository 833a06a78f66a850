package models

const (
	PRODUCT_TYPE_SIMPLE   = "simple"
	PRODUCT_TYPE_VARIABLE = "variable"

	PRODUCT_STATUS_PUBLISH = "publish"
	PRODUCT_STATUS_DRAFT   = "draft"

	STOCK_IN    = "instock"
	STOCK_OUT   = "outofstock"

	// META_SUPPLIER_REFERENCE - ключ meta_data, по которому товар ищется при повторных
	// синхронизациях; переименование товара в магазине поиск не ломает
	META_SUPPLIER_REFERENCE = "_supplier_reference"
)

type Product struct {
	ID               int                `json:"id,omitempty"`
	Name             string             `json:"name,omitempty"`
	Slug             string             `json:"slug,omitempty"`
	Type             string             `json:"type,omitempty"`
	Status           string             `json:"status,omitempty"`
	Description      string             `json:"description,omitempty"`
	ShortDescription string             `json:"short_description,omitempty"`
	Sku              string             `json:"sku,omitempty"`
	Price            string             `json:"price,omitempty"`
	RegularPrice     string             `json:"regular_price,omitempty"`
	ManageStock      bool               `json:"manage_stock,omitempty"`
	StockQuantity    *int               `json:"stock_quantity,omitempty"`
	StockStatus      string             `json:"stock_status,omitempty"`
	Categories       []*Categories      `json:"categories,omitempty"`
	Images           []ProductImage     `json:"images,omitempty"`
	Attributes       []ProductAttribute `json:"attributes,omitempty"`
	Variations       []int              `json:"variations,omitempty"`
	MetaData         []MetaData         `json:"meta_data,omitempty"`
}

// SupplierReference - значение meta_data с reference поставщика, пусто если нет
func (p *Product) SupplierReference() string {
	for _, meta := range p.MetaData {
		if meta.Key == META_SUPPLIER_REFERENCE {
			if ref, ok := meta.Value.(string); ok {
				return ref
			}
		}
	}
	return ""
}

type ProductImage struct {
	Id   int    `json:"id,omitempty"`
	Src  string `json:"src,omitempty"`
	Name string `json:"name,omitempty"`
	Alt  string `json:"alt,omitempty"`
}

type Categories struct {
	Id   int    `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	Slug string `json:"slug,omitempty"`
}

type ProductAttribute struct {
	Id        int      `json:"id,omitempty"`
	Name      string   `json:"name,omitempty"`
	Position  int      `json:"position,omitempty"`
	Visible   bool     `json:"visible,omitempty"`
	Variation bool     `json:"variation,omitempty"`
	Options   []string `json:"options,omitempty"`
}

type MetaData struct {
	Id    int         `json:"id,omitempty"`
	Key   string      `json:"key,omitempty"`
	Value interface{} `json:"value,omitempty"`
}

type ProductVariation struct {
	ID            int                  `json:"id,omitempty"`
	Sku           string               `json:"sku,omitempty"`
	RegularPrice  string               `json:"regular_price,omitempty"`
	Status        string               `json:"status,omitempty"`
	ManageStock   bool                 `json:"manage_stock,omitempty"`
	StockQuantity *int                 `json:"stock_quantity,omitempty"`
	StockStatus   string               `json:"stock_status,omitempty"`
	Attributes    []VariationAttribute `json:"attributes,omitempty"`
	MetaData      []MetaData           `json:"meta_data,omitempty"`
}

type VariationAttribute struct {
	Id     int    `json:"id,omitempty"`
	Name   string `json:"name,omitempty"`
	Option string `json:"option,omitempty"`
}
