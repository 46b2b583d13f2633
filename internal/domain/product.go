package domain

// Product is the read model returned by the product catalog. It carries only
// the fields needed to enrich promotion entries and resolve prices.
type Product struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	SKU          string           `json:"sku"`
	Status       string           `json:"status"`
	Images       []string         `json:"images"`
	Price        int64            `json:"price"`
	CurrentPrice *int64           `json:"current_price,omitempty"`
	BrandID      string           `json:"brand_id"`
	BrandName    string           `json:"brand_name"`
	Variants     []ProductVariant `json:"variants,omitempty"`
}

// ProductVariant is a sellable variation of a product.
type ProductVariant struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	SKU          string               `json:"sku"`
	Price        int64                `json:"price"`
	Combinations []ProductCombination `json:"combinations,omitempty"`
}

// ProductCombination is an attribute tuple under a variant.
type ProductCombination struct {
	ID         string            `json:"id"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Price      int64             `json:"price"`
}

// PrimaryImage returns the first catalog image, or empty when none exist.
func (p *Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// BasePrice returns the selling price before any promotion: the current
// (sale) price when set, otherwise the list price.
func (p *Product) BasePrice() int64 {
	if p.CurrentPrice != nil {
		return *p.CurrentPrice
	}
	return p.Price
}

// FindVariant returns the variant with the given ID, or nil.
func (p *Product) FindVariant(variantID string) *ProductVariant {
	for i := range p.Variants {
		if p.Variants[i].ID == variantID {
			return &p.Variants[i]
		}
	}
	return nil
}

// FindCombination returns the combination with the given ID, or nil.
func (v *ProductVariant) FindCombination(combinationID string) *ProductCombination {
	for i := range v.Combinations {
		if v.Combinations[i].ID == combinationID {
			return &v.Combinations[i]
		}
	}
	return nil
}
