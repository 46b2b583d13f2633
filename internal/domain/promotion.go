package domain

import (
	"time"
)

// Promotion kind constants.
const (
	PromotionKindEvent    = "event"
	PromotionKindCampaign = "campaign"
)

// Promotion status constants.
const (
	PromotionStatusDraft     = "draft"
	PromotionStatusPublished = "published"
	PromotionStatusArchived  = "archived"
)

// Promotion represents an Event or Campaign that overlays promotional prices
// on a set of products. A promotion is active purely by its date window;
// Status tracks the editorial lifecycle and does not affect activity.
type Promotion struct {
	ID          string         `json:"id"`
	Kind        string         `json:"kind"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Status      string         `json:"status"`
	StartDate   time.Time      `json:"start_date"`
	EndDate     time.Time      `json:"end_date"`
	Products    []ProductEntry `json:"products"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// ProductEntry is a product attached to a promotion. Display fields are
// denormalized copies of the product catalog, refreshed on every mutation.
// AdjustedPrice is nil when the product is only priced at a deeper level
// (variant or combination).
type ProductEntry struct {
	ProductID     string         `json:"product_id"`
	Name          string         `json:"name,omitempty"`
	Image         string         `json:"image,omitempty"`
	SKU           string         `json:"sku,omitempty"`
	Status        string         `json:"status,omitempty"`
	BrandID       string         `json:"brand_id,omitempty"`
	Brand         string         `json:"brand,omitempty"`
	OriginalPrice int64          `json:"original_price"`
	AdjustedPrice *int64         `json:"adjusted_price,omitempty"`
	Variants      []VariantEntry `json:"variants,omitempty"`
}

// VariantEntry is a promoted variant nested under a ProductEntry.
type VariantEntry struct {
	VariantID     string             `json:"variant_id"`
	VariantName   string             `json:"variant_name,omitempty"`
	VariantSKU    string             `json:"variant_sku,omitempty"`
	VariantPrice  int64              `json:"variant_price"`
	AdjustedPrice *int64             `json:"adjusted_price,omitempty"`
	Combinations  []CombinationEntry `json:"combinations,omitempty"`
}

// CombinationEntry is a specific attribute tuple (e.g. color+size) under a
// variant, independently priceable.
type CombinationEntry struct {
	CombinationID    string            `json:"combination_id"`
	Attributes       map[string]string `json:"attributes,omitempty"`
	CombinationPrice int64             `json:"combination_price"`
	AdjustedPrice    *int64            `json:"adjusted_price,omitempty"`
}

// EntryRef addresses a node in the product entry tree. VariantID and
// CombinationID narrow the target; a ref with only ProductID addresses the
// whole product entry.
type EntryRef struct {
	ProductID     string
	VariantID     string
	CombinationID string
}

// ActivePromotions is the point-in-time view of all currently active
// promotions, split by kind.
type ActivePromotions struct {
	Events    []Promotion `json:"events"`
	Campaigns []Promotion `json:"campaigns"`
}

// PromotionSummary is a lightweight rollup of a promotion's product tree.
type PromotionSummary struct {
	PromotionID      string `json:"promotion_id"`
	Kind             string `json:"kind"`
	Title            string `json:"title"`
	Status           string `json:"status"`
	Active           bool   `json:"active"`
	ProductCount     int    `json:"product_count"`
	VariantCount     int    `json:"variant_count"`
	CombinationCount int    `json:"combination_count"`
	AdjustedCount    int    `json:"adjusted_count"`
}

// Summary counts the nodes of the product tree at the given instant.
// AdjustedCount is the number of nodes carrying an explicit adjusted price.
func (p *Promotion) Summary(at time.Time) PromotionSummary {
	s := PromotionSummary{
		PromotionID:  p.ID,
		Kind:         p.Kind,
		Title:        p.Title,
		Status:       p.Status,
		Active:       p.IsActiveAt(at),
		ProductCount: len(p.Products),
	}
	for _, entry := range p.Products {
		if entry.AdjustedPrice != nil {
			s.AdjustedCount++
		}
		s.VariantCount += len(entry.Variants)
		for _, v := range entry.Variants {
			if v.AdjustedPrice != nil {
				s.AdjustedCount++
			}
			s.CombinationCount += len(v.Combinations)
			for _, c := range v.Combinations {
				if c.AdjustedPrice != nil {
					s.AdjustedCount++
				}
			}
		}
	}
	return s
}

// ValidKinds returns the set of valid promotion kinds.
func ValidKinds() []string {
	return []string{PromotionKindEvent, PromotionKindCampaign}
}

// IsValidKind checks whether the given kind string is a valid promotion kind.
func IsValidKind(kind string) bool {
	for _, k := range ValidKinds() {
		if k == kind {
			return true
		}
	}
	return false
}

// ValidStatuses returns the set of valid promotion statuses.
func ValidStatuses() []string {
	return []string{PromotionStatusDraft, PromotionStatusPublished, PromotionStatusArchived}
}

// IsValidStatus checks whether the given status string is a valid promotion status.
func IsValidStatus(status string) bool {
	for _, s := range ValidStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// IsActiveAt reports whether the promotion's date window covers t. Both
// boundaries are inclusive.
func (p *Promotion) IsActiveAt(t time.Time) bool {
	return !p.StartDate.After(t) && !p.EndDate.Before(t)
}

// ProductIDs returns the distinct product IDs attached to the promotion, in
// entry order.
func (p *Promotion) ProductIDs() []string {
	seen := make(map[string]struct{}, len(p.Products))
	ids := make([]string, 0, len(p.Products))
	for _, entry := range p.Products {
		if _, ok := seen[entry.ProductID]; ok {
			continue
		}
		seen[entry.ProductID] = struct{}{}
		ids = append(ids, entry.ProductID)
	}
	return ids
}

// HasProduct reports whether the promotion contains an entry for productID.
func (p *Promotion) HasProduct(productID string) bool {
	for _, entry := range p.Products {
		if entry.ProductID == productID {
			return true
		}
	}
	return false
}

// findProduct returns the index of the entry for productID, or -1.
func (p *Promotion) findProduct(productID string) int {
	for i := range p.Products {
		if p.Products[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// MergeEntries folds new entries into the promotion's product list.
// Entries for products already present are merged variant by variant and
// combination by combination; exact duplicates are dropped. It returns the
// entries that actually changed the tree, so callers can skip persistence
// when nothing was added.
func (p *Promotion) MergeEntries(entries []ProductEntry) []ProductEntry {
	var added []ProductEntry
	for _, entry := range entries {
		idx := p.findProduct(entry.ProductID)
		if idx < 0 {
			p.Products = append(p.Products, entry)
			added = append(added, entry)
			continue
		}
		if mergeVariants(&p.Products[idx], entry.Variants) {
			added = append(added, entry)
		}
	}
	return added
}

// mergeVariants folds new variants into an existing product entry, returning
// true if anything was added.
func mergeVariants(target *ProductEntry, variants []VariantEntry) bool {
	changed := false
	for _, v := range variants {
		vi := -1
		for i := range target.Variants {
			if target.Variants[i].VariantID == v.VariantID {
				vi = i
				break
			}
		}
		if vi < 0 {
			target.Variants = append(target.Variants, v)
			changed = true
			continue
		}
		existing := &target.Variants[vi]
		for _, c := range v.Combinations {
			if findCombination(existing.Combinations, c.CombinationID) < 0 {
				existing.Combinations = append(existing.Combinations, c)
				changed = true
			}
		}
	}
	return changed
}

func findCombination(combinations []CombinationEntry, combinationID string) int {
	for i := range combinations {
		if combinations[i].CombinationID == combinationID {
			return i
		}
	}
	return -1
}

// RemoveAt deletes the node addressed by ref. With only a ProductID the whole
// product entry is removed; with a VariantID only that variant; with a
// CombinationID only that combination. It returns false when the addressed
// node does not exist, leaving the tree untouched.
func (p *Promotion) RemoveAt(ref EntryRef) bool {
	idx := p.findProduct(ref.ProductID)
	if idx < 0 {
		return false
	}
	if ref.VariantID == "" {
		p.Products = append(p.Products[:idx], p.Products[idx+1:]...)
		return true
	}

	entry := &p.Products[idx]
	vi := -1
	for i := range entry.Variants {
		if entry.Variants[i].VariantID == ref.VariantID {
			vi = i
			break
		}
	}
	if vi < 0 {
		return false
	}
	if ref.CombinationID == "" {
		entry.Variants = append(entry.Variants[:vi], entry.Variants[vi+1:]...)
		return true
	}

	variant := &entry.Variants[vi]
	ci := findCombination(variant.Combinations, ref.CombinationID)
	if ci < 0 {
		return false
	}
	variant.Combinations = append(variant.Combinations[:ci], variant.Combinations[ci+1:]...)
	return true
}

// UpdatePriceAt overwrites the adjusted price at the exact level addressed by
// ref. Sibling and parent levels are untouched. It returns false when the
// addressed node does not exist.
func (p *Promotion) UpdatePriceAt(ref EntryRef, adjustedPrice int64) bool {
	idx := p.findProduct(ref.ProductID)
	if idx < 0 {
		return false
	}
	entry := &p.Products[idx]
	if ref.VariantID == "" {
		entry.AdjustedPrice = &adjustedPrice
		return true
	}

	vi := -1
	for i := range entry.Variants {
		if entry.Variants[i].VariantID == ref.VariantID {
			vi = i
			break
		}
	}
	if vi < 0 {
		return false
	}
	variant := &entry.Variants[vi]
	if ref.CombinationID == "" {
		variant.AdjustedPrice = &adjustedPrice
		return true
	}

	ci := findCombination(variant.Combinations, ref.CombinationID)
	if ci < 0 {
		return false
	}
	variant.Combinations[ci].AdjustedPrice = &adjustedPrice
	return true
}

// MinAdjustedPrice returns the lowest adjusted price recorded anywhere in the
// entry tree for productID. List views price at the product level, so every
// variant and combination price participates regardless of granularity. The
// second return is false when the product has no priced entry.
func (p *Promotion) MinAdjustedPrice(productID string) (int64, bool) {
	idx := p.findProduct(productID)
	if idx < 0 {
		return 0, false
	}

	var (
		best  int64
		found bool
	)
	consider := func(price *int64) {
		if price == nil {
			return
		}
		if !found || *price < best {
			best = *price
			found = true
		}
	}

	entry := &p.Products[idx]
	consider(entry.AdjustedPrice)
	for i := range entry.Variants {
		consider(entry.Variants[i].AdjustedPrice)
		for j := range entry.Variants[i].Combinations {
			consider(entry.Variants[i].Combinations[j].AdjustedPrice)
		}
	}
	return best, found
}

// ApplyProductDetails refreshes the entry's denormalized display fields from
// the product catalog record. Adjusted prices and tree structure are
// preserved; only descriptive fields and original prices are overwritten.
func (e *ProductEntry) ApplyProductDetails(product *Product) {
	e.Name = product.Name
	e.Image = product.PrimaryImage()
	e.SKU = product.SKU
	e.Status = product.Status
	e.BrandID = product.BrandID
	e.Brand = product.BrandName
	e.OriginalPrice = product.Price

	for i := range e.Variants {
		variant := product.FindVariant(e.Variants[i].VariantID)
		if variant == nil {
			continue
		}
		e.Variants[i].VariantName = variant.Name
		e.Variants[i].VariantSKU = variant.SKU
		e.Variants[i].VariantPrice = variant.Price
		for j := range e.Variants[i].Combinations {
			combo := variant.FindCombination(e.Variants[i].Combinations[j].CombinationID)
			if combo == nil {
				continue
			}
			e.Variants[i].Combinations[j].Attributes = combo.Attributes
			e.Variants[i].Combinations[j].CombinationPrice = combo.Price
		}
	}
}
