package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64Ptr(v int64) *int64 { return &v }

// sampleTree builds a product entry with two variants, the first carrying two
// combinations. Used by the removal and pricing tests.
func sampleTree() ProductEntry {
	return ProductEntry{
		ProductID:     "prod-1",
		OriginalPrice: 200000,
		AdjustedPrice: int64Ptr(150000),
		Variants: []VariantEntry{
			{
				VariantID:     "var-1",
				VariantPrice:  210000,
				AdjustedPrice: int64Ptr(160000),
				Combinations: []CombinationEntry{
					{CombinationID: "combo-1", CombinationPrice: 220000, AdjustedPrice: int64Ptr(170000)},
					{CombinationID: "combo-2", CombinationPrice: 230000, AdjustedPrice: int64Ptr(140000)},
				},
			},
			{
				VariantID:    "var-2",
				VariantPrice: 190000,
			},
		},
	}
}

// ============================================================================
// Kind and Status Validation Tests
// ============================================================================

func TestValidKinds_ContainsAll(t *testing.T) {
	assert.ElementsMatch(t, []string{PromotionKindEvent, PromotionKindCampaign}, ValidKinds())
}

func TestIsValidKind(t *testing.T) {
	assert.True(t, IsValidKind(PromotionKindEvent))
	assert.True(t, IsValidKind(PromotionKindCampaign))
	assert.False(t, IsValidKind("unknown"))
	assert.False(t, IsValidKind(""))
	assert.False(t, IsValidKind("EVENT"))
}

func TestIsValidStatus(t *testing.T) {
	for _, s := range ValidStatuses() {
		assert.True(t, IsValidStatus(s), "expected %q to be valid", s)
	}
	assert.False(t, IsValidStatus("unknown"))
	assert.False(t, IsValidStatus(""))
}

// ============================================================================
// Activity Window Tests
// ============================================================================

func TestIsActiveAt_InclusiveBoundaries(t *testing.T) {
	start := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 17, 23, 59, 59, 0, time.UTC)
	p := Promotion{StartDate: start, EndDate: end}

	assert.True(t, p.IsActiveAt(start), "start boundary is inclusive")
	assert.True(t, p.IsActiveAt(end), "end boundary is inclusive")
	assert.True(t, p.IsActiveAt(start.Add(24*time.Hour)))
	assert.False(t, p.IsActiveAt(start.Add(-time.Second)))
	assert.False(t, p.IsActiveAt(end.Add(time.Second)))
}

// ============================================================================
// Entry Merge Tests
// ============================================================================

func TestMergeEntries_AppendsNewProduct(t *testing.T) {
	p := Promotion{}
	added := p.MergeEntries([]ProductEntry{{ProductID: "prod-1", AdjustedPrice: int64Ptr(90000)}})

	require.Len(t, added, 1)
	require.Len(t, p.Products, 1)
	assert.Equal(t, "prod-1", p.Products[0].ProductID)
}

func TestMergeEntries_DuplicateProductIgnored(t *testing.T) {
	p := Promotion{Products: []ProductEntry{{ProductID: "prod-1"}}}
	added := p.MergeEntries([]ProductEntry{{ProductID: "prod-1"}})

	assert.Empty(t, added)
	assert.Len(t, p.Products, 1)
}

func TestMergeEntries_NewVariantMergedIntoExistingProduct(t *testing.T) {
	p := Promotion{Products: []ProductEntry{{
		ProductID: "prod-1",
		Variants:  []VariantEntry{{VariantID: "var-1"}},
	}}}

	added := p.MergeEntries([]ProductEntry{{
		ProductID: "prod-1",
		Variants:  []VariantEntry{{VariantID: "var-2", AdjustedPrice: int64Ptr(80000)}},
	}})

	require.Len(t, added, 1)
	require.Len(t, p.Products, 1)
	assert.Len(t, p.Products[0].Variants, 2)
}

func TestMergeEntries_NewCombinationMergedIntoExistingVariant(t *testing.T) {
	p := Promotion{Products: []ProductEntry{{
		ProductID: "prod-1",
		Variants: []VariantEntry{{
			VariantID:    "var-1",
			Combinations: []CombinationEntry{{CombinationID: "combo-1"}},
		}},
	}}}

	added := p.MergeEntries([]ProductEntry{{
		ProductID: "prod-1",
		Variants: []VariantEntry{{
			VariantID:    "var-1",
			Combinations: []CombinationEntry{{CombinationID: "combo-2"}},
		}},
	}})

	require.Len(t, added, 1)
	assert.Len(t, p.Products[0].Variants[0].Combinations, 2)
}

func TestMergeEntries_ExactDuplicateVariantAndCombination(t *testing.T) {
	p := Promotion{Products: []ProductEntry{{
		ProductID: "prod-1",
		Variants: []VariantEntry{{
			VariantID:    "var-1",
			Combinations: []CombinationEntry{{CombinationID: "combo-1"}},
		}},
	}}}

	added := p.MergeEntries([]ProductEntry{{
		ProductID: "prod-1",
		Variants: []VariantEntry{{
			VariantID:    "var-1",
			Combinations: []CombinationEntry{{CombinationID: "combo-1"}},
		}},
	}})

	assert.Empty(t, added)
	assert.Len(t, p.Products[0].Variants, 1)
	assert.Len(t, p.Products[0].Variants[0].Combinations, 1)
}

// ============================================================================
// Removal Granularity Tests
// ============================================================================

func TestRemoveAt_CombinationOnly(t *testing.T) {
	p := Promotion{Products: []ProductEntry{sampleTree()}}

	ok := p.RemoveAt(EntryRef{ProductID: "prod-1", VariantID: "var-1", CombinationID: "combo-1"})

	require.True(t, ok)
	require.Len(t, p.Products, 1)
	require.Len(t, p.Products[0].Variants, 2)
	assert.Len(t, p.Products[0].Variants[0].Combinations, 1)
	assert.Equal(t, "combo-2", p.Products[0].Variants[0].Combinations[0].CombinationID)
	assert.Equal(t, "var-2", p.Products[0].Variants[1].VariantID, "sibling variant untouched")
}

func TestRemoveAt_VariantRemovesAllItsCombinations(t *testing.T) {
	p := Promotion{Products: []ProductEntry{sampleTree()}}

	ok := p.RemoveAt(EntryRef{ProductID: "prod-1", VariantID: "var-1"})

	require.True(t, ok)
	require.Len(t, p.Products, 1)
	require.Len(t, p.Products[0].Variants, 1)
	assert.Equal(t, "var-2", p.Products[0].Variants[0].VariantID)
}

func TestRemoveAt_ProductRemovesEntireEntry(t *testing.T) {
	p := Promotion{Products: []ProductEntry{sampleTree(), {ProductID: "prod-2"}}}

	ok := p.RemoveAt(EntryRef{ProductID: "prod-1"})

	require.True(t, ok)
	require.Len(t, p.Products, 1)
	assert.Equal(t, "prod-2", p.Products[0].ProductID)
}

func TestRemoveAt_MissingNodes(t *testing.T) {
	p := Promotion{Products: []ProductEntry{sampleTree()}}

	assert.False(t, p.RemoveAt(EntryRef{ProductID: "nope"}))
	assert.False(t, p.RemoveAt(EntryRef{ProductID: "prod-1", VariantID: "nope"}))
	assert.False(t, p.RemoveAt(EntryRef{ProductID: "prod-1", VariantID: "var-1", CombinationID: "nope"}))
	assert.Len(t, p.Products, 1, "tree untouched after failed removals")
	assert.Len(t, p.Products[0].Variants, 2)
}

// ============================================================================
// Price Update Tests
// ============================================================================

func TestUpdatePriceAt_ProductLevelOnly(t *testing.T) {
	p := Promotion{Products: []ProductEntry{sampleTree()}}

	ok := p.UpdatePriceAt(EntryRef{ProductID: "prod-1"}, 99000)

	require.True(t, ok)
	assert.Equal(t, int64(99000), *p.Products[0].AdjustedPrice)
	assert.Equal(t, int64(160000), *p.Products[0].Variants[0].AdjustedPrice, "variant price untouched")
}

func TestUpdatePriceAt_VariantLevelOnly(t *testing.T) {
	p := Promotion{Products: []ProductEntry{sampleTree()}}

	ok := p.UpdatePriceAt(EntryRef{ProductID: "prod-1", VariantID: "var-1"}, 88000)

	require.True(t, ok)
	assert.Equal(t, int64(150000), *p.Products[0].AdjustedPrice, "product price untouched")
	assert.Equal(t, int64(88000), *p.Products[0].Variants[0].AdjustedPrice)
	assert.Equal(t, int64(170000), *p.Products[0].Variants[0].Combinations[0].AdjustedPrice, "combination untouched")
}

func TestUpdatePriceAt_CombinationLevelOnly(t *testing.T) {
	p := Promotion{Products: []ProductEntry{sampleTree()}}

	ok := p.UpdatePriceAt(EntryRef{ProductID: "prod-1", VariantID: "var-1", CombinationID: "combo-2"}, 77000)

	require.True(t, ok)
	assert.Equal(t, int64(77000), *p.Products[0].Variants[0].Combinations[1].AdjustedPrice)
	assert.Equal(t, int64(170000), *p.Products[0].Variants[0].Combinations[0].AdjustedPrice)
}

func TestUpdatePriceAt_MissingNode(t *testing.T) {
	p := Promotion{Products: []ProductEntry{sampleTree()}}

	assert.False(t, p.UpdatePriceAt(EntryRef{ProductID: "nope"}, 1))
	assert.False(t, p.UpdatePriceAt(EntryRef{ProductID: "prod-1", VariantID: "nope"}, 1))
}

// ============================================================================
// Minimum Price Tests
// ============================================================================

func TestMinAdjustedPrice_ScansWholeTree(t *testing.T) {
	p := Promotion{Products: []ProductEntry{sampleTree()}}

	// combo-2 carries the lowest adjusted price in the tree.
	price, ok := p.MinAdjustedPrice("prod-1")
	require.True(t, ok)
	assert.Equal(t, int64(140000), price)
}

func TestMinAdjustedPrice_NoPricedEntry(t *testing.T) {
	p := Promotion{Products: []ProductEntry{{
		ProductID: "prod-1",
		Variants:  []VariantEntry{{VariantID: "var-1"}},
	}}}

	_, ok := p.MinAdjustedPrice("prod-1")
	assert.False(t, ok)
}

func TestMinAdjustedPrice_UnknownProduct(t *testing.T) {
	p := Promotion{Products: []ProductEntry{sampleTree()}}

	_, ok := p.MinAdjustedPrice("prod-2")
	assert.False(t, ok)
}

// ============================================================================
// Enrichment Tests
// ============================================================================

func catalogProduct() *Product {
	return &Product{
		ID:        "prod-1",
		Name:      "Rose Petal Serum",
		SKU:       "SER-001",
		Status:    "published",
		Images:    []string{"https://cdn.glowcart.dev/serum.jpg"},
		Price:     200000,
		BrandID:   "brand-1",
		BrandName: "Glow Labs",
		Variants: []ProductVariant{{
			ID:    "var-1",
			Name:  "30ml",
			SKU:   "SER-001-30",
			Price: 210000,
			Combinations: []ProductCombination{{
				ID:         "combo-1",
				Attributes: map[string]string{"size": "30ml", "edition": "gift"},
				Price:      220000,
			}},
		}},
	}
}

func TestApplyProductDetails_CopiesDisplayFields(t *testing.T) {
	entry := sampleTree()
	entry.ApplyProductDetails(catalogProduct())

	assert.Equal(t, "Rose Petal Serum", entry.Name)
	assert.Equal(t, "https://cdn.glowcart.dev/serum.jpg", entry.Image)
	assert.Equal(t, "SER-001", entry.SKU)
	assert.Equal(t, "Glow Labs", entry.Brand)
	assert.Equal(t, int64(200000), entry.OriginalPrice)
	assert.Equal(t, "30ml", entry.Variants[0].VariantName)
	assert.Equal(t, int64(210000), entry.Variants[0].VariantPrice)
	assert.Equal(t, int64(220000), entry.Variants[0].Combinations[0].CombinationPrice)
	assert.Equal(t, "gift", entry.Variants[0].Combinations[0].Attributes["edition"])
}

func TestApplyProductDetails_PreservesAdjustedPrices(t *testing.T) {
	entry := sampleTree()
	entry.ApplyProductDetails(catalogProduct())

	assert.Equal(t, int64(150000), *entry.AdjustedPrice)
	assert.Equal(t, int64(160000), *entry.Variants[0].AdjustedPrice)
	assert.Equal(t, int64(170000), *entry.Variants[0].Combinations[0].AdjustedPrice)
}

func TestApplyProductDetails_Idempotent(t *testing.T) {
	entry := sampleTree()
	product := catalogProduct()

	entry.ApplyProductDetails(product)
	first := entry
	entry.ApplyProductDetails(product)

	assert.Equal(t, first, entry)
}

func TestApplyProductDetails_UnknownVariantLeftAlone(t *testing.T) {
	entry := sampleTree()
	product := catalogProduct() // has no var-2

	entry.ApplyProductDetails(product)

	assert.Equal(t, int64(190000), entry.Variants[1].VariantPrice)
	assert.Empty(t, entry.Variants[1].VariantName)
}

// ============================================================================
// Product ID Tests
// ============================================================================

func TestProductIDs_Distinct(t *testing.T) {
	p := Promotion{Products: []ProductEntry{
		{ProductID: "prod-1"},
		{ProductID: "prod-2"},
	}}
	assert.Equal(t, []string{"prod-1", "prod-2"}, p.ProductIDs())
}

func TestHasProduct(t *testing.T) {
	p := Promotion{Products: []ProductEntry{{ProductID: "prod-1"}}}
	assert.True(t, p.HasProduct("prod-1"))
	assert.False(t, p.HasProduct("prod-2"))
}

func TestSummary_CountsTreeNodes(t *testing.T) {
	now := time.Now().UTC()
	p := Promotion{
		ID:        "promo-1",
		Kind:      PromotionKindEvent,
		Title:     "Spring Sale",
		Status:    PromotionStatusPublished,
		StartDate: now.Add(-time.Hour),
		EndDate:   now.Add(time.Hour),
		Products:  []ProductEntry{sampleTree(), {ProductID: "prod-2", OriginalPrice: 90000}},
	}

	s := p.Summary(now)
	assert.Equal(t, "promo-1", s.PromotionID)
	assert.True(t, s.Active)
	assert.Equal(t, 2, s.ProductCount)
	assert.Equal(t, 2, s.VariantCount)
	assert.Equal(t, 2, s.CombinationCount)
	assert.Equal(t, 4, s.AdjustedCount, "product, variant, and two combination prices")
}

func TestSummary_ExpiredPromotionInactive(t *testing.T) {
	now := time.Now().UTC()
	p := Promotion{
		ID:        "promo-1",
		Kind:      PromotionKindCampaign,
		StartDate: now.Add(-48 * time.Hour),
		EndDate:   now.Add(-24 * time.Hour),
	}

	s := p.Summary(now)
	assert.False(t, s.Active)
	assert.Zero(t, s.ProductCount)
}

func TestBasePrice_FallsBackToListPrice(t *testing.T) {
	product := Product{Price: 100000}
	assert.Equal(t, int64(100000), product.BasePrice())

	product.CurrentPrice = int64Ptr(85000)
	assert.Equal(t, int64(85000), product.BasePrice())
}
