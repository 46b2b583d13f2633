package service

import (
	"context"
	"log/slog"

	"github.com/glowcart/promotion-service/internal/domain"
	apperrors "github.com/glowcart/promotion-service/pkg/errors"
)

// ExclusivityValidator enforces the rule that a product belongs to at most
// one active promotion system-wide, across both kinds. It always reads live
// state; the promotion_products claim table in storage is the backstop for
// writers that race past this check.
type ExclusivityValidator struct {
	pool   *PoolService
	logger *slog.Logger
}

// NewExclusivityValidator creates a new exclusivity validator.
func NewExclusivityValidator(pool *PoolService, logger *slog.Logger) *ExclusivityValidator {
	return &ExclusivityValidator{
		pool:   pool,
		logger: logger,
	}
}

// ProductMembership reports, for one product, which active promotions it
// currently belongs to.
type ProductMembership struct {
	ProductID     string `json:"product_id"`
	InEvent       bool   `json:"in_event"`
	EventID       string `json:"event_id,omitempty"`
	EventTitle    string `json:"event_title,omitempty"`
	InCampaign    bool   `json:"in_campaign"`
	CampaignID    string `json:"campaign_id,omitempty"`
	CampaignTitle string `json:"campaign_title,omitempty"`
}

// CheckConflicts verifies that none of the candidate products already belong
// to an active promotion other than excludePromotionID. It fails fast on the
// first conflict, naming the product and its owning promotion so the caller
// knows what to detach first. Event owners are scanned before campaign
// owners, making the reported conflict deterministic.
func (v *ExclusivityValidator) CheckConflicts(ctx context.Context, candidateIDs []string, targetKind, excludePromotionID string) error {
	if len(candidateIDs) == 0 {
		return nil
	}

	pool, err := v.pool.ActivePromotionsLive(ctx)
	if err != nil {
		return err
	}

	eventOwners := ownerMap(pool.Events, excludePromotionID)
	campaignOwners := ownerMap(pool.Campaigns, excludePromotionID)

	for _, productID := range candidateIDs {
		if owner, ok := eventOwners[productID]; ok {
			return apperrors.PromotionConflict(productID, owner.ID, owner.Kind, owner.Title)
		}
		if owner, ok := campaignOwners[productID]; ok {
			return apperrors.PromotionConflict(productID, owner.ID, owner.Kind, owner.Title)
		}
	}

	return nil
}

// CheckProductsInPromotions reports active promotion membership for each
// product ID. This is a read-only, non-authoritative helper: when the pool
// cannot be read it degrades to empty memberships instead of failing the
// request.
func (v *ExclusivityValidator) CheckProductsInPromotions(ctx context.Context, productIDs []string) []ProductMembership {
	memberships := make([]ProductMembership, len(productIDs))
	for i, id := range productIDs {
		memberships[i] = ProductMembership{ProductID: id}
	}

	pool, err := v.pool.ActivePromotions(ctx)
	if err != nil {
		v.logger.WarnContext(ctx, "membership check degraded to empty results",
			slog.String("error", err.Error()),
		)
		return memberships
	}

	eventOwners := ownerMap(pool.Events, "")
	campaignOwners := ownerMap(pool.Campaigns, "")

	for i := range memberships {
		if owner, ok := eventOwners[memberships[i].ProductID]; ok {
			memberships[i].InEvent = true
			memberships[i].EventID = owner.ID
			memberships[i].EventTitle = owner.Title
		}
		if owner, ok := campaignOwners[memberships[i].ProductID]; ok {
			memberships[i].InCampaign = true
			memberships[i].CampaignID = owner.ID
			memberships[i].CampaignTitle = owner.Title
		}
	}

	return memberships
}

// ownerMap builds productID -> owning promotion for the given promotions,
// skipping excludeID. The first promotion claiming a product wins.
func ownerMap(promotions []domain.Promotion, excludeID string) map[string]*domain.Promotion {
	owners := make(map[string]*domain.Promotion)
	for i := range promotions {
		if excludeID != "" && promotions[i].ID == excludeID {
			continue
		}
		for _, productID := range promotions[i].ProductIDs() {
			if _, taken := owners[productID]; !taken {
				owners[productID] = &promotions[i]
			}
		}
	}
	return owners
}
