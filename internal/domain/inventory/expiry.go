package inventory

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/kitchenops/backend/internal/domain/shared/valueobject"
)

// ExpiryGroup is the expiring stock of one ingredient
type ExpiryGroup struct {
	IngredientID   uuid.UUID
	IngredientName string
	TotalRemaining valueobject.Quantity
	EarliestExpiry time.Time
	Batches        []*Batch
}

// SkippedBatch is a batch left out of the report, with the reason
type SkippedBatch struct {
	BatchID      uuid.UUID
	IngredientID uuid.UUID
	Reason       string
}

// ExpiryReport groups expiring batches per ingredient
type ExpiryReport struct {
	GeneratedAt time.Time
	Until       time.Time
	Groups      []ExpiryGroup
	Skipped     []SkippedBatch
}

// BuildExpiryReport sums the remaining quantity of batches expiring between now
// and now+days into each ingredient's stock unit. A batch whose ingredient is unknown
// or whose unit cannot be converted is skipped and listed in Skipped.
// Groups are ordered by earliest expiry.
func BuildExpiryReport(batches []*Batch, ingredients map[uuid.UUID]*Ingredient, now time.Time, days int) *ExpiryReport {
	until := now.AddDate(0, 0, days)
	report := &ExpiryReport{
		GeneratedAt: now,
		Until:       until,
		Groups:      make([]ExpiryGroup, 0),
		Skipped:     make([]SkippedBatch, 0),
	}

	groups := make(map[uuid.UUID]*ExpiryGroup)
	order := make([]uuid.UUID, 0)

	for _, batch := range batches {
		if !batch.IsActive() || !batch.ExpiresWithin(now, until) {
			continue
		}
		ingredient, ok := ingredients[batch.IngredientID]
		if !ok {
			report.Skipped = append(report.Skipped, SkippedBatch{
				BatchID:      batch.ID,
				IngredientID: batch.IngredientID,
				Reason:       "ingredient not found",
			})
			continue
		}

		group, ok := groups[ingredient.ID]
		if !ok {
			group = &ExpiryGroup{
				IngredientID:   ingredient.ID,
				IngredientName: ingredient.Name,
				TotalRemaining: valueobject.ZeroQuantity(ingredient.Unit),
				EarliestExpiry: *batch.ExpiryDate,
			}
		}
		total, err := group.TotalRemaining.Add(batch.RemainingQuantity, ingredient.ConversionContext())
		if err != nil {
			report.Skipped = append(report.Skipped, SkippedBatch{
				BatchID:      batch.ID,
				IngredientID: batch.IngredientID,
				Reason:       err.Error(),
			})
			continue
		}
		if !ok {
			groups[ingredient.ID] = group
			order = append(order, ingredient.ID)
		}
		group.TotalRemaining = total
		group.Batches = append(group.Batches, batch)
		if batch.ExpiryDate.Before(group.EarliestExpiry) {
			group.EarliestExpiry = *batch.ExpiryDate
		}
	}

	for _, id := range order {
		report.Groups = append(report.Groups, *groups[id])
	}
	sort.SliceStable(report.Groups, func(i, j int) bool {
		return report.Groups[i].EarliestExpiry.Before(report.Groups[j].EarliestExpiry)
	})
	return report
}
