package inventory

import (
	"bytes"
	"sort"

	"github.com/google/uuid"
	"github.com/kitchenops/backend/internal/domain/shared/valueobject"
)

// SortFIFO orders batches oldest first by received date.
// Batches received at the same instant are ordered by ID.
func SortFIFO(batches []*Batch) {
	sort.SliceStable(batches, func(i, j int) bool {
		a, b := batches[i], batches[j]
		if !a.ReceivedDate.Equal(b.ReceivedDate) {
			return a.ReceivedDate.Before(b.ReceivedDate)
		}
		return bytes.Compare(a.ID[:], b.ID[:]) < 0
	})
}

// BatchAllocation is the share of a request drawn from one batch.
// Consumed and Remaining are in the batch unit.
type BatchAllocation struct {
	Batch     *Batch
	Consumed  valueobject.Quantity
	Remaining valueobject.Quantity
	Cost      valueobject.Money
}

// BatchID returns the allocated batch ID
func (a BatchAllocation) BatchID() uuid.UUID {
	return a.Batch.ID
}

// FIFOAllocation is the outcome of walking batches for a request
type FIFOAllocation struct {
	Allocations []BatchAllocation
	// Unallocated is the part of the request no batch could cover,
	// expressed in the requested unit
	Unallocated valueobject.Quantity
	TotalCost   valueobject.Money
}

// IsComplete returns true if the batches covered the whole request
func (f *FIFOAllocation) IsComplete() bool {
	return f.Unallocated.IsZero()
}

// AllocateFIFO walks the ACTIVE batches in FIFO order, taking min(remaining, needed)
// from each until the request is covered. It does not mutate the batches.
// Batches that are not ACTIVE or have nothing left are skipped.
func AllocateFIFO(batches []*Batch, requested valueobject.Quantity, ctx valueobject.ConversionContext, currency valueobject.Currency) (*FIFOAllocation, error) {
	ordered := make([]*Batch, len(batches))
	copy(ordered, batches)
	SortFIFO(ordered)

	result := &FIFOAllocation{
		Allocations: make([]BatchAllocation, 0),
		TotalCost:   valueobject.Zero(currency),
	}
	needed := requested

	for _, batch := range ordered {
		if needed.IsZero() {
			break
		}
		if !batch.IsActive() || batch.RemainingQuantity.IsZero() {
			continue
		}

		// Work in the batch unit so the batch row is decremented exactly
		neededInBatch, err := needed.ConvertTo(batch.RemainingQuantity.Unit(), ctx)
		if err != nil {
			return nil, err
		}
		take, err := batch.RemainingQuantity.Min(neededInBatch, ctx)
		if err != nil {
			return nil, err
		}
		remaining, err := batch.RemainingQuantity.Subtract(take, ctx)
		if err != nil {
			return nil, err
		}

		cost := batch.ConsumedCost(take)
		result.TotalCost, err = result.TotalCost.Add(cost)
		if err != nil {
			return nil, err
		}
		result.Allocations = append(result.Allocations, BatchAllocation{
			Batch:     batch,
			Consumed:  take,
			Remaining: remaining,
			Cost:      cost,
		})

		needed, err = needed.Subtract(take, ctx)
		if err != nil {
			return nil, err
		}
	}

	result.Unallocated = needed
	return result, nil
}
