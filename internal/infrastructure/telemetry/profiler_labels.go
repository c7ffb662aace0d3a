package telemetry

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/grafana/pyroscope-go"
)

// Profiling label keys
const (
	ProfilingLabelOperation  = "operation"
	ProfilingLabelTenantID   = "tenant_id"
	ProfilingLabelIngredient = "ingredient"
)

// MaxLabelValueLength caps label values to keep profile series bounded
const MaxLabelValueLength = 128

// LedgerLabels labels a ledger operation on one ingredient
func LedgerLabels(operation string, tenantID, ingredientID uuid.UUID) map[string]string {
	labels := map[string]string{ProfilingLabelOperation: operation}
	if tenantID != uuid.Nil {
		labels[ProfilingLabelTenantID] = tenantID.String()
	}
	if ingredientID != uuid.Nil {
		labels[ProfilingLabelIngredient] = ingredientID.String()
	}
	return labels
}

// WithProfilingLabels runs fn with pprof labels attached to its goroutine, so
// CPU samples taken inside fn can be filtered by operation and ingredient.
// The labels are carried on the context passed to fn and work without a
// running profiler.
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := labelPairs(labels)
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}

// labelPairs drops empty entries, truncates long values and sorts by key
func labelPairs(labels map[string]string) []string {
	keys := make([]string, 0, len(labels))
	for k, v := range labels {
		if k != "" && v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		v := labels[k]
		if len(v) > MaxLabelValueLength {
			v = v[:MaxLabelValueLength]
		}
		pairs = append(pairs, k, v)
	}
	return pairs
}
