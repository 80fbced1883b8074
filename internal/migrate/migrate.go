// Package migrate turns arbitrary previously-persisted cart JSON into the
// current line-item shape. Historical blobs may carry the current shape
// ({sku,name,quantity}), the pre-SKU plan shape ({planId,planName,quantity}),
// or garbage; garbage is dropped silently and duplicate skus are merged.
package migrate

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/Tomyshh/aerilux-commerce/internal/domain"
)

// FallbackSKU is the sku assigned to legacy plan entries whose plan name
// looks like the starter plan. The substring heuristic below is inherited
// business logic: changing it would silently re-bucket historical carts.
const FallbackSKU = "AER-STARTER"

// rawItem is the tagged union of every shape we have ever persisted.
// Fields with an unexpected JSON type stay nil/zero and the element falls
// through to the next variant or gets dropped.
type rawItem struct {
	SKU      *string  `json:"sku"`
	Name     *string  `json:"name"`
	PlanID   *string  `json:"planId"`
	PlanName *string  `json:"planName"`
	Quantity *float64 `json:"quantity"`
}

// FromBlob parses a persisted blob and migrates it. Unparsable JSON or a
// non-array payload yields an empty cart, never an error.
func FromBlob(blob string) []domain.LineItem {
	var elements []json.RawMessage
	if err := json.Unmarshal([]byte(blob), &elements); err != nil {
		return nil
	}
	return Migrate(elements)
}

// Migrate maps each element to a LineItem and merges entries sharing a sku
// by summing quantities, preserving the order of first appearance. It is
// idempotent: migrating its own output changes nothing.
func Migrate(elements []json.RawMessage) []domain.LineItem {
	var items []domain.LineItem
	index := make(map[string]int)

	for _, el := range elements {
		item, ok := classify(el)
		if !ok {
			continue
		}
		if i, seen := index[item.SKU]; seen {
			items[i].Quantity += item.Quantity
			continue
		}
		index[item.SKU] = len(items)
		items = append(items, item)
	}
	return items
}

func classify(el json.RawMessage) (domain.LineItem, bool) {
	var raw rawItem
	if err := json.Unmarshal(el, &raw); err != nil {
		// Retry with lenient string coercion: historical writers sometimes
		// persisted numeric skus.
		raw, err = lenientDecode(el)
		if err != nil {
			return domain.LineItem{}, false
		}
	}

	switch {
	case raw.SKU != nil && raw.Name != nil && raw.Quantity != nil:
		return domain.LineItem{
			SKU:      *raw.SKU,
			Name:     *raw.Name,
			Quantity: clampQuantity(*raw.Quantity),
		}, true
	case raw.PlanID != nil && raw.PlanName != nil && raw.Quantity != nil:
		return domain.LineItem{
			SKU:      legacySKU(*raw.PlanID, *raw.PlanName),
			Name:     *raw.PlanName,
			Quantity: clampQuantity(*raw.Quantity),
		}, true
	default:
		return domain.LineItem{}, false
	}
}

// legacySKU maps a pre-SKU plan entry onto a sku. Starter-looking plan
// names collapse onto the fallback sku, anything else keeps its plan id
// verbatim.
func legacySKU(planID, planName string) string {
	lower := strings.ToLower(planName)
	if strings.Contains(lower, "starter") || strings.Contains(lower, "aerilux") {
		return FallbackSKU
	}
	return planID
}

func clampQuantity(q float64) int {
	n := int(math.Floor(q))
	if n < 1 {
		return 1
	}
	return n
}

// lenientDecode tolerates numeric sku/name/planId values by stringifying
// them, matching how the storefront's old serializer behaved.
func lenientDecode(el json.RawMessage) (rawItem, error) {
	var m map[string]any
	if err := json.Unmarshal(el, &m); err != nil {
		return rawItem{}, err
	}
	var raw rawItem
	raw.SKU = asString(m, "sku")
	raw.Name = asString(m, "name")
	raw.PlanID = asString(m, "planId")
	raw.PlanName = asString(m, "planName")
	if q, ok := m["quantity"].(float64); ok {
		raw.Quantity = &q
	}
	return raw, nil
}

func asString(m map[string]any, key string) *string {
	v, ok := m[key]
	if !ok {
		return nil
	}
	switch s := v.(type) {
	case string:
		return &s
	case float64:
		formatted := strconv.FormatFloat(s, 'f', -1, 64)
		return &formatted
	default:
		return nil
	}
}
