// Package calculator derives current item attribute values: a pull-based,
// memoized resolution of an item's effective attribute value through the
// five-stage dogma operator pipeline, with the stacking penalty applied to
// non-stackable source attributes.
package calculator

import (
	"math"
	"sort"

	"github.com/Sternrassler/eve-fit-core/internal/fit/fiterr"
	"github.com/Sternrassler/eve-fit-core/internal/fit/model"
	"github.com/Sternrassler/eve-fit-core/internal/metrics"
	"github.com/Sternrassler/eve-fit-core/pkg/logger"
)

// stackingPenaltyBase and stackingPenaltyDivisor define the diminishing-
// returns curve factor(i) = base^(i²/divisor²), i being the zero-based rank
// of a contribution within its penalty group (rank 0 is unpenalized).
const (
	stackingPenaltyBase    = 0.5
	stackingPenaltyDivisor = 2.22
)

// ItemLookup resolves an affector's carrier handle back to its live Item so
// the calculator can read the modifier's source attribute off it.
type ItemLookup interface {
	Lookup(h model.Handle) (*model.Item, bool)
}

// AffectorSource supplies the set of affectors currently applicable to an
// item — the register, in production use.
type AffectorSource interface {
	GetAffectors(item *model.Item) []model.Affector
}

// Calculator resolves item attribute values on demand.
type Calculator struct {
	catalog   model.TypeCatalog
	items     ItemLookup
	affectors AffectorSource
	logger    *logger.Logger
}

// New builds a Calculator backed by catalog for type/attribute metadata,
// items for carrier lookups, and affectors for the current affector set.
func New(catalog model.TypeCatalog, items ItemLookup, affectors AffectorSource, log *logger.Logger) *Calculator {
	return &Calculator{catalog: catalog, items: items, affectors: affectors, logger: log}
}

// contribution is one affector's evaluated input to a pipeline stage.
type contribution struct {
	value     float64 // assignment-class candidate value
	magnitude float64 // multiplier (mul classes) or delta (add class)
	stackable bool
	order     int
}

// Get resolves item's effective value for attrID. A nil value with a nil
// error means the type carries no base value and the attribute has no
// default. A non-nil error is always an AttributeMetadataError: the catalog
// has no descriptor at all for attrID.
func (c *Calculator) Get(item *model.Item, attrID model.AttributeID) (*float64, error) {
	if v, ok := item.CacheGet(attrID); ok {
		metrics.CalculatorCacheHitsTotal.Inc()
		return &v, nil
	}

	descriptor, ok := c.catalog.Attribute(attrID)
	if !ok {
		return nil, fiterr.NewAttributeMetadataError(attrID)
	}

	base, hasBase := item.Type().BaseAttrs[attrID]
	if !hasBase {
		if !descriptor.HasDefault {
			return nil, nil
		}
		base = descriptor.DefaultValue
	}

	if item.InProgress(attrID) {
		metrics.CalculatorCycleGuardTotal.Inc()
		c.logger.Warn("attribute computation cycle detected", "type_id", item.TypeID, "attribute_id", attrID)
		return &base, nil
	}

	item.MarkInProgress(attrID)
	defer item.ClearInProgress(attrID)

	value, err := c.runPipeline(item, attrID, base, descriptor)
	if err != nil {
		return nil, err
	}

	if descriptor.MaxAttributeID != nil {
		max, err := c.Get(item, *descriptor.MaxAttributeID)
		if err != nil {
			return nil, err
		}
		if max != nil && value > *max {
			value = *max
		}
		if value < 0 {
			value = 0
		}
	}

	item.CacheSet(attrID, value)
	metrics.CalculatorCacheMissesTotal.Inc()
	return &value, nil
}

func (c *Calculator) runPipeline(item *model.Item, attrID model.AttributeID, base float64, descriptor model.AttributeDescriptor) (float64, error) {
	var preAssign, postAssign, preMul, add, postMul []contribution

	order := 0
	for _, aff := range c.affectors.GetAffectors(item) {
		if aff.Modifier.TgtAttr != attrID {
			continue
		}
		src, err := c.resolveSource(aff)
		if err != nil {
			return 0, err
		}
		if src == nil {
			continue
		}

		srcDescriptor, ok := c.catalog.Attribute(aff.Modifier.SrcAttr)
		stackable := ok && srcDescriptor.Stackable

		switch aff.Modifier.Operator.Class() {
		case model.ClassPreAssign:
			preAssign = append(preAssign, contribution{value: *src, order: order})
		case model.ClassPostAssign:
			postAssign = append(postAssign, contribution{value: *src, order: order})
		case model.ClassPreMul:
			preMul = append(preMul, contribution{magnitude: mulMagnitude(aff.Modifier.Operator, *src), stackable: stackable, order: order})
		case model.ClassAdd:
			add = append(add, contribution{magnitude: addMagnitude(aff.Modifier.Operator, *src), stackable: stackable, order: order})
		case model.ClassPostMul:
			postMul = append(postMul, contribution{magnitude: mulMagnitude(aff.Modifier.Operator, *src), stackable: stackable, order: order})
		}
		order++
	}

	value := base
	if winner, ok := pickAssignmentWinner(preAssign, descriptor.HighIsGood); ok {
		value = winner
	}
	value *= applyMulClass(preMul)
	value += applyAddClass(add)
	value *= applyMulClass(postMul)
	if winner, ok := pickAssignmentWinner(postAssign, descriptor.HighIsGood); ok {
		value = winner
	}
	return value, nil
}

// resolveSource evaluates an affector's source attribute on its carrier
// item. A missing carrier (never expected in steady state, since the
// register only reports affectors for carriers it still knows about) is
// treated the same as a valueless attribute: the contribution is skipped.
func (c *Calculator) resolveSource(aff model.Affector) (*float64, error) {
	carrier, ok := c.items.Lookup(aff.Carrier)
	if !ok {
		return nil, nil
	}
	return c.Get(carrier, aff.Modifier.SrcAttr)
}

func mulMagnitude(op model.ModOperator, src float64) float64 {
	switch op {
	case model.OpPreMul, model.OpPostMul:
		return src
	case model.OpPreDiv, model.OpPostDiv:
		if src == 0 {
			return 1
		}
		return 1 / src
	case model.OpPostPercent:
		return 1 + src/100
	default:
		return 1
	}
}

func addMagnitude(op model.ModOperator, src float64) float64 {
	switch op {
	case model.OpModAdd:
		return src
	case model.OpModSub:
		return -src
	default:
		return 0
	}
}

// pickAssignmentWinner selects the single contribution an assignment-class
// stage applies: the largest value when highIsGood, the smallest
// otherwise. Strict comparison means the earliest-registered tie wins.
func pickAssignmentWinner(contribs []contribution, highIsGood bool) (float64, bool) {
	if len(contribs) == 0 {
		return 0, false
	}
	best := contribs[0].value
	for _, c := range contribs[1:] {
		if highIsGood {
			if c.value > best {
				best = c.value
			}
		} else if c.value < best {
			best = c.value
		}
	}
	return best, true
}

// applyMulClass combines a stage's multiplicative contributions: stackable
// sources always apply in full; non-stackable sources are grouped by
// polarity (bonus vs malus) and stacking-penalized within each group.
func applyMulClass(contribs []contribution) float64 {
	result := 1.0
	var bonus, malus []contribution
	for _, c := range contribs {
		if c.stackable {
			result *= c.magnitude
			continue
		}
		if c.magnitude >= 1 {
			bonus = append(bonus, c)
		} else {
			malus = append(malus, c)
		}
	}
	result *= penalizedMulGroup(bonus)
	result *= penalizedMulGroup(malus)
	return result
}

func penalizedMulGroup(group []contribution) float64 {
	sort.SliceStable(group, func(i, j int) bool {
		return math.Abs(group[i].magnitude-1) > math.Abs(group[j].magnitude-1)
	})
	product := 1.0
	for i, c := range group {
		penalty := stackingPenalty(i)
		product *= 1 + (c.magnitude-1)*penalty
	}
	return product
}

// applyAddClass combines a stage's additive contributions, grouping
// non-stackable sources by polarity the same way applyMulClass does.
func applyAddClass(contribs []contribution) float64 {
	sum := 0.0
	var bonus, malus []contribution
	for _, c := range contribs {
		if c.stackable {
			sum += c.magnitude
			continue
		}
		if c.magnitude >= 0 {
			bonus = append(bonus, c)
		} else {
			malus = append(malus, c)
		}
	}
	sum += penalizedAddGroup(bonus)
	sum += penalizedAddGroup(malus)
	return sum
}

func penalizedAddGroup(group []contribution) float64 {
	sort.SliceStable(group, func(i, j int) bool {
		return math.Abs(group[i].magnitude) > math.Abs(group[j].magnitude)
	})
	total := 0.0
	for i, c := range group {
		total += c.magnitude * stackingPenalty(i)
	}
	return total
}

func stackingPenalty(rank int) float64 {
	return math.Pow(stackingPenaltyBase, math.Pow(float64(rank), 2)/(stackingPenaltyDivisor*stackingPenaltyDivisor))
}
