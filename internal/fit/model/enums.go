// Package model holds the immutable Type/Effect/Modifier data model and the
// mutable Item/Affector shapes that the register and calculator operate on.
package model

// State is an item activation level. Modifiers only apply once their
// carrier's state reaches the modifier's own threshold.
type State int

const (
	StateOffline State = iota
	StateOnline
	StateActive
	StateOverload
)

func (s State) String() string {
	switch s {
	case StateOffline:
		return "offline"
	case StateOnline:
		return "online"
	case StateActive:
		return "active"
	case StateOverload:
		return "overload"
	default:
		return "unknown"
	}
}

// ModDomain is the logical scope a modifier targets.
type ModDomain string

const (
	DomainSelf      ModDomain = "self"
	DomainCharacter ModDomain = "character"
	DomainShip      ModDomain = "ship"
	DomainOther     ModDomain = "other"
)

// ModTgtFilter selects which items within a ModDomain a modifier affects.
type ModTgtFilter string

const (
	FilterItem          ModTgtFilter = "item"
	FilterDomain        ModTgtFilter = "domain"
	FilterDomainGroup   ModTgtFilter = "domain_group"
	FilterDomainSkillrq ModTgtFilter = "domain_skillrq"
	FilterOwnerSkillrq  ModTgtFilter = "owner_skillrq"
)

// ModOperator is the arithmetic a modifier's contribution performs.
type ModOperator string

const (
	OpPreAssign   ModOperator = "pre_assign"
	OpPreMul      ModOperator = "pre_mul"
	OpPreDiv      ModOperator = "pre_div"
	OpModAdd      ModOperator = "mod_add"
	OpModSub      ModOperator = "mod_sub"
	OpPostMul     ModOperator = "post_mul"
	OpPostDiv     ModOperator = "post_div"
	OpPostPercent ModOperator = "post_percent"
	OpPostAssign  ModOperator = "post_assign"
)

// OperatorClass buckets operators into the five pipeline stages, applied
// in this order: PreAssign, PreMul, Add, PostMul, PostAssign.
type OperatorClass int

const (
	ClassPreAssign OperatorClass = iota
	ClassPreMul
	ClassAdd
	ClassPostMul
	ClassPostAssign
)

// Class returns the pipeline stage an operator belongs to.
func (op ModOperator) Class() OperatorClass {
	switch op {
	case OpPreAssign:
		return ClassPreAssign
	case OpPreMul, OpPreDiv:
		return ClassPreMul
	case OpModAdd, OpModSub:
		return ClassAdd
	case OpPostMul, OpPostDiv, OpPostPercent:
		return ClassPostMul
	case OpPostAssign:
		return ClassPostAssign
	default:
		return ClassAdd
	}
}

// Penalizable reports whether contributions in this class are subject to
// the stacking penalty (assignment classes take a single winner instead).
func (c OperatorClass) Penalizable() bool {
	return c == ClassPreMul || c == ClassAdd || c == ClassPostMul
}

// EffectCategory classifies an effect and determines its default activation
// state and context.
type EffectCategory int

const (
	CategoryPassive EffectCategory = iota
	CategoryActive
	CategoryTarget
	CategoryArea
	CategoryOnline
	CategoryOverload
	CategoryDungeon
	CategorySystem
)

// EffectContext distinguishes effects that modify the carrier's own fit
// (local) from ones projected onto another fit entirely (projected).
// Projected effects are out of scope for this core (no multi-fit
// simulation) but the category is still recorded on build.
type EffectContext string

const (
	ContextLocal     EffectContext = "local"
	ContextProjected EffectContext = "projected"
)

// BuildStatus is the result of building an Effect from its category.
type BuildStatus int

const (
	BuildOK BuildStatus = iota
	BuildError
)

// categoryRule returns the minimum activation state and context implied by
// an effect category, and whether the category is buildable at all (area
// and dungeon are not).
func categoryRule(cat EffectCategory) (minState State, ctx EffectContext, ok bool) {
	switch cat {
	case CategoryPassive:
		return StateOffline, ContextLocal, true
	case CategoryActive:
		return StateActive, ContextLocal, true
	case CategoryTarget:
		return StateActive, ContextProjected, true
	case CategoryOnline:
		return StateOnline, ContextLocal, true
	case CategoryOverload:
		return StateOverload, ContextLocal, true
	case CategorySystem:
		return StateOffline, ContextLocal, true
	case CategoryArea, CategoryDungeon:
		return 0, "", false
	default:
		return 0, "", false
	}
}
