package model

import "github.com/google/uuid"

// Identifiers are opaque integers owned by the external type/effect/modifier
// database (out of scope for this core; see TypeCatalog).
type (
	TypeID      = int64
	AttributeID = int64
	GroupID     = int64
	EffectID    = int64
	SkillID     = TypeID
)

// Handle is the opaque, stable identity of an Item within a Fit's arena.
// Indices key on Handle rather than *Item so that register entries never
// extend an item's lifetime.
type Handle = uuid.UUID

// NewHandle allocates a fresh, unique item handle.
func NewHandle() Handle {
	return uuid.New()
}

// ExtraArg carries a modifier's tgt_filter_extra_arg: a group id, a skill
// type id, or the CurrentSelf sentinel meaning "substitute the carrier
// item's own type id".
type ExtraArg struct {
	CurrentSelf bool
	Value       int64
}

// Resolve returns the concrete id this extra arg denotes for a given
// carrier item.
func (e ExtraArg) Resolve(carrierTypeID TypeID) int64 {
	if e.CurrentSelf {
		return carrierTypeID
	}
	return e.Value
}

// Modifier is the immutable tuple a type's effect publishes: at which
// carrier state it activates, which items it selects, and what arithmetic
// it contributes to which attribute.
type Modifier struct {
	State       State
	TgtFilter   ModTgtFilter
	TgtDomain   ModDomain
	TgtAttr     AttributeID
	TgtExtraArg ExtraArg
	Operator    ModOperator
	SrcAttr     AttributeID
}

// Effect is an immutable descriptor: an id, a category, an optional
// duration (cycle time) attribute, and the modifiers it publishes.
type Effect struct {
	ID           EffectID
	Category     EffectCategory
	Context      EffectContext
	MinState     State
	DurationAttr *AttributeID
	Modifiers    []Modifier
}

// BuildEffect validates the category and derives MinState/Context from it.
// Area and dungeon categories are rejected with BuildError and no Effect is
// produced; build problems surface as a status, never as a raised error.
func BuildEffect(id EffectID, category EffectCategory, durationAttr *AttributeID, modifiers []Modifier) (*Effect, BuildStatus) {
	minState, ctx, ok := categoryRule(category)
	if !ok {
		return nil, BuildError
	}
	return &Effect{
		ID:           id,
		Category:     category,
		Context:      ctx,
		MinState:     minState,
		DurationAttr: durationAttr,
		Modifiers:    modifiers,
	}, BuildOK
}

// Type is an immutable descriptor keyed by a type id: base attribute
// values, its effects, an optional default effect, its group, and the
// skills it requires.
type Type struct {
	ID             TypeID
	GroupID        GroupID
	BaseAttrs      map[AttributeID]float64
	Effects        []*Effect
	DefaultEffect  *EffectID
	RequiredSkills []SkillID
}

// RequiresSkill reports whether the type lists skillID among its
// required-skill type ids.
func (t *Type) RequiresSkill(skillID SkillID) bool {
	for _, id := range t.RequiredSkills {
		if id == skillID {
			return true
		}
	}
	return false
}

// AttributeDescriptor is the metadata the calculator needs about an
// attribute: whether it stacks without penalty, which direction is
// "better", an optional clamp reference, and a default value used when a
// type carries no base value for it.
type AttributeDescriptor struct {
	ID             AttributeID
	Stackable      bool
	HighIsGood     bool
	MaxAttributeID *AttributeID
	HasDefault     bool
	DefaultValue   float64
}

// TypeCatalog is the read-only external type/effect/modifier database
// contract. Import and serialization of this data live outside the core;
// callers supply an implementation (a real SDE-backed one, or an in-memory
// one for tests).
type TypeCatalog interface {
	Type(id TypeID) (*Type, bool)
	Attribute(id AttributeID) (AttributeDescriptor, bool)
}

// Affector is the pair (carrier item, modifier) for a modifier whose state
// threshold is currently met by its carrier.
type Affector struct {
	Carrier  Handle
	Modifier Modifier
}

// Item is a mutable instance of a Type bound to a fit.
type Item struct {
	Handle          Handle
	TypeID          TypeID
	typ             *Type
	State           State
	ModifierDomain  *ModDomain
	OwnerModifiable bool
	Others          map[Handle]struct{}

	cache      map[AttributeID]float64
	inProgress map[AttributeID]bool
}

// NewItem instantiates an Item bound to typ, initially in the given state
// and with no domain placement (neither ship nor character).
func NewItem(typ *Type, state State) *Item {
	return &Item{
		Handle:  NewHandle(),
		TypeID:  typ.ID,
		typ:     typ,
		State:   state,
		Others:  make(map[Handle]struct{}),
		cache:   make(map[AttributeID]float64),
	}
}

// Type returns the item's immutable type descriptor.
func (it *Item) Type() *Type { return it.typ }

// SetModifierDomain places the item into an absolute domain (ship or
// character) or clears its placement (nil).
func (it *Item) SetModifierDomain(d *ModDomain) { it.ModifierDomain = d }

// AddOther links peer as reachable through the "other" relation (e.g. a
// charge loaded into a module, or the module back to its charge).
func (it *Item) AddOther(peer Handle) { it.Others[peer] = struct{}{} }

// RemoveOther unlinks peer from the "other" relation.
func (it *Item) RemoveOther(peer Handle) { delete(it.Others, peer) }

// HasOther reports whether peer is reachable through the "other" relation.
func (it *Item) HasOther(peer Handle) bool {
	_, ok := it.Others[peer]
	return ok
}

// CacheGet returns a memoized attribute value, if any.
func (it *Item) CacheGet(attrID AttributeID) (float64, bool) {
	v, ok := it.cache[attrID]
	return v, ok
}

// CacheSet memoizes an attribute value.
func (it *Item) CacheSet(attrID AttributeID, v float64) {
	it.cache[attrID] = v
}

// ClearCache drops every memoized attribute value on this item. Used as the
// volatile-cache sweep on any mutating event.
func (it *Item) ClearCache() {
	it.cache = make(map[AttributeID]float64)
}

// InProgress reports whether attrID is already being computed further up
// this item's call stack, which the calculator's cycle guard checks.
func (it *Item) InProgress(attrID AttributeID) bool {
	return it.inProgress[attrID]
}

// MarkInProgress records that attrID's computation has begun.
func (it *Item) MarkInProgress(attrID AttributeID) {
	if it.inProgress == nil {
		it.inProgress = make(map[AttributeID]bool)
	}
	it.inProgress[attrID] = true
}

// ClearInProgress clears the in-progress marker for attrID.
func (it *Item) ClearInProgress(attrID AttributeID) {
	delete(it.inProgress, attrID)
}

// ActiveModifiers returns every modifier on this item's type (across all
// its effects) whose State threshold is at most the item's current state —
// i.e. the affectors this item carries right now.
func (it *Item) ActiveModifiers() []Modifier {
	var out []Modifier
	for _, eff := range it.typ.Effects {
		for _, m := range eff.Modifiers {
			if it.State >= m.State {
				out = append(out, m)
			}
		}
	}
	return out
}

// AllModifiers returns every modifier on this item's type regardless of
// current state.
func (it *Item) AllModifiers() []Modifier {
	var out []Modifier
	for _, eff := range it.typ.Effects {
		out = append(out, eff.Modifiers...)
	}
	return out
}

// IsRAH reports whether this item's type default-effects into rahEffectID,
// qualifying it as a reactive armor hardener.
func (it *Item) IsRAH(rahEffectID EffectID) bool {
	return it.typ.DefaultEffect != nil && *it.typ.DefaultEffect == rahEffectID
}
