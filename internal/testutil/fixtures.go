package testutil

import "github.com/Sternrassler/eve-fit-core/internal/fit/model"

// FixtureType creates a Type with the given base attribute values and no
// effects, suitable as a plain carrier or affectee in register/calculator
// tests.
func FixtureType(id model.TypeID, groupID model.GroupID, baseAttrs map[model.AttributeID]float64) *model.Type {
	if baseAttrs == nil {
		baseAttrs = map[model.AttributeID]float64{}
	}
	return &model.Type{ID: id, GroupID: groupID, BaseAttrs: baseAttrs}
}

// FixtureModifier builds a Modifier with the given shape, defaulting the
// extra arg to "no extra arg" (zero value).
func FixtureModifier(state model.State, filter model.ModTgtFilter, domain model.ModDomain, tgtAttr model.AttributeID, op model.ModOperator, srcAttr model.AttributeID) model.Modifier {
	return model.Modifier{State: state, TgtFilter: filter, TgtDomain: domain, TgtAttr: tgtAttr, Operator: op, SrcAttr: srcAttr}
}

// FixturePassiveEffect builds a built passive effect (min state offline,
// local context) carrying modifiers, for types that should always publish
// them once on the fit.
func FixturePassiveEffect(id model.EffectID, modifiers ...model.Modifier) *model.Effect {
	effect, status := model.BuildEffect(id, model.CategoryPassive, nil, modifiers)
	if status != model.BuildOK {
		panic("testutil: passive effect category must always build")
	}
	return effect
}

// FixtureActiveEffect builds a built active effect (min state active,
// local context).
func FixtureActiveEffect(id model.EffectID, modifiers ...model.Modifier) *model.Effect {
	effect, status := model.BuildEffect(id, model.CategoryActive, nil, modifiers)
	if status != model.BuildOK {
		panic("testutil: active effect category must always build")
	}
	return effect
}

// FixtureAttributeDescriptor builds a stackable, high-is-good attribute
// descriptor with no default and no clamp — the common case in tests that
// don't exercise stacking penalties or clamping directly.
func FixtureAttributeDescriptor(id model.AttributeID) model.AttributeDescriptor {
	return model.AttributeDescriptor{ID: id, Stackable: true, HighIsGood: true}
}

// FixtureItem instantiates an item of typ in state, not registered with any
// register and with no domain placement.
func FixtureItem(typ *model.Type, state model.State) *model.Item {
	return model.NewItem(typ, state)
}
