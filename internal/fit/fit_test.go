package fit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sternrassler/eve-fit-core/internal/fit"
	"github.com/Sternrassler/eve-fit-core/internal/fit/model"
	"github.com/Sternrassler/eve-fit-core/internal/fit/rah"
	"github.com/Sternrassler/eve-fit-core/internal/testutil"
	"github.com/Sternrassler/eve-fit-core/pkg/logger"
)

const (
	attrShieldHP model.AttributeID = 1211
	attrBonusPct model.AttributeID = 50
	attrSelfAttr model.AttributeID = 100

	groupShip   model.GroupID = 1
	groupModule model.GroupID = 2

	typeShip   model.TypeID = 1
	typeModule model.TypeID = 2
)

func noRAH() (model.EffectID, rah.AttributeIDs) {
	return 0, rah.AttributeIDs{}
}

// TestLocalShipModifier_PostPercent is the local-ship-modifier scenario: a
// single passive post_percent modifier on a fitted module raises the ship's
// own attribute by the module's percentage.
func TestLocalShipModifier_PostPercent(t *testing.T) {
	catalog := testutil.NewMockTypeCatalog().
		AddType(testutil.FixtureType(typeShip, groupShip, map[model.AttributeID]float64{attrShieldHP: 100})).
		AddAttribute(testutil.FixtureAttributeDescriptor(attrShieldHP)).
		AddAttribute(testutil.FixtureAttributeDescriptor(attrBonusPct))

	moduleType := testutil.FixtureType(typeModule, groupModule, map[model.AttributeID]float64{attrBonusPct: 20})
	moduleType.Effects = []*model.Effect{
		testutil.FixturePassiveEffect(1,
			testutil.FixtureModifier(model.StateOffline, model.FilterItem, model.DomainShip, attrShieldHP, model.OpPostPercent, attrBonusPct)),
	}
	catalog.AddType(moduleType)

	rahEffect, rahIDs := noRAH()
	f := fit.New(catalog, rahEffect, rahIDs, logger.NewNoop())

	ship, err := f.AddItem(typeShip, model.StateOnline)
	require.NoError(t, err)
	require.NoError(t, f.SetShip(&ship.Handle))

	_, err = f.AddItem(typeModule, model.StateOnline)
	require.NoError(t, err)

	v, err := f.Get(ship, attrShieldHP)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.InDelta(t, 120.0, *v, 1e-9)
}

// TestUnknownTargetDomain_IgnoredWithSingleWarning verifies that a modifier
// with an unrecognized tgt_domain is dropped with exactly one warning, while
// a sibling valid modifier on the same item still applies normally.
func TestUnknownTargetDomain_IgnoredWithSingleWarning(t *testing.T) {
	catalog := testutil.NewMockTypeCatalog().
		AddAttribute(testutil.FixtureAttributeDescriptor(attrSelfAttr)).
		AddAttribute(testutil.FixtureAttributeDescriptor(attrBonusPct))

	moduleType := testutil.FixtureType(typeModule, groupModule, map[model.AttributeID]float64{
		attrSelfAttr: 100,
		attrBonusPct: 20,
	})
	moduleType.Effects = []*model.Effect{
		testutil.FixturePassiveEffect(1,
			testutil.FixtureModifier(model.StateOffline, model.FilterItem, model.ModDomain("1972"), attrSelfAttr, model.OpPostPercent, attrBonusPct),
			testutil.FixtureModifier(model.StateOffline, model.FilterItem, model.DomainSelf, attrSelfAttr, model.OpPostPercent, attrBonusPct),
		),
	}
	catalog.AddType(moduleType)

	log := logger.NewNoop()
	rahEffect, rahIDs := noRAH()
	f := fit.New(catalog, rahEffect, rahIDs, log)

	module, err := f.AddItem(typeModule, model.StateOnline)
	require.NoError(t, err)

	warnings := log.Warnings()
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "unsupported target domain 1972")

	v, err := f.Get(module, attrSelfAttr)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.InDelta(t, 120.0, *v, 1e-9)
}

// TestVolatileCache_InvalidatesOnMutation checks that adding an affector
// after a value has already been cached invalidates the cache and the next
// read reflects the new affector rather than the stale value.
func TestVolatileCache_InvalidatesOnMutation(t *testing.T) {
	catalog := testutil.NewMockTypeCatalog().
		AddType(testutil.FixtureType(typeShip, groupShip, map[model.AttributeID]float64{attrShieldHP: 100})).
		AddAttribute(testutil.FixtureAttributeDescriptor(attrShieldHP)).
		AddAttribute(testutil.FixtureAttributeDescriptor(attrBonusPct))

	moduleType := testutil.FixtureType(typeModule, groupModule, map[model.AttributeID]float64{attrBonusPct: 20})
	moduleType.Effects = []*model.Effect{
		testutil.FixturePassiveEffect(1,
			testutil.FixtureModifier(model.StateOffline, model.FilterItem, model.DomainShip, attrShieldHP, model.OpPostPercent, attrBonusPct)),
	}
	catalog.AddType(moduleType)

	rahEffect, rahIDs := noRAH()
	f := fit.New(catalog, rahEffect, rahIDs, logger.NewNoop())

	ship, err := f.AddItem(typeShip, model.StateOnline)
	require.NoError(t, err)
	require.NoError(t, f.SetShip(&ship.Handle))

	before, err := f.Get(ship, attrShieldHP)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, *before, 1e-9, "cached before the module is fitted")

	module, err := f.AddItem(typeModule, model.StateOnline)
	require.NoError(t, err)

	after, err := f.Get(ship, attrShieldHP)
	require.NoError(t, err)
	assert.InDelta(t, 120.0, *after, 1e-9, "mutating the fit must invalidate the cached value")

	require.NoError(t, f.RemoveItem(module.Handle))

	restored, err := f.Get(ship, attrShieldHP)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, *restored, 1e-9, "removing the module must invalidate the cache again")
}

// TestClearVolatile_RecomputesAfterUntrackedMutation: a mutation the fit
// never saw (poking the module type's base attribute directly) leaves the
// cached value stale until ClearVolatile forces a recompute.
func TestClearVolatile_RecomputesAfterUntrackedMutation(t *testing.T) {
	catalog := testutil.NewMockTypeCatalog().
		AddType(testutil.FixtureType(typeShip, groupShip, map[model.AttributeID]float64{attrShieldHP: 100})).
		AddAttribute(testutil.FixtureAttributeDescriptor(attrShieldHP)).
		AddAttribute(testutil.FixtureAttributeDescriptor(attrBonusPct))

	moduleType := testutil.FixtureType(typeModule, groupModule, map[model.AttributeID]float64{attrBonusPct: 20})
	moduleType.Effects = []*model.Effect{
		testutil.FixturePassiveEffect(1,
			testutil.FixtureModifier(model.StateOffline, model.FilterItem, model.DomainShip, attrShieldHP, model.OpPostPercent, attrBonusPct)),
	}
	catalog.AddType(moduleType)

	rahEffect, rahIDs := noRAH()
	f := fit.New(catalog, rahEffect, rahIDs, logger.NewNoop())

	ship, err := f.AddItem(typeShip, model.StateOnline)
	require.NoError(t, err)
	require.NoError(t, f.SetShip(&ship.Handle))
	_, err = f.AddItem(typeModule, model.StateOnline)
	require.NoError(t, err)

	v, err := f.Get(ship, attrShieldHP)
	require.NoError(t, err)
	assert.InDelta(t, 120.0, *v, 1e-9)

	moduleType.BaseAttrs[attrBonusPct] = 50

	stale, err := f.Get(ship, attrShieldHP)
	require.NoError(t, err)
	assert.InDelta(t, 120.0, *stale, 1e-9, "an untracked mutation must not be visible through the cache")

	f.ClearVolatile()

	fresh, err := f.Get(ship, attrShieldHP)
	require.NoError(t, err)
	assert.InDelta(t, 150.0, *fresh, 1e-9)
}

// TestGetAffectorsGetAffectees_Symmetry checks that for any currently placed
// affector, the item it reports as affecting appears among the carrier's
// affectees and the affector itself appears among that item's affectors —
// the two index queries are inverses of one another.
func TestGetAffectorsGetAffectees_Symmetry(t *testing.T) {
	catalog := testutil.NewMockTypeCatalog().
		AddType(testutil.FixtureType(typeShip, groupShip, map[model.AttributeID]float64{attrShieldHP: 100})).
		AddAttribute(testutil.FixtureAttributeDescriptor(attrShieldHP)).
		AddAttribute(testutil.FixtureAttributeDescriptor(attrBonusPct))

	moduleType := testutil.FixtureType(typeModule, groupModule, map[model.AttributeID]float64{attrBonusPct: 20})
	modifier := testutil.FixtureModifier(model.StateOffline, model.FilterItem, model.DomainShip, attrShieldHP, model.OpPostPercent, attrBonusPct)
	moduleType.Effects = []*model.Effect{testutil.FixturePassiveEffect(1, modifier)}
	catalog.AddType(moduleType)

	rahEffect, rahIDs := noRAH()
	f := fit.New(catalog, rahEffect, rahIDs, logger.NewNoop())

	ship, err := f.AddItem(typeShip, model.StateOnline)
	require.NoError(t, err)
	require.NoError(t, f.SetShip(&ship.Handle))
	module, err := f.AddItem(typeModule, model.StateOnline)
	require.NoError(t, err)

	affectors := f.GetAffectors(ship)
	require.Len(t, affectors, 1)
	assert.Equal(t, module.Handle, affectors[0].Carrier)
	assert.Equal(t, modifier, affectors[0].Modifier)

	affectees := f.GetAffectees(affectors[0])
	require.Len(t, affectees, 1)
	assert.Equal(t, ship.Handle, affectees[0])
}

// TestRemoveItem_UnregistersAffecteeAndAffector confirms a removed item
// drops out of both the affectee index and as a carrier of its own
// affectors, leaving neither queryable afterwards.
func TestRemoveItem_UnregistersAffecteeAndAffector(t *testing.T) {
	catalog := testutil.NewMockTypeCatalog().
		AddType(testutil.FixtureType(typeShip, groupShip, map[model.AttributeID]float64{attrShieldHP: 100})).
		AddAttribute(testutil.FixtureAttributeDescriptor(attrShieldHP)).
		AddAttribute(testutil.FixtureAttributeDescriptor(attrBonusPct))

	moduleType := testutil.FixtureType(typeModule, groupModule, map[model.AttributeID]float64{attrBonusPct: 20})
	modifier := testutil.FixtureModifier(model.StateOffline, model.FilterItem, model.DomainShip, attrShieldHP, model.OpPostPercent, attrBonusPct)
	moduleType.Effects = []*model.Effect{testutil.FixturePassiveEffect(1, modifier)}
	catalog.AddType(moduleType)

	rahEffect, rahIDs := noRAH()
	f := fit.New(catalog, rahEffect, rahIDs, logger.NewNoop())

	ship, err := f.AddItem(typeShip, model.StateOnline)
	require.NoError(t, err)
	require.NoError(t, f.SetShip(&ship.Handle))
	module, err := f.AddItem(typeModule, model.StateOnline)
	require.NoError(t, err)

	require.NoError(t, f.RemoveItem(module.Handle))

	assert.Empty(t, f.GetAffectors(ship))
	assert.Empty(t, f.GetAffectees(model.Affector{Carrier: module.Handle, Modifier: modifier}))

	v, err := f.Get(ship, attrShieldHP)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, *v, 1e-9)
}

// TestAggregateAttribute_SumsShipDomain exercises the aggregate-attribute
// extension: summing an attribute across every item currently bound to a
// domain. Only the bound ship occupies domain=ship; items with no domain
// placement never contribute.
func TestAggregateAttribute_SumsShipDomain(t *testing.T) {
	const typeDrone model.TypeID = 3
	const groupDrone model.GroupID = 3
	const attrVolume model.AttributeID = 300

	catalog := testutil.NewMockTypeCatalog().
		AddType(testutil.FixtureType(typeShip, groupShip, map[model.AttributeID]float64{attrVolume: 5})).
		AddType(testutil.FixtureType(typeDrone, groupDrone, map[model.AttributeID]float64{attrVolume: 10})).
		AddAttribute(testutil.FixtureAttributeDescriptor(attrVolume))

	rahEffect, rahIDs := noRAH()
	f := fit.New(catalog, rahEffect, rahIDs, logger.NewNoop())

	ship, err := f.AddItem(typeShip, model.StateOnline)
	require.NoError(t, err)
	require.NoError(t, f.SetShip(&ship.Handle))

	_, err = f.AddItem(typeDrone, model.StateActive)
	require.NoError(t, err)
	_, err = f.AddItem(typeDrone, model.StateActive)
	require.NoError(t, err)

	total := f.AggregateAttribute(model.DomainShip, nil, attrVolume)
	assert.InDelta(t, 5.0, total, 1e-9, "only the ship itself occupies domain=ship")

	shipGroup := groupShip
	assert.InDelta(t, 5.0, f.AggregateAttribute(model.DomainShip, &shipGroup, attrVolume), 1e-9)

	droneGroup := groupDrone
	assert.InDelta(t, 0.0, f.AggregateAttribute(model.DomainShip, &droneGroup, attrVolume), 1e-9,
		"drones aren't bound to domain=ship until explicitly placed")
}

// TestSelfBroadcastShipBonus_AppliesAfterBinding covers the hull-bonus
// shape: a ship type whose own effect broadcasts into its domain via
// tgt_domain=self. At add time the item is not yet the fit's ship, so the
// modifier has nowhere to resolve (one warning, dropped); binding the ship
// re-registers its modifiers and the bonus lands.
func TestSelfBroadcastShipBonus_AppliesAfterBinding(t *testing.T) {
	catalog := testutil.NewMockTypeCatalog().
		AddAttribute(testutil.FixtureAttributeDescriptor(attrShieldHP)).
		AddAttribute(testutil.FixtureAttributeDescriptor(attrBonusPct))

	shipType := testutil.FixtureType(typeShip, groupShip, map[model.AttributeID]float64{
		attrShieldHP: 100,
		attrBonusPct: 20,
	})
	shipType.Effects = []*model.Effect{
		testutil.FixturePassiveEffect(1,
			testutil.FixtureModifier(model.StateOffline, model.FilterDomain, model.DomainSelf, attrShieldHP, model.OpPostPercent, attrBonusPct)),
	}
	catalog.AddType(shipType)

	log := logger.NewNoop()
	rahEffect, rahIDs := noRAH()
	f := fit.New(catalog, rahEffect, rahIDs, log)

	ship, err := f.AddItem(typeShip, model.StateOnline)
	require.NoError(t, err)
	require.Len(t, log.Warnings(), 1, "self-broadcast has no placement before the ship is bound")

	require.NoError(t, f.SetShip(&ship.Handle))

	v, err := f.Get(ship, attrShieldHP)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.InDelta(t, 120.0, *v, 1e-9)
	assert.Len(t, log.Warnings(), 1, "rebinding must not produce further warnings")
}

// TestNonRAH_DefaultEffectCleared_NoSimulation: a module with RAH-shaped
// attributes but no default effect is not a reactive armor hardener, so
// the ship reads plain unsimulated multipliers.
func TestNonRAH_DefaultEffectCleared_NoSimulation(t *testing.T) {
	const (
		attrEM        model.AttributeID = 400
		attrShiftAmt  model.AttributeID = 404
		attrCycleTime model.AttributeID = 405
		rahEffectID   model.EffectID    = 999
		typeMod       model.TypeID      = 4
		groupMod      model.GroupID     = 4
	)

	catalog := testutil.NewMockTypeCatalog().
		AddType(testutil.FixtureType(typeShip, groupShip, map[model.AttributeID]float64{attrEM: 0.5})).
		AddAttribute(model.AttributeDescriptor{ID: attrEM, Stackable: true}).
		AddAttribute(model.AttributeDescriptor{ID: attrShiftAmt, Stackable: true, HighIsGood: true}).
		AddAttribute(model.AttributeDescriptor{ID: attrCycleTime, Stackable: true})

	modType := testutil.FixtureType(typeMod, groupMod, map[model.AttributeID]float64{
		attrEM: 0.85, attrShiftAmt: 6, attrCycleTime: 1000,
	})
	modType.Effects = []*model.Effect{
		testutil.FixtureActiveEffect(1,
			testutil.FixtureModifier(model.StateActive, model.FilterItem, model.DomainShip, attrEM, model.OpPostMul, attrEM)),
	}
	catalog.AddType(modType)

	log := logger.NewNoop()
	rahIDs := rah.AttributeIDs{EM: attrEM, ShiftAmount: attrShiftAmt, CycleTime: attrCycleTime}
	f := fit.New(catalog, rahEffectID, rahIDs, log)

	ship, err := f.AddItem(typeShip, model.StateOnline)
	require.NoError(t, err)
	require.NoError(t, f.SetShip(&ship.Handle))

	_, err = f.AddItem(typeMod, model.StateActive)
	require.NoError(t, err)

	v, err := f.Get(ship, attrEM)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.InDelta(t, 0.425, *v, 1e-9, "no simulation: the plain multiplier applies")
	assert.Empty(t, log.Warnings())
}

// TestRAHIntegration_SteadyStateResonances drives the simulator through
// the top-level facade: fitting an active reactive armor hardener onto a
// bound ship must leave the hardener's resonance attributes at their
// converged values (1.0, 0.925, 0.82, 0.655) and the ship reading
// (0.500, 0.601, 0.615, 0.589) to three decimal places under the default
// uniform damage profile.
func TestRAHIntegration_SteadyStateResonances(t *testing.T) {
	const (
		attrEM        model.AttributeID = 400
		attrThermal   model.AttributeID = 401
		attrKinetic   model.AttributeID = 402
		attrExplosive model.AttributeID = 403
		attrShiftAmt  model.AttributeID = 404
		attrCycleTime model.AttributeID = 405
		rahEffectID   model.EffectID    = 999
		typeRAH       model.TypeID      = 4
		groupRAH      model.GroupID     = 4
	)

	catalog := testutil.NewMockTypeCatalog().
		AddType(testutil.FixtureType(typeShip, groupShip, map[model.AttributeID]float64{
			attrEM: 0.5, attrThermal: 0.65, attrKinetic: 0.75, attrExplosive: 0.9,
		})).
		AddAttribute(model.AttributeDescriptor{ID: attrEM, Stackable: true}).
		AddAttribute(model.AttributeDescriptor{ID: attrThermal, Stackable: true}).
		AddAttribute(model.AttributeDescriptor{ID: attrKinetic, Stackable: true}).
		AddAttribute(model.AttributeDescriptor{ID: attrExplosive, Stackable: true}).
		AddAttribute(model.AttributeDescriptor{ID: attrShiftAmt, Stackable: true, HighIsGood: true}).
		AddAttribute(model.AttributeDescriptor{ID: attrCycleTime, Stackable: true})

	rahType := testutil.FixtureType(typeRAH, groupRAH, map[model.AttributeID]float64{
		attrEM: 0.85, attrThermal: 0.85, attrKinetic: 0.85, attrExplosive: 0.85,
		attrShiftAmt: 6, attrCycleTime: 1000,
	})
	rahType.DefaultEffect = new(model.EffectID)
	*rahType.DefaultEffect = rahEffectID
	rahType.Effects = []*model.Effect{
		testutil.FixtureActiveEffect(1,
			testutil.FixtureModifier(model.StateActive, model.FilterItem, model.DomainShip, attrEM, model.OpPostMul, attrEM),
			testutil.FixtureModifier(model.StateActive, model.FilterItem, model.DomainShip, attrThermal, model.OpPostMul, attrThermal),
			testutil.FixtureModifier(model.StateActive, model.FilterItem, model.DomainShip, attrKinetic, model.OpPostMul, attrKinetic),
			testutil.FixtureModifier(model.StateActive, model.FilterItem, model.DomainShip, attrExplosive, model.OpPostMul, attrExplosive),
		),
	}
	catalog.AddType(rahType)

	log := logger.NewNoop()
	rahIDs := rah.AttributeIDs{EM: attrEM, Thermal: attrThermal, Kinetic: attrKinetic, Explosive: attrExplosive, ShiftAmount: attrShiftAmt, CycleTime: attrCycleTime}
	f := fit.New(catalog, rahEffectID, rahIDs, log)

	ship, err := f.AddItem(typeShip, model.StateOnline)
	require.NoError(t, err)
	require.NoError(t, f.SetShip(&ship.Handle))

	rahItem, err := f.AddItem(typeRAH, model.StateActive)
	require.NoError(t, err)

	rahExpected := map[model.AttributeID]float64{
		attrEM:        1.0,
		attrThermal:   0.925,
		attrKinetic:   0.82,
		attrExplosive: 0.655,
	}
	for id, expected := range rahExpected {
		v, err := f.Get(rahItem, id)
		require.NoError(t, err)
		require.NotNil(t, v)
		assert.InDelta(t, expected, *v, 1e-9, "hardener resonance attr %d", id)
	}

	shipExpected := map[model.AttributeID]float64{
		attrEM:        0.500,
		attrThermal:   0.601,
		attrKinetic:   0.615,
		attrExplosive: 0.589,
	}
	for id, expected := range shipExpected {
		v, err := f.Get(ship, id)
		require.NoError(t, err)
		require.NotNil(t, v)
		assert.InDelta(t, expected, *v, 1e-3, "ship resonance attr %d", id)
	}
	assert.Empty(t, log.Warnings())
}

// TestRAHIntegration_RunsOnShipBindAndUnsimulatedOnZeroCycleTime exercises
// the RAH simulator through the top-level facade: fitting a reactive armor
// hardener with a zero cycle time must surface the fixed "unsimulated
// resonances" warning rather than crash the fit.
func TestRAHIntegration_RunsOnShipBindAndUnsimulatedOnZeroCycleTime(t *testing.T) {
	const (
		attrEM        model.AttributeID = 400
		attrThermal   model.AttributeID = 401
		attrKinetic   model.AttributeID = 402
		attrExplosive model.AttributeID = 403
		attrShiftAmt  model.AttributeID = 404
		attrCycleTime model.AttributeID = 405
		rahEffectID   model.EffectID    = 999
		typeRAH       model.TypeID      = 4
		groupRAH      model.GroupID     = 4
	)

	catalog := testutil.NewMockTypeCatalog().
		AddType(testutil.FixtureType(typeShip, groupShip, map[model.AttributeID]float64{
			attrEM: 0.5, attrThermal: 0.65, attrKinetic: 0.75, attrExplosive: 0.9,
		})).
		AddAttribute(model.AttributeDescriptor{ID: attrEM, Stackable: true}).
		AddAttribute(model.AttributeDescriptor{ID: attrThermal, Stackable: true}).
		AddAttribute(model.AttributeDescriptor{ID: attrKinetic, Stackable: true}).
		AddAttribute(model.AttributeDescriptor{ID: attrExplosive, Stackable: true}).
		AddAttribute(model.AttributeDescriptor{ID: attrShiftAmt, Stackable: true, HighIsGood: true}).
		AddAttribute(model.AttributeDescriptor{ID: attrCycleTime, Stackable: true})

	rahType := testutil.FixtureType(typeRAH, groupRAH, map[model.AttributeID]float64{
		attrEM: 0.85, attrThermal: 0.85, attrKinetic: 0.85, attrExplosive: 0.85,
		attrShiftAmt: 6, attrCycleTime: 0,
	})
	rahType.DefaultEffect = new(model.EffectID)
	*rahType.DefaultEffect = rahEffectID
	rahType.Effects = []*model.Effect{
		testutil.FixtureActiveEffect(1,
			testutil.FixtureModifier(model.StateActive, model.FilterItem, model.DomainShip, attrEM, model.OpPostMul, attrEM),
			testutil.FixtureModifier(model.StateActive, model.FilterItem, model.DomainShip, attrThermal, model.OpPostMul, attrThermal),
			testutil.FixtureModifier(model.StateActive, model.FilterItem, model.DomainShip, attrKinetic, model.OpPostMul, attrKinetic),
			testutil.FixtureModifier(model.StateActive, model.FilterItem, model.DomainShip, attrExplosive, model.OpPostMul, attrExplosive),
		),
	}
	catalog.AddType(rahType)

	log := logger.NewNoop()
	rahIDs := rah.AttributeIDs{EM: attrEM, Thermal: attrThermal, Kinetic: attrKinetic, Explosive: attrExplosive, ShiftAmount: attrShiftAmt, CycleTime: attrCycleTime}
	f := fit.New(catalog, rahEffectID, rahIDs, log)

	ship, err := f.AddItem(typeShip, model.StateOnline)
	require.NoError(t, err)
	require.NoError(t, f.SetShip(&ship.Handle))

	_, err = f.AddItem(typeRAH, model.StateActive)
	require.NoError(t, err)

	warnings := log.Warnings()
	require.NotEmpty(t, warnings)
	assert.Contains(t, warnings, "unexpected exception, setting unsimulated resonances")
}
