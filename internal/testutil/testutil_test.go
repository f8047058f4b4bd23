// Package testutil_test verifies mock and fixture functionality.
package testutil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sternrassler/eve-fit-core/internal/fit/model"
	"github.com/Sternrassler/eve-fit-core/internal/testutil"
)

func TestMockTypeCatalog_DefaultBehavior(t *testing.T) {
	typ := testutil.FixtureType(1, 10, map[model.AttributeID]float64{9: 100})
	catalog := testutil.NewMockTypeCatalog().
		AddType(typ).
		AddAttribute(testutil.FixtureAttributeDescriptor(9))

	got, ok := catalog.Type(1)
	require.True(t, ok)
	assert.Equal(t, typ, got)

	descriptor, ok := catalog.Attribute(9)
	require.True(t, ok)
	assert.True(t, descriptor.Stackable)

	_, ok = catalog.Type(999)
	assert.False(t, ok)
}

func TestMockTypeCatalog_CustomFunc(t *testing.T) {
	catalog := testutil.NewMockTypeCatalog()
	catalog.AttributeFunc = func(id model.AttributeID) (model.AttributeDescriptor, bool) {
		return model.AttributeDescriptor{ID: id, HasDefault: true, DefaultValue: 42}, true
	}

	descriptor, ok := catalog.Attribute(5)
	require.True(t, ok)
	assert.Equal(t, 42.0, descriptor.DefaultValue)
}

func TestMockItemLookup_DefaultBehavior(t *testing.T) {
	lookup := testutil.NewMockItemLookup()
	typ := testutil.FixtureType(1, 1, nil)
	item := lookup.Add(testutil.FixtureItem(typ, model.StateOnline))

	got, ok := lookup.Lookup(item.Handle)
	require.True(t, ok)
	assert.Same(t, item, got)

	_, ok = lookup.Lookup(model.NewHandle())
	assert.False(t, ok)
}

func TestFixturePassiveEffect_AlwaysActivatesOffline(t *testing.T) {
	modifier := testutil.FixtureModifier(model.StateOffline, model.FilterItem, model.DomainSelf, 10, model.OpModAdd, 11)
	effect := testutil.FixturePassiveEffect(1, modifier)

	assert.Equal(t, model.StateOffline, effect.MinState)
	assert.Equal(t, model.ContextLocal, effect.Context)
	require.Len(t, effect.Modifiers, 1)
}

func TestFixtureItem_ActiveModifiersRespectState(t *testing.T) {
	modifier := testutil.FixtureModifier(model.StateActive, model.FilterItem, model.DomainSelf, 10, model.OpModAdd, 11)
	effect := testutil.FixtureActiveEffect(1, modifier)
	typ := testutil.FixtureType(1, 1, nil)
	typ.Effects = []*model.Effect{effect}

	item := testutil.FixtureItem(typ, model.StateOnline)
	assert.Empty(t, item.ActiveModifiers(), "active-category modifier shouldn't apply below state active")

	item.State = model.StateActive
	assert.Len(t, item.ActiveModifiers(), 1)
}
