// Package testutil provides test utilities and mocks shared by the
// register, calculator, rah, and fit package tests.
package testutil

import (
	"github.com/Sternrassler/eve-fit-core/internal/fit/calculator"
	"github.com/Sternrassler/eve-fit-core/internal/fit/model"
	"github.com/Sternrassler/eve-fit-core/internal/fit/register"
)

// MockTypeCatalog is a mock implementation of model.TypeCatalog.
type MockTypeCatalog struct {
	TypeFunc      func(id model.TypeID) (*model.Type, bool)
	AttributeFunc func(id model.AttributeID) (model.AttributeDescriptor, bool)

	types      map[model.TypeID]*model.Type
	attributes map[model.AttributeID]model.AttributeDescriptor
}

// NewMockTypeCatalog builds an empty catalog backed by plain maps; use
// AddType/AddAttribute to populate it, or set TypeFunc/AttributeFunc
// directly for custom behavior.
func NewMockTypeCatalog() *MockTypeCatalog {
	return &MockTypeCatalog{
		types:      make(map[model.TypeID]*model.Type),
		attributes: make(map[model.AttributeID]model.AttributeDescriptor),
	}
}

// AddType registers t for lookup and returns the catalog for chaining.
func (m *MockTypeCatalog) AddType(t *model.Type) *MockTypeCatalog {
	m.types[t.ID] = t
	return m
}

// AddAttribute registers d for lookup and returns the catalog for
// chaining.
func (m *MockTypeCatalog) AddAttribute(d model.AttributeDescriptor) *MockTypeCatalog {
	m.attributes[d.ID] = d
	return m
}

// Type calls the mock function if set, otherwise looks up the map
// populated via AddType.
func (m *MockTypeCatalog) Type(id model.TypeID) (*model.Type, bool) {
	if m.TypeFunc != nil {
		return m.TypeFunc(id)
	}
	t, ok := m.types[id]
	return t, ok
}

// Attribute calls the mock function if set, otherwise looks up the map
// populated via AddAttribute.
func (m *MockTypeCatalog) Attribute(id model.AttributeID) (model.AttributeDescriptor, bool) {
	if m.AttributeFunc != nil {
		return m.AttributeFunc(id)
	}
	d, ok := m.attributes[id]
	return d, ok
}

// MockItemLookup is a mock implementation of the register.ItemLookup /
// calculator.ItemLookup shape (Lookup(handle) (*model.Item, bool)),
// backed by a plain map of handles added via Add.
type MockItemLookup struct {
	LookupFunc func(h model.Handle) (*model.Item, bool)

	items map[model.Handle]*model.Item
}

// NewMockItemLookup builds an empty lookup.
func NewMockItemLookup() *MockItemLookup {
	return &MockItemLookup{items: make(map[model.Handle]*model.Item)}
}

// Add registers it for lookup by its handle and returns it for chaining.
func (m *MockItemLookup) Add(it *model.Item) *model.Item {
	m.items[it.Handle] = it
	return it
}

// Lookup calls the mock function if set, otherwise looks up the map
// populated via Add.
func (m *MockItemLookup) Lookup(h model.Handle) (*model.Item, bool) {
	if m.LookupFunc != nil {
		return m.LookupFunc(h)
	}
	it, ok := m.items[h]
	return it, ok
}

// Compile-time interface compliance checks.
var (
	_ model.TypeCatalog     = (*MockTypeCatalog)(nil)
	_ register.ItemLookup   = (*MockItemLookup)(nil)
	_ calculator.ItemLookup = (*MockItemLookup)(nil)
)
