// Package fit is the top-level facade wiring the Affection Register, the
// Attribute Calculator, and the RAH Simulator into a single mutable fit:
// add/remove items, change their state, bind a ship and character, and
// read any item's effective attributes.
package fit

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/Sternrassler/eve-fit-core/internal/fit/calculator"
	"github.com/Sternrassler/eve-fit-core/internal/fit/model"
	"github.com/Sternrassler/eve-fit-core/internal/fit/rah"
	"github.com/Sternrassler/eve-fit-core/internal/fit/register"
	"github.com/Sternrassler/eve-fit-core/pkg/logger"
)

var (
	_ register.ItemLookup       = (*Fit)(nil)
	_ calculator.ItemLookup     = (*Fit)(nil)
	_ calculator.AffectorSource = (*register.Register)(nil)
)

// Fit owns an arena of items plus the register/calculator/simulator that
// operate over it.
type Fit struct {
	catalog  model.TypeCatalog
	register *register.Register
	calc     *calculator.Calculator
	sim      *rah.Simulator
	logger   *logger.Logger

	items     map[model.Handle]*model.Item
	ship      *model.Handle
	character *model.Handle

	rahEffectID   model.EffectID
	rahIDs        rah.AttributeIDs
	damageProfile rah.DamageProfile
}

// New builds an empty fit. rahEffectID identifies which effect id marks a
// type as a reactive armor hardener (via its default_effect); rahIDs names
// the resonance/shift/cycle-time attribute ids the simulator reads.
func New(catalog model.TypeCatalog, rahEffectID model.EffectID, rahIDs rah.AttributeIDs, log *logger.Logger) *Fit {
	f := &Fit{
		catalog:       catalog,
		logger:        log,
		items:         make(map[model.Handle]*model.Item),
		rahEffectID:   rahEffectID,
		rahIDs:        rahIDs,
		damageProfile: rah.DamageProfile{EM: 0.25, Thermal: 0.25, Kinetic: 0.25, Explosive: 0.25},
	}
	f.register = register.New(log, f)
	f.calc = calculator.New(catalog, f, f.register, log)
	f.sim = rah.New(f.calc, rahIDs, log)
	return f
}

// Lookup resolves a handle to its item, satisfying register.ItemLookup and
// calculator.ItemLookup.
func (f *Fit) Lookup(h model.Handle) (*model.Item, bool) {
	it, ok := f.items[h]
	return it, ok
}

// Item is the public spelling of Lookup for callers outside this package.
func (f *Fit) Item(h model.Handle) (*model.Item, bool) { return f.Lookup(h) }

// Get resolves item's effective value for attrID through the calculator.
func (f *Fit) Get(item *model.Item, attrID model.AttributeID) (*float64, error) {
	return f.calc.Get(item, attrID)
}

// GetAffectors returns every affector currently applicable to item.
func (f *Fit) GetAffectors(item *model.Item) []model.Affector {
	return f.register.GetAffectors(item)
}

// GetAffectees returns every registered item handle aff currently applies
// to.
func (f *Fit) GetAffectees(aff model.Affector) []model.Handle {
	return f.register.GetAffectees(aff)
}

// SetDamageProfile changes the incoming damage distribution the RAH
// simulator optimizes against and re-runs any active simulation.
func (f *Fit) SetDamageProfile(p rah.DamageProfile) {
	f.damageProfile = p
	f.clearAllCaches()
	f.refreshRAH()
}

// AddItem instantiates a new item of typeID in state, registers it with
// the affection register, and returns it.
func (f *Fit) AddItem(typeID model.TypeID, state model.State) (*model.Item, error) {
	typ, ok := f.catalog.Type(typeID)
	if !ok {
		return nil, fmt.Errorf("fit: unknown type id %d", typeID)
	}
	item := model.NewItem(typ, state)
	f.items[item.Handle] = item

	f.register.RegisterAffectee(item)
	for _, m := range item.ActiveModifiers() {
		f.register.RegisterAffector(item, m)
	}

	f.clearAllCaches()
	f.refreshRAH()
	return item, nil
}

// RemoveItem tears down item's affectors and affectee placement and drops
// it from the arena.
func (f *Fit) RemoveItem(h model.Handle) error {
	item, ok := f.items[h]
	if !ok {
		return fmt.Errorf("fit: unknown item %s", h)
	}

	for _, m := range item.ActiveModifiers() {
		f.register.UnregisterAffector(item, m)
	}
	f.register.UnregisterAffectee(item)
	delete(f.items, h)

	if f.ship != nil && *f.ship == h {
		f.ship = nil
		f.register.SetShip(nil)
	}
	if f.character != nil && *f.character == h {
		f.character = nil
		f.register.SetCharacter(nil)
	}

	f.clearAllCaches()
	f.refreshRAH()
	return nil
}

// SetState transitions item to newState, diffing its modifier set so only
// the affectors that actually gained or lost state eligibility move
// between the awaitable/active indices.
func (f *Fit) SetState(h model.Handle, newState model.State) error {
	item, ok := f.items[h]
	if !ok {
		return fmt.Errorf("fit: unknown item %s", h)
	}

	before := modifierSet(item.ActiveModifiers())
	item.State = newState
	after := item.ActiveModifiers()
	afterSet := modifierSet(after)

	for m := range before {
		if _, stillActive := afterSet[m]; !stillActive {
			f.register.UnregisterAffector(item, m)
		}
	}
	for _, m := range after {
		if _, wasActive := before[m]; !wasActive {
			f.register.RegisterAffector(item, m)
		}
	}

	f.clearAllCaches()
	f.refreshRAH()
	return nil
}

func modifierSet(mods []model.Modifier) map[model.Modifier]struct{} {
	set := make(map[model.Modifier]struct{}, len(mods))
	for _, m := range mods {
		set[m] = struct{}{}
	}
	return set
}

// SetShip rebinds the fit's current ship item (nil to unbind), re-placing
// its affectee registration under domain=ship and re-resolving every
// self-relative affector through the register. The new ship's own
// modifiers are registered again afterwards: a self-domain broadcast
// bonus carried by a ship added before it was bound had nowhere to go at
// add time and only becomes placeable now.
func (f *Fit) SetShip(h *model.Handle) error {
	if err := f.rebindDomain(&f.ship, h, model.DomainShip); err != nil {
		return err
	}
	f.register.SetShip(h)
	f.reregisterBoundModifiers(h)
	f.clearAllCaches()
	f.refreshRAH()
	return nil
}

// SetCharacter is SetShip's symmetric counterpart for domain=character.
func (f *Fit) SetCharacter(h *model.Handle) error {
	if err := f.rebindDomain(&f.character, h, model.DomainCharacter); err != nil {
		return err
	}
	f.register.SetCharacter(h)
	f.reregisterBoundModifiers(h)
	f.clearAllCaches()
	f.refreshRAH()
	return nil
}

func (f *Fit) reregisterBoundModifiers(h *model.Handle) {
	if h == nil {
		return
	}
	item, ok := f.items[*h]
	if !ok {
		return
	}
	for _, m := range item.ActiveModifiers() {
		f.register.UnregisterAffector(item, m)
		f.register.RegisterAffector(item, m)
	}
}

func (f *Fit) rebindDomain(slot **model.Handle, h *model.Handle, domain model.ModDomain) error {
	if h != nil {
		if _, ok := f.items[*h]; !ok {
			return fmt.Errorf("fit: unknown item %s", *h)
		}
	}
	if old := *slot; old != nil {
		if oldItem, ok := f.items[*old]; ok {
			f.register.UnregisterAffectee(oldItem)
			oldItem.SetModifierDomain(nil)
			f.register.RegisterAffectee(oldItem)
		}
	}
	*slot = h
	if h != nil {
		newItem := f.items[*h]
		f.register.UnregisterAffectee(newItem)
		d := domain
		newItem.SetModifierDomain(&d)
		f.register.RegisterAffectee(newItem)
	}
	return nil
}

// LinkOther establishes the bidirectional "other" relation between a and
// b (e.g. a module and the charge loaded into it), refreshing any
// domain=other affector either already carries so it replicates onto the
// newly linked peer.
func (f *Fit) LinkOther(a, b model.Handle) error {
	itemA, ok := f.items[a]
	if !ok {
		return fmt.Errorf("fit: unknown item %s", a)
	}
	itemB, ok := f.items[b]
	if !ok {
		return fmt.Errorf("fit: unknown item %s", b)
	}

	itemA.AddOther(b)
	itemB.AddOther(a)
	f.reregisterOtherDomain(itemA)
	f.reregisterOtherDomain(itemB)

	f.clearAllCaches()
	f.refreshRAH()
	return nil
}

// UnlinkOther removes the "other" relation between a and b.
func (f *Fit) UnlinkOther(a, b model.Handle) error {
	itemA, ok := f.items[a]
	if !ok {
		return fmt.Errorf("fit: unknown item %s", a)
	}
	itemB, ok := f.items[b]
	if !ok {
		return fmt.Errorf("fit: unknown item %s", b)
	}

	itemA.RemoveOther(b)
	itemB.RemoveOther(a)
	f.reregisterOtherDomain(itemA)
	f.reregisterOtherDomain(itemB)

	f.clearAllCaches()
	f.refreshRAH()
	return nil
}

func (f *Fit) reregisterOtherDomain(item *model.Item) {
	for _, m := range item.ActiveModifiers() {
		if m.TgtDomain == model.DomainOther {
			f.register.UnregisterAffector(item, m)
			f.register.RegisterAffector(item, m)
		}
	}
}

// AggregateAttribute sums attrID's effective value over every registered
// item in domain (optionally restricted to groupID), skipping items whose
// attribute has no value and logging-and-skipping items that hit a
// metadata error rather than failing the whole aggregate.
func (f *Fit) AggregateAttribute(domain model.ModDomain, groupID *model.GroupID, attrID model.AttributeID) float64 {
	var total float64
	for _, item := range f.items {
		if item.ModifierDomain == nil || *item.ModifierDomain != domain {
			continue
		}
		if groupID != nil && item.Type().GroupID != *groupID {
			continue
		}
		v, err := f.calc.Get(item, attrID)
		if err != nil {
			f.logger.Warn("aggregate attribute skipped item due to metadata error", "type_id", item.TypeID, "attribute_id", attrID)
			continue
		}
		if v != nil {
			total += *v
		}
	}
	return total
}

// ClearVolatile drops every memoized attribute value on the fit without
// touching the register, forcing the next read of each attribute to run
// the full pipeline again.
func (f *Fit) ClearVolatile() {
	f.clearAllCaches()
}

func (f *Fit) clearAllCaches() {
	for _, it := range f.items {
		it.ClearCache()
	}
}

// refreshRAH re-runs the RAH simulation for every qualifying module
// (state ≥ active, type default-effects into rahEffectID) whenever a ship
// is bound. RAHs are processed in a deterministic handle order so repeated
// runs over the same fit state are reproducible.
func (f *Fit) refreshRAH() {
	if f.ship == nil {
		return
	}
	shipItem, ok := f.items[*f.ship]
	if !ok {
		return
	}

	var rahs []*model.Item
	for _, it := range f.items {
		if it.State >= model.StateActive && it.IsRAH(f.rahEffectID) {
			rahs = append(rahs, it)
		}
	}
	if len(rahs) == 0 {
		return
	}
	sort.Slice(rahs, func(i, j int) bool {
		return bytes.Compare(rahs[i].Handle[:], rahs[j].Handle[:]) < 0
	})

	f.sim.Run(shipItem, rahs, f.damageProfile)
}
