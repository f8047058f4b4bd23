// Package register implements the affection register: the index structure
// that answers "which active modifiers currently apply to item X?" and its
// inverse, under incremental updates as items are added, removed, or change
// state.
package register

import (
	"fmt"

	"github.com/Sternrassler/eve-fit-core/internal/fit/model"
	"github.com/Sternrassler/eve-fit-core/internal/metrics"
	"github.com/Sternrassler/eve-fit-core/pkg/logger"
)

// ItemLookup resolves an item handle to its live Item. The register never
// owns items; it indexes them by handle and asks the fit's arena to
// resolve a handle back to an item only when it needs to inspect fields
// (group, required skills, the "other" relation) that aren't part of the
// handle itself.
type ItemLookup interface {
	Lookup(h model.Handle) (*model.Item, bool)
}

type domainGroupKey struct {
	Domain model.ModDomain
	Group  model.GroupID
}

type domainSkillKey struct {
	Domain model.ModDomain
	Skill  model.SkillID
}

type affectorSet map[model.Affector]struct{}

func (s affectorSet) add(a model.Affector)    { s[a] = struct{}{} }
func (s affectorSet) remove(a model.Affector) { delete(s, a) }
func (s affectorSet) list() []model.Affector {
	out := make([]model.Affector, 0, len(s))
	for a := range s {
		out = append(out, a)
	}
	return out
}

type handleSet map[model.Handle]struct{}

func (s handleSet) list() []model.Handle {
	out := make([]model.Handle, 0, len(s))
	for h := range s {
		out = append(out, h)
	}
	return out
}

// Register holds the affectee membership indices on one side and the
// affector placement indices on the other.
type Register struct {
	logger *logger.Logger
	items  ItemLookup

	ship *model.Handle
	char *model.Handle

	affectee            handleSet
	affecteeDomain      map[model.ModDomain]handleSet
	affecteeDomainGroup map[domainGroupKey]handleSet
	affecteeDomainSkill map[domainSkillKey]handleSet
	affecteeOwnerSkill  map[model.SkillID]handleSet

	affectorItemActive    map[model.Handle]affectorSet // keyed by affectee
	affectorItemAwaitable map[model.Handle]affectorSet // keyed by carrier
	affectorItemOther     map[model.Handle]affectorSet // keyed by carrier, permanent

	affectorDomain      map[model.ModDomain]affectorSet
	affectorDomainGroup map[domainGroupKey]affectorSet
	affectorDomainSkill map[domainSkillKey]affectorSet
	affectorOwnerSkill  map[model.SkillID]affectorSet

	// registered is the master set of every affector currently placed
	// somewhere in the indices above. It exists so ship/character swaps
	// can re-derive self-relative placements without an external caller
	// re-issuing every RegisterAffector call.
	registered affectorSet
}

// New creates an empty Affection Register.
func New(log *logger.Logger, items ItemLookup) *Register {
	return &Register{
		logger:                log,
		items:                 items,
		affectee:              make(handleSet),
		affecteeDomain:        make(map[model.ModDomain]handleSet),
		affecteeDomainGroup:   make(map[domainGroupKey]handleSet),
		affecteeDomainSkill:   make(map[domainSkillKey]handleSet),
		affecteeOwnerSkill:    make(map[model.SkillID]handleSet),
		affectorItemActive:    make(map[model.Handle]affectorSet),
		affectorItemAwaitable: make(map[model.Handle]affectorSet),
		affectorItemOther:     make(map[model.Handle]affectorSet),
		affectorDomain:        make(map[model.ModDomain]affectorSet),
		affectorDomainGroup:   make(map[domainGroupKey]affectorSet),
		affectorDomainSkill:   make(map[domainSkillKey]affectorSet),
		affectorOwnerSkill:    make(map[model.SkillID]affectorSet),
		registered:            make(affectorSet),
	}
}

// Ship returns the fit's current ship handle, if bound.
func (r *Register) Ship() *model.Handle { return r.ship }

// Character returns the fit's current character handle, if bound.
func (r *Register) Character() *model.Handle { return r.char }

func ensureHandleSet(m map[model.ModDomain]handleSet, k model.ModDomain) handleSet {
	s, ok := m[k]
	if !ok {
		s = make(handleSet)
		m[k] = s
	}
	return s
}

// RegisterAffectee inserts item into every applicable affectee index, then
// promotes any awaitable or "other" affector whose resolved target now
// equals item.
func (r *Register) RegisterAffectee(item *model.Item) {
	r.affectee[item.Handle] = struct{}{}

	if item.ModifierDomain != nil {
		d := *item.ModifierDomain
		ensureHandleSet(r.affecteeDomain, d)[item.Handle] = struct{}{}

		gk := domainGroupKey{Domain: d, Group: item.Type().GroupID}
		if _, ok := r.affecteeDomainGroup[gk]; !ok {
			r.affecteeDomainGroup[gk] = make(handleSet)
		}
		r.affecteeDomainGroup[gk][item.Handle] = struct{}{}

		for _, sk := range item.Type().RequiredSkills {
			sgk := domainSkillKey{Domain: d, Skill: sk}
			if _, ok := r.affecteeDomainSkill[sgk]; !ok {
				r.affecteeDomainSkill[sgk] = make(handleSet)
			}
			r.affecteeDomainSkill[sgk][item.Handle] = struct{}{}
		}
	}

	if item.OwnerModifiable {
		for _, sk := range item.Type().RequiredSkills {
			if _, ok := r.affecteeOwnerSkill[sk]; !ok {
				r.affecteeOwnerSkill[sk] = make(handleSet)
			}
			r.affecteeOwnerSkill[sk][item.Handle] = struct{}{}
		}
	}

	r.promoteAwaitable(item)
	r.replicateOther(item)
	r.refreshIndexMetrics()
}

// promoteAwaitable scans affectorItemAwaitable for direct affectors whose
// resolved target is now item, and moves them into the active index.
func (r *Register) promoteAwaitable(item *model.Item) {
	for carrier, set := range r.affectorItemAwaitable {
		for aff := range set {
			target, ok := r.itemFilterTarget(aff.Modifier, carrier)
			if ok && target == item.Handle {
				set.remove(aff)
				r.activeSet(item.Handle).add(aff)
			}
		}
		if len(set) == 0 {
			delete(r.affectorItemAwaitable, carrier)
		}
	}
}

// replicateOther scans affectorItemOther for carriers whose Others set now
// contains item, replicating those permanent affectors into item's active
// index without removing them from the permanent one.
func (r *Register) replicateOther(item *model.Item) {
	for carrierHandle, set := range r.affectorItemOther {
		carrier, ok := r.items.Lookup(carrierHandle)
		if !ok || !carrier.HasOther(item.Handle) {
			continue
		}
		for aff := range set {
			r.activeSet(item.Handle).add(aff)
		}
	}
}

func (r *Register) activeSet(affectee model.Handle) affectorSet {
	s, ok := r.affectorItemActive[affectee]
	if !ok {
		s = make(affectorSet)
		r.affectorItemActive[affectee] = s
	}
	return s
}

// UnregisterAffectee removes item from every affectee index and demotes or
// drops the direct affectors that were targeting it.
func (r *Register) UnregisterAffectee(item *model.Item) {
	delete(r.affectee, item.Handle)

	if item.ModifierDomain != nil {
		d := *item.ModifierDomain
		if s, ok := r.affecteeDomain[d]; ok {
			delete(s, item.Handle)
			if len(s) == 0 {
				delete(r.affecteeDomain, d)
			}
		}
		gk := domainGroupKey{Domain: d, Group: item.Type().GroupID}
		if s, ok := r.affecteeDomainGroup[gk]; ok {
			delete(s, item.Handle)
			if len(s) == 0 {
				delete(r.affecteeDomainGroup, gk)
			}
		}
		for _, sk := range item.Type().RequiredSkills {
			sgk := domainSkillKey{Domain: d, Skill: sk}
			if s, ok := r.affecteeDomainSkill[sgk]; ok {
				delete(s, item.Handle)
				if len(s) == 0 {
					delete(r.affecteeDomainSkill, sgk)
				}
			}
		}
	}

	if item.OwnerModifiable {
		for _, sk := range item.Type().RequiredSkills {
			if s, ok := r.affecteeOwnerSkill[sk]; ok {
				delete(s, item.Handle)
				if len(s) == 0 {
					delete(r.affecteeOwnerSkill, sk)
				}
			}
		}
	}

	if set, ok := r.affectorItemActive[item.Handle]; ok {
		for aff := range set {
			if aff.Modifier.TgtDomain == model.DomainOther {
				continue // permanent record in affectorItemOther is untouched
			}
			r.awaitableSet(aff.Carrier).add(aff)
		}
		delete(r.affectorItemActive, item.Handle)
	}
	r.refreshIndexMetrics()
}

func (r *Register) awaitableSet(carrier model.Handle) affectorSet {
	s, ok := r.affectorItemAwaitable[carrier]
	if !ok {
		s = make(affectorSet)
		r.affectorItemAwaitable[carrier] = s
	}
	return s
}

// itemFilterTarget resolves the single affectee handle a filter=item
// modifier targets, given the current ship/character binding. ok is false
// when the target cannot be resolved yet (ship/character unbound) or when
// the modifier uses domain=other (handled separately).
func (r *Register) itemFilterTarget(m model.Modifier, carrier model.Handle) (model.Handle, bool) {
	switch m.TgtDomain {
	case model.DomainSelf:
		return carrier, true
	case model.DomainCharacter:
		if r.char != nil {
			return *r.char, true
		}
		return model.Handle{}, false
	case model.DomainShip:
		if r.ship != nil {
			return *r.ship, true
		}
		return model.Handle{}, false
	default:
		return model.Handle{}, false
	}
}

// RegisterAffector places affector (carrier, modifier) into the correct
// index(es) per modifier.TgtFilter. Placement is all-or-nothing: a
// malformed filter or domain is logged, counted, and leaves no index entry
// at all.
func (r *Register) RegisterAffector(carrier *model.Item, modifier model.Modifier) {
	aff := model.Affector{Carrier: carrier.Handle, Modifier: modifier}

	var err error
	switch modifier.TgtFilter {
	case model.FilterItem:
		err = r.placeItemFilter(carrier, aff)
	case model.FilterDomain, model.FilterDomainGroup, model.FilterDomainSkillrq, model.FilterOwnerSkillrq:
		err = r.placeBroadcast(carrier, aff)
	default:
		r.logger.Warn(fmt.Sprintf("malformed modifier on item type %d: invalid target filter %s", carrier.TypeID, modifier.TgtFilter))
		metrics.RegisterAffectorsDroppedTotal.WithLabelValues("invalid_filter").Inc()
		return
	}
	if err != nil {
		r.logger.Warn(err.Error(), "type_id", carrier.TypeID)
		metrics.RegisterAffectorsDroppedTotal.WithLabelValues("unexpected_domain").Inc()
		return
	}

	r.registered.add(aff)
	r.refreshIndexMetrics()
}

func (r *Register) placeItemFilter(carrier *model.Item, aff model.Affector) error {
	switch aff.Modifier.TgtDomain {
	case model.DomainOther:
		r.otherSet(carrier.Handle).add(aff)
		for peer := range carrier.Others {
			if _, ok := r.affectee[peer]; ok {
				r.activeSet(peer).add(aff)
			}
		}
		return nil
	case model.DomainSelf, model.DomainCharacter, model.DomainShip:
		// handled below
	default:
		return &model.ErrUnexpectedDomain{CarrierTypeID: carrier.TypeID, Domain: aff.Modifier.TgtDomain}
	}

	target, ok := r.itemFilterTarget(aff.Modifier, carrier.Handle)
	if !ok {
		r.awaitableSet(carrier.Handle).add(aff)
		return nil
	}
	if _, registered := r.affectee[target]; !registered {
		r.awaitableSet(carrier.Handle).add(aff)
		return nil
	}
	r.activeSet(target).add(aff)
	return nil
}

func (r *Register) otherSet(carrier model.Handle) affectorSet {
	s, ok := r.affectorItemOther[carrier]
	if !ok {
		s = make(affectorSet)
		r.affectorItemOther[carrier] = s
	}
	return s
}

// placeBroadcast places a domain/domain_group/domain_skillrq/owner_skillrq
// affector, contextualizing a self domain against the fit's current
// ship/character.
func (r *Register) placeBroadcast(carrier *model.Item, aff model.Affector) error {
	if aff.Modifier.TgtFilter == model.FilterOwnerSkillrq {
		skill := aff.Modifier.TgtExtraArg.Resolve(carrier.TypeID)
		r.broadcastOwnerSkillSet(skill).add(aff)
		return nil
	}

	domain, err := model.ContextualizeBroadcastDomain(aff.Modifier.TgtDomain, carrier, r.ship, r.char)
	if err != nil {
		return err
	}

	switch aff.Modifier.TgtFilter {
	case model.FilterDomain:
		r.broadcastDomainSet(domain).add(aff)
	case model.FilterDomainGroup:
		group := aff.Modifier.TgtExtraArg.Resolve(carrier.TypeID)
		r.broadcastDomainGroupSet(domainGroupKey{Domain: domain, Group: group}).add(aff)
	case model.FilterDomainSkillrq:
		skill := aff.Modifier.TgtExtraArg.Resolve(carrier.TypeID)
		r.broadcastDomainSkillSet(domainSkillKey{Domain: domain, Skill: skill}).add(aff)
	}
	return nil
}

func (r *Register) broadcastDomainSet(d model.ModDomain) affectorSet {
	s, ok := r.affectorDomain[d]
	if !ok {
		s = make(affectorSet)
		r.affectorDomain[d] = s
	}
	return s
}

func (r *Register) broadcastDomainGroupSet(k domainGroupKey) affectorSet {
	s, ok := r.affectorDomainGroup[k]
	if !ok {
		s = make(affectorSet)
		r.affectorDomainGroup[k] = s
	}
	return s
}

func (r *Register) broadcastDomainSkillSet(k domainSkillKey) affectorSet {
	s, ok := r.affectorDomainSkill[k]
	if !ok {
		s = make(affectorSet)
		r.affectorDomainSkill[k] = s
	}
	return s
}

func (r *Register) broadcastOwnerSkillSet(skill model.SkillID) affectorSet {
	s, ok := r.affectorOwnerSkill[skill]
	if !ok {
		s = make(affectorSet)
		r.affectorOwnerSkill[skill] = s
	}
	return s
}

// UnregisterAffector removes affector (carrier, modifier) from wherever it
// currently sits, using the current ship/character binding to resolve its
// placement (correct as long as no ship/character swap has happened since
// it was registered without going through SetShip/SetCharacter).
func (r *Register) UnregisterAffector(carrier *model.Item, modifier model.Modifier) {
	aff := model.Affector{Carrier: carrier.Handle, Modifier: modifier}
	r.unplace(carrier, aff, r.ship, r.char)
	delete(r.registered, aff)
	r.refreshIndexMetrics()
}

// unplace removes aff from the index it would occupy given shipH/charH,
// without touching the registered master set.
func (r *Register) unplace(carrier *model.Item, aff model.Affector, shipH, charH *model.Handle) {
	m := aff.Modifier
	switch m.TgtFilter {
	case model.FilterItem:
		if m.TgtDomain == model.DomainOther {
			if s, ok := r.affectorItemOther[carrier.Handle]; ok {
				s.remove(aff)
				if len(s) == 0 {
					delete(r.affectorItemOther, carrier.Handle)
				}
			}
			for peer := range carrier.Others {
				if s, ok := r.affectorItemActive[peer]; ok {
					s.remove(aff)
				}
			}
			return
		}
		target, ok := itemFilterTargetWith(m, carrier.Handle, shipH, charH)
		if ok {
			if s, ok := r.affectorItemActive[target]; ok {
				s.remove(aff)
			}
		}
		if s, ok := r.affectorItemAwaitable[carrier.Handle]; ok {
			s.remove(aff)
			if len(s) == 0 {
				delete(r.affectorItemAwaitable, carrier.Handle)
			}
		}
	case model.FilterOwnerSkillrq:
		skill := m.TgtExtraArg.Resolve(carrier.TypeID)
		if s, ok := r.affectorOwnerSkill[skill]; ok {
			s.remove(aff)
		}
	case model.FilterDomain, model.FilterDomainGroup, model.FilterDomainSkillrq:
		domain, err := model.ContextualizeBroadcastDomain(m.TgtDomain, carrier, shipH, charH)
		if err != nil {
			return // was never placed
		}
		switch m.TgtFilter {
		case model.FilterDomain:
			if s, ok := r.affectorDomain[domain]; ok {
				s.remove(aff)
			}
		case model.FilterDomainGroup:
			group := m.TgtExtraArg.Resolve(carrier.TypeID)
			k := domainGroupKey{Domain: domain, Group: group}
			if s, ok := r.affectorDomainGroup[k]; ok {
				s.remove(aff)
			}
		case model.FilterDomainSkillrq:
			skill := m.TgtExtraArg.Resolve(carrier.TypeID)
			k := domainSkillKey{Domain: domain, Skill: skill}
			if s, ok := r.affectorDomainSkill[k]; ok {
				s.remove(aff)
			}
		}
	}
}

func itemFilterTargetWith(m model.Modifier, carrier model.Handle, shipH, charH *model.Handle) (model.Handle, bool) {
	switch m.TgtDomain {
	case model.DomainSelf:
		return carrier, true
	case model.DomainCharacter:
		if charH != nil {
			return *charH, true
		}
	case model.DomainShip:
		if shipH != nil {
			return *shipH, true
		}
	}
	return model.Handle{}, false
}

// SetShip rebinds the fit's current ship, re-deriving the placement of
// every direct item-filter affector targeting domain=ship and every
// broadcast affector whose domain=self resolves relative to the ship.
func (r *Register) SetShip(h *model.Handle) {
	oldShip := r.ship
	r.resweep(func(carrier *model.Item, aff model.Affector) {
		r.unplace(carrier, aff, oldShip, r.char)
	})
	r.ship = h
	r.resweep(func(carrier *model.Item, aff model.Affector) {
		r.replace(carrier, aff)
	})
	r.refreshIndexMetrics()
}

// SetCharacter rebinds the fit's current character, symmetric to SetShip.
func (r *Register) SetCharacter(h *model.Handle) {
	oldChar := r.char
	r.resweep(func(carrier *model.Item, aff model.Affector) {
		r.unplace(carrier, aff, r.ship, oldChar)
	})
	r.char = h
	r.resweep(func(carrier *model.Item, aff model.Affector) {
		r.replace(carrier, aff)
	})
	r.refreshIndexMetrics()
}

// resweep applies fn to every registered affector whose placement depends
// on the ship/character binding (item-filter ship/character and
// self-domain broadcast affectors).
func (r *Register) resweep(fn func(carrier *model.Item, aff model.Affector)) {
	for aff := range r.registered {
		m := aff.Modifier
		dependsOnBinding := (m.TgtFilter == model.FilterItem && (m.TgtDomain == model.DomainShip || m.TgtDomain == model.DomainCharacter)) ||
			(m.TgtFilter != model.FilterItem && m.TgtFilter != model.FilterOwnerSkillrq && m.TgtDomain == model.DomainSelf)
		if !dependsOnBinding {
			continue
		}
		carrier, ok := r.items.Lookup(aff.Carrier)
		if !ok {
			continue
		}
		fn(carrier, aff)
	}
}

// replace re-places aff after a ship/character rebind. Unlike
// RegisterAffector this never warns: a self-domain broadcast affector whose
// carrier just stopped being the ship is not malformed data, it simply has
// nowhere to go until the carrier is bound again, so it leaves the
// registered set silently.
func (r *Register) replace(carrier *model.Item, aff model.Affector) {
	var err error
	switch aff.Modifier.TgtFilter {
	case model.FilterItem:
		err = r.placeItemFilter(carrier, aff)
	default:
		err = r.placeBroadcast(carrier, aff)
	}
	if err != nil {
		r.registered.remove(aff)
	}
}

// GetAffectors returns the union of every affector currently applicable to
// item: its direct active affectors, plus any broadcast affector whose
// domain/group/skill selectors match it.
func (r *Register) GetAffectors(item *model.Item) []model.Affector {
	out := make(affectorSet)
	if s, ok := r.affectorItemActive[item.Handle]; ok {
		for a := range s {
			out.add(a)
		}
	}
	if item.ModifierDomain != nil {
		d := *item.ModifierDomain
		if s, ok := r.affectorDomain[d]; ok {
			for a := range s {
				out.add(a)
			}
		}
		gk := domainGroupKey{Domain: d, Group: item.Type().GroupID}
		if s, ok := r.affectorDomainGroup[gk]; ok {
			for a := range s {
				out.add(a)
			}
		}
		for _, sk := range item.Type().RequiredSkills {
			sgk := domainSkillKey{Domain: d, Skill: sk}
			if s, ok := r.affectorDomainSkill[sgk]; ok {
				for a := range s {
					out.add(a)
				}
			}
		}
	}
	if item.OwnerModifiable {
		for _, sk := range item.Type().RequiredSkills {
			if s, ok := r.affectorOwnerSkill[sk]; ok {
				for a := range s {
					out.add(a)
				}
			}
		}
	}
	return out.list()
}

// GetAffectees returns every currently-registered item handle that
// affector applies to — the symmetric query to GetAffectors.
func (r *Register) GetAffectees(aff model.Affector) []model.Handle {
	m := aff.Modifier
	carrier, ok := r.items.Lookup(aff.Carrier)
	if !ok {
		return nil
	}

	switch m.TgtFilter {
	case model.FilterItem:
		switch m.TgtDomain {
		case model.DomainSelf:
			if _, ok := r.affectee[aff.Carrier]; ok {
				return []model.Handle{aff.Carrier}
			}
			return nil
		case model.DomainCharacter:
			if r.char != nil {
				if _, ok := r.affectee[*r.char]; ok {
					return []model.Handle{*r.char}
				}
			}
			return nil
		case model.DomainShip:
			if r.ship != nil {
				if _, ok := r.affectee[*r.ship]; ok {
					return []model.Handle{*r.ship}
				}
			}
			return nil
		case model.DomainOther:
			var out []model.Handle
			for peer := range carrier.Others {
				if _, ok := r.affectee[peer]; ok {
					out = append(out, peer)
				}
			}
			return out
		}
	case model.FilterOwnerSkillrq:
		skill := m.TgtExtraArg.Resolve(carrier.TypeID)
		if s, ok := r.affecteeOwnerSkill[skill]; ok {
			return s.list()
		}
		return nil
	case model.FilterDomain, model.FilterDomainGroup, model.FilterDomainSkillrq:
		domain, err := model.ContextualizeBroadcastDomain(m.TgtDomain, carrier, r.ship, r.char)
		if err != nil {
			return nil
		}
		switch m.TgtFilter {
		case model.FilterDomain:
			if s, ok := r.affecteeDomain[domain]; ok {
				return s.list()
			}
		case model.FilterDomainGroup:
			group := m.TgtExtraArg.Resolve(carrier.TypeID)
			if s, ok := r.affecteeDomainGroup[domainGroupKey{Domain: domain, Group: group}]; ok {
				return s.list()
			}
		case model.FilterDomainSkillrq:
			skill := m.TgtExtraArg.Resolve(carrier.TypeID)
			if s, ok := r.affecteeDomainSkill[domainSkillKey{Domain: domain, Skill: skill}]; ok {
				return s.list()
			}
		}
	}
	return nil
}

func (r *Register) refreshIndexMetrics() {
	metrics.RegisterIndexSize.WithLabelValues("affectee").Set(float64(len(r.affectee)))
	metrics.RegisterIndexSize.WithLabelValues("registered_affectors").Set(float64(len(r.registered)))
}
