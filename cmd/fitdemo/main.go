// Command fitdemo builds a small in-memory fit and prints its shield
// hitpoints before and after a shield booster amplifier is fitted, then the
// ship's resonances once a reactive armor hardener is activated, exercising
// the core end to end without a network or database dependency.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/Sternrassler/eve-fit-core/internal/fit"
	"github.com/Sternrassler/eve-fit-core/internal/fit/model"
	"github.com/Sternrassler/eve-fit-core/internal/fit/rah"
	"github.com/Sternrassler/eve-fit-core/pkg/logger"
)

const (
	attrShieldHP  model.AttributeID = 263
	attrBonusPct  model.AttributeID = 1953
	attrEM        model.AttributeID = 271
	attrThermal   model.AttributeID = 272
	attrKinetic   model.AttributeID = 273
	attrExplosive model.AttributeID = 274
	attrShiftAmt  model.AttributeID = 2045
	attrCycleTime model.AttributeID = 2046

	typeShip     model.TypeID = 648
	typeAmp      model.TypeID = 10188
	typeHardener model.TypeID = 2048

	rahEffectID model.EffectID = 3059

	groupShip model.GroupID = 25
	groupMod  model.GroupID = 40
)

// demoCatalog is a fixed, hand-built stand-in for the SDE-backed catalog a
// real caller would supply; fitdemo only needs the handful of types and
// attributes below.
type demoCatalog struct {
	types      map[model.TypeID]*model.Type
	attributes map[model.AttributeID]model.AttributeDescriptor
}

func (c *demoCatalog) Type(id model.TypeID) (*model.Type, bool) {
	t, ok := c.types[id]
	return t, ok
}

func (c *demoCatalog) Attribute(id model.AttributeID) (model.AttributeDescriptor, bool) {
	d, ok := c.attributes[id]
	return d, ok
}

func buildCatalog(shieldBonus float64) *demoCatalog {
	c := &demoCatalog{
		types:      make(map[model.TypeID]*model.Type),
		attributes: make(map[model.AttributeID]model.AttributeDescriptor),
	}

	c.attributes[attrShieldHP] = model.AttributeDescriptor{ID: attrShieldHP, Stackable: false, HighIsGood: true}
	c.attributes[attrBonusPct] = model.AttributeDescriptor{ID: attrBonusPct, Stackable: false, HighIsGood: true}
	for _, id := range []model.AttributeID{attrEM, attrThermal, attrKinetic, attrExplosive} {
		c.attributes[id] = model.AttributeDescriptor{ID: id, Stackable: true, HighIsGood: false}
	}
	c.attributes[attrShiftAmt] = model.AttributeDescriptor{ID: attrShiftAmt, Stackable: true, HighIsGood: true}
	c.attributes[attrCycleTime] = model.AttributeDescriptor{ID: attrCycleTime, Stackable: true, HighIsGood: false}

	c.types[typeShip] = &model.Type{
		ID:      typeShip,
		GroupID: groupShip,
		BaseAttrs: map[model.AttributeID]float64{
			attrShieldHP: 2200,
			attrEM:       0.6, attrThermal: 0.75, attrKinetic: 0.8, attrExplosive: 0.5,
		},
	}

	ampModifier := model.Modifier{
		State: model.StateOffline, TgtFilter: model.FilterItem, TgtDomain: model.DomainShip,
		TgtAttr: attrShieldHP, Operator: model.OpPostPercent, SrcAttr: attrBonusPct,
	}
	ampEffect, _ := model.BuildEffect(1, model.CategoryPassive, nil, []model.Modifier{ampModifier})
	c.types[typeAmp] = &model.Type{
		ID:        typeAmp,
		GroupID:   groupMod,
		BaseAttrs: map[model.AttributeID]float64{attrBonusPct: shieldBonus},
		Effects:   []*model.Effect{ampEffect},
	}

	rahModifiers := []model.Modifier{
		{State: model.StateActive, TgtFilter: model.FilterItem, TgtDomain: model.DomainShip, TgtAttr: attrEM, Operator: model.OpPostMul, SrcAttr: attrEM},
		{State: model.StateActive, TgtFilter: model.FilterItem, TgtDomain: model.DomainShip, TgtAttr: attrThermal, Operator: model.OpPostMul, SrcAttr: attrThermal},
		{State: model.StateActive, TgtFilter: model.FilterItem, TgtDomain: model.DomainShip, TgtAttr: attrKinetic, Operator: model.OpPostMul, SrcAttr: attrKinetic},
		{State: model.StateActive, TgtFilter: model.FilterItem, TgtDomain: model.DomainShip, TgtAttr: attrExplosive, Operator: model.OpPostMul, SrcAttr: attrExplosive},
	}
	rahEffect, _ := model.BuildEffect(2, model.CategoryActive, nil, rahModifiers)
	rahTypeID := model.EffectID(rahEffectID)
	c.types[typeHardener] = &model.Type{
		ID:            typeHardener,
		GroupID:       groupMod,
		DefaultEffect: &rahTypeID,
		BaseAttrs: map[model.AttributeID]float64{
			attrEM: 0.85, attrThermal: 0.85, attrKinetic: 0.85, attrExplosive: 0.85,
			attrShiftAmt: 6, attrCycleTime: 5000,
		},
		Effects: []*model.Effect{rahEffect},
	}

	return c
}

func main() {
	var (
		shieldBonus  = flag.Float64("shield-bonus", 10, "shield HP percentage bonus carried by the fitted amplifier")
		withHardener = flag.Bool("hardener", true, "fit an active reactive armor hardener alongside the amplifier")
	)
	flag.Parse()

	catalog := buildCatalog(*shieldBonus)
	f := fit.New(catalog, rahEffectID, rah.AttributeIDs{
		EM: attrEM, Thermal: attrThermal, Kinetic: attrKinetic, Explosive: attrExplosive,
		ShiftAmount: attrShiftAmt, CycleTime: attrCycleTime,
	}, logger.New())

	ship, err := f.AddItem(typeShip, model.StateOnline)
	if err != nil {
		log.Fatalf("fitdemo: add ship: %v", err)
	}
	if err := f.SetShip(&ship.Handle); err != nil {
		log.Fatalf("fitdemo: bind ship: %v", err)
	}

	baseline, err := f.Get(ship, attrShieldHP)
	if err != nil {
		log.Fatalf("fitdemo: read baseline shield hp: %v", err)
	}
	fmt.Printf("unfitted shield hp: %.1f\n", *baseline)

	if _, err := f.AddItem(typeAmp, model.StateOnline); err != nil {
		log.Fatalf("fitdemo: fit amplifier: %v", err)
	}
	boosted, err := f.Get(ship, attrShieldHP)
	if err != nil {
		log.Fatalf("fitdemo: read boosted shield hp: %v", err)
	}
	fmt.Printf("with %.0f%% amplifier: %.1f\n", *shieldBonus, *boosted)

	if !*withHardener {
		return
	}

	if _, err := f.AddItem(typeHardener, model.StateActive); err != nil {
		log.Fatalf("fitdemo: fit hardener: %v", err)
	}
	for _, id := range []model.AttributeID{attrEM, attrThermal, attrKinetic, attrExplosive} {
		v, err := f.Get(ship, id)
		if err != nil {
			log.Fatalf("fitdemo: read resonance: %v", err)
		}
		fmt.Printf("ship resonance attr %d after hardener simulation: %.4f\n", id, *v)
	}
}
