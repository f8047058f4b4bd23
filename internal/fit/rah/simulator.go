// Package rah implements the reactive armor hardener simulator: a
// discrete-tick fixed-point search for a steady-state resonance tuple per
// RAH module, seeded and read back through the attribute calculator.
package rah

import (
	"errors"
	"math"
	"sort"

	"github.com/Sternrassler/eve-fit-core/internal/fit/calculator"
	"github.com/Sternrassler/eve-fit-core/internal/fit/model"
	"github.com/Sternrassler/eve-fit-core/internal/metrics"
	"github.com/Sternrassler/eve-fit-core/pkg/logger"
)

// MaxSimulationTicks bounds a single RAH's tick loop; if no repeating loop
// is found within this many ticks the simulator falls back to a
// tail-weighted average of the simulated history.
const MaxSimulationTicks = 500

const tickEpsilon = 1e-9

// DamageProfile is the incoming damage distribution a fit is being
// simulated against, one weight per resonance type.
type DamageProfile struct {
	EM, Thermal, Kinetic, Explosive float64
}

// AttributeIDs names the attribute ids a RAH module publishes: its four
// resonance attributes (shared with the ship, since the ship's own
// resonance reads these same ids through post_mul modifiers),
// its shift amount, and its effective cycle time.
type AttributeIDs struct {
	EM, Thermal, Kinetic, Explosive model.AttributeID
	ShiftAmount                     model.AttributeID
	CycleTime                       model.AttributeID
}

func (ids AttributeIDs) all() [4]model.AttributeID {
	return [4]model.AttributeID{ids.EM, ids.Thermal, ids.Kinetic, ids.Explosive}
}

// Simulator runs the RAH tick engine over a live calculator.
type Simulator struct {
	calc   *calculator.Calculator
	ids    AttributeIDs
	logger *logger.Logger
}

// New builds a Simulator reading resonance/shift/cycle attributes through
// calc and logging through log.
func New(calc *calculator.Calculator, ids AttributeIDs, log *logger.Logger) *Simulator {
	return &Simulator{calc: calc, ids: ids, logger: log}
}

// Run simulates every rah module against ship, in order, writing each
// converged resonance tuple back onto its item as a cached override. RAHs
// are processed sequentially: a later RAH's simulation observes the ship
// resonance left behind by an earlier RAH's already-applied result, a
// fixed-point approximation of simultaneous multi-RAH cycling (see
// DESIGN.md). A failure simulating one RAH never aborts the others.
func (s *Simulator) Run(ship *model.Item, rahs []*model.Item, profile DamageProfile) {
	for _, rah := range rahs {
		s.simulateOne(ship, rah, profile)
	}
}

type tickRecord struct {
	state  [4]float64
	weight float64
}

func (s *Simulator) simulateOne(ship, rah *model.Item, profile DamageProfile) {
	defer func() {
		if rec := recover(); rec != nil {
			// Drop any candidate tick state already written into the caches
			// so reads see the plain pipeline-derived resonances again.
			rah.ClearCache()
			ship.ClearCache()
			s.logger.Warn("unexpected exception, setting unsimulated resonances")
			metrics.RAHSimulationFailuresTotal.Inc()
		}
	}()

	cycleTime := must(s.calc.Get(rah, s.ids.CycleTime))
	if cycleTime <= 0 {
		panic(errors.New("rah cycle time must be positive"))
	}
	shiftAmount := must(s.calc.Get(rah, s.ids.ShiftAmount))

	state := s.readResonance(rah)
	history := []tickRecord{{state: state, weight: 0}}

	ticksRun := 0
	var loopAverage *[4]float64
	for ticksRun < MaxSimulationTicks {
		ticksRun++
		state = s.applyShift(ship, rah, state, shiftAmount, profile)
		history = append(history, tickRecord{state: state, weight: cycleTime})

		if loop := detectLoop(history); loop != nil {
			avg := weightedAverage(loop)
			loopAverage = &avg
			metrics.RAHSimulationLoopDetectedTotal.Inc()
			break
		}
	}
	metrics.RAHSimulationTicks.Observe(float64(ticksRun))

	var result [4]float64
	if loopAverage != nil {
		result = *loopAverage
	} else {
		result = tailAverage(history)
	}

	ids := s.ids.all()
	for i, id := range ids {
		rah.CacheSet(id, result[i])
	}
	ship.ClearCache()
}

// readResonance reads the RAH's own current resonance tuple through the
// calculator (its unsimulated, type-and-modifier-derived values).
func (s *Simulator) readResonance(rah *model.Item) [4]float64 {
	ids := s.ids.all()
	var out [4]float64
	for i, id := range ids {
		out[i] = must(s.calc.Get(rah, id))
	}
	return out
}

// applyShift performs one tick: it writes the candidate state onto the RAH
// item, re-derives the ship's combined resonance for ranking (clearing the
// ship's cache so the calculator recomposes it), ranks the damage types by
// damage taken, and redistributes resistance toward the worst-taken types.
// Resistance is borrowed from at least two donor types (the least-damaged
// ones; a type taking no damage at all is always a donor, even when that
// makes more than two). Each donor gives up to the full shift amount,
// bounded by how much resistance it has left (resonance never exceeds
// 1.0), and the donated total is split equally among the recipients, so
// the resonance sum is always conserved.
func (s *Simulator) applyShift(ship, rah *model.Item, state [4]float64, shiftAmount float64, profile DamageProfile) [4]float64 {
	ids := s.ids.all()
	for i, id := range ids {
		rah.CacheSet(id, state[i])
	}
	ship.ClearCache()

	shipResonance := [4]float64{
		must(s.calc.Get(ship, ids[0])),
		must(s.calc.Get(ship, ids[1])),
		must(s.calc.Get(ship, ids[2])),
		must(s.calc.Get(ship, ids[3])),
	}
	profileWeights := [4]float64{profile.EM, profile.Thermal, profile.Kinetic, profile.Explosive}

	var received [4]float64
	zeroDamage := 0
	for i := range received {
		received[i] = profileWeights[i] * shipResonance[i]
		if received[i] == 0 {
			zeroDamage++
		}
	}

	donorCount := zeroDamage
	if donorCount < 2 {
		donorCount = 2
	}
	recipientCount := 4 - donorCount
	if recipientCount == 0 {
		panic(errors.New("damage profile leaves no type to shift resistance to"))
	}

	// Rank types most-damaged first; ties keep the em/thermal/kinetic/
	// explosive order.
	order := [4]int{0, 1, 2, 3}
	sort.SliceStable(order[:], func(a, b int) bool {
		return received[order[a]] > received[order[b]]
	})

	next := state
	donated := 0.0
	for _, i := range order[recipientCount:] {
		give := shiftAmount / 100.0
		if capacity := 1.0 - next[i]; give > capacity {
			give = capacity
		}
		if give < 0 {
			give = 0
		}
		next[i] += give
		donated += give
	}
	perRecipient := donated / float64(recipientCount)
	for _, i := range order[:recipientCount] {
		next[i] -= perRecipient
	}
	return next
}

// detectLoop looks back through history for the longest repeated suffix
// that begins with the latest state and spans at least one tick. history
// includes the tick-0 seed at index 0, which never participates in a loop.
func detectLoop(history []tickRecord) []tickRecord {
	ticks := history[1:]
	n := len(ticks)
	for length := n / 2; length >= 1; length-- {
		recent := ticks[n-length:]
		prior := ticks[n-2*length : n-length]
		if statesEqual(recent, prior) {
			return recent
		}
	}
	return nil
}

func statesEqual(a, b []tickRecord) bool {
	for i := range a {
		for c := 0; c < 4; c++ {
			if math.Abs(a[i].state[c]-b[i].state[c]) > tickEpsilon {
				return false
			}
		}
	}
	return true
}

func weightedAverage(records []tickRecord) [4]float64 {
	var sum [4]float64
	var totalWeight float64
	for _, r := range records {
		for i := 0; i < 4; i++ {
			sum[i] += r.state[i] * r.weight
		}
		totalWeight += r.weight
	}
	var avg [4]float64
	for i := range avg {
		avg[i] = sum[i] / totalWeight
	}
	return avg
}

// tailAverage computes a time-weighted mean over the tail of the tick
// history when no loop was found, ignoring an initial warm-up window. A
// simulated RAH completes exactly one cycle per tick here, so five initial
// cycles are five ticks, and the ignored window is 1.5 times that, rounded
// up: 8 ticks. A shorter history ignores 2 ticks, or none if it has at most
// 2.
func tailAverage(history []tickRecord) [4]float64 {
	ticks := history[1:]
	const initialCycles = 5
	ignoreTicks := int(math.Ceil(math.Ceil(initialCycles) * 1.5))
	if len(ticks) <= ignoreTicks {
		ignoreTicks = 2
		if len(ticks) <= ignoreTicks {
			ignoreTicks = 0
		}
	}
	return weightedAverage(ticks[ignoreTicks:])
}

func must(v *float64, err error) float64 {
	if err != nil {
		panic(err)
	}
	if v == nil {
		panic(errors.New("rah attribute has no value"))
	}
	return *v
}
