package runtime

import (
	"sort"
	"time"
)

// Transition is a kind of evaluation step counted by Perf.
type Transition uint8

// Transition kinds.
const (
	TransitionCopy  Transition = iota // non-applied φ taken in the same basket
	TransitionNew                     // basket opened by an applied reference
	TransitionHit                     // value served from a basket cache
	TransitionDelta                   // literal reached
	TransitionXi                      // enclosing link followed
	TransitionAtom                    // atom invoked
	transitionCount
)

var transitionNames = [transitionCount]string{
	TransitionCopy:  "copy",
	TransitionNew:   "new",
	TransitionHit:   "hit",
	TransitionDelta: "delta",
	TransitionXi:    "xi",
	TransitionAtom:  "atom",
}

func (t Transition) String() string {
	if t < transitionCount {
		return transitionNames[t]
	}
	return "unknown"
}

// Transitions lists every transition kind in declaration order.
func Transitions() []Transition {
	out := make([]Transition, transitionCount)
	for i := range out {
		out[i] = Transition(i)
	}
	return out
}

// Perf is the snapshot of one dataization: a histogram of transitions and
// the number of invocations per atom.
type Perf struct {
	Hits  [transitionCount]int
	Atoms map[string]int
}

func newPerf() Perf {
	return Perf{Atoms: make(map[string]int)}
}

func (p *Perf) fire(t Transition) {
	p.Hits[t]++
}

func (p *Perf) atom(name string) {
	p.Hits[TransitionAtom]++
	p.Atoms[name]++
}

// Count returns how many times t fired.
func (p Perf) Count(t Transition) int {
	if t >= transitionCount {
		return 0
	}
	return p.Hits[t]
}

// TotalAtoms returns the number of atom invocations.
func (p Perf) TotalAtoms() int {
	total := 0
	for _, n := range p.Atoms {
		total += n
	}
	return total
}

// Histogram returns the transition counts keyed by name.
func (p Perf) Histogram() map[string]int {
	out := make(map[string]int, transitionCount)
	for t, n := range p.Hits {
		out[Transition(t).String()] = n
	}
	return out
}

// AtomNames lists the invoked atoms in order.
func (p Perf) AtomNames() []string {
	names := make([]string, 0, len(p.Atoms))
	for n := range p.Atoms {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Merge adds the counts of other into p.
func (p *Perf) Merge(other Perf) {
	for t, n := range other.Hits {
		p.Hits[t] += n
	}
	if p.Atoms == nil {
		p.Atoms = make(map[string]int, len(other.Atoms))
	}
	for name, n := range other.Atoms {
		p.Atoms[name] += n
	}
}

// Stats tracks cumulative engine counters across dataizations.
type Stats struct {
	Dataizations   int64
	Failures       int64
	TotalLatency   time.Duration
	AverageLatency time.Duration
	Perf           Perf
	LiveBaskets    int
	PeakBaskets    int
}

func (s *Stats) record(p Perf, elapsed time.Duration, failed bool) {
	s.Dataizations++
	if failed {
		s.Failures++
	}
	s.TotalLatency += elapsed
	s.AverageLatency = s.TotalLatency / time.Duration(s.Dataizations)
	s.Perf.Merge(p)
}

func (s Stats) clone() Stats {
	out := s
	out.Perf.Atoms = make(map[string]int, len(s.Perf.Atoms))
	for k, v := range s.Perf.Atoms {
		out.Perf.Atoms[k] = v
	}
	return out
}
