package monitor

import (
	"sync/atomic"
)

// Origin identifies who asked for a check. It is informational only.
type Origin uint32

const (
	OriginTimer Origin = 1 << iota
	OriginKeyboard
	OriginHTTP
)

var originNames = []struct {
	origin Origin
	name   string
}{
	{OriginTimer, "timer"},
	{OriginKeyboard, "keyboard"},
	{OriginHTTP, "http"},
}

// Names lists the origins set in o
func (o Origin) Names() []string {
	var names []string
	for _, n := range originNames {
		if o&n.origin != 0 {
			names = append(names, n.name)
		}
	}
	return names
}

// PendingCheck is a conflating request flag. Any number of requests raised
// before the monitor takes the flag produce exactly one check.
//
// Every operation is a single atomic instruction, so it is safe to raise
// from contexts that must not block.
type PendingCheck struct {
	bits atomic.Uint32
}

// Request raises the flag on behalf of origin
func (p *PendingCheck) Request(origin Origin) {
	p.bits.Or(uint32(origin))
}

// Pending reports whether a request is waiting
func (p *PendingCheck) Pending() bool {
	return p.bits.Load() != 0
}

// Take clears the flag and returns the origins that raised it since the
// previous Take.
func (p *PendingCheck) Take() (Origin, bool) {
	o := Origin(p.bits.Swap(0))
	return o, o != 0
}

// Raiser raises a check request from one fixed origin.
type Raiser interface {
	Raise()
}

type originRaiser struct {
	pending *PendingCheck
	origin  Origin
}

func (r originRaiser) Raise() {
	r.pending.Request(r.origin)
}

// RaiserFor returns a Raiser that requests checks as origin. Handing
// producers a Raiser instead of the PendingCheck keeps Take on the monitor.
func (p *PendingCheck) RaiserFor(origin Origin) Raiser {
	return originRaiser{pending: p, origin: origin}
}
