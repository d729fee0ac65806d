package model

// varIndexer maps (attendee, course, instance, slot) tuples to a dense
// 1-based variable range so the tuples line up with solver literals.
// Instance counts vary per (attendee, course), so each pair owns a
// contiguous block of instance*slot variables and lookups run through
// the block bases.
type varIndexer struct {
	slots     int
	bases     map[instanceKey]int
	instances map[instanceKey]int
	order     []instanceKey
	next      int
}

type instanceKey struct {
	attendee int
	course   int
}

func newVarIndexer(slots int) *varIndexer {
	return &varIndexer{
		slots:     slots,
		bases:     make(map[instanceKey]int),
		instances: make(map[instanceKey]int),
		next:      1,
	}
}

// register reserves the variable block for an (attendee, course) pair with
// the given instance count and returns the id of its first variable.
func (x *varIndexer) register(attendee, course, instances int) int {
	key := instanceKey{attendee: attendee, course: course}
	base := x.next
	x.bases[key] = base
	x.instances[key] = instances
	x.order = append(x.order, key)
	x.next += instances * x.slots
	return base
}

func (x *varIndexer) variable(attendee, course, instance, slot int) int {
	base := x.bases[instanceKey{attendee: attendee, course: course}]
	return base + instance*x.slots + slot
}

func (x *varIndexer) count() int { return x.next - 1 }

// attributes inverts variable back to its tuple. Walks the registration
// order, which stays short (attendees times course types).
func (x *varIndexer) attributes(variable int) (attendee, course, instance, slot int) {
	for _, key := range x.order {
		base := x.bases[key]
		size := x.instances[key] * x.slots
		if variable >= base && variable < base+size {
			offset := variable - base
			return key.attendee, key.course, offset / x.slots, offset % x.slots
		}
	}
	return -1, -1, -1, -1
}
