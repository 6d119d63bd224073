package world

// ActorID encodes a 32-bit slot index in the lower bits and a 32-bit
// generation in the upper bits. The generation increments when the slot is
// reclaimed, so an ID held by a threat table or an aggro field goes stale
// instead of silently pointing at the next actor spawned into the slot.
type ActorID uint64

func newActorID(index, generation uint32) ActorID {
	return ActorID(uint64(generation)<<32 | uint64(index))
}

func (id ActorID) Index() uint32      { return uint32(id) }
func (id ActorID) Generation() uint32 { return uint32(id >> 32) }
func (id ActorID) IsZero() bool       { return id == 0 }

// actorPool hands out ActorIDs with a free list. Slot 0 is burned at
// construction so the zero ActorID never refers to a live actor.
type actorPool struct {
	generations []uint32
	freeList    []uint32
	nextIndex   uint32
}

func newActorPool() *actorPool {
	p := &actorPool{
		generations: make([]uint32, 0, 256),
		freeList:    make([]uint32, 0, 64),
	}
	p.create()           // reserve index 0
	p.generations[0] = 1 // the zero ActorID must never test alive
	return p
}

func (p *actorPool) create() ActorID {
	if len(p.freeList) > 0 {
		idx := p.freeList[len(p.freeList)-1]
		p.freeList = p.freeList[:len(p.freeList)-1]
		return newActorID(idx, p.generations[idx])
	}
	idx := p.nextIndex
	p.nextIndex++
	if int(idx) >= len(p.generations) {
		p.generations = append(p.generations, 0)
	}
	return newActorID(idx, p.generations[idx])
}

func (p *actorPool) alive(id ActorID) bool {
	idx := id.Index()
	if idx >= p.nextIndex {
		return false
	}
	return p.generations[idx] == id.Generation()
}

func (p *actorPool) destroy(id ActorID) {
	idx := id.Index()
	if idx >= p.nextIndex {
		return
	}
	if p.generations[idx] != id.Generation() {
		return // already reclaimed (stale reference)
	}
	p.generations[idx]++
	p.freeList = append(p.freeList, idx)
}
