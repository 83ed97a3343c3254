package ap

// maxAID is the largest association ID a station may be assigned.
const maxAID = 2007

// An aidPool hands out the lowest free association ID.
type aidPool struct {
	limit int
	used  [maxAID + 1]bool
}

func newAIDPool(limit int) *aidPool {
	if limit <= 0 || limit > maxAID {
		limit = maxAID
	}
	return &aidPool{limit: limit}
}

func (p *aidPool) alloc() (uint16, bool) {
	for aid := 1; aid <= p.limit; aid++ {
		if !p.used[aid] {
			p.used[aid] = true
			return uint16(aid), true
		}
	}
	return 0, false
}

func (p *aidPool) release(aid uint16) {
	if aid == 0 || int(aid) > maxAID {
		return
	}
	p.used[aid] = false
}
