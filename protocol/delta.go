package protocol

import "sort"

// Field mask bits of a PlayerDelta
const (
	FieldAlive uint16 = 1 << iota
	FieldHead
	FieldDir
	FieldRadius
	FieldScore
	FieldBoost

	FieldAll = FieldAlive | FieldHead | FieldDir | FieldRadius | FieldScore | FieldBoost
)

// BuildPlayerDeltas compares next against prev by player ID. A player that
// is new to prev gets every field; an unchanged player is left out.
func BuildPlayerDeltas(prev, next []PlayerState) []PlayerDelta {
	base := make(map[uint32]PlayerState, len(prev))
	for _, p := range prev {
		base[p.ID] = p
	}

	var deltas []PlayerDelta
	for _, p := range next {
		mask := FieldAll
		if old, ok := base[p.ID]; ok {
			mask = changedFields(old, p)
		}
		if mask != 0 {
			deltas = append(deltas, deltaFor(p, mask))
		}
	}
	return deltas
}

func changedFields(a, b PlayerState) uint16 {
	var mask uint16
	if a.Alive != b.Alive {
		mask |= FieldAlive
	}
	if a.Head != b.Head {
		mask |= FieldHead
	}
	if a.Dir != b.Dir {
		mask |= FieldDir
	}
	if a.Radius != b.Radius {
		mask |= FieldRadius
	}
	if a.Score != b.Score {
		mask |= FieldScore
	}
	if a.Boost != b.Boost {
		mask |= FieldBoost
	}
	return mask
}

func deltaFor(p PlayerState, mask uint16) PlayerDelta {
	d := PlayerDelta{ID: p.ID, FieldMask: mask}
	if mask&FieldAlive != 0 {
		v := p.Alive
		d.Alive = &v
	}
	if mask&FieldHead != 0 {
		v := p.Head
		d.Head = &v
	}
	if mask&FieldDir != 0 {
		v := p.Dir
		d.Dir = &v
	}
	if mask&FieldRadius != 0 {
		v := p.Radius
		d.Radius = &v
	}
	if mask&FieldScore != 0 {
		v := p.Score
		d.Score = &v
	}
	if mask&FieldBoost != 0 {
		v := p.Boost
		d.Boost = &v
	}
	return d
}

// Apply overwrites the fields of p named by the delta's mask
func (d PlayerDelta) Apply(p *PlayerState) {
	p.ID = d.ID
	if d.FieldMask&FieldAlive != 0 && d.Alive != nil {
		p.Alive = *d.Alive
	}
	if d.FieldMask&FieldHead != 0 && d.Head != nil {
		p.Head = *d.Head
	}
	if d.FieldMask&FieldDir != 0 && d.Dir != nil {
		p.Dir = *d.Dir
	}
	if d.FieldMask&FieldRadius != 0 && d.Radius != nil {
		p.Radius = *d.Radius
	}
	if d.FieldMask&FieldScore != 0 && d.Score != nil {
		p.Score = *d.Score
	}
	if d.FieldMask&FieldBoost != 0 && d.Boost != nil {
		p.Boost = *d.Boost
	}
}

// ApplyPlayerDeltas returns base with deltas applied, sorted by ID. base is
// not modified. Players missing from base start from the zero state.
func ApplyPlayerDeltas(base []PlayerState, deltas []PlayerDelta) []PlayerState {
	byID := make(map[uint32]PlayerState, len(base)+len(deltas))
	for _, p := range base {
		byID[p.ID] = p
	}
	for _, d := range deltas {
		p := byID[d.ID]
		d.Apply(&p)
		byID[d.ID] = p
	}
	return sortedPlayers(byID)
}

func sortedPlayers(byID map[uint32]PlayerState) []PlayerState {
	out := make([]PlayerState, 0, len(byID))
	for _, p := range byID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
