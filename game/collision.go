package game

// resolveCollisions marks agents that die this tick. agents must be sorted by
// ID so the outcome does not depend on map order. Positions are read only,
// so every pass sees the same snapshot.
func resolveCollisions(agents []*Agent, arenaRadius float64, heavy bool) []bool {
	toDie := make([]bool, len(agents))
	checkArenaBounds(agents, arenaRadius, toDie)
	checkHeadToHead(agents, toDie)
	checkHeadToBody(agents, toDie, heavy)
	return toDie
}

func checkArenaBounds(agents []*Agent, arenaRadius float64, toDie []bool) {
	r2 := arenaRadius * arenaRadius
	for i, a := range agents {
		if a.Alive && a.Snake.Head().LengthSq() > r2 {
			toDie[i] = true
		}
	}
}

// checkHeadToHead kills both heads when radii are within 10% of each other,
// otherwise only the smaller one. Every pair of living agents is checked, so
// the result does not depend on ID order or on the other passes.
func checkHeadToHead(agents []*Agent, toDie []bool) {
	for i := 0; i < len(agents); i++ {
		if !agents[i].Alive {
			continue
		}
		for j := i + 1; j < len(agents); j++ {
			if !agents[j].Alive {
				continue
			}
			ri := agents[i].Snake.Radius
			rj := agents[j].Snake.Radius
			reach := (ri + rj) * HeadToHeadFactor
			if DistanceSq(agents[i].Snake.Head(), agents[j].Snake.Head()) > reach*reach {
				continue
			}
			ai := max(ri, 0.01)
			aj := max(rj, 0.01)
			ratio := ai / aj
			if aj > ai {
				ratio = aj / ai
			}
			switch {
			case ratio < HeadToHeadTieRatio:
				toDie[i] = true
				toDie[j] = true
			case ai > aj:
				toDie[j] = true
			default:
				toDie[i] = true
			}
		}
	}
}

// checkHeadToBody kills an attacker whose head touches another body. The
// first few victim segments are skipped. In heavy mode the victim body is
// sampled at a stride and the contact radius padded to cover the gaps.
func checkHeadToBody(agents []*Agent, toDie []bool, heavy bool) {
	for i, attacker := range agents {
		if !attacker.Alive || toDie[i] {
			continue
		}
		head := attacker.Snake.Head()
		hr := attacker.Snake.Radius

	victims:
		for j, victim := range agents {
			if i == j || !victim.Alive {
				continue
			}
			segs := victim.Snake.Segments()
			step := 1
			padding := 0.0
			if heavy {
				step = ClampInt(len(segs)/HeavyStrideDivisor, 1, HeavyStrideMax)
				padding = float64(step-1) * victim.Snake.Spacing * HeavyPaddingFactor
			}
			r := max(hr+victim.Snake.Radius*BodyRadiusFactor+padding, 0)
			r2 := r * r
			for k := BodySkipSegments; k < len(segs); k += step {
				if DistanceSq(head, segs[k]) <= r2 {
					toDie[i] = true
					break victims
				}
			}
		}
	}
}

// applyDeaths turns every marked agent into a corpse scatter worth its score,
// clears its buffs and flips it dead. It returns the agents that died and
// whether any of them was a player.
func applyDeaths(agents []*Agent, toDie []bool, pellets *PelletGrid) ([]*Agent, bool) {
	var died []*Agent
	playerDied := false
	for i, a := range agents {
		if !a.Alive || !toDie[i] {
			continue
		}
		pellets.SpawnCorpseScore(a.Snake.Segments(), a.Score, CorpseDropMaxPellets, max(CorpseDropSpread, 2))
		a.Alive = false
		a.clearBuffs()
		died = append(died, a)
		if a.Kind == KindPlayer {
			playerDied = true
		}
	}
	return died, playerDied
}
