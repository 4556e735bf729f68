package network

import (
	"github.com/lintang-b-s/bike-route-planner/pkg/util"
	"github.com/paulmach/orb"
)

type partEnd struct {
	part    int
	atStart bool
}

// mergeLines joins parts at nodes where exactly two part ends meet, reversing
// parts as needed. Nodes are matched on exact coordinates. Output order
// follows the first part of each chain.
func mergeLines(parts []orb.LineString) []orb.LineString {
	if len(parts) <= 1 {
		return parts
	}

	ends := make(map[orb.Point][]partEnd, 2*len(parts))
	for i, p := range parts {
		ends[p[0]] = append(ends[p[0]], partEnd{part: i, atStart: true})
		ends[p[len(p)-1]] = append(ends[p[len(p)-1]], partEnd{part: i, atStart: false})
	}

	used := make([]bool, len(parts))
	continuation := func(node orb.Point) (partEnd, bool) {
		incident := ends[node]
		if len(incident) != 2 {
			return partEnd{}, false
		}
		for _, e := range incident {
			if !used[e.part] {
				return e, true
			}
		}
		return partEnd{}, false
	}

	merged := make([]orb.LineString, 0, len(parts))
	for i := range parts {
		if used[i] {
			continue
		}
		used[i] = true
		chain := parts[i].Clone()

		for {
			e, ok := continuation(chain[len(chain)-1])
			if !ok {
				break
			}
			used[e.part] = true
			seg := parts[e.part].Clone()
			if !e.atStart {
				seg = orb.LineString(util.ReverseG([]orb.Point(seg)))
			}
			chain = append(chain, seg[1:]...)
		}

		for {
			e, ok := continuation(chain[0])
			if !ok {
				break
			}
			used[e.part] = true
			seg := parts[e.part].Clone()
			if e.atStart {
				seg = orb.LineString(util.ReverseG([]orb.Point(seg)))
			}
			chain = append(seg[:len(seg)-1], chain...)
		}

		merged = append(merged, chain)
	}
	return merged
}
