package frame

import (
	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/kernel"
)

// lookback bounds how many recent alpha batches an item may join.
const lookback = 8

// batch sorts items into opaque and alpha batches.
//
// Opaque items are grouped by program regardless of order, walking from
// the last item to the first so that depth rejection culls hidden
// pixels. Alpha items keep paint order: an item joins an earlier batch
// of its program only if no batch in between overlaps it.
func batch(items []item) (opaque, alpha []Batch) {
	byProgram := make(map[*kernel.Program]int)
	for i := len(items) - 1; i >= 0; i-- {
		it := &items[i]
		if !it.opaque || len(it.instances) == 0 {
			continue
		}
		j, ok := byProgram[it.prog]
		if !ok {
			j = len(opaque)
			byProgram[it.prog] = j
			opaque = append(opaque, Batch{Program: it.prog})
		}
		opaque[j].Instances = append(opaque[j].Instances, it.instances...)
	}

	var bounds []geom.Rect
	for i := range items {
		it := &items[i]
		if it.opaque || len(it.instances) == 0 {
			continue
		}
		target := -1
		for j := len(alpha) - 1; j >= 0 && j >= len(alpha)-lookback; j-- {
			if alpha[j].Program == it.prog {
				target = j
				break
			}
			if !bounds[j].Intersect(it.bounds).Empty() {
				break
			}
		}
		if target < 0 {
			alpha = append(alpha, Batch{Program: it.prog})
			bounds = append(bounds, it.bounds)
			target = len(alpha) - 1
		} else {
			bounds[target] = bounds[target].Union(it.bounds)
		}
		alpha[target].Instances = append(alpha[target].Instances, it.instances...)
	}
	return opaque, alpha
}
