// pkg/engine/ship_index.go
package engine

import (
	"github.com/tidwall/rtree"

	"github.com/opd-ai/go-armada/pkg/board"
	"github.com/opd-ai/go-armada/pkg/entity"
)

// ShipIndex is an R-tree over ship hull envelopes, keyed by ship id. It
// answers the collision and area queries behind every combat primitive.
// Entries must be kept in lockstep with the ship map that owns the Ship
// structs; ShipManager is responsible for that.
type ShipIndex struct {
	tree rtree.RTree
}

// rect converts an inclusive tile box to R-tree corners.
func rect(b board.Box) (min, max [2]float64) {
	min = [2]float64{float64(b.Min.X), float64(b.Min.Y)}
	max = [2]float64{float64(b.Max.X), float64(b.Max.Y)}
	return min, max
}

// Insert adds a ship envelope to the index.
func (idx *ShipIndex) Insert(id entity.ShipID, envelope board.Box) {
	min, max := rect(envelope)
	idx.tree.Insert(min, max, id)
}

// Remove deletes a ship envelope from the index. The envelope must be the
// exact box the ship was inserted with.
func (idx *ShipIndex) Remove(id entity.ShipID, envelope board.Box) {
	min, max := rect(envelope)
	idx.tree.Delete(min, max, id)
}

// Len returns the number of indexed ships.
func (idx *ShipIndex) Len() int {
	return idx.tree.Len()
}

// Intersecting returns the ids of all ships whose envelope shares at least
// one tile with the query box.
func (idx *ShipIndex) Intersecting(query board.Box) []entity.ShipID {
	min, max := rect(query)
	var ids []entity.ShipID
	idx.tree.Search(min, max, func(_, _ [2]float64, value interface{}) bool {
		ids = append(ids, value.(entity.ShipID))
		return true
	})
	return ids
}

// AtPoint returns the ids of all ships covering the tile.
func (idx *ShipIndex) AtPoint(tile board.Coordinate) []entity.ShipID {
	return idx.Intersecting(board.PointBox(tile))
}
