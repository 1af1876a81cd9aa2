package ingest

import (
	"fmt"

	"github.com/google/uuid"
)

// pointNamespace is the UUIDv5 namespace for embedding-point identifiers.
// Never change it: point IDs must stay stable across re-ingests so the same
// (item, section, part) always overwrites its own point.
var pointNamespace = uuid.MustParse("5cf1a4a8-1b5e-4f4e-9b7a-3f8d2c6e0a91")

// PointID derives the deterministic vector-index identifier for a chunk from
// its natural key.
func PointID(itemSeq, section string, partIdx int) string {
	name := fmt.Sprintf("%s:%s:%d", itemSeq, section, partIdx)
	return uuid.NewSHA1(pointNamespace, []byte(name)).String()
}
