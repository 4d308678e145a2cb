package vectorstore

import (
	"fmt"
	"hash/fnv"
)

// maxPointID bounds derived identifiers to the positive int32 range accepted
// by every supported backend's numeric id space.
const maxPointID = 1<<31 - 1

// pointID derives a backend vector identifier from a pipeline-assigned record
// id. The derivation is a stable FNV-1a hash reduced into [1, 2^31-1]:
// deterministic for identical input ids, always strictly positive.
func pointID(id string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return h.Sum32()%maxPointID + 1
}

// pointUUID renders the derived identifier in UUID form for backends whose
// id space requires it (Weaviate). Deterministic for identical input ids.
func pointUUID(id string) string {
	return fmt.Sprintf("00000000-0000-4000-8000-%012x", pointID(id))
}
