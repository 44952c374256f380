// Package shard provides shard key generation for the class tag index.
package shard

import (
	"fmt"
	"hash/fnv"
)

// MaxShards is the largest supported shard count; shard suffixes are two hex digits.
const MaxShards = 256

// ClassRef returns the tag index prefix for a class id.
func ClassRef(classID string) string {
	return "class#" + classID
}

// TagPK computes the sharded tag index partition key for an object tagged
// with classRef.
// With numShards=1, all objects of a class go to shard "00".
// With numShards>1, objects are distributed across shards based on objectID hash.
func TagPK(classRef, objectID string, numShards int) string {
	numShards = clamp(numShards)
	if numShards == 1 {
		return fmt.Sprintf("%s#00", classRef)
	}
	h := fnv.New32a()
	h.Write([]byte(objectID))
	shard := h.Sum32() % uint32(numShards)
	return fmt.Sprintf("%s#%02x", classRef, shard)
}

// ShardPKs returns every partition key a class's objects can live under,
// in shard order.
func ShardPKs(classRef string, numShards int) []string {
	numShards = clamp(numShards)
	pks := make([]string, numShards)
	for i := range numShards {
		pks[i] = fmt.Sprintf("%s#%02x", classRef, i)
	}
	return pks
}

func clamp(numShards int) int {
	return max(1, min(numShards, MaxShards))
}
