package objectstore

import "github.com/jacentio/classtree/internal/shard"

const (
	defaultObjectTable  = "classtree_objects"
	defaultTagAttribute = "class_tag"
	defaultTagIndex     = "class_tag_index"
)

// Config holds configuration for the Store.
type Config struct {
	// ObjectTable is the name of the objects table.
	// Default: "classtree_objects"
	ObjectTable string

	// TagAttribute is the attribute holding an object's class id.
	// Default: "class_tag"
	TagAttribute string

	// TagIndex is the GSI partitioned on tag_pk.
	// Default: "class_tag_index"
	TagIndex string

	// NumShards is the number of tag index shards per class.
	// Higher values spread tag writes for a busy class across partitions at the
	// cost of one query per shard when listing the class.
	// Default: 1 (no sharding, single query)
	// Max: 256
	NumShards int
}

// DefaultConfig returns sensible defaults for small datasets.
func DefaultConfig() Config {
	return Config{
		ObjectTable:  defaultObjectTable,
		TagAttribute: defaultTagAttribute,
		TagIndex:     defaultTagIndex,
		NumShards:    1,
	}
}

// validate ensures config values are within acceptable bounds.
func (c *Config) validate() {
	if c.ObjectTable == "" {
		c.ObjectTable = defaultObjectTable
	}
	if c.TagAttribute == "" {
		c.TagAttribute = defaultTagAttribute
	}
	if c.TagIndex == "" {
		c.TagIndex = defaultTagIndex
	}
	if c.NumShards < 1 {
		c.NumShards = 1
	}
	if c.NumShards > shard.MaxShards {
		c.NumShards = shard.MaxShards
	}
}
