package hierarchy

import "github.com/google/uuid"

// DeletePolicy decides what DeleteClass does with the deleted class's members.
type DeletePolicy int

const (
	// UnassignMembers unassigns every member and clears its external tag.
	UnassignMembers DeletePolicy = iota

	// KeepTags drops the members with the class but leaves their external
	// tags pointing at the deleted class id.
	KeepTags
)

func (p DeletePolicy) String() string {
	switch p {
	case UnassignMembers:
		return "unassign-members"
	case KeepTags:
		return "keep-tags"
	default:
		return "unknown"
	}
}

// Config holds configuration for the Registry.
type Config struct {
	// DeletePolicy controls member handling on DeleteClass.
	// Default: UnassignMembers
	DeletePolicy DeletePolicy

	// NewID generates class ids.
	// Default: uuid.New
	NewID func() uuid.UUID
}

// DefaultConfig returns the default registry configuration.
func DefaultConfig() Config {
	return Config{
		DeletePolicy: UnassignMembers,
		NewID:        uuid.New,
	}
}

// validate fills in defaults for unset or out-of-range values.
func (c *Config) validate() {
	if c.DeletePolicy != UnassignMembers && c.DeletePolicy != KeepTags {
		c.DeletePolicy = UnassignMembers
	}
	if c.NewID == nil {
		c.NewID = uuid.New
	}
}
