package hierarchy

// membershipIndex is the reverse map object id -> owning class id.
// The registry updates it in the same step as the class member sets, so it
// always equals the inverse of the union of all members.
type membershipIndex struct {
	owners map[ObjectID]ClassID
}

func newMembershipIndex() *membershipIndex {
	return &membershipIndex{owners: make(map[ObjectID]ClassID)}
}

// owner returns the class currently owning obj.
func (m *membershipIndex) owner(obj ObjectID) (ClassID, bool) {
	id, ok := m.owners[obj]
	return id, ok
}

func (m *membershipIndex) set(obj ObjectID, id ClassID) {
	m.owners[obj] = id
}

func (m *membershipIndex) remove(obj ObjectID) {
	delete(m.owners, obj)
}

func (m *membershipIndex) len() int {
	return len(m.owners)
}

func (m *membershipIndex) copy() map[ObjectID]ClassID {
	out := make(map[ObjectID]ClassID, len(m.owners))
	for obj, id := range m.owners {
		out[obj] = id
	}
	return out
}
