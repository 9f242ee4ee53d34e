package state

import "sort"

// InstanceKey is the section key of the server-wide entity.
const InstanceKey = "@instance"

// Section holds the raw counter values of one entity, keyed by metric name.
// Values are kept as text so a damaged file can still be loaded.
type Section map[string]string

// Clone returns an independent copy of the section.
func (s Section) Clone() Section {
	out := make(Section, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Snapshot is the persisted state of one probe target: section key -> Section.
type Snapshot map[string]Section

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for k, sec := range s {
		out[k] = sec.Clone()
	}
	return out
}

// Keys returns the section keys in sorted order.
func (s Snapshot) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedKeys(s Section) []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
