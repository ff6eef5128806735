package valueobjects

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// RootSentinel marks the terminal topic of a decomposition: the topic the
// learner ultimately wants to reach.
const RootSentinel = "ROOT"

// PrerequisiteEntry says Prerequisite must be learned before Dependent.
type PrerequisiteEntry struct {
	Prerequisite string
	Dependent    string
}

// IsRoot reports whether the entry only declares the terminal topic.
func (e PrerequisiteEntry) IsRoot() bool {
	return strings.TrimSpace(e.Dependent) == RootSentinel
}

// PrerequisiteMap is the "prerequisite -> dependent" object produced by topic
// decomposition. It keeps the order in which keys appeared in the source
// document, which drives topic creation and edge discovery order.
type PrerequisiteMap struct {
	entries []PrerequisiteEntry
}

// NewPrerequisiteMap builds a map from entries in order. A repeated
// prerequisite replaces the earlier dependent but keeps its position.
func NewPrerequisiteMap(entries ...PrerequisiteEntry) PrerequisiteMap {
	var m PrerequisiteMap
	for _, e := range entries {
		m.set(e.Prerequisite, e.Dependent)
	}
	return m
}

func (m *PrerequisiteMap) set(prereq, dependent string) {
	for i := range m.entries {
		if m.entries[i].Prerequisite == prereq {
			m.entries[i].Dependent = dependent
			return
		}
	}
	m.entries = append(m.entries, PrerequisiteEntry{Prerequisite: prereq, Dependent: dependent})
}

// Entries returns a copy of the entries in document order
func (m PrerequisiteMap) Entries() []PrerequisiteEntry {
	out := make([]PrerequisiteEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Len returns the number of entries
func (m PrerequisiteMap) Len() int { return len(m.entries) }

// UnmarshalJSON decodes a JSON object preserving key order. A value may be a
// string or an array of strings; an array expands into one entry per element.
func (m *PrerequisiteMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("prerequisite map must be a JSON object")
	}

	m.entries = nil
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("prerequisite map key must be a string")
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}

		var single string
		if err := json.Unmarshal(raw, &single); err == nil {
			m.set(key, single)
			continue
		}
		var many []string
		if err := json.Unmarshal(raw, &many); err != nil {
			return fmt.Errorf("prerequisite %q: value must be a string or list of strings", key)
		}
		for _, dependent := range many {
			m.entries = append(m.entries, PrerequisiteEntry{Prerequisite: key, Dependent: dependent})
		}
	}

	_, err = dec.Token()
	return err
}

// MarshalJSON encodes the map as a JSON object in entry order. Repeated
// prerequisites from array values are collapsed back into arrays.
func (m PrerequisiteMap) MarshalJSON() ([]byte, error) {
	order := make([]string, 0, len(m.entries))
	grouped := make(map[string][]string, len(m.entries))
	for _, e := range m.entries {
		if _, seen := grouped[e.Prerequisite]; !seen {
			order = append(order, e.Prerequisite)
		}
		grouped[e.Prerequisite] = append(grouped[e.Prerequisite], e.Dependent)
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range order {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')

		var v []byte
		if deps := grouped[key]; len(deps) == 1 {
			v, err = json.Marshal(deps[0])
		} else {
			v, err = json.Marshal(deps)
		}
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
