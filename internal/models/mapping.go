package models

import (
	"encoding/json"
	"sort"
)

// LegacyMappingName is the placeholder display name given to entries migrated
// from the legacy flat-dictionary encoding.
const LegacyMappingName = "Legacy Import"

// AccountMapping links one Actual Budget account to the bank arrangement ids
// whose transactions feed it.
type AccountMapping struct {
	ActualID       string   `json:"id"`
	Name           string   `json:"name"`
	ArrangementIDs []string `json:"arrangementIds"`
}

// ParseMappings decodes a persisted accounts_mapping blob.
//
// Two encodings exist in the wild: the modern list form, accepted as-is, and
// a legacy flat dictionary of arrangement id to Actual account id, which is
// migrated to list entries with a placeholder name. Legacy entries come out
// sorted by arrangement id so migration is deterministic. Anything that
// decodes as neither yields an empty list; the rest of the settings must stay
// usable even when the blob is garbage.
func ParseMappings(blob string) []AccountMapping {
	if blob == "" {
		return []AccountMapping{}
	}

	var modern []AccountMapping
	if err := json.Unmarshal([]byte(blob), &modern); err == nil {
		if modern == nil {
			return []AccountMapping{}
		}
		return modern
	}

	var legacy map[string]string
	if err := json.Unmarshal([]byte(blob), &legacy); err != nil {
		return []AccountMapping{}
	}

	arrangementIDs := make([]string, 0, len(legacy))
	for id := range legacy {
		arrangementIDs = append(arrangementIDs, id)
	}
	sort.Strings(arrangementIDs)

	mappings := make([]AccountMapping, 0, len(legacy))
	for _, arrangementID := range arrangementIDs {
		mappings = append(mappings, AccountMapping{
			ActualID:       legacy[arrangementID],
			Name:           LegacyMappingName,
			ArrangementIDs: []string{arrangementID},
		})
	}
	return mappings
}

// SerializeMappings encodes mappings in the modern list form. Legacy input is
// never re-emitted; serialization is a one-way normalization.
func SerializeMappings(mappings []AccountMapping) string {
	if mappings == nil {
		mappings = []AccountMapping{}
	}
	data, err := json.Marshal(mappings)
	if err != nil {
		// Only unmarshalable types can fail here and AccountMapping has none.
		return "[]"
	}
	return string(data)
}

// MappingList is an editable, in-memory sequence of mappings. Mutations do
// not persist anything; the settings save writes the whole blob at once.
type MappingList []AccountMapping

// Add appends a blank entry and returns its index.
func (l *MappingList) Add() int {
	*l = append(*l, AccountMapping{Name: "New Account", ArrangementIDs: []string{}})
	return len(*l) - 1
}

// Remove deletes the entry at index i. Out-of-range indexes are ignored.
func (l *MappingList) Remove(i int) {
	if i < 0 || i >= len(*l) {
		return
	}
	*l = append((*l)[:i], (*l)[i+1:]...)
}

// SetName updates the display name of the entry at index i.
func (l MappingList) SetName(i int, name string) {
	if i < 0 || i >= len(l) {
		return
	}
	l[i].Name = name
}

// SetActualID updates the Actual account id of the entry at index i.
func (l MappingList) SetActualID(i int, id string) {
	if i < 0 || i >= len(l) {
		return
	}
	l[i].ActualID = id
}

// SetArrangementIDs replaces the arrangement ids of the entry at index i.
func (l MappingList) SetArrangementIDs(i int, ids []string) {
	if i < 0 || i >= len(l) {
		return
	}
	l[i].ArrangementIDs = ids
}
