package models

import (
	"encoding/json"
	"testing"
)

func TestParseMappings(t *testing.T) {
	t.Run("Modern List", func(t *testing.T) {
		blob := `[{"id":"act-1","name":"Checking","arrangementIds":["arr-1","arr-2"]}]`
		mappings := ParseMappings(blob)

		if len(mappings) != 1 {
			t.Fatalf("expected 1 mapping, got %d", len(mappings))
		}
		if mappings[0].ActualID != "act-1" {
			t.Errorf("expected actual id 'act-1', got %s", mappings[0].ActualID)
		}
		if mappings[0].Name != "Checking" {
			t.Errorf("expected name 'Checking', got %s", mappings[0].Name)
		}
		if len(mappings[0].ArrangementIDs) != 2 {
			t.Errorf("expected 2 arrangement ids, got %d", len(mappings[0].ArrangementIDs))
		}
	})

	t.Run("Legacy Dictionary", func(t *testing.T) {
		blob := `{"arr-b":"act-2","arr-a":"act-1"}`
		mappings := ParseMappings(blob)

		if len(mappings) != 2 {
			t.Fatalf("expected 2 mappings, got %d", len(mappings))
		}
		// Migration sorts by arrangement id.
		if mappings[0].ArrangementIDs[0] != "arr-a" || mappings[1].ArrangementIDs[0] != "arr-b" {
			t.Errorf("expected entries sorted by arrangement id, got %v then %v",
				mappings[0].ArrangementIDs, mappings[1].ArrangementIDs)
		}
		if mappings[0].ActualID != "act-1" {
			t.Errorf("expected actual id 'act-1', got %s", mappings[0].ActualID)
		}
		for _, m := range mappings {
			if m.Name != LegacyMappingName {
				t.Errorf("expected migrated name %q, got %q", LegacyMappingName, m.Name)
			}
			if len(m.ArrangementIDs) != 1 {
				t.Errorf("expected one arrangement id per migrated entry, got %d", len(m.ArrangementIDs))
			}
		}
	})

	t.Run("Empty Blob", func(t *testing.T) {
		mappings := ParseMappings("")
		if mappings == nil || len(mappings) != 0 {
			t.Errorf("expected empty list, got %v", mappings)
		}
	})

	t.Run("Garbage Blob", func(t *testing.T) {
		for _, blob := range []string{"not json at all", `42`, `"just a string"`} {
			mappings := ParseMappings(blob)
			if mappings == nil || len(mappings) != 0 {
				t.Errorf("blob %q: expected empty list, got %v", blob, mappings)
			}
		}
	})

	t.Run("Null JSON", func(t *testing.T) {
		mappings := ParseMappings("null")
		if mappings == nil || len(mappings) != 0 {
			t.Errorf("expected empty list for null, got %v", mappings)
		}
	})
}

func TestSerializeMappings(t *testing.T) {
	t.Run("Legacy Input Serializes As Modern", func(t *testing.T) {
		mappings := ParseMappings(`{"arr-1":"act-1"}`)
		blob := SerializeMappings(mappings)

		var roundTrip []AccountMapping
		if err := json.Unmarshal([]byte(blob), &roundTrip); err != nil {
			t.Fatalf("expected modern list encoding, got %s", blob)
		}
		if len(roundTrip) != 1 || roundTrip[0].Name != LegacyMappingName {
			t.Errorf("expected migrated entry to survive serialization, got %v", roundTrip)
		}
	})

	t.Run("Nil Input", func(t *testing.T) {
		if blob := SerializeMappings(nil); blob != "[]" {
			t.Errorf("expected '[]', got %s", blob)
		}
	})
}

func TestMappingList(t *testing.T) {
	t.Run("Add", func(t *testing.T) {
		list := MappingList{}
		idx := list.Add()

		if idx != 0 {
			t.Errorf("expected index 0, got %d", idx)
		}
		if list[0].Name != "New Account" {
			t.Errorf("expected placeholder name, got %s", list[0].Name)
		}
		if list[0].ArrangementIDs == nil {
			t.Error("expected empty arrangement list, got nil")
		}
	})

	t.Run("Remove", func(t *testing.T) {
		list := MappingList{
			{ActualID: "a"}, {ActualID: "b"}, {ActualID: "c"},
		}
		list.Remove(1)

		if len(list) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(list))
		}
		if list[0].ActualID != "a" || list[1].ActualID != "c" {
			t.Errorf("expected [a c], got %v", list)
		}
	})

	t.Run("Remove Out Of Range", func(t *testing.T) {
		list := MappingList{{ActualID: "a"}}
		list.Remove(5)
		list.Remove(-1)
		if len(list) != 1 {
			t.Errorf("expected out-of-range removes to be ignored, got %v", list)
		}
	})

	t.Run("Setters", func(t *testing.T) {
		list := MappingList{{}}
		list.SetName(0, "Savings")
		list.SetActualID(0, "act-9")
		list.SetArrangementIDs(0, []string{"arr-9"})

		if list[0].Name != "Savings" || list[0].ActualID != "act-9" || list[0].ArrangementIDs[0] != "arr-9" {
			t.Errorf("expected setters to apply, got %+v", list[0])
		}

		// Out of range is a no-op.
		list.SetName(3, "nope")
	})
}
