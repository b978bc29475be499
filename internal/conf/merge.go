package conf

import (
	"fmt"
	"reflect"
)

// ConflictNote records that a layer supplied a key that an earlier layer had
// already set. Rejected is true when the earlier entry was not overridable
// and kept its value.
type ConflictNote struct {
	Key       string
	OldOrigin SourceTag
	NewOrigin SourceTag
	Rejected  bool
}

func (n ConflictNote) String() string {
	if n.Rejected {
		return fmt.Sprintf("%s: %s value kept, %s value rejected", n.Key, n.OldOrigin, n.NewOrigin)
	}
	return fmt.Sprintf("%s: %s value replaced by %s", n.Key, n.OldOrigin, n.NewOrigin)
}

// Merge combines layers, ordered from lowest to highest precedence, into a
// single map.
//
// A key seen for the first time is inserted as is. A key already present is
// replaced when the present entry is overridable, otherwise the incoming
// value is dropped; either way a ConflictNote is appended. An incoming value
// equal to the present one is not noted. It still replaces an overridable
// entry, so a layer can lock a key at the value it already has.
//
// The result depends only on the layers: keys keep the order in which they
// were first inserted.
func Merge(layers ...ConfigMap) (ConfigMap, []ConflictNote) {
	var (
		merged ConfigMap
		notes  []ConflictNote
	)
	for _, layer := range layers {
		for _, incoming := range layer.Entries() {
			current, ok := merged.Get(incoming.Key)
			if !ok {
				merged.Set(incoming)
				continue
			}
			if reflect.DeepEqual(current.Value, incoming.Value) {
				if current.Overridable {
					merged.Set(incoming)
				}
				continue
			}
			note := ConflictNote{
				Key:       incoming.Key,
				OldOrigin: current.Origin,
				NewOrigin: incoming.Origin,
			}
			if current.Overridable {
				merged.Set(incoming)
			} else {
				note.Rejected = true
			}
			notes = append(notes, note)
		}
	}
	return merged, notes
}
