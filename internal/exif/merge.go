package exif

import "reflect"

// Mixed marks a tag whose value differs across a selection of images.
const Mixed = "mixed"

// MergeTags combines tag sets into one view. A key keeps its value when every
// set agrees on it (a missing key counts as null), otherwise it is Mixed.
func MergeTags(sets []map[string]interface{}) map[string]interface{} {
	merged := map[string]interface{}{}
	if len(sets) == 0 {
		return merged
	}

	keys := map[string]struct{}{}
	for _, set := range sets {
		for k := range set {
			keys[k] = struct{}{}
		}
	}

	for k := range keys {
		first := sets[0][k]
		same := true
		for _, set := range sets[1:] {
			if !reflect.DeepEqual(first, set[k]) {
				same = false
				break
			}
		}
		if same {
			merged[k] = first
		} else {
			merged[k] = Mixed
		}
	}
	return merged
}

// DropMixed removes Mixed placeholders so a batch write leaves those tags alone.
func DropMixed(tags map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(tags))
	for k, v := range tags {
		if s, ok := v.(string); ok && s == Mixed {
			continue
		}
		out[k] = v
	}
	return out
}
