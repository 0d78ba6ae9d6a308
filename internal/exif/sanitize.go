package exif

const (
	ctorKey     = "_ctor"
	rawValueKey = "rawValue"
	valueKey    = "value"
)

// SanitizeTags turns client supplied tag values into plain values exiftool
// can write. Null becomes "" (delete the tag). Serialized ExifDateTime and
// ExifDate objects collapse to their raw string. Arrays have their date
// elements unwrapped and other elements kept. Objects carrying a scalar
// "value" collapse to it. Any other object is dropped.
func SanitizeTags(tags map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(tags))
	for k, v := range tags {
		if clean, ok := sanitizeValue(v); ok {
			out[k] = clean
		}
	}
	return out
}

func sanitizeValue(v interface{}) (interface{}, bool) {
	switch val := v.(type) {
	case nil:
		return "", true
	case []interface{}:
		list := make([]interface{}, len(val))
		for i, el := range val {
			if raw, ok := dateRaw(el); ok {
				list[i] = raw
				continue
			}
			list[i] = el
		}
		return list, true
	case map[string]interface{}:
		if raw, ok := dateRaw(val); ok {
			return raw, true
		}
		if isDateObject(val) {
			return nil, false
		}
		switch scalar := val[valueKey].(type) {
		case string, float64:
			return scalar, true
		}
		return nil, false
	default:
		return v, true
	}
}

func isDateObject(m map[string]interface{}) bool {
	ctor, _ := m[ctorKey].(string)
	return ctor == "ExifDateTime" || ctor == "ExifDate"
}

// dateRaw extracts rawValue from a serialized date object.
func dateRaw(v interface{}) (interface{}, bool) {
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, false
	}
	if !isDateObject(m) {
		return nil, false
	}
	raw, ok := m[rawValueKey].(string)
	if !ok {
		return nil, false
	}
	return raw, true
}
