package client

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// Field peeking for raw response bodies. Validation code compares bodies from
// repeated reads without committing to the full DTO shape, so extraction is
// tolerant of extra fields the service may add.

// PeekFloat extracts a numeric field from a JSON body.
func PeekFloat(body []byte, path string) (float64, error) {
	if !gjson.ValidBytes(body) {
		return 0, fmt.Errorf("invalid JSON body")
	}
	v := gjson.GetBytes(body, path)
	if !v.Exists() {
		return 0, fmt.Errorf("field %q not found", path)
	}
	return v.Float(), nil
}

// CoreFields projects the identity-bearing fields of an entity body. Two
// reads of an unmutated entity must agree on this projection.
func CoreFields(body []byte, paths ...string) (map[string]string, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("invalid JSON body")
	}
	fields := make(map[string]string, len(paths))
	for _, p := range paths {
		fields[p] = gjson.GetBytes(body, p).Raw
	}
	return fields, nil
}

// SameCoreFields reports whether two bodies agree on the given fields.
func SameCoreFields(a, b []byte, paths ...string) bool {
	fa, err := CoreFields(a, paths...)
	if err != nil {
		return false
	}
	fb, err := CoreFields(b, paths...)
	if err != nil {
		return false
	}
	for _, p := range paths {
		if fa[p] != fb[p] {
			return false
		}
	}
	return true
}
