package models

import "encoding/json"

// marshalWithExtra encodes v and appends the members of extra that v does not
// define itself.
func marshalWithExtra(v interface{}, extra map[string]json.RawMessage) ([]byte, error) {
	base, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return base, err
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for k, raw := range extra {
		if _, ok := merged[k]; !ok {
			merged[k] = raw
		}
	}
	return json.Marshal(merged)
}

// splitExtra returns the members of the object in data that are not listed
// in known, plus the set of members that were present.
func splitExtra(data []byte, known []string) (map[string]json.RawMessage, map[string]bool, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, nil, err
	}
	present := make(map[string]bool, len(all))
	for k := range all {
		present[k] = true
	}
	for _, k := range known {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, present, nil
	}
	return all, present, nil
}
