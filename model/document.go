package model

import "github.com/bytedance/sonic"

// Entities travel to and from the document store as plain field maps.
// Round-tripping through sonic keeps the document field names in lockstep
// with the json tags, so FromDocument(ToDocument(x)) reproduces x.

func toDocument(v interface{}) (map[string]interface{}, error) {
	raw, err := sonic.Marshal(v)
	if err != nil {
		return nil, err
	}

	var doc map[string]interface{}
	if err := sonic.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func fromDocument(doc map[string]interface{}, out interface{}) error {
	raw, err := sonic.Marshal(doc)
	if err != nil {
		return err
	}
	return sonic.Unmarshal(raw, out)
}

func appendUnique(dst []string, items ...string) []string {
	for _, item := range items {
		found := false
		for _, existing := range dst {
			if existing == item {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, item)
		}
	}
	return dst
}
