// Copyright (c) The Gitmesh Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package jsontag encodes and inspects tagged JSON unions: objects
// carrying a "type" discriminant alongside the variant's own fields.
package jsontag

import (
	"encoding/json"
	"fmt"
)

// Marshal encodes v as a JSON object with a leading "type" field set
// to kind. v must encode to a JSON object, and must not itself carry
// a "type" field.
func Marshal(kind string, v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if len(b) < 2 || b[0] != '{' {
		return nil, fmt.Errorf("jsontag: %T encodes to %q, not an object", v, b)
	}
	tag, err := json.Marshal(struct {
		Type string `json:"type"`
	}{kind})
	if err != nil {
		return nil, err
	}
	if len(b) == 2 { // no fields beyond the tag
		return tag, nil
	}
	out := append(tag[:len(tag)-1], ',')
	return append(out, b[1:]...), nil
}

// Kind returns the "type" discriminant of a tagged JSON object.
func Kind(data []byte) (string, error) {
	var tag struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return "", err
	}
	if tag.Type == "" {
		return "", fmt.Errorf("jsontag: missing type discriminant")
	}
	return tag.Type, nil
}
