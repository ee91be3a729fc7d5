package openai

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var errNotObject = errors.New("openai: prune input is not a JSON object")

// PruneEmptyFields removes every top-level field of a JSON object whose value
// is null or an empty array. Zero numbers, false, empty strings and empty
// objects are kept. Pruning an already pruned object returns it unchanged.
func PruneEmptyFields(data []byte) ([]byte, error) {
	if !gjson.ValidBytes(data) {
		return nil, errNotObject
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, errNotObject
	}

	var empty []string
	root.ForEach(func(key, value gjson.Result) bool {
		switch {
		case value.Type == gjson.Null:
			empty = append(empty, key.String())
		case value.IsArray() && len(value.Array()) == 0:
			empty = append(empty, key.String())
		}
		return true
	})
	if len(empty) == 0 {
		return data, nil
	}

	out := data
	for _, key := range empty {
		var err error
		out, err = sjson.DeleteBytes(out, escapePathKey(key))
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// escapePathKey escapes the characters sjson treats as path syntax.
func escapePathKey(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
