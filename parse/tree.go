package parse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/spkg/bom"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Documents are decoded into a generic tree that keeps object keys
// in declaration order. Leaves are string, json.Number, bool or nil.

type member struct {
	key   string
	value interface{}
}

type object []member

// Looks up the first of keys present in the object. Later
// duplicates of a key win.
func (o object) get(keys ...string) (interface{}, bool) {
	for _, key := range keys {
		var value interface{}
		found := false
		for _, m := range o {
			if m.key == key {
				value = m.value
				found = true
			}
		}
		if found {
			return value, true
		}
	}
	return nil, false
}

// Same as get, but skips keys holding null.
func (o object) lookup(keys ...string) (interface{}, bool) {
	for _, key := range keys {
		if v, found := o.get(key); found && v != nil {
			return v, true
		}
	}
	return nil, false
}

func decodeTree(buf []byte) (interface{}, error) {
	buf = bom.Clean(buf)
	if len(bytes.TrimSpace(buf)) == 0 {
		return nil, fmt.Errorf("empty document")
	}

	// jsonc turns comments and trailing commas into whitespace.
	// Anything still not JSON after that is given to the YAML
	// decoder.
	cleaned := jsonc.ToJSON(buf)
	if json.Valid(cleaned) {
		dec := json.NewDecoder(bytes.NewReader(cleaned))
		dec.UseNumber()
		tree, err := decodeJSON(dec)
		if err != nil {
			return nil, errors.Wrap(err, "decoding json")
		}
		return tree, nil
	}

	var node yaml.Node
	if err := yaml.Unmarshal(buf, &node); err != nil {
		return nil, errors.Wrap(err, "decoding yaml")
	}
	tree, err := fromYAML(&node)
	if err != nil {
		return nil, errors.Wrap(err, "decoding yaml")
	}
	return tree, nil
}

func decodeJSON(dec *json.Decoder) (interface{}, error) {
	tok, err := dec.Token()
	if err == io.EOF {
		return nil, fmt.Errorf("unexpected end of document")
	}
	if err != nil {
		return nil, err
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}

	switch delim {
	case '{':
		obj := object{}
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("non-string key %v", keyTok)
			}
			value, err := decodeJSON(dec)
			if err != nil {
				return nil, errors.Wrapf(err, "key '%s'", key)
			}
			obj = append(obj, member{key, value})
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return obj, nil

	case '[':
		arr := []interface{}{}
		for dec.More() {
			value, err := decodeJSON(dec)
			if err != nil {
				return nil, errors.Wrapf(err, "index %d", len(arr))
			}
			arr = append(arr, value)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return arr, nil
	}

	return nil, fmt.Errorf("unexpected delimiter '%s'", delim)
}

func fromYAML(n *yaml.Node) (interface{}, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return fromYAML(n.Content[0])

	case yaml.AliasNode:
		return fromYAML(n.Alias)

	case yaml.MappingNode:
		obj := object{}
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i].Value
			value, err := fromYAML(n.Content[i+1])
			if err != nil {
				return nil, errors.Wrapf(err, "key '%s'", key)
			}
			obj = append(obj, member{key, value})
		}
		return obj, nil

	case yaml.SequenceNode:
		arr := make([]interface{}, 0, len(n.Content))
		for i, item := range n.Content {
			value, err := fromYAML(item)
			if err != nil {
				return nil, errors.Wrapf(err, "index %d", i)
			}
			arr = append(arr, value)
		}
		return arr, nil

	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!null":
			return nil, nil
		case "!!bool":
			var b bool
			if err := n.Decode(&b); err != nil {
				return nil, err
			}
			return b, nil
		case "!!int", "!!float":
			return json.Number(n.Value), nil
		}
		return n.Value, nil
	}

	return nil, fmt.Errorf("unsupported yaml node at line %d", n.Line)
}

// Renders a scalar leaf as text. Objects and arrays are not
// scalars.
func scalarString(v interface{}) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case json.Number:
		return s.String(), true
	case bool:
		if s {
			return "true", true
		}
		return "false", true
	}
	return "", false
}
