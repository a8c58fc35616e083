package model

import (
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// Document is an already-materialized document: its key path
// ("collection/id", possibly nested) and its field data.
type Document struct {
	Key  string
	Data map[string]any
}

func NewDocument(key string, data map[string]any) *Document {
	if data == nil {
		data = map[string]any{}
	}
	return &Document{Key: key, Data: data}
}

// DocumentFromStruct decodes a struct (honouring `mapstructure` tags) into
// document data.
func DocumentFromStruct(key string, v any) (*Document, error) {
	data := map[string]any{}
	if err := mapstructure.Decode(v, &data); err != nil {
		return nil, errors.Wrapf(err, "cannot decode %T into document %q", v, key)
	}
	return NewDocument(key, data), nil
}

// Field resolves path through nested string-keyed maps. The key field resolves to Key.
func (d *Document) Field(path FieldPath) (any, bool) {
	if path.IsKeyField() {
		return d.Key, true
	}
	if path.IsEmpty() {
		return nil, false
	}
	var current any = d.Data
	for _, segment := range path.segments {
		m, ok := AsMap(current)
		if !ok {
			return nil, false
		}
		current, ok = m[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Collection returns the parent path of the key: "users" for "users/u1".
func (d *Document) Collection() string {
	i := strings.LastIndexByte(d.Key, '/')
	if i < 0 {
		return ""
	}
	return d.Key[:i]
}

// ID returns the last segment of the key.
func (d *Document) ID() string {
	return d.Key[strings.LastIndexByte(d.Key, '/')+1:]
}
