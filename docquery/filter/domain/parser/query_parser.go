package parser

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/pkg/errors"

	filter "github.com/krew-solutions/ascetic-docquery-go/docquery/filter/domain"
	"github.com/krew-solutions/ascetic-docquery-go/docquery/filter/domain/model"
)

const operatorPrefix = "$"

// QueryParser parses the map query language into a filter tree:
//
//	{"age": {"$gte": 18}, "$or": [{"status": "active"}, {"vip": true}]}
//
// Keys are visited in sorted order so equal maps always produce the same
// tree and canonical id. Several top-level terms form a conjunction.
type QueryParser struct{}

func (p QueryParser) Parse(query map[string]any) (filter.Filter, error) {
	terms, err := p.parseTerms(query)
	if err != nil {
		return nil, err
	}
	if len(terms) == 1 {
		return terms[0], nil
	}
	return filter.NewAnd(terms...), nil
}

func (p QueryParser) parseTerms(query map[string]any) ([]filter.Filter, error) {
	keys := sortedKeys(query)
	terms := make([]filter.Filter, 0, len(keys))
	for _, key := range keys {
		value := query[key]
		if strings.HasPrefix(key, operatorPrefix) {
			term, err := p.parseLogical(key, value)
			if err != nil {
				return nil, err
			}
			terms = append(terms, term)
			continue
		}
		leaves, err := p.parseField(key, value)
		if err != nil {
			return nil, err
		}
		terms = append(terms, leaves...)
	}
	return terms, nil
}

func (p QueryParser) parseLogical(key string, value any) (filter.Filter, error) {
	var op filter.CompositeOperator
	switch key {
	case "$and":
		op = filter.And
	case "$or":
		op = filter.Or
	default:
		return nil, errors.Wrapf(ErrInvalidQuery, "unknown logical operator %s", key)
	}
	list, ok := value.([]any)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidQuery, "value for %s must be a list, got %T", key, value)
	}
	children := make([]filter.Filter, 0, len(list))
	for i, item := range list {
		sub, ok := item.(map[string]any)
		if !ok {
			return nil, errors.Wrapf(ErrInvalidQuery, "element %d of %s must be an object, got %T", i, key, item)
		}
		child, err := p.Parse(sub)
		if err != nil {
			return nil, errors.WithMessagef(err, "%s[%d]", key, i)
		}
		children = append(children, child)
	}
	return filter.NewCompositeFilter(children, op), nil
}

func (p QueryParser) parseField(key string, value any) ([]filter.Filter, error) {
	path := model.ParseFieldPath(key)
	ops, ok := value.(map[string]any)
	if !ok || !isOperatorMap(ops) {
		return []filter.Filter{filter.NewFieldFilter(path, filter.OperatorEqual, value)}, nil
	}
	if len(ops) == 0 {
		return nil, errors.Wrapf(ErrInvalidQuery, "field %q has an empty operator object", key)
	}
	leaves := make([]filter.Filter, 0, len(ops))
	for _, opKey := range sortedKeys(ops) {
		op, known := filter.OperatorFromQueryKey(opKey)
		if !known {
			return nil, errors.Wrapf(ErrInvalidQuery, "unknown operator %s on field %q", opKey, key)
		}
		opValue := ops[opKey]
		if op.IsDisjunctive() {
			if _, isList := opValue.([]any); !isList {
				return nil, errors.Wrapf(ErrInvalidQuery, "%s value on field %q must be a list, got %T", opKey, key, opValue)
			}
		}
		leaves = append(leaves, filter.NewFieldFilter(path, op, opValue))
	}
	return leaves, nil
}

// isOperatorMap is true for {} and for maps whose keys all start with "$".
// A map mixing operators and plain keys is treated as an equality value.
func isOperatorMap(m map[string]any) bool {
	for k := range m {
		if !strings.HasPrefix(k, operatorPrefix) {
			return false
		}
	}
	return true
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Parse parses a map query.
func Parse(query map[string]any) (filter.Filter, error) {
	return QueryParser{}.Parse(query)
}

// ParseJSON decodes a JSON object and parses it as a map query.
func ParseJSON(data []byte) (filter.Filter, error) {
	var query map[string]any
	if err := json.Unmarshal(data, &query); err != nil {
		return nil, errors.Wrap(ErrInvalidQuery, err.Error())
	}
	return Parse(query)
}
