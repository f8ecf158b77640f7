package model

import (
	"encoding/json"
	"strconv"
)

// ValueKind tags the dynamic payload variant.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindString
	KindNumber
	KindBool
	KindMap
	KindList
)

// Value is one node of a parsed event payload. Payloads are loosely typed in
// source, so every extraction is fallible and returns an ok flag instead of
// panicking on a kind mismatch.
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
	Bool bool
	Map  Properties
	List []Value
}

// Properties is a parsed event payload map.
type Properties map[string]Value

func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = valueFromInterface(raw)
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.toInterface())
}

func valueFromInterface(raw interface{}) Value {
	switch t := raw.(type) {
	case nil:
		return Value{Kind: KindNull}
	case string:
		return Value{Kind: KindString, Str: t}
	case float64:
		return Value{Kind: KindNumber, Num: t}
	case bool:
		return Value{Kind: KindBool, Bool: t}
	case map[string]interface{}:
		m := make(Properties, len(t))
		for k, mv := range t {
			m[k] = valueFromInterface(mv)
		}
		return Value{Kind: KindMap, Map: m}
	case []interface{}:
		l := make([]Value, 0, len(t))
		for _, lv := range t {
			l = append(l, valueFromInterface(lv))
		}
		return Value{Kind: KindList, List: l}
	}
	return Value{Kind: KindNull}
}

func (v Value) toInterface() interface{} {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return v.Num
	case KindBool:
		return v.Bool
	case KindMap:
		m := make(map[string]interface{}, len(v.Map))
		for k, mv := range v.Map {
			m[k] = mv.toInterface()
		}
		return m
	case KindList:
		l := make([]interface{}, 0, len(v.List))
		for _, lv := range v.List {
			l = append(l, lv.toInterface())
		}
		return l
	}
	return nil
}

// AsNumber coerces string and bool kinds the way the source payloads need.
func (v Value) AsNumber() (float64, bool) {
	switch v.Kind {
	case KindNumber:
		return v.Num, true
	case KindString:
		f, err := strconv.ParseFloat(v.Str, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func (v Value) AsString() (string, bool) {
	if v.Kind != KindString {
		return "", false
	}
	return v.Str, true
}

func (p Properties) GetString(key string) (string, bool) {
	v, exists := p[key]
	if !exists {
		return "", false
	}
	return v.AsString()
}

func (p Properties) GetNumber(key string) (float64, bool) {
	v, exists := p[key]
	if !exists {
		return 0, false
	}
	return v.AsNumber()
}

func (p Properties) GetList(key string) ([]Value, bool) {
	v, exists := p[key]
	if !exists || v.Kind != KindList {
		return nil, false
	}
	return v.List, true
}

// priceKeys are probed in order when resolving a purchase value.
var priceKeys = []string{"price", "total", "revenue", "amount", "value"}

// GetPrice resolves the payload price as the first of the known price keys
// holding a numeric value.
func (p Properties) GetPrice() (float64, bool) {
	for _, key := range priceKeys {
		v, exists := p[key]
		if !exists {
			continue
		}
		if num, convertible := v.AsNumber(); convertible {
			return num, true
		}
		return 0, false
	}
	return 0, false
}

// SumFromItems sums a numeric key over the payload's items[] list. Used for
// quantity/price/total when the field only exists per line item.
func (p Properties) SumFromItems(key string) (float64, bool) {
	items, exists := p.GetList("items")
	if !exists || len(items) == 0 {
		return 0, false
	}
	var sum float64
	found := false
	for _, item := range items {
		if item.Kind != KindMap {
			continue
		}
		if num, isNum := item.Map.GetNumber(key); isNum {
			sum += num
			found = true
		}
	}
	return sum, found
}

// FirstFromItems returns the first non-null string value of a key over
// items[]. Used for identifiers like product_id and sku.
func (p Properties) FirstFromItems(key string) (string, bool) {
	items, exists := p.GetList("items")
	if !exists {
		return "", false
	}
	for _, item := range items {
		if item.Kind != KindMap {
			continue
		}
		if s, isStr := item.Map.GetString(key); isStr && s != "" {
			return s, true
		}
	}
	return "", false
}

// GetProductID probes product_id, item_id and sku at the top level, then
// falls back to the first identifier found under items[].
func (p Properties) GetProductID() (string, bool) {
	for _, key := range []string{"product_id", "item_id", "sku"} {
		if s, found := p.GetString(key); found && s != "" {
			return s, true
		}
	}
	for _, key := range []string{"product_id", "sku", "item_id"} {
		if s, found := p.FirstFromItems(key); found {
			return s, true
		}
	}
	return "", false
}
