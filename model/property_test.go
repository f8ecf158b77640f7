package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func parseProps(t *testing.T, raw string) Properties {
	var props Properties
	err := json.Unmarshal([]byte(raw), &props)
	assert.Nil(t, err)
	return props
}

func TestPropertiesUnmarshalKinds(t *testing.T) {
	props := parseProps(t, `{"s":"hello","n":4.5,"b":true,"z":null,"m":{"k":1},"l":[1,"two"]}`)

	s, found := props.GetString("s")
	assert.True(t, found)
	assert.Equal(t, "hello", s)

	n, found := props.GetNumber("n")
	assert.True(t, found)
	assert.Equal(t, 4.5, n)

	assert.Equal(t, KindBool, props["b"].Kind)
	assert.Equal(t, KindNull, props["z"].Kind)
	assert.Equal(t, KindMap, props["m"].Kind)
	assert.Equal(t, KindList, props["l"].Kind)
}

func TestPropertiesExtractionIsFallible(t *testing.T) {
	props := parseProps(t, `{"price":"not_a_number","name":42}`)

	// Type mismatch returns not-found, never panics.
	_, found := props.GetString("name")
	assert.False(t, found)

	_, found = props.GetNumber("price")
	assert.False(t, found)

	_, found = props.GetNumber("missing")
	assert.False(t, found)
}

func TestGetNumberCoercesNumericStrings(t *testing.T) {
	props := parseProps(t, `{"quantity":"3"}`)
	n, found := props.GetNumber("quantity")
	assert.True(t, found)
	assert.Equal(t, 3.0, n)
}

func TestGetPriceKeyOrder(t *testing.T) {
	props := parseProps(t, `{"revenue":10,"price":25.5,"amount":1}`)
	price, found := props.GetPrice()
	assert.True(t, found)
	assert.Equal(t, 25.5, price)

	// First probed key wins even when a later one would parse.
	props = parseProps(t, `{"total":99,"value":1}`)
	price, found = props.GetPrice()
	assert.True(t, found)
	assert.Equal(t, 99.0, price)

	_, found = parseProps(t, `{"note":"no price here"}`).GetPrice()
	assert.False(t, found)
}

func TestSumFromItems(t *testing.T) {
	props := parseProps(t, `{"items":[{"quantity":2},{"quantity":3},{"sku":"x"}]}`)
	sum, found := props.SumFromItems("quantity")
	assert.True(t, found)
	assert.Equal(t, 5.0, sum)

	_, found = props.SumFromItems("price")
	assert.False(t, found)

	_, found = parseProps(t, `{"items":[]}`).SumFromItems("quantity")
	assert.False(t, found)
}

func TestGetProductIDFallbacks(t *testing.T) {
	props := parseProps(t, `{"product_id":"P1","sku":"S1"}`)
	id, found := props.GetProductID()
	assert.True(t, found)
	assert.Equal(t, "P1", id)

	props = parseProps(t, `{"items":[{"price":5},{"sku":"S2"}]}`)
	id, found = props.GetProductID()
	assert.True(t, found)
	assert.Equal(t, "S2", id)

	_, found = parseProps(t, `{}`).GetProductID()
	assert.False(t, found)
}
