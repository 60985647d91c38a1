package models

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cast"
)

// Number decodes from a JSON number or a numeric string. The dispatch server
// renders SQL DECIMAL columns as strings, so both shapes show up on the wire.
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var raw interface{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	f, err := cast.ToFloat64E(raw)
	if err != nil {
		return fmt.Errorf("models: decode number %s: %w", string(b), err)
	}
	*n = Number(f)
	return nil
}

func (n Number) Float64() float64 { return float64(n) }

// String prints the shortest representation, so 3.2 stays "3.2" and 6 stays "6".
func (n Number) String() string {
	return strconv.FormatFloat(float64(n), 'f', -1, 64)
}

// NumberPtr is a small helper for optional numeric fields.
func NumberPtr(f float64) *Number {
	n := Number(f)
	return &n
}
