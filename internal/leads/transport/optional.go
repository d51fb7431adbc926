package transport

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// OptionalDecimal distinguishes an absent field from an explicit null, which
// clears the stored value.
type OptionalDecimal struct {
	Value *decimal.Decimal
	Set   bool
}

func (o OptionalDecimal) IsZero() bool {
	return !o.Set
}

func (o *OptionalDecimal) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err == nil {
		if strings.TrimSpace(raw) == "" {
			o.Value = nil
			return nil
		}

		parsed, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return err
		}

		o.Value = &parsed
		return nil
	}

	var parsed decimal.Decimal
	if err := json.Unmarshal(data, &parsed); err != nil {
		return err
	}

	o.Value = &parsed
	return nil
}
