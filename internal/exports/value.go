package exports

import "github.com/shopspring/decimal"

type valueKind int

const (
	kindText valueKind = iota
	kindNumber
	kindBool
)

// Value is one typed export cell.
type Value struct {
	kind    valueKind
	text    string
	number  decimal.Decimal
	boolean bool
}

func Text(s string) Value            { return Value{kind: kindText, text: s} }
func Number(d decimal.Decimal) Value { return Value{kind: kindNumber, number: d} }
func Bool(b bool) Value              { return Value{kind: kindBool, boolean: b} }

// String renders the canonical text: decimals without exponent and booleans
// as Yes/No.
func (v Value) String() string {
	switch v.kind {
	case kindNumber:
		return v.number.String()
	case kindBool:
		if v.boolean {
			return "Yes"
		}
		return "No"
	default:
		return v.text
	}
}
