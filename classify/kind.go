package classify

// Kind is the normalized classification of a runtime type. It determines the
// traversal strategy the engine picks for a value: scalar kinds are validated
// in place, Object and Map recurse into fields, array variants recurse per
// element.
type Kind uint8

const (
	Any Kind = iota
	Bool
	Byte
	Char
	String
	Numeric
	Decimal
	Date
	Time
	DateTime
	Enum
	Object
	Map
)

// arrayOffset separates scalar kinds from their array variants. ArrayOfArray
// is its own kind because nested arrays need one more level of recursion.
const arrayOffset Kind = 16

const (
	ArrayOfAny      = Any + arrayOffset
	ArrayOfBool     = Bool + arrayOffset
	ArrayOfByte     = Byte + arrayOffset
	ArrayOfChar     = Char + arrayOffset
	ArrayOfString   = String + arrayOffset
	ArrayOfNumeric  = Numeric + arrayOffset
	ArrayOfDecimal  = Decimal + arrayOffset
	ArrayOfDate     = Date + arrayOffset
	ArrayOfTime     = Time + arrayOffset
	ArrayOfDateTime = DateTime + arrayOffset
	ArrayOfEnum     = Enum + arrayOffset
	ArrayOfObject   = Object + arrayOffset
	ArrayOfMap      = Map + arrayOffset
	ArrayOfArray    = arrayOffset + arrayOffset
)

// IsArray reports whether k is an array variant (including ArrayOfArray).
func (k Kind) IsArray() bool { return k >= arrayOffset }

// Base returns the element kind of an array variant. For ArrayOfArray it
// returns ArrayOfAny because the concrete element kind lives in the element
// descriptor, not in the kind itself. Non-array kinds return themselves.
func (k Kind) Base() Kind {
	switch {
	case k == ArrayOfArray:
		return ArrayOfAny
	case k.IsArray():
		return k - arrayOffset
	default:
		return k
	}
}

// ArrayOf returns the array variant of k. The array of any array kind is
// ArrayOfArray.
func ArrayOf(k Kind) Kind {
	if k.IsArray() {
		return ArrayOfArray
	}
	return k + arrayOffset
}

// IsNumericFamily reports whether k is one of the kinds a numeric validator
// can consume after widening (ints, bytes, chars, floats, big decimals).
func (k Kind) IsNumericFamily() bool {
	switch k {
	case Numeric, Decimal, Byte, Char:
		return true
	}
	return false
}

var kindNames = map[Kind]string{
	Any:      "any",
	Bool:     "bool",
	Byte:     "byte",
	Char:     "char",
	String:   "string",
	Numeric:  "numeric",
	Decimal:  "decimal",
	Date:     "date",
	Time:     "time",
	DateTime: "datetime",
	Enum:     "enum",
	Object:   "object",
	Map:      "map",
}

func (k Kind) String() string {
	if k == ArrayOfArray {
		return "array-of-array"
	}
	if k.IsArray() {
		return "array-of-" + (k - arrayOffset).String()
	}
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "any"
}
