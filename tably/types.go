package tably

// DataType represents a column's semantic type using bit-packed encoding.
type DataType uint32

// Type families (high 16 bits)
const (
	FamilyInteger = 0x0000_0000 // 0x0000_XXXX
	FamilyFloat   = 0x0001_0000 // 0x0001_XXXX
	FamilyString  = 0x0002_0000 // 0x0002_XXXX
	FamilyBoolean = 0x0003_0000 // 0x0003_XXXX
	FamilyFactor  = 0x0004_0000 // 0x0004_XXXX
)

// DataType constants using bit-packed encoding
const (
	Int64   DataType = FamilyInteger | 0x0001
	Float64 DataType = FamilyFloat | 0x0001
	String  DataType = FamilyString | 0x0001
	Boolean DataType = FamilyBoolean | 0x0001

	// Factor is a categorical type: string labels drawn from a fixed level set.
	Factor DataType = FamilyFactor | 0x0001
)

// Family returns the type family bits of the data type.
func (t DataType) Family() uint32 {
	return uint32(t) &^ 0xFFFF
}

// IsNumeric reports whether the type participates in arithmetic.
func (t DataType) IsNumeric() bool {
	f := t.Family()
	return f == FamilyInteger || f == FamilyFloat
}

// IsTextual reports whether values carry a string payload.
func (t DataType) IsTextual() bool {
	f := t.Family()
	return f == FamilyString || f == FamilyFactor
}

// String returns the short display name used in table headers.
func (t DataType) String() string {
	switch t {
	case Int64:
		return "i64"
	case Float64:
		return "f64"
	case String:
		return "str"
	case Boolean:
		return "bool"
	case Factor:
		return "cat"
	default:
		return "unknown"
	}
}
