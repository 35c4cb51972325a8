package cnext

import "fmt"

// Kind enumerates the primitive numeric kinds the type-suffixed
// numeric system supports, plus the aggregate/nominal kinds used
// throughout the symbol tables and code generator.
type Kind int

const (
	KindVoid Kind = iota
	KindBool
	KindU8
	KindI8
	KindU16
	KindI16
	KindU32
	KindI32
	KindU64
	KindI64
	KindF32
	KindF64
	KindString // bounded string<N>
	KindArray
	KindStruct
	KindEnum
	KindBitmap
	KindRegister
	KindCallback
	KindScope
	KindUnknown
)

// Type is the resolved representation of a C-Next type, produced by
// the parser for syntax and refined by the symbol collector for
// nominal references (struct/enum/bitmap/callback/scope names).
type Type struct {
	Kind Kind

	// Name holds the nominal name for Struct/Enum/Bitmap/Callback/Scope types.
	Name string

	// StringCapacity is N for string<N>; zero means unbounded `string`.
	StringCapacity int

	// Elem and Dims describe KindArray: element type plus one entry
	// per dimension (constant int, or -1 when given via macro identifier
	// stored in DimIdents).
	Elem      *Type
	Dims      []int
	DimIdents []string

	// IsParameter marks a type that decays to a pointer as a function
	// parameter (affects the §4.6 subscript classifier).
	IsParameter bool
}

// BitWidth returns the fixed bit width of a primitive integer/float
// kind, or 0 for non-primitive kinds.
func (t Type) BitWidth() int {
	switch t.Kind {
	case KindU8, KindI8:
		return 8
	case KindU16, KindI16:
		return 16
	case KindU32, KindI32, KindF32:
		return 32
	case KindU64, KindI64, KindF64:
		return 64
	case KindBool:
		return 1
	default:
		return 0
	}
}

// IsSigned reports whether the primitive integer kind is signed.
func (t Type) IsSigned() bool {
	switch t.Kind {
	case KindI8, KindI16, KindI32, KindI64:
		return true
	default:
		return false
	}
}

// IsInteger reports whether the type is a non-array fixed-width
// integer (the precondition for bit/bit-range access, §3 invariants).
func (t Type) IsInteger() bool {
	switch t.Kind {
	case KindU8, KindI8, KindU16, KindI16, KindU32, KindI32, KindU64, KindI64:
		return true
	default:
		return false
	}
}

func (t Type) IsFloat() bool {
	return t.Kind == KindF32 || t.Kind == KindF64
}

func (t Type) IsArray() bool { return t.Kind == KindArray }

func (t Type) String() string {
	switch t.Kind {
	case KindString:
		if t.StringCapacity > 0 {
			return fmt.Sprintf("string<%d>", t.StringCapacity)
		}
		return "string"
	case KindArray:
		return fmt.Sprintf("%s[]", t.Elem)
	case KindStruct, KindEnum, KindBitmap, KindCallback, KindScope, KindRegister:
		return t.Name
	default:
		return primitiveNames[t.Kind]
	}
}

var primitiveNames = map[Kind]string{
	KindVoid: "void", KindBool: "bool",
	KindU8: "u8", KindI8: "i8", KindU16: "u16", KindI16: "i16",
	KindU32: "u32", KindI32: "i32", KindU64: "u64", KindI64: "i64",
	KindF32: "f32", KindF64: "f64", KindUnknown: "<unknown>",
}

// CType maps a primitive Kind to its emitted C/C++ type name. Every
// uN/iN/fN declaration in the source maps here unconditionally,
// regardless of declaration/parameter/return/field/array-element
// position (the §8 type-suffix-mapping property).
func CType(k Kind) string {
	switch k {
	case KindVoid:
		return "void"
	case KindBool:
		return "bool"
	case KindU8:
		return "uint8_t"
	case KindI8:
		return "int8_t"
	case KindU16:
		return "uint16_t"
	case KindI16:
		return "int16_t"
	case KindU32:
		return "uint32_t"
	case KindI32:
		return "int32_t"
	case KindU64:
		return "uint64_t"
	case KindI64:
		return "int64_t"
	case KindF32:
		return "float"
	case KindF64:
		return "double"
	default:
		return ""
	}
}

// PrimitiveKindBySuffix resolves a lexer suffix token ("u8", "i32",
// "f64", ...) to its Kind. Used both by numeric literal suffixes and
// by type name parsing.
func PrimitiveKindBySuffix(s string) (Kind, bool) {
	for k, n := range primitiveNames {
		if n == s {
			return k, true
		}
	}
	return KindUnknown, false
}
