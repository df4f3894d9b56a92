package arraylit

import (
	"fmt"
	"math"
	"math/big"
	"strconv"

	"golang.org/x/exp/constraints"
)

type class int

const (
	classBool class = iota
	classChar
	classStr
	classInt
	classFloat
)

// Desc describes an element type independently of the Go type that its elements are decoded into.
type Desc struct {
	// Name is the name of the type in array literal syntax, such as u8 or &str. For numeric types this is also the
	// type suffix which literals can carry, such as the u8 in 5u8.
	Name string
	// GoType is the Go type that elements are decoded into, such as uint8 or *big.Int.
	GoType string

	class  class
	bits   int
	signed bool
	min    *big.Int // inclusive, integer types only
	max    *big.Int // inclusive, integer types only
}

// IsBig reports whether elements of the type are decoded into a *big.Int.
func (d *Desc) IsBig() bool {
	return d.class == classInt && d.bits > 64
}

func (d *Desc) String() string {
	return d.Name
}

// ElemType describes an element type of an array and how decoded literals are converted to the Go type T.
type ElemType[T any] struct {
	desc *Desc
	from func(Value) T
	copy func(T) T // nil if T has no references to copy
}

// Desc returns the description of the element type.
func (t ElemType[T]) Desc() *Desc {
	return t.desc
}

// Clone returns a copy of elems which shares no memory with it.
func (t ElemType[T]) Clone(elems []T) []T {
	if elems == nil {
		return nil
	}
	cloned := make([]T, len(elems))
	if t.copy == nil {
		copy(cloned, elems)
		return cloned
	}
	for i, e := range elems {
		cloned[i] = t.copy(e)
	}
	return cloned
}

// The element types which arrays can be decoded into.
var (
	Bool = ElemType[bool]{desc: register(&Desc{Name: "bool", GoType: "bool", class: classBool}), from: func(v Value) bool { return v.Bool }}
	Char = ElemType[rune]{desc: register(&Desc{Name: "char", GoType: "rune", class: classChar}), from: func(v Value) rune { return v.Char }}
	Str  = ElemType[string]{desc: register(&Desc{Name: "&str", GoType: "string", class: classStr}), from: func(v Value) string { return v.Str }}

	I8    = signedType[int8]("i8", "int8", 8)
	I16   = signedType[int16]("i16", "int16", 16)
	I32   = signedType[int32]("i32", "int32", 32)
	I64   = signedType[int64]("i64", "int64", 64)
	I128  = bigType("i128", 128, true)
	Isize = signedType[int]("isize", "int", strconv.IntSize)

	U8    = unsignedType[uint8]("u8", "uint8", 8)
	U16   = unsignedType[uint16]("u16", "uint16", 16)
	U32   = unsignedType[uint32]("u32", "uint32", 32)
	U64   = unsignedType[uint64]("u64", "uint64", 64)
	U128  = bigType("u128", 128, false)
	Usize = unsignedType[uint]("usize", "uint", strconv.IntSize)

	F32 = floatType[float32]("f32", "float32", 32)
	F64 = floatType[float64]("f64", "float64", 64)
)

var descs = map[string]*Desc{}

// register adds d to the set of types which can be found with [Lookup].
func register(d *Desc) *Desc {
	if _, ok := descs[d.Name]; ok {
		panic(fmt.Sprintf("element type %s registered twice", d.Name))
	}
	descs[d.Name] = d
	return d
}

// Lookup returns the description of the element type with the given name. "str" and "&'static str" are accepted as
// aliases for "&str".
func Lookup(name string) (*Desc, bool) {
	switch name {
	case "str", "&'static str", "string":
		name = "&str"
	}
	d, ok := descs[name]
	return d, ok
}

// Names returns the names of all element types.
func Names() []string {
	return []string{
		Bool.desc.Name, Char.desc.Name, Str.desc.Name,
		I8.desc.Name, I16.desc.Name, I32.desc.Name, I64.desc.Name, I128.desc.Name, Isize.desc.Name,
		U8.desc.Name, U16.desc.Name, U32.desc.Name, U64.desc.Name, U128.desc.Name, Usize.desc.Name,
		F32.desc.Name, F64.desc.Name,
	}
}

func intDesc(name, goType string, bits int, signed bool) *Desc {
	d := &Desc{Name: name, GoType: goType, class: classInt, bits: bits, signed: signed}
	one := big.NewInt(1)
	if signed {
		d.max = new(big.Int).Sub(new(big.Int).Lsh(one, uint(bits-1)), one)
		d.min = new(big.Int).Neg(new(big.Int).Lsh(one, uint(bits-1)))
	} else {
		d.max = new(big.Int).Sub(new(big.Int).Lsh(one, uint(bits)), one)
		d.min = new(big.Int)
	}
	return register(d)
}

func signedType[T constraints.Signed](name, goType string, bits int) ElemType[T] {
	return ElemType[T]{
		desc: intDesc(name, goType, bits, true),
		from: func(v Value) T { return T(v.Int.Int64()) },
	}
}

func unsignedType[T constraints.Unsigned](name, goType string, bits int) ElemType[T] {
	return ElemType[T]{
		desc: intDesc(name, goType, bits, false),
		from: func(v Value) T { return T(v.Int.Uint64()) },
	}
}

func bigType(name string, bits int, signed bool) ElemType[*big.Int] {
	return ElemType[*big.Int]{
		desc: intDesc(name, "*big.Int", bits, signed),
		from: func(v Value) *big.Int { return new(big.Int).Set(v.Int) },
		copy: func(n *big.Int) *big.Int { return new(big.Int).Set(n) },
	}
}

func floatType[T constraints.Float](name, goType string, bits int) ElemType[T] {
	return ElemType[T]{
		desc: register(&Desc{Name: name, GoType: goType, class: classFloat, bits: bits, signed: true}),
		from: func(v Value) T { return T(v.Float) },
	}
}

// maxFloat returns the largest finite value of a float type with the given size.
func maxFloat(bits int) float64 {
	if bits == 32 {
		return math.MaxFloat32
	}
	return math.MaxFloat64
}

// BigInt returns the *big.Int represented by the base 10 string s.
// It panics if s isn't a valid integer. It's used by generated code to initialise 128-bit elements.
func BigInt(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic(fmt.Sprintf("arraylit: invalid integer %q", s))
	}
	return n
}
