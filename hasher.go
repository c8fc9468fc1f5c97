package equatable

import (
	"encoding/binary"
	"math"
	"reflect"

	"github.com/cespare/xxhash/v2"
)

// Hashable is implemented by types for which a Hash method was generated. The
// method feeds exactly the members that participate in the generated Equal
// method into the given hasher, in the same order, so values that are equal
// always produce the same hash.
type Hashable interface {
	Hash(h *Hasher)
}

// Hasher accumulates values into a 64-bit xxhash digest. Generated Hash
// methods call Combine once per compared member.
//
// A Hasher is not safe for concurrent use.
type Hasher struct {
	d   *xxhash.Digest
	buf [8]byte
}

// NewHasher returns a hasher with an empty state.
func NewHasher() *Hasher {
	return &Hasher{d: xxhash.New()}
}

// HashOf returns the hash of a single Hashable value.
func HashOf(v Hashable) uint64 {
	h := NewHasher()
	v.Hash(h)
	return h.Sum64()
}

// Sum64 returns the hash of everything combined so far.
func (h *Hasher) Sum64() uint64 {
	h.init()
	return h.d.Sum64()
}

// Reset discards all combined values.
func (h *Hasher) Reset() {
	h.init()
	h.d.Reset()
}

func (h *Hasher) init() {
	if h.d == nil {
		h.d = xxhash.New()
	}
}

// Combine feeds the given value into the hasher. Values implementing Hashable
// contribute via their Hash method. Scalars and strings contribute their
// contents, slices and arrays contribute their elements in order and maps
// contribute their entries independently of iteration order. Pointers
// contribute the value they point to, so values that reflect.DeepEqual
// considers equal hash the same. Channels and functions contribute their
// identity.
func (h *Hasher) Combine(v interface{}) {
	h.init()
	switch v := v.(type) {
	case nil:
		h.writeUint(0)
	case Hashable:
		v.Hash(h)
	case bool:
		h.writeBool(v)
	case int:
		h.writeUint(uint64(v))
	case int64:
		h.writeUint(uint64(v))
	case uint64:
		h.writeUint(v)
	case string:
		h.writeString(v)
	case []byte:
		h.writeUint(uint64(len(v)))
		_, _ = h.d.Write(v)
	default:
		h.combineValue(reflect.ValueOf(v), map[visit]bool{})
	}
}

// visit identifies a pointer being hashed, so that cyclic values terminate.
type visit struct {
	ptr uintptr
	typ reflect.Type
}

func (h *Hasher) combineValue(rv reflect.Value, visiting map[visit]bool) {
	if !rv.IsValid() {
		h.writeUint(0)
		return
	}
	if rv.CanInterface() && rv.Type().Implements(hashableType) {
		if rv.Kind() == reflect.Ptr && rv.IsNil() {
			h.writeUint(0)
			return
		}
		rv.Interface().(Hashable).Hash(h)
		return
	}
	switch rv.Kind() {
	case reflect.Bool:
		h.writeBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		h.writeUint(uint64(rv.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		h.writeUint(rv.Uint())
	case reflect.Float32, reflect.Float64:
		h.writeFloat(rv.Float())
	case reflect.Complex64, reflect.Complex128:
		c := rv.Complex()
		h.writeFloat(real(c))
		h.writeFloat(imag(c))
	case reflect.String:
		h.writeString(rv.String())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
			h.writeUint(uint64(rv.Len()))
			_, _ = h.d.Write(rv.Bytes())
			return
		}
		h.writeUint(uint64(rv.Len()))
		for i := 0; i < rv.Len(); i++ {
			h.combineValue(rv.Index(i), visiting)
		}
	case reflect.Map:
		// entries are hashed separately and summed so that iteration order
		// does not matter
		var sum uint64
		iter := rv.MapRange()
		for iter.Next() {
			entry := NewHasher()
			entry.combineValue(iter.Key(), visiting)
			entry.combineValue(iter.Value(), visiting)
			sum += entry.Sum64()
		}
		h.writeUint(uint64(rv.Len()))
		h.writeUint(sum)
	case reflect.Struct:
		for i := 0; i < rv.NumField(); i++ {
			h.combineValue(rv.Field(i), visiting)
		}
	case reflect.Interface:
		if rv.IsNil() {
			h.writeUint(0)
			return
		}
		h.combineValue(rv.Elem(), visiting)
	case reflect.Ptr:
		if rv.IsNil() {
			h.writeUint(0)
			return
		}
		key := visit{ptr: rv.Pointer(), typ: rv.Type()}
		if visiting[key] {
			h.writeUint(2)
			return
		}
		visiting[key] = true
		h.writeUint(1)
		h.combineValue(rv.Elem(), visiting)
		delete(visiting, key)
	case reflect.Chan, reflect.Func, reflect.UnsafePointer:
		h.writeUint(uint64(rv.Pointer()))
	}
}

var hashableType = reflect.TypeOf((*Hashable)(nil)).Elem()

func (h *Hasher) writeUint(u uint64) {
	binary.LittleEndian.PutUint64(h.buf[:], u)
	_, _ = h.d.Write(h.buf[:])
}

func (h *Hasher) writeBool(b bool) {
	if b {
		h.writeUint(1)
	} else {
		h.writeUint(0)
	}
}

func (h *Hasher) writeFloat(f float64) {
	if f == 0 {
		// -0 == +0, so they must hash the same
		f = 0
	}
	h.writeUint(math.Float64bits(f))
}

func (h *Hasher) writeString(s string) {
	h.writeUint(uint64(len(s)))
	_, _ = h.d.WriteString(s)
}
