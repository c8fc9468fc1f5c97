package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jhump/equatable"
	"github.com/jhump/equatable/model"
)

// Tier is a comparison-cost class. Members in lower tiers are compared first
// so that cheap, selective comparisons can short-circuit expensive ones.
type Tier int

const (
	// Identity is the tier of the member named "id".
	Identity Tier = iota
	// Scalar is the tier of numbers, booleans, characters and strings.
	Scalar
	// Opaque is the tier of named types with unknown comparison cost.
	Opaque
	// Collection is the tier of sequences, mappings and sets.
	Collection
	// Composite is the tier of types that have generated (or hand-written)
	// equality of their own and so recurse into their members.
	Composite
)

func (t Tier) String() string {
	switch t {
	case Identity:
		return "identity"
	case Scalar:
		return "scalar"
	case Opaque:
		return "opaque"
	case Collection:
		return "collection"
	case Composite:
		return "composite"
	default:
		return fmt.Sprintf("?%d?", int(t))
	}
}

// Eligible is a member that participates in equality, along with its tier.
type Eligible struct {
	Member model.Member
	Tier   Tier
}

var scalarNames = map[string]struct{}{}

func init() {
	for _, n := range []string{
		// Swift
		"Int", "Int8", "Int16", "Int32", "Int64",
		"UInt", "UInt8", "UInt16", "UInt32", "UInt64",
		"Float", "Float16", "Float32", "Float64", "Float80", "Double", "CGFloat",
		"Bool", "Character", "String",
		// Go
		"int", "int8", "int16", "int32", "int64",
		"uint", "uint8", "uint16", "uint32", "uint64", "uintptr",
		"float32", "float64", "complex64", "complex128",
		"bool", "byte", "rune", "string",
	} {
		scalarNames[n] = struct{}{}
	}
}

var collectionNames = map[string]struct{}{
	"Array":             {},
	"ArraySlice":        {},
	"ContiguousArray":   {},
	"Dictionary":        {},
	"Set":               {},
	"OrderedSet":        {},
	"OrderedDictionary": {},
}

// Classify returns the comparison tier of the given member.
func Classify(m *model.Member) Tier {
	if m.Name == equatable.IdentityMember {
		return Identity
	}
	switch m.Type.Kind {
	case model.TypeScalar:
		return Scalar
	case model.TypeCollection:
		return Collection
	}
	name := unwrapOptional(strings.TrimSpace(m.Type.Name))
	switch {
	case isScalar(name):
		return Scalar
	case isCollection(name):
		return Collection
	case m.Type.Equatable:
		return Composite
	default:
		return Opaque
	}
}

// unwrapOptional looks through optional spellings, like "Int?" and
// "Optional<Int>", since they do not change the comparison cost.
func unwrapOptional(name string) string {
	for {
		switch {
		case strings.HasSuffix(name, "?") || strings.HasSuffix(name, "!"):
			name = strings.TrimSpace(name[:len(name)-1])
		case strings.HasSuffix(name, ">") && isGeneric(name, "Optional"):
			name = strings.TrimSpace(name[strings.IndexByte(name, '<')+1 : len(name)-1])
		default:
			return name
		}
	}
}

func isScalar(name string) bool {
	_, ok := scalarNames[name]
	if !ok && strings.HasPrefix(name, "Swift.") {
		_, ok = scalarNames[strings.TrimPrefix(name, "Swift.")]
	}
	return ok
}

func isCollection(name string) bool {
	if strings.HasPrefix(name, "[") || strings.HasPrefix(name, "map[") {
		// Swift array and dictionary literals, Go slices, arrays and maps
		return true
	}
	lt := strings.IndexByte(name, '<')
	if lt <= 0 || !strings.HasSuffix(name, ">") {
		return false
	}
	_, ok := collectionNames[equatable.BareName(name[:lt])]
	return ok
}

func isGeneric(name, base string) bool {
	lt := strings.IndexByte(name, '<')
	return lt > 0 && equatable.BareName(name[:lt]) == base
}

// Sort classifies the given members and orders them by tier and then by name.
// The result depends only on the tiers and names, never on the order of the
// input.
func Sort(members []model.Member) []Eligible {
	sorted := make([]Eligible, len(members))
	for i := range members {
		sorted[i] = Eligible{Member: members[i], Tier: Classify(&members[i])}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Tier != sorted[j].Tier {
			return sorted[i].Tier < sorted[j].Tier
		}
		return sorted[i].Member.Name < sorted[j].Member.Name
	})
	return sorted
}
