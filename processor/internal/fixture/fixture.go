// Package fixture declares annotated types next to the methods generated for
// them. The processor tests check that fixture.eq.go matches what the
// generator writes, and the tests here run those methods.
package fixture

import (
	"time"

	"github.com/jhump/equatable"
)

// Version has hand-written methods. The label is informational and is not
// compared.
type Version struct {
	Major, Minor int
	Label        string
}

func (v Version) Equal(o Version) bool {
	return v.Major == o.Major && v.Minor == o.Minor
}

func (v Version) Hash(h *equatable.Hasher) {
	h.Combine(v.Major)
	h.Combine(v.Minor)
}

// Inner is compared by its count only. It does not ask for a Hash method but
// gets one because Outer needs it.
//
// @Equatable
type Inner struct {
	count int
	// @EquatableIgnored
	cache []string
	// @EquatableIgnoredUnsafeClosure
	onChange func()
}

// Outer cannot hash created, because time.Time has no Hash method, so created
// is reported and compared by neither method.
//
// @Equatable
// @Hashable
type Outer struct {
	id      string
	inner   Inner
	version Version
	created time.Time
	tags    map[string]string
	limit   *int
}
