package fixture

import (
	"maps"

	"github.com/jhump/equatable"
)

func (v Inner) Equal(o Inner) bool {
	return v.count == o.count
}

func (v Inner) Hash(h *equatable.Hasher) {
	h.Combine(v.count)
}

func (v Outer) Equal(o Outer) bool {
	return v.id == o.id &&
		v.limit == o.limit &&
		maps.Equal(v.tags, o.tags) &&
		v.inner.Equal(o.inner) &&
		v.version.Equal(o.version)
}

func (v Outer) Hash(h *equatable.Hasher) {
	h.Combine(v.id)
	h.Combine(v.limit)
	h.Combine(v.tags)
	v.inner.Hash(h)
	v.version.Hash(h)
}
