package equatable

func (v Rule) Equal(o Rule) bool {
	return v.Name == o.Name &&
		v.Effect == o.Effect &&
		v.Subject == o.Subject
}

func (v Rule) Hash(h *Hasher) {
	h.Combine(v.Name)
	h.Combine(v.Effect)
	h.Combine(v.Subject)
}
