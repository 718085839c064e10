package signature

// List is an ordered collection of signatures. Names are not required to be
// unique; lookups return the first match.
type List []Signature

// Lookup returns the first signature named name.
func (l List) Lookup(name string) (*Signature, bool) {
	for i := range l {
		if l[i].Name == name {
			return &l[i], true
		}
	}
	return nil, false
}

// Names returns every name in list order, duplicates included.
func (l List) Names() []string {
	names := make([]string, len(l))
	for i := range l {
		names[i] = l[i].Name
	}
	return names
}

// Scalars returns the fundamental and simple signatures in order.
func (l List) Scalars() List {
	var out List
	for _, s := range l {
		if s.Class.Scalar() {
			out = append(out, s)
		}
	}
	return out
}

// Complexes returns the complex signatures in order.
func (l List) Complexes() List {
	var out List
	for _, s := range l {
		if s.Class == Complex {
			out = append(out, s)
		}
	}
	return out
}

// Clone returns a deep copy of the list.
func (l List) Clone() List {
	if l == nil {
		return nil
	}
	out := make(List, len(l))
	for i, s := range l {
		out[i] = s
		out[i].Members = append([]Member(nil), s.Members...)
	}
	return out
}

// Merge concatenates lists in argument order without removing duplicates.
func Merge(lists ...List) List {
	total := 0
	for _, l := range lists {
		total += len(l)
	}
	out := make(List, 0, total)
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}
