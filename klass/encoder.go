package klass

// ---------------------------------------------------------------------------
// Hierarchy encoder
// ---------------------------------------------------------------------------

// encode fills in the primary and secondary supers arrays, the depth and
// the anchor of d from its superclass, direct interfaces and kind. The
// superclass and interfaces must already be encoded.
//
// The ancestor chain is rebuilt from the superclass's own arrays, so the
// cost is proportional to the depth and no superclass pointers are chased.
func encode(d *Descriptor, limit int) {
	var chain, inherited []*Descriptor
	if d.super != nil {
		chain = append(d.super.chain(), d.super)
		inherited = d.super.secondaryInterfaces()
	}
	d.depth = len(chain)

	ifaces := mergeInterfaces(chain, inherited, d.interfaces)

	if len(chain) <= limit {
		d.primary = chain
		d.secondary = ifaces
		d.secondaryClasses = 0
	} else {
		d.primary = make([]*Descriptor, limit)
		copy(d.primary, chain[:limit])
		overflow := chain[limit:]
		d.secondary = make([]*Descriptor, 0, len(overflow)+len(ifaces))
		d.secondary = append(d.secondary, overflow...)
		d.secondary = append(d.secondary, ifaces...)
		d.secondaryClasses = len(overflow)
	}

	// A type is only ever found in a subtype's primary array at index
	// depth, and primary arrays hold at most limit entries.
	if d.kind != KindInterface && d.bottomIsClass && d.depth < limit {
		d.anchor = d.depth
	} else {
		d.anchor = Secondary
	}
}

// mergeInterfaces builds the interface portion of a secondary array: the
// superclass's interfaces first, then each direct interface followed by
// the interfaces it extends. First occurrence wins; entries of chain are
// never repeated.
func mergeInterfaces(chain, inherited, direct []*Descriptor) []*Descriptor {
	seen := make(map[*Descriptor]struct{}, len(chain)+len(inherited)+len(direct))
	for _, c := range chain {
		seen[c] = struct{}{}
	}

	var out []*Descriptor
	add := func(d *Descriptor) {
		if _, ok := seen[d]; ok {
			return
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}

	for _, i := range inherited {
		add(i)
	}
	for _, i := range direct {
		add(i)
		for _, s := range i.secondaryInterfaces() {
			add(s)
		}
	}
	return out
}
