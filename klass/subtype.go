package klass

// ---------------------------------------------------------------------------
// Subtype query engine
// ---------------------------------------------------------------------------

// Path reports how a subtype check was answered.
type Path uint8

const (
	// PathNone means the subject is not a subtype of the candidate.
	PathNone Path = iota
	// PathSelf means subject and candidate are the same type.
	PathSelf
	// PathPrimary means the candidate was found at its anchor slot.
	PathPrimary
	// PathCache means the subject's secondary hit cache held the candidate.
	PathCache
	// PathSecondary means a linear scan of the secondary supers found it.
	PathSecondary
)

var pathNames = [...]string{
	PathNone:      "none",
	PathSelf:      "self",
	PathPrimary:   "primary",
	PathCache:     "cache",
	PathSecondary: "secondary",
}

func (p Path) String() string {
	if int(p) < len(pathNames) {
		return pathNames[p]
	}
	return "unknown"
}

// Found reports whether the check succeeded.
func (p Path) Found() bool { return p != PathNone }

// Check tests whether subject is a subtype of candidate and reports which
// path produced the answer. Nil descriptors are never subtypes.
func Check(subject, candidate *Descriptor) Path {
	if subject == nil || candidate == nil {
		return PathNone
	}
	if subject == candidate {
		return PathSelf
	}

	// Fast path: a primary super can only live at one slot.
	if anchor := candidate.anchor; anchor != Secondary {
		if anchor < len(subject.primary) && subject.primary[anchor] == candidate {
			return PathPrimary
		}
		return PathNone
	}

	if subject.cache.Load() == candidate {
		return PathCache
	}
	for _, s := range subject.secondary {
		if s == candidate {
			subject.cache.Store(candidate)
			return PathSecondary
		}
	}
	return PathNone
}

// IsSubtypeOf reports whether subject is candidate or one of its subtypes.
func IsSubtypeOf(subject, candidate *Descriptor) bool {
	return Check(subject, candidate).Found()
}

// IsSubtypeOf reports whether d is other or one of its subtypes.
func (d *Descriptor) IsSubtypeOf(other *Descriptor) bool {
	return IsSubtypeOf(d, other)
}

// IsSupertypeOf reports whether other is d or one of its subtypes.
func (d *Descriptor) IsSupertypeOf(other *Descriptor) bool {
	return IsSubtypeOf(other, d)
}

// ---------------------------------------------------------------------------
// Registry-level queries
// ---------------------------------------------------------------------------

// IsSubtypeOf checks two registered types by name.
// It fails with ErrUnknownType if either name is not registered.
func (r *Registry) IsSubtypeOf(subject, candidate string) (bool, error) {
	p, err := r.Check(subject, candidate)
	if err != nil {
		return false, err
	}
	return p.Found(), nil
}

// Check is like IsSubtypeOf but reports the path that answered.
func (r *Registry) Check(subject, candidate string) (Path, error) {
	s, c, err := r.resolve(subject, candidate)
	if err != nil {
		return PathNone, err
	}
	return r.CheckDescriptors(s, c), nil
}

// CheckDescriptors runs Check and records the outcome in the registry's
// statistics.
func (r *Registry) CheckDescriptors(subject, candidate *Descriptor) Path {
	p := Check(subject, candidate)
	switch p {
	case PathPrimary:
		r.fastHits.Add(1)
	case PathCache:
		r.cacheHits.Add(1)
	case PathSecondary:
		r.secondaryHits.Add(1)
	case PathNone:
		if candidate != nil && candidate.anchor != Secondary {
			r.fastMisses.Add(1)
		} else {
			r.secondaryMisses.Add(1)
		}
	}
	return p
}

// Stats counts the outcomes of registry-level checks.
type Stats struct {
	FastHits        uint64
	FastMisses      uint64
	CacheHits       uint64
	SecondaryHits   uint64
	SecondaryMisses uint64
}

// Stats returns a snapshot of the check counters.
func (r *Registry) Stats() Stats {
	return Stats{
		FastHits:        r.fastHits.Load(),
		FastMisses:      r.fastMisses.Load(),
		CacheHits:       r.cacheHits.Load(),
		SecondaryHits:   r.secondaryHits.Load(),
		SecondaryMisses: r.secondaryMisses.Load(),
	}
}
