// Package klass implements a runtime type-hierarchy registry with fast
// subtype checks.
//
// This package contains:
//   - Descriptor: immutable per-type metadata (superclass, interfaces,
//     primary and secondary supertype arrays, fast-check anchor)
//   - Registry: the identity -> descriptor table (single writer, many readers)
//   - The hierarchy encoder that splits ancestors into a bounded primary
//     prefix and a secondary list at registration time
//   - The subtype query engine: one indexed comparison for primary supers,
//     a cached linear scan for everything else
//   - Array types with covariant subtyping
package klass
