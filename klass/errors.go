package klass

import "errors"

// Registration and query errors. Callers match them with errors.Is; the
// returned errors wrap these with the offending names.
var (
	// ErrDuplicateIdentity is returned when a name is registered twice.
	ErrDuplicateIdentity = errors.New("duplicate type identity")

	// ErrUnknownSuperclass is returned when a superclass has not been
	// registered yet. Supertypes must be registered before subtypes.
	ErrUnknownSuperclass = errors.New("unknown superclass")

	// ErrUnknownInterface is returned when a directly implemented or
	// extended interface has not been registered yet.
	ErrUnknownInterface = errors.New("unknown interface")

	// ErrUnknownType is returned by queries naming an unregistered type.
	ErrUnknownType = errors.New("unknown type")

	// ErrKindMismatch is returned when a superclass is not a class or an
	// implemented type is not an interface.
	ErrKindMismatch = errors.New("kind mismatch")

	// ErrInvalidName is returned for empty names and names that use the
	// array suffix outside of ArrayOf.
	ErrInvalidName = errors.New("invalid type name")

	// ErrInvalidLimit is returned for a primary limit below 1.
	ErrInvalidLimit = errors.New("primary limit must be at least 1")

	// ErrNoArrayRoot is returned by ArrayOf when no array root class is
	// configured or the configured root is not registered.
	ErrNoArrayRoot = errors.New("no array root class")
)
