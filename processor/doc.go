// Package processor finds types annotated for equality in Go packages,
// analyzes them and generates code for them.
//
// Annotations live in doc comments. Everything from the first comment line
// that starts with '@' to the end of the comment is parsed as annotations:
//
//	// Person is a person.
//	//
//	// @Equatable
//	// @Hashable
//	type Person struct {
//		id   string
//		name string
//		// @EquatableIgnoredUnsafeClosure
//		onChange func(Person)
//	}
//
// Type-level annotations request an Equal method (@Equatable) and a Hash
// method (@Hashable). Field-level annotations exclude fields from both. Struct
// fields with exclusion markers are validated even when the struct does not
// request equality.
//
// # Processor Invocation
//
// A Config describes the packages to load, the processors to invoke and where
// outputs go. Its Execute method loads the packages with full type
// information, builds a model.Declaration for every annotated type, analyzes
// the declarations and then passes a Context for each package to each
// processor. Packages are processed concurrently.
//
// Problems with the annotated types are reported as diagnostics, not as
// errors. An error means that processing itself failed, for example because a
// package could not be loaded or an output could not be written. Errors that
// refer to a source location are *ErrorWithPosition values.
//
// # Processor Registration
//
// Processors can be registered with RegisterProcessor. The equality
// generator, GenerateEquality, is registered by default. The shortcut function
// ProcessAll invokes all registered processors.
package processor
