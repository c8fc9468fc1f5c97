package diag

import "fmt"

type Code uint16

const (
	UnknownCode Code = 0

	// type-level
	TypeNotStruct Code = 1001
	TypeIsGeneric Code = 1002

	// member-level
	IgnoredOnClosure        Code = 2001
	IgnoredOnBinding        Code = 2002
	UnsafeClosureNotClosure Code = 2003
	ClosureNotSupported     Code = 2004
	HashNotAvailable        Code = 2005

	// source annotations
	MalformedAnnotation Code = 3001
)

var codeDescription = map[Code]string{
	UnknownCode:             "Unknown error",
	TypeNotStruct:           "Equality requested for a type that is not a struct",
	TypeIsGeneric:           "Equality requested for a generic type",
	IgnoredOnClosure:        "Ignore marker applied to a closure",
	IgnoredOnBinding:        "Ignore marker applied to a binding",
	UnsafeClosureNotClosure: "Closure marker applied to a member that is not a closure",
	ClosureNotSupported:     "Closure member without an exclusion marker",
	HashNotAvailable:        "Member compared with Equal has no Hash method",
	MalformedAnnotation:     "Annotation could not be parsed",
}

// ID returns the short identifier of the code, like "EQ2004".
func (c Code) ID() string {
	if _, ok := codeDescription[c]; !ok || c == UnknownCode {
		return "EQ0000"
	}
	return fmt.Sprintf("EQ%04d", int(c))
}

// Title is a one-line description of the code.
func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
