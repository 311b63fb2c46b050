package cel

import "fmt"

// ErrorKind tags the first-class error variants CEL evaluation can
// produce. See spec §7.
type ErrorKind int

const (
	ErrSyntax ErrorKind = iota
	ErrValue
	ErrArgument
	ErrInvalidOp
	ErrRuntime
	ErrBinding
	ErrAttribute
	ErrDivideByZero
	ErrInternal
	ErrMisc
)

func (k ErrorKind) String() string {
	switch k {
	case ErrSyntax:
		return "Syntax"
	case ErrValue:
		return "Value"
	case ErrArgument:
		return "Argument"
	case ErrInvalidOp:
		return "InvalidOp"
	case ErrRuntime:
		return "Runtime"
	case ErrBinding:
		return "Binding"
	case ErrAttribute:
		return "Attribute"
	case ErrDivideByZero:
		return "DivideByZero"
	case ErrInternal:
		return "Internal"
	case ErrMisc:
		return "Misc"
	default:
		return "Unknown"
	}
}

// CelError is the engine's first-class error value. It implements
// `error` so it composes at the Go API boundary (fmt.Errorf("%w", ...))
// while also being a CelValue variant that can propagate through most
// operators per spec §4.5/§7.
//
// Ground: teacher's ParsingError/backtrackingError split in errors.go
// (a "thrown" error the parser can't recover from vs. an internal one
// a Choice backtracks past) maps to CEL's "reaches top-level" vs.
// "recovered by has/coalesce" distinction.
type CelError struct {
	Kind ErrorKind

	// Message is a human readable description.
	Message string

	// Where is set for syntax errors raised by the scanner/parser.
	Where Range

	// Symbol is set for ErrBinding: the identifier that failed to resolve.
	Symbol string

	// Parent/Field are set for ErrAttribute: the receiver's type name
	// and the field/key/index that was missing.
	Parent string
	Field  string
}

func (e *CelError) Error() string {
	switch e.Kind {
	case ErrSyntax:
		return fmt.Sprintf("syntax error @ %s: %s", e.Where, e.Message)
	case ErrBinding:
		return fmt.Sprintf("undeclared reference to '%s'", e.Symbol)
	case ErrAttribute:
		return fmt.Sprintf("no such attribute '%s' on %s", e.Field, e.Parent)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
}

func NewSyntaxError(where Range, format string, args ...any) *CelError {
	return &CelError{Kind: ErrSyntax, Where: where, Message: fmt.Sprintf(format, args...)}
}

func NewValueError(format string, args ...any) *CelError {
	return &CelError{Kind: ErrValue, Message: fmt.Sprintf(format, args...)}
}

func NewArgumentError(format string, args ...any) *CelError {
	return &CelError{Kind: ErrArgument, Message: fmt.Sprintf(format, args...)}
}

func NewInvalidOpError(format string, args ...any) *CelError {
	return &CelError{Kind: ErrInvalidOp, Message: fmt.Sprintf(format, args...)}
}

func NewRuntimeError(format string, args ...any) *CelError {
	return &CelError{Kind: ErrRuntime, Message: fmt.Sprintf(format, args...)}
}

func NewBindingError(symbol string) *CelError {
	return &CelError{Kind: ErrBinding, Symbol: symbol}
}

func NewAttributeError(parent, field string) *CelError {
	return &CelError{Kind: ErrAttribute, Parent: parent, Field: field}
}

func NewDivideByZeroError() *CelError {
	return &CelError{Kind: ErrDivideByZero, Message: "division or modulo by zero"}
}

func NewInternalError(format string, args ...any) *CelError {
	return &CelError{Kind: ErrInternal, Message: fmt.Sprintf(format, args...)}
}

func NewMiscError(format string, args ...any) *CelError {
	return &CelError{Kind: ErrMisc, Message: fmt.Sprintf(format, args...)}
}

// recoverable reports whether this error kind is one that `has` and
// `coalesce` are allowed to absorb (spec §4.6/§7): a missing binding
// or attribute, never anything else.
func (e *CelError) recoverable() bool {
	return e.Kind == ErrBinding || e.Kind == ErrAttribute
}
