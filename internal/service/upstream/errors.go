package upstream

import (
	"errors"
	"fmt"
)

// Kind classifies a provider failure.
type Kind int

const (
	KindFetch Kind = iota + 1
	KindParse
	KindInsufficient
)

var (
	ErrFetch            = errors.New("upstream fetch failed")
	ErrParse            = errors.New("upstream response malformed")
	ErrInsufficientData = errors.New("insufficient data")
)

func (k Kind) sentinel() error {
	switch k {
	case KindFetch:
		return ErrFetch
	case KindParse:
		return ErrParse
	case KindInsufficient:
		return ErrInsufficientData
	default:
		return nil
	}
}

func (k Kind) String() string {
	switch k {
	case KindFetch:
		return "fetch"
	case KindParse:
		return "parse"
	case KindInsufficient:
		return "insufficient"
	default:
		return "unknown"
	}
}

// Error is the typed failure every provider client returns.
type Error struct {
	Kind     Kind
	Provider string
	Err      error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Provider, e.Kind.sentinel())
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *Error) Unwrap() []error {
	errs := []error{}
	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// FetchError wraps a transport or status failure.
func FetchError(provider string, err error) error {
	return &Error{Kind: KindFetch, Provider: provider, Err: err}
}

// ParseError reports an unexpected payload shape.
func ParseError(provider string, format string, args ...interface{}) error {
	return &Error{Kind: KindParse, Provider: provider, Err: fmt.Errorf(format, args...)}
}

// InsufficientError reports a well-formed but too short series.
func InsufficientError(provider string, got, want int) error {
	return &Error{Kind: KindInsufficient, Provider: provider, Err: fmt.Errorf("insufficient data: got %d points, need %d", got, want)}
}

// KindOf extracts the failure kind, zero when err is not an *Error.
func KindOf(err error) Kind {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Kind
	}
	return 0
}
