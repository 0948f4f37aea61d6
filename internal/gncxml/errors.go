package gncxml

import "fmt"

// TransportError reports a byte stream that could not be sniffed or
// unwrapped before parsing (too short, unreadable archive entry).
type TransportError struct {
	Reason string
	Err    error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transport: %s: %v", e.Reason, e.Err)
	}
	return "transport: " + e.Reason
}

func (e *TransportError) Unwrap() error { return e.Err }

// FormatError reports a structural problem in the XML stream: a wrong
// root element, a missing required field, or an unparsable value.
type FormatError struct {
	Element string
	Reason  string
	Err     error
}

func (e *FormatError) Error() string {
	msg := fmt.Sprintf("element %s: %s", e.Element, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FormatError) Unwrap() error { return e.Err }

// UnresolvedRefError reports a commodity or account reference that
// could not be resolved where one is required.
type UnresolvedRefError struct {
	Kind    string // "commodity", "account"
	Ref     string
	Element string
}

func (e *UnresolvedRefError) Error() string {
	return fmt.Sprintf("element %s: unresolved %s reference %q", e.Element, e.Kind, e.Ref)
}
