// Package apperror defines the error kinds that abort a download run.
package apperror

import "errors"

// Kind classifies a run failure.
type Kind string

const (
	// KindParse is a malformed numeric directive value in the manifest.
	KindParse Kind = "PARSE_ERROR"
	// KindNetwork is a manifest, key or segment fetch failure.
	KindNetwork Kind = "NETWORK_ERROR"
	// KindCrypto is a segment decryption failure.
	KindCrypto Kind = "CRYPTO_ERROR"
	// KindIO is a failure creating or writing the output sink.
	KindIO Kind = "IO_ERROR"
)

// Error is a run failure of a known kind.
type Error struct {
	Kind    Kind
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.URL != "" {
		msg += " (" + e.URL + ")"
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Parse creates a KindParse error.
func Parse(message string, cause error) *Error {
	return &Error{Kind: KindParse, Message: message, Cause: cause}
}

// Network creates a KindNetwork error for the given URL.
func Network(url, message string, cause error) *Error {
	return &Error{Kind: KindNetwork, URL: url, Message: message, Cause: cause}
}

// Crypto creates a KindCrypto error.
func Crypto(message string, cause error) *Error {
	return &Error{Kind: KindCrypto, Message: message, Cause: cause}
}

// IO creates a KindIO error.
func IO(message string, cause error) *Error {
	return &Error{Kind: KindIO, Message: message, Cause: cause}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
