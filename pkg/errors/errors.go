// Package errors provides structured error types for cellar.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the pipeline, linker and CLI
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Codes mirror the failure taxonomy of the install pipeline:
//   - PACKAGE_NOT_FOUND, NO_STABLE_VERSION, NO_BOTTLE_FOR_PLATFORM: planning
//   - CHECKSUM_MISMATCH, EXTRACTION_FAILED, NETWORK: pouring a bottle
//   - CIRCULAR_DEPENDENCY: graph validation
//   - REFUSING_TO_UNINSTALL, NOT_INSTALLED, NO_SUCH_KEG: removal
//   - LINK_CONFLICT: the symlink farm
//   - ALREADY_INSTALLED: informational, never fatal
//
// # Usage
//
//	err := errors.New(errors.ErrCodePackageNotFound, "no available formula with the name %q", name)
//	if errors.Is(err, errors.ErrCodePackageNotFound) {
//	    // Handle lookup failure
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeNetwork, origErr, "failed to fetch %s", url)
//
// Errors that carry structured data ([CycleError], [DependentsError],
// [LinkConflictError]) expose a Code method and are matched by [Is] and
// [GetCode] just like [*Error].
package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidFormula Code = "INVALID_FORMULA"
	ErrCodeInvalidPath    Code = "INVALID_PATH"

	// Planning errors
	ErrCodePackageNotFound     Code = "PACKAGE_NOT_FOUND"
	ErrCodeNoStableVersion     Code = "NO_STABLE_VERSION"
	ErrCodeNoBottleForPlatform Code = "NO_BOTTLE_FOR_PLATFORM"
	ErrCodeCircularDependency  Code = "CIRCULAR_DEPENDENCY"

	// Pour errors
	ErrCodeChecksumMismatch Code = "CHECKSUM_MISMATCH"
	ErrCodeExtractionFailed Code = "EXTRACTION_FAILED"
	ErrCodeNetwork          Code = "NETWORK"

	// Installed state
	ErrCodeAlreadyInstalled    Code = "ALREADY_INSTALLED"
	ErrCodeNotInstalled        Code = "NOT_INSTALLED"
	ErrCodeNoSuchKeg           Code = "NO_SUCH_KEG"
	ErrCodeRefusingToUninstall Code = "REFUSING_TO_UNINSTALL"
	ErrCodeLinkConflict        Code = "LINK_CONFLICT"
	ErrCodeLocked              Code = "LOCKED"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// coded is implemented by the structured error types of this package.
type coded interface {
	error
	Code() Code
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error or a structured error
// with a matching code. The outermost coded error wins.
func Is(err error, code Code) bool {
	return code != "" && GetCode(err) == code
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if no error in the chain carries a code.
func GetCode(err error) Code {
	for err != nil {
		switch e := err.(type) {
		case *Error:
			return e.Code
		case coded:
			return e.Code()
		}
		err = errors.Unwrap(err)
	}
	return ""
}

// IsNotExist reports whether err indicates a missing file or directory.
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// CycleError reports a dependency cycle. Cycle lists the members in
// traversal order with the repeated node appended, e.g. [a b c a].
type CycleError struct {
	Cycle []string
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: circular dependency detected: %s", ErrCodeCircularDependency, strings.Join(e.Cycle, " -> "))
}

// Code returns the error code for this error type.
func (e *CycleError) Code() Code { return ErrCodeCircularDependency }

// DependentsError is returned when uninstalling a formula that other
// installed formulae still depend on.
type DependentsError struct {
	Name       string
	Dependents []string
}

// Error implements the error interface.
func (e *DependentsError) Error() string {
	noun := "formula"
	if len(e.Dependents) > 1 {
		noun = "formulae"
	}
	return fmt.Sprintf("%s: refusing to uninstall %s because it is required by %s, which %s currently installed: %s",
		ErrCodeRefusingToUninstall, e.Name, noun, isAre(len(e.Dependents)), strings.Join(e.Dependents, ", "))
}

// Code returns the error code for this error type.
func (e *DependentsError) Code() Code { return ErrCodeRefusingToUninstall }

func isAre(n int) string {
	if n == 1 {
		return "is"
	}
	return "are"
}

// LinkConflictError identifies a destination in the prefix that blocks linking.
type LinkConflictError struct {
	Keg    string // Keg being linked (name/version)
	Path   string // Conflicting destination
	Source string // File inside the keg that wanted Path
	Dir    bool   // Destination is a real directory
}

// Error implements the error interface.
func (e *LinkConflictError) Error() string {
	if e.Dir {
		return fmt.Sprintf("%s: could not symlink %s: %s is a directory", ErrCodeLinkConflict, e.Source, e.Path)
	}
	return fmt.Sprintf("%s: could not symlink %s for %s: target %s already exists", ErrCodeLinkConflict, e.Source, e.Keg, e.Path)
}

// Code returns the error code for this error type.
func (e *LinkConflictError) Code() Code { return ErrCodeLinkConflict }
