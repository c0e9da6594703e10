// Package errors provides custom error types for the archsync system.
// The taxonomy mirrors the failure model of the synchronization engine:
// configuration errors are fatal for a single element, resolution errors
// are recorded and surfaced in the run report, remote errors are reported
// per item or per batch, and invariant violations abort reconciliation
// for the affected element or document.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Is reports whether any error in err's tree matches target.
var Is = errors.Is

// As finds the first error in err's tree that matches target.
var As = errors.As

// Common sentinel errors for the archsync system
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrConfiguration indicates an invalid or unmatched configuration
	ErrConfiguration = errors.New("configuration error")

	// ErrAmbiguousMatch indicates that more than one discriminated
	// configuration variant matched the same element
	ErrAmbiguousMatch = errors.New("ambiguous configuration match")

	// ErrUnresolvedReference indicates a reference to an element without
	// a remote representation
	ErrUnresolvedReference = errors.New("unresolved reference")

	// ErrDuplicateKey indicates that the remote inventory holds more
	// than one item for the same external key
	ErrDuplicateKey = errors.New("duplicate external key")

	// ErrRemote indicates a failure reported by the remote store
	ErrRemote = errors.New("remote store error")
)

// ConfigurationError represents an invalid, unmatched or ambiguous
// matching configuration. It is fatal for the affected element only.
type ConfigurationError struct {
	Layer   string
	Type    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ConfigurationError) Error() string {
	if e.Layer != "" || e.Type != "" {
		return fmt.Sprintf("configuration error for %s/%s: %s", e.Layer, e.Type, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// NewConfigurationError creates a new ConfigurationError
func NewConfigurationError(layer, typeName, message string) *ConfigurationError {
	return &ConfigurationError{Layer: layer, Type: typeName, Message: message}
}

// ResolutionError represents a broken link target or an unresolved
// document reference. It is recorded, not fatal for the run.
type ResolutionError struct {
	Source  string // external key of the element being resolved
	Target  string // the reference that could not be resolved
	Message string
}

// Error implements the error interface
func (e *ResolutionError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("resolution error for %s: target %s: %s", e.Source, e.Target, e.Message)
	}
	return fmt.Sprintf("resolution error for %s: %s", e.Source, e.Message)
}

// Is implements errors.Is support
func (e *ResolutionError) Is(target error) bool {
	return target == ErrUnresolvedReference
}

// NewResolutionError creates a new ResolutionError
func NewResolutionError(source, target, message string) *ResolutionError {
	return &ResolutionError{Source: source, Target: target, Message: message}
}

// RemoteError represents a failure from the remote store. Batch callers
// report it per item and never drop it silently.
type RemoteError struct {
	Operation string // "create", "patch", "status", "get", "document"
	Key       string // external key or document identity, if known
	Message   string
	Err       error
}

// Error implements the error interface
func (e *RemoteError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("remote %s failed for %s: %s", e.Operation, e.Key, e.Message)
	}
	return fmt.Sprintf("remote %s failed: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *RemoteError) Is(target error) bool {
	return target == ErrRemote
}

// NewRemoteError creates a new RemoteError
func NewRemoteError(operation, key string, err error) *RemoteError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &RemoteError{Operation: operation, Key: key, Message: message, Err: err}
}

// InvariantError represents unsafe ground to reconcile upon, such as a
// duplicate external key in the remote inventory or a stable-key
// collision between two candidate document sections.
type InvariantError struct {
	Invariant string // short name of the violated invariant
	Subject   string // external key, document identity or section key
	Message   string
}

// Error implements the error interface
func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant %s violated for %s: %s", e.Invariant, e.Subject, e.Message)
}

// Is implements errors.Is support
func (e *InvariantError) Is(target error) bool {
	return target == ErrDuplicateKey
}

// NewInvariantError creates a new InvariantError
func NewInvariantError(invariant, subject, message string) *InvariantError {
	return &InvariantError{Invariant: invariant, Subject: subject, Message: message}
}

// ParseError represents an error when parsing configuration data.
type ParseError struct {
	Format  string // "yaml"
	File    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return &ParseError{Format: format, File: file, Message: err.Error(), Err: err}
}

// WrapRemote wraps an error as a RemoteError
func WrapRemote(operation, key string, err error) error {
	if err == nil {
		return nil
	}
	return NewRemoteError(operation, key, err)
}

// Helper functions for error checking

// IsConfiguration checks if an error is a configuration error
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsResolution checks if an error is a resolution error
func IsResolution(err error) bool {
	return errors.Is(err, ErrUnresolvedReference)
}

// IsRemote checks if an error is a remote store error
func IsRemote(err error) bool {
	return errors.Is(err, ErrRemote)
}

// IsInvariant checks if an error is an invariant violation
func IsInvariant(err error) bool {
	return errors.Is(err, ErrDuplicateKey)
}

// Collector gathers per-item errors during a run without aborting it.
// The zero value is ready to use.
type Collector struct {
	errs []error
}

// Add records an error. Nil errors are ignored.
func (c *Collector) Add(err error) {
	if err != nil {
		c.errs = append(c.errs, err)
	}
}

// Errors returns all recorded errors in insertion order.
func (c *Collector) Errors() []error {
	return c.errs
}

// Empty reports whether no errors were recorded.
func (c *Collector) Empty() bool {
	return len(c.errs) == 0
}

// Err returns a single joined error, or nil if none were recorded.
func (c *Collector) Err() error {
	if len(c.errs) == 0 {
		return nil
	}
	msgs := make([]string, len(c.errs))
	for i, err := range c.errs {
		msgs[i] = err.Error()
	}
	return fmt.Errorf("%d error(s) occurred:\n\t%s", len(c.errs), strings.Join(msgs, "\n\t"))
}
