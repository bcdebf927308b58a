package core

import (
	"fmt"
	"strings"
)

// ── Configuration errors ──────────────────────────────────────────────────────

// NotAModuleError is returned when a type without module metadata is used
// where a module is required.
type NotAModuleError struct {
	Name string
}

func (e *NotAModuleError) Error() string {
	return fmt.Sprintf("%s is not a module. Did you forget to declare it with metadata.Module()?", e.Name)
}

// NotAControllerError is returned when a module lists a controller type
// without controller metadata.
type NotAControllerError struct {
	Name string
}

func (e *NotAControllerError) Error() string {
	return fmt.Sprintf("%s is not a controller. Did you forget to declare it with metadata.Controller()?", e.Name)
}

// CircularDependencyError reports a cycle in the module import graph.
type CircularDependencyError struct {
	Path []string
}

func (e *CircularDependencyError) Error() string {
	if len(e.Path) == 0 {
		return "circular dependency detected"
	}
	return fmt.Sprintf("circular dependency detected: %s", strings.Join(e.Path, " -> "))
}

// DuplicateInjectorError is returned when a second injector is created for a
// module that already has one.
type DuplicateInjectorError struct {
	Module string
}

func (e *DuplicateInjectorError) Error() string {
	return fmt.Sprintf("injector for module %s already exists; use Registry.Get", e.Module)
}

// InvalidErrorHandlerError is returned when an error handler type does not
// implement Catcher.
type InvalidErrorHandlerError struct {
	Name string
}

func (e *InvalidErrorHandlerError) Error() string {
	return fmt.Sprintf("error handler %s must implement Catch(err error, ctx core.Context) (any, error)", e.Name)
}

// InvalidMiddlewareError is returned when a middleware type does not
// implement the contract its declaration requires.
type InvalidMiddlewareError struct {
	Name     string
	Contract string
}

func (e *InvalidMiddlewareError) Error() string {
	return fmt.Sprintf("middleware %s must implement %s", e.Name, e.Contract)
}

// UnsupportedEndpointKindError is returned at link time when the adapter
// lacks the capability an endpoint kind needs.
type UnsupportedEndpointKindError struct {
	Kind   Kind
	Method string
}

func (e *UnsupportedEndpointKindError) Error() string {
	return fmt.Sprintf("endpoint %s: kind %s is not supported by this adapter", e.Method, e.Kind)
}

// UnknownEndpointKindError is returned at link time for an unrecognized kind.
type UnknownEndpointKindError struct {
	Kind   Kind
	Method string
}

func (e *UnknownEndpointKindError) Error() string {
	return fmt.Sprintf("endpoint %s: unknown kind %q", e.Method, string(e.Kind))
}

// InvalidHandlerError reports an endpoint method that cannot be bound.
type InvalidHandlerError struct {
	Method string
	Reason string
}

func (e *InvalidHandlerError) Error() string {
	return fmt.Sprintf("invalid handler %s: %s", e.Method, e.Reason)
}

// InvalidProviderError reports a provider entry that cannot be registered or
// a class that cannot be instantiated.
type InvalidProviderError struct {
	Token  Token
	Reason string
}

func (e *InvalidProviderError) Error() string {
	return fmt.Sprintf("invalid provider %s: %s", TokenName(e.Token), e.Reason)
}

// ── Resolution errors ─────────────────────────────────────────────────────────

// ProviderNotFoundError is returned when neither a module nor any of its
// imports provides a token.
type ProviderNotFoundError struct {
	Token  Token
	Module string
}

func (e *ProviderNotFoundError) Error() string {
	if e.Module == "" {
		return fmt.Sprintf("no provider found for %s", TokenName(e.Token))
	}
	return fmt.Sprintf("no provider found for %s in module %s or its imports", TokenName(e.Token), e.Module)
}

// CircularProviderError is returned when a provider factory transitively
// resolves its own token.
type CircularProviderError struct {
	Path []string
}

func (e *CircularProviderError) Error() string {
	return fmt.Sprintf("circular provider resolution: %s", strings.Join(e.Path, " -> "))
}

// ResolutionError wraps a failure raised while building a token's value.
type ResolutionError struct {
	Token Token
	Cause error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("failed to resolve %s: %v", TokenName(e.Token), e.Cause)
}

func (e *ResolutionError) Unwrap() error { return e.Cause }

// GuardRejectionError is returned when a guard denies a request.
type GuardRejectionError struct {
	Guard string
}

func (e *GuardRejectionError) Error() string {
	return fmt.Sprintf("request rejected by guard %s", e.Guard)
}

// ── Dispatch errors ───────────────────────────────────────────────────────────

// NotAnAsyncGeneratorError is returned at dispatch when an async streaming
// endpoint does not return an iterable.
type NotAnAsyncGeneratorError struct {
	Method string
	Got    string
}

func (e *NotAnAsyncGeneratorError) Error() string {
	return fmt.Sprintf("endpoint %s must return an iter.Seq, iter.Seq2 or channel, got %s", e.Method, e.Got)
}
