//go:build tools
// +build tools

// Package tools documents development tool dependencies.
// These tools are installed globally via `go install`; only their runtime
// libraries (if any) are tracked in go.mod.
package tools

// Development tools (install via `go install`):
//
// mockgen - Mock generation for the ports interfaces (see internal/mocks)
//   Install: go install go.uber.org/mock/mockgen@v0.6.0
//   Version: v0.6.0 (matches the gomock library in go.mod)
//   Docs: https://github.com/uber-go/mock
