// Package mocks provides mock implementations for testing the session core.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for
// the ports interfaces. The mocks are generated using go:generate directives
// and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	gw := mocks.NewMockGateway(ctrl)
//	gw.EXPECT().Do(gomock.Any(), gomock.Any()).Return(resp, nil)
package mocks

// Generate mock for the Gateway interface from internal/ports.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=gateway_mock.go github.com/prepflow/prepflow-go/internal/ports Gateway

// Generate mock for the TokenStore interface from internal/ports.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=token_store_mock.go github.com/prepflow/prepflow-go/internal/ports TokenStore

// Generate mock for the IdentityNotifier interface from internal/ports.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=identity_notifier_mock.go github.com/prepflow/prepflow-go/internal/ports IdentityNotifier
