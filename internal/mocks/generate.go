// Package mocks provides gomock implementations of the session ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	auth := mocks.NewMockAuthenticator(ctrl)
//	auth.EXPECT().Login(gomock.Any(), gomock.Any()).Return(result, nil)
package mocks

// Generate mocks for the storage and authentication ports.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=ports_mock.go github.com/DarwinOsingo/Afrigene/internal/ports Authenticator,ProfileResolver,TokenSource,KeyValueStorage,StorageProvider
