package mocks

import (
	"context"
	"io"

	"doceditor/internal/storage"

	"github.com/stretchr/testify/mock"
)

type MockBlobStore struct {
	mock.Mock
}

func (m *MockBlobStore) Persist(ctx context.Context, b storage.Blob) (string, error) {
	args := m.Called(ctx, b)
	if f, ok := args.Get(0).(func(context.Context, storage.Blob) string); ok {
		return f(ctx, b), args.Error(1)
	}
	return args.String(0), args.Error(1)
}

func (m *MockBlobStore) Open(ctx context.Context, locator string) (io.ReadCloser, storage.ObjectInfo, error) {
	args := m.Called(ctx, locator)
	if args.Get(0) == nil {
		return nil, storage.ObjectInfo{}, args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.Get(1).(storage.ObjectInfo), args.Error(2)
}

func (m *MockBlobStore) Delete(ctx context.Context, locator string) error {
	args := m.Called(ctx, locator)
	return args.Error(0)
}
