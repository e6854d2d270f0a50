package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/fixora/storefront/application/port/inbound"
	"github.com/fixora/storefront/domain/entity"
	"github.com/fixora/storefront/domain/valueobject"
)

type MockAuthUseCase struct {
	mock.Mock
}

func (m *MockAuthUseCase) Register(ctx context.Context, req inbound.RegisterRequest) (*valueobject.TokenPair, error) {
	args := m.Called(ctx, req)
	pair, _ := args.Get(0).(*valueobject.TokenPair)
	return pair, args.Error(1)
}

func (m *MockAuthUseCase) Login(ctx context.Context, req inbound.LoginRequest) (*valueobject.TokenPair, error) {
	args := m.Called(ctx, req)
	pair, _ := args.Get(0).(*valueobject.TokenPair)
	return pair, args.Error(1)
}

func (m *MockAuthUseCase) Refresh(ctx context.Context, req inbound.RefreshRequest) (*valueobject.TokenPair, error) {
	args := m.Called(ctx, req)
	pair, _ := args.Get(0).(*valueobject.TokenPair)
	return pair, args.Error(1)
}

func (m *MockAuthUseCase) Logout(ctx context.Context, username string) error {
	return m.Called(ctx, username).Error(0)
}

func (m *MockAuthUseCase) Authorize(ctx context.Context, accessToken string) (string, error) {
	args := m.Called(ctx, accessToken)
	return args.String(0), args.Error(1)
}

func (m *MockAuthUseCase) Me(ctx context.Context, username string) (*inbound.MeResponse, error) {
	args := m.Called(ctx, username)
	me, _ := args.Get(0).(*inbound.MeResponse)
	return me, args.Error(1)
}

type MockProductUseCase struct {
	mock.Mock
}

func (m *MockProductUseCase) Create(ctx context.Context, owner string, req inbound.CreateProductRequest) (*entity.Product, error) {
	args := m.Called(ctx, owner, req)
	p, _ := args.Get(0).(*entity.Product)
	return p, args.Error(1)
}

func (m *MockProductUseCase) List(ctx context.Context, owner string) ([]*entity.Product, error) {
	args := m.Called(ctx, owner)
	ps, _ := args.Get(0).([]*entity.Product)
	return ps, args.Error(1)
}

type MockMediaUseCase struct {
	mock.Mock
}

func (m *MockMediaUseCase) Upload(ctx context.Context, req inbound.UploadRequest) (*inbound.UploadResponse, error) {
	args := m.Called(ctx, req.Filename, req.ContentType, req.Size)
	res, _ := args.Get(0).(*inbound.UploadResponse)
	return res, args.Error(1)
}

func (m *MockMediaUseCase) UploadAvatar(ctx context.Context, username string, req inbound.UploadRequest) (*inbound.UploadResponse, error) {
	args := m.Called(ctx, username, req.Filename, req.ContentType, req.Size)
	res, _ := args.Get(0).(*inbound.UploadResponse)
	return res, args.Error(1)
}
