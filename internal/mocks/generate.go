package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Coach --dir ../usecase --output usecase --outpkg usecasemock --filename coach_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name AvatarProvider --dir ../usecase --output usecase --outpkg usecasemock --filename avatar_provider_mock.go
