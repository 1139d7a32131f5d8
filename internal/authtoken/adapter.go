package authtoken

import (
	"credchain/internal/platform/middleware"
)

// ServiceAdapter exposes the token service through the middleware's
// validator interface.
type ServiceAdapter struct {
	service *Service
}

func NewServiceAdapter(service *Service) *ServiceAdapter {
	return &ServiceAdapter{service: service}
}

func (a *ServiceAdapter) Validate(tokenString string) (*middleware.TokenClaims, error) {
	claims, err := a.service.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return &middleware.TokenClaims{
		Account: claims.Account,
		Admin:   claims.Admin,
		Issuer:  claims.Issuer,
	}, nil
}
