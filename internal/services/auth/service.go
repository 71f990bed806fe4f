package auth

import "context"

type Service struct {
	verifier *Verifier
}

func NewService(verifier *Verifier) *Service {
	return &Service{verifier: verifier}
}

func (s *Service) ValidateAccessToken(_ context.Context, accessToken string) (AccessClaims, error) {
	if s.verifier == nil {
		return AccessClaims{}, ErrUnauthorized
	}
	return s.verifier.ParseAccessToken(accessToken)
}
