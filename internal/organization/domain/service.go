package domain

import (
	"context"
	"errors"
)

type CreateMemberRequest struct {
	Email       string
	DisplayName string
	Role        Role
}

// Service covers roster writes. Signup is the entry point for the
// new-user trigger.
type Service interface {
	CreateMember(ctx context.Context, req CreateMemberRequest) (Member, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidEmail        = errors.New("invalid_email")
	ErrInvalidRole         = errors.New("invalid_role")
	ErrEmailTaken          = errors.New("email_taken")
)
