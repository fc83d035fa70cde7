package service

import (
	"context"
	"strings"

	"github.com/Astemirdum/bookbarter/bookbarter/internal/errs"
	"github.com/Astemirdum/bookbarter/bookbarter/internal/model"
	"github.com/Astemirdum/bookbarter/pkg/kafka"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

func (s *Service) Register(ctx context.Context, req model.RegisterRequest) (model.User, error) {
	name, email := strings.TrimSpace(req.Name), strings.TrimSpace(req.Email)
	if name == "" || email == "" || req.Password == "" {
		return model.User{}, errors.Wrap(errs.ErrValidation, "name, email and password are required")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return model.User{}, errors.Wrap(err, "bcrypt")
	}
	user, err := s.repo.CreateUser(ctx, model.User{
		ID:       uuid.New(),
		Name:     name,
		Email:    email,
		Password: string(hashed),
	})
	if err != nil {
		if errors.Is(err, errs.ErrDuplicate) {
			return model.User{}, errors.Wrap(errs.ErrDuplicate, "user registration failed")
		}
		return model.User{}, err
	}
	s.publish(user.ID, kafka.EventUserRegistered, nil, nil)
	return user, nil
}

// Login checks the credentials and issues a signed access token.
func (s *Service) Login(ctx context.Context, req model.LoginRequest) (model.LoginResponse, error) {
	user, err := s.repo.GetUserByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return model.LoginResponse{}, errors.Wrap(errs.ErrNotFound, "user")
		}
		return model.LoginResponse{}, err
	}
	if err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return model.LoginResponse{}, errs.ErrUnauthorized
	}
	token, expiresAt, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return model.LoginResponse{}, err
	}
	return model.LoginResponse{
		Message:   "Login successful",
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}
