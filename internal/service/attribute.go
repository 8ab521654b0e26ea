package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/recipeboxapp/recipebox-server/internal/domain"
	"github.com/recipeboxapp/recipebox-server/internal/store"
	"github.com/recipeboxapp/recipebox-server/internal/validation"
)

// AttributeService lists and creates one kind of owner-scoped attribute.
// Tags and ingredients each get their own instance.
type AttributeService struct {
	store     store.Store
	kind      domain.AttributeKind
	validator *validation.Validator
	logger    *slog.Logger
}

// NewAttributeService creates a service for kind.
func NewAttributeService(kind domain.AttributeKind, store store.Store, validator *validation.Validator, logger *slog.Logger) (*AttributeService, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown attribute kind %q", kind)
	}
	return &AttributeService{store: store, kind: kind, validator: validator, logger: logger}, nil
}

// Kind returns the attribute kind this service manages.
func (s *AttributeService) Kind() domain.AttributeKind { return s.kind }

// AttributeRequest is the body accepted when creating a tag or ingredient.
type AttributeRequest struct {
	Name *string `json:"name" validate:"required,notblank,max=255"`
}

// List returns the caller's attributes, name descending. With assignedOnly
// only attributes referenced by at least one recipe are returned.
func (s *AttributeService) List(ctx context.Context, p domain.Principal, assignedOnly bool) ([]*domain.Attribute, error) {
	o, err := owned(s.store, p)
	if err != nil {
		return nil, err
	}

	attrs, err := o.ListAttributes(ctx, s.kind, assignedOnly)
	if err != nil {
		return nil, translate(err)
	}
	return attrs, nil
}

// Create stores a new attribute owned by the caller.
func (s *AttributeService) Create(ctx context.Context, p domain.Principal, req AttributeRequest) (*domain.Attribute, error) {
	o, err := owned(s.store, p)
	if err != nil {
		return nil, err
	}

	req.Name = trimmed(req.Name)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	attr := &domain.Attribute{Kind: s.kind, Name: *req.Name}
	if err := o.CreateAttribute(ctx, attr); err != nil {
		return nil, translate(err)
	}

	s.logger.Info("attribute created",
		"kind", s.kind,
		"attribute_id", attr.ID,
		"user_id", p.UserID,
	)
	return attr, nil
}
