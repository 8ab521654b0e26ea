package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	"github.com/recipeboxapp/recipebox-server/internal/domain"
	"github.com/recipeboxapp/recipebox-server/internal/service"
)

// registerAttributeRoutes mounts list and create for tags and ingredients.
// Both kinds share one handler pair, parameterized by service.
func (s *Server) registerAttributeRoutes() {
	for _, a := range []struct {
		svc   *service.AttributeService
		path  string
		noun  string
		group string
	}{
		{s.services.Tags, recipePrefix + "/tags", "tag", "Tags"},
		{s.services.Ingredients, recipePrefix + "/ingredients", "ingredient", "Ingredients"},
	} {
		huma.Register(s.api, huma.Operation{
			OperationID: "list" + a.group,
			Method:      http.MethodGet,
			Path:        a.path,
			Summary:     "List " + a.noun + "s",
			Description: "Returns the caller's " + a.noun + "s ordered by name, descending",
			Tags:        []string{a.group},
			Security:    bearer,
		}, s.listAttributes(a.svc))

		huma.Register(s.api, huma.Operation{
			OperationID:      "create" + a.group[:len(a.group)-1],
			Method:           http.MethodPost,
			Path:             a.path,
			Summary:          "Create " + a.noun,
			Description:      "Creates a " + a.noun + " owned by the caller",
			Tags:             []string{a.group},
			Security:         bearer,
			DefaultStatus:    http.StatusCreated,
			SkipValidateBody: true,
		}, s.createAttribute(a.svc))
	}
}

// === DTOs ===

// ListAttributesInput contains parameters for listing tags or ingredients.
type ListAttributesInput struct {
	AssignedOnly string `query:"assigned_only" doc:"Any truthy value keeps only entries linked to a recipe"`
}

// AttributeResponse contains tag or ingredient data in API responses.
type AttributeResponse struct {
	ID   int64  `json:"id" doc:"ID"`
	Name string `json:"name" doc:"Name"`
}

// ListAttributesOutput wraps the attribute list for Huma.
type ListAttributesOutput struct {
	Body []AttributeResponse
}

// CreateAttributeRequest is the request body for creating a tag or ingredient.
type CreateAttributeRequest struct {
	Name *string `json:"name,omitempty" maxLength:"255" doc:"Name"`
}

// CreateAttributeInput wraps the create request for Huma.
type CreateAttributeInput struct {
	Body CreateAttributeRequest `required:"false"`
}

// AttributeOutput wraps a single attribute for Huma.
type AttributeOutput struct {
	Body AttributeResponse
}

// === Handlers ===

func (s *Server) listAttributes(svc *service.AttributeService) func(context.Context, *ListAttributesInput) (*ListAttributesOutput, error) {
	return func(ctx context.Context, input *ListAttributesInput) (*ListAttributesOutput, error) {
		p, err := requirePrincipal(ctx)
		if err != nil {
			return nil, err
		}

		attrs, err := svc.List(ctx, p, truthy(input.AssignedOnly))
		if err != nil {
			return nil, s.fail(ctx, err)
		}
		return &ListAttributesOutput{Body: attributeResponses(attrs)}, nil
	}
}

func (s *Server) createAttribute(svc *service.AttributeService) func(context.Context, *CreateAttributeInput) (*AttributeOutput, error) {
	return func(ctx context.Context, input *CreateAttributeInput) (*AttributeOutput, error) {
		p, err := requirePrincipal(ctx)
		if err != nil {
			return nil, err
		}

		attr, err := svc.Create(ctx, p, service.AttributeRequest{Name: input.Body.Name})
		if err != nil {
			return nil, s.fail(ctx, err)
		}
		return &AttributeOutput{Body: attributeResponse(attr)}, nil
	}
}

func attributeResponse(a *domain.Attribute) AttributeResponse {
	return AttributeResponse{ID: a.ID, Name: a.Name}
}

func attributeResponses(attrs []*domain.Attribute) []AttributeResponse {
	resp := make([]AttributeResponse, len(attrs))
	for i, a := range attrs {
		resp[i] = attributeResponse(a)
	}
	return resp
}

// truthy treats any non-zero integer, "true", "yes", or "on" as true.
func truthy(v string) bool {
	if n, err := strconv.Atoi(v); err == nil {
		return n != 0
	}
	b, err := strconv.ParseBool(v)
	if err == nil {
		return b
	}
	return v == "yes" || v == "on"
}
