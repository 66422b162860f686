package v1

import (
	"context"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/hrygo/contextsense/ai/engine"
	"github.com/hrygo/contextsense/ai/history"
	"github.com/hrygo/contextsense/ai/relationship"
	"github.com/hrygo/contextsense/ai/types"
	"github.com/hrygo/contextsense/internal/profile"
)

// RelationshipResolver resolves the relationship of a contact the request did not classify.
type RelationshipResolver interface {
	Resolve(ctx context.Context, contactID, displayName string) types.Relationship
}

// ContactStore is the contact maintenance surface of the history store.
type ContactStore interface {
	history.ContactWriter
	relationship.Directory
	relationship.StoredRelationships
}

type APIV1Service struct {
	Profile  *profile.Profile
	Engine   engine.Engine
	Resolver RelationshipResolver
	// Contacts is nil when the history store keeps no contact data.
	Contacts ContactStore
}

func NewAPIV1Service(profile *profile.Profile, eng engine.Engine, resolver RelationshipResolver, contacts ContactStore) *APIV1Service {
	return &APIV1Service{
		Profile:  profile,
		Engine:   eng,
		Resolver: resolver,
		Contacts: contacts,
	}
}

// RegisterRoutes mounts the JSON API under /api/v1.
func (s *APIV1Service) RegisterRoutes(echoServer *echo.Echo) {
	apiGroup := echoServer.Group("/api/v1", middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
	}))

	apiGroup.POST("/process", s.Process)
	apiGroup.POST("/messages", s.HandleMessage)

	apiGroup.POST("/calls", s.HandleIncomingCall)
	apiGroup.GET("/calls/:id", s.GetCall)
	apiGroup.POST("/calls/:id/answer", s.AnswerCall)
	apiGroup.POST("/calls/:id/end", s.EndCall)

	apiGroup.GET("/contacts/:id", s.GetContact)
	apiGroup.PUT("/contacts/:id", s.UpdateContact)

	slog.Debug("api v1 routes registered",
		"strategy", s.Engine.Strategy(),
		"contacts", s.Contacts != nil,
	)
}

// resolve returns the request relationship when given, otherwise the resolver's verdict.
func (s *APIV1Service) resolve(ctx context.Context, rel *types.Relationship, contactID, displayName string) types.Relationship {
	if rel != nil {
		return rel.Normalize()
	}
	if s.Resolver == nil {
		return types.UnknownRelationship()
	}
	return s.Resolver.Resolve(ctx, contactID, displayName)
}
