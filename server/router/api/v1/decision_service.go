package v1

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/contextsense/ai/types"
)

// PlatformAPI is the platform recorded for utterances without one.
const PlatformAPI = "api"

type ProcessRequest struct {
	Text         string              `json:"text"`
	Platform     string              `json:"platform"`
	SenderID     string              `json:"sender_id"`
	SenderName   string              `json:"sender_name"`
	Relationship *types.Relationship `json:"relationship"`
	Timestamp    *time.Time          `json:"timestamp"`
}

type ProcessResponse struct {
	Response types.Response      `json:"response"`
	Analysis types.InputAnalysis `json:"analysis"`
}

type MessageRequest struct {
	Sender       string              `json:"sender"`
	SenderName   string              `json:"sender_name"`
	Text         string              `json:"text"`
	Relationship *types.Relationship `json:"relationship"`
}

// Process analyses an utterance and returns the reply with its analysis.
func (s *APIV1Service) Process(c echo.Context) error {
	var request ProcessRequest
	if err := c.Bind(&request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body").SetInternal(err)
	}
	if err := validateText(request.Text); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := validateRelationship(request.Relationship); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	cc := types.ConversationContext{
		Platform:     request.Platform,
		SenderID:     request.SenderID,
		SenderName:   request.SenderName,
		Relationship: s.resolve(ctx, request.Relationship, request.SenderID, request.SenderName),
		Timestamp:    time.Now(),
	}
	if cc.Platform == "" {
		cc.Platform = PlatformAPI
	}
	if request.Timestamp != nil && !request.Timestamp.IsZero() {
		cc.Timestamp = *request.Timestamp
	}

	resp, analysis := s.Engine.Process(ctx, request.Text, cc)
	return c.JSON(http.StatusOK, ProcessResponse{Response: resp, Analysis: analysis})
}

// HandleMessage decides whether and how to answer an inbound message.
func (s *APIV1Service) HandleMessage(c echo.Context) error {
	var request MessageRequest
	if err := c.Bind(&request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body").SetInternal(err)
	}
	if request.Sender == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "sender is required")
	}
	if err := validateText(request.Text); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := validateRelationship(request.Relationship); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	rel := s.resolve(ctx, request.Relationship, request.Sender, request.SenderName)
	return c.JSON(http.StatusOK, s.Engine.HandleMessage(ctx, request.Sender, request.Text, rel))
}
