package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/hrygo/contextsense/ai/call"
	"github.com/hrygo/contextsense/ai/engine"
	"github.com/hrygo/contextsense/ai/types"
)

type CallRequest struct {
	Caller       types.CallerInfo    `json:"caller"`
	Relationship *types.Relationship `json:"relationship"`
}

type EndCallResponse struct {
	Ended bool `json:"ended"`
}

// HandleIncomingCall routes an incoming call and returns the decision.
func (s *APIV1Service) HandleIncomingCall(c echo.Context) error {
	var request CallRequest
	if err := c.Bind(&request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body").SetInternal(err)
	}
	if err := validateRelationship(request.Relationship); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	rel := s.resolve(ctx, request.Relationship, request.Caller.ID, request.Caller.Name)
	decision := s.Engine.HandleIncomingCall(ctx, request.Caller, rel)
	return c.JSON(http.StatusCreated, decision)
}

func (s *APIV1Service) GetCall(c echo.Context) error {
	snapshot, ok := s.Engine.Call(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "call not found")
	}
	return c.JSON(http.StatusOK, snapshot)
}

// AnswerCall picks up a ringing call that is waiting for the owner.
func (s *APIV1Service) AnswerCall(c echo.Context) error {
	callID := c.Param("id")
	if err := s.Engine.AnswerCall(callID); err != nil {
		switch {
		case errors.Is(err, engine.ErrCallNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "call not found")
		case errors.Is(err, call.ErrInvalidTransition):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to answer call").SetInternal(err)
		}
	}
	snapshot, _ := s.Engine.Call(callID)
	return c.JSON(http.StatusOK, snapshot)
}

// EndCall hangs up a call. Ending an unknown or finished call is not an error.
func (s *APIV1Service) EndCall(c echo.Context) error {
	return c.JSON(http.StatusOK, EndCallResponse{Ended: s.Engine.EndCall(c.Param("id"))})
}
