package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/little-lingo/tutor_api/dto"
	"github.com/little-lingo/tutor_api/shared"
)

type SessionHandler struct {
	sessionSvc SessionServiceInterface
}

func NewSessionHandler(sessionSvc SessionServiceInterface) *SessionHandler {
	return &SessionHandler{sessionSvc: sessionSvc}
}

// @Summary Start session
// @Description Open a tutoring session for the authenticated device
// @Tags sessions
// @Accept json
// @Produce json
// @Security Bearer
// @Param startRequest body dto.StartSessionRequest false "Episode override"
// @Success 201 {object} shared.Response{data=model.ActiveSession}
// @Router /api/v1/sessions [post]
func (h *SessionHandler) StartSession(c *fiber.Ctx) error {
	deviceID := c.Locals(shared.DeviceID).(string)

	var req dto.StartSessionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return shared.NewBadRequestError(err, "Invalid request")
		}
	}

	session, err := h.sessionSvc.StartSession(c.UserContext(), deviceID, &req)
	if err != nil {
		return err
	}

	return shared.ResponseCreated(c, "Session started", session)
}

// @Summary Append turn
// @Description Record one utterance on the device's active session
// @Tags sessions
// @Accept json
// @Produce json
// @Security Bearer
// @Param turnRequest body dto.TurnRequest true "Utterance"
// @Success 200 {object} shared.Response{data=model.ActiveSession}
// @Router /api/v1/sessions/turns [post]
func (h *SessionHandler) AppendTurn(c *fiber.Ctx) error {
	deviceID := c.Locals(shared.DeviceID).(string)

	var req dto.TurnRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	session, err := h.sessionSvc.AppendTurn(c.UserContext(), deviceID, &req)
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, "Turn recorded", session)
}

// @Summary End session
// @Description Close the session and fan results out to user and episode stats
// @Tags sessions
// @Accept json
// @Produce json
// @Security Bearer
// @Param endRequest body dto.EndSessionRequest false "Session outcome"
// @Success 200 {object} shared.Response{data=model.ConversationTranscript}
// @Router /api/v1/sessions/end [post]
func (h *SessionHandler) EndSession(c *fiber.Ctx) error {
	deviceID := c.Locals(shared.DeviceID).(string)

	var req dto.EndSessionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return shared.NewBadRequestError(err, "Invalid request")
		}
	}

	transcript, err := h.sessionSvc.EndSession(c.UserContext(), deviceID, &req)
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, "Session ended", transcript)
}

// @Summary Current session
// @Description The authenticated device's active session
// @Tags sessions
// @Produce json
// @Security Bearer
// @Success 200 {object} shared.Response{data=model.ActiveSession}
// @Router /api/v1/sessions/current [get]
func (h *SessionHandler) GetCurrentSession(c *fiber.Ctx) error {
	deviceID := c.Locals(shared.DeviceID).(string)

	session, err := h.sessionSvc.GetSession(deviceID)
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, "Success", session)
}

// @Summary Active sessions
// @Tags sessions
// @Produce json
// @Success 200 {object} shared.Response{data=[]model.ActiveSession}
// @Router /api/v1/sessions/active [get]
func (h *SessionHandler) GetActiveSessions(c *fiber.Ctx) error {
	return shared.ResponseOK(c, "Success", h.sessionSvc.ActiveSessions())
}
