package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/little-lingo/tutor_api/dto"
	"github.com/little-lingo/tutor_api/shared"
)

type DeviceHandler struct {
	authSvc DeviceAuthServiceInterface
}

func NewDeviceHandler(authSvc DeviceAuthServiceInterface) *DeviceHandler {
	return &DeviceHandler{authSvc: authSvc}
}

// @Summary Register device
// @Description Mint a device id for a factory-fresh unit
// @Tags devices
// @Accept json
// @Produce json
// @Param registerRequest body dto.RegisterDeviceRequest false "Device metadata"
// @Success 201 {object} shared.Response{data=dto.RegisterDeviceResponse}
// @Router /api/v1/devices/register [post]
func (h *DeviceHandler) RegisterDevice(c *fiber.Ctx) error {
	var req dto.RegisterDeviceRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return shared.NewBadRequestError(err, "Invalid request")
		}
	}

	device, err := h.authSvc.RegisterDevice(c.UserContext(), &req)
	if err != nil {
		return err
	}

	return shared.ResponseCreated(c, "Device registered", dto.RegisterDeviceResponse{
		DeviceID:     device.DeviceID,
		Status:       device.Status,
		RegisteredAt: device.RegisteredAt.Format(time.RFC3339),
	})
}

// @Summary Generate claim token
// @Description Issue a short-lived one-time token for binding a device to an account
// @Tags devices
// @Accept json
// @Produce json
// @Param tokenRequest body dto.ClaimTokenRequest true "Account email"
// @Success 201 {object} shared.Response{data=dto.ClaimTokenResponse}
// @Router /api/v1/devices/claim-token [post]
func (h *DeviceHandler) GenerateClaimToken(c *fiber.Ctx) error {
	var req dto.ClaimTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}
	if err := dto.ValidateStruct(&req); err != nil {
		return err
	}

	plaintext, token, err := h.authSvc.GenerateClaimToken(c.UserContext(), req.Email)
	if err != nil {
		return err
	}

	return shared.ResponseCreated(c, "Claim token generated", dto.ClaimTokenResponse{
		ClaimToken: plaintext,
		ExpiresAt:  token.ExpiresAt.Format(time.RFC3339),
	})
}

// @Summary Claim device
// @Description Bind a registered device to the token's account
// @Tags devices
// @Accept json
// @Produce json
// @Param claimRequest body dto.ClaimDeviceRequest true "Device and claim token"
// @Success 200 {object} shared.Response{data=model.DeviceRegistration}
// @Router /api/v1/devices/claim [post]
func (h *DeviceHandler) ClaimDevice(c *fiber.Ctx) error {
	var req dto.ClaimDeviceRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	device, err := h.authSvc.ClaimDevice(c.UserContext(), &req)
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, "Device claimed", device)
}

// @Summary Authenticate device
// @Description Exchange a claimed device id for a 24h JWT
// @Tags devices
// @Accept json
// @Produce json
// @Param authRequest body dto.DeviceAuthRequest true "Device ID"
// @Success 200 {object} shared.Response{data=dto.DeviceAuthResponse}
// @Router /api/v1/devices/auth [post]
func (h *DeviceHandler) AuthenticateDevice(c *fiber.Ctx) error {
	var req dto.DeviceAuthRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	resp, err := h.authSvc.AuthenticateDevice(c.UserContext(), &req)
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, "Device authenticated", resp)
}

// @Summary Heartbeat
// @Description Refresh the authenticated device's liveness
// @Tags devices
// @Accept json
// @Produce json
// @Security Bearer
// @Param heartbeatRequest body dto.HeartbeatRequest false "Device state"
// @Success 200 {object} shared.Response
// @Router /api/v1/devices/heartbeat [post]
func (h *DeviceHandler) Heartbeat(c *fiber.Ctx) error {
	deviceID := c.Locals(shared.DeviceID).(string)

	var req dto.HeartbeatRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return shared.NewBadRequestError(err, "Invalid request")
		}
	}

	if err := h.authSvc.Heartbeat(c.UserContext(), deviceID, req.Firmware); err != nil {
		return err
	}

	return shared.ResponseOK(c, "Heartbeat recorded", nil)
}

// @Summary Active devices
// @Tags devices
// @Produce json
// @Success 200 {object} shared.Response{data=[]model.DeviceRegistration}
// @Router /api/v1/devices/active [get]
func (h *DeviceHandler) GetActiveDevices(c *fiber.Ctx) error {
	devices, err := h.authSvc.GetActiveDevices(c.UserContext())
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, "Success", devices)
}

// @Summary User devices
// @Tags devices
// @Produce json
// @Param email path string true "User email"
// @Success 200 {object} shared.Response{data=[]model.DeviceRegistration}
// @Router /api/v1/devices/user/{email} [get]
func (h *DeviceHandler) GetUserDevices(c *fiber.Ctx) error {
	devices, err := h.authSvc.GetUserDevices(c.UserContext(), c.Params("email"))
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, "Success", devices)
}

// @Summary Get device
// @Tags devices
// @Produce json
// @Param device_id path string true "Device ID"
// @Success 200 {object} shared.Response{data=model.DeviceRegistration}
// @Router /api/v1/devices/{device_id} [get]
func (h *DeviceHandler) GetDevice(c *fiber.Ctx) error {
	device, err := h.authSvc.GetDevice(c.UserContext(), c.Params("device_id"))
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, "Success", device)
}
