package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/little-lingo/tutor_api/dto"
	"github.com/little-lingo/tutor_api/model"
	"github.com/little-lingo/tutor_api/shared"
)

type UserHandler struct {
	userSvc UserServiceInterface
}

func NewUserHandler(userSvc UserServiceInterface) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// @Summary Create user
// @Description Register a new learner profile
// @Tags users
// @Accept json
// @Produce json
// @Param createRequest body dto.CreateUserRequest true "User profile"
// @Success 201 {object} shared.Response{data=model.EnhancedUser}
// @Router /api/v1/users [post]
func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}
	if err := dto.ValidateStruct(&req); err != nil {
		return err
	}

	user, err := h.userSvc.CreateUser(c.UserContext(), &req)
	if err != nil {
		return err
	}

	return shared.ResponseCreated(c, "User created", user)
}

// @Summary Get user
// @Description Get a learner profile by email
// @Tags users
// @Produce json
// @Param email path string true "User email"
// @Success 200 {object} shared.Response{data=model.EnhancedUser}
// @Router /api/v1/users/{email} [get]
func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	user, err := h.userSvc.GetUserByEmail(c.UserContext(), c.Params("email"))
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, "Success", user)
}

// @Summary Get user by device
// @Description Get the learner profile owning a device
// @Tags users
// @Produce json
// @Param device_id path string true "Device ID"
// @Success 200 {object} shared.Response{data=model.EnhancedUser}
// @Router /api/v1/users/by-device/{device_id} [get]
func (h *UserHandler) GetUserByDevice(c *fiber.Ctx) error {
	user, err := h.userSvc.GetUserByDeviceID(c.UserContext(), c.Params("device_id"))
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, "Success", user)
}

// @Summary Update progress
// @Description Move the learner to a season/episode position
// @Tags users
// @Accept json
// @Produce json
// @Param email path string true "User email"
// @Param progressRequest body dto.UpdateProgressRequest true "Progress"
// @Success 200 {object} shared.Response{data=model.EnhancedUser}
// @Router /api/v1/users/{email}/progress [put]
func (h *UserHandler) UpdateProgress(c *fiber.Ctx) error {
	var req dto.UpdateProgressRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	user, err := h.userSvc.UpdateProgress(c.UserContext(), c.Params("email"), &req)
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, "Progress updated", user)
}

// @Summary Add learning data
// @Description Merge a session's words, topics and time into the learner
// @Tags users
// @Accept json
// @Produce json
// @Param email path string true "User email"
// @Param learningRequest body dto.AddLearningDataRequest true "Learning data"
// @Success 200 {object} shared.Response{data=model.EnhancedUser}
// @Router /api/v1/users/{email}/learning [post]
func (h *UserHandler) AddLearningData(c *fiber.Ctx) error {
	var req dto.AddLearningDataRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	user, err := h.userSvc.AddLearningData(c.UserContext(), c.Params("email"), &req)
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, "Learning data added", user)
}

// @Summary List users
// @Description List all learners, optionally filtered by status
// @Tags users
// @Produce json
// @Param status query string false "User status filter"
// @Success 200 {object} shared.Response{data=[]model.EnhancedUser}
// @Router /api/v1/users [get]
func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	if status := c.Query("status"); status != "" {
		users, err := h.userSvc.GetUsersByStatus(c.UserContext(), model.UserStatus(status))
		if err != nil {
			return err
		}
		return shared.ResponseOK(c, "Success", users)
	}

	users, err := h.userSvc.GetAllUsers(c.UserContext())
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, "Success", users)
}

// @Summary User analytics
// @Description Get the learner's report card
// @Tags users
// @Produce json
// @Param email path string true "User email"
// @Success 200 {object} shared.Response{data=dto.UserAnalyticsResponse}
// @Router /api/v1/users/{email}/analytics [get]
func (h *UserHandler) GetUserAnalytics(c *fiber.Ctx) error {
	analytics, err := h.userSvc.GetUserAnalytics(c.UserContext(), c.Params("email"))
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, "Success", analytics)
}

// @Summary Deactivate user
// @Description Mark the learner inactive, keeping the profile
// @Tags users
// @Produce json
// @Param email path string true "User email"
// @Success 200 {object} shared.Response
// @Router /api/v1/users/{email} [delete]
func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	if err := h.userSvc.DeleteUser(c.UserContext(), c.Params("email")); err != nil {
		return err
	}

	return shared.ResponseOK(c, "User deactivated", nil)
}

// parseLimit clamps the limit query parameter into [1,100], defaulting
// when missing or malformed.
func parseLimit(c *fiber.Ctx, def int) int {
	raw := c.Query("limit")
	if raw == "" {
		return def
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return def
	}
	if limit > 100 {
		return 100
	}
	return limit
}
