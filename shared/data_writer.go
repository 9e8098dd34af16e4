package shared

import (
	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
)

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

var jsonAPI = sonic.Config{
	UseNumber:        false,
	EscapeHTML:       false,
	SortMapKeys:      false,
	CompactMarshaler: true,
	NoNullSliceOrMap: true,
}.Froze()

func ResponseJSON(c *fiber.Ctx, httpCode int, message string, data interface{}) error {
	body, err := jsonAPI.Marshal(Response{
		Code:    httpCode,
		Message: message,
		Data:    data,
	})
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "application/json; charset=utf-8")
	return c.Status(httpCode).Send(body)
}

func ResponseOK(c *fiber.Ctx, message string, data interface{}) error {
	return ResponseJSON(c, fiber.StatusOK, message, data)
}

func ResponseCreated(c *fiber.Ctx, message string, data interface{}) error {
	return ResponseJSON(c, fiber.StatusCreated, message, data)
}

// ResponseError renders the structured error body the API guarantees:
// {error, message} plus the field/value of a validation failure or the
// identifying context of a not-found.
func ResponseError(c *fiber.Ctx, appErr *AppError) error {
	body := map[string]interface{}{
		"error":   appErr.ErrorType,
		"message": appErr.Message,
	}
	if appErr.Field != "" {
		body["field"] = appErr.Field
		body["value"] = appErr.Value
	}
	for k, v := range appErr.Context {
		body[k] = v
	}

	raw, err := jsonAPI.Marshal(body)
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "application/json; charset=utf-8")
	return c.Status(appErr.StatusCode).Send(raw)
}
