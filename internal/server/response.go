package server

import "github.com/gofiber/fiber/v2"

// Response is the envelope of every API answer.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}

func sendSuccess(c *fiber.Ctx, data any) error {
	return c.Status(fiber.StatusOK).JSON(Response{Success: true, Data: data, Message: "success"})
}

func sendError(c *fiber.Ctx, status int, message string) error {
	if message == "" {
		message = "error"
	}
	return c.Status(status).JSON(Response{Success: false, Message: message})
}
