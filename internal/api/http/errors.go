package httpapi

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-history/internal/weather"
)

// ErrorHandler renders every error as {"error": true, "message": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}

// toHTTPError maps the domain error taxonomy onto HTTP statuses. fallback is the
// message used for 500s so internals never reach the client.
func toHTTPError(err error, query, fallback string) error {
	switch {
	case errors.Is(err, weather.ErrBadRequest):
		return fiber.NewError(fiber.StatusBadRequest, badRequestMessage(err))
	case errors.Is(err, weather.ErrLocationNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Could not find location: "+query)
	case errors.Is(err, weather.ErrRecordNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Record not found")
	case errors.Is(err, weather.ErrUpstream):
		return fiber.NewError(fiber.StatusInternalServerError, "Error fetching weather data.")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, fallback)
	}
}

// badRequestMessage keeps only the validation detail after the "bad request: " marker.
func badRequestMessage(err error) string {
	msg := err.Error()
	marker := weather.ErrBadRequest.Error() + ": "
	if i := strings.Index(msg, marker); i >= 0 {
		return msg[i+len(marker):]
	}
	return msg
}
