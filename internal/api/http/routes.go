package httpapi

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-history/internal/export"
	"github.com/i474232898/weather-history/internal/weather"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app. The current-conditions
// route is only registered when current is non-nil.
func RegisterRoutes(app *fiber.App, service *weather.Service, current *weather.CurrentService) {
	app.Get("/api/weather", func(c *fiber.Ctx) error {
		records, err := service.ListHistory(c.UserContext())
		if err != nil {
			return toHTTPError(err, "", "Error fetching history")
		}
		return c.JSON(records)
	})

	app.Post("/api/weather", func(c *fiber.Ctx) error {
		var req weather.SearchRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "request body must be a JSON object with location, startDate and endDate")
		}

		rec, err := service.CreateSearch(c.UserContext(), req)
		if err != nil {
			return toHTTPError(err, strings.TrimSpace(req.Location), "Error creating record")
		}
		return c.Status(fiber.StatusCreated).JSON(rec)
	})

	if current != nil {
		app.Get("/api/weather/current", func(c *fiber.Ctx) error {
			q := weather.CurrentQuery{Location: c.Query("location")}

			for _, p := range []struct {
				name string
				dst  **float64
			}{{"lat", &q.Latitude}, {"lon", &q.Longitude}} {
				raw := strings.TrimSpace(c.Query(p.name))
				if raw == "" {
					continue
				}
				v, err := strconv.ParseFloat(raw, 64)
				if err != nil {
					return fiber.NewError(fiber.StatusBadRequest, p.name+" must be a number")
				}
				*p.dst = &v
			}

			cur, err := current.Lookup(c.UserContext(), q)
			if err != nil {
				return toHTTPError(err, q.String(), "Error fetching current weather")
			}
			return c.JSON(cur)
		})
	}

	app.Get("/api/weather/export", func(c *fiber.Ctx) error {
		format, err := export.ParseFormat(c.Query("format"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		records, err := service.ListHistory(c.UserContext())
		if err != nil {
			return toHTTPError(err, "", "Error exporting history")
		}

		var buf bytes.Buffer
		if err := export.Write(&buf, format, records); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Error exporting history")
		}

		c.Attachment(format.FileName())
		c.Set(fiber.HeaderContentType, format.ContentType())
		return c.Send(buf.Bytes())
	})

	app.Put("/api/weather/:id", func(c *fiber.Ctx) error {
		var req noteRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "request body must be a JSON object with userNote")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "userNote is required")
		}

		rec, err := service.UpdateNote(c.UserContext(), c.Params("id"), *req.UserNote)
		if err != nil {
			return toHTTPError(err, "", "Error updating record")
		}
		return c.JSON(rec)
	})

	app.Delete("/api/weather/:id", func(c *fiber.Ctx) error {
		if err := service.DeleteRecord(c.UserContext(), c.Params("id")); err != nil {
			return toHTTPError(err, "", "Error deleting record")
		}
		return c.JSON(fiber.Map{
			"message": "Record deleted successfully",
		})
	})
}

// noteRequest is the update body. Only userNote is read; other fields are ignored.
// An empty string clears the note.
type noteRequest struct {
	UserNote *string `json:"userNote" validate:"required"`
}
