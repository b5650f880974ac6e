package httpapi

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-dashboard/internal/overlay"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service, layers *overlay.LayerSet) {
	v1 := app.Group("/api/v1")

	v1.Get("/forecast", func(c *fiber.Ctx) error {
		req := forecastQuery{
			Query:       c.Query("q"),
			Granularity: strings.ToLower(c.Query("granularity", string(weather.Hourly))),
		}
		if req.Query == "" {
			req.Query = service.LastCity()
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		view, err := service.Forecast(c.UserContext(), req.Query, weather.Granularity(req.Granularity))
		if err != nil {
			switch {
			case errors.Is(err, weather.ErrLocationNotFound):
				return fiber.NewError(fiber.StatusNotFound, "location not found: "+req.Query)
			case errors.Is(err, weather.ErrEmptyQuery), errors.Is(err, weather.ErrUnknownGranularity):
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			default:
				return fiber.NewError(fiber.StatusBadGateway, "no forecast data available for "+req.Query)
			}
		}
		return c.JSON(view)
	})

	v1.Get("/weather/current", func(c *fiber.Ctx) error {
		var req currentQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		var (
			snapshot *weather.CurrentConditions
			ok       bool
		)
		if req.Lat != nil {
			snapshot, ok = service.Current(c.UserContext(), *req.Lat, *req.Lon)
		} else {
			snapshot, ok = service.CurrentByQuery(c.UserContext(), req.Query)
		}
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "no weather data for requested location")
		}
		return c.JSON(snapshot)
	})

	v1.Get("/settings/city", func(c *fiber.Ctx) error {
		return c.JSON(cityBody{City: service.LastCity()})
	})

	v1.Put("/settings/city", func(c *fiber.Ctx) error {
		var body cityBody
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid body")
		}
		if err := validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := service.SetLastCity(body.City); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to save city")
		}
		return c.JSON(body)
	})

	registerLayerRoutes(v1, layers)
}

func registerLayerRoutes(r fiber.Router, layers *overlay.LayerSet) {
	r.Get("/layers", func(c *fiber.Ctx) error {
		return c.JSON(layers.Layers())
	})

	r.Post("/layers/:id/enable", func(c *fiber.Ctx) error {
		if _, err := layers.Enable(overlay.LayerID(c.Params("id"))); err != nil {
			return layerError(err)
		}
		return c.JSON(layers.Layers())
	})

	r.Post("/layers/:id/disable", func(c *fiber.Ctx) error {
		if err := layers.Disable(overlay.LayerID(c.Params("id"))); err != nil {
			return layerError(err)
		}
		return c.JSON(layers.Layers())
	})

	r.Post("/layers/:id/toggle", func(c *fiber.Ctx) error {
		if _, err := layers.Toggle(overlay.LayerID(c.Params("id"))); err != nil {
			return layerError(err)
		}
		return c.JSON(layers.Layers())
	})

	r.Put("/layers/:id/opacity", func(c *fiber.Ctx) error {
		var body opacityBody
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid body")
		}
		if err := validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := layers.SetOpacity(overlay.LayerID(c.Params("id")), *body.Opacity); err != nil {
			return layerError(err)
		}
		return c.JSON(layers.Layers())
	})

	r.Get("/layers/:id/tiles/:z/:x/:y", func(c *fiber.Ctx) error {
		z, zerr := strconv.Atoi(c.Params("z"))
		x, xerr := strconv.Atoi(c.Params("x"))
		y, yerr := strconv.Atoi(trimPNG(c.Params("y")))
		if zerr != nil || xerr != nil || yerr != nil {
			return fiber.NewError(fiber.StatusBadRequest, "tile coordinates must be integers")
		}
		u, err := layers.TileURL(overlay.LayerID(c.Params("id")), z, x, y)
		if err != nil {
			return layerError(err)
		}
		return c.Redirect(u, fiber.StatusFound)
	})
}

func layerError(err error) error {
	switch {
	case errors.Is(err, overlay.ErrUnknownLayer), errors.Is(err, overlay.ErrLayerDisabled):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, overlay.ErrInvalidTile):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}

func trimPNG(s string) string {
	if len(s) > 4 && s[len(s)-4:] == ".png" {
		return s[:len(s)-4]
	}
	return s
}
