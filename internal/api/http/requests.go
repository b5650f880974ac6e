package httpapi

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// forecastQuery holds query parameters for the forecast endpoint.
type forecastQuery struct {
	Query       string `validate:"required"`
	Granularity string `validate:"required,oneof=hourly daily weekly monthly yearly"`
}

// currentQuery identifies a location either by coordinates or by free text.
type currentQuery struct {
	Lat   *float64 `validate:"omitempty,gte=-90,lte=90"`
	Lon   *float64 `validate:"omitempty,gte=-180,lte=180"`
	Query string   `validate:"required_without=Lat"`
}

func (q *currentQuery) bind(c *fiber.Ctx) error {
	q.Query = c.Query("q")

	if latStr, lonStr := c.Query("lat"), c.Query("lon"); latStr != "" || lonStr != "" {
		if latStr == "" || lonStr == "" {
			return errors.New("lat and lon must be given together")
		}
		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			return errors.New("lat must be a number")
		}
		lon, err := strconv.ParseFloat(lonStr, 64)
		if err != nil {
			return errors.New("lon must be a number")
		}
		q.Lat, q.Lon = &lat, &lon
	}

	return validate.Struct(q)
}

type cityBody struct {
	City string `json:"city" validate:"required,max=200"`
}

type opacityBody struct {
	Opacity *float64 `json:"opacity" validate:"required,gte=0,lte=100"`
}
