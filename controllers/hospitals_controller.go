package controllers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/medportal/medportalbackend/utils"
	"github.com/rs/zerolog"
)

type HospitalFinder interface {
	FindNearby(ctx context.Context, latitude, longitude string) (json.RawMessage, error)
}

// GET /api/nearest-hospitals?latitude=..&longitude=..
func NearestHospitals(finder HospitalFinder, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		lat, lon := c.Query("latitude"), c.Query("longitude")
		if _, ok := utils.ParseCoordinate(lat, 90); !ok {
			c.String(http.StatusBadRequest, "Invalid latitude")
			return
		}
		if _, ok := utils.ParseCoordinate(lon, 180); !ok {
			c.String(http.StatusBadRequest, "Invalid longitude")
			return
		}

		hospitals, err := finder.FindNearby(c.Request.Context(), lat, lon)
		if err != nil {
			log.Error().Err(err).Str("latitude", lat).Str("longitude", lon).Msg("hospital lookup failed")
			c.String(http.StatusInternalServerError, "Error fetching nearby hospitals")
			return
		}

		c.JSON(http.StatusOK, gin.H{"hospitals": hospitals})
	}
}
