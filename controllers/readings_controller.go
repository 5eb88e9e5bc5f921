package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stationlab/weatherapi/database"
	"github.com/stationlab/weatherapi/dto"
	"github.com/stationlab/weatherapi/models"
	"github.com/stationlab/weatherapi/utils"
)

const (
	defaultPrecipitationMonths = 5
	maxPrecipitationMonths     = 120
)

func toReading(body dto.ReadingDTO) models.Reading {
	return models.Reading{
		DeviceName:          utils.NormalizeDeviceName(body.DeviceName),
		Time:                body.Time.UTC(),
		Latitude:            body.Latitude,
		Longitude:           body.Longitude,
		Temperature:         body.Temperature,
		AtmosphericPressure: body.AtmosphericPressure,
		MaxWindSpeed:        body.MaxWindSpeed,
		SolarRadiation:      body.SolarRadiation,
		VaporPressure:       body.VaporPressure,
		Humidity:            body.Humidity,
		WindDirection:       body.WindDirection,
		Precipitation:       body.Precipitation,
	}
}

func bindReading(c *gin.Context) (models.Reading, bool) {
	var body dto.ReadingDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return models.Reading{}, false
	}
	r := toReading(body)
	if r.DeviceName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "deviceName cannot be empty"})
		return models.Reading{}, false
	}
	return r, true
}

// POST /readings
func CreateReading(readings database.ReadingStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		r, ok := bindReading(c)
		if !ok {
			return
		}

		id, err := readings.Insert(c.Request.Context(), &r)
		if err != nil {
			internalError(c, "insert reading", err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{"id": id})
	}
}

// POST /readings/batch
func CreateReadings(readings database.ReadingStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.BatchReadingsDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		docs := make([]models.Reading, 0, len(body.Readings))
		for i, item := range body.Readings {
			r := toReading(item)
			if r.DeviceName == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "deviceName cannot be empty", "index": i})
				return
			}
			docs = append(docs, r)
		}

		ids, err := readings.InsertMany(c.Request.Context(), docs)
		if err != nil {
			internalError(c, "insert readings", err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{"ids": ids, "count": len(ids)})
	}
}

// GET /readings
func ListReadings(readings database.ReadingStore, limits utils.QueryLimits) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, limit := limits.Page(c.Query("page"), c.Query("limit"))

		from, err := utils.ParseTimeQuery(c.Query("from"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from"})
			return
		}
		to, err := utils.ParseTimeQuery(c.Query("to"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to"})
			return
		}
		if from != nil && to != nil && from.After(*to) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must not be after to"})
			return
		}

		filter := database.ReadingFilter{
			DeviceName: utils.NormalizeDeviceName(c.Query("device")),
			From:       from,
			To:         to,
		}
		items, total, err := readings.List(c.Request.Context(), filter, page, limit)
		if err != nil {
			internalError(c, "list readings", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"items": items,
			"page":  page,
			"limit": limit,
			"total": total,
		})
	}
}

// GET /readings/:id
func GetReading(readings database.ReadingStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseObjectID(c, "reading")
		if !ok {
			return
		}

		r, err := readings.FindByID(c.Request.Context(), id)
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "reading not found"})
			return
		}
		if err != nil {
			internalError(c, "get reading", err)
			return
		}

		c.JSON(http.StatusOK, r)
	}
}

// GET /readings/station?device=&at=
func GetStationReading(readings database.ReadingStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		device := utils.NormalizeDeviceName(c.Query("device"))
		at, err := utils.ParseTimeQuery(c.Query("at"))
		if device == "" || err != nil || at == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "device and at (RFC 3339) are required"})
			return
		}

		r, err := readings.FindAt(c.Request.Context(), device, *at)
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "reading not found"})
			return
		}
		if err != nil {
			internalError(c, "get station reading", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"deviceName":          r.DeviceName,
			"time":                r.Time,
			"temperature":         r.Temperature,
			"atmosphericPressure": r.AtmosphericPressure,
			"solarRadiation":      r.SolarRadiation,
			"precipitation":       r.Precipitation,
		})
	}
}

// GET /readings/max-precipitation?device=&months=
func GetMaxPrecipitation(readings database.ReadingStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		device := utils.NormalizeDeviceName(c.Query("device"))
		if device == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "device is required"})
			return
		}
		months := utils.ParseIntDefault(c.Query("months"), defaultPrecipitationMonths)
		if months < 1 || months > maxPrecipitationMonths {
			c.JSON(http.StatusBadRequest, gin.H{"error": "months must be between 1 and 120"})
			return
		}
		since := time.Now().UTC().AddDate(0, -months, 0)

		r, err := readings.MaxPrecipitation(c.Request.Context(), device, since)
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no readings for device in range"})
			return
		}
		if err != nil {
			internalError(c, "max precipitation", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"deviceName":    r.DeviceName,
			"precipitation": r.Precipitation,
			"time":          r.Time,
			"since":         since,
		})
	}
}

// GET /readings/max-temperature?from=&to=
func GetMaxTemperatures(readings database.ReadingStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		from, to, ok := requiredRange(c)
		if !ok {
			return
		}

		items, err := readings.MaxTemperatureByDevice(c.Request.Context(), from, to)
		if err != nil {
			internalError(c, "max temperature", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"items": items})
	}
}

// PUT /readings/:id
func ReplaceReading(readings database.ReadingStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseObjectID(c, "reading")
		if !ok {
			return
		}
		r, ok := bindReading(c)
		if !ok {
			return
		}

		matched, err := readings.Replace(c.Request.Context(), id, &r)
		if err != nil {
			internalError(c, "replace reading", err)
			return
		}
		if matched == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "reading not found"})
			return
		}

		c.JSON(http.StatusOK, r)
	}
}

// PATCH /readings/:id/precipitation
func UpdatePrecipitation(readings database.ReadingStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseObjectID(c, "reading")
		if !ok {
			return
		}

		var body dto.UpdatePrecipitationDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		matched, err := readings.SetPrecipitation(c.Request.Context(), id, *body.Precipitation)
		if err != nil {
			internalError(c, "update precipitation", err)
			return
		}
		if matched == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "reading not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// DELETE /readings/:id
func DeleteReading(readings database.ReadingStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseObjectID(c, "reading")
		if !ok {
			return
		}

		deleted, err := readings.Delete(c.Request.Context(), id)
		if err != nil {
			internalError(c, "delete reading", err)
			return
		}
		if deleted == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "reading not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
