package dto

import "time"

type ReadingDTO struct {
	DeviceName          string    `json:"deviceName" binding:"required,max=200"`
	Time                time.Time `json:"time" binding:"required"`
	Latitude            float64   `json:"latitude" binding:"min=-90,max=90"`
	Longitude           float64   `json:"longitude" binding:"min=-180,max=180"`
	Temperature         float64   `json:"temperature" binding:"min=-100,max=100"`
	AtmosphericPressure float64   `json:"atmosphericPressure" binding:"min=0"`
	MaxWindSpeed        float64   `json:"maxWindSpeed" binding:"min=0"`
	SolarRadiation      float64   `json:"solarRadiation" binding:"min=0"`
	VaporPressure       float64   `json:"vaporPressure" binding:"min=0"`
	Humidity            float64   `json:"humidity" binding:"min=0,max=100"`
	WindDirection       float64   `json:"windDirection" binding:"min=0,max=360"`
	Precipitation       float64   `json:"precipitation" binding:"min=0"`
}

type BatchReadingsDTO struct {
	Readings []ReadingDTO `json:"readings" binding:"required,min=1,max=500,dive"`
}

type UpdatePrecipitationDTO struct {
	Precipitation *float64 `json:"precipitation" binding:"required,min=0"`
}
