package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Reading is one set of measurements reported by a weather station.
type Reading struct {
	ID                  bson.ObjectID `bson:"_id,omitempty" json:"id"`
	DeviceName          string        `bson:"deviceName" json:"deviceName"`
	Time                time.Time     `bson:"time" json:"time"`
	Latitude            float64       `bson:"latitude" json:"latitude"`
	Longitude           float64       `bson:"longitude" json:"longitude"`
	Temperature         float64       `bson:"temperature" json:"temperature"`                 // °C
	AtmosphericPressure float64       `bson:"atmosphericPressure" json:"atmosphericPressure"` // kPa
	MaxWindSpeed        float64       `bson:"maxWindSpeed" json:"maxWindSpeed"`               // m/s
	SolarRadiation      float64       `bson:"solarRadiation" json:"solarRadiation"`           // W/m2
	VaporPressure       float64       `bson:"vaporPressure" json:"vaporPressure"`             // kPa
	Humidity            float64       `bson:"humidity" json:"humidity"`                       // %
	WindDirection       float64       `bson:"windDirection" json:"windDirection"`             // degrees
	Precipitation       float64       `bson:"precipitation" json:"precipitation"`             // mm/h
}

// StationMax is one row of the per-station maximum temperature aggregation.
type StationMax struct {
	DeviceName  string    `bson:"_id" json:"deviceName"`
	Temperature float64   `bson:"temperature" json:"temperature"`
	Time        time.Time `bson:"time" json:"time"`
}
