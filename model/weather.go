package model

import "time"

// WeatherForecast is the payload of the demo forecast endpoint.
type WeatherForecast struct {
	Date         time.Time `json:"date"`
	TemperatureC int       `json:"temperature_c"`
	TemperatureF int       `json:"temperature_f"`
	Summary      string    `json:"summary"`
}
