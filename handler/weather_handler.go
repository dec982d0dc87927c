package handler

import (
	"encoding/json"
	"go-identity-api/model"
	"math/rand"
	"net/http"
	"time"
)

var weatherSummaries = []string{
	"Freezing", "Bracing", "Chilly", "Cool", "Mild", "Warm", "Balmy", "Hot", "Sweltering", "Scorching",
}

// GetWeatherForecast godoc
// @Summary      Demo forecast endpoint
// @Description  Returns a random 25-day forecast; requires the Forecast.View permission
// @Tags         weather
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}  model.WeatherForecast
// @Failure      403  {object}  common.AppError
// @Router       /api/weatherforecast [get]
func GetWeatherForecast(w http.ResponseWriter, r *http.Request) {
	forecasts := make([]model.WeatherForecast, 0, 25)
	now := time.Now()
	for i := 1; i <= 25; i++ {
		c := rand.Intn(76) - 20 // -20..55
		forecasts = append(forecasts, model.WeatherForecast{
			Date:         now.AddDate(0, 0, i),
			TemperatureC: c,
			TemperatureF: 32 + c*9/5,
			Summary:      weatherSummaries[rand.Intn(len(weatherSummaries))],
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(forecasts)
}
