// handler/weather_handler_test.go
package handler

import (
	"encoding/json"
	"go-identity-api/model"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetWeatherForecast(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/weatherforecast", nil)
	rec := httptest.NewRecorder()

	GetWeatherForecast(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var forecasts []model.WeatherForecast
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &forecasts))
	assert.Len(t, forecasts, 25)

	for _, f := range forecasts {
		assert.GreaterOrEqual(t, f.TemperatureC, -20)
		assert.LessOrEqual(t, f.TemperatureC, 55)
		assert.Equal(t, 32+f.TemperatureC*9/5, f.TemperatureF)
		assert.NotEmpty(t, f.Summary)
	}
}
