package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/tailrisk/internal/config"
	"github.com/aristath/tailrisk/internal/modules/montecarlo"
)

func TestRegisterRoutes(t *testing.T) {
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	handler := NewHandler(montecarlo.NewService(config.SimulationConfig{}, logger), logger)

	router := chi.NewRouter()
	assert.NotPanics(t, func() {
		handler.RegisterRoutes(router)
	}, "RegisterRoutes should not panic")

	var routes []string
	err := chi.Walk(router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, method+" "+strings.TrimSuffix(route, "/"))
		return nil
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		"POST /risk/simulate/single",
		"POST /risk/simulate/portfolio",
		"POST /risk/estimate",
		"POST /risk/bootstrap",
	}, routes)
}
