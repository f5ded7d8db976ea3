package serverutils

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name string  `validate:"required"`
	Zoom float64 `validate:"gte=0,lte=23"`
}

func TestValidateRequest(t *testing.T) {
	assert.NoError(t, ValidateRequest(sample{Name: "a", Zoom: 3}))

	err := ValidateRequest(sample{Zoom: 40})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Name failed required")
	assert.Contains(t, err.Error(), "Zoom failed lte=23")
}

func TestErrorHandlerMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware())
	app.Get("/missing", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusNotFound, "nope") })
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("boom") })

	tests := []struct {
		path string
		code int
		msg  string
	}{
		{"/missing", 404, "nope"},
		{"/boom", 500, "boom"},
	}
	for _, tt := range tests {
		resp, err := app.Test(httptest.NewRequest("GET", tt.path, nil), -1)
		require.NoError(t, err)
		assert.Equal(t, tt.code, resp.StatusCode)

		var body BaseResponse[any]
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.False(t, body.Success)
		assert.Equal(t, tt.msg, body.Message)
	}
}
