package rayid_test

import (
	"net/http/httptest"
	"testing"

	"media-sync/core/middleware/rayid"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp() *fiber.App {
	app := fiber.New()
	app.Use(rayid.New())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals(rayid.LocalsKey).(string))
	})
	return app
}

func TestRayID_Generated(t *testing.T) {
	resp, err := newApp().Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)

	id := resp.Header.Get(rayid.Header)
	_, err = uuid.Parse(id)
	assert.NoError(t, err)
}

func TestRayID_Propagated(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(rayid.Header, "upstream-id")
	resp, err := newApp().Test(req)
	require.NoError(t, err)
	assert.Equal(t, "upstream-id", resp.Header.Get(rayid.Header))
}
