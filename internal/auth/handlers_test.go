package auth

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func newIssueApp(secret string) *fiber.App {
	app := fiber.New()
	passAdmin := func(c *fiber.Ctx) error { return c.Next() }
	RegisterRoutes(app, secret, passAdmin)
	app.Get("/protected", RiderMiddleware(secret), func(c *fiber.Ctx) error {
		id, _ := c.Locals("telegram_id").(int64)
		return c.JSON(fiber.Map{"telegram_id": id})
	})
	return app
}

func TestTokenIssueRoundTrip(t *testing.T) {
	app := newIssueApp("secret")

	req := httptest.NewRequest("POST", "/auth/token", strings.NewReader(`{"telegram_id": 42}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("issue request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var issued struct {
		Token string `json:"token"`
	}
	body, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(body, &issued); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if issued.Token == "" {
		t.Fatalf("expected a token in the response")
	}

	protReq := httptest.NewRequest("GET", "/protected", nil)
	protReq.Header.Set("Authorization", "Bearer "+issued.Token)
	resp, err = app.Test(protReq)
	if err != nil {
		t.Fatalf("protected request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("issued token rejected, got %d", resp.StatusCode)
	}

	var claims struct {
		TelegramID int64 `json:"telegram_id"`
	}
	body, _ = io.ReadAll(resp.Body)
	if err := json.Unmarshal(body, &claims); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if claims.TelegramID != 42 {
		t.Fatalf("expected telegram id 42 in claims, got %d", claims.TelegramID)
	}
}

func TestTokenIssueValidation(t *testing.T) {
	app := newIssueApp("secret")

	req := httptest.NewRequest("POST", "/auth/token", strings.NewReader(`{"telegram_id": 0}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("issue request: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for missing telegram id, got %d", resp.StatusCode)
	}

	req = httptest.NewRequest("POST", "/auth/token", strings.NewReader(`{bad`))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("issue request: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for bad body, got %d", resp.StatusCode)
	}
}
