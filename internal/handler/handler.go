package handler

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/arturoeanton/reliefchat/internal/middleware"
	"github.com/arturoeanton/reliefchat/internal/port"
	"github.com/gofiber/fiber/v3"
)

// decodeStrict decodes the request body into dst, rejecting unknown fields,
// trailing data and malformed JSON.
func decodeStrict(c fiber.Ctx, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(c.Body()))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return port.InvalidArgument("invalid request body")
	}
	if dec.More() {
		return port.InvalidArgument("invalid request body")
	}
	return nil
}

// requireCaller checks userID against the authenticated caller, when the
// chat token middleware is mounted.
func requireCaller(c fiber.Ctx, userID string) error {
	uc := middleware.GetUserContext(c)
	if uc == nil {
		return nil
	}
	if uc.UserID != userID {
		return port.ErrForbidden
	}
	return nil
}

// writeError maps the error taxonomy onto HTTP. Provider detail never reaches
// the caller; failMsg is the generic message for server-side failures.
func writeError(c fiber.Ctx, err error, failMsg string) error {
	switch {
	case errors.Is(err, port.ErrInvalidArgument):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, port.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing or invalid chat token"})
	case errors.Is(err, port.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "userId does not match the authenticated user"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": failMsg})
}
