package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/satishkumarchandala/clean-India/internal/domain"
	"github.com/satishkumarchandala/clean-India/internal/service"
)

// Identity headers set by the authenticating proxy in front of this service.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

const callerKey = "caller"

// RequireCaller rejects requests without a valid identity and stores the
// caller in the request locals.
func RequireCaller(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Get(HeaderUserID))
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "Not authorized")
	}

	role := domain.Role(c.Get(HeaderUserRole))
	switch {
	case role == "":
		role = domain.RoleUser
	case role != domain.RoleUser && !role.IsStaff():
		return fiber.NewError(fiber.StatusUnauthorized, "Unknown role")
	}

	c.Locals(callerKey, service.Caller{UserID: id, Role: role})
	return c.Next()
}

func callerFrom(c *fiber.Ctx) service.Caller {
	caller, _ := c.Locals(callerKey).(service.Caller)
	return caller
}
