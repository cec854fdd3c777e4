package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/service"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// Paging holds list defaults: `page` is 0-based and `offset` is the page size.
type Paging struct {
	DefaultSize int
	MaxSize     int
}

func (p Paging) request(c *fiber.Ctx) service.PageRequest {
	size := c.QueryInt("offset", p.DefaultSize)
	if size <= 0 {
		size = p.DefaultSize
	}
	if size <= 0 {
		size = 20
	}
	if p.MaxSize > 0 && size > p.MaxSize {
		size = p.MaxSize
	}
	page := c.QueryInt("page", 0)
	if page < 0 {
		page = 0
	}
	return service.PageRequest{Page: page, Size: size}
}

func pageOf[T, R any](req service.PageRequest, res service.Paged[T], mapFn func(*T) R) dto.Page[R] {
	content := make([]R, 0, len(res.Items))
	for i := range res.Items {
		content = append(content, mapFn(&res.Items[i]))
	}
	return dto.Page[R]{Content: content, Page: req.Page, Size: req.Size, Total: res.Total}
}

func respond(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(dto.Envelope{Success: true, StatusCode: status, Data: data})
}

func ok(c *fiber.Ctx, data any) error {
	return respond(c, fiber.StatusOK, data)
}

// callerFrom builds the service caller from the authenticated principal.
// Anonymous requests get the zero caller.
func callerFrom(c *fiber.Ctx) service.Caller {
	p, found := auth.PrincipalFromContext(c)
	if !found {
		return service.Caller{Role: auth.RoleFromContext(c)}
	}
	return service.Caller{Role: p.Role, Email: p.Email, ExpertID: p.ExpertID}
}

func int64Param(c *fiber.Ctx, name string) (int64, error) {
	v, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil {
		return 0, apperrors.NewValidationError("invalid "+name, map[string]any{name: c.Params(name)})
	}
	return v, nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}
