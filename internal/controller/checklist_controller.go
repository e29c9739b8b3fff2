package controller

import (
	"document-hub-be/internal/pkg/serverutils"
	"document-hub-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChecklistController interface {
	RegisterRoutes(r fiber.Router)
	GetAll(ctx *fiber.Ctx) error
}

type checklistController struct {
	service service.IWorkspaceService
}

func NewChecklistController(service service.IWorkspaceService) IChecklistController {
	return &checklistController{service: service}
}

func (c *checklistController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/checklist/v1")
	h.Get("/items", c.GetAll)
}

func (c *checklistController) GetAll(ctx *fiber.Ctx) error {
	res, err := c.service.GetCatalog(ctx.UserContext())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get checklist", res))
}
