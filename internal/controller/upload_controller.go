package controller

import (
	"document-hub-be/internal/dto"
	"document-hub-be/internal/pkg/serverutils"
	"document-hub-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IUploadController interface {
	RegisterRoutes(r fiber.Router)
	Upload(ctx *fiber.Ctx) error
}

type uploadController struct {
	service service.IUploadService
	auth    fiber.Handler
}

func NewUploadController(service service.IUploadService, jwtSecret string) IUploadController {
	return &uploadController{
		service: service,
		auth:    serverutils.JwtMiddleware(jwtSecret),
	}
}

func (c *uploadController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/upload/v1")
	h.Use(c.auth)
	h.Post("", c.Upload)
}

func (c *uploadController) Upload(ctx *fiber.Ctx) error {
	var req dto.DirectUploadRequest
	if err := ctx.BodyParser(&req); err != nil {
		return bodyError(err)
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Upload(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("File uploaded", res))
}
