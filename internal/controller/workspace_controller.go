package controller

import (
	"io"

	"document-hub-be/internal/dto"
	"document-hub-be/internal/pkg/apperror"
	"document-hub-be/internal/pkg/serverutils"
	"document-hub-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IWorkspaceController interface {
	RegisterRoutes(r fiber.Router)
	CreateSession(ctx *fiber.Ctx) error
	RefreshSession(ctx *fiber.Ctx) error
	EndSession(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Search(ctx *fiber.Ctx) error
	Select(ctx *fiber.Ctx) error
	AddFiles(ctx *fiber.Ctx) error
	SetRemark(ctx *fiber.Ctx) error
	ShowItem(ctx *fiber.Ctx) error
	UploadAll(ctx *fiber.Ctx) error
}

type workspaceController struct {
	service service.IWorkspaceService
	auth    fiber.Handler
}

func NewWorkspaceController(service service.IWorkspaceService, jwtSecret string) IWorkspaceController {
	return &workspaceController{
		service: service,
		auth:    serverutils.JwtMiddleware(jwtSecret),
	}
}

func (c *workspaceController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/workspace/v1")
	h.Post("/session", c.CreateSession)

	// Everything else acts on the session named by the token.
	h.Post("/session/refresh", c.auth, c.RefreshSession)
	h.Delete("/session", c.auth, c.EndSession)
	h.Get("", c.auth, c.Show)
	h.Put("/search", c.auth, c.Search)
	h.Put("/selection", c.auth, c.Select)
	h.Post("/files", c.auth, c.AddFiles)
	h.Get("/items/:id", c.auth, c.ShowItem)
	h.Put("/items/:id/remark", c.auth, c.SetRemark)
	h.Post("/items/:id/upload", c.auth, c.UploadAll)
}

func itemParam(ctx *fiber.Ctx) (int, error) {
	id, err := ctx.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, apperror.Validation("itemParam", "Invalid checklist item id")
	}
	return id, nil
}

func bodyError(err error) error {
	return apperror.Wrap(apperror.KindValidation, "BodyParser", err)
}

func (c *workspaceController) CreateSession(ctx *fiber.Ctx) error {
	res, err := c.service.CreateSession(ctx.UserContext())
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create workspace session", res))
}

func (c *workspaceController) RefreshSession(ctx *fiber.Ctx) error {
	sessionId, err := serverutils.SessionID(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.RefreshSession(ctx.UserContext(), sessionId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success refresh workspace session", res))
}

func (c *workspaceController) EndSession(ctx *fiber.Ctx) error {
	sessionId, err := serverutils.SessionID(ctx)
	if err != nil {
		return err
	}

	if err := c.service.EndSession(ctx.UserContext(), sessionId); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success end workspace session", nil))
}

func (c *workspaceController) Show(ctx *fiber.Ctx) error {
	sessionId, err := serverutils.SessionID(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Show(ctx.UserContext(), sessionId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show workspace", res))
}

func (c *workspaceController) Search(ctx *fiber.Ctx) error {
	sessionId, err := serverutils.SessionID(ctx)
	if err != nil {
		return err
	}

	var req dto.SearchRequest
	if err := ctx.BodyParser(&req); err != nil {
		return bodyError(err)
	}

	res, err := c.service.Search(ctx.UserContext(), sessionId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success search checklist", res))
}

func (c *workspaceController) Select(ctx *fiber.Ctx) error {
	sessionId, err := serverutils.SessionID(ctx)
	if err != nil {
		return err
	}

	var req dto.SelectItemRequest
	if err := ctx.BodyParser(&req); err != nil {
		return bodyError(err)
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Select(ctx.UserContext(), sessionId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success select checklist item", res))
}

func (c *workspaceController) AddFiles(ctx *fiber.Ctx) error {
	sessionId, err := serverutils.SessionID(ctx)
	if err != nil {
		return err
	}

	form, err := ctx.MultipartForm()
	if err != nil {
		return apperror.Validation("AddFiles", "Expected a multipart form with a files field")
	}

	headers := form.File["files"]
	files := make([]service.IncomingFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return apperror.Wrap(apperror.KindInternal, "AddFiles", err)
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return apperror.Wrap(apperror.KindInternal, "AddFiles", err)
		}
		files = append(files, service.IncomingFile{Name: fh.Filename, Content: content})
	}

	res, err := c.service.AddFiles(ctx.UserContext(), sessionId, files)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success add files", res))
}

func (c *workspaceController) SetRemark(ctx *fiber.Ctx) error {
	sessionId, err := serverutils.SessionID(ctx)
	if err != nil {
		return err
	}
	itemId, err := itemParam(ctx)
	if err != nil {
		return err
	}

	var req dto.SetRemarkRequest
	if err := ctx.BodyParser(&req); err != nil {
		return bodyError(err)
	}
	req.ItemId = itemId

	res, err := c.service.SetRemark(ctx.UserContext(), sessionId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success set remark", res))
}

func (c *workspaceController) ShowItem(ctx *fiber.Ctx) error {
	sessionId, err := serverutils.SessionID(ctx)
	if err != nil {
		return err
	}
	itemId, err := itemParam(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.ShowItem(ctx.UserContext(), sessionId, itemId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show checklist item", res))
}

func (c *workspaceController) UploadAll(ctx *fiber.Ctx) error {
	sessionId, err := serverutils.SessionID(ctx)
	if err != nil {
		return err
	}
	itemId, err := itemParam(ctx)
	if err != nil {
		return err
	}

	var req dto.UploadItemRequest
	if err := ctx.BodyParser(&req); err != nil {
		return bodyError(err)
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}
	req.ItemId = itemId

	res, err := c.service.UploadAll(ctx.UserContext(), sessionId, &req)
	if err != nil {
		return err
	}

	// Per-file failures are part of a successful response.
	return ctx.JSON(serverutils.SuccessResponse("Upload batch finished", res))
}
