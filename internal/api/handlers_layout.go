package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"fiona/internal/domain"
	"fiona/internal/service"
)

// LayoutHandler serves the layout and block endpoints.
type LayoutHandler struct {
	layouts *service.LayoutService
}

func NewLayoutHandler(layouts *service.LayoutService) LayoutHandler {
	return LayoutHandler{layouts: layouts}
}

// HandleGetLayout returns a project's normalized layout, or a default
// layout for projects that were never saved.
func (h LayoutHandler) HandleGetLayout(c echo.Context) error {
	layout, err := h.layouts.GetLayout(c.QueryParam("project"))
	if err != nil {
		return wrapServiceError("layout", c.QueryParam("project"), err)
	}
	return c.JSON(http.StatusOK, layout)
}

type saveLayoutRequest struct {
	Project string         `json:"project"`
	Layout  *domain.Layout `json:"layout"`
}

// HandleSaveLayout replaces a project's layout wholesale.
func (h LayoutHandler) HandleSaveLayout(c echo.Context) error {
	var req saveLayoutRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("malformed layout payload", err)
	}
	if req.Layout == nil {
		return NewBadRequestError("layout is required", nil)
	}
	if req.Project != "" {
		req.Layout.Project = req.Project
	}

	if err := h.layouts.SaveLayout(c.Request().Context(), req.Layout); err != nil {
		return wrapServiceError("layout", req.Layout.Project, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"project": req.Layout.Project,
	})
}

type blockRequest struct {
	Project   string             `json:"project"`
	Operation string             `json:"operation"`
	Block     *domain.Block      `json:"block"`
	BlockID   string             `json:"block_id"`
	Updates   *domain.BlockPatch `json:"updates"`
}

// HandleBlock dispatches add, update, and delete block operations.
func (h LayoutHandler) HandleBlock(c echo.Context) error {
	var req blockRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("malformed block payload", err)
	}
	ctx := c.Request().Context()

	switch req.Operation {
	case "add":
		if req.Block == nil {
			return NewBadRequestError("block is required for add", nil)
		}
		block, err := h.layouts.AddBlock(ctx, req.Project, *req.Block)
		if err != nil {
			return wrapServiceError("block", req.Block.ID, err)
		}
		return c.JSON(http.StatusOK, map[string]any{"success": true, "block": block})

	case "update":
		if req.BlockID == "" {
			return NewBadRequestError("block_id is required for update", nil)
		}
		patch := domain.BlockPatch{}
		if req.Updates != nil {
			patch = *req.Updates
		}
		block, err := h.layouts.UpdateBlock(ctx, req.Project, req.BlockID, patch)
		if err != nil {
			return wrapServiceError("block", req.BlockID, err)
		}
		return c.JSON(http.StatusOK, map[string]any{"success": true, "block": block})

	case "delete":
		if req.BlockID == "" {
			return NewBadRequestError("block_id is required for delete", nil)
		}
		if err := h.layouts.DeleteBlock(ctx, req.Project, req.BlockID); err != nil {
			return wrapServiceError("block", req.BlockID, err)
		}
		return c.JSON(http.StatusOK, map[string]any{"success": true})

	default:
		return NewBadRequestError("unknown operation: "+req.Operation, nil)
	}
}

// HandleProjects lists the known project names.
func (h LayoutHandler) HandleProjects(c echo.Context) error {
	projects, err := h.layouts.ListProjects()
	if err != nil {
		return NewInternalError("list projects failed", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"projects": projects})
}
