package api

import (
	"net/http"
	"os"

	"github.com/labstack/echo/v4"

	"fiona/internal/service"
)

// MediaHandler serves image uploads and project asset files.
type MediaHandler struct {
	layouts *service.LayoutService
}

func NewMediaHandler(layouts *service.LayoutService) MediaHandler {
	return MediaHandler{layouts: layouts}
}

// HandleUpload stores a multipart image upload and returns its asset URL.
func (h MediaHandler) HandleUpload(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return NewBadRequestError("file is required", err)
	}
	project := c.FormValue("project")
	filename := c.FormValue("filename")
	if filename == "" {
		filename = file.Filename
	}

	src, err := file.Open()
	if err != nil {
		return NewBadRequestError("unreadable upload", err)
	}
	defer src.Close()

	url, err := h.layouts.SaveImage(project, filename, src)
	if err != nil {
		return NewBadRequestError("upload rejected", err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success":  true,
		"url":      url,
		"filename": filename,
	})
}

// HandleAsset serves a stored media file.
func (h MediaHandler) HandleAsset(c echo.Context) error {
	path, err := h.layouts.MediaPath(c.Param("project"), c.Param("filename"))
	if err != nil {
		return NewBadRequestError("invalid asset path", err)
	}
	if _, err := os.Stat(path); err != nil {
		return NewNotFoundError("asset", c.Param("filename"))
	}
	return c.File(path)
}
