package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"docchat/internal/helpers"
	"docchat/internal/rag"
)

// RagHandler exposes the two boundary operations: document upload and session
// query.
type RagHandler struct {
	Pipeline       *rag.Pipeline
	MaxUploadBytes int64
}

func (h *RagHandler) Register(e *echo.Echo) {
	e.POST("/upload/", h.upload)
	e.POST("/query/", h.query)
}

func (h *RagHandler) upload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	if h.MaxUploadBytes > 0 && fh.Size > h.MaxUploadBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "file too large")
	}
	src, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read upload")
	}
	data, err := helpers.ReadAllAndClose(src, h.MaxUploadBytes)
	if err != nil {
		if errors.Is(err, helpers.ErrTooLarge) {
			return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "file too large")
		}
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read upload")
	}

	result, err := h.Pipeline.Ingest(c.Request().Context(), data, c.FormValue("password"))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "cannot process document")
	}
	return c.JSON(http.StatusOK, result)
}

func (h *RagHandler) query(c echo.Context) error {
	var req struct {
		SessionID string `json:"session_id"`
		QueryText string `json:"query_text"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.SessionID == "" || strings.TrimSpace(req.QueryText) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session_id and query_text are required")
	}

	answer, err := h.Pipeline.Query(c.Request().Context(), req.SessionID, req.QueryText)
	switch {
	case errors.Is(err, rag.ErrSessionNotFound):
		return echo.NewHTTPError(http.StatusBadRequest, "session expired or not found")
	case errors.Is(err, rag.ErrGenerationUnavailable):
		return echo.NewHTTPError(http.StatusBadGateway, "answer generation unavailable")
	case errors.Is(err, rag.ErrEmptyQuery):
		return echo.NewHTTPError(http.StatusBadRequest, "query_text is required")
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"answer": answer})
}
