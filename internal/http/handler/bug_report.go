package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"bugscribe.app/bugscribe/common/id"
	"bugscribe.app/bugscribe/internal/generator"
	"bugscribe.app/bugscribe/internal/http/dto"
	"bugscribe.app/bugscribe/internal/service"
)

const (
	CodeInvalidInput     = "invalid_input"
	CodeNoResult         = "no_result"
	CodeGenerationFailed = "generation_failed"
	CodeInternal         = "internal_error"
)

type BugReportHandlerConfig struct {
	MaxInputLength    int           // 0 disables the length check
	GenerationTimeout time.Duration // 0 leaves the request context untouched
}

type BugReportHandler struct {
	service service.BugReportService
	cfg     BugReportHandlerConfig
}

func NewBugReportHandler(service service.BugReportService, cfg BugReportHandlerConfig) *BugReportHandler {
	return &BugReportHandler{
		service: service,
		cfg:     cfg,
	}
}

func (h *BugReportHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateBugReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid bug report request", "error", err)
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error(), Code: CodeInvalidInput})
		return
	}

	if strings.TrimSpace(req.UserInput) == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "user_input cannot be empty", Code: CodeInvalidInput})
		return
	}

	if h.cfg.MaxInputLength > 0 && utf8.RuneCountInString(req.UserInput) > h.cfg.MaxInputLength {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: fmt.Sprintf("user_input exceeds %d characters", h.cfg.MaxInputLength),
			Code:  CodeInvalidInput,
		})
		return
	}

	if h.cfg.GenerationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.cfg.GenerationTimeout)
		defer cancel()
	}

	result, err := h.service.Process(ctx, req.UserInput)
	if err != nil {
		var genErr *generator.GenerationError
		switch {
		case errors.Is(err, service.ErrEmptyInput):
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "user_input cannot be empty", Code: CodeInvalidInput})
		case errors.As(err, &genErr):
			slog.ErrorContext(ctx, "bug report generation failed", "error", err, "attempts", genErr.Attempts)
			c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: err.Error(), Code: CodeGenerationFailed})
		default:
			slog.ErrorContext(ctx, "failed to process bug report", "error", err)
			c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to process bug report", Code: CodeInternal})
		}
		return
	}

	if result == nil {
		c.JSON(http.StatusBadGateway, dto.ErrorResponse{
			Error: "failed to generate bug report, please try again",
			Code:  CodeNoResult,
		})
		return
	}

	c.JSON(http.StatusOK, dto.BugReportResponse{
		ID:              id.String(result.ID),
		Title:           result.Report.Title,
		Description:     result.Report.Description,
		Steps:           result.Report.Steps,
		ExpectedResult:  result.Report.ExpectedResult,
		ActualResult:    result.Report.ActualResult,
		FormattedReport: result.Formatted,
	})
}
