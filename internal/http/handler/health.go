package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bugscribe.app/bugscribe/internal/http/dto"
)

type HealthHandler struct {
	serviceName string
}

func NewHealthHandler(serviceName string) *HealthHandler {
	return &HealthHandler{serviceName: serviceName}
}

func (h *HealthHandler) Check(c *gin.Context) {
	c.JSON(http.StatusOK, dto.HealthResponse{Status: "healthy", Service: h.serviceName})
}
