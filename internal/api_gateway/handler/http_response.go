package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/shop-backoffice-ledger/internal/api_gateway/middleware"
)

// Response is the envelope of every JSON answer of the API
type Response struct {
	Data          interface{} `json:"data,omitempty"`
	Error         *ErrorInfo  `json:"error,omitempty"`
	CorrelationID string      `json:"correlation_id,omitempty"`
	Meta          *MetaInfo   `json:"meta,omitempty"`
}

type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MetaInfo describes the page returned by a list endpoint
type MetaInfo struct {
	Page       int `json:"page,omitempty"`
	PerPage    int `json:"per_page,omitempty"`
	TotalPages int `json:"total_pages,omitempty"`
	TotalItems int `json:"total_items,omitempty"`
}

func newPageMeta(page, perPage, totalItems int) *MetaInfo {
	totalPages := 1
	if perPage > 0 {
		totalPages = (totalItems + perPage - 1) / perPage
	}
	return &MetaInfo{
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages,
		TotalItems: totalItems,
	}
}

// errorCode turns a status into its upper snake case name, e.g. NOT_FOUND
func errorCode(status int) string {
	return strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))
}

func respond(c *gin.Context, status int, resp Response) {
	resp.CorrelationID = middleware.GetCorrelationID(c)
	c.JSON(status, resp)
}

func respondError(c *gin.Context, status int, message, fallback string) {
	if message == "" {
		message = fallback
	}
	respond(c, status, Response{Error: &ErrorInfo{Code: errorCode(status), Message: message}})
}

// RespondWithPaginatedData sends one page of a list along with its meta
func RespondWithPaginatedData(c *gin.Context, status int, data interface{}, page, perPage, totalItems int) {
	respond(c, status, Response{Data: data, Meta: newPageMeta(page, perPage, totalItems)})
}

func RespondOK(c *gin.Context, data interface{}) {
	respond(c, http.StatusOK, Response{Data: data})
}

func RespondCreated(c *gin.Context, data interface{}) {
	respond(c, http.StatusCreated, Response{Data: data})
}

// RespondAccepted answers an intent that was queued but not yet applied
func RespondAccepted(c *gin.Context, data interface{}) {
	respond(c, http.StatusAccepted, Response{Data: data})
}

func RespondBadRequest(c *gin.Context, message string) {
	respondError(c, http.StatusBadRequest, message, "Invalid request")
}

func RespondUnauthorized(c *gin.Context, message string) {
	respondError(c, http.StatusUnauthorized, message, "Unauthorized")
}

func RespondNotFound(c *gin.Context, message string) {
	respondError(c, http.StatusNotFound, message, "Resource not found")
}

func RespondConflict(c *gin.Context, message string) {
	respondError(c, http.StatusConflict, message, "Resource was modified concurrently")
}

func RespondUnprocessable(c *gin.Context, message string) {
	respondError(c, http.StatusUnprocessableEntity, message, "Request cannot be applied")
}

func RespondServiceUnavailable(c *gin.Context, message string) {
	respondError(c, http.StatusServiceUnavailable, message, "Service temporarily unavailable")
}

// RespondInternalError hides the cause, which is logged by the caller
func RespondInternalError(c *gin.Context) {
	respondError(c, http.StatusInternalServerError, "", "An internal server error occurred")
}
