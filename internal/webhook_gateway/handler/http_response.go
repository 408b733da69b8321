package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/payment-webhook-ledger/internal/webhook_gateway/middleware"
)

// Response represents the envelope used by the read endpoints
type Response struct {
	Data          interface{} `json:"data,omitempty"`
	Error         *ErrorInfo  `json:"error,omitempty"`
	CorrelationID string      `json:"correlation_id,omitempty"`
	Meta          *MetaInfo   `json:"meta,omitempty"`
}

// ErrorInfo represents error information in a response
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MetaInfo represents metadata in a response
type MetaInfo struct {
	Page       int `json:"page,omitempty"`
	PerPage    int `json:"per_page,omitempty"`
	TotalPages int `json:"total_pages"`
	TotalItems int `json:"total_items"`
}

// NewPaginatedResponse creates a new paginated response
func NewPaginatedResponse(data interface{}, page, perPage, totalItems int) *Response {
	totalPages := totalItems / perPage
	if totalItems%perPage > 0 {
		totalPages++
	}

	return &Response{
		Data: data,
		Meta: &MetaInfo{
			Page:       page,
			PerPage:    perPage,
			TotalPages: totalPages,
			TotalItems: totalItems,
		},
	}
}

// RespondOK sends a 200 OK response with data
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, &Response{Data: data, CorrelationID: middleware.GetCorrelationID(c)})
}

// RespondWithPaginatedData sends a 200 JSON response with paginated data
func RespondWithPaginatedData(c *gin.Context, data interface{}, page, perPage, totalItems int) {
	response := NewPaginatedResponse(data, page, perPage, totalItems)
	response.CorrelationID = middleware.GetCorrelationID(c)
	c.JSON(http.StatusOK, response)
}

// RespondWithError sends a JSON response with an error
func RespondWithError(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, &Response{
		Error:         &ErrorInfo{Code: code, Message: message},
		CorrelationID: middleware.GetCorrelationID(c),
	})
}

// RespondBadRequest sends a 400 Bad Request response with an error
func RespondBadRequest(c *gin.Context, message string) {
	RespondWithError(c, http.StatusBadRequest, "BAD_REQUEST", message)
}

// RespondNotFound sends a 404 Not Found response with an error
func RespondNotFound(c *gin.Context, message string) {
	if message == "" {
		message = "Resource not found"
	}
	RespondWithError(c, http.StatusNotFound, "NOT_FOUND", message)
}

// RespondInternalError sends a 500 Internal Server Error response with an error
func RespondInternalError(c *gin.Context) {
	RespondWithError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "An internal server error occurred")
}

// Webhook responses use the flat shape producers integrate against.

// RespondWebhookProcessed sends the 200 body for a newly stored transaction
func RespondWebhookProcessed(c *gin.Context, data ProcessedTransactionResponse) {
	c.JSON(http.StatusOK, WebhookSuccessResponse{
		Success: true,
		Message: "Webhook processed successfully",
		Data:    data,
	})
}

// RespondWebhookUnauthorized sends the 401 body for a failed signature check
func RespondWebhookUnauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, WebhookErrorResponse{
		Error:   "Unauthorized",
		Message: "Invalid or missing webhook signature",
	})
}

// RespondWebhookValidation sends the 400 body naming the offending field
func RespondWebhookValidation(c *gin.Context, field, message string) {
	c.JSON(http.StatusBadRequest, WebhookErrorResponse{
		Error:   "Validation failed",
		Message: message,
		Field:   field,
	})
}

// RespondWebhookDuplicate sends the 409 body; data is omitted when the prior record could not be loaded
func RespondWebhookDuplicate(c *gin.Context, data *DuplicateTransactionResponse) {
	response := WebhookErrorResponse{
		Error:   "Duplicate webhook",
		Message: "Webhook has already been processed",
	}
	if data != nil {
		response.Data = data
	}
	c.JSON(http.StatusConflict, response)
}

// RespondWebhookInternalError sends the 500 body without any internal detail
func RespondWebhookInternalError(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, WebhookErrorResponse{
		Error:   "Internal server error",
		Message: "An internal server error occurred",
	})
}
