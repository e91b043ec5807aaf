package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joelkehle/intelbrief/internal/research"
	"github.com/joelkehle/intelbrief/internal/store"
)

const (
	CodeNotFound   = "not_found"
	CodeBadRequest = "bad_request"

	msgGenerateFailed = "failed to generate report"
	msgStoreFailed    = "failed to store report"
	msgLoadFailed     = "failed to load report"
)

// statusForCode maps an error code onto the HTTP status returned with it.
func statusForCode(code string) int {
	switch code {
	case research.CodeInvalidInput, CodeBadRequest:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case research.CodeNoEvidence, research.CodeInsufficientEvidence:
		return http.StatusUnprocessableEntity
	case research.CodeSchemaValidation:
		return http.StatusBadGateway
	case research.CodeProviderUnavailable:
		return http.StatusServiceUnavailable
	case research.CodeCanceled:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func writeError(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(statusForCode(code), gin.H{"ok": false, "error": errorBody{Code: code, Message: message}})
}

// writePipelineError reports a failed run without exposing provider text.
func writePipelineError(c *gin.Context, err error) {
	code := research.ErrorCode(err)
	body := errorBody{Code: code, Message: msgGenerateFailed}
	var inv *research.InvalidInputError
	if errors.As(err, &inv) {
		body.Field = inv.Field
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(statusForCode(code), gin.H{"ok": false, "error": body})
}

func writeStoreError(c *gin.Context, err error, message string) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(c, CodeNotFound, "report not found")
		return
	}
	_ = c.Error(err)
	writeError(c, research.CodeInternal, message)
}
