package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// Envelope codes. The first three digits follow the HTTP status.
const (
	CodeOK                 = 0
	CodeBadRequest         = 10001
	CodeInvalidInput       = 40001
	CodeRouteNotFound      = 40400
	CodeNotFound           = 40401
	CodeMethodNotAllowed   = 40500
	CodePayloadTooLarge    = 41301
	CodeUnsupportedFormat  = 41501
	CodeEmptyDocument      = 42201
	CodeExtractionFailed   = 42202
	CodeRateLimited        = 42901
	CodeInternal           = 50000
	CodeIndexWrite         = 50001
	CodeIndexDelete        = 50002
	CodeInconsistent       = 50003
	CodeNotImplemented     = 50101
	CodeEmbeddingDown      = 50301
	CodeGenerationDown     = 50302
	CodeVectorIndexMissing = 50303
)

// apiError is the HTTP rendering of a core error kind.
type apiError struct {
	status  int
	code    int
	message string
}

// errorTable is checked in order; the first match wins. Inconsistency and
// rate limiting come first because they are joined with or wrap other kinds.
var errorTable = []struct {
	target error
	apiError
}{
	{domain.ErrCatalogInconsistency, apiError{http.StatusInternalServerError, CodeInconsistent, "catalog and index are inconsistent; manual cleanup may be required"}},
	{domain.ErrRateLimited, apiError{http.StatusTooManyRequests, CodeRateLimited, "provider rate limit exceeded"}},
	{domain.ErrUnsupportedFormat, apiError{http.StatusUnsupportedMediaType, CodeUnsupportedFormat, "unsupported file type"}},
	{domain.ErrEmptyDocument, apiError{http.StatusUnprocessableEntity, CodeEmptyDocument, "document has no extractable text"}},
	{domain.ErrExtractionFailed, apiError{http.StatusUnprocessableEntity, CodeExtractionFailed, "document could not be read"}},
	{domain.ErrInvalidInput, apiError{http.StatusBadRequest, CodeInvalidInput, "invalid input"}},
	{domain.ErrNotFound, apiError{http.StatusNotFound, CodeNotFound, "not found"}},
	{domain.ErrEmbeddingUnavailable, apiError{http.StatusServiceUnavailable, CodeEmbeddingDown, "embedding service unavailable"}},
	{domain.ErrGenerationUnavailable, apiError{http.StatusServiceUnavailable, CodeGenerationDown, "language model unavailable"}},
	{domain.ErrVectorIndexUnavailable, apiError{http.StatusServiceUnavailable, CodeVectorIndexMissing, "vector index unavailable"}},
	{domain.ErrIndexWriteFailure, apiError{http.StatusInternalServerError, CodeIndexWrite, "failed to write to the vector index"}},
	{domain.ErrIndexDeleteFailure, apiError{http.StatusInternalServerError, CodeIndexDelete, "failed to delete from the vector index"}},
	{domain.ErrNotImplemented, apiError{http.StatusNotImplemented, CodeNotImplemented, "not available in this configuration"}},
}

// toAPIError maps an error to its status, code and message.
func toAPIError(err error) apiError {
	for _, e := range errorTable {
		if errors.Is(err, e.target) {
			ae := e.apiError
			var ufe *domain.UnsupportedFormatError
			if errors.As(err, &ufe) {
				ae.message = ufe.Error()
			}
			return ae
		}
	}
	return apiError{http.StatusInternalServerError, CodeInternal, "internal error"}
}

// failWith writes the envelope for err. Server-side failures are logged
// with the full error chain; the client only sees the kind.
func failWith(c *gin.Context, err error) {
	ae := toAPIError(err)
	if ae.status >= http.StatusInternalServerError {
		logger.Warn("%s %s: %v", c.Request.Method, c.FullPath(), err)
	} else {
		logger.Debug("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	fail(c, ae.status, ae.code, ae.message)
}
