package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/feral-file/chain-estates/internal/api/shared/errors"
	"github.com/feral-file/chain-estates/internal/logger"
)

func respondWithError(c *gin.Context, status int, apiErr *errors.APIError) {
	c.JSON(status, errors.ErrorResponse{Error: apiErr})
}

// respondBadRequest responds with a bad request error
func respondBadRequest(c *gin.Context, message string, details ...string) {
	respondWithError(c, http.StatusBadRequest, errors.NewBadRequestError(message, details...))
}

// respondLedgerError maps a ledger error to its status; unclassified errors are logged and hidden
func respondLedgerError(c *gin.Context, err error, message string) {
	status, apiErr := errors.FromLedgerError(err)
	if status >= http.StatusInternalServerError {
		logger.ErrorCtx(c.Request.Context(), err, zap.String("message", message))
		apiErr.Message = message
	}
	respondWithError(c, status, apiErr)
}
