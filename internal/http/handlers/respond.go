package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// The wire format for errors is a flat {"detail": "..."} object, optionally
// with a "fields" list for validation problems.

func RespondError(ctx *gin.Context, status int, detail string) {
	ctx.JSON(status, gin.H{"detail": detail})
}

func RespondBadRequest(ctx *gin.Context, detail string, fields interface{}) {
	if fields == nil {
		RespondError(ctx, http.StatusBadRequest, detail)
		return
	}

	ctx.JSON(http.StatusBadRequest, gin.H{"detail": detail, "fields": fields})
}

func RespondNotFound(ctx *gin.Context, detail string) {
	RespondError(ctx, http.StatusNotFound, detail)
}

func RespondConflict(ctx *gin.Context, detail string) {
	RespondError(ctx, http.StatusConflict, detail)
}

func RespondInternal(ctx *gin.Context, detail string) {
	RespondError(ctx, http.StatusInternalServerError, detail)
}

// RespondUnauthorized carries the bearer challenge. All 401 causes look the
// same to the caller; the internal reason only reaches logs and metrics.
func RespondUnauthorized(ctx *gin.Context, detail string) {
	ctx.Header("WWW-Authenticate", "Bearer")
	RespondError(ctx, http.StatusUnauthorized, detail)
}

func RespondForbidden(ctx *gin.Context, detail string) {
	RespondError(ctx, http.StatusForbidden, detail)
}

func RespondMessage(ctx *gin.Context, message string) {
	ctx.JSON(http.StatusOK, gin.H{"message": message})
}
