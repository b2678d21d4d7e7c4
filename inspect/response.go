package inspect

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/iockit/errors"
)

// DataResponse wraps successful payloads.
type DataResponse struct {
	Data any `json:"data"`
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, DataResponse{Data: data})
}

func respondError(c *gin.Context, err error) {
	appErr := errors.Wrap(err)
	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
}
