package utils

import (
	"github.com/gin-gonic/gin"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func RespondError(c *gin.Context, code int, err error) {
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// RespondErrorDetails -> hata gövdesine ayrıntı ekler (liste uçları
// 500 dönerken istemciye neden de iletilir)
func RespondErrorDetails(c *gin.Context, code int, msg string, err error) {
	resp := ErrorResponse{Error: msg}
	if err != nil {
		resp.Details = err.Error()
	}
	c.JSON(code, resp)
}
