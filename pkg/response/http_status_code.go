package response

import "github.com/gin-gonic/gin"

const (
	ErrCodeSuccess            = 2000 // Success
	ErrCodeInvalidParams      = 4000 // Invalid query parameters
	ErrCodeRoomNotFound       = 4004 // Room not found
	ErrCodeRateLimited        = 4029 // Too many connection attempts
	ErrCodeServiceUnavailable = 5003 // A collaborator is down
)

// message
var msg = map[int]string{
	ErrCodeSuccess:            "success",
	ErrCodeInvalidParams:      "invalid query parameters",
	ErrCodeRoomNotFound:       "room not found",
	ErrCodeRateLimited:        "too many connection attempts, please retry later",
	ErrCodeServiceUnavailable: "service unavailable",
}

// Msg returns the text for code.
func Msg(code int) string {
	if m, ok := msg[code]; ok {
		return m
	}
	return "unknown error"
}

// Error aborts the request with a coded JSON error body.
func Error(c *gin.Context, status, code int) {
	c.AbortWithStatusJSON(status, gin.H{
		"code":  code,
		"error": Msg(code),
	})
}
