package utils

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Response standard response structure
type Response struct {
	Code      ResponseCode `json:"code"`
	Message   string       `json:"message"`
	Data      interface{}  `json:"data,omitempty"`
	Timestamp int64        `json:"timestamp"`
}

// SuccessResponse returns success response
func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:      CodeSuccess,
		Message:   "success",
		Data:      data,
		Timestamp: time.Now().Unix(),
	})
}

// ErrorResponse returns an error response with a business code
func ErrorResponse(c *gin.Context, httpCode int, code ResponseCode, message string) {
	c.JSON(httpCode, Response{
		Code:      code,
		Message:   message,
		Timestamp: time.Now().Unix(),
	})
}

// AppErrorResponse maps an application error to an HTTP response
func AppErrorResponse(c *gin.Context, err error) {
	code := GetErrorCode(err)
	httpCode := http.StatusInternalServerError
	switch code {
	case CodeInvalidParam:
		httpCode = http.StatusBadRequest
	case CodeActivityNotFound, CodeProductNotFound, CodeRuleNotFound:
		httpCode = http.StatusNotFound
	case CodeActivityConflict, CodeInsufficientStock:
		httpCode = http.StatusConflict
	}
	ErrorResponse(c, httpCode, code, GetErrorMessage(err))
}

// PageResponse page response structure
type PageResponse struct {
	List  interface{} `json:"list"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Size  int         `json:"size"`
}

// SuccessPageResponse returns success page response
func SuccessPageResponse(c *gin.Context, list interface{}, total int64, page, size int) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data: PageResponse{
			List:  list,
			Total: total,
			Page:  page,
			Size:  size,
		},
		Timestamp: time.Now().Unix(),
	})
}
