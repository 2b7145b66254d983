package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// MIMEApplicationJSONUTF8 is the content type of every JSON body we render.
const MIMEApplicationJSONUTF8 = "application/json; charset=utf-8"

// DataResponse writes API response with status and data.
func DataResponse(c echo.Context, statusCode int, data interface{}) error {
	return c.JSON(statusCode, APIResponse{
		Status:  statusCode,
		Message: http.StatusText(statusCode),
		Data:    data,
	})
}

// SuccessResponse writes success response.
func SuccessResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusOK, data)
}

// BadRequestResponse writes bad request error.
func BadRequestResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusBadRequest, data)
}

// RawJSONResponse writes pre-encoded JSON with the given status.
func RawJSONResponse(c echo.Context, status int, body []byte) error {
	return c.Blob(status, MIMEApplicationJSONUTF8, body)
}

// FaultResponse writes the 500 envelope {error, message, asOf}.
func FaultResponse(c echo.Context, err error) error {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	c.Response().Header().Set(echo.HeaderContentType, MIMEApplicationJSONUTF8)
	return c.JSON(http.StatusInternalServerError, FaultEnvelope{
		Error:   "internal_error",
		Message: msg,
		AsOf:    time.Now().UTC(),
	})
}

// AppErrorResponse writes application error response.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.Status >= http.StatusInternalServerError {
			return FaultResponse(c, appErr)
		}
		return DataResponse(c, appErr.Status, []*AppError{appErr})
	}
	return FaultResponse(c, err)
}
