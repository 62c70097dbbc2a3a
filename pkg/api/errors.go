package api

import (
	"errors"
	"net/http"
	"runtime"

	"github.com/emicklei/go-restful/v3"
	"github.com/golang/glog"
)

type ErrorType = string

const (
	ErrorInternalServerError ErrorType = "internal_server_error"
	ErrorBadRequest          ErrorType = "bad_request"
	ErrorNotFound            ErrorType = "not_found"
	ErrorUnknown             ErrorType = "unknown_error"
)

func HandleInternalError(response *restful.Response, err error) {
	Handle(http.StatusInternalServerError, response, err)
}

func HandleBadRequest(response *restful.Response, err error) {
	Handle(http.StatusBadRequest, response, err)
}

func HandleNotFound(response *restful.Response, err error) {
	Handle(http.StatusNotFound, response, err)
}

func Handle(statusCode int, resp *restful.Response, err error) {
	_, fn, line, _ := runtime.Caller(2)
	glog.Errorf("%s:%d %v", fn, line, err)

	var t Error
	if errors.As(err, &t) {
		_ = resp.WriteHeaderAndEntity(statusCode, t)
		return
	}

	var errType ErrorType
	switch statusCode {
	case http.StatusBadRequest:
		errType = ErrorBadRequest
	case http.StatusNotFound:
		errType = ErrorNotFound
	case http.StatusInternalServerError:
		errType = ErrorInternalServerError
	default:
		errType = ErrorUnknown
	}
	_ = resp.WriteHeaderAndEntity(statusCode, Error{
		Code:             statusCode,
		Msg:              err.Error(),
		ErrorType:        errType,
		ErrorDescription: err.Error(),
	})
}

type Error struct {
	Code             int    `json:"code"`
	Msg              string `json:"message"`
	ErrorType        string `json:"error_type,omitempty"`
	ErrorDescription string `json:"error_description,omitempty"`
}

func (e Error) Error() string {
	return e.Msg
}
