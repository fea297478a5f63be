// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wneessen/roam-tripdemo/internal/logger"
	"github.com/wneessen/roam-tripdemo/internal/permission"
	"github.com/wneessen/roam-tripdemo/internal/sdk"
	"github.com/wneessen/roam-tripdemo/internal/session"
	"github.com/wneessen/roam-tripdemo/internal/tracking"
)

// ErrorResponse is the payload of every failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Message   string `json:"message,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

func respondError(c *gin.Context, status int, code, msg string) {
	respond(c, status, ErrorResponse{Error: msg, Code: code})
}

func respond(c *gin.Context, status int, resp ErrorResponse) {
	if resp.Code == "" {
		resp.Code = http.StatusText(status)
	}
	resp.RequestID = c.GetString(requestIDKey)
	c.AbortWithStatusJSON(status, resp)
}

// fail maps err to a response. Unknown users and missing preconditions are expected outcomes of
// the demo flow, SDK failures are reported with their code.
func (s *Server) fail(c *gin.Context, err error) {
	var sdkErr sdk.Error
	var sdkCode sdk.ErrorCode
	switch {
	case errors.Is(err, session.ErrInvalidUserID):
		respond(c, http.StatusConflict, ErrorResponse{
			Error:   "Invalid user id",
			Code:    string(sdk.ErrInvalidUserID),
			Message: "Please create a test user before",
		})
	case errors.Is(err, session.ErrNoUser), errors.Is(err, session.ErrNoTrip),
		errors.Is(err, session.ErrNoLoadedUser), errors.Is(err, session.ErrNotSubscribed):
		respondError(c, http.StatusPreconditionFailed, "precondition_failed", err.Error())
	case errors.Is(err, permission.ErrUnknownKind), errors.Is(err, permission.ErrNotNeeded),
		errors.Is(err, tracking.ErrUnknownMode):
		respondError(c, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		respondError(c, http.StatusGatewayTimeout, "sdk_timeout", "the SDK did not answer in time")
	case errors.As(err, &sdkErr):
		respond(c, http.StatusBadGateway, ErrorResponse{
			Error:   sdkErr.Message,
			Code:    string(sdkErr.Code),
			Message: err.Error(),
		})
	case errors.As(err, &sdkCode):
		respond(c, http.StatusBadGateway, ErrorResponse{
			Error: err.Error(),
			Code:  string(sdkCode),
		})
	default:
		s.logger.Error("request failed", logger.Err(err))
		respondError(c, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
