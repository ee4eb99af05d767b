package controllers

import (
	"net/http"
	"time"

	"capstone-nft/apperrors"

	restful "github.com/emicklei/go-restful/v3"
	"go.uber.org/zap"
)

// StatusMessage is the {status, msg} envelope used by the user endpoints.
type StatusMessage struct {
	Status int    `json:"status"`
	Msg    string `json:"msg"`
}

// StatusData is the {status, data} envelope used by the user endpoints.
type StatusData struct {
	Status int `json:"status"`
	Data   any `json:"data"`
}

// MessageResponse is the generic error body.
type MessageResponse struct {
	Message string `json:"message"`
}

func writeJSON(response *restful.Response, status int, body any) {
	_ = response.WriteHeaderAndJson(status, body, restful.MIME_JSON)
}

// handleServiceError renders err according to its kind. Anything that is
// not an application error is logged and hidden behind a generic 500.
func handleServiceError(logger *zap.Logger, response *restful.Response, err error) {
	appErr, ok := apperrors.As(err)
	if !ok {
		logger.Error("unhandled error", zap.Error(err))
		writeJSON(response, http.StatusInternalServerError, MessageResponse{Message: "An internal error occurred"})
		return
	}

	status := appErr.StatusCode()
	switch appErr.Kind {
	case apperrors.KindValidation, apperrors.KindAuthentication, apperrors.KindVerification:
		writeJSON(response, status, appErr.FieldErrors())
	case apperrors.KindAuthorization, apperrors.KindForbidden:
		writeJSON(response, status, StatusMessage{Status: status, Msg: appErr.Message})
	case apperrors.KindUpstream, apperrors.KindUpstreamTimeout:
		logger.Warn("upstream failure", zap.Error(err))
		writeJSON(response, status, MessageResponse{Message: appErr.Message})
	case apperrors.KindInternal:
		logger.Error("internal error", zap.Error(err))
		writeJSON(response, status, MessageResponse{Message: "An internal error occurred"})
	default:
		writeJSON(response, status, MessageResponse{Message: appErr.Message})
	}
}

// RequestLogger logs one line per request once the chain has finished.
func RequestLogger(logger *zap.Logger) restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		startTime := time.Now()

		chain.ProcessFilter(req, resp)

		logger.Info("Request",
			zap.String("client_ip", req.Request.RemoteAddr),
			zap.String("method", req.Request.Method),
			zap.Int("status_code", resp.StatusCode()),
			zap.Duration("latency", time.Since(startTime)),
			zap.String("user_agent", req.Request.UserAgent()),
			zap.String("path", req.Request.URL.Path),
		)
	}
}
