// internal/pkg/httpx/respond.go
package httpx

import (
	"encoding/json"
	"net/http"

	"bazaar/internal/pkg/apperr"
	"bazaar/internal/pkg/logger"
)

// errorBody 是所有错误响应的统一外形。
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteJSON 写出 200（或给定状态码）的 JSON 响应。
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteError 把业务错误映射为 HTTP 状态码和机器可读的错误码。
// 非 apperr 错误统一按 500 处理并只透出通用消息。
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	code := apperr.CodeOf(err)

	body := errorBody{Code: string(code), Message: err.Error()}
	if status >= http.StatusInternalServerError {
		logger.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		body.Message = "internal error"
	}
	WriteJSON(w, status, body)
}
