// internal/pkg/auth/middleware.go
package auth

import (
	"net/http"
	"strconv"

	"bazaar/internal/pkg/apperr"
	"bazaar/internal/pkg/logger"
)

// Middleware 在请求进入核心之前解析身份并做一次令牌版本校验。
// 网关已经完成了令牌签名校验，这里只消费它注入的头：
//
//	X-Customer-Id / X-Guest-Id  二选一
//	X-Token-Version             顾客请求必带
//
// 版本不匹配说明该顾客的全部令牌已被吊销（改密、强制下线），
// 请求直接拒绝，不再进入业务层。
func Middleware(principals PrincipalRepository, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		customerID := r.Header.Get("X-Customer-Id")
		guestID := r.Header.Get("X-Guest-Id")

		if (customerID == "") == (guestID == "") {
			http.Error(w, `{"code":"VALIDATION_FAILED","message":"exactly one of customer or guest identity is required"}`, http.StatusBadRequest)
			return
		}

		id := Identity{CustomerID: customerID, GuestID: guestID}

		if id.IsCustomer() {
			claimed, err := strconv.Atoi(r.Header.Get("X-Token-Version"))
			if err != nil {
				http.Error(w, `{"code":"VALIDATION_FAILED","message":"missing or malformed token version"}`, http.StatusBadRequest)
				return
			}
			stored, err := principals.TokenVersion(r.Context(), customerID)
			if err != nil {
				logger.Ctx(r.Context()).Error().Err(err).Msg("token version lookup failed")
				http.Error(w, `{"code":"DEPENDENCY_UNAVAILABLE","message":"identity store unreachable"}`, http.StatusInternalServerError)
				return
			}
			if stored != claimed {
				http.Error(w, `{"code":"`+string(apperr.CodeTokenRevoked)+`","message":"token has been revoked"}`, http.StatusUnauthorized)
				return
			}
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}
