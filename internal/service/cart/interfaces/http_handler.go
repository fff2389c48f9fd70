// internal/service/cart/interfaces/http_handler.go
package interfaces

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"bazaar/internal/pkg/apperr"
	"bazaar/internal/pkg/auth"
	"bazaar/internal/pkg/httpx"
	"bazaar/internal/pkg/idempotency"
	"bazaar/internal/service/cart/application"
)

// CartHandler 封装购物车与心愿单的 HTTP 处理器。
type CartHandler struct {
	service    *application.Service
	guard      *idempotency.Guard
	principals auth.PrincipalRepository
}

// NewCartHandler 创建一个新的 HTTP 处理器实例
func NewCartHandler(service *application.Service, guard *idempotency.Guard, principals auth.PrincipalRepository) *CartHandler {
	return &CartHandler{service: service, guard: guard, principals: principals}
}

// RegisterRoutes 在 ServeMux 上注册所有购物者路由。
// 全部路由经过身份中间件；变更路由额外套上幂等守卫。
func (h *CartHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("GET /api/cart", h.identified(h.getCart))
	mux.Handle("POST /api/cart/items", h.identified(h.guarded("cart.add", h.addToCart)))
	mux.Handle("PUT /api/cart/items", h.identified(h.guarded("cart.update", h.updateQuantity)))
	mux.Handle("DELETE /api/cart/items", h.identified(h.guarded("cart.remove", h.removeItem)))
	mux.Handle("POST /api/cart/clear", h.identified(h.guarded("cart.clear", h.clearCart)))
	mux.Handle("POST /api/cart/merge", h.identified(h.guarded("cart.merge", h.mergeGuestCart)))
	mux.Handle("POST /api/cart/coupon", h.identified(h.guarded("cart.coupon.apply", h.applyCoupon)))
	mux.Handle("DELETE /api/cart/coupon", h.identified(h.guarded("cart.coupon.remove", h.removeCoupon)))

	mux.Handle("GET /api/wishlist", h.identified(h.listWishlist))
	mux.Handle("POST /api/wishlist", h.identified(h.guarded("wishlist.toggle", h.toggleWishlist)))
	mux.Handle("DELETE /api/wishlist", h.identified(h.guarded("wishlist.remove", h.removeWishlist)))
}

func (h *CartHandler) identified(next http.HandlerFunc) http.Handler {
	traced := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
	return auth.Middleware(h.principals, traced)
}

// guarded 把幂等守卫套在一个变更处理器外面。
// 指纹由 (身份, 动作, 路径, 请求体) 决定；请求体读完后回填，
// 处理器仍能正常解码。
func (h *CartHandler) guarded(action string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			httpx.WriteError(w, r, apperr.New(apperr.CodeValidationFailed, "unreadable request body"))
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		identity, _ := auth.FromContext(r.Context())
		err = h.guard.WithLock(r.Context(), identity.Key(), action, r.URL.Path, body, func(ctx context.Context) error {
			next.ServeHTTP(w, r.WithContext(ctx))
			return nil
		})
		if err != nil {
			httpx.WriteError(w, r, err)
		}
	}
}

func (h *CartHandler) getCart(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())
	view, err := h.service.GetCart(r.Context(), identity)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, view)
}

type cartLineRequest struct {
	ProductID    string `json:"productId"`
	VariationSKU string `json:"variationSku"`
	Quantity     int    `json:"quantity"`
}

func (h *CartHandler) addToCart(w http.ResponseWriter, r *http.Request) {
	var req cartLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, r, apperr.New(apperr.CodeValidationFailed, "malformed request body"))
		return
	}
	identity, _ := auth.FromContext(r.Context())
	view, err := h.service.AddToCart(r.Context(), identity, req.ProductID, req.Quantity, req.VariationSKU)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, view)
}

func (h *CartHandler) updateQuantity(w http.ResponseWriter, r *http.Request) {
	var req cartLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, r, apperr.New(apperr.CodeValidationFailed, "malformed request body"))
		return
	}
	identity, _ := auth.FromContext(r.Context())
	view, err := h.service.UpdateItemQuantity(r.Context(), identity, req.ProductID, req.Quantity, req.VariationSKU)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, view)
}

func (h *CartHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	var req cartLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, r, apperr.New(apperr.CodeValidationFailed, "malformed request body"))
		return
	}
	identity, _ := auth.FromContext(r.Context())
	view, err := h.service.RemoveItem(r.Context(), identity, req.ProductID, req.VariationSKU)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, view)
}

func (h *CartHandler) clearCart(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())
	view, err := h.service.ClearCart(r.Context(), identity)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, view)
}

// mergeGuestCart 由登录流程调用：已登录顾客带上原游客 ID 合并购物车。
func (h *CartHandler) mergeGuestCart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GuestID string `json:"guestId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.GuestID == "" {
		httpx.WriteError(w, r, apperr.New(apperr.CodeValidationFailed, "guestId is required"))
		return
	}
	identity, _ := auth.FromContext(r.Context())
	if !identity.IsCustomer() {
		httpx.WriteError(w, r, apperr.New(apperr.CodeValidationFailed, "merge requires a signed-in customer"))
		return
	}
	if err := h.service.MergeGuestCart(r.Context(), req.GuestID, identity.CustomerID); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	view, err := h.service.GetCart(r.Context(), identity)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, view)
}

func (h *CartHandler) applyCoupon(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		httpx.WriteError(w, r, apperr.New(apperr.CodeValidationFailed, "coupon code is required"))
		return
	}
	identity, _ := auth.FromContext(r.Context())
	view, err := h.service.ApplyCoupon(r.Context(), identity, req.Code)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, view)
}

func (h *CartHandler) removeCoupon(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())
	view, err := h.service.RemoveCoupon(r.Context(), identity)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, view)
}

func (h *CartHandler) listWishlist(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())
	views, err := h.service.ListWishlist(r.Context(), identity)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, views)
}

func (h *CartHandler) toggleWishlist(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"productId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProductID == "" {
		httpx.WriteError(w, r, apperr.New(apperr.CodeValidationFailed, "productId is required"))
		return
	}
	identity, _ := auth.FromContext(r.Context())
	inList, err := h.service.ToggleWishlist(r.Context(), identity, req.ProductID)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"wishlisted": inList})
}

func (h *CartHandler) removeWishlist(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"productId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProductID == "" {
		httpx.WriteError(w, r, apperr.New(apperr.CodeValidationFailed, "productId is required"))
		return
	}
	identity, _ := auth.FromContext(r.Context())
	if err := h.service.RemoveFromWishlist(r.Context(), identity, req.ProductID); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
