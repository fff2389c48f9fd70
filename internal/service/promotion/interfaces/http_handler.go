// internal/service/promotion/interfaces/http_handler.go
package interfaces

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"bazaar/internal/pkg/apperr"
	"bazaar/internal/pkg/httpx"
	"bazaar/internal/service/promotion/application"
	"bazaar/internal/service/promotion/domain"
)

// 管理端上传图片的大小上限
const maxImageBytes = 8 << 20

// PromotionHandler 封装活动与优惠券的 HTTP 处理器。
// /api/deals 是购物者读路径，/api/admin/* 由网关限定为员工角色。
type PromotionHandler struct {
	admin *application.AdminService
	query *application.QueryService
}

// NewPromotionHandler 创建一个新的 HTTP 处理器实例
func NewPromotionHandler(admin *application.AdminService, query *application.QueryService) *PromotionHandler {
	return &PromotionHandler{admin: admin, query: query}
}

// RegisterRoutes 在 ServeMux 上注册所有路由
func (h *PromotionHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/deals/{kind}", h.listLive)

	mux.HandleFunc("POST /api/admin/deals", h.saveDeal)
	mux.HandleFunc("GET /api/admin/deals/{kind}", h.listDeals)
	mux.HandleFunc("POST /api/admin/deals/{id}/publish", h.setPublished)
	mux.HandleFunc("DELETE /api/admin/deals/{id}", h.deleteDeal)
	mux.HandleFunc("POST /api/admin/deals/{id}/image", h.attachImage)

	mux.HandleFunc("POST /api/admin/coupons", h.saveCoupon)
	mux.HandleFunc("DELETE /api/admin/coupons/{id}", h.deleteCoupon)
}

func (h *PromotionHandler) listLive(w http.ResponseWriter, r *http.Request) {
	views, err := h.query.ListLive(r.Context(), domain.Kind(r.PathValue("kind")))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, views)
}

func (h *PromotionHandler) saveDeal(w http.ResponseWriter, r *http.Request) {
	var req application.SaveDealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, r, apperr.New(apperr.CodeValidationFailed, "malformed request body"))
		return
	}
	deal, err := h.admin.SaveDeal(r.Context(), &req)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, deal)
}

func (h *PromotionHandler) listDeals(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	deals, err := h.admin.ListDeals(r.Context(), domain.Kind(r.PathValue("kind")), limit, offset)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, deals)
}

func (h *PromotionHandler) setPublished(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Published bool `json:"published"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, r, apperr.New(apperr.CodeValidationFailed, "malformed request body"))
		return
	}
	if err := h.admin.SetDealPublished(r.Context(), r.PathValue("id"), req.Published); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PromotionHandler) deleteDeal(w http.ResponseWriter, r *http.Request) {
	if err := h.admin.DeleteDeal(r.Context(), r.PathValue("id")); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PromotionHandler) attachImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		httpx.WriteError(w, r, apperr.New(apperr.CodeValidationFailed, "malformed multipart body"))
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		httpx.WriteError(w, r, apperr.New(apperr.CodeValidationFailed, "image file is required"))
		return
	}
	defer file.Close()
	content, err := io.ReadAll(io.LimitReader(file, maxImageBytes))
	if err != nil {
		httpx.WriteError(w, r, apperr.New(apperr.CodeValidationFailed, "unreadable image file"))
		return
	}

	deal, err := h.admin.AttachDealImage(r.Context(), r.PathValue("id"), header.Filename, content)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, deal)
}

func (h *PromotionHandler) saveCoupon(w http.ResponseWriter, r *http.Request) {
	var req application.SaveCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, r, apperr.New(apperr.CodeValidationFailed, "malformed request body"))
		return
	}
	coupon, err := h.admin.SaveCoupon(r.Context(), &req)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, coupon)
}

func (h *PromotionHandler) deleteCoupon(w http.ResponseWriter, r *http.Request) {
	if err := h.admin.DeleteCoupon(r.Context(), r.PathValue("id")); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pagination(r *http.Request) (limit, offset int) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	return
}
