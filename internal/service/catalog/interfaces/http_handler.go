// internal/service/catalog/interfaces/http_handler.go
package interfaces

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bazaar/internal/pkg/apperr"
	"bazaar/internal/pkg/httpx"
	"bazaar/internal/service/catalog/application"
	"bazaar/internal/service/catalog/domain"
)

// CatalogHandler 封装目录的 HTTP 处理器。
type CatalogHandler struct {
	service *application.Service
}

// NewCatalogHandler 创建一个新的 HTTP 处理器实例
func NewCatalogHandler(service *application.Service) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// RegisterRoutes 在 ServeMux 上注册所有路由。
// 探活与指标端点也挂在这里，和目录读路径共用一个服务进程。
func (h *CatalogHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/products", h.listProducts)
	mux.HandleFunc("GET /api/products/{id}", h.getProduct)

	mux.HandleFunc("POST /api/admin/products", h.saveProduct)
	mux.HandleFunc("POST /api/admin/products/{id}/status", h.updateStatus)
}

func (h *CatalogHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	products, err := h.service.ListProducts(r.Context(), limit, offset)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, products)
}

func (h *CatalogHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.GetProduct(r.Context(), r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, product)
}

func (h *CatalogHandler) saveProduct(w http.ResponseWriter, r *http.Request) {
	var product domain.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		httpx.WriteError(w, r, apperr.New(apperr.CodeValidationFailed, "malformed request body"))
		return
	}
	if product.Title == "" || product.VendorID == "" {
		httpx.WriteError(w, r, apperr.New(apperr.CodeValidationFailed, "title and vendorId are required"))
		return
	}
	if err := h.service.SaveProduct(r.Context(), &product); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, product)
}

func (h *CatalogHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status   domain.ProductStatus `json:"status"`
		IsActive bool                 `json:"isActive"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, r, apperr.New(apperr.CodeValidationFailed, "malformed request body"))
		return
	}
	switch req.Status {
	case domain.StatusPending, domain.StatusApproved, domain.StatusRejected, domain.StatusSuspended:
	default:
		httpx.WriteError(w, r, apperr.New(apperr.CodeValidationFailed, "unknown product status %q", req.Status))
		return
	}
	if err := h.service.UpdateStatus(r.Context(), r.PathValue("id"), req.Status, req.IsActive); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
