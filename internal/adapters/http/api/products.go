package api

import (
	"net/http"

	"github.com/techwolf/example-api/internal/domain/resource"
)

// ProductHandler serves /api/products.
type ProductHandler struct{}

// NewProductHandler creates a new product handler.
func NewProductHandler() *ProductHandler {
	return &ProductHandler{}
}

// Routes implements Router.
func (h *ProductHandler) Routes() []Route {
	const base = "/api/products"
	return []Route{
		{Method: http.MethodGet, Pattern: base, Name: "products.list", Handler: h.HandleList},
		{Method: http.MethodGet, Pattern: base + "/{id}", Name: "products.get", Handler: h.HandleGet},
		{Method: http.MethodPost, Pattern: base, Name: "products.create", Handler: h.HandleCreate},
		{Method: http.MethodPut, Pattern: base + "/{id}", Name: "products.update", Handler: h.HandleUpdate},
		{Method: http.MethodDelete, Pattern: base + "/{id}", Name: "products.delete", Handler: h.HandleDelete},
		{Method: http.MethodGet, Pattern: base + "/search", Name: "products.search", Handler: h.HandleSearch},
	}
}

// HandleList handles GET /api/products.
func (h *ProductHandler) HandleList(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, resource.List(resource.Product))
}

// HandleGet handles GET /api/products/{id}.
func (h *ProductHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "api.products.get")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	writeText(w, http.StatusOK, resource.Get(resource.Product, id))
}

// HandleCreate handles POST /api/products. The body is ignored.
func (h *ProductHandler) HandleCreate(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, resource.Create(resource.Product))
}

// HandleUpdate handles PUT /api/products/{id}.
func (h *ProductHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "api.products.update")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	writeText(w, http.StatusOK, resource.Update(resource.Product, id))
}

// HandleDelete handles DELETE /api/products/{id}.
func (h *ProductHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "api.products.delete")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	writeText(w, http.StatusOK, resource.Delete(resource.Product, id))
}

// HandleSearch handles GET /api/products/search?keyword=...
func (h *ProductHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	keyword, err := requiredQuery(r, "api.products.search", "keyword")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	writeText(w, http.StatusOK, resource.Search(resource.Product, keyword))
}
