package api

import (
	"net/http"

	"github.com/techwolf/example-api/internal/domain/resource"
)

// UserHandler serves /api/users.
type UserHandler struct{}

// NewUserHandler creates a new user handler.
func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

// Routes implements Router.
func (h *UserHandler) Routes() []Route {
	const base = "/api/users"
	return []Route{
		{Method: http.MethodGet, Pattern: base, Name: "users.list", Handler: h.HandleList},
		{Method: http.MethodGet, Pattern: base + "/{id}", Name: "users.get", Handler: h.HandleGet},
		{Method: http.MethodPost, Pattern: base, Name: "users.create", Handler: h.HandleCreate},
		{Method: http.MethodPut, Pattern: base + "/{id}", Name: "users.update", Handler: h.HandleUpdate},
		{Method: http.MethodDelete, Pattern: base + "/{id}", Name: "users.delete", Handler: h.HandleDelete},
		{Method: http.MethodPatch, Pattern: base + "/{id}", Name: "users.patch", Handler: h.HandlePatch},
	}
}

// HandleList handles GET /api/users.
func (h *UserHandler) HandleList(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, resource.List(resource.User))
}

// HandleGet handles GET /api/users/{id}.
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	h.withID(w, r, "api.users.get", func(id int64) string { return resource.Get(resource.User, id) })
}

// HandleCreate handles POST /api/users. The body is ignored.
func (h *UserHandler) HandleCreate(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, resource.Create(resource.User))
}

// HandleUpdate handles PUT /api/users/{id}.
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	h.withID(w, r, "api.users.update", func(id int64) string { return resource.Update(resource.User, id) })
}

// HandleDelete handles DELETE /api/users/{id}.
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	h.withID(w, r, "api.users.delete", func(id int64) string { return resource.Delete(resource.User, id) })
}

// HandlePatch handles PATCH /api/users/{id}.
func (h *UserHandler) HandlePatch(w http.ResponseWriter, r *http.Request) {
	h.withID(w, r, "api.users.patch", func(id int64) string { return resource.PartialUpdate(resource.User, id) })
}

func (h *UserHandler) withID(w http.ResponseWriter, r *http.Request, op string, message func(int64) string) {
	id, err := pathID(r, op)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	writeText(w, http.StatusOK, message(id))
}
