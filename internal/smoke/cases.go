package smoke

import (
	"net/http"
	"strconv"
)

// Cases returns the checks for one round. IDs and keywords vary with round
// so repeated rounds do not send identical paths.
func Cases(round int) []Case {
	id := strconv.Itoa(round*7 + 1)
	keyword := "kw" + strconv.Itoa(round)

	return []Case{
		{Name: "products.list", Method: http.MethodGet, Path: "/api/products", WantStatus: http.StatusOK, WantBody: "This would return all products"},
		{Name: "products.get", Method: http.MethodGet, Path: "/api/products/" + id, WantStatus: http.StatusOK, WantBody: "This would return product with ID: " + id},
		{Name: "products.create", Method: http.MethodPost, Path: "/api/products", Body: `{"name":"widget"}`, WantStatus: http.StatusOK, WantBody: "This would create a new product"},
		{Name: "products.update", Method: http.MethodPut, Path: "/api/products/" + id, WantStatus: http.StatusOK, WantBody: "This would update product with ID: " + id},
		{Name: "products.delete", Method: http.MethodDelete, Path: "/api/products/" + id, WantStatus: http.StatusOK, WantBody: "This would delete product with ID: " + id},
		{Name: "products.search", Method: http.MethodGet, Path: "/api/products/search?keyword=" + keyword, WantStatus: http.StatusOK, WantBody: "This would search products with keyword: " + keyword},
		{Name: "users.list", Method: http.MethodGet, Path: "/api/users", WantStatus: http.StatusOK, WantBody: "This would return all users"},
		{Name: "users.get", Method: http.MethodGet, Path: "/api/users/" + id, WantStatus: http.StatusOK, WantBody: "This would return user with ID: " + id},
		{Name: "users.create", Method: http.MethodPost, Path: "/api/users", Body: `{"name":"ada"}`, WantStatus: http.StatusOK, WantBody: "This would create a new user"},
		{Name: "users.update", Method: http.MethodPut, Path: "/api/users/" + id, WantStatus: http.StatusOK, WantBody: "This would update user with ID: " + id},
		{Name: "users.delete", Method: http.MethodDelete, Path: "/api/users/" + id, WantStatus: http.StatusOK, WantBody: "This would delete user with ID: " + id},
		{Name: "users.patch", Method: http.MethodPatch, Path: "/api/users/" + id, WantStatus: http.StatusOK, WantBody: "This would partially update user with ID: " + id},
		{Name: "products.get.invalid_id", Method: http.MethodGet, Path: "/api/products/abc", WantStatus: http.StatusBadRequest},
		{Name: "products.search.missing_keyword", Method: http.MethodGet, Path: "/api/products/search", WantStatus: http.StatusBadRequest},
		{Name: "products.patch.not_allowed", Method: http.MethodPatch, Path: "/api/products/" + id, WantStatus: http.StatusMethodNotAllowed},
	}
}
