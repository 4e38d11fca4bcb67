package api

import (
	"fmt"
	"net/http"

	"github.com/techwolf/example-api/internal/domain/resource"
)

// pathID binds the {id} wildcard as an int64.
func pathID(r *http.Request, op string) (int64, error) {
	id, err := resource.ParseID(r.PathValue("id"))
	if err != nil {
		return 0, WrapKind(op, ErrBadRequest, err)
	}
	return id, nil
}

// requiredQuery returns a query parameter that must be present. A present
// but empty value is accepted.
func requiredQuery(r *http.Request, op, name string) (string, error) {
	q := r.URL.Query()
	if !q.Has(name) {
		return "", WrapKind(op, ErrBadRequest, fmt.Errorf("%w %q", ErrMissingParam, name))
	}
	return q.Get(name), nil
}
