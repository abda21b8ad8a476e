package rest

import (
	"leverage/core"
	"leverage/handler/param"
	"leverage/handler/render"
	"net/http"
)

const maxOperations = 500

func operationsHandler(operations core.IOperationStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, err := pathAddress(r, "owner")
		if err != nil {
			render.Error(w, err)
			return
		}

		var query struct {
			Limit int `json:"limit"`
		}

		if err := param.Query(r, &query); err != nil {
			render.Error(w, err)
			return
		}

		if query.Limit <= 0 || query.Limit > maxOperations {
			query.Limit = maxOperations
		}

		ops, err := operations.ListByOwner(r.Context(), owner.Hex(), query.Limit)
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, ops)
	}
}
