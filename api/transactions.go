package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/goliatone/go-customer-ledger/service"
)

type transactionHandlers struct {
	svc TransactionService
}

func (h *transactionHandlers) list(ctx *gin.Context) error {
	payload, err := h.svc.List(ctx.Request.Context())
	if err != nil {
		return err
	}
	return Payload(ctx, http.StatusOK, payload)
}

func (h *transactionHandlers) get(ctx *gin.Context) error {
	id, err := parseID(ctx, "Transaction")
	if err != nil {
		return err
	}

	payload, err := h.svc.Get(ctx.Request.Context(), id)
	if err != nil {
		return err
	}
	return Payload(ctx, http.StatusOK, payload)
}

// create answers POST /customers/:id/transactions/.
func (h *transactionHandlers) create(ctx *gin.Context) error {
	customerID, err := parseID(ctx, "Customer")
	if err != nil {
		return err
	}

	var in service.TransactionInput
	if err := decodeJSON(ctx, &in); err != nil {
		return err
	}

	view, err := h.svc.Create(ctx.Request.Context(), customerID, in)
	if err != nil {
		return err
	}
	return Respond(ctx, view, http.StatusCreated)
}

func (h *transactionHandlers) search(ctx *gin.Context) error {
	hits, err := h.svc.Search(ctx.Request.Context(), ctx.Request.URL.Query())
	if err != nil {
		return err
	}
	return Respond(ctx, hits, http.StatusOK)
}
