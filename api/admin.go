package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// adminHandlers serve the all-records path. Nothing here is cached.
type adminHandlers struct {
	customers    CustomerService
	transactions TransactionService
	stats        StatsProvider
}

func (h *adminHandlers) listCustomers(ctx *gin.Context) error {
	payload, err := h.customers.ListAll(ctx.Request.Context())
	if err != nil {
		return err
	}
	return Payload(ctx, http.StatusOK, payload)
}

func (h *adminHandlers) restoreCustomer(ctx *gin.Context) error {
	id, err := parseID(ctx, "Customer")
	if err != nil {
		return err
	}

	view, err := h.customers.Restore(ctx.Request.Context(), id)
	if err != nil {
		return err
	}
	return Respond(ctx, view, http.StatusOK)
}

func (h *adminHandlers) purgeCustomer(ctx *gin.Context) error {
	id, err := parseID(ctx, "Customer")
	if err != nil {
		return err
	}

	if err := h.customers.Purge(ctx.Request.Context(), id); err != nil {
		return err
	}
	return Respond(ctx, nil, http.StatusNoContent)
}

func (h *adminHandlers) listTransactions(ctx *gin.Context) error {
	payload, err := h.transactions.ListAll(ctx.Request.Context())
	if err != nil {
		return err
	}
	return Payload(ctx, http.StatusOK, payload)
}

func (h *adminHandlers) deleteTransaction(ctx *gin.Context) error {
	id, err := parseID(ctx, "Transaction")
	if err != nil {
		return err
	}

	if err := h.transactions.Delete(ctx.Request.Context(), id); err != nil {
		return err
	}
	return Respond(ctx, nil, http.StatusNoContent)
}

func (h *adminHandlers) restoreTransaction(ctx *gin.Context) error {
	id, err := parseID(ctx, "Transaction")
	if err != nil {
		return err
	}

	view, err := h.transactions.Restore(ctx.Request.Context(), id)
	if err != nil {
		return err
	}
	return Respond(ctx, view, http.StatusOK)
}

func (h *adminHandlers) cacheStats(ctx *gin.Context) error {
	return Respond(ctx, h.stats.Stats(), http.StatusOK)
}
