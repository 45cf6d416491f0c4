package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/goliatone/go-customer-ledger/service"
)

type customerHandlers struct {
	svc CustomerService
}

func (h *customerHandlers) list(ctx *gin.Context) error {
	payload, err := h.svc.List(ctx.Request.Context())
	if err != nil {
		return err
	}
	return Payload(ctx, http.StatusOK, payload)
}

func (h *customerHandlers) get(ctx *gin.Context) error {
	id, err := parseID(ctx, "Customer")
	if err != nil {
		return err
	}

	payload, err := h.svc.Get(ctx.Request.Context(), id)
	if err != nil {
		return err
	}
	return Payload(ctx, http.StatusOK, payload)
}

func (h *customerHandlers) create(ctx *gin.Context) error {
	var in service.CustomerInput
	if err := decodeJSON(ctx, &in); err != nil {
		return err
	}

	view, err := h.svc.Create(ctx.Request.Context(), in)
	if err != nil {
		return err
	}
	return Respond(ctx, view, http.StatusCreated)
}

func (h *customerHandlers) update(ctx *gin.Context) error {
	id, err := parseID(ctx, "Customer")
	if err != nil {
		return err
	}

	var in service.CustomerInput
	if err := decodeJSON(ctx, &in); err != nil {
		return err
	}

	view, err := h.svc.Update(ctx.Request.Context(), id, in)
	if err != nil {
		return err
	}
	return Respond(ctx, view, http.StatusOK)
}

func (h *customerHandlers) delete(ctx *gin.Context) error {
	id, err := parseID(ctx, "Customer")
	if err != nil {
		return err
	}

	if err := h.svc.Delete(ctx.Request.Context(), id); err != nil {
		return err
	}
	return Respond(ctx, nil, http.StatusNoContent)
}

func (h *customerHandlers) search(ctx *gin.Context) error {
	hits, err := h.svc.Search(ctx.Request.Context(), ctx.Query("query"))
	if err != nil {
		return err
	}
	return Respond(ctx, hits, http.StatusOK)
}
