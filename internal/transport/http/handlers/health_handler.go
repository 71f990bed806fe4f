package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	httperrors "github.com/chloe472/Reely/internal/transport/http/errors"
)

type HealthHandler struct {
	pool *pgxpool.Pool
}

func NewHealthHandler(pool *pgxpool.Pool) *HealthHandler {
	return &HealthHandler{pool: pool}
}

type healthResponse struct {
	Status   string `json:"status"`
	Postgres bool   `json:"postgres"`
}

func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	response := healthResponse{Status: "ok"}

	if h.pool != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		response.Postgres = h.pool.Ping(ctx) == nil
	}

	httperrors.Write(w, http.StatusOK, response)
}
