package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sodrunberkicau/microservice-docker-alp/internal/orders/order"
)

// OrderService is what the transport needs from the core.
type OrderService interface {
	Create(ctx context.Context, userID int64, items []order.Item) (int64, error)
	List(ctx context.Context) ([]order.Listing, error)
	AttachProof(ctx context.Context, orderID int64, encoded, fileName, fileType string) (*order.Order, error)
	Proof(ctx context.Context, orderID int64) ([]byte, string, error)
}

type Server struct {
	orderSvc OrderService
	logger   *slog.Logger
	mux      *http.ServeMux
}

func NewServer(orderSvc OrderService, logger *slog.Logger) *Server {
	s := &Server{
		orderSvc: orderSvc,
		logger:   logger,
		mux:      http.NewServeMux(),
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /orders", s.createOrder)
	s.mux.HandleFunc("GET /orders", s.listOrders)
	s.mux.HandleFunc("PATCH /orders/{orderID}/upload-proof", s.uploadProof)
	s.mux.HandleFunc("GET /orders/{orderID}/upload-proof", s.getProof)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID int64        `json:"userId"`
		Items  []order.Item `json:"items"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	userID := req.UserID
	// The upstream auth layer forwards the caller's identity in a header;
	// it wins over whatever the body claims.
	if v := r.Header.Get("X-User-ID"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid X-User-ID header")
			return
		}
		userID = parsed
	}
	if userID == 0 {
		userID = 1
	}

	orderID, err := s.orderSvc.Create(r.Context(), userID, req.Items)
	if err != nil {
		s.writeServiceError(w, err, "create order")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Order created",
		"orderId": orderID,
	})
}

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	listings, err := s.orderSvc.List(r.Context())
	if err != nil {
		s.writeServiceError(w, err, "list orders")
		return
	}
	if listings == nil {
		listings = []order.Listing{}
	}
	writeJSON(w, http.StatusOK, listings)
}

func (s *Server) uploadProof(w http.ResponseWriter, r *http.Request) {
	orderID, err := orderIDFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req struct {
		TrxProof string `json:"trxProof"`
		FileName string `json:"fileName"`
		FileType string `json:"fileType"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	updated, err := s.orderSvc.AttachProof(r.Context(), orderID, req.TrxProof, req.FileName, req.FileType)
	if err != nil {
		s.writeServiceError(w, err, "upload proof")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) getProof(w http.ResponseWriter, r *http.Request) {
	orderID, err := orderIDFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	data, contentType, err := s.orderSvc.Proof(r.Context(), orderID)
	if err != nil {
		s.writeServiceError(w, err, "get proof")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) writeServiceError(w http.ResponseWriter, err error, op string) {
	var verr order.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, order.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, "Order not found")
	case errors.Is(err, order.ErrProofNotFound):
		writeError(w, http.StatusNotFound, "File not uploaded yet")
	default:
		s.logger.Error(op, "err", err)
		writeError(w, http.StatusInternalServerError, "Server error")
	}
}

func orderIDFromRequest(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("orderID"), 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}
