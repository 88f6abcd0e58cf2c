package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"orderbridge/order-svc/internal/domain"
	"orderbridge/order-svc/internal/service"

	"github.com/gorilla/mux"
)

type Handler struct {
	Handshakes service.HandshakeServiceInterface
	Intake     service.IntakeServiceInterface
	Status     service.StatusServiceInterface
	Limiter    *RateLimiter
}

func NewHandler(handshakes service.HandshakeServiceInterface, intake service.IntakeServiceInterface, status service.StatusServiceInterface, limiter *RateLimiter) *Handler {
	return &Handler{Handshakes: handshakes, Intake: intake, Status: status, Limiter: limiter}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	// Cloud-facing endpoints hit by external websites are throttled per
	// caller.
	r.HandleFunc("/cloud-handshake", h.throttled(h.initiateHandshake)).Methods("POST")
	r.HandleFunc("/get-handshake-response", h.throttled(h.pollHandshake)).Methods("GET")
	r.HandleFunc("/cloud-order-receive", h.throttled(h.receiveOrder)).Methods("POST")

	// First-party app endpoints.
	r.HandleFunc("/api/orders/receive", h.receiveLocalOrder).Methods("POST")
	r.HandleFunc("/api/handshakes/{id}/respond", h.respondHandshake).Methods("POST")
	r.HandleFunc("/api/handshakes/{id}/qrcode", h.handshakeQR).Methods("GET")
	r.HandleFunc("/api/restaurants/{uid}/handshakes", h.pendingHandshakes).Methods("GET")
	r.HandleFunc("/api/orders/{id}/status", h.updateStatus).Methods("POST")
	r.HandleFunc("/api/orders/{id}", h.getOrder).Methods("GET")
	r.HandleFunc("/api/orders", h.listOrders).Methods("GET")

	r.HandleFunc("/health", h.health).Methods("GET")
}

func (h *Handler) throttled(next http.HandlerFunc) http.HandlerFunc {
	if h.Limiter == nil {
		return next
	}
	return h.Limiter.Wrap(next)
}

func (h *Handler) initiateHandshake(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		WebsiteRestaurantID string `json:"website_restaurant_id"`
		CallbackURL         string `json:"callback_url"`
		WebsiteDomain       string `json:"website_domain"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid payload", http.StatusBadRequest)
		return
	}

	req, err := h.Handshakes.Initiate(r.Context(), payload.WebsiteRestaurantID, payload.CallbackURL, payload.WebsiteDomain)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success":                 true,
		"handshake_request_id":    req.ID,
		"message":                 "handshake accepted, poll for the restaurant response",
		"estimated_response_time": service.HandshakeTTL.String(),
	})
}

func (h *Handler) pollHandshake(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("handshake_request_id")
	if id == "" {
		http.Error(w, "Missing handshake_request_id", http.StatusBadRequest)
		return
	}

	result, err := h.Handshakes.Poll(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	code := http.StatusOK
	body := map[string]any{
		"success":              true,
		"handshake_request_id": result.Request.ID,
		"status":               result.Status,
		"message":              result.Message,
		"created_at":           result.Request.CreatedAt,
	}
	switch result.Status {
	case domain.HandshakePending, domain.HandshakeProcessing:
		code = http.StatusAccepted
		body["expires_at"] = result.Request.ExpiresAt
	case domain.HandshakeExpired:
		code = http.StatusRequestTimeout
		body["success"] = false
	case domain.HandshakeFailed:
		body["success"] = false
	}
	if result.Response != nil {
		body["response"] = result.Response
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}

func (h *Handler) receiveOrder(w http.ResponseWriter, r *http.Request) {
	var sub domain.OrderSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		http.Error(w, "Invalid payload", http.StatusBadRequest)
		return
	}

	order, err := h.Intake.Receive(r.Context(), &sub)
	if err != nil {
		h.writeIntakeError(w, err)
		return
	}

	h.writeOrderReceived(w, order)
}

func (h *Handler) receiveLocalOrder(w http.ResponseWriter, r *http.Request) {
	var sub domain.OrderSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		http.Error(w, "Invalid payload", http.StatusBadRequest)
		return
	}

	order, err := h.Intake.ReceiveLocal(
		r.Context(),
		r.Header.Get("X-Restaurant-UID"),
		r.Header.Get("X-Website-Restaurant-ID"),
		r.Header.Get("X-Idempotency-Key"),
		&sub,
	)
	if err != nil {
		h.writeIntakeError(w, err)
		return
	}

	h.writeOrderReceived(w, order)
}

func (h *Handler) writeOrderReceived(w http.ResponseWriter, order *domain.Order) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success":     true,
		"order_id":    order.ID,
		"message":     "order " + order.OrderNumber + " received",
		"received_at": order.CreatedAt,
	})
}

func (h *Handler) respondHandshake(w http.ResponseWriter, r *http.Request) {
	var resp domain.HandshakeResponse
	if err := json.NewDecoder(r.Body).Decode(&resp); err != nil {
		http.Error(w, "Invalid payload", http.StatusBadRequest)
		return
	}
	resp.HandshakeRequestID = mux.Vars(r)["id"]

	if err := h.Handshakes.Respond(r.Context(), &resp); err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"handshake_request_id": resp.HandshakeRequestID,
		"status":               domain.HandshakeCompleted,
	})
}

func (h *Handler) handshakeQR(w http.ResponseWriter, r *http.Request) {
	png, err := h.Handshakes.PairingQR(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

func (h *Handler) pendingHandshakes(w http.ResponseWriter, r *http.Request) {
	requests, err := h.Handshakes.Pending(r.Context(), mux.Vars(r)["uid"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(requests)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Status    string `json:"status"`
		UpdatedBy string `json:"updated_by"`
		Notes     string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid payload", http.StatusBadRequest)
		return
	}
	if payload.Status == "" {
		http.Error(w, "Missing status", http.StatusBadRequest)
		return
	}

	result, err := h.Status.UpdateStatus(r.Context(), mux.Vars(r)["id"], payload.Status, payload.UpdatedBy, payload.Notes)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, service.ErrInvalidTransition):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, service.ErrStaleStatus):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, service.ErrDeliveryFailed):
			// Local status was not advanced; the caller decides whether
			// to retry.
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadGateway)
			attempts := 0
			if result != nil {
				attempts = result.Attempts
			}
			json.NewEncoder(w).Encode(map[string]any{
				"error":    err.Error(),
				"attempts": attempts,
			})
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":    payload.Status,
		"delivered": result.Delivered,
		"attempts":  result.Attempts,
	})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.Intake.Get(mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(order)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	restaurantUID := r.URL.Query().Get("restaurant_uid")
	if restaurantUID == "" {
		http.Error(w, "Missing restaurant_uid", http.StatusBadRequest)
		return
	}

	orders, err := h.Intake.List(restaurantUID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(orders)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var missing *service.MissingFieldError
	switch {
	case errors.As(err, &missing):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrHandshakeNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, service.ErrHandshakeExpired):
		http.Error(w, err.Error(), http.StatusRequestTimeout)
	case errors.Is(err, service.ErrHandshakeTerminal):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, service.ErrHandshakeIncomplete):
		http.Error(w, err.Error(), http.StatusInternalServerError)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) writeIntakeError(w http.ResponseWriter, err error) {
	var missing *service.MissingFieldError
	var duplicate *service.DuplicateOrderError
	switch {
	case errors.As(err, &missing):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &duplicate):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{
			"error":       "duplicate order",
			"order_id":    duplicate.OrderID,
			"orderNumber": duplicate.OrderNumber,
		})
	case errors.Is(err, service.ErrIdempotencyReplay):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, service.ErrRestaurantNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, service.ErrUIDMismatch):
		http.Error(w, err.Error(), http.StatusForbidden)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
