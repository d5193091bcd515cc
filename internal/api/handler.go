package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"pharmapos/m/domain"
	"pharmapos/m/internal/ai"
	"pharmapos/m/internal/auth"
	"pharmapos/m/internal/storage"
)

type ctxKey string

const (
	ctxUserID ctxKey = "userID"
	ctxRole   ctxKey = "role"
)

const expiryWarningWindow = 90 * 24 * time.Hour

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	inventory *storage.Inventory
	ledger    *storage.Ledger
	engine    *storage.Engine
	auth      *auth.Service
	assistant *ai.Client
}

// New constructs a Handler.
func New(inventory *storage.Inventory, ledger *storage.Ledger, engine *storage.Engine, authSvc *auth.Service, assistant *ai.Client) *Handler {
	return &Handler{
		inventory: inventory,
		ledger:    ledger,
		engine:    engine,
		auth:      authSvc,
		assistant: assistant,
	}
}

// Router wires up the HTTP API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.health)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.login)
		r.Group(func(protected chi.Router) {
			protected.Use(h.authMiddleware)
			protected.Post("/logout", h.logout)
			protected.Get("/me", h.me)
		})
	})

	r.Group(func(pr chi.Router) {
		pr.Use(h.authMiddleware)

		pr.Route("/inventory", func(r chi.Router) {
			r.Get("/", h.listInventory)
			r.Post("/", h.addItem)
			r.Put("/{id}", h.updateItem)
			r.Delete("/{id}", h.deleteItem)
			r.Post("/{id}/movements", h.adjustStock)
		})

		pr.Post("/sales", h.createSale)
		pr.Get("/transactions", h.listTransactions)
		pr.Get("/dashboard/stats", h.dashboardStats)

		pr.Route("/assistant", func(r chi.Router) {
			r.Post("/analyze", h.analyzeInventory)
			r.Post("/chat", h.chat)
		})
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Authentication

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		claims, err := h.auth.VerifyToken(strings.TrimSpace(header[len("Bearer "):]))
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		ctx := context.WithValue(r.Context(), ctxUserID, claims.UserID)
		ctx = context.WithValue(ctx, ctxRole, claims.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) requireRole(w http.ResponseWriter, r *http.Request, allowed ...domain.Role) bool {
	role := r.Context().Value(ctxRole)
	if role == nil {
		respondError(w, http.StatusUnauthorized, "missing role")
		return false
	}
	current := role.(domain.Role)
	for _, allowedRole := range allowed {
		if current == allowedRole {
			return true
		}
	}
	respondError(w, http.StatusForbidden, "insufficient permissions")
	return false
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Username == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "username and password are required")
		return
	}
	session, err := h.auth.Login(req.Username, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to log in")
		return
	}
	respondJSON(w, http.StatusOK, session)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to log out")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	user, ok, err := h.auth.CurrentUser()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to read session")
		return
	}
	if !ok {
		respondError(w, http.StatusUnauthorized, "not logged in")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// Inventory handlers

type itemRequest struct {
	Name          string  `json:"name"`
	GenericName   string  `json:"genericName"`
	Category      string  `json:"category"`
	Quantity      int64   `json:"quantity"`
	Unit          string  `json:"unit"`
	Price         float64 `json:"price"`
	ExpiryDate    string  `json:"expiryDate"`
	MinStockLevel int64   `json:"minStockLevel"`
	BatchNumber   string  `json:"batchNumber"`
	Manufacturer  string  `json:"manufacturer"`
}

func (req itemRequest) validate() string {
	if strings.TrimSpace(req.Name) == "" {
		return "name is required"
	}
	if req.Quantity < 0 {
		return "quantity must not be negative"
	}
	if req.Price < 0 {
		return "price must not be negative"
	}
	if req.MinStockLevel < 0 {
		return "minStockLevel must not be negative"
	}
	if req.ExpiryDate != "" {
		if _, err := time.Parse("2006-01-02", req.ExpiryDate); err != nil {
			return "expiryDate must be in YYYY-MM-DD format"
		}
	}
	return ""
}

func (req itemRequest) toItem(id string) domain.InventoryItem {
	return domain.InventoryItem{
		ID:            id,
		Name:          strings.TrimSpace(req.Name),
		GenericName:   req.GenericName,
		Category:      req.Category,
		Quantity:      req.Quantity,
		Unit:          req.Unit,
		Price:         req.Price,
		ExpiryDate:    req.ExpiryDate,
		MinStockLevel: req.MinStockLevel,
		BatchNumber:   req.BatchNumber,
		Manufacturer:  req.Manufacturer,
	}
}

func (h *Handler) listInventory(w http.ResponseWriter, r *http.Request) {
	items, err := h.inventory.List()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list inventory")
		return
	}
	respondJSON(w, http.StatusOK, items)
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RoleAdmin) {
		return
	}
	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := req.validate(); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}
	item, err := h.inventory.Upsert(req.toItem(uuid.NewString()))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to add item")
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RoleAdmin) {
		return
	}
	id := chi.URLParam(r, "id")
	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := req.validate(); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}
	item, err := h.inventory.Upsert(req.toItem(id))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update item")
		return
	}
	respondJSON(w, http.StatusOK, item)
}

func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RoleAdmin) {
		return
	}
	if err := h.inventory.Remove(chi.URLParam(r, "id")); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to delete item")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type movementRequest struct {
	Quantity  int64  `json:"quantity"`
	Direction string `json:"direction"`
	Notes     string `json:"notes"`
}

func (h *Handler) adjustStock(w http.ResponseWriter, r *http.Request) {
	var req movementRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Quantity <= 0 {
		respondError(w, http.StatusBadRequest, "quantity must be a positive integer")
		return
	}
	direction := domain.MovementType(strings.ToUpper(strings.TrimSpace(req.Direction)))
	if direction != domain.MovementIn && direction != domain.MovementOut {
		respondError(w, http.StatusBadRequest, "direction must be IN or OUT")
		return
	}
	notes := req.Notes
	if notes == "" {
		notes = "Manual adjustment"
	}

	err := h.engine.AdjustStock(chi.URLParam(r, "id"), req.Quantity, direction, notes)
	if err != nil {
		respondMovementError(w, err, "unable to adjust stock")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "stock updated"})
}

// Sales

type saleRequest struct {
	Items []domain.CartLine `json:"items"`
}

func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	var req saleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Items) == 0 {
		respondError(w, http.StatusBadRequest, "at least one item is required")
		return
	}
	for _, line := range req.Items {
		if line.ItemID == "" || line.Quantity <= 0 {
			respondError(w, http.StatusBadRequest, "itemId and a positive quantity are required for each item")
			return
		}
	}

	if err := h.engine.ProcessSale(req.Items); err != nil {
		respondMovementError(w, err, "unable to process sale")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"status": "sale completed",
		"lines":  len(req.Items),
	})
}

func respondMovementError(w http.ResponseWriter, err error, fallback string) {
	var insufficient *storage.InsufficientStockError
	switch {
	case errors.Is(err, storage.ErrItemNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &insufficient):
		respondError(w, http.StatusConflict, insufficient.Error())
	default:
		respondError(w, http.StatusInternalServerError, fallback)
	}
}

// Ledger

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	entries, err := h.ledger.List()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list transactions")
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

// Dashboard

type dashboardStats struct {
	TotalItems         int                  `json:"totalItems"`
	TotalStockValue    float64              `json:"totalStockValue"`
	LowStockCount      int                  `json:"lowStockCount"`
	ExpiredCount       int                  `json:"expiredCount"`
	ExpiringSoonCount  int                  `json:"expiringSoonCount"`
	TotalRevenue       float64              `json:"totalRevenue"`
	CategoryBreakdown  []categoryCount      `json:"categoryBreakdown"`
	RecentTransactions []domain.Transaction `json:"recentTransactions"`
}

type categoryCount struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

func (h *Handler) dashboardStats(w http.ResponseWriter, r *http.Request) {
	items, err := h.inventory.List()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load inventory")
		return
	}
	entries, err := h.ledger.List()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load transactions")
		return
	}

	now := time.Now()
	stats := dashboardStats{TotalItems: len(items)}
	byCategory := make(map[string]int64)
	for _, item := range items {
		stats.TotalStockValue += item.Price * float64(item.Quantity)
		if item.LowStock() {
			stats.LowStockCount++
		}
		if item.Expired(now) {
			stats.ExpiredCount++
		} else if item.ExpiringSoon(now, expiryWarningWindow) {
			stats.ExpiringSoonCount++
		}
		byCategory[item.Category] += item.Quantity
	}
	for name, value := range byCategory {
		stats.CategoryBreakdown = append(stats.CategoryBreakdown, categoryCount{Name: name, Value: value})
	}
	sort.Slice(stats.CategoryBreakdown, func(i, j int) bool {
		return stats.CategoryBreakdown[i].Name < stats.CategoryBreakdown[j].Name
	})

	for _, entry := range entries {
		if entry.Type == domain.MovementSale && entry.TotalPrice != nil {
			stats.TotalRevenue += *entry.TotalPrice
		}
	}
	if len(entries) > 5 {
		entries = entries[:5]
	}
	stats.RecentTransactions = entries

	respondJSON(w, http.StatusOK, stats)
}

// AI assistant

func (h *Handler) analyzeInventory(w http.ResponseWriter, r *http.Request) {
	items, err := h.inventory.List()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load inventory")
		return
	}
	reply, err := h.assistant.AnalyzeInventory(r.Context(), items)
	if err != nil {
		log.Printf("inventory analysis failed: %v", err)
		respondError(w, http.StatusBadGateway, "failed to analyze inventory, please try again later")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

type chatRequest struct {
	History []ai.ChatMessage `json:"history"`
	Message string           `json:"message"`
}

func (h *Handler) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respondError(w, http.StatusBadRequest, "message is required")
		return
	}
	reply, err := h.assistant.Chat(r.Context(), req.History, req.Message)
	if err != nil {
		log.Printf("assistant chat failed: %v", err)
		respondError(w, http.StatusBadGateway, "assistant is unavailable, please try again later")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

// Helpers

func decodeJSON(r *http.Request, dest interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
