// Package rest provides HTTP handlers for product-related operations.
package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	perrors "github.com/Nest-Microservices-MFY/products-microservice/internal/errors"
	"github.com/Nest-Microservices-MFY/products-microservice/internal/service"
	"github.com/Nest-Microservices-MFY/products-microservice/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	service  service.ProductService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates a new instance of Handler with the provided service.
// The service is expected to report failures with perrors.HTTPFactory.
func NewHandler(service service.ProductService, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes for the product service.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", h.FindAll)
		r.Post("/", h.Create)
		r.Get("/removed", h.FindAllRemoved)
		r.Post("/validate", h.ValidateExisting)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.FindByID)
			r.Patch("/", h.Update)
			r.Delete("/", h.Remove)
		})
	})

	r.Get("/healthz", h.HealthCheck)
}

// Create handles the creation of a new product.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var dto service.ProductCreateDto
	if !h.decodeAndValidate(w, r, &dto) {
		return
	}
	h.logger.DebugContext(r.Context(), "Received request to create product", "product", dto)

	created, err := h.service.Create(r.Context(), dto)
	if err != nil {
		h.respondServiceError(w, r, "Failed to create product", err)
		return
	}
	h.logger.InfoContext(r.Context(), "Product created successfully", "ID", created.ID, "Name", created.Name)
	web.RespondJSON(w, h.logger, http.StatusCreated, created)
}

// FindAll retrieves a page of available products.
func (h *Handler) FindAll(w http.ResponseWriter, r *http.Request) {
	pagination, ok := h.parsePagination(w, r)
	if !ok {
		return
	}
	h.logger.DebugContext(r.Context(), "Received request to list products", "page", pagination.Page, "limit", pagination.Limit)

	page, err := h.service.FindAll(r.Context(), pagination)
	if err != nil {
		h.respondServiceError(w, r, "Failed to fetch products", err)
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, page)
}

// FindAllRemoved retrieves a page of soft-deleted products.
func (h *Handler) FindAllRemoved(w http.ResponseWriter, r *http.Request) {
	pagination, ok := h.parsePagination(w, r)
	if !ok {
		return
	}
	h.logger.DebugContext(r.Context(), "Received request to list removed products", "page", pagination.Page, "limit", pagination.Limit)

	page, err := h.service.FindAllRemoved(r.Context(), pagination)
	if err != nil {
		h.respondServiceError(w, r, "Failed to fetch removed products", err)
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, page)
}

// FindByID retrieves an available product by its ID.
func (h *Handler) FindByID(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	h.logger.DebugContext(r.Context(), "Received request to find product by ID", "ID", id)

	found, err := h.service.FindByID(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, "Failed to retrieve product", err)
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, found)
}

// Update applies a partial update to an available product.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	var dto service.ProductUpdateDto
	if !h.decodeAndValidate(w, r, &dto) {
		return
	}
	h.logger.DebugContext(r.Context(), "Received request to update product", "ID", id)

	updated, err := h.service.Update(r.Context(), id, dto)
	if err != nil {
		h.respondServiceError(w, r, "Failed to update product", err)
		return
	}
	h.logger.InfoContext(r.Context(), "Product updated successfully", "ID", updated.ID, "Name", updated.Name)
	web.RespondJSON(w, h.logger, http.StatusOK, updated)
}

// Remove soft-deletes a product and returns it.
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	h.logger.DebugContext(r.Context(), "Received request to remove product", "ID", id)

	removed, err := h.service.Remove(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, "Failed to remove product", err)
		return
	}
	h.logger.InfoContext(r.Context(), "Product removed successfully", "ID", removed.ID)
	web.RespondJSON(w, h.logger, http.StatusOK, removed)
}

// ValidateExisting checks that every id in the JSON array body names a product.
func (h *Handler) ValidateExisting(w http.ResponseWriter, r *http.Request) {
	var ids []int64
	if err := json.NewDecoder(r.Body).Decode(&ids); err != nil {
		h.logger.WarnContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Var(ids, "dive,gt=0"); err != nil {
		h.logger.WarnContext(r.Context(), "Invalid product ids", "error", err)
		web.RespondError(w, h.logger, http.StatusBadRequest, "Product ids must be positive integers")
		return
	}

	products, err := h.service.ValidateExisting(r.Context(), ids)
	if err != nil {
		h.respondServiceError(w, r, "Failed to validate products", err)
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, products)
}

// HealthCheck is a simple health check endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) parsePagination(w http.ResponseWriter, r *http.Request) (service.PaginationDto, bool) {
	page, ok := web.ParseQueryGt(r, w, h.logger, "page", 0, service.DefaultPage)
	if !ok {
		return service.PaginationDto{}, false
	}
	limit, ok := web.ParseQueryGt(r, w, h.logger, "limit", 0, service.DefaultLimit)
	if !ok {
		return service.PaginationDto{}, false
	}
	return service.PaginationDto{Page: page, Limit: limit}, true
}

// decodeAndValidate reads the JSON body into dst and runs struct validation.
// On failure a 400 response has already been written.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.logger.WarnContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			errorResponse := make(map[string]string)
			for _, fieldErr := range validationErrors {
				errorResponse[fieldErr.Field()] = "failed on rule: " + fieldErr.Tag()
			}
			h.logger.WarnContext(r.Context(), "Validation errors occurred", "errors", errorResponse)
			web.RespondJSON(w, h.logger, http.StatusBadRequest, map[string]any{"validation_errors": errorResponse})
			return false
		}
		h.logger.ErrorContext(r.Context(), "Error validating request body", "error", err)
		web.RespondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// respondServiceError writes the status carried by an HTTPError, or 500 with fallback for anything else.
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, fallback string, err error) {
	var httpErr *perrors.HTTPError
	if errors.As(err, &httpErr) {
		h.logger.WarnContext(r.Context(), httpErr.Message, "status", httpErr.Status)
		web.RespondError(w, h.logger, httpErr.Status, httpErr.Message)
		return
	}
	h.logger.ErrorContext(r.Context(), fallback, "error", err)
	web.RespondError(w, h.logger, http.StatusInternalServerError, fallback)
}
