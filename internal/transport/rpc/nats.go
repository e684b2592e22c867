// Package rpc exposes the product service over NATS request-reply.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	perrors "github.com/Nest-Microservices-MFY/products-microservice/internal/errors"
	"github.com/Nest-Microservices-MFY/products-microservice/internal/service"
	"github.com/Nest-Microservices-MFY/products-microservice/pkg/config"
	"github.com/Nest-Microservices-MFY/products-microservice/pkg/logger"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// Subject suffixes appended to the configured prefix.
const (
	SubjectCreate         = "create"
	SubjectFindAll        = "find_all"
	SubjectFindAllRemoved = "find_all_removed"
	SubjectFindOne        = "find_one"
	SubjectUpdate         = "update"
	SubjectRemove         = "remove"
	SubjectValidate       = "validate"
)

// RequestIDHeader carries the caller's request id. A new one is generated when absent.
const RequestIDHeader = "X-Request-Id"

// Reply is the envelope sent back to every request. Exactly one field is set.
type Reply struct {
	Data  any              `json:"data,omitempty"`
	Error *perrors.RPCError `json:"error,omitempty"`
}

// IDRequest addresses a single product.
type IDRequest struct {
	ID int64 `json:"id" validate:"gt=0"`
}

// UpdateRequest is a partial update of the product with ID.
type UpdateRequest struct {
	ID int64 `json:"id" validate:"gt=0"`
	service.ProductUpdateDto
}

type handlerFunc func(ctx context.Context, data []byte) (any, error)

// Responder answers product requests on NATS subjects within a queue group.
type Responder struct {
	nc       *nats.Conn
	service  service.ProductService
	validate *validator.Validate
	cfg      config.NATSConfig
	logger   *slog.Logger
	routes   map[string]handlerFunc
	subs     []*nats.Subscription
}

// NewResponder creates a Responder. The service is expected to report failures with perrors.RPCFactory.
func NewResponder(nc *nats.Conn, svc service.ProductService, cfg config.NATSConfig, logger *slog.Logger) *Responder {
	r := &Responder{
		nc:       nc,
		service:  svc,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		cfg:      cfg,
		logger:   logger.With("component", "rpc"),
	}
	r.routes = map[string]handlerFunc{
		SubjectCreate:         r.create,
		SubjectFindAll:        r.findAll,
		SubjectFindAllRemoved: r.findAllRemoved,
		SubjectFindOne:        r.findOne,
		SubjectUpdate:         r.update,
		SubjectRemove:         r.remove,
		SubjectValidate:       r.validateExisting,
	}
	return r
}

// Subject returns the full subject of the given route.
func (r *Responder) Subject(route string) string {
	return r.cfg.Subject + "." + route
}

// Start subscribes every route. On failure the routes already subscribed are released.
func (r *Responder) Start() error {
	for route, handle := range r.routes {
		subject := r.Subject(route)
		sub, err := r.nc.QueueSubscribe(subject, r.cfg.Queue, func(msg *nats.Msg) {
			r.serve(msg, handle)
		})
		if err != nil {
			_ = r.Drain()
			return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
		}
		r.subs = append(r.subs, sub)
	}
	r.logger.Info("NATS responder started", "subject", r.cfg.Subject+".>", "queue", r.cfg.Queue)
	return nil
}

// Drain lets in-flight requests finish and removes every subscription.
func (r *Responder) Drain() error {
	var errs []error
	for _, sub := range r.subs {
		if err := sub.Drain(); err != nil {
			errs = append(errs, err)
		}
	}
	r.subs = nil
	return errors.Join(errs...)
}

func (r *Responder) serve(msg *nats.Msg, handle handlerFunc) {
	reqID := msg.Header.Get(RequestIDHeader)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	ctx := logger.WithRequestID(context.Background(), reqID)
	ctx, cancel := context.WithTimeout(ctx, r.timeout())
	defer cancel()

	r.logger.DebugContext(ctx, "Received request", "subject", msg.Subject)
	reply := r.dispatch(ctx, handle, msg.Data)
	if err := msg.Respond(reply); err != nil {
		r.logger.ErrorContext(ctx, "Failed to send reply", "subject", msg.Subject, "error", err)
	}
}

func (r *Responder) timeout() time.Duration {
	if r.cfg.Timeout > 0 {
		return r.cfg.Timeout
	}
	return 5 * time.Second
}

// dispatch runs handle and encodes its outcome as a Reply.
func (r *Responder) dispatch(ctx context.Context, handle handlerFunc, data []byte) []byte {
	result, err := handle(ctx, data)
	var reply Reply
	if err != nil {
		reply.Error = r.toRPCError(ctx, err)
	} else {
		reply.Data = result
	}
	encoded, err := json.Marshal(reply)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error encoding reply", "error", err)
		encoded, _ = json.Marshal(Reply{Error: perrors.NewRPCError(http.StatusInternalServerError, "internal server error")})
	}
	return encoded
}

func (r *Responder) toRPCError(ctx context.Context, err error) *perrors.RPCError {
	var rpcErr *perrors.RPCError
	if errors.As(err, &rpcErr) {
		r.logger.WarnContext(ctx, rpcErr.Message, "status", rpcErr.Status)
		return rpcErr
	}
	r.logger.ErrorContext(ctx, "Unexpected error handling request", "error", err)
	return perrors.NewRPCError(http.StatusInternalServerError, "internal server error")
}

// decode unmarshals data into dst and validates it. Empty payloads leave dst at its zero value.
func (r *Responder) decode(data []byte, dst any) error {
	if len(data) > 0 {
		if err := json.Unmarshal(data, dst); err != nil {
			return perrors.NewRPCError(http.StatusBadRequest, "Invalid request payload")
		}
	}
	if err := r.validate.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			fieldErr := validationErrors[0]
			return perrors.NewRPCError(http.StatusBadRequest,
				fmt.Sprintf("%s failed on rule: %s", fieldErr.Field(), fieldErr.Tag()))
		}
		return perrors.NewRPCError(http.StatusBadRequest, "Invalid request payload")
	}
	return nil
}

func (r *Responder) create(ctx context.Context, data []byte) (any, error) {
	var dto service.ProductCreateDto
	if err := r.decode(data, &dto); err != nil {
		return nil, err
	}
	return r.service.Create(ctx, dto)
}

func (r *Responder) pagination(data []byte) (service.PaginationDto, error) {
	var raw struct {
		Page  *int `json:"page"`
		Limit *int `json:"limit"`
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &raw); err != nil {
			return service.PaginationDto{}, perrors.NewRPCError(http.StatusBadRequest, "Invalid request payload")
		}
	}
	p := service.PaginationDto{Page: service.DefaultPage, Limit: service.DefaultLimit}
	if raw.Page != nil {
		p.Page = *raw.Page
	}
	if raw.Limit != nil {
		p.Limit = *raw.Limit
	}
	if err := r.decode(nil, &p); err != nil {
		return service.PaginationDto{}, err
	}
	return p, nil
}

func (r *Responder) findAll(ctx context.Context, data []byte) (any, error) {
	p, err := r.pagination(data)
	if err != nil {
		return nil, err
	}
	return r.service.FindAll(ctx, p)
}

func (r *Responder) findAllRemoved(ctx context.Context, data []byte) (any, error) {
	p, err := r.pagination(data)
	if err != nil {
		return nil, err
	}
	return r.service.FindAllRemoved(ctx, p)
}

func (r *Responder) findOne(ctx context.Context, data []byte) (any, error) {
	var req IDRequest
	if err := r.decode(data, &req); err != nil {
		return nil, err
	}
	return r.service.FindByID(ctx, req.ID)
}

func (r *Responder) update(ctx context.Context, data []byte) (any, error) {
	var req UpdateRequest
	if err := r.decode(data, &req); err != nil {
		return nil, err
	}
	return r.service.Update(ctx, req.ID, req.ProductUpdateDto)
}

func (r *Responder) remove(ctx context.Context, data []byte) (any, error) {
	var req IDRequest
	if err := r.decode(data, &req); err != nil {
		return nil, err
	}
	return r.service.Remove(ctx, req.ID)
}

func (r *Responder) validateExisting(ctx context.Context, data []byte) (any, error) {
	var ids []int64
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, perrors.NewRPCError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := r.validate.Var(ids, "dive,gt=0"); err != nil {
		return nil, perrors.NewRPCError(http.StatusBadRequest, "Product ids must be positive integers")
	}
	return r.service.ValidateExisting(ctx, ids)
}
