package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	perrors "github.com/Nest-Microservices-MFY/products-microservice/internal/errors"
	"github.com/Nest-Microservices-MFY/products-microservice/internal/service"
	"github.com/Nest-Microservices-MFY/products-microservice/internal/store"
	"github.com/Nest-Microservices-MFY/products-microservice/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

var testCfg = config.NATSConfig{Subject: "products", Queue: "products-svc", Timeout: time.Second}

func newResponder(t *testing.T) *Responder {
	t.Helper()
	repo := store.NewMemoryStore()
	svc := service.NewService(repo, perrors.RPCFactory)
	ctx := context.Background()
	for _, name := range []string{"Widget", "Gadget", "Gizmo"} {
		_, err := svc.Create(ctx, service.ProductCreateDto{Name: name, Price: 10})
		require.NoError(t, err)
	}
	_, err := svc.Remove(ctx, 3)
	require.NoError(t, err)
	return NewResponder(nil, svc, testCfg, discardLogger)
}

func call(r *Responder, route, payload string) string {
	var data []byte
	if payload != "" {
		data = []byte(payload)
	}
	return string(r.dispatch(context.Background(), r.routes[route], data))
}

type rawReply struct {
	Data  json.RawMessage   `json:"data"`
	Error *perrors.RPCError `json:"error"`
}

func decodeReply(t *testing.T, reply string) rawReply {
	t.Helper()
	var r rawReply
	require.NoError(t, json.Unmarshal([]byte(reply), &r))
	require.Nil(t, r.Error, "unexpected error reply: %s", reply)
	return r
}

func (r rawReply) into(dst any) error {
	return json.Unmarshal(r.Data, dst)
}

func TestResponder_Errors(t *testing.T) {
	testCases := []struct {
		name     string
		route    string
		payload  string
		expected string
	}{
		{
			name:     "find one - removed product",
			route:    SubjectFindOne,
			payload:  `{"id":3}`,
			expected: `{"error":{"status":404,"message":"Product with id: 3 not found"}}`,
		},
		{
			name:     "find one - malformed payload",
			route:    SubjectFindOne,
			payload:  `{"id":`,
			expected: `{"error":{"status":400,"message":"Invalid request payload"}}`,
		},
		{
			name:     "find one - invalid id",
			route:    SubjectFindOne,
			payload:  `{"id":0}`,
			expected: `{"error":{"status":400,"message":"ID failed on rule: gt"}}`,
		},
		{
			name:     "find all - page past the end",
			route:    SubjectFindAll,
			payload:  `{"page":3,"limit":1}`,
			expected: `{"error":{"status":404,"message":"Page 3 not exist, last page is 2"}}`,
		},
		{
			name:     "find all - zero limit",
			route:    SubjectFindAll,
			payload:  `{"limit":0}`,
			expected: `{"error":{"status":400,"message":"Limit failed on rule: min"}}`,
		},
		{
			name:     "create - missing name",
			route:    SubjectCreate,
			payload:  `{"price":1}`,
			expected: `{"error":{"status":400,"message":"Name failed on rule: required"}}`,
		},
		{
			name:     "update - removed product",
			route:    SubjectUpdate,
			payload:  `{"id":3,"name":"x"}`,
			expected: `{"error":{"status":404,"message":"Product with id: 3 not found"}}`,
		},
		{
			name:     "remove - twice",
			route:    SubjectRemove,
			payload:  `{"id":3}`,
			expected: `{"error":{"status":404,"message":"Product with id: 3 not found"}}`,
		},
		{
			name:     "validate - unknown id",
			route:    SubjectValidate,
			payload:  `[1,99]`,
			expected: `{"error":{"status":400,"message":"Some products were not found"}}`,
		},
		{
			name:     "validate - not an array",
			route:    SubjectValidate,
			payload:  `{"ids":[1]}`,
			expected: `{"error":{"status":400,"message":"Invalid request payload"}}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := newResponder(t)

			reply := call(r, tc.route, tc.payload)

			assert.JSONEq(t, tc.expected, reply)
		})
	}
}

func TestResponder_Success(t *testing.T) {
	r := newResponder(t)

	t.Run("find all defaults", func(t *testing.T) {
		reply := decodeReply(t, call(r, SubjectFindAll, ""))
		var page service.PageDto
		require.NoError(t, reply.into(&page))
		assert.Equal(t, service.PageMetadata{Total: 2, Page: 1, LastPage: 1}, page.Metadata)
		require.Len(t, page.Data, 2)
		assert.Equal(t, "Widget", page.Data[0].Name)
	})

	t.Run("find all removed", func(t *testing.T) {
		reply := decodeReply(t, call(r, SubjectFindAllRemoved, `{"page":1}`))
		var page service.PageDto
		require.NoError(t, reply.into(&page))
		require.Len(t, page.Data, 1)
		assert.Equal(t, int64(3), page.Data[0].ID)
		assert.False(t, page.Data[0].Available)
	})

	t.Run("create, update, remove", func(t *testing.T) {
		var created service.ProductDto
		require.NoError(t, decodeReply(t, call(r, SubjectCreate, `{"name":"Doohickey","price":9.99}`)).into(&created))
		assert.Equal(t, int64(4), created.ID)
		assert.True(t, created.Available)

		var updated service.ProductDto
		require.NoError(t, decodeReply(t, call(r, SubjectUpdate, `{"id":4,"price":12.5}`)).into(&updated))
		assert.Equal(t, "Doohickey", updated.Name)
		assert.Equal(t, 12.5, updated.Price)

		var removed service.ProductDto
		require.NoError(t, decodeReply(t, call(r, SubjectRemove, `{"id":4}`)).into(&removed))
		assert.False(t, removed.Available)
	})

	t.Run("validate includes removed products", func(t *testing.T) {
		var products []service.ProductDto
		require.NoError(t, decodeReply(t, call(r, SubjectValidate, `[3,1,3]`)).into(&products))
		require.Len(t, products, 2)
		assert.Equal(t, int64(1), products[0].ID)
		assert.Equal(t, int64(3), products[1].ID)
	})
}

type failingService struct {
	service.ProductService
}

func (failingService) FindByID(context.Context, int64) (*service.ProductDto, error) {
	return nil, errors.New("connection reset by peer")
}

func TestResponder_UnexpectedError(t *testing.T) {
	r := NewResponder(nil, failingService{}, testCfg, discardLogger)

	reply := call(r, SubjectFindOne, `{"id":1}`)

	assert.JSONEq(t, `{"error":{"status":500,"message":"internal server error"}}`, reply)
}

func TestResponder_Subject(t *testing.T) {
	r := NewResponder(nil, failingService{}, testCfg, discardLogger)

	assert.Equal(t, "products.find_one", r.Subject(SubjectFindOne))
	assert.Len(t, r.routes, 7)
}
