package app

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Nest-Microservices-MFY/products-microservice/internal/service"
	"github.com/Nest-Microservices-MFY/products-microservice/internal/store"
	pconfig "github.com/Nest-Microservices-MFY/products-microservice/pkg/config"
	"github.com/Nest-Microservices-MFY/products-microservice/pkg/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const productURL = "/api/v1/products"

// HTTPSuite drives the assembled HTTP handler over an in-memory store.
type HTTPSuite struct {
	suite.Suite
	server *httptest.Server
}

func (s *HTTPSuite) SetupTest() {
	deps := SetupDependencies(store.NewMemoryStore(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, metrics, err := telemetry.NewMeterProvider("products-test")
	require.NoError(s.T(), err)
	deps.Metrics = metrics
	s.server = httptest.NewServer(SetupHttpHandler(deps, pconfig.MetricsConfig{Enabled: true, Path: "/metrics"}))
}

func (s *HTTPSuite) TearDownTest() {
	s.server.Close()
}

func TestHTTPSuite(t *testing.T) {
	suite.Run(t, new(HTTPSuite))
}

func (s *HTTPSuite) do(method, path string, body any, out any) int {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(s.T(), err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, s.server.URL+path, reader)
	require.NoError(s.T(), err)
	resp, err := s.server.Client().Do(req)
	require.NoError(s.T(), err)
	defer func() { _ = resp.Body.Close() }()
	if out != nil {
		require.NoError(s.T(), json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (s *HTTPSuite) TestEmptyCatalog() {
	var body map[string]string
	code := s.do(http.MethodGet, productURL, nil, &body)

	s.Equal(http.StatusNotFound, code)
	s.Equal("Page 1 not exist, last page is 0", body["error"])
}

func (s *HTTPSuite) TestLifecycle() {
	t := s.T()

	// create
	var created service.ProductDto
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, productURL, service.ProductCreateDto{Name: "Widget", Price: 9.99}, &created))
	assert.True(t, created.Available)

	// get
	var found service.ProductDto
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, productURL+"/1", nil, &found))
	assert.Equal(t, created.ID, found.ID)

	// update price only
	price := 12.0
	var updated service.ProductDto
	require.Equal(t, http.StatusOK, s.do(http.MethodPatch, productURL+"/1", service.ProductUpdateDto{Price: &price}, &updated))
	assert.Equal(t, "Widget", updated.Name)
	assert.Equal(t, 12.0, updated.Price)

	// remove
	var removed service.ProductDto
	require.Equal(t, http.StatusOK, s.do(http.MethodDelete, productURL+"/1", nil, &removed))
	assert.False(t, removed.Available)

	// removed product is hidden
	require.Equal(t, http.StatusNotFound, s.do(http.MethodGet, productURL+"/1", nil, nil))
	require.Equal(t, http.StatusNotFound, s.do(http.MethodDelete, productURL+"/1", nil, nil))

	// and listed as removed
	var page service.PageDto
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, productURL+"/removed", nil, &page))
	assert.Equal(t, service.PageMetadata{Total: 1, Page: 1, LastPage: 1}, page.Metadata)

	// but still validates
	var validated []service.ProductDto
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, productURL+"/validate", []int64{1, 1}, &validated))
	assert.Len(t, validated, 1)
}

func (s *HTTPSuite) TestPagination() {
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		require.Equal(s.T(), http.StatusCreated, s.do(http.MethodPost, productURL, service.ProductCreateDto{Name: name, Price: 1}, nil))
	}

	var page service.PageDto
	s.Require().Equal(http.StatusOK, s.do(http.MethodGet, productURL+"?page=3&limit=2", nil, &page))
	s.Equal(service.PageMetadata{Total: 5, Page: 3, LastPage: 3}, page.Metadata)
	s.Require().Len(page.Data, 1)
	s.Equal("e", page.Data[0].Name)

	var body map[string]string
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, productURL+"?page=4&limit=2", nil, &body))
	s.Equal("Page 4 not exist, last page is 3", body["error"])

	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, productURL+"?page=-1", nil, nil))
}

func (s *HTTPSuite) TestMetricsEndpoint() {
	s.do(http.MethodGet, "/healthz", nil, nil)

	resp, err := s.server.Client().Get(s.server.URL + "/metrics")
	s.Require().NoError(err)
	defer func() { _ = resp.Body.Close() }()
	s.Equal(http.StatusOK, resp.StatusCode)
}

func TestNewStore(t *testing.T) {
	repo, err := NewStore(pconfig.DatabaseConfig{Driver: pconfig.DriverMemory}, nil)
	require.NoError(t, err)
	assert.IsType(t, &store.MemoryStore{}, repo)

	_, err = NewStore(pconfig.DatabaseConfig{Driver: pconfig.DriverPostgres}, nil)
	assert.Error(t, err)

	_, err = NewStore(pconfig.DatabaseConfig{Driver: "sqlite"}, nil)
	assert.Error(t, err)
}
