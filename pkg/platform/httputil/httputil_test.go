package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "promisetracker/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	t.Run("internal error omits description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInternal, "db failed"))

		require.Equal(t, http.StatusInternalServerError, w.Code)
		var body map[string]string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "internal_error", body["error"])
		_, ok := body["error_description"]
		assert.False(t, ok, "expected error_description to be omitted for internal errors")
	})

	t.Run("application error keeps user facing message", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.Application("Cannot modify reviewed promise!"))

		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		var body map[string]string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "application_error", body["error"])
		assert.Equal(t, "Cannot modify reviewed promise!", body["error_description"])
	})

	t.Run("status mapping", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, StatusFor(dErrors.CodeNotFound))
		assert.Equal(t, http.StatusForbidden, StatusFor(dErrors.CodePermissionViolation))
		assert.Equal(t, http.StatusBadRequest, StatusFor(dErrors.CodeValidation))
		assert.Equal(t, http.StatusUnauthorized, StatusFor(dErrors.CodeUnauthorized))
	})

	t.Run("plain error becomes internal", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, assert.AnError)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestDecodeJSON(t *testing.T) {
	type body struct {
		Name string `json:"name"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x"}`))
	got, err := DecodeJSON[body](req)
	require.NoError(t, err)
	assert.Equal(t, "x", got.Name)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"nope":1}`))
	_, err = DecodeJSON[body](req)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(``))
	_, err = DecodeJSON[body](req)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func TestPaginate(t *testing.T) {
	items := make([]int, 25)
	for i := range items {
		items[i] = i
	}

	req := httptest.NewRequest(http.MethodGet, "/?page=3", nil)
	page := Paginate(req, items)
	assert.Equal(t, []int{20, 21, 22, 23, 24}, page.Items)
	assert.Equal(t, 25, page.Total)

	req = httptest.NewRequest(http.MethodGet, "/?page=9&per_page=5", nil)
	page = Paginate(req, items)
	assert.Empty(t, page.Items)
	assert.NotNil(t, page.Items)
}

func TestPaginateHugePageIsEmpty(t *testing.T) {
	for _, query := range []string{
		"/?page=9223372036854775807",
		"/?page=9223372036854775807&per_page=100",
		"/?page=4611686018427387905&per_page=2",
	} {
		req := httptest.NewRequest(http.MethodGet, query, nil)
		var page Page[int]
		assert.NotPanics(t, func() { page = Paginate(req, []int{1, 2, 3}) }, query)
		assert.Empty(t, page.Items, query)
		assert.Equal(t, 3, page.Total, query)
	}
}

func TestQueryBool(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?is_active=false", nil)
	got, err := QueryBool(req, "is_active")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, *got)

	got, err = QueryBool(req, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	req = httptest.NewRequest(http.MethodGet, "/?is_active=maybe", nil)
	_, err = QueryBool(req, "is_active")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}
