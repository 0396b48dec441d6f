package platformerrors

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewErrorCarriesRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-42")
	err := NewError(ctx, LayerDomain, ErrorTypeValidation, "bad input", nil, "11111111-2222-3333-4444-555555555555")

	assert.Equal(t, "req-42", err.GetRequestID())
	assert.Equal(t, ErrorTypeValidation, err.GetErrorType())
	assert.Contains(t, err.Error(), "bad input")
}

func TestAsErrorKeepsType(t *testing.T) {
	inner := NewError(context.Background(), LayerInfrastructure, ErrorTypeExternal, "search down", errors.New("boom"), "abc")
	wrapped := AsError(context.Background(), LayerDomain, inner, "search failed")

	require.NotNil(t, wrapped)
	assert.Equal(t, ErrorTypeExternal, wrapped.Type)
	assert.Equal(t, "abc", wrapped.UUID)
	assert.True(t, IsErrorType(wrapped, ErrorTypeExternal))
	assert.Nil(t, AsError(context.Background(), LayerDomain, nil, "noop"))
}

func TestErrorTypeToHTTPStatus(t *testing.T) {
	cases := map[ErrorType]int{
		ErrorTypeValidation:   http.StatusBadRequest,
		ErrorTypeUnauthorized: http.StatusUnauthorized,
		ErrorTypeForbidden:    http.StatusForbidden,
		ErrorTypeNotFound:     http.StatusNotFound,
		ErrorTypeExternal:     http.StatusBadGateway,
		ErrorTypePartial:      http.StatusInternalServerError,
		ErrorTypeInternal:     http.StatusInternalServerError,
	}
	for errType, status := range cases {
		assert.Equal(t, status, ErrorTypeToHTTPStatus(errType), string(errType))
	}
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, ErrorTypeInternal, TypeOf(errors.New("plain")))
	assert.Equal(t, ErrorTypePartial, TypeOf(NewError(context.Background(), LayerDomain, ErrorTypePartial, "half", nil, "")))
}
