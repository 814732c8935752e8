package errors

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassification(t *testing.T) {
	vfe := NewValueFormatError(true, "bool", "Name", "", nil)
	assert.ErrorIs(t, vfe, ErrValueFormat)
	assert.Contains(t, vfe.Error(), "Name")

	wrapped := fmt.Errorf("converting: %w", vfe)
	var target *ValueFormatError
	assert.True(t, errors.As(wrapped, &target))
	assert.Equal(t, "bool", target.From)

	oob := OutOfBounds("/a/b", "end %d exceeds size %d", 5, 2)
	assert.ErrorIs(t, oob, ErrInvalidPath)
	assert.ErrorIs(t, oob, ErrOutOfBounds)

	ip := NewInvalidPathError("a/b", "path is not absolute")
	assert.ErrorIs(t, ip, ErrInvalidPath)
	assert.NotErrorIs(t, ip, ErrOutOfBounds)

	ns := &NamespaceError{Prefix: "mdoe", Suggestion: "mode"}
	assert.ErrorIs(t, ns, ErrNamespaceNotFound)
	assert.Contains(t, ns.Error(), `did you mean "mode"`)

	ioErr := IOError("read stream", io.ErrUnexpectedEOF)
	assert.ErrorIs(t, ioErr, ErrIO)
	assert.ErrorIs(t, ioErr, io.ErrUnexpectedEOF)
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"value format", NewValueFormatError("x", "string", "Long", "", nil), http.StatusBadRequest},
		{"invalid path", NewInvalidPathError("/", "root has no parent"), http.StatusBadRequest},
		{"namespace", &NamespaceError{Prefix: "zz"}, http.StatusUnprocessableEntity},
		{"namespace in value format", NewValueFormatError("zz:a", "String", "Name", "", &NamespaceError{Prefix: "zz"}), http.StatusUnprocessableEntity},
		{"out of bounds", fmt.Errorf("property: %w", ErrOutOfBounds), http.StatusBadRequest},
		{"not found", fmt.Errorf("workspace: %w", ErrNotFound), http.StatusNotFound},
		{"app error", NewAppError(http.StatusTeapot, "teapot", nil), http.StatusTeapot},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, MapError(tt.err).Code)
		})
	}
	assert.Nil(t, MapError(nil))
}
