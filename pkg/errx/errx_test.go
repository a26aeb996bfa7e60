package errx

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromError(t *testing.T) {
	testCases := []struct {
		name   string
		err    error
		status int
	}{
		{"schema", &SchemaError{Missing: []string{"city"}}, http.StatusBadRequest},
		{"wrapped schema", fmt.Errorf("validate: %w", &SchemaError{Missing: []string{"brand"}}), http.StatusBadRequest},
		{"parse", &ParseError{Field: "year", Value: "abc"}, http.StatusBadRequest},
		{"not fitted", fmt.Errorf("predict: %w", ErrNotFitted), http.StatusServiceUnavailable},
		{"artifact", NewArtifactError("scaler.json", "missing"), http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			appErr := FromError(tc.err)
			assert.Equal(t, tc.status, appErr.Status)
			assert.ErrorIs(t, appErr, tc.err)
		})
	}

	assert.Nil(t, FromError(nil))
}

func TestSchemaErrorMessage(t *testing.T) {
	err := &SchemaError{Missing: []string{"city", "year"}}
	assert.Equal(t, "Missing required fields: city, year", err.Error())
}
