package errors_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrs "github.com/jdholdren/touchline/internal/errors"
)

func TestEConstructor(t *testing.T) {
	got := apierrs.E(
		"limit must be a number",
		apierrs.Detail{Field: "limit", Error: "not a number"},
		http.StatusBadRequest,
	)
	want := &apierrs.Error{
		Err: errors.New("limit must be a number"),
		Details: []apierrs.Detail{
			{Field: "limit", Error: "not a number"},
		},
		Status: http.StatusBadRequest,
	}

	assert.Equal(t, want, got)
}

func TestE_DefaultsToInternal(t *testing.T) {
	got := apierrs.E()
	assert.Equal(t, http.StatusInternalServerError, got.Status)

	byts, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"Internal Server Error","details":[],"status":500}`, string(byts))
}

func TestMarshalJSON(t *testing.T) {
	byts, err := json.Marshal(apierrs.E("article not found", http.StatusNotFound))
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"article not found","details":[],"status":404}`, string(byts))
}

func TestStatusOf(t *testing.T) {
	wrapped := fmt.Errorf("error fetching article: %w", apierrs.E(http.StatusNotFound))
	assert.Equal(t, http.StatusNotFound, apierrs.StatusOf(wrapped))
	assert.Equal(t, http.StatusInternalServerError, apierrs.StatusOf(errors.New("boom")))
}
