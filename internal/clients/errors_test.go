package clients

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpstreamErrorMessages(t *testing.T) {
	testCases := []struct {
		name       string
		err        *UpstreamError
		wantError  string
		wantDetail string
	}{
		{
			name:       "Status with body",
			err:        &UpstreamError{Kind: KindStatus, StatusCode: 429, Body: `{"error":"slow down"}`},
			wantError:  "upstream status error (429)",
			wantDetail: `{"error":"slow down"}`,
		},
		{
			name:       "Transport without body",
			err:        &UpstreamError{Kind: KindTransport, Err: errors.New("connection refused")},
			wantError:  "upstream transport error: connection refused",
			wantDetail: "upstream transport error: connection refused",
		},
		{
			name:       "Shape without cause",
			err:        &UpstreamError{Kind: KindShape},
			wantError:  "upstream shape error",
			wantDetail: "upstream shape error",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.wantError, tc.err.Error())
			assert.Equal(t, tc.wantDetail, tc.err.Detail())
		})
	}
}

func TestAsUpstreamError(t *testing.T) {
	assert.Nil(t, AsUpstreamError(nil))

	original := &UpstreamError{Kind: KindShape, Err: ErrNoCompletion}
	wrapped := fmt.Errorf("bridge: %w", original)
	assert.Same(t, original, AsUpstreamError(wrapped))
	assert.ErrorIs(t, wrapped, ErrNoCompletion)

	plain := AsUpstreamError(context.DeadlineExceeded)
	assert.Equal(t, KindTransport, plain.Kind)
	assert.True(t, plain.Timeout())
}

func TestErrorKindString(t *testing.T) {
	assert.Equal(t, "transport", KindTransport.String())
	assert.Equal(t, "status", KindStatus.String())
	assert.Equal(t, "shape", KindShape.String())
	assert.Equal(t, "kind(9)", ErrorKind(9).String())
}

func TestNew(t *testing.T) {
	cfg := ClientConfig{BaseURL: "http://localhost:8001/v1", Timeout: time.Second}

	c, err := New("http", cfg)
	require.NoError(t, err)
	assert.IsType(t, &HTTPClient{}, c)

	c, err = New("", cfg)
	require.NoError(t, err)
	assert.IsType(t, &HTTPClient{}, c)

	c, err = New("openai", cfg)
	require.NoError(t, err)
	assert.IsType(t, &OpenAIClient{}, c)

	_, err = New("grpc", cfg)
	assert.ErrorContains(t, err, "grpc")
}
