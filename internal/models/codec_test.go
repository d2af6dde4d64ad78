package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodePaymentRoundTrip(t *testing.T) {
	p := NewPayment(uuid.New(), decimal.NewFromFloat(19.90), time.Now().UTC())
	p.ProcessorType = ProcessorDefault
	p.Status = StatusSuccess
	p.RetryCount = 1

	raw, err := EncodePayment(p)
	require.NoError(t, err)

	got, err := DecodePayment(raw)
	require.NoError(t, err)

	assert.Equal(t, p.CorrelationID, got.CorrelationID)
	assert.True(t, p.Amount.Equal(got.Amount))
	assert.Equal(t, p.ProcessorType, got.ProcessorType)
	assert.Equal(t, p.Status, got.Status)
	assert.Equal(t, p.RetryCount, got.RetryCount)
}

func TestEncodePaymentAmountIsJSONNumber(t *testing.T) {
	p := NewPayment(uuid.New(), decimal.NewFromFloat(19.90), time.Now().UTC())

	raw, err := EncodePayment(p)
	require.NoError(t, err)

	assert.Contains(t, string(raw), `"amount":19.9`)
	assert.NotContains(t, string(raw), `"amount":"19.9`)
}

func TestDecodePaymentExternalPayload(t *testing.T) {
	payload := []byte(`{"correlationId":"11111111-1111-1111-1111-111111111111","amount":19.90,"requestedAt":"2025-01-01T00:00:00Z","status":"PENDING","retryCount":0}`)

	got, err := DecodePayment(payload)
	require.NoError(t, err)

	assert.Equal(t, uuid.MustParse("11111111-1111-1111-1111-111111111111"), got.CorrelationID)
	assert.True(t, got.Amount.Equal(decimal.NewFromFloat(19.90)))
	assert.Equal(t, StatusPending, got.Status)
	assert.Equal(t, ProcessorType(""), got.ProcessorType)
}

func TestEncodeDecodeHealthViewRoundTrip(t *testing.T) {
	h := HealthView{Failing: true, MinResponseTime: 42, LastCheckedAt: time.Now().UTC().Truncate(time.Millisecond)}

	raw, err := EncodeHealthView(h)
	require.NoError(t, err)

	got, err := DecodeHealthView(raw)
	require.NoError(t, err)

	assert.Equal(t, h.Failing, got.Failing)
	assert.Equal(t, h.MinResponseTime, got.MinResponseTime)
	assert.True(t, h.LastCheckedAt.Equal(got.LastCheckedAt))
}
