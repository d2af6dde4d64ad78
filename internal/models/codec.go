package models

import (
	jsoniter "github.com/json-iterator/go"
)

// codec is shared by every component that marshals or unmarshals a
// Payment or HealthView to/from the data store. jsoniter.ConfigFastest
// trades strict map-key sorting for speed in the consumer's hot decode
// path; it is still wire-compatible with encoding/json on both ends.
var codec = jsoniter.ConfigFastest

// EncodePayment serialises a Payment the same way it will be read back:
// exact field names per the wire contract (correlationId, amount,
// requestedAt, paymentProcessorType, status, retryCount).
func EncodePayment(p Payment) ([]byte, error) {
	return codec.Marshal(p)
}

// DecodePayment parses a Payment previously written by EncodePayment or
// by an external producer using the same field names.
func DecodePayment(data []byte) (Payment, error) {
	var p Payment
	if err := codec.Unmarshal(data, &p); err != nil {
		return Payment{}, err
	}
	return p, nil
}

// EncodeHealthView serialises a HealthView for the health cache.
func EncodeHealthView(h HealthView) ([]byte, error) {
	return codec.Marshal(h)
}

// DecodeHealthView parses a HealthView previously written by
// EncodeHealthView.
func DecodeHealthView(data []byte) (HealthView, error) {
	var h HealthView
	if err := codec.Unmarshal(data, &h); err != nil {
		return HealthView{}, err
	}
	return h, nil
}
