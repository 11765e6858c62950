package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

// payloadFields lists the accepted keys per reading field, firmware name first.
var payloadFields = []struct {
	name    string
	aliases []string
}{
	{"h_kanan", []string{"h_kanan", "right_level"}},
	{"h_kiri", []string{"h_kiri", "left_level"}},
	{"q_kanan", []string{"q_kanan", "right_flow"}},
	{"q_kiri", []string{"q_kiri", "left_flow"}},
}

var errNotNumber = errors.New("must be a number")

// ReadingInput holds the validated numeric fields of an inbound payload.
type ReadingInput struct {
	RightLevel float64
	LeftLevel  float64
	RightFlow  float64
	LeftFlow   float64
}

// ParseReadingPayload validates a JSON reading payload. All four fields must be
// present and coercible to a real number; anything else yields a
// *ValidationError. Range is not checked: negative values pass.
func ParseReadingPayload(data []byte) (ReadingInput, error) {
	var raw map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return ReadingInput{}, &ValidationError{Problem: "payload is not a JSON object"}
	}

	values := make([]float64, len(payloadFields))
	for i, f := range payloadFields {
		v, err := lookupNumber(raw, f.name, f.aliases)
		if err != nil {
			return ReadingInput{}, err
		}
		values[i] = v
	}

	return ReadingInput{
		RightLevel: values[0],
		LeftLevel:  values[1],
		RightFlow:  values[2],
		LeftFlow:   values[3],
	}, nil
}

func lookupNumber(raw map[string]json.RawMessage, name string, aliases []string) (float64, error) {
	for _, key := range aliases {
		msg, ok := raw[key]
		if !ok || isNull(msg) {
			continue
		}
		v, err := coerceNumber(msg)
		if err != nil {
			return 0, &ValidationError{Field: name, Problem: err.Error()}
		}
		return v, nil
	}
	return 0, &ValidationError{Field: name, Problem: "is required"}
}

func isNull(msg json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(msg), []byte("null"))
}

// coerceNumber accepts a JSON number or a string holding one.
func coerceNumber(msg json.RawMessage) (float64, error) {
	var n json.Number
	if err := json.Unmarshal(msg, &n); err == nil {
		return parseFinite(string(n))
	}
	var s string
	if err := json.Unmarshal(msg, &s); err == nil {
		return parseFinite(strings.TrimSpace(s))
	}
	return 0, errNotNumber
}

func parseFinite(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errNotNumber
	}
	return v, nil
}
