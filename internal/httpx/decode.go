package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

const (
	// MaxRequestBodySize is the maximum allowed request body size (1MB).
	MaxRequestBodySize = 1 << 20
)

// ErrMalformedRequest is wrapped by every DecodeJSON failure.
var ErrMalformedRequest = errors.New("malformed request")

// DecodeJSON decodes a single JSON object from the request body into T.
// Unknown fields, trailing data and bodies over MaxRequestBodySize are rejected.
func DecodeJSON[T any](r *http.Request) (T, error) {
	var zeroValue T

	if r.Body == nil {
		return zeroValue, fmt.Errorf("%w: request body is empty", ErrMalformedRequest)
	}

	r.Body = http.MaxBytesReader(nil, r.Body, MaxRequestBodySize)
	defer func() {
		_ = r.Body.Close()
	}()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	var v T
	if err := decoder.Decode(&v); err != nil {
		var syntaxErr *json.SyntaxError
		var unmarshalErr *json.UnmarshalTypeError
		var maxBytesErr *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxErr):
			return zeroValue, fmt.Errorf("%w: malformed JSON at position %d", ErrMalformedRequest, syntaxErr.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return zeroValue, fmt.Errorf("%w: malformed JSON: unexpected end of input", ErrMalformedRequest)
		case errors.As(err, &unmarshalErr):
			return zeroValue, fmt.Errorf("%w: invalid value for field %q", ErrMalformedRequest, unmarshalErr.Field)
		case errors.As(err, &maxBytesErr):
			return zeroValue, fmt.Errorf("%w: request body too large (max %d bytes)", ErrMalformedRequest, MaxRequestBodySize)
		case errors.Is(err, io.EOF):
			return zeroValue, fmt.Errorf("%w: request body is empty", ErrMalformedRequest)
		default:
			return zeroValue, fmt.Errorf("%w: %v", ErrMalformedRequest, err)
		}
	}

	if decoder.More() {
		return zeroValue, fmt.Errorf("%w: request body contains multiple JSON objects", ErrMalformedRequest)
	}

	return v, nil
}
