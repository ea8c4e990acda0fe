package documents

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/gophagenda/internal/common"
)

// validator is implemented by every document type.
type validator interface {
	Validate() error
}

// decodeStrict unmarshals exactly one JSON value into v, refusing unknown
// fields and trailing tokens, then runs v.Validate.
func decodeStrict(data string, v validator) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", common.ErrMalformedInput, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data", common.ErrMalformedInput)
	}
	return v.Validate()
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{common.ErrMalformedInput}, args...)...)
}

func encode(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
