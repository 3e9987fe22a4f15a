// Package itemjson decodes the remote server's item payloads into domain values.
package itemjson

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/samvad-hq/item-relay/internal/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// DecodeError reports a payload that violates the item contract.
type DecodeError struct {
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("decode items: %v", e.Err)
	}
	return fmt.Sprintf("decode items: %s: %v", e.Field, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// itemPayload uses pointers so absent fields are distinguishable from zero values.
type itemPayload struct {
	Title *string `json:"title" validate:"required"`
	Price *int64  `json:"price" validate:"required"`
}

type listPayload struct {
	Items *[]json.RawMessage `json:"items" validate:"required"`
}

// DecodeItem decodes a flat {"title": ..., "price": ...} object.
func DecodeItem(data []byte) (domain.Item, error) {
	return decodeItem(data, "")
}

// DecodeItemList decodes {"items": [...]} preserving element order.
// A single malformed element fails the whole call.
func DecodeItemList(data []byte) ([]domain.Item, error) {
	if err := requireObject(data); err != nil {
		return nil, &DecodeError{Err: err}
	}

	var payload listPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, &DecodeError{Field: "items", Err: describeJSONError(err)}
	}
	if err := validate.Struct(payload); err != nil {
		return nil, &DecodeError{Field: "items", Err: errors.New("missing array field")}
	}

	raw := *payload.Items
	items := make([]domain.Item, 0, len(raw))
	for i, elem := range raw {
		item, err := decodeItem(elem, fmt.Sprintf("items[%d]", i))
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func decodeItem(data []byte, prefix string) (domain.Item, error) {
	if err := requireObject(data); err != nil {
		return domain.Item{}, &DecodeError{Field: prefix, Err: err}
	}

	var payload itemPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return domain.Item{}, &DecodeError{Field: joinField(prefix, jsonErrorField(err)), Err: describeJSONError(err)}
	}
	if err := validate.Struct(payload); err != nil {
		return domain.Item{}, &DecodeError{Field: joinField(prefix, missingField(err)), Err: errors.New("required field missing")}
	}

	return domain.Item{Title: *payload.Title, Price: *payload.Price}, nil
}

func requireObject(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return errors.New("empty payload")
	}
	if trimmed[0] != '{' {
		return errors.New("payload is not a JSON object")
	}
	return nil
}

// missingField maps the first validation failure back to its JSON name.
func missingField(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return strings.ToLower(verrs[0].Field())
	}
	return ""
}

func jsonErrorField(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return typeErr.Field
	}
	return ""
}

func describeJSONError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Errorf("expected %s, got JSON %s", typeErr.Type, typeErr.Value)
	}
	return err
}

func joinField(prefix, field string) string {
	switch {
	case prefix == "":
		return field
	case field == "":
		return prefix
	default:
		return prefix + "." + field
	}
}
