package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"unicornfarm/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Pagination holds parsed limit/offset query parameters.
type Pagination struct {
	Limit  int
	Offset int
}

const (
	defaultPaginationLimit = 20
	maxPaginationLimit     = 100
)

// parsePagination extracts limit and offset query parameters with the given default limit.
func parsePagination(c *fiber.Ctx, defaultLimit int) Pagination {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}

	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	return Pagination{
		Limit:  limit,
		Offset: offset,
	}
}

// parseID extracts a route parameter by name as a positive uint.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		return 0, models.NewInvalidInputError("Invalid ID")
	}
	return uint(id), nil
}

// decodeStrict decodes a JSON request body into dst, rejecting any attribute
// dst does not declare. An empty body decodes as an empty object.
func decodeStrict(body []byte, dst any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return describeDecodeError(err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return models.NewInvalidInputError("Invalid request body")
	}
	return nil
}

func describeDecodeError(err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return models.NewInvalidInputError(fmt.Sprintf("Invalid value for %q", typeErr.Field))
	}

	// encoding/json reports unknown fields only through the message text.
	const unknownPrefix = "json: unknown field "
	if msg := err.Error(); strings.HasPrefix(msg, unknownPrefix) {
		return models.NewInvalidInputError(fmt.Sprintf(
			"Extra attributes are not allowed (%s is unknown).", strings.TrimPrefix(msg, unknownPrefix)))
	}

	return models.NewInvalidInputError("Invalid request body")
}

// UnicornRef is a reference to a unicorn in a request body or query string. It
// accepts a numeric id (1), a numeric string ("1") or an IRI ("/api/unicorns/1").
type UnicornRef struct {
	ID uint
}

func (r *UnicornRef) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var text string
	switch v := raw.(type) {
	case float64:
		text = strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		text = v
	default:
		return models.NewInvalidInputError("Invalid unicorn reference")
	}

	id, err := parseUnicornRef(text)
	if err != nil {
		return err
	}
	r.ID = id
	return nil
}

// parseUnicornRef resolves the textual forms of a unicorn reference to an id.
func parseUnicornRef(text string) (uint, error) {
	text = strings.TrimSpace(text)
	for _, prefix := range []string{"/api/unicorns/", "/unicorns/"} {
		if strings.HasPrefix(text, prefix) {
			text = strings.TrimPrefix(text, prefix)
			break
		}
	}

	id, err := strconv.ParseUint(text, 10, 64)
	if err != nil || id == 0 {
		return 0, models.NewInvalidInputError("Invalid unicorn reference")
	}
	return uint(id), nil
}
