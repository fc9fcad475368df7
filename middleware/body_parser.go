package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ErrBodyTooLarge is returned for parsed bodies over the configured limit.
var ErrBodyTooLarge = fiber.NewError(fiber.StatusRequestEntityTooLarge, "request entity too large")

// BodyParserConfig limits and validates request bodies by content type.
type BodyParserConfig struct {
	// Limit is the largest accepted JSON or URL-encoded body, in bytes.
	Limit int

	// Next skips the middleware when it returns true.
	Next func(c *fiber.Ctx) bool
}

// BodyParser enforces the size limit on JSON and URL-encoded bodies and
// rejects JSON that does not decode. Other content types pass through.
//
// JSON is strict: the top level must be an object or an array. Form bodies
// are only size-checked; stray ';' or '%' stay literal when decoded.
func BodyParser(cfg BodyParserConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.Next != nil && cfg.Next(c) {
			return c.Next()
		}

		kind := bodyKind(c.Get(fiber.HeaderContentType))
		if kind == "" {
			return c.Next()
		}

		body := c.Body()
		if cfg.Limit > 0 && len(body) > cfg.Limit {
			return ErrBodyTooLarge
		}
		if len(bytes.TrimSpace(body)) == 0 {
			return c.Next()
		}

		if kind == fiber.MIMEApplicationJSON {
			if err := validateJSON(body); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
		}

		return c.Next()
	}
}

// bodyKind maps a Content-Type header to the parser that handles it.
// Vendor types such as "application/vnd.api+json" are not parsed.
func bodyKind(contentType string) string {
	mime := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	switch mime {
	case fiber.MIMEApplicationJSON, fiber.MIMEApplicationForm:
		return mime
	}
	return ""
}

var (
	errJSONTopLevel  = errors.New("JSON body must be an object or array")
	errJSONMalformed = errors.New("malformed JSON body")
)

func validateJSON(body []byte) error {
	trimmed := bytes.TrimSpace(body)
	if trimmed[0] != '{' && trimmed[0] != '[' {
		return errJSONTopLevel
	}
	if !json.Valid(trimmed) {
		return errJSONMalformed
	}
	return nil
}
