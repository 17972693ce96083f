package bearerware

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
)

var (
	defaultTokenLookup = "header:" + fiber.HeaderAuthorization
	// ErrMissingOrMalformed is returned when no token could be extracted.
	ErrMissingOrMalformed = errors.New("missing or malformed bearer token")
)

// ResolveFunc turns a raw token into the principal stored in Locals.
type ResolveFunc[T any] func(ctx context.Context, raw string) (T, error)

// ValidationListener runs after the principal resolved and before the
// success handler.
type ValidationListener[T any] func(c *fiber.Ctx, principal T) error

type Config[T any] struct {
	Filter         func(*fiber.Ctx) bool
	SuccessHandler fiber.Handler
	ErrorHandler   fiber.ErrorHandler
	// Resolve is required.
	Resolve     ResolveFunc[T]
	ContextKey  string
	TokenLookup string
	AuthScheme  string

	// ContextEnricher propagates the principal to the request user context.
	ContextEnricher     func(ctx context.Context, principal T) context.Context
	ValidationListeners []ValidationListener[T]
}

// New returns a fiber handler that rejects requests without a resolvable
// bearer token and stores the principal under ContextKey.
func New[T any](config ...Config[T]) fiber.Handler {
	cfg := GetDefaultConfig(config...)
	extractors := GetExtractors(cfg.TokenLookup, cfg.AuthScheme)

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		raw, err := ExtractRawToken(c, extractors)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		principal, err := cfg.Resolve(c.UserContext(), raw)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		for _, listener := range cfg.ValidationListeners {
			if listener == nil {
				continue
			}
			if err := listener(c, principal); err != nil {
				return cfg.ErrorHandler(c, err)
			}
		}

		c.Locals(cfg.ContextKey, principal)

		if cfg.ContextEnricher != nil {
			c.SetUserContext(cfg.ContextEnricher(c.UserContext(), principal))
		}

		return cfg.SuccessHandler(c)
	}
}

// FromLocals returns the principal stored by the middleware.
func FromLocals[T any](c *fiber.Ctx, key string) (T, bool) {
	v, ok := c.Locals(key).(T)
	return v, ok
}

func GetDefaultConfig[T any](config ...Config[T]) (cfg Config[T]) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.Resolve == nil {
		panic("AUTH: bearer middleware configuration: Resolve is required.")
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c *fiber.Ctx, err error) error {
			if errors.Is(err, ErrMissingOrMalformed) {
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "Token is missing"})
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid or expired token"})
		}
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "user"
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = defaultTokenLookup
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	return cfg
}

// ExtractRawToken returns the first token any extractor yields.
func ExtractRawToken(c *fiber.Ctx, extractors []Extractor) (string, error) {
	for _, extractor := range extractors {
		raw, err := extractor(c)
		if raw != "" && err == nil {
			return raw, nil
		}
	}
	return "", ErrMissingOrMalformed
}

type Extractor func(c *fiber.Ctx) (string, error)

// GetExtractors parses a lookup string such as
// "header:Authorization,cookie:jwt,query:auth_token".
func GetExtractors(tokenLookup string, authScheme string) []Extractor {
	extractors := make([]Extractor, 0)

	for _, rootPart := range strings.Split(tokenLookup, ",") {
		parts := strings.SplitN(strings.TrimSpace(rootPart), ":", 2)
		if len(parts) != 2 {
			continue
		}

		source, name := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])

		switch source {
		case "header":
			extractors = append(extractors, fromHeader(name, authScheme))
		case "query":
			extractors = append(extractors, fromQuery(name))
		case "cookie":
			extractors = append(extractors, fromCookie(name))
		}
	}

	return extractors
}

// fromHeader requires the exact "<scheme> <token>" form.
func fromHeader(header string, authScheme string) Extractor {
	prefix := strings.TrimSpace(authScheme) + " "
	return func(c *fiber.Ctx) (string, error) {
		rest, ok := strings.CutPrefix(c.Get(header), prefix)
		if !ok {
			return "", ErrMissingOrMalformed
		}
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			return "", ErrMissingOrMalformed
		}
		return fields[0], nil
	}
}

func fromQuery(param string) Extractor {
	return func(c *fiber.Ctx) (string, error) {
		token := c.Query(param)
		if token == "" {
			return "", ErrMissingOrMalformed
		}
		return token, nil
	}
}

func fromCookie(name string) Extractor {
	return func(c *fiber.Ctx) (string, error) {
		token := c.Cookies(name)
		if token == "" {
			return "", ErrMissingOrMalformed
		}
		return token, nil
	}
}
