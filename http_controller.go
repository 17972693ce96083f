package auth

import (
	"context"
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"

	"github.com/goliatone/go-authgate/middleware/bearerware"
)

// DefaultContextKey is the fiber Locals key holding the resolved *Identity.
const DefaultContextKey = "identity"

type HTTPControllerRoutes struct {
	Login   string
	Profile string
	Health  string
}

// HealthChecker reports whether the backing store is reachable.
type HealthChecker func(ctx context.Context) error

type HTTPController struct {
	Gateway    *Gateway
	Logger     Logger
	Routes     *HTTPControllerRoutes
	ContextKey string
	Health     HealthChecker
}

type HTTPControllerOption func(*HTTPController) *HTTPController

// WithHTTPLogger sets the controller logger.
func WithHTTPLogger(logger Logger) HTTPControllerOption {
	return func(h *HTTPController) *HTTPController {
		h.Logger = normalizeLogger(logger)
		return h
	}
}

// WithHealthChecker sets the dependency probe used by the health route.
func WithHealthChecker(check HealthChecker) HTTPControllerOption {
	return func(h *HTTPController) *HTTPController {
		h.Health = check
		return h
	}
}

// WithRoutes overrides the route paths.
func WithRoutes(routes HTTPControllerRoutes) HTTPControllerOption {
	return func(h *HTTPController) *HTTPController {
		h.Routes = &routes
		return h
	}
}

func NewHTTPController(gateway *Gateway, opts ...HTTPControllerOption) *HTTPController {
	if gateway == nil {
		panic("Missing Gateway in auth HTTP controller...")
	}

	h := &HTTPController{
		Gateway:    gateway,
		Logger:     defLogger{},
		ContextKey: DefaultContextKey,
		Routes: &HTTPControllerRoutes{
			Login:   "/login",
			Profile: "/profile",
			Health:  "/auth/health",
		},
	}

	for _, opt := range opts {
		h = opt(h)
	}

	return h
}

// Register mounts the login, profile and health routes on r.
func (h *HTTPController) Register(r fiber.Router) {
	r.Post(h.Routes.Login, h.LoginPost)
	r.Get(h.Routes.Profile, h.ProtectedRoute(), h.ProfileGet)
	r.Get(h.Routes.Health, h.HealthGet)
}

// ProtectedRoute returns middleware that resolves the bearer token into an
// *Identity stored under ContextKey.
func (h *HTTPController) ProtectedRoute() fiber.Handler {
	return bearerware.New(bearerware.Config[*Identity]{
		Resolve:      h.Gateway.ResolveFromToken,
		ContextKey:   h.ContextKey,
		ErrorHandler: h.authErrorHandler,
	})
}

// LoginRequest payload
type LoginRequest struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(1, 320)),
		validation.Field(&r.Password, validation.Required),
	)
}

// LoginResponse is returned on a successful login.
type LoginResponse struct {
	Token string `json:"token"`
}

// ProfileResponse describes the caller's identity.
type ProfileResponse struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	UserID   string `json:"user_id"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (h *HTTPController) LoginPost(c *fiber.Ctx) error {
	payload := new(LoginRequest)

	if err := c.BodyParser(payload); err != nil {
		h.Logger.Debug("login body parse failed", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(messageResponse{Message: "Invalid request body"})
	}

	if err := payload.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(messageResponse{Message: err.Error()})
	}

	token, err := h.Gateway.Login(c.UserContext(), payload.Username, payload.Password)
	if err != nil {
		return h.errorResponse(c, err)
	}

	return c.JSON(LoginResponse{Token: token.Raw})
}

func (h *HTTPController) ProfileGet(c *fiber.Ctx) error {
	identity, ok := bearerware.FromLocals[*Identity](c, h.ContextKey)
	if !ok || identity == nil {
		return h.errorResponse(c, ErrMissingCredential)
	}

	return c.JSON(ProfileResponse{
		Username: identity.Username,
		Email:    identity.Email,
		UserID:   identity.ID,
	})
}

func (h *HTTPController) HealthGet(c *fiber.Ctx) error {
	if h.Health != nil {
		if err := h.Health(c.UserContext()); err != nil {
			h.Logger.Error("health check failed", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"status": "unhealthy",
				"error":  err.Error(),
			})
		}
	}
	return c.JSON(fiber.Map{"status": "healthy"})
}

func (h *HTTPController) authErrorHandler(c *fiber.Ctx, err error) error {
	if errors.Is(err, bearerware.ErrMissingOrMalformed) {
		err = ErrMissingCredential
	}
	return h.errorResponse(c, err)
}

func (h *HTTPController) errorResponse(c *fiber.Ctx, err error) error {
	status := HTTPStatus(err)
	if status >= fiber.StatusInternalServerError {
		h.Logger.Error("request failed", "path", c.Path(), "error", err)
	}
	return c.Status(status).JSON(messageResponse{Message: PublicMessage(err)})
}
