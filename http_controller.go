package auth

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

type Middleware interface {
	ProtectedRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc
}

// RegisterAuthRoutes mounts the credential endpoints plus the protected
// profile routes on the given router
func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) {

	controller := NewAuthController(opts...)

	app.
		Post(controller.Routes.Register, controller.RegistrationCreate).
		SetName("auth.register.post")

	app.
		Post(controller.Routes.Login, controller.LoginPost).
		SetName("auth.login.post")

	protected := controller.Auther.ProtectedRoute(
		controller.Config,
		controller.AuthErrorHandler,
	)

	app.
		Get(controller.Routes.Profile, controller.ProfileShow, protected).
		SetName("auth.profile.get")

	app.
		Put(controller.Routes.Profile, controller.ProfileUpdate, protected).
		SetName("auth.profile.put")
}

type AuthControllerRoutes struct {
	Login    string
	Register string
	Profile  string
}

type AuthController struct {
	Debug            bool
	Logger           Logger
	Repo             RepositoryManager
	Routes           *AuthControllerRoutes
	Auther           HTTPAuthenticator
	Config           Config
	ErrorHandler     router.ErrorHandler
	AuthErrorHandler func(router.Context, error) error
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:       defLogger{},
		ErrorHandler: WriteJSONError,
		Routes: &AuthControllerRoutes{
			Login:    "/auth/login",
			Register: "/auth/register",
			Profile:  "/users/me",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing HTTPAuthenticator in auth controller...")
	}

	if c.Config == nil {
		panic("Missing Config in auth controller...")
	}

	if c.AuthErrorHandler == nil {
		if ra, ok := c.Auther.(*RouteAuthenticator); ok {
			c.AuthErrorHandler = ra.MakeAPIAuthErrorHandler(false)
		} else {
			c.AuthErrorHandler = c.ErrorHandler
		}
	}

	return c
}

func WithControllerRepo(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

func WithControllerAuther(auther HTTPAuthenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func WithControllerConfig(cfg Config) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Config = cfg
		return c
	}
}

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Logger = logger
		return c
	}
}

// LoginRequest payload
type LoginRequest struct {
	Identifier string `form:"identifier" json:"identifier"`
	Password   string `form:"password" json:"password"`
}

// GetIdentifier returns the identifier
func (r LoginRequest) GetIdentifier() string {
	return r.Identifier
}

// GetPassword will return the password
func (r LoginRequest) GetPassword() string {
	return r.Password
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Identifier,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload", "error", err)
		return a.ErrorHandler(ctx, ErrInvalidInput.Clone().WithMetadata(map[string]any{
			"body": "failed to parse request body",
		}))
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("login validate payload", "error", err)
		return a.ErrorHandler(ctx, ErrInvalidInput.Clone().WithMetadata(
			FormatValidationErrorToMap(err),
		))
	}

	if a.Debug {
		fmt.Println("======= AUTH LOGIN ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("=========================")
	}

	result, err := a.Auther.Login(ctx, payload)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"token": result.Token,
		"user": map[string]any{
			"id":    result.Identity.ID(),
			"email": result.Identity.Email(),
		},
	})
}

// RegistrationCreatePayload is the registration body
type RegistrationCreatePayload struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will validate the payload
func (r RegistrationCreatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(1, 100)),
	)
}

func (a *AuthController) RegistrationCreate(ctx router.Context) error {
	payload := new(RegistrationCreatePayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register user parse payload", "error", err)
		return a.ErrorHandler(ctx, ErrInvalidInput.Clone().WithMetadata(map[string]any{
			"body": "failed to parse request body",
		}))
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register user validate payload", "error", err)
		return a.ErrorHandler(ctx, ErrInvalidInput.Clone().WithMetadata(
			FormatValidationErrorToMap(err),
		))
	}

	var created *User
	req := RegisterUserMessage{
		Email:    payload.Email,
		Password: payload.Password,
		OnResponse: func(u *User) {
			created = u
		},
	}

	registerUser := RegisterUserHandler{repo: a.Repo}
	if err := registerUser.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("register user execute", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	// registration does not log the user in, the client has to go
	// through the login endpoint to get a token
	return ctx.JSON(router.StatusCreated, map[string]any{
		"user_id": created.ID.String(),
	})
}

func (a *AuthController) ProfileShow(ctx router.Context) error {
	session, err := GetRouterSession(ctx, a.Config.GetContextKey())
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	user, err := a.Repo.Users().GetByID(ctx.Context(), session.GetUserID())
	if err != nil {
		a.Logger.Error("profile show get user", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"id":    user.ID.String(),
		"email": user.Email,
	})
}

// ProfileUpdatePayload is the profile update body
type ProfileUpdatePayload struct {
	Email string `form:"email" json:"email"`
}

// Validate will validate the payload
func (r ProfileUpdatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
	)
}

func (a *AuthController) ProfileUpdate(ctx router.Context) error {
	session, err := GetRouterSession(ctx, a.Config.GetContextKey())
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	userID, err := session.GetUserUUID()
	if err != nil {
		return a.ErrorHandler(ctx, ErrUnableToDecodeSession)
	}

	payload := new(ProfileUpdatePayload)
	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("profile update parse payload", "error", err)
		return a.ErrorHandler(ctx, ErrInvalidInput.Clone().WithMetadata(map[string]any{
			"body": "failed to parse request body",
		}))
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("profile update validate payload", "error", err)
		return a.ErrorHandler(ctx, ErrInvalidInput.Clone().WithMetadata(
			FormatValidationErrorToMap(err),
		))
	}

	user, err := a.Repo.Users().UpdateEmail(ctx.Context(), userID, payload.Email)
	if err != nil {
		a.Logger.Error("profile update email", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"id":    user.ID.String(),
		"email": user.Email,
	})
}

// FormatValidationErrorToMap flattens ozzo validation errors into a
// field to message map
func FormatValidationErrorToMap(err error) map[string]any {
	out := map[string]any{}

	if verrs, ok := err.(validation.Errors); ok {
		for field, ferr := range verrs {
			out[field] = ferr.Error()
		}
		return out
	}

	out["validation"] = err.Error()
	return out
}
