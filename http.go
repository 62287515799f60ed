package auth

import (
	"context"
	"net/http"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/miradorn/go-credauth/middleware/jwtware"
)

type RouteAuthenticator struct {
	auth         Authenticator
	cfg          Config
	Logger       Logger
	ErrorHandler func(c router.Context, err error) error
}

func NewHTTPAuthenticator(auther Authenticator, cfg Config) (*RouteAuthenticator, error) {
	a := &RouteAuthenticator{
		cfg:    cfg,
		auth:   auther,
		Logger: defLogger{},
	}

	a.ErrorHandler = a.defaultErrHandler

	return a, nil
}

// ProtectedRoute builds the bearer token gate for a route group. The
// middleware verifies the token signature and expiry locally and never
// touches the user store.
func (a *RouteAuthenticator) ProtectedRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	validator, _ := a.auth.(interface{ TokenService() TokenService })
	var tokenValidator jwtware.TokenValidator
	if validator != nil {
		tokenValidator = tokenValidatorAdapter{validator.TokenService()}
	}

	return jwtware.New(jwtware.Config{
		ErrorHandler: errorHandler,
		SigningKey: jwtware.SigningKey{
			Key:    []byte(cfg.GetSigningKey()),
			JWTAlg: cfg.GetSigningMethod(),
		},
		AuthScheme:     cfg.GetAuthScheme(),
		ContextKey:     cfg.GetContextKey(),
		TokenLookup:    cfg.GetTokenLookup(),
		TokenValidator: tokenValidator,
		ContextEnricher: func(ctx context.Context, claims jwtware.AuthClaims) context.Context {
			if ac, ok := claims.(AuthClaims); ok {
				return WithClaimsContext(ctx, ac)
			}
			return ctx
		},
	})
}

func (a *RouteAuthenticator) Login(ctx router.Context, payload LoginPayload) (*LoginResult, error) {
	result, err := a.auth.Login(ctx.Context(), payload.GetIdentifier(), payload.GetPassword())
	if err != nil {
		a.Logger.Error("Login error: %s", err)
		return nil, err
	}
	return result, nil
}

// MakeAPIAuthErrorHandler maps gate failures to the two cases clients
// can distinguish by status: a request that never presented a credential
// gets 403 with ErrNoCredential, and a request whose token failed
// verification gets 401. All token errors share the 401 status; the
// body's text code still names the failure for clients that handle
// expiry by refreshing.
func (a *RouteAuthenticator) MakeAPIAuthErrorHandler(optional bool) func(router.Context, error) error {
	return func(ctx router.Context, err error) error {
		var richErr *errors.Error

		if errors.Is(err, jwtware.ErrJWTMissingOrMalformed) {
			richErr = ErrNoCredential
		} else if IsTokenExpiredError(err) {
			richErr = ErrTokenExpired
		} else if IsMalformedError(err) {
			richErr = ErrTokenMalformed
		} else {
			richErr = errors.Wrap(err, errors.CategoryAuth, "Invalid authentication token").
				WithCode(errors.CodeUnauthorized)
		}

		if optional {
			a.Logger.Info("Optional auth failed, proceeding", "error", richErr.Message)
			return ctx.Next()
		}

		return a.ErrorHandler(ctx, richErr)
	}
}

func (a *RouteAuthenticator) defaultErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	a.Logger.Info(
		"Middleware error handler",
		"error", richErr.Message,
		"category", richErr.Category,
		"details", print.MaybePrettyJSON(richErr.Metadata),
	)

	return WriteJSONError(c, richErr)
}

// WriteJSONError renders a rich error as a JSON payload with the status
// implied by its category. Internal errors keep their details in the
// logs and go out as a generic message.
func WriteJSONError(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	status := statusForError(richErr)
	message := richErr.Message
	if status >= http.StatusInternalServerError {
		message = "An unexpected server error occurred"
	}

	body := map[string]any{
		"error": map[string]any{
			"message":   message,
			"text_code": richErr.TextCode,
		},
	}

	if len(richErr.Metadata) > 0 && status < http.StatusInternalServerError {
		body["error"].(map[string]any)["details"] = richErr.Metadata
	}

	return c.JSON(status, body)
}

func statusForError(err *errors.Error) int {
	if err.Code != 0 {
		return err.Code
	}

	switch err.Category {
	case errors.CategoryAuth:
		return http.StatusUnauthorized
	case errors.CategoryAuthz:
		return http.StatusForbidden
	case errors.CategoryValidation, errors.CategoryBadInput:
		return http.StatusBadRequest
	case errors.CategoryConflict:
		return http.StatusConflict
	case errors.CategoryNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// tokenValidatorAdapter bridges TokenService into the middleware's
// validator interface
type tokenValidatorAdapter struct {
	service TokenService
}

func (t tokenValidatorAdapter) Validate(tokenString string) (jwtware.AuthClaims, error) {
	claims, err := t.service.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}
