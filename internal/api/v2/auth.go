package api

import (
	stderrors "errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/tphakala/camrelay/internal/conf"
	"github.com/tphakala/camrelay/internal/errors"
	"github.com/tphakala/camrelay/internal/logger"
)

const (
	// jwtLeeway absorbs clock skew between the issuer and this service.
	jwtLeeway = 30 * time.Second

	// ContextKeySubject holds the authenticated token subject on the echo context.
	ContextKeySubject = "auth_subject"
)

// Rejection reasons, used as metric labels.
const (
	authReasonMissing = "missing"
	authReasonFormat  = "format"
	authReasonExpired = "expired"
	authReasonClaims  = "claims"
	authReasonInvalid = "invalid"
)

// tokenValidator checks bearer tokens against one key and the configured claims.
type tokenValidator struct {
	parser *jwt.Parser
	key    any
}

// newTokenValidator builds an HS256 validator when a shared secret is set, otherwise
// an RS256 validator from the PEM public key file.
func newTokenValidator(settings conf.AuthSettings) (*tokenValidator, error) {
	opts := []jwt.ParserOption{
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(jwtLeeway),
	}
	if settings.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(settings.Issuer))
	}
	if settings.Audience != "" {
		opts = append(opts, jwt.WithAudience(settings.Audience))
	}

	if settings.Secret != "" {
		opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		return &tokenValidator{parser: jwt.NewParser(opts...), key: []byte(settings.Secret)}, nil
	}

	pem, err := os.ReadFile(settings.PublicKeyFile)
	if err != nil {
		return nil, errors.New(err).
			Component("api").
			Category(errors.CategoryConfiguration).
			Context("operation", "load_jwt_public_key").
			Build()
	}
	key, err := jwt.ParseRSAPublicKeyFromPEM(pem)
	if err != nil {
		return nil, errors.New(err).
			Component("api").
			Category(errors.CategoryConfiguration).
			Context("operation", "parse_jwt_public_key").
			Build()
	}

	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
	return &tokenValidator{parser: jwt.NewParser(opts...), key: key}, nil
}

// validate parses and verifies a raw token and returns its claims.
func (v *tokenValidator) validate(raw string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := v.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	})
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// rejectionReason classifies a validation failure for metrics and logs.
func rejectionReason(err error) string {
	switch {
	case stderrors.Is(err, jwt.ErrTokenExpired), stderrors.Is(err, jwt.ErrTokenNotValidYet):
		return authReasonExpired
	case stderrors.Is(err, jwt.ErrTokenInvalidIssuer), stderrors.Is(err, jwt.ErrTokenInvalidAudience),
		stderrors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return authReasonClaims
	default:
		return authReasonInvalid
	}
}

// newAuthMiddleware creates the bearer token middleware for the camera routes.
func newAuthMiddleware(settings conf.AuthSettings, recorder AuthErrorRecorder, log logger.Logger) (echo.MiddlewareFunc, error) {
	validator, err := newTokenValidator(settings)
	if err != nil {
		return nil, err
	}

	reject := func(ctx echo.Context, reason, message string) error {
		if recorder != nil {
			recorder.RecordAuthError(reason)
		}
		log.Debug("bearer token rejected",
			logger.String("reason", reason),
			logger.String("path", ctx.Request().URL.Path),
			logger.String("ip", ctx.RealIP()))
		ctx.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
		return ctx.JSON(http.StatusUnauthorized, ErrorResponse{Message: message})
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			authHeader := ctx.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return reject(ctx, authReasonMissing, "Authentication required")
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				return reject(ctx, authReasonFormat, "Invalid Authorization header format. Use 'Bearer {token}'")
			}

			claims, err := validator.validate(strings.TrimSpace(token))
			if err != nil {
				return reject(ctx, rejectionReason(err), "Invalid or expired token")
			}

			ctx.Set(ContextKeySubject, claims.Subject)
			return next(ctx)
		}
	}, nil
}
