package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/studentpartner/backend/core/user"
)

// rolesMiddleware only lets active users holding one of roles through.
func rolesMiddleware(auth *authenticator, roles ...user.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := auth.getContextUser(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			for _, role := range roles {
				if usr.Role == role {
					return next(ctx)
				}
			}
			return errHttpForbidden
		}
	}
}

func adminMiddleware(auth *authenticator) echo.MiddlewareFunc {
	return rolesMiddleware(auth, user.RoleAdmin)
}

func staffMiddleware(auth *authenticator) echo.MiddlewareFunc {
	return rolesMiddleware(auth, user.RoleAdmin, user.RoleTeacher)
}

// activeUserMiddleware rejects tokens of users who were deactivated (or deleted) since they logged in.
func activeUserMiddleware(auth *authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if _, err := auth.getContextUser(ctx); err != nil {
				return errors.Wrap(err, "getting context user")
			}
			return next(ctx)
		}
	}
}
