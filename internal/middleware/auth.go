package middleware // middleware provides shared request processing for handlers

import (
    "net/http"
    "strconv"

    "github.com/golang-jwt/jwt/v5"
    "github.com/labstack/echo/v4"
)

// SessionCookie is the name of the cookie carrying the session token.
const SessionCookie = "token"

// CookieAuth returns an Echo middleware that validates the session
// token carried in the "token" cookie and injects the token's subject
// and role claims into the request context. The provided secret must
// match the one used when issuing tokens. Handlers access the
// authenticated user via c.Get("user_id") (uint64) and c.Get("role")
// (string). A missing cookie yields 401 "Not authenticated"; an
// invalid or expired token yields 401 "Invalid token" — expiry is
// enforced by the jwt library through the exp claim.
func CookieAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            cookie, err := c.Cookie(SessionCookie)
            if err != nil || cookie.Value == "" {
                return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Not authenticated"})
            }

            tok, err := jwt.Parse(cookie.Value, func(t *jwt.Token) (interface{}, error) {
                // Reject tokens signed with anything but HMAC.
                if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
                    return nil, echo.ErrUnauthorized
                }
                return []byte(secret), nil
            })
            if err != nil || !tok.Valid {
                return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Invalid token"})
            }

            claims, ok := tok.Claims.(jwt.MapClaims)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Invalid token"})
            }

            uid, ok := subjectID(claims)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Invalid token"})
            }
            role, _ := claims["role"].(string)

            c.Set("user_id", uid)
            c.Set("role", role)
            return next(c)
        }
    }
}

// subjectID extracts the sub claim as a uint64 user id. JWT numbers
// decode as float64; string subjects are parsed for robustness.
func subjectID(claims jwt.MapClaims) (uint64, bool) {
    switch v := claims["sub"].(type) {
    case float64:
        return uint64(v), true
    case string:
        if n, err := strconv.ParseUint(v, 10, 64); err == nil {
            return n, true
        }
    }
    return 0, false
}
