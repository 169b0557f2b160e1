package handler

import (
    "context"  // provides context with cancellation for DB calls
    "net/http" // HTTP status codes and primitives
    "strings"  // string manipulation utilities
    "time"     // timeouts for DB calls and cookie expiry

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/agrolink/farm-marketplace/internal/config"
    "github.com/agrolink/farm-marketplace/internal/middleware"
    "github.com/agrolink/farm-marketplace/internal/model"
    "github.com/agrolink/farm-marketplace/internal/repository"
    "github.com/agrolink/farm-marketplace/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints. Sessions are a
// single HS256 JWT carried in an HttpOnly cookie; there is no refresh
// flow, logging out just clears the cookie.
type AuthHandler struct {
    Cfg   config.Config
    Users *repository.UserRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo) *AuthHandler {
    if u == nil {
        panic("nil repository passed to NewAuthHandler")
    }
    return &AuthHandler{Cfg: cfg, Users: u}
}

// ----- DTOs -----

type registerReq struct {
    Name     string `json:"name"`
    Email    string `json:"email"`
    Password string `json:"password"`
    Role     string `json:"role"` // farmer | dealer
    Address  string `json:"address"`
    Phone    string `json:"phone"`
}
type loginReq struct {
    Email    string `json:"email"`
    Password string `json:"password"`
}
type updateReq struct {
    Name       *string `json:"name"`
    ProfilePic *string `json:"profile_pic"`
}

type userPart struct {
    ID         uint64  `json:"id"`
    Name       string  `json:"name"`
    Email      string  `json:"email"`
    Role       string  `json:"role"`
    Address    string  `json:"address"`
    Phone      string  `json:"phone"`
    ProfilePic *string `json:"profile_pic"`
}

func toUserPart(u model.User) userPart {
    return userPart{
        ID:         u.ID,
        Name:       u.Name,
        Email:      u.Email,
        Role:       u.Role,
        Address:    u.Address,
        Phone:      u.Phone,
        ProfilePic: u.ProfilePic,
    }
}

// setSessionCookie attaches the signed token as an HttpOnly cookie so
// browser scripts can never read it. SameSite=Lax matches the
// cross-page navigation the web client performs after login.
func setSessionCookie(c echo.Context, token string, exp time.Time) {
    c.SetCookie(&http.Cookie{
        Name:     middleware.SessionCookie,
        Value:    token,
        Expires:  exp,
        Path:     "/",
        HttpOnly: true,
        SameSite: http.SameSiteLaxMode,
    })
}

// clearSessionCookie expires the session cookie immediately.
func clearSessionCookie(c echo.Context) {
    c.SetCookie(&http.Cookie{
        Name:     middleware.SessionCookie,
        Value:    "",
        Expires:  time.Unix(0, 0),
        MaxAge:   -1,
        Path:     "/",
        HttpOnly: true,
        SameSite: http.SameSiteLaxMode,
    })
}

// Register creates a user and starts a session immediately.
func (h *AuthHandler) Register(c echo.Context) error {
    var req registerReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request body"})
    }
    req.Name = strings.TrimSpace(req.Name)
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    req.Role = strings.ToLower(strings.TrimSpace(req.Role))
    if req.Name == "" || req.Email == "" || req.Password == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "Name, email and password are required"})
    }
    if !model.ValidRole(req.Role) {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "Role must be farmer or dealer"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    uid, err := h.Users.Create(ctx, req.Name, req.Email, req.Password, req.Role, req.Address, req.Phone, h.Cfg.BcryptCost)
    if err != nil {
        if err == repository.ErrEmailExists {
            return c.JSON(http.StatusBadRequest, echo.Map{"message": "Email already in use"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to create user"})
    }

    st, err := utils.NewSessionToken(h.Cfg.JWTSecret, uid, req.Role, h.Cfg.SessionTTLHours)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to issue token"})
    }
    setSessionCookie(c, st.Token, st.Exp)

    return c.JSON(http.StatusCreated, echo.Map{
        "message": "Registration successful",
        "user": userPart{
            ID: uid, Name: req.Name, Email: req.Email, Role: req.Role,
            Address: req.Address, Phone: req.Phone,
        },
    })
}

// Login verifies credentials and sets a fresh session cookie. The
// response body never distinguishes a missing account from a wrong
// password.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request body"})
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if req.Email == "" || req.Password == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "Email and password are required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.GetByEmail(ctx, req.Email)
    if err != nil {
        if err == repository.ErrNotFound {
            return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Invalid credentials"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to query user"})
    }
    if !utils.VerifyPassword(u.PasswordHash, req.Password) {
        return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Invalid credentials"})
    }

    st, err := utils.NewSessionToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.SessionTTLHours)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to issue token"})
    }
    setSessionCookie(c, st.Token, st.Exp)

    return c.JSON(http.StatusOK, echo.Map{
        "message": "Login successful",
        "user":    toUserPart(u),
    })
}

// Logout clears the session cookie. Stateless tokens mean there is
// nothing to revoke server side.
func (h *AuthHandler) Logout(c echo.Context) error {
    clearSessionCookie(c)
    return c.JSON(http.StatusOK, echo.Map{"message": "Logged out"})
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Not authenticated"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.GetByID(ctx, uid)
    if err != nil {
        if err == repository.ErrNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"message": "User not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to load user"})
    }
    return c.JSON(http.StatusOK, echo.Map{"user": toUserPart(u)})
}

// Update patches the authenticated user's display name and avatar.
// Email and role are immutable after registration.
func (h *AuthHandler) Update(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Not authenticated"})
    }
    var req updateReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request body"})
    }
    if req.Name != nil {
        trimmed := strings.TrimSpace(*req.Name)
        if trimmed == "" {
            return c.JSON(http.StatusBadRequest, echo.Map{"message": "Name cannot be empty"})
        }
        req.Name = &trimmed
    }
    if req.Name == nil && req.ProfilePic == nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "Nothing to update"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Users.UpdateProfile(ctx, uid, req.Name, req.ProfilePic); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to update profile"})
    }
    u, err := h.Users.GetByID(ctx, uid)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to load user"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "message": "Profile updated",
        "user":    toUserPart(u),
    })
}
