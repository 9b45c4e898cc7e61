// Package api exposes the ordering system over HTTP. Handlers stay
// thin: bind, call a service, map the result. All policy lives in the
// service layer.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"mensa/internal/auth"
	"mensa/internal/ratelimit"
	"mensa/internal/service"
)

// Server wires the echo router to the service layer.
type Server struct {
	echo   *echo.Echo
	logger zerolog.Logger

	tokens  *auth.Manager
	repo    service.Repository
	limiter ratelimit.Limiter

	accounts  *service.AccountService
	menu      *service.MenuService
	cart      *service.CartService
	orders    *service.OrderService
	approvals *service.ApprovalService
	settings  *service.SettingsService

	cookieSecure bool
}

// Deps carries everything the server needs. All fields are required
// except Limiter, which disables rate limiting when nil.
type Deps struct {
	Tokens  *auth.Manager
	Repo    service.Repository
	Limiter ratelimit.Limiter

	Accounts  *service.AccountService
	Menu      *service.MenuService
	Cart      *service.CartService
	Orders    *service.OrderService
	Approvals *service.ApprovalService
	Settings  *service.SettingsService

	CookieSecure bool
}

func NewServer(deps Deps, logger *zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:         e,
		logger:       logger.With().Str("component", "api").Logger(),
		tokens:       deps.Tokens,
		repo:         deps.Repo,
		limiter:      deps.Limiter,
		accounts:     deps.Accounts,
		menu:         deps.Menu,
		cart:         deps.Cart,
		orders:       deps.Orders,
		approvals:    deps.Approvals,
		settings:     deps.Settings,
		cookieSecure: deps.CookieSecure,
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.echo.Use(s.requestLogger)
	if s.limiter != nil {
		s.echo.Use(s.rateLimit)
	}

	api := s.echo.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/register", s.handleRegister)
	authGroup.POST("/login", s.handleLogin)
	authGroup.POST("/logout", s.handleLogout)
	authGroup.POST("/password-reset", s.handlePasswordResetRequest)
	authGroup.POST("/password-reset/confirm", s.handlePasswordResetConfirm)

	user := api.Group("", s.authRequired)
	user.GET("/me", s.handleMe)
	user.GET("/menu", s.handleMenu)
	user.GET("/cart", s.handleCartList)
	user.POST("/cart", s.handleCartAdd)
	user.PUT("/cart/:id", s.handleCartUpdate)
	user.DELETE("/cart/:id", s.handleCartRemove)
	user.POST("/orders", s.handleCheckout)
	user.GET("/orders", s.handleOrderList)
	user.GET("/orders/:id", s.handleOrderGet)
	user.POST("/orders/:id/cancel", s.handleOrderCancel)

	manager := api.Group("/manager", s.authRequired, s.managerOnly)
	manager.GET("/menu-items", s.handleMenuItemList)
	manager.POST("/menu-items", s.handleMenuItemCreate)
	manager.PUT("/menu-items/:id", s.handleMenuItemUpdate)
	manager.POST("/menu-items/:id/variants", s.handleVariantCreate)
	manager.PUT("/variants/:id", s.handleVariantUpdate)
	manager.PUT("/availability", s.handleAvailabilitySet)
	manager.GET("/settings", s.handleSettingsGet)
	manager.PUT("/settings", s.handleSettingsUpdate)
	manager.GET("/approvals", s.handleApprovalList)
	manager.POST("/approvals/:id/approve", s.handleApprove)
	manager.POST("/approvals/:id/reject", s.handleReject)
	manager.PUT("/orders/:id/status", s.handleOrderStatus)
	manager.GET("/orders", s.handleOrdersByRange)
	manager.GET("/reports/orders", s.handleOrderReport)

	admin := api.Group("/admin", s.authRequired, s.adminOnly)
	admin.GET("/universities", s.handleUniversityList)
	admin.POST("/universities", s.handleUniversityCreate)
	admin.PUT("/universities/:id", s.handleUniversityUpdate)
	admin.POST("/universities/:id/managers", s.handleManagerCreate)
}

// Handler returns the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start blocks serving HTTP until the listener fails or Shutdown is
// called.
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.logger.Info().Str("addr", addr).Msg("http server starting")
	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// sessionCookie builds the auth cookie; maxAge <= 0 clears it.
func (s *Server) sessionCookie(token string, maxAge time.Duration) *http.Cookie {
	c := &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	if maxAge > 0 {
		c.MaxAge = int(maxAge.Seconds())
	} else {
		c.MaxAge = -1
	}
	return c
}
