package router

import (
	"time"

	"github.com/mgfere/kinoa-rolls/internal/config"
	"github.com/mgfere/kinoa-rolls/internal/handler"
	"github.com/mgfere/kinoa-rolls/internal/middleware"
	"github.com/mgfere/kinoa-rolls/internal/model"
	"github.com/mgfere/kinoa-rolls/internal/realtime"
	"github.com/mgfere/kinoa-rolls/internal/repository"
	"github.com/mgfere/kinoa-rolls/internal/service"
	"github.com/mgfere/kinoa-rolls/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis.
// The realtime hub and the worker dispatcher are created at the composition
// root (main) and injected here so their lifecycle is owned by the process.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, hub *realtime.Hub, dispatcher *worker.Dispatcher) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	usuarioRepo := repository.NewUsuarioRepository(db)
	productoRepo := repository.NewProductoRepository(db)
	pedidoRepo := repository.NewPedidoRepository(db)
	notificacionRepo := repository.NewNotificacionRepository(db)
	conexionRepo := repository.NewConexionRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(usuarioRepo, dispatcher, cfg)
	perfilSvc := service.NewPerfilService(usuarioRepo)
	usuarioSvc := service.NewUsuarioService(usuarioRepo)
	productoSvc := service.NewProductoService(productoRepo, rdb)
	notifSvc := service.NewNotificacionService(notificacionRepo, hub)
	pedidoSvc := service.NewPedidoService(pedidoRepo, productoRepo, usuarioRepo, notifSvc, dispatcher, cfg)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	perfilH := handler.NewPerfilHandler(perfilSvc)
	productosH := handler.NewProductosHandler(productoSvc)
	pedidosH := handler.NewPedidosHandler(pedidoSvc)
	notificacionesH := handler.NewNotificacionesHandler(notifSvc)
	usuariosH := handler.NewUsuariosHandler(usuarioSvc)
	realtimeH := handler.NewRealtimeHandler(hub, conexionRepo)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, hub))

	auth := r.Group("/v1/auth")
	{
		auth.POST("/register", authH.Register)
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
		auth.POST("/reset-password", middleware.LoginRateLimiter(), authH.SolicitarReset)
		auth.POST("/reset-password/confirm", authH.ConfirmarReset)
	}

	// Menu publico — tambien sin sesion se puede mirar la carta
	r.GET("/v1/productos/menu", productosH.Menu)
	r.GET("/v1/productos/:id/imagen", productosH.Imagen)

	// Websocket — el token viaja por query string, asi que el middleware es el
	// variante WS
	r.GET("/v1/ws", middleware.JWTAuthWS(cfg.JWTSecret), realtimeH.Conectar)

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		v1.GET("/perfil", perfilH.Obtener)
		v1.PUT("/perfil", perfilH.Actualizar)
		v1.GET("/perfil/foto", perfilH.Foto)
		v1.PUT("/perfil/foto", perfilH.SubirFoto)

		v1.POST("/pedidos", middleware.RequireRole(model.RolCliente, model.RolAdmin), pedidosH.Crear)
		v1.GET("/pedidos", pedidosH.MisPedidos)
		v1.GET("/pedidos/:id", pedidosH.Obtener)

		v1.GET("/notificaciones", notificacionesH.Listar)
		v1.PATCH("/notificaciones/:id/leida", notificacionesH.MarcarLeida)

		// Admin
		admin := v1.Group("/admin", middleware.RequireRole(model.RolAdmin))
		{
			admin.GET("/dashboard", pedidosH.Dashboard)

			admin.GET("/pedidos", pedidosH.Listar)
			admin.GET("/pedidos/:id", pedidosH.Obtener)
			admin.PATCH("/pedidos/:id/estado", pedidosH.CambiarEstado)

			admin.GET("/productos", productosH.Listar)
			admin.POST("/productos", productosH.Crear)
			admin.GET("/productos/:id", productosH.Obtener)
			admin.PUT("/productos/:id", productosH.Actualizar)
			admin.DELETE("/productos/:id", productosH.Eliminar)
			admin.PUT("/productos/:id/imagen", productosH.SubirImagen)
			admin.PATCH("/productos/:id/disponibilidad", productosH.CambiarDisponibilidad)

			admin.GET("/usuarios", usuariosH.Listar)
			admin.DELETE("/usuarios/:id", usuariosH.Desactivar)
			admin.PATCH("/usuarios/:id/reactivar", usuariosH.Reactivar)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
