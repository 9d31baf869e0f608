package router

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/chamados-service/api"
	"github.com/psds-microservice/chamados-service/internal/auth"
	"github.com/psds-microservice/chamados-service/internal/handler"
	"github.com/psds-microservice/chamados-service/internal/model"
	"github.com/psds-microservice/chamados-service/internal/web"
	"github.com/psds-microservice/helpy/paths"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type Deps struct {
	Tickets *handler.TicketHandler
	Auth    *handler.AuthHandler
	Pages   *handler.PageHandler
	Issuer  *auth.Issuer
	// Ready pings the database for /ready; nil reports ready unconditionally.
	Ready       func(ctx context.Context) error
	CORSOrigins []string
}

func New(d Deps) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{paths.PathHealth, paths.PathReady, "/sw.js"},
	}))
	if len(d.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     d.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	r.SetHTMLTemplate(web.Templates())

	r.GET(paths.PathHealth, gin.WrapF(handler.Health))
	r.GET(paths.PathReady, gin.WrapF(handler.Ready(d.Ready)))
	r.GET(paths.PathSwagger, func(c *gin.Context) { c.Redirect(http.StatusFound, paths.PathSwagger+"/") })
	r.GET(paths.PathSwagger+"/*any", func(c *gin.Context) {
		if strings.TrimPrefix(c.Param("any"), "/") == "openapi.json" {
			c.Data(http.StatusOK, "application/json", api.OpenAPISpec)
			return
		}
		if strings.TrimPrefix(c.Param("any"), "/") == "" {
			c.Request.URL.Path = paths.PathSwagger + "/index.html"
			c.Request.RequestURI = paths.PathSwagger + "/index.html"
		}
		ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL(paths.PathSwagger+"/openapi.json"))(c)
	})

	r.StaticFS("/static", web.Static())
	r.GET("/sw.js", func(c *gin.Context) {
		c.Header("Service-Worker-Allowed", "/")
		c.Data(http.StatusOK, "application/javascript", web.ServiceWorker())
	})

	r.POST("/auth/login", d.Auth.Login)
	chamados := r.Group("/chamados", handler.Authenticate(d.Issuer))
	{
		chamados.POST("/gerente", d.Tickets.Create)
		chamados.GET("/gerente", d.Tickets.List(model.RoleManager))
		chamados.GET("/fiscal", d.Tickets.List(model.RoleInspector))
		chamados.GET("/admin", d.Tickets.List(model.RoleAdmin))
		chamados.GET("/:id", d.Tickets.Get)
		chamados.PUT("/:id", d.Tickets.Edit)
		chamados.DELETE("/:id", d.Tickets.Delete)
		chamados.PUT("/:id/concluir", d.Tickets.Conclude)
		chamados.PUT("/:id/visualizar", d.Tickets.MarkViewed)
	}

	r.GET("/", func(c *gin.Context) { c.Redirect(http.StatusFound, "/login-page") })
	r.GET("/login-page", d.Auth.LoginPage)
	r.POST("/login-page", d.Auth.LoginAction)
	r.POST("/logout", d.Auth.Logout)

	gerente := r.Group("", handler.RequirePageRole(d.Issuer, model.RoleManager))
	{
		gerente.GET("/dashboard-gerente", d.Pages.Dashboard)
		gerente.GET("/gerente/abrir-chamado", d.Pages.NewTicketForm)
		gerente.POST("/gerente/abrir-chamado", d.Pages.CreateTicket)
		gerente.GET("/gerente/listar-chamados", d.Pages.List)
		gerente.POST("/gerente/concluir/:id", d.Pages.Conclude)
	}

	fiscal := r.Group("", handler.RequirePageRole(d.Issuer, model.RoleInspector))
	{
		fiscal.GET("/dashboard-fiscal", d.Pages.Dashboard)
		fiscal.GET("/fiscal/listar-chamados", d.Pages.List)
		fiscal.POST("/fiscal/visualizar/:id", d.Pages.MarkViewed)
		fiscal.POST("/fiscal/concluir/:id", d.Pages.Conclude)
	}

	admin := r.Group("", handler.RequirePageRole(d.Issuer, model.RoleAdmin))
	{
		admin.GET("/dashboard-admin", d.Pages.Dashboard)
		admin.GET("/admin/listar-chamados", d.Pages.List)
		admin.GET("/admin/editar/:id", d.Pages.EditForm)
		admin.POST("/admin/editar/:id", d.Pages.Edit)
		admin.POST("/admin/concluir/:id", d.Pages.Conclude)
		admin.POST("/admin/deletar/:id", d.Pages.Delete)
	}

	return r
}
