package router

import (
	"github.com/gin-gonic/gin"
	"github.com/oguzkagan/beyanname-takip/controllers"
	"github.com/oguzkagan/beyanname-takip/middlewares"
	"gorm.io/gorm"
)

func SetupRouter(db *gorm.DB) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.LoggerMiddleware())
	// Rotalardan önce takılmalı; gin, kayıt anındaki zinciri dondurur
	r.Use(middlewares.NewRateLimiter(50, 1).RateLimit())

	customerCtrl := controllers.NewCustomerController(db)
	declarationCtrl := controllers.NewDeclarationController(db)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Yazma uçları için daha sıkı limit
	writes := r.Group("/")
	writes.Use(middlewares.NewStrictRateLimiter())
	{
		writes.POST("/customers", customerCtrl.CreateCustomer)
		writes.POST("/declarations", declarationCtrl.CreateDeclaration)
	}

	r.GET("/customers", customerCtrl.GetCustomers)
	r.GET("/customers/count", customerCtrl.GetCustomerCount)
	r.DELETE("/customers/:id", customerCtrl.DeleteCustomer)

	r.GET("/declarations", declarationCtrl.GetDeclarations)
	r.GET("/declarations/types", declarationCtrl.GetDeclarationTypes)
	r.PUT("/declarations/:id", declarationCtrl.UpdateDeclaration)
	r.DELETE("/declarations/:id", declarationCtrl.DeleteDeclaration)

	return r
}
