package routes

import (
	"net/http"

	"kblog/controllers"
	"kblog/handlers"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, auth gin.HandlerFunc, authController *controllers.AuthController, postController *controllers.PostController, w *handlers.WebSocketHandler) {
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Welcome to the blog API!")
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/register", authController.Register)
	r.POST("/login", authController.Login)
	r.GET("/me", auth, authController.Me)

	posts := r.Group("/posts")
	posts.Use(auth)
	{
		posts.POST("", postController.CreatePost)
		posts.GET("", postController.GetPosts)
		posts.PUT("/:id", postController.UpdatePost)
		posts.DELETE("/:id", postController.DeletePost)
	}

	if w != nil {
		r.GET("/ws", auth, w.HandleWebSocket)
	}
}
