package middleware

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
)

// CORS allows browser clients on other origins. CORS_ORIGINS is a
// comma-separated allow list; unset means any origin.
func CORS() gin.HandlerFunc {
	origins := []string{"*"}
	if v := strings.TrimSpace(os.Getenv("CORS_ORIGINS")); v != "" {
		origins = strings.Split(v, ",")
	}
	return CORSWithOrigins(origins)
}

func CORSWithOrigins(origins []string) gin.HandlerFunc {
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:       []string{"Content-Type", "Authorization"},
		OptionsSuccessStatus: http.StatusNoContent,
	})
	return func(ctx *gin.Context) {
		c.HandlerFunc(ctx.Writer, ctx.Request)
		// Preflight requests are fully answered by the cors handler.
		if ctx.Request.Method == http.MethodOptions &&
			ctx.Request.Header.Get("Access-Control-Request-Method") != "" {
			ctx.AbortWithStatus(http.StatusNoContent)
			return
		}
		ctx.Next()
	}
}
