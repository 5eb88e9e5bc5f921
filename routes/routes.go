package routes

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stationlab/weatherapi/auth"
	"github.com/stationlab/weatherapi/controllers"
	"github.com/stationlab/weatherapi/database"
	"github.com/stationlab/weatherapi/middleware"
	"github.com/stationlab/weatherapi/models"
	"github.com/stationlab/weatherapi/utils"
)

type Dependencies struct {
	Users          database.UserStore
	Readings       database.ReadingStore
	Changelog      database.Archiver
	AuthHeader     string
	AllowedOrigins []string
	Limits         utils.QueryLimits
}

var (
	student = models.RoleStudent
	teacher = models.RoleTeacher
	sensor  = models.RoleSensor
)

func NewRouter(deps Dependencies) *gin.Engine {
	authn := auth.NewAuthenticator(deps.Users)
	guard := auth.NewGuard(deps.Users)
	protect := func(roles ...models.Role) gin.HandlerFunc {
		return middleware.AuthMiddleware(guard, deps.AuthHeader, roles...)
	}

	r := gin.New()

	allowedOrigins := map[string]bool{}
	for _, origin := range deps.AllowedOrigins {
		allowedOrigins[origin] = true
	}
	log.Printf("Allowed origins: %v", deps.AllowedOrigins)
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return allowedOrigins[origin]
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", deps.AuthHeader, middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RequestLogger())
	r.Use(gin.Recovery())

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	users := r.Group("/users")
	{
		users.POST("/register", controllers.Register(authn))
		users.POST("/login", controllers.Login(authn))
		users.POST("/logout", protect(student, teacher, sensor), controllers.Logout(authn, deps.AuthHeader))
		users.GET("/me", protect(student, teacher, sensor), controllers.Me())
		users.POST("/me/password", protect(student, teacher, sensor), controllers.ChangeMyPassword(authn))

		users.GET("", protect(teacher), controllers.ListUsers(deps.Users, deps.Limits))
		users.GET("/:id", protect(teacher), controllers.GetUser(deps.Users))
		users.PUT("/:id", protect(teacher), controllers.ReplaceUser(deps.Users))
		users.PATCH("/roles", protect(teacher), controllers.UpdateRoles(deps.Users))
		users.DELETE("/:id", protect(teacher), controllers.DeleteUser(deps.Users, deps.Changelog))
		users.DELETE("", protect(teacher), controllers.DeleteInactiveStudents(deps.Users, deps.Changelog))
	}

	readings := r.Group("/readings")
	{
		readings.POST("", protect(teacher, sensor), controllers.CreateReading(deps.Readings))
		readings.POST("/batch", protect(teacher, sensor), controllers.CreateReadings(deps.Readings))

		readings.GET("", protect(student, teacher), controllers.ListReadings(deps.Readings, deps.Limits))
		readings.GET("/station", protect(student, teacher), controllers.GetStationReading(deps.Readings))
		readings.GET("/max-precipitation", protect(student, teacher), controllers.GetMaxPrecipitation(deps.Readings))
		readings.GET("/max-temperature", protect(student, teacher), controllers.GetMaxTemperatures(deps.Readings))
		readings.GET("/:id", protect(student, teacher), controllers.GetReading(deps.Readings))

		readings.PUT("/:id", protect(teacher), controllers.ReplaceReading(deps.Readings))
		readings.PATCH("/:id/precipitation", protect(teacher), controllers.UpdatePrecipitation(deps.Readings))
		readings.DELETE("/:id", protect(teacher), controllers.DeleteReading(deps.Readings))
	}

	return r
}
