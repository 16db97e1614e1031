package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/tasktracker/api/handler"
)

type Handlers struct {
	Auth   *apiHandler.AuthHandler
	Task   *apiHandler.TaskHandler
	Health *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	if handlers.Health != nil {
		r.GET("/health", handlers.Health.Check)
	}

	api := r.Group("/api")

	// Public auth routes
	api.POST("/register", handlers.Auth.Register)
	api.POST("/login", handlers.Auth.Login)

	// Protected routes
	api.GET("/user", authMiddleware(handlers.Auth.CurrentUser))
	api.POST("/logout", authMiddleware(handlers.Auth.Logout))

	task := api.Group("/task")
	task.POST("/list", authMiddleware(handlers.Task.List))
	task.POST("/user_task", authMiddleware(handlers.Task.UserTasks))
	task.POST("/subtask", authMiddleware(handlers.Task.Subtasks))
	task.GET("/task_id/{task_id}", authMiddleware(handlers.Task.Show))
	task.GET("/task_id/{task_id}/events", authMiddleware(handlers.Task.Events))
	task.POST("/create_task", authMiddleware(handlers.Task.Create))
	task.POST("/create_subtask", authMiddleware(handlers.Task.CreateSubtask))
	task.POST("/update", authMiddleware(handlers.Task.Update))
	task.POST("/completed", authMiddleware(handlers.Task.Complete))
	task.POST("/delete", authMiddleware(handlers.Task.Delete))

	return r
}
