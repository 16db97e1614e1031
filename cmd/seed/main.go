// Command seed prepares a development database: it can create the database,
// applies migrations and inserts two demo users with a task tree each.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/fastygo/tasktracker/domain"
	"github.com/fastygo/tasktracker/internal/config"
	pgInfra "github.com/fastygo/tasktracker/internal/infrastructure/postgres"
	"github.com/fastygo/tasktracker/pkg/logger"
	"github.com/fastygo/tasktracker/repository"
	"github.com/fastygo/tasktracker/repository/postgres"
	taskUC "github.com/fastygo/tasktracker/usecase/task"
)

const (
	tasksPerUser    = 5
	subtasksPerTask = 3
	demoPassword    = "user"
)

var demoUsers = []domain.User{
	{Name: "User", Email: "user@example.com"},
	{Name: "User 2", Email: "user2@example.com"},
}

func main() {
	createDB := flag.Bool("create-db", false, "create the configured database if it does not exist")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	zapLogger, err := logger.New(logger.Config{Level: cfg.Logger.Level, Encoding: cfg.Logger.Encoding})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	ctx := context.Background()

	if *createDB {
		if _, err := pgInfra.EnsureDatabase(cfg.Database, zapLogger); err != nil {
			zapLogger.Fatal("database creation failed", zap.Error(err))
		}
	}

	cfg.Migrations.Enabled = true
	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(ctx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	defer pool.Close()

	users := postgres.NewUserRepository(pool)
	tasks := taskUC.New(postgres.NewTaskRepository(pool), nil, zapLogger)

	hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), cfg.Auth.BcryptCost)
	if err != nil {
		zapLogger.Fatal("password hashing failed", zap.Error(err))
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := range demoUsers {
		user := demoUsers[i]
		user.Password = string(hash)
		g.Go(func() error {
			return seedUser(gctx, users, tasks, user, zapLogger)
		})
	}
	if err := g.Wait(); err != nil {
		zapLogger.Fatal("seeding failed", zap.Error(err))
	}
	zapLogger.Info("seeding finished")
}

func seedUser(ctx context.Context, users repository.UserRepository, tasks *taskUC.UseCase, user domain.User, zl *zap.Logger) error {
	if existing, err := users.GetByEmail(ctx, user.Email); err == nil {
		zl.Info("user already seeded", zap.String("email", existing.Email))
		return nil
	} else if !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		return err
	}
	if err := users.Create(ctx, &user); err != nil {
		return fmt.Errorf("create %s: %w", user.Email, err)
	}

	for i := 1; i <= tasksPerUser; i++ {
		res, err := tasks.Create(ctx, user.ID, taskUC.NewTask{
			Title:       fmt.Sprintf("Task %d of %s", i, user.Name),
			Description: fmt.Sprintf("Seeded task %d", i),
			Priority:    randomPriority(),
		})
		if err != nil {
			return err
		}
		parent := res.Data.(*domain.Task)

		for j := 1; j <= subtasksPerTask; j++ {
			res, err := tasks.CreateSubtask(ctx, user.ID, taskUC.NewTask{
				ParentID:    parent.ID,
				Title:       fmt.Sprintf("Subtask %d.%d", i, j),
				Description: fmt.Sprintf("Seeded subtask %d of task %d", j, i),
				Priority:    randomPriority(),
			})
			if err != nil {
				return err
			}
			if !res.OK() {
				return fmt.Errorf("subtask of %d refused: %v", parent.ID, res.Data)
			}
		}
	}
	zl.Info("user seeded", zap.String("email", user.Email), zap.Int64("user_id", user.ID))
	return nil
}

func randomPriority() int {
	return domain.MinPriority + rand.Intn(domain.MaxPriority-domain.MinPriority+1)
}
