package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"skillnexus/backend/internal/auth"
	"skillnexus/backend/internal/config"
	"skillnexus/backend/internal/logger"
	"skillnexus/backend/internal/models"
	"skillnexus/backend/internal/storage"
)

const usage = `Usage: admin <command> [args]

Commands:
  user add <name> <email> <creator|client>   create a user and print its id
  token <user_id>                            issue an access token
  online [--watch]                           list users online, optionally follow changes`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	slogger := logger.New("warn", cfg.LogFormat)
	ctx := context.Background()

	switch os.Args[1] {
	case "user":
		if len(os.Args) != 6 || os.Args[2] != "add" {
			fmt.Println("Usage: admin user add <name> <email> <creator|client>")
			os.Exit(1)
		}
		role := os.Args[5]
		if !lo.Contains([]string{models.RoleCreator, models.RoleClient}, role) {
			fmt.Println("Role must be creator or client.")
			os.Exit(1)
		}
		db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to connect database: %v", err)
		}
		s := storage.NewStorageService(db, nil, slogger)
		if err := s.Migrate(); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
		user := &models.User{Name: os.Args[3], Email: os.Args[4], Role: role}
		if err := s.SaveUser(ctx, user); err != nil {
			log.Fatalf("Error creating user: %v", err)
		}
		fmt.Printf("User %s created with id %s\n", user.Name, user.ID)

	case "token":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin token <user_id>")
			os.Exit(1)
		}
		token, err := auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL).Generate(os.Args[2])
		if err != nil {
			log.Fatalf("Error issuing token: %v", err)
		}
		fmt.Println(token)

	case "online":
		if cfg.RedisAddr == "" {
			fmt.Println("SKILLNEXUS_REDIS_ADDR is not set; presence is only mirrored to Redis.")
			os.Exit(1)
		}
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		defer rdb.Close()
		s := storage.NewStorageService(nil, rdb, slogger)
		if err := listOnline(ctx, s); err != nil {
			log.Fatalf("Error reading presence: %v", err)
		}
		if len(os.Args) > 2 && os.Args[2] == "--watch" {
			if err := watchPresence(ctx, s); err != nil {
				log.Fatalf("Error following presence: %v", err)
			}
		}

	default:
		fmt.Println("Unknown command")
		fmt.Println(usage)
		os.Exit(1)
	}
}

func listOnline(ctx context.Context, s *storage.Service) error {
	ids, err := s.OnlineUsers(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%d user(s) online\n", len(ids))
	for _, id := range ids {
		fmt.Println(" ", id)
	}
	return nil
}

func watchPresence(ctx context.Context, s *storage.Service) error {
	sub, err := s.SubscribePresence(ctx)
	if err != nil {
		return err
	}
	defer sub.Close()

	for msg := range sub.Channel() {
		state, userID, ok := strings.Cut(msg.Payload, ":")
		if !ok {
			continue
		}
		fmt.Printf("%s %s\n", userID, state)
	}
	return nil
}
