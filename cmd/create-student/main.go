package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/stemsi/sgpa-planner/internal/config"
	"github.com/stemsi/sgpa-planner/internal/database"
	"github.com/stemsi/sgpa-planner/internal/logger"
	"github.com/stemsi/sgpa-planner/internal/model"
	"github.com/stemsi/sgpa-planner/internal/repository"
	"github.com/stemsi/sgpa-planner/internal/service"
	"golang.org/x/term"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Initialize Service ────────────────────────────────────────────
	authService := service.NewAuthService(cfg, repository.NewStudentRepository(pool), log)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Create New Student Account ===")

	fmt.Print("Enter Student Number: ")
	number, _ := reader.ReadString('\n')
	number = strings.TrimSpace(number)
	if number == "" {
		fmt.Println("Error: Student number is required")
		return
	}

	fmt.Print("Enter Name: ")
	name, _ := reader.ReadString('\n')
	name = strings.TrimSpace(name)
	if name == "" {
		fmt.Println("Error: Name is required")
		return
	}

	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println() // Newline after password input
	if err != nil {
		fmt.Println("Error reading password")
		return
	}
	password := string(bytePassword)
	if len(password) < 6 {
		fmt.Println("Error: Password must be at least 6 characters")
		return
	}

	// ─── Logic ─────────────────────────────────────────────────────────
	res, err := authService.Register(ctx, model.StudentRegisterRequest{
		StudentNumber: number,
		Name:          name,
		Password:      password,
	})
	if errors.Is(err, service.ErrStudentExists) {
		fmt.Printf("Error: student number %s is already registered\n", number)
		return
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create student")
	}

	fmt.Printf("\nSuccess! Student '%s' (%s) created with ID: %d\n", res.Student.Name, res.Student.StudentNumber, res.Student.ID)
}
