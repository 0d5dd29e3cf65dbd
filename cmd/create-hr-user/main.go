package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/stemsi/compass-backend/internal/config"
	"github.com/stemsi/compass-backend/internal/database"
	"github.com/stemsi/compass-backend/internal/logger"
	"github.com/stemsi/compass-backend/internal/model"
	"github.com/stemsi/compass-backend/internal/repository"
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

	users := repository.NewHRUserRepository(pool)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Create HR User ===")

	fmt.Print("Enter Email: ")
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(email)
	if email == "" {
		fmt.Println("Error: Email is required")
		return
	}

	// An existing account only gets its password reset.
	existing, err := users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		log.Fatal().Err(err).Msg("Failed to look up HR user")
	}

	var name string
	role := model.HRRoleReviewer
	if existing == nil {
		fmt.Print("Enter Name: ")
		name, _ = reader.ReadString('\n')
		name = strings.TrimSpace(name)
		if name == "" {
			fmt.Println("Error: Name is required")
			return
		}

		fmt.Printf("Enter Role [%s/%s] (default %s): ", model.HRRoleAdmin, model.HRRoleReviewer, model.HRRoleReviewer)
		roleStr, _ := reader.ReadString('\n')
		switch model.HRRole(strings.TrimSpace(roleStr)) {
		case "", model.HRRoleReviewer:
		case model.HRRoleAdmin:
			role = model.HRRoleAdmin
		default:
			fmt.Println("Error: Unknown role")
			return
		}
	} else {
		fmt.Printf("User '%s' exists, resetting password.\n", existing.Name)
	}

	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		fmt.Println("\nError reading password")
		return
	}
	password := string(bytePassword)
	fmt.Println()
	if len(password) < 6 {
		fmt.Println("Error: Password must be at least 6 characters")
		return
	}

	// ─── Logic ─────────────────────────────────────────────────────────
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}

	if existing != nil {
		if err := users.UpdatePassword(ctx, existing.ID, string(hashedPassword)); err != nil {
			log.Fatal().Err(err).Msg("Failed to reset password")
		}
		fmt.Printf("\nSuccess! Password of '%s' (%s) was reset\n", existing.Name, existing.Email)
		return
	}

	user := &model.HRUser{
		Email:        email,
		Name:         name,
		PasswordHash: string(hashedPassword),
		Role:         role,
	}
	if err := users.Create(ctx, user); err != nil {
		log.Fatal().Err(err).Msg("Failed to create HR user")
	}

	fmt.Printf("\nSuccess! %s '%s' (%s) created with ID: %d\n", user.Role, user.Name, user.Email, user.ID)
}
