// Command create_terminal_admin seeds a terminal and its admin account and
// prints a session token for the new admin.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"rideaxis/internal/config"
	"rideaxis/internal/db"
	"rideaxis/internal/logger"
	"rideaxis/internal/services"
	"rideaxis/internal/utils"

	"go.uber.org/zap"
)

func main() {
	var (
		code      = flag.String("terminal-code", "", "terminal code, e.g. NAVAL (required)")
		name      = flag.String("terminal-name", "", "terminal name, defaults to \"<code> Terminal\"")
		address   = flag.String("terminal-address", "", "terminal address")
		username  = flag.String("username", "", "admin username (required)")
		email     = flag.String("email", "", "admin email (required)")
		password  = flag.String("password", "", "admin password, or ADMIN_PASSWORD")
		firstName = flag.String("first-name", "", "admin first name")
		lastName  = flag.String("last-name", "", "admin last name")
		phone     = flag.String("phone", "", "admin phone number")
	)
	flag.Parse()

	if *password == "" {
		*password = os.Getenv("ADMIN_PASSWORD")
	}
	if *code == "" || *username == "" || *email == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}
	*code = strings.ToUpper(*code)
	if *name == "" {
		*name = *code + " Terminal"
	}

	cfg, _ := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}
	zlog, err := logger.New(cfg.LogLevel, "console")
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zlog.Sync()

	gdb, err := db.ConnectWithRetry(cfg, zlog)
	if err != nil {
		zlog.Fatal("database connection failed", zap.Error(err))
	}
	if err := db.Migrate(gdb); err != nil {
		zlog.Fatal("database migration failed", zap.Error(err))
	}

	terminal, created, err := services.EnsureTerminal(gdb, services.TerminalInput{
		Name:    *name,
		Code:    *code,
		Address: *address,
	})
	if err != nil {
		zlog.Fatal("ensure terminal", zap.Error(err))
	}
	if created {
		zlog.Info("terminal created", zap.Uint("terminal_id", terminal.ID), zap.String("code", terminal.Code))
	}

	admin, err := services.CreateTerminalAdmin(gdb, terminal, services.TerminalAdminInput{
		Username:    *username,
		Email:       *email,
		Password:    *password,
		FirstName:   *firstName,
		LastName:    *lastName,
		PhoneNumber: *phone,
	})
	if err != nil {
		zlog.Fatal("create terminal admin", zap.Error(err))
	}

	issuer := utils.NewTokenIssuer(cfg.JWTSecret, cfg.SessionTTL)
	token, err := issuer.GenerateTerminalAdminToken(admin.ID, admin.Username, terminal.ID, terminal.Name)
	if err != nil {
		zlog.Fatal("generate token", zap.Error(err))
	}

	fmt.Printf("Terminal admin %q created for %s (%s)\n", admin.Username, terminal.Name, terminal.Code)
	fmt.Printf("Session token: %s\n", token)
}
