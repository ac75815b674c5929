// FleetDesk - Fleet management console
package main

import (
	"bufio"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/aethra/fleetdesk/internal/api"
	"github.com/aethra/fleetdesk/internal/auth"
	"github.com/aethra/fleetdesk/internal/config"
	"github.com/aethra/fleetdesk/internal/database"
	"github.com/aethra/fleetdesk/internal/entities"
	"github.com/aethra/fleetdesk/internal/kvstore"
	"github.com/aethra/fleetdesk/internal/services"
)

var Version = "1.0.0"

func main() {
	if len(os.Args) > 1 {
		runCLI()
		return
	}
	startServer()
}

func startServer() {
	fmt.Printf("FleetDesk %s - Starting...\n", Version)

	cfg := config.Load()
	db := connectDB(cfg)
	log.Println("Database connected")

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Println("Migrations complete")

	store := openStore(cfg)
	registry, err := services.NewRegistry(db)
	if err != nil {
		log.Fatalf("Service registry failed: %v", err)
	}
	configs := entities.NewConfigs(registry)
	jwtService := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.AccessExpiry, cfg.Auth.RefreshExpiry)

	handler := api.NewHandler(db, configs, registry, jwtService, store)
	authHandler := api.NewAuthHandler(db, jwtService)
	console, err := api.NewConsoleHandler(db, configs, store)
	if err != nil {
		log.Fatalf("Console renderer failed: %v", err)
	}
	router := api.SetupRouter(cfg, handler, authHandler, console)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	log.Printf("Server starting on port %s", cfg.Server.Port)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func connectDB(cfg *config.Config) *gorm.DB {
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	return db
}

// openStore selects the UI-state backend from configuration. The file
// backend is the default; postgres and mysql share the SQL backend.
func openStore(cfg *config.Config) kvstore.Store {
	switch cfg.Storage.Driver {
	case "postgres", "mysql":
		store, err := kvstore.OpenSQLStore(cfg.Storage.Driver, cfg.Storage.DSN, "ui_state")
		if err != nil {
			log.Fatalf("State store failed: %v", err)
		}
		return store
	case "file", "":
		store, err := kvstore.NewFileStore(cfg.Storage.Dir)
		if err != nil {
			log.Fatalf("State store failed: %v", err)
		}
		return store
	default:
		log.Fatalf("Unknown storage driver: %s", cfg.Storage.Driver)
		return nil
	}
}

// CLI
func runCLI() {
	switch os.Args[1] {
	case "serve":
		startServer()
	case "migrate":
		cfg := config.Load()
		db := connectDB(cfg)
		if err := database.Migrate(db); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		fmt.Println("Migrations complete")
	case "seed":
		cfg := config.Load()
		db := connectDB(cfg)
		if err := database.Migrate(db); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		email := getFlag("--email")
		if email == "" {
			email = "admin@fleetdesk.local"
		}
		password := getFlag("--password")
		if password == "" {
			password = generateSecret(16)
			fmt.Printf("Generated admin password: %s\n", password)
		}
		if err := database.Seed(db, email, password); err != nil {
			log.Fatalf("Seed failed: %v", err)
		}
		fmt.Printf("Seed complete, admin login: %s\n", email)
	case "setup":
		runSetup()
	default:
		printUsage()
	}
}

func printUsage() {
	fmt.Println(`Usage: fleetdesk <command>
Commands:
  setup                         Interactive setup wizard
  serve                         Start server
  migrate                       Run migrations
  seed --email= --password=     Seed baseline data and admin account`)
}

func getFlag(name string) string {
	prefix := name + "="
	for _, arg := range os.Args {
		if len(arg) > len(prefix) && arg[:len(prefix)] == prefix {
			return arg[len(prefix):]
		}
	}
	return ""
}

// Interactive Setup
func runSetup() {
	reader := bufio.NewReader(os.Stdin)
	fmt.Println("\n=== FleetDesk Setup Wizard ===")

	fmt.Println("\nDatabase Configuration:")
	dbHost := prompt(reader, "  DB Host", "localhost")
	dbPort := prompt(reader, "  DB Port", "5432")
	dbUser := prompt(reader, "  DB User", "fleetdesk")
	dbPassword := promptPassword(reader, "  DB Password")
	dbName := prompt(reader, "  DB Name", "fleetdesk")

	os.Setenv("FLEETDESK_DB_HOST", dbHost)
	os.Setenv("FLEETDESK_DB_PORT", dbPort)
	os.Setenv("FLEETDESK_DB_USER", dbUser)
	os.Setenv("FLEETDESK_DB_PASSWORD", dbPassword)
	os.Setenv("FLEETDESK_DB_NAME", dbName)

	cfg := config.Load()
	fmt.Println("\nConnecting to database...")
	db := connectDB(cfg)
	fmt.Println("Connected!")

	fmt.Println("Running migrations...")
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	fmt.Println("Migrations complete!")

	fmt.Println("\nAdmin User:")
	adminEmail := prompt(reader, "  Email", "admin@fleetdesk.local")
	adminPassword := promptPassword(reader, "  Password")

	if err := database.Seed(db, adminEmail, adminPassword); err != nil {
		log.Fatalf("Seed failed: %v", err)
	}
	fmt.Printf("Admin user '%s' created!\n", adminEmail)

	jwtSecret := generateSecret(32)
	fmt.Println("\nServer Configuration:")
	port := prompt(reader, "  Port", "8090")

	fmt.Println("\n=== Setup Complete ===")
	fmt.Println("\nAdd these to your systemd service or docker-compose:")
	fmt.Println("----------------------------------------")
	fmt.Printf("FLEETDESK_DB_HOST=%s\n", dbHost)
	fmt.Printf("FLEETDESK_DB_PORT=%s\n", dbPort)
	fmt.Printf("FLEETDESK_DB_USER=%s\n", dbUser)
	fmt.Printf("FLEETDESK_DB_PASSWORD=%s\n", dbPassword)
	fmt.Printf("FLEETDESK_DB_NAME=%s\n", dbName)
	fmt.Printf("FLEETDESK_JWT_SECRET=%s\n", jwtSecret)
	fmt.Printf("FLEETDESK_SERVER_PORT=%s\n", port)
	fmt.Println("----------------------------------------")
	fmt.Printf("\nStart server: fleetdesk serve\n")
	fmt.Printf("Login: %s / [your password]\n", adminEmail)
}

func prompt(reader *bufio.Reader, label, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", label, defaultVal)
	} else {
		fmt.Printf("%s: ", label)
	}
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return defaultVal
	}
	return input
}

func promptPassword(reader *bufio.Reader, label string) string {
	fmt.Printf("%s: ", label)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func generateSecret(length int) string {
	b := make([]byte, length)
	rand.Read(b)
	return base64.StdEncoding.EncodeToString(b)[:length]
}
