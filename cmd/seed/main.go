package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"fieldops/internal/config"
	"fieldops/internal/database"
	"fieldops/internal/domain"
	"fieldops/internal/pkg/logger"
	"fieldops/internal/repository"
)

// Seed migrates the schema and loads a small demo data set: an admin
// login, a few clients and engineers, and the starting material catalog.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Init("fieldops-seed", true)
		log.Fatal().Err(err).Msg("config load failed")
	}
	logger.Init("fieldops-seed", cfg.AppEnv == "dev")

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}

	err = db.AutoMigrate(
		&domain.User{},
		&domain.RefreshToken{},
		&domain.ClientType{},
		&domain.Client{},
		&domain.Engineer{},
		&domain.Material{},
		&domain.Appointment{},
		&domain.WorkerVisit{},
		&domain.InventoryTransaction{},
	)
	if err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	ctx := context.Background()
	users := repository.NewUserRepository(db)
	clients := repository.NewClientRepository(db)
	engineers := repository.NewEngineerRepository(db)
	materials := repository.NewMaterialRepository(db)

	hash, err := bcrypt.GenerateFromPassword([]byte("admin12345"), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal().Err(err).Msg("hashing seed password failed")
	}
	admin := &domain.User{
		Name:         "Administrator",
		Email:        "admin@fieldops.local",
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
	}
	if err := users.Create(ctx, admin); err != nil {
		log.Warn().Err(err).Msg("admin user not created (may already exist)")
	}

	contractorType := &domain.ClientType{ID: uuid.NewString(), Name: "Contractor"}
	villaType := &domain.ClientType{ID: uuid.NewString(), Name: "Villa Owner"}
	for _, t := range []*domain.ClientType{contractorType, villaType} {
		if err := clients.CreateType(ctx, t); err != nil {
			log.Warn().Err(err).Str("name", t.Name).Msg("client type not created")
		}
	}

	address := "Industrial Area 12, Sharjah"
	seedClients := []*domain.Client{
		{Name: "Al Noor Contracting", PrimaryContact: "+971501000001", Address: &address, ClientTypeID: &contractorType.ID, IsActive: true},
		{Name: "Marina Villa 24", PrimaryContact: "+971501000002", ClientTypeID: &villaType.ID, IsActive: true},
	}
	for _, c := range seedClients {
		if err := clients.Create(ctx, c); err != nil {
			log.Warn().Err(err).Str("name", c.Name).Msg("client not created")
		}
	}

	seedEngineers := []*domain.Engineer{
		{Name: "Ravi Kumar", Email: "ravi@fieldops.local", MobileNumber: "+971502000001", IsActive: true},
		{Name: "Imran Shaikh", Email: "imran@fieldops.local", MobileNumber: "+971502000002", IsActive: true},
	}
	for _, e := range seedEngineers {
		if err := engineers.Create(ctx, e); err != nil {
			log.Warn().Err(err).Str("name", e.Name).Msg("engineer not created")
		}
	}

	cableReorder := 100
	groutReorder := 25
	seedMaterials := []*domain.Material{
		{Name: "Wall Panel 120x60", Unit: "pcs", IsActive: true},
		{Name: "Armoured Cable", Unit: "m", ReorderLevel: &cableReorder, IsActive: true},
		{Name: "Epoxy Grout", Unit: "kg", ReorderLevel: &groutReorder, IsActive: true},
	}
	for _, m := range seedMaterials {
		if err := materials.Create(ctx, m); err != nil {
			log.Warn().Err(err).Str("name", m.Name).Msg("material not created")
		}
	}

	log.Info().Time("at", time.Now()).Msg("seed complete")
}
