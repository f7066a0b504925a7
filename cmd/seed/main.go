package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/neopath7/pethoria-matchpage-server/internal/app/apiapp"
	"github.com/neopath7/pethoria-matchpage-server/internal/config"
	"github.com/neopath7/pethoria-matchpage-server/internal/infra/logger"
	authsvc "github.com/neopath7/pethoria-matchpage-server/internal/services/auth"
	"github.com/neopath7/pethoria-matchpage-server/internal/seed"
)

func main() {
	_ = godotenv.Load()

	def := seed.DefaultConfig()
	var (
		profiles  = flag.Int("profiles", def.Profiles, "number of profiles to generate")
		maxPets   = flag.Int("max-pets", def.MaxPets, "maximum pets per profile")
		jitter    = flag.Float64("jitter-miles", def.JitterMiles, "scatter radius around each city")
		seedValue = flag.Uint64("seed", def.Seed, "random seed for deterministic generation")
		withToken = flag.Bool("token", true, "print an access token for the first profile")
	)
	flag.Parse()

	cfgPath := os.Getenv("APP_CONFIG")
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	store, closeStore, err := apiapp.OpenStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("open profile store", zap.Error(err))
	}
	defer closeStore()

	generated := seed.Generate(seed.Config{
		Profiles:    *profiles,
		MaxPets:     *maxPets,
		JitterMiles: *jitter,
		Seed:        *seedValue,
	}, cfg.Remote.Cities)

	for _, p := range generated {
		if err := store.UpsertProfile(ctx, p); err != nil {
			log.Fatal("upsert profile", zap.String("profile_id", p.ID), zap.Error(err))
		}
	}
	log.Info("seed completed", zap.Int("profiles", len(generated)), zap.String("store", cfg.Store.Driver))

	if *withToken && len(generated) > 0 {
		manager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)
		token, _, err := manager.GenerateAccessToken(generated[0].ID, "", "user")
		if err != nil {
			log.Fatal("generate access token", zap.Error(err))
		}
		fmt.Fprintf(os.Stdout, "profile %s\naccess token %s\n", generated[0].ID, token)
	}
}
