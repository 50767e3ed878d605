// seed_admin crea o promueve el usuario administrador en PostgreSQL y aplica las migraciones
// pendientes.
//
// Uso: go run ./cmd/seed_admin [-update-password] usuario [email]
// La contraseña se lee de ADMIN_PASSWORD.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/jhoicas/Envois-api/internal/application/audit"
	"github.com/jhoicas/Envois-api/internal/application/auth"
	"github.com/jhoicas/Envois-api/internal/application/ledger"
	"github.com/jhoicas/Envois-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Envois-api/pkg/config"
	"github.com/jhoicas/Envois-api/pkg/logger"
)

func main() {
	updatePassword := flag.Bool("update-password", false, "reemplaza la contraseña si el usuario ya existe")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{App: "seed_admin", Env: cfg.App.Env, Level: cfg.App.LogLevel})

	seed := auth.AdminSeed{
		Username:       cfg.Admin.Username,
		Email:          cfg.Admin.Email,
		Password:       cfg.Admin.Password,
		UpdatePassword: *updatePassword || cfg.Admin.UpdatePassword,
	}
	if flag.NArg() > 0 {
		seed.Username = flag.Arg(0)
	}
	if flag.NArg() > 1 {
		seed.Email = flag.Arg(1)
	}
	if seed.Username == "" || seed.Password == "" {
		fmt.Fprintln(os.Stderr, "uso: seed_admin [-update-password] usuario [email]  (ADMIN_PASSWORD obligatorio)")
		os.Exit(2)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB, log.Component("postgres"))
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(pool, log.Component("migrate")); err != nil {
		log.Fatal().Err(err).Msg("migraciones")
	}

	clock := ledger.NewClock(cfg.App.Location())
	authUC := auth.NewAuthUseCase(postgres.NewUserRepository(pool), auth.JWTConfig{
		Secret: cfg.JWT.Secret, ExpMinutes: cfg.JWT.Expiration, Issuer: cfg.JWT.Issuer,
	}, audit.Nop{}, log.Component("auth"), clock)

	res, err := authUC.EnsureAdmin(ctx, seed)
	if err != nil {
		log.Fatal().Err(err).Str("username", seed.Username).Msg("sembrar administrador")
	}
	fmt.Printf("%s: %s\n", seed.Username, res)
}
