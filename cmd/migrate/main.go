package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"os"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jhoicas/stock-transfer-api/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-transfer-api/pkg/config"
	"github.com/jhoicas/stock-transfer-api/pkg/logger"
	"github.com/jhoicas/stock-transfer-api/pkg/migrate"
)

func main() {
	cmd := flag.String("cmd", "up", "migration command: up|down|status|version|create|validate")
	dir := flag.String("dir", "pkg/migrate/"+migrate.DefaultDir, "directorio de migraciones en disco (create, validate)")
	name := flag.String("name", "", "nombre de la migración (create)")
	version := flag.String("version", "", "versión destino YYYYMMDDHHMMSS (-cmd=version)")
	flag.Parse()

	app, dbCfg := config.LoadDB()
	log := logger.New(logger.Config{Env: app.Env, Level: app.LogLevel}).Component("migrate")
	log.Info().Str("env", app.Env).Str("cmd", *cmd).Msg("migrate")

	// Comandos que no requieren base de datos
	switch *cmd {
	case "create":
		if *name == "" {
			fmt.Fprintln(os.Stderr, "falta -name para create")
			os.Exit(1)
		}
		path, err := migrate.CreateSQLMigration(*dir, *name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "no se pudo crear la migración: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("migración creada:", path)
		return

	case "validate":
		var fsys fs.FS = os.DirFS(*dir)
		target := "."
		if _, err := os.Stat(*dir); err != nil {
			fsys, target = migrate.FS(), migrate.DefaultDir
		}
		if err := migrate.Validate(fsys, target); err != nil {
			fmt.Fprintf(os.Stderr, "validación de migraciones fallida: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("migraciones válidas")
		return
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, dbCfg, app.Name+"-migrate")
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	switch *cmd {
	case "up", "down", "status":
		err = migrate.Run(ctx, db, *cmd)
	case "version":
		if *version == "" {
			fmt.Fprintln(os.Stderr, "falta -version para -cmd=version")
			os.Exit(1)
		}
		err = migrate.MigrateToVersion(ctx, db, *version)
	default:
		fmt.Fprintln(os.Stderr, "valor -cmd desconocido:", *cmd)
		os.Exit(1)
	}
	if err != nil {
		log.Error().Err(err).Msg("migración fallida")
		os.Exit(1)
	}
	log.Info().Msg("migración completada")
}
