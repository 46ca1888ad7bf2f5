// cmd/useradd/main.go cadastra um vendedor direto no banco.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"reconciliation-service/internal/config"
	"reconciliation-service/internal/core/auth"
	"reconciliation-service/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "caminho do arquivo de configuração")
	email := flag.String("email", "", "e-mail de login")
	name := flag.String("name", "", "nome completo")
	cnpj := flag.String("cnpj", "", "CNPJ (opcional)")
	password := flag.String("password", "", "senha (mínimo de 8 caracteres)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("Falha ao carregar a configuração: ", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("Configuração inválida: ", err)
	}

	db, err := storage.Open(storage.MySQLConfig{DSN: cfg.MySQL.DSN, AutoMigrate: cfg.MySQL.AutoMigrate})
	if err != nil {
		log.Fatal(err)
	}
	defer storage.Close(db) //nolint:errcheck

	service := auth.NewService(storage.NewRepository(db), []byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	user, err := service.CreateUser(ctx, auth.NewUser{
		Email:    *email,
		FullName: *name,
		CNPJ:     *cnpj,
		Password: *password,
	})
	if err != nil {
		log.Fatal("Não foi possível criar o usuário: ", err)
	}
	log.Printf("Usuário %d criado: %s", user.ID, user.DisplayName())
}
