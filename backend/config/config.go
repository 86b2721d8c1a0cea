// Copyright (C) 2025 efchat.net <tj@efchat.net>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package config

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds the server's environment configuration.
type Config struct {
	Port            string `envconfig:"PORT" default:"8082"`
	DatabaseURL     string `envconfig:"DATABASE_URL" default:"postgres://localhost/efmsg?sslmode=disable"`
	RedisURL        string `envconfig:"REDIS_URL" default:"localhost:6379"`
	JWTSecret       string `envconfig:"JWT_SECRET" required:"true"`
	JWTIssuer       string `envconfig:"JWT_ISSUER" default:"efchat"`
	NotifyQueueSize int    `envconfig:"NOTIFY_QUEUE_SIZE" default:"256"`
	LogLevel        string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads configuration from the environment, with .env as a fallback
// for development.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
