package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

const envPrefix = "WEEKCAL_"

type Application struct {
	Host     string   `koanf:"host"`
	Listen   string   `koanf:"listen"`
	Frontend Frontend `koanf:"frontend"`
	Cors     Cors     `koanf:"cors"`
	Database Database `koanf:"db"`
	Layout   Layout   `koanf:"layout"`
	NowLine  NowLine  `koanf:"nowline"`
}

type Frontend struct {
	Enabled bool   `koanf:"enabled"`
	Dir     string `koanf:"dir"`
}

type Cors struct {
	// AllowedOrigins is a comma separated list, "*" allows any origin.
	AllowedOrigins string `koanf:"allowedorigins"`
}

type Database struct {
	Host   string `koanf:"host"`
	Port   int    `koanf:"port"`
	User   string `koanf:"user"`
	Pass   string `koanf:"pass"`
	Name   string `koanf:"name"`
	Schema string `koanf:"schema"`

	// MaxConns and MinConns size the pgx pool. Zero keeps the pgx default.
	MaxConns int32 `koanf:"maxconns"`
	MinConns int32 `koanf:"minconns"`

	// Migrations is the directory holding the SQL migrations. When empty it
	// is searched for upwards from the working directory.
	Migrations string `koanf:"migrations"`
}

// Layout mirrors layout.Metrics so the grid can be tuned without a rebuild.
type Layout struct {
	CompactHourHeight float64 `koanf:"compacthourheight"`
	NormalHourHeight  float64 `koanf:"normalhourheight"`
	CompactBreakpoint int     `koanf:"compactbreakpoint"`
	MinEventHeight    float64 `koanf:"mineventheight"`
	DefaultDuration   int     `koanf:"defaultduration"`
}

type NowLine struct {
	// Schedule is a standard 5 field cron expression.
	Schedule string `koanf:"schedule"`
}

func Defaults() Application {
	return Application{
		Host:   "http://localhost:3000",
		Listen: ":8181",
		Frontend: Frontend{
			Enabled: true,
			Dir:     "frontend",
		},
		Cors: Cors{
			AllowedOrigins: "http://localhost:3000",
		},
		Database: Database{
			Host:     "localhost",
			Port:     5432,
			User:     "weekcal",
			Pass:     "",
			Name:     "weekcal",
			Schema:   "weekcal",
			MaxConns: 10,
			MinConns: 1,
		},
		Layout: Layout{
			CompactHourHeight: 50,
			NormalHourHeight:  60,
			CompactBreakpoint: 480,
			MinEventHeight:    20,
			DefaultDuration:   60,
		},
		NowLine: NowLine{
			Schedule: "* * * * *",
		},
	}
}

// Load merges defaults, the YAML file at path and WEEKCAL_ environment
// variables, in that order. A .env file in the working directory is read
// into the environment first.
func Load(path string) (Application, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Warnf("could not read .env file: %v", err)
		}
	} else {
		log.Info("Loaded environment from .env")
	}

	var k = koanf.New(".")

	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if os.IsNotExist(err) {
			log.Infof("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Infof("Loaded configuration from file: %s", path)
	}

	err := k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, envPrefix)), "_", ".")
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}

	return app, nil
}
