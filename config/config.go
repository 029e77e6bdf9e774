package config

import "time"

type Config struct {
	Web     Web
	DB      DB
	Cors    Cors
	Auth    Auth
	Uploads Uploads
	Rate    Rate
}

type Web struct {
	Address         string        `conf:"default:0.0.0.0:8000"`
	ReadTimeout     time.Duration `conf:"default:5s"`
	WriteTimeout    time.Duration `conf:"default:10s"`
	IdleTimeout     time.Duration `conf:"default:120s"`
	ShutdownTimeout time.Duration `conf:"default:20s"`
}

type DB struct {
	User       string `conf:"default:postgres"`
	Password   string `conf:"default:postgres,mask"`
	Host       string `conf:"default:localhost:5432"`
	Name       string `conf:"default:shop"`
	DisableTLS bool   `conf:"default:true"`
	Seed       bool   `conf:"default:false"`
}

type Cors struct {
	Origin string `conf:"default:http://localhost:3000"`
}

type Auth struct {
	SessionLifetime time.Duration `conf:"default:24h"`
}

type Uploads struct {
	Dir string `conf:"default:uploads/products"`
}

type Rate struct {
	LoginBurst    int `conf:"default:5"`
	LoginPerMin   int `conf:"default:10"`
	ClientExpired int `conf:"default:60"`
}
