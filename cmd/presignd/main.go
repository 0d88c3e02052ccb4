package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tendant/simple-s3/pkg/simples3"
	"github.com/tendant/simple-s3/pkg/simples3/metrics"
)

type Config struct {
	Port int `env:"PRESIGND_PORT" env-default:"8080"`
	S3   S3Config
}

type S3Config struct {
	Endpoint        string `env:"AWS_S3_ENDPOINT" env-default:"http://localhost:9000"`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID" env-default:"minioadmin"`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" env-default:"minioadmin"`
	BucketName      string `env:"AWS_S3_BUCKET" env-default:"content-bucket"`
	Region          string `env:"AWS_S3_REGION" env-default:"us-east-1"`
	UseSSL          bool   `env:"AWS_S3_USE_SSL" env-default:"false"`

	DefaultTTL int `env:"PRESIGN_DEFAULT_TTL" env-default:"3600"`
	MaxTTL     int `env:"PRESIGN_MAX_TTL" env-default:"604800"`
}

// PresignResponse is the JSON body returned for a presign request.
type PresignResponse struct {
	Key       string    `json:"key"`
	Method    string    `json:"method"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PresignHandler generates presigned URLs for a single bucket.
type PresignHandler struct {
	client     *simples3.Client
	defaultTTL time.Duration
	maxTTL     time.Duration
}

func (h *PresignHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/download/*", h.presign(http.MethodGet))
	r.Get("/upload/*", h.presign(http.MethodPut))
	return r
}

func (h *PresignHandler) presign(method string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "*")
		if key == "" {
			http.Error(w, "Object key is required", http.StatusBadRequest)
			return
		}

		ttl := h.defaultTTL
		if raw := r.URL.Query().Get("ttl"); raw != "" {
			secs, err := strconv.Atoi(raw)
			if err != nil || secs <= 0 {
				http.Error(w, "Invalid ttl", http.StatusBadRequest)
				return
			}
			ttl = time.Duration(secs) * time.Second
		}
		if ttl > h.maxTTL {
			ttl = h.maxTTL
		}

		at := time.Now()
		url, err := h.client.PresignURLAt(method, key, ttl, at)
		if err != nil {
			slog.Error("Failed to presign", "key", key, "method", method, "err", err)
			http.Error(w, "Failed to presign", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, PresignResponse{
			Key:       key,
			Method:    method,
			URL:       url,
			ExpiresAt: at.Add(ttl),
		})
	}
}

func main() {
	var config Config
	if err := cleanenv.ReadEnv(&config); err != nil {
		slog.Error("Failed to read configuration", "err", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()

	client, err := simples3.New(simples3.Config{
		AccessKeyID:     config.S3.AccessKeyID,
		SecretAccessKey: config.S3.SecretAccessKey,
		Bucket:          config.S3.BucketName,
		Region:          simples3.Region(config.S3.Region),
		Endpoint:        config.S3.Endpoint,
		UseSSL:          config.S3.UseSSL,
	}, simples3.WithObserver(metrics.New(registry)))
	if err != nil {
		slog.Error("Failed to initialize S3 client", "err", err)
		os.Exit(1)
	}

	handler := &PresignHandler{
		client:     client,
		defaultTTL: time.Duration(config.S3.DefaultTTL) * time.Second,
		maxTTL:     time.Duration(config.S3.MaxTTL) * time.Second,
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	r.Mount("/presign", handler.Routes())

	addr := fmt.Sprintf(":%d", config.Port)
	slog.Info("Starting presignd", "addr", addr, "bucket", config.S3.BucketName)
	if err := http.ListenAndServe(addr, r); err != nil {
		slog.Error("Server exited", "err", err)
		os.Exit(1)
	}
}
