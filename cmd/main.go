package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/satriahrh/arunika/device/adapters/led"
	"github.com/satriahrh/arunika/device/adapters/mic"
	"github.com/satriahrh/arunika/device/domain/repositories"
	"github.com/satriahrh/arunika/device/internal/api"
	"github.com/satriahrh/arunika/device/internal/auth"
	"github.com/satriahrh/arunika/device/internal/capture"
	"github.com/satriahrh/arunika/device/internal/config"
	"github.com/satriahrh/arunika/device/internal/telemetry"
	"github.com/satriahrh/arunika/device/internal/websocket"
	"github.com/satriahrh/arunika/device/usecase"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file")
	flag.Parse()

	godotenv.Load()

	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Telemetry with Prometheus bridge, scraped through the local API
	metrics, telemetryShutdown, err := telemetry.InitProvider(ctx, "arunika-device")
	if err != nil {
		logger.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetryShutdown(shutdownCtx); err != nil {
			logger.Warn("Telemetry shutdown failed", zap.Error(err))
		}
	}()

	// Audio source: synthetic tone, or the raw PCM stream handed off by the
	// I2S capture process. A failure here is fatal; there is nothing to
	// stream without a source.
	var source repositories.AudioSource
	switch cfg.Audio.Source {
	case "file":
		source, err = mic.NewRawFileSource(cfg.Audio.SourcePath, logger)
		if err != nil {
			logger.Fatal("Failed to open audio source", zap.Error(err))
		}
	default:
		source = mic.NewToneSource(cfg.Audio.SampleRate, cfg.Audio.ToneFrequency, 8000, logger)
	}
	defer source.Close()

	var indicator repositories.LevelIndicator
	if cfg.Feedback.Sink == "sysfs" {
		indicator = led.NewSysfsIndicator(cfg.Feedback.BrightnessPath, logger)
	} else {
		indicator = led.NewLogIndicator(logger)
	}

	// Device identity and auth
	deviceID := cfg.Device.ID
	if deviceID == "" {
		deviceID = uuid.New().String()
	}
	var token websocket.TokenFunc
	if cfg.Server.AuthEndpoint != "" {
		authClient := auth.NewClient(cfg.Server.AuthEndpoint, cfg.Device.SerialNumber, cfg.Device.SecretKey, logger)
		token = authClient.Token
	}

	state := capture.NewState()

	client := websocket.NewClient(cfg.Server.URL, deviceID, token, state, metrics, logger)
	client.SetReconnectInterval(cfg.Server.ReconnectInterval.Std())

	producer := capture.NewProducer(source, client, indicator, state, metrics, capture.Config{
		BlockSize:   cfg.Audio.BlockSize,
		SampleRate:  cfg.Audio.SampleRate,
		Gain:        cfg.Audio.Gain,
		SilencePeak: int16(cfg.Audio.SilencePeak),
		SilenceRMS:  cfg.Audio.SilenceRMS,
		ReadTimeout: cfg.Audio.ReadTimeout.Std(),
		Format:      capture.WireFormat(cfg.Audio.WireFormat),
	}, logger)

	service := usecase.NewStreamService(state, producer, client, logger)
	client.SetCommandHandler(service)

	if cfg.Audio.AutoEnable {
		state.SetEnabled(true)
		logger.Info("Capture auto-enabled")
	}

	// Local control API
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	api.InitRoutes(e, service, logger)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return client.Run(groupCtx)
	})
	group.Go(func() error {
		return producer.Run(groupCtx)
	})
	group.Go(func() error {
		if err := e.Start(fmt.Sprintf(":%d", cfg.API.Port)); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	logger.Info("Device agent started",
		zap.String("device_id", deviceID),
		zap.String("server", cfg.Server.URL),
		zap.Int("api_port", cfg.API.Port))

	if err := group.Wait(); err != nil && err != context.Canceled {
		logger.Error("Agent stopped", zap.Error(err))
	}

	logger.Info("Agent exited")
}
