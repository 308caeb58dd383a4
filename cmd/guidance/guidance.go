package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fieldworks-ag/guidance/internal/api"
	"github.com/fieldworks-ag/guidance/internal/boom"
	"github.com/fieldworks-ag/guidance/internal/camera"
	"github.com/fieldworks-ag/guidance/internal/config"
	"github.com/fieldworks-ag/guidance/internal/db"
	"github.com/fieldworks-ag/guidance/internal/geo"
	"github.com/fieldworks-ag/guidance/internal/guidance"
	"github.com/fieldworks-ag/guidance/internal/serialmux"
	"github.com/fieldworks-ag/guidance/internal/terrain"
	"github.com/fieldworks-ag/guidance/internal/timeutil"
)

var (
	devMode    = flag.Bool("dev", false, "Run with mock sensor feeds instead of serial hardware")
	listen     = flag.String("listen", ":8080", "Listen address")
	dbFile     = flag.String("db", "guidance_telemetry.db", "Telemetry database path")
	configPath = flag.String("config", config.DefaultConfigPath, "Tuning configuration file")
	gridFile   = flag.String("grid", "", "Elevation grid JSON to load at startup (optional)")
	gpsPort    = flag.String("gps-port", "", "GPS serial port (overrides config)")
	boomPort   = flag.String("boom-port", "", "Boom node serial port (overrides config)")
)

// Dev-mode replay lines, one steady fix plus level boom readings.
const devFixLine = "$FIX,-27.4975000,152.9780000,58.2,14.5,90.0,15,0.02,1\n"
const devBoomLine = "$BOOM,50.0,50.0,50.0,0.0,0.0\n$GND,50.0,50.0,50.0\n$HYD,50.0,50.0,50.0\n"

// ticksPerSecond is the camera animation rate.
const ticksPerSecond = 60

func openMux(devLine, path string, opts serialmux.PortOptions) (serialmux.SerialMuxInterface, error) {
	if *devMode {
		return serialmux.NewMockSerialMux([]byte(devLine)), nil
	}
	return serialmux.NewRealSerialMux(path, opts)
}

func main() {
	flag.Parse()

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	tuning, err := config.LoadTuningConfig(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && *configPath == config.DefaultConfigPath {
			log.Printf("no tuning config at %s, using defaults", *configPath)
			tuning = config.EmptyTuningConfig()
		} else {
			log.Fatalf("failed to load tuning config: %v", err)
		}
	}

	gpsPath := tuning.GetGPSPort()
	if *gpsPort != "" {
		gpsPath = *gpsPort
	}
	boomPath := tuning.GetBoomPort()
	if *boomPort != "" {
		boomPath = *boomPort
	}
	portOpts := serialmux.PortOptions{BaudRate: tuning.GetBaudRate()}

	gpsMux, err := openMux(devFixLine, gpsPath, portOpts)
	if err != nil {
		log.Fatalf("failed to open GPS port %s: %v", gpsPath, err)
	}
	defer gpsMux.Close()

	boomMux, err := openMux(devBoomLine, boomPath, portOpts)
	if err != nil {
		log.Fatalf("failed to open boom port %s: %v", boomPath, err)
	}
	defer boomMux.Close()

	for name, m := range map[string]serialmux.SerialMuxInterface{"gps": gpsMux, "boom": boomMux} {
		if err := m.Initialize(); err != nil {
			log.Fatalf("failed to initialize %s node: %v", name, err)
		}
		log.Printf("initialized %s node", name)
	}

	telemetry, err := db.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer telemetry.Close()

	sessionID, err := telemetry.BeginSession(time.Now())
	if err != nil {
		log.Fatalf("Failed to begin telemetry session: %v", err)
	}
	log.Printf("telemetry session %s", sessionID)

	// Assemble the guidance core from the tuning config.
	controller := boom.NewController(boom.Config{
		TargetMinCm:       tuning.GetBoomTargetMinCm(),
		TargetMaxCm:       tuning.GetBoomTargetMaxCm(),
		GroundDistMinCm:   tuning.GetBoomGroundDistMinCm(),
		GroundDistMaxCm:   tuning.GetBoomGroundDistMaxCm(),
		WingAngleLimitDeg: tuning.GetBoomWingAngleLimitDeg(),
		StaleTimeout:      tuning.GetBoomStaleTimeout(),
	}, timeutil.RealClock{})

	cam := camera.New()
	cam.SetDynamics(tuning.GetCameraFollowDamping(), tuning.GetCameraTransitionSpeed())

	surface := terrain.NewSurface()
	if *gridFile != "" {
		grid, err := terrain.LoadGridFile(*gridFile)
		if err != nil {
			log.Fatalf("failed to load elevation grid: %v", err)
		}
		if err := surface.LoadGrid(grid); err != nil {
			log.Fatalf("failed to load elevation grid: %v", err)
		}
		log.Printf("elevation grid %dx%d, %.1f..%.1f m", grid.Width, grid.Height, grid.MinElevation, grid.MaxElevation)
	}

	svc := guidance.NewService(geo.NewFrame(), surface, controller, cam, guidance.Options{
		MinSatellites:     tuning.GetGPSMinSatellites(),
		MaxHorizontalAccM: tuning.GetGPSMaxHorizontalAccM(),
		Recorder:          telemetry,
		SessionID:         sessionID,
	})

	// Create a wait group for the HTTP server, serial monitors, and line
	// handler routines
	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// run a monitor routine per serial port to manage IO
	for name, m := range map[string]serialmux.SerialMuxInterface{"gps": gpsMux, "boom": boomMux} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := m.Monitor(ctx); err != nil && err != context.Canceled {
				log.Printf("failed to monitor %s port: %v", name, err)
			}
			log.Printf("%s monitor routine terminated", name)
		}()

		// subscribe to the port's lines and pass them to the service
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, c := m.Subscribe()
			defer m.Unsubscribe(id)
			for {
				select {
				case line := <-c:
					if err := svc.HandleLine(line, time.Now()); err != nil {
						log.Printf("error handling %s line: %v", name, err)
					}
				case <-ctx.Done():
					log.Printf("%s subscribe routine terminated", name)
					return
				}
			}
		}()
	}

	// camera animation ticker
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(time.Second / ticksPerSecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				svc.Tick(1.0 / ticksPerSecond)
			case <-ctx.Done():
				log.Print("tick routine terminated")
				return
			}
		}
	}()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := api.NewServer(svc).ServeMux()

		server := &http.Server{
			Addr:    *listen,
			Handler: api.LogRequests(mux),
		}

		// Start server in a goroutine so it doesn't block
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		// Wait for context cancellation to shut down server
		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}

		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
