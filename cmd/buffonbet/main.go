package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"BuffonBet/internal/api"
	"BuffonBet/internal/config"
	"BuffonBet/internal/needle"
	"BuffonBet/internal/notifier"
	"BuffonBet/internal/recorder"
	"BuffonBet/internal/scheduler"
	"BuffonBet/internal/session"

	"github.com/shopspring/decimal"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	defaultCfg := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultCfg = v
	}
	cfgPath := flag.String("config", defaultCfg, "path to the YAML config")
	envPath := flag.String("env", ".env", "path to an optional .env file")
	calibrate := flag.Int64("calibrate", 0, "drop N needles headless, print the estimate and exit")
	flag.Parse()

	log.Println("[INFO] BuffonBet starting...")

	if err := config.LoadDotEnv(*envPath); err != nil {
		log.Fatalf("[FATAL] %v", err)
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	src := needle.NewSystemSource()
	if cfg.Simulation.Seed != 0 {
		src = needle.NewSeededSource(cfg.Simulation.Seed)
		log.Printf("[INFO] seeded random source: %d", cfg.Simulation.Seed)
	}

	if *calibrate > 0 {
		runCalibration(os.Stdout, cfg, src, *calibrate)
		return
	}

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}
	defer rec.Close()

	sess := session.New(session.Config{
		NeedleLength:   cfg.Simulation.NeedleLength,
		LineSpacing:    cfg.Simulation.LineSpacing,
		FieldWidth:     cfg.Simulation.FieldWidth,
		HouseEdge:      cfg.Edge(),
		MaxOdds:        cfg.Betting.MaxOdds,
		TargetDigits:   cfg.Digits(),
		InitialBalance: decimal.NewFromFloat(cfg.Betting.InitialBalance),
		DisplayDelay:   cfg.Betting.ResultDisplayDelay,
	}, src, rec)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var out notifier.Notifier
	var tn *notifier.TelegramNotifier
	var cn *notifier.ConsoleNotifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		out = tn
	} else {
		cn = notifier.NewConsoleNotifier(os.Stdout)
		out = cn
	}

	sched := scheduler.NewScheduler(ctx, sess, out, rec, cfg.Simulation.BatchSize, cfg.Betting.DefaultTargetTrials)
	if err := sched.RegisterAll(cfg.Simulation.TickCron, cfg.Simulation.SnapshotCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	} else {
		go cn.ReadCommands(ctx, os.Stdin, sched.HandleCommand)
		log.Println("[INFO] reading commands from stdin, /help for the list")
	}

	var server *http.Server
	if cfg.HTTP.Address != "" {
		server = &http.Server{
			Addr:         cfg.HTTP.Address,
			Handler:      api.NewRouter(api.NewHandler(sess, sched, cfg.Betting.DefaultTargetTrials), nil),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		go func() {
			log.Printf("[INFO] HTTP API listening on %s", cfg.HTTP.Address)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("[ERROR] HTTP server: %v", err)
			}
		}()
	}

	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, dropping needles now")
		sched.Resume()
	}

	log.Println("[INFO] BuffonBet is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()

	if server != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("[ERROR] HTTP shutdown: %v", err)
		}
		shutdownCancel()
	}
	sched.Stop()

	if cfg.ReportFile != "" {
		if err := session.WriteReport(cfg.ReportFile, sess.Report()); err != nil {
			log.Printf("[ERROR] write session report: %v", err)
		} else {
			log.Printf("[INFO] session report written to %s", cfg.ReportFile)
		}
	}
	log.Println("[INFO] BuffonBet stopped")
}
