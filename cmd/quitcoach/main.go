package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/gmsas95/quitcoach/internal/app"
	"github.com/gmsas95/quitcoach/internal/config"
)

var (
	configPath = flag.String("config", "", "Path to config file")
	dataDir    = flag.String("data", "", "Path to data directory")
	serverMode = flag.Bool("server", false, "Run the API server and background jobs")
	version    = "dev"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "serve":
			parseFlags(os.Args[2:])
			application := initApp()
			defer application.Close()
			if err := application.RunServer(); err != nil {
				application.Logger.Fatal("Server exited", zap.Error(err))
			}
			return
		case "decide":
			runOneShot(os.Args[2:], func(a *app.App) error { return a.DecideOnce() })
			return
		case "analyze":
			runOneShot(os.Args[2:], func(a *app.App) error { return a.AnalyzeOnce() })
			return
		case "log":
			handleLogCommand(os.Args[2:])
			return
		case "status":
			runOneShot(os.Args[2:], func(a *app.App) error { return a.PrintStatus() })
			return
		case "help", "--help", "-h":
			printHelp()
			return
		case "version", "--version", "-v":
			fmt.Printf("Quitcoach version %s\n", version)
			return
		}
	}

	flag.Parse()

	if *serverMode {
		application := initApp()
		defer application.Close()
		if err := application.RunServer(); err != nil {
			application.Logger.Fatal("Server exited", zap.Error(err))
		}
		return
	}

	printHelp()
}

func handleLogCommand(args []string) {
	fs := flag.NewFlagSet("log", flag.ExitOnError)
	tags := fs.String("tags", "", "Comma-separated tags for the event (e.g. stress,coffee)")
	cfgPath := fs.String("config", "", "Path to config file")
	data := fs.String("data", "", "Path to data directory")
	fs.Parse(args)

	*configPath = *cfgPath
	*dataDir = *data

	var tagNames []string
	for _, t := range strings.Split(*tags, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			tagNames = append(tagNames, t)
		}
	}

	application := initApp()
	defer application.Close()
	if err := application.LogEvent(tagNames); err != nil {
		application.Logger.Fatal("Failed to log event", zap.Error(err))
	}
}

func runOneShot(args []string, fn func(*app.App) error) {
	parseFlags(args)
	application := initApp()
	defer application.Close()
	if err := fn(application); err != nil {
		application.Logger.Fatal("Command failed", zap.Error(err))
	}
}

func parseFlags(args []string) {
	flag.CommandLine.Parse(args)
}

func initApp() *app.App {
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	logger.Info("Starting Quitcoach",
		zap.String("version", version),
	)

	cfg, err := config.Load(*configPath, *dataDir)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	application, err := app.New(cfg, logger, version)
	if err != nil {
		logger.Fatal("Failed to initialize app", zap.Error(err))
	}
	return application
}

func printHelp() {
	fmt.Println(`Quitcoach - adaptive smoking cessation coach

Usage:
  quitcoach serve              Run the API server and background jobs
  quitcoach decide             Run one decision cycle now
  quitcoach analyze            Run pattern analysis now
  quitcoach log [--tags a,b]   Record a smoking event
  quitcoach status             Show current features and nudge counters
  quitcoach version            Show version

Flags:
  -config <path>   Path to config file
  -data <path>     Path to data directory`)
}
