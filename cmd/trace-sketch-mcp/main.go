package main

import (
	"fmt"
	"os"

	"github.com/ironsheep/trace-sketch-mcp/internal/config"
	"github.com/ironsheep/trace-sketch-mcp/internal/logging"
	"github.com/ironsheep/trace-sketch-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("trace-sketch-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			fmt.Printf("  Engine:     %s\n", newEngine().Name())
			return
		case "--help", "-h", "help":
			fmt.Println("trace-sketch-mcp - MCP server that turns photos into tracing sheets")
			fmt.Println()
			fmt.Println("Usage: trace-sketch-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Printf("  %s=debug         Log level (trace, debug, info, warn, error)\n", config.EnvLogLevel)
			fmt.Printf("  %s=json         Log format (console or json)\n", config.EnvLogFormat)
			fmt.Printf("  %s=DIR          Where sketch_save writes sheets\n", config.EnvOutputDir)
			fmt.Printf("  %s=jpeg             Output encoding (jpeg or png)\n", config.EnvFormat)
			fmt.Printf("  %s=95         JPEG quality 1-100\n", config.EnvJPEGQuality)
			fmt.Printf("  %s=png,jpg     Accepted source extensions\n", config.EnvExtensions)
			fmt.Printf("  %s=4         Finished sheets kept in memory\n", config.EnvResultCache)
			fmt.Printf("  %s=2480x3508        Canvas size in pixels\n", config.EnvCanvas)
			fmt.Printf("  %s=#FFFFFF            Padding colour\n", config.EnvFill)
			fmt.Printf("  %s=29x21              Tracing grid rows x columns\n", config.EnvGrid)
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		}
	}

	cfg, err := config.Load(os.Getenv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(2)
	}

	// Logs go to stderr; stdout is for MCP protocol
	logger, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(2)
	}
	logger.Debug().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("commit", GitCommit).
		Msg("trace-sketch-mcp starting")

	srv := server.New(cfg, server.WithLogger(logger), server.WithEngine(newEngine()))
	if err := srv.Run(); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}
