package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/lemonberrylabs/golox/pkg/api"
	grpcapi "github.com/lemonberrylabs/golox/pkg/api/grpc"
	"github.com/lemonberrylabs/golox/pkg/store"
	"github.com/lemonberrylabs/golox/web"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the REST API, gRPC service and web playground",
		Args:  cobra.NoArgs,
		RunE:  serve,
	}

	cmd.Flags().Int("port", 0, "HTTP server port (default 8787, env PORT)")
	cmd.Flags().Int("grpc-port", 0, "gRPC server port (default 8788, env GRPC_PORT)")
	cmd.Flags().String("host", "", "Bind address (default 0.0.0.0, env HOST)")
	cmd.Flags().String("scripts-dir", "", "Directory of .lox files to load as programs (env SCRIPTS_DIR)")
	return cmd
}

func serve(cmd *cobra.Command, args []string) error {
	port := envOrDefault("PORT", "8787")
	if v, _ := cmd.Flags().GetInt("port"); v != 0 {
		port = fmt.Sprintf("%d", v)
	}

	grpcPort := envOrDefault("GRPC_PORT", "8788")
	if v, _ := cmd.Flags().GetInt("grpc-port"); v != 0 {
		grpcPort = fmt.Sprintf("%d", v)
	}

	host := envOrDefault("HOST", "0.0.0.0")
	if v, _ := cmd.Flags().GetString("host"); v != "" {
		host = v
	}

	scriptsDir := os.Getenv("SCRIPTS_DIR")
	if v, _ := cmd.Flags().GetString("scripts-dir"); v != "" {
		scriptsDir = v
	}

	addr := fmt.Sprintf("%s:%s", host, port)
	grpcAddr := fmt.Sprintf("%s:%s", host, grpcPort)

	opts := sessionOptions(cmd)
	s := store.New()
	server := api.New(s, opts...)

	if scriptsDir != "" {
		log.Printf("Loading scripts directory: %s", scriptsDir)
		if err := server.LoadDir(scriptsDir); err != nil {
			log.Printf("Warning: failed to load scripts directory: %v", err)
		}
	}

	// Register the web UI (non-fatal if template parsing fails)
	func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Warning: web UI disabled due to template error: %v", r)
			}
		}()
		ui := web.New(s, opts...)
		ui.Register(server.App())
	}()

	grpcServer := grpcapi.New(s, opts...)
	go func() {
		log.Printf("gRPC server listening on %s", grpcAddr)
		if err := grpcServer.Serve(grpcAddr); err != nil {
			log.Fatalf("gRPC server error: %v", err)
		}
	}()

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down...")
		grpcServer.GracefulStop()
		if err := server.Shutdown(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	}()

	log.Printf("lox server listening on %s", addr)
	return server.Listen(addr)
}
