package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lemonberrylabs/kitty/pkg/api"
	grpcapi "github.com/lemonberrylabs/kitty/pkg/api/grpc"
	"github.com/lemonberrylabs/kitty/pkg/store"
	"github.com/lemonberrylabs/kitty/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the REST API, gRPC service and web UI",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "HTTP server port (default 8787, env PORT)")
	serveCmd.Flags().Int("grpc-port", 0, "gRPC server port (default 8788, env GRPC_PORT)")
	serveCmd.Flags().String("host", "", "Bind address (default 0.0.0.0, env HOST)")
	serveCmd.Flags().String("documents-dir", "", "Directory of *.kitty files to load as documents (env DOCUMENTS_DIR)")
	serveCmd.Flags().Bool("no-ui", false, "Do not serve the web UI")
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}

	if v, _ := cmd.Flags().GetInt("port"); v != 0 {
		cfg.Server.Port = v
	}
	if v, _ := cmd.Flags().GetInt("grpc-port"); v != 0 {
		cfg.Server.GRPCPort = v
	}
	if v, _ := cmd.Flags().GetString("host"); v != "" {
		cfg.Server.Host = v
	}
	if v, _ := cmd.Flags().GetBool("no-ui"); v {
		cfg.Server.DisableUI = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	documentsDir := os.Getenv("DOCUMENTS_DIR")
	if v, _ := cmd.Flags().GetString("documents-dir"); v != "" {
		documentsDir = v
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	grpcAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.GRPCPort)
	opts := cfg.ParserOptions()

	s := store.New()
	server := api.New(s, opts...)

	if documentsDir != "" {
		log.Printf("Loading documents from: %s", documentsDir)
		if _, err := server.LoadDir(documentsDir); err != nil {
			log.Printf("Warning: failed to load documents directory: %v", err)
		}
	}

	if !cfg.Server.DisableUI {
		ui, err := web.New(s, opts...)
		if err != nil {
			log.Printf("Warning: web UI disabled: %v", err)
		} else {
			ui.Register(server.App())
		}
	}

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
		log.Println("Shutting down kitty server...")
		grpcServer.GracefulStop()
		if err := server.ShutdownWithTimeout(cfg.Server.ShutdownTimeout.Duration); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	}()

	log.Printf("kitty %s listening on %s", version, addr)
	return server.Listen(addr)
}
