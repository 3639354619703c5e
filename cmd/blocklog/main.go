package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	clientcmd "github.com/rzbill/blocklog/internal/cmd/client"
	transports "github.com/rzbill/blocklog/internal/cmd/client/transports"
	serverrun "github.com/rzbill/blocklog/internal/cmd/server"
	cfgpkg "github.com/rzbill/blocklog/internal/config"
	"github.com/rzbill/blocklog/internal/runtime"
	pebblestore "github.com/rzbill/blocklog/internal/storage/pebble"
	logpkg "github.com/rzbill/blocklog/pkg/log"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "blocklog",
		Short:         "blocklog cursor store and delta buffer tools",
		Long:          "blocklog keeps named log cursors with compare-and-swap updates and plans how delta buffers split into columnar blocks.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("config", os.Getenv("BLOCKLOG_CONFIG"), "Config file (.json, .yaml or .yml)")
	rootCmd.PersistentFlags().String("data-dir", "", "Data directory (if not specified, uses OS-specific application data directory)")
	rootCmd.PersistentFlags().String("addr", clientcmd.GRPCAddrFromEnv(), "gRPC address of a running server; empty works on --data-dir directly")

	// server start
	serverCmd := &cobra.Command{Use: "server", Short: "Server commands"}
	serverStartCmd := &cobra.Command{
		Use:     "start",
		Short:   "Start blocklog server (gRPC and HTTP)",
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			dataDir, _ := cmd.Flags().GetString("data-dir")
			grpcAddr, _ := cmd.Flags().GetString("grpc")
			httpAddr, _ := cmd.Flags().GetString("http")
			fsyncMode, _ := cmd.Flags().GetString("fsync")
			fsyncIntervalMs, _ := cmd.Flags().GetInt("fsync-interval-ms")
			if cmd.Flags().Changed("log-level") {
				cfg.Log.Level, _ = cmd.Flags().GetString("log-level")
			}
			if cmd.Flags().Changed("log-format") {
				cfg.Log.Format, _ = cmd.Flags().GetString("log-format")
			}

			mode, err := pebblestore.ParseFsyncMode(fsyncMode)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			if err := serverrun.Run(ctx, serverrun.Options{
				DataDir:       dataDir,
				GRPCAddr:      grpcAddr,
				HTTPAddr:      httpAddr,
				Fsync:         mode,
				FsyncInterval: time.Duration(fsyncIntervalMs) * time.Millisecond,
				Config:        cfg,
			}); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		},
	}
	serverStartCmd.Flags().String("grpc", ":50051", "gRPC listen address")
	serverStartCmd.Flags().String("http", ":8080", "HTTP listen address")
	serverStartCmd.Flags().String("fsync", "always", "Fsync mode: always|interval|never")
	serverStartCmd.Flags().Int("fsync-interval-ms", 5, "When --fsync=interval, group-commit window in ms (default 5)")
	serverStartCmd.Flags().String("log-level", "", "Log level: debug|info|warn|error")
	serverStartCmd.Flags().String("log-format", "", "Log format: text|json (default text)")
	serverCmd.AddCommand(serverStartCmd)
	rootCmd.AddCommand(serverCmd)

	rootCmd.AddCommand(clientcmd.NewCursorCommand(openTransport))
	rootCmd.AddCommand(clientcmd.NewBlockCommand(func() (string, int) {
		cfg, err := loadConfig(rootCmd)
		if err != nil {
			d := cfgpkg.Default()
			return d.KeyKind, d.BlockMaxBytes
		}
		return cfg.KeyKind, cfg.BlockMaxBytes
	}))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig reads --config, overlays BLOCKLOG_* and validates the result.
func loadConfig(cmd *cobra.Command) (cfgpkg.Config, error) {
	path, _ := cmd.Root().PersistentFlags().GetString("config")
	cfg, err := cfgpkg.Load(path)
	if err != nil {
		return cfgpkg.Config{}, err
	}
	cfgpkg.FromEnv(&cfg)
	return cfg, cfg.Validate()
}

// openTransport talks to --addr when set, otherwise opens the local store.
func openTransport(cmd *cobra.Command) (transports.CursorsTransport, error) {
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		return clientcmd.DialGRPC(addr)
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := logpkg.ApplyConfig(&cfg.Log)
	if err != nil {
		return nil, err
	}
	logpkg.RedirectStdLog(logger)

	dataDir, _ := cmd.Flags().GetString("data-dir")
	if dataDir == "" {
		dataDir = cfgpkg.DefaultDataDir()
	}
	rt, err := runtime.Open(runtime.Options{
		DataDir: filepath.Join(dataDir, "store"),
		Fsync:   pebblestore.FsyncModeAlways,
		Config:  cfg,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}
	return transports.NewLocalTransport(rt.CursorStore(), rt.Close), nil
}
