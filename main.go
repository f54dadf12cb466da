package main

import (
	"bufio"
	"context"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"ghostchat/config"
	"ghostchat/db"
	"ghostchat/server"

	"go.uber.org/zap"
)

const controlSocketPath = "/tmp/ghostchat.sock"

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	database, err := db.New(cfg.DBPath)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer database.Close()

	srvConfig := &server.Config{
		Port:          cfg.Port,
		WriteTimeout:  time.Duration(cfg.WriteTimeout) * time.Second,
		BotToken:      cfg.BotToken,
		WebAppURL:     cfg.WebAppURL,
		CORSOrigins:   cfg.CORSOrigins,
		DevAuthBypass: cfg.DevAuthBypass,
	}

	srv := server.New(database, srvConfig, logger)

	// Start control socket for management commands
	go startControlSocket(srv, logger)

	// Handle signals for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
		os.Remove(controlSocketPath)
		os.Exit(0)
	}()

	if err := srv.Start(); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func startControlSocket(srv *server.Server, logger *zap.Logger) {
	// Remove existing socket file
	os.Remove(controlSocketPath)

	listener, err := net.Listen("unix", controlSocketPath)
	if err != nil {
		logger.Error("failed to create control socket", zap.Error(err))
		return
	}
	defer listener.Close()
	defer os.Remove(controlSocketPath)

	logger.Info("control socket listening", zap.String("path", controlSocketPath))

	for {
		conn, err := listener.Accept()
		if err != nil {
			continue
		}

		go handleControlCommand(srv, conn, logger)
	}
}

func handleControlCommand(srv *server.Server, conn net.Conn, logger *zap.Logger) {
	defer conn.Close()

	reader := bufio.NewReader(conn)
	line, err := reader.ReadString('\n')
	if err != nil {
		return
	}

	line = strings.TrimSpace(line)
	parts := strings.SplitN(line, "|", 2)

	switch parts[0] {
	case "stats":
		conn.Write([]byte("OK|" + srv.GetStats() + "\n"))

	case "shutdown":
		reason := "maintenance"
		if len(parts) >= 2 && parts[1] != "" {
			reason = parts[1]
		}

		conn.Write([]byte("OK|Shutting down\n"))
		conn.Close()

		logger.Info("shutdown requested", zap.String("reason", reason))
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)

		os.Remove(controlSocketPath)
		os.Exit(0)

	default:
		conn.Write([]byte("ERROR|Unknown command\n"))
	}
}
