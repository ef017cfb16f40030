package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"

	"gulog/api/grpcserver"
	"gulog/config"
	"gulog/infra/kafka"
	"gulog/jobs/broadcaster"
	"gulog/service"
	"gulog/wal"
)

func main() {
	cfg := config.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// ---------------- Store ----------------

	store, closeStore, err := config.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatalf("store init failed: %v", err)
	}
	defer closeStore()

	// ---------------- WAL ----------------

	w, err := wal.New(wal.Config{Store: store})
	if err != nil {
		log.Fatalf("WAL init failed: %v", err)
	}

	// ---------------- Recovery ----------------

	last, err := w.LastRecord(ctx)
	if err != nil {
		log.Fatalf("WAL recovery failed: %v", err)
	}
	if last == nil {
		log.Printf("[wal] recovered empty log (backend=%s)", cfg.Backend)
	} else {
		log.Printf("[wal] recovered watermark %s (backend=%s)", last.ID, cfg.Backend)
	}

	// ---------------- Events ----------------

	var events service.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		publisher := kafka.NewPublisher(cfg.KafkaBrokers, cfg.AppendTopic)
		defer publisher.Close()
		events = publisher
	}

	svc := service.NewLogService(w, events)

	// ---------------- Background Jobs ----------------

	if len(cfg.KafkaBrokers) > 0 {
		bc, err := broadcaster.New(svc, cfg.KafkaBrokers, cfg.WatermarkTopic, cfg.WatermarkInterval)
		if err != nil {
			log.Fatalf("broadcaster init failed: %v", err)
		}
		defer bc.Close()
		bc.Start(ctx)
	}

	// ---------------- gRPC ----------------

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatalf("listen failed: %v", err)
	}

	grpcSrv := grpc.NewServer(grpcserver.ServerOptions(cfg.GRPCMaxMsgBytes)...)
	grpcserver.Register(grpcSrv, grpcserver.NewServer(svc))

	go func() {
		<-ctx.Done()
		grpcSrv.GracefulStop()
	}()

	log.Printf("gulog WAL running on %s", cfg.GRPCAddr)

	if err := grpcSrv.Serve(lis); err != nil {
		log.Fatalf("gRPC server exited: %v", err)
	}
}
