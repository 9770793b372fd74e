package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
)

var (
	mode  = flag.String("mode", "sub", "pub or sub")
	addr  = flag.String("addr", "localhost:8080", "server host:port")
	topic = flag.String("topic", "default", "topic name")
	msg   = flag.String("msg", "", "payload for pub mode")
)

func main() {
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		switch *mode {
		case "pub":
			runPublish(*addr, *topic, *msg)
			cancel()
		case "sub":
			runSubscribe(ctx, *addr, *topic)
			cancel()
		default:
			log.Fatalf("unknown mode %q: use pub or sub", *mode)
		}
	}()

	select {
	case <-stop:
		log.Println("signal received, shutting down")
		cancel()
	case <-ctx.Done():
	}
	log.Println("client exiting")
}
