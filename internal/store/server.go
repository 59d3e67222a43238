// Package store persists investigation runs as an append-only event log
// on an embedded NATS JetStream server. State is rebuilt by reducing the
// log, which makes completed runs replayable without re-fetching.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/mark3labs/ticketscout/internal/logger"
	natsserver "github.com/nats-io/nats-server/v2/server"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Server bundles the embedded NATS server, its in-process connection,
// and the investigation event stream.
type Server struct {
	ns     *natsserver.Server
	nc     *natsgo.Conn
	js     jetstream.JetStream
	stream jetstream.Stream
}

// Open starts an embedded NATS server with JetStream file storage under
// dataDir, connects in-process, and ensures the event stream exists.
// The server listens on no network ports.
func Open(ctx context.Context, dataDir string) (*Server, error) {
	logger.Debug("Starting embedded NATS server with data dir: %s", dataDir)

	opts := &natsserver.Options{
		JetStream:  true,
		StoreDir:   dataDir,
		DontListen: true,
	}

	ns, err := natsserver.NewServer(opts)
	if err != nil {
		logger.Error("Failed to create NATS server: %v", err)
		return nil, err
	}

	go ns.Start()

	if !ns.ReadyForConnections(4 * time.Second) {
		logger.Error("NATS server failed to start within 4s timeout")
		return nil, errors.New("nats server failed to start within timeout")
	}

	nc, err := natsgo.Connect("", natsgo.InProcessServer(ns))
	if err != nil {
		ns.Shutdown()
		logger.Error("Failed to connect to NATS in-process: %v", err)
		return nil, err
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		ns.Shutdown()
		return nil, err
	}

	stream, err := setupStream(ctx, js)
	if err != nil {
		nc.Close()
		ns.Shutdown()
		logger.Error("Failed to setup event stream: %v", err)
		return nil, err
	}

	logger.Debug("Embedded NATS ready")
	return &Server{ns: ns, nc: nc, js: js, stream: stream}, nil
}

// Store returns an event store backed by this server.
func (s *Server) Store() *Store {
	return NewStore(s.js, s.stream)
}

// Close drains the connection and shuts down the embedded server, with
// timeouts so a wedged server cannot hang the process forever.
func (s *Server) Close() error {
	logger.Debug("Starting NATS shutdown")

	if s.nc != nil {
		drainDone := make(chan error, 1)
		go func() {
			drainDone <- s.nc.Drain()
		}()

		select {
		case err := <-drainDone:
			if err != nil {
				logger.Warn("NATS drain failed, forcing close: %v", err)
				s.nc.Close()
			}
		case <-time.After(2 * time.Second):
			logger.Warn("NATS drain timed out after 2s, forcing close")
			s.nc.Close()
		}
		s.nc = nil
	}

	if s.ns != nil {
		s.ns.Shutdown()

		shutdownDone := make(chan struct{})
		go func() {
			s.ns.WaitForShutdown()
			close(shutdownDone)
		}()

		select {
		case <-shutdownDone:
			logger.Debug("NATS server shut down cleanly")
		case <-time.After(5 * time.Second):
			logger.Error("NATS server shutdown timed out after 5s")
			return errors.New("NATS server shutdown timed out")
		}
		s.ns = nil
	}

	return nil
}

func setupStream(ctx context.Context, js jetstream.JetStream) (jetstream.Stream, error) {
	return js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     StreamName,
		Subjects: []string{"ticketscout.>"},
		Storage:  jetstream.FileStorage,
		MaxAge:   30 * 24 * time.Hour,
	})
}
