package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/ticketscout/internal/logger"
	"github.com/mark3labs/ticketscout/internal/ticket"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/xid"
)

// StreamName is the JetStream stream holding all investigation events.
const StreamName = "ticketscout_events"

// Event types published under ticketscout.{run}.{type}.
const (
	EventTypeVisit   = "visit"
	EventTypeNotice  = "notice"
	EventTypeControl = "control"
)

// SubjectForRun returns the wildcard subject pattern for all events in a
// run. Example: "ticketscout.proj-1234.>"
func SubjectForRun(run string) string {
	return fmt.Sprintf("ticketscout.%s.>", run)
}

// SubjectForEvent returns the specific subject for an event type in a
// run. Example: "ticketscout.proj-1234.visit"
func SubjectForEvent(run, eventType string) string {
	return fmt.Sprintf("ticketscout.%s.%s", run, eventType)
}

// Event is one record in the append-only investigation log.
type Event struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Run       string          `json:"run"`
	Type      string          `json:"type"`   // visit, notice, control
	Action    string          `json:"action"` // add, start, complete
	Meta      json.RawMessage `json:"meta"`
	Data      string          `json:"data"`
}

// Store publishes investigation events and rebuilds run state from the
// event log.
type Store struct {
	js     jetstream.JetStream
	stream jetstream.Stream
}

// NewStore creates a Store over an existing JetStream context and stream.
func NewStore(js jetstream.JetStream, stream jetstream.Stream) *Store {
	return &Store{js: js, stream: stream}
}

// PublishEvent appends an event to the log.
func (s *Store) PublishEvent(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.ID == "" {
		event.ID = xid.New().String()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	subject := SubjectForEvent(event.Run, event.Type)
	logger.Debug("Publishing event: run=%s type=%s action=%s", event.Run, event.Type, event.Action)

	if _, err := s.js.Publish(ctx, subject, data); err != nil {
		logger.Error("Failed to publish event to subject %s: %v", subject, err)
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// RunStart records the beginning of an investigation run. Replaying a
// start event resets any state from an earlier run under the same name.
func (s *Store) RunStart(ctx context.Context, run, root string, maxDepth int) error {
	meta, _ := json.Marshal(map[string]any{"max_depth": maxDepth})
	return s.PublishEvent(ctx, Event{
		Run:    run,
		Type:   EventTypeControl,
		Action: "start",
		Data:   root,
		Meta:   meta,
	})
}

// RunComplete marks a run as finished.
func (s *Store) RunComplete(ctx context.Context, run string) error {
	return s.PublishEvent(ctx, Event{
		Run:    run,
		Type:   EventTypeControl,
		Action: "complete",
	})
}

// RecordVisit appends a visit record for one processed ticket.
func (s *Store) RecordVisit(ctx context.Context, run string, v ticket.Visit) error {
	meta, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal visit: %w", err)
	}
	return s.PublishEvent(ctx, Event{
		Run:    run,
		Type:   EventTypeVisit,
		Action: "add",
		Data:   v.Key,
		Meta:   meta,
	})
}

// RecordNotice appends a traversal notice.
func (s *Store) RecordNotice(ctx context.Context, run string, n ticket.Notice) error {
	meta, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notice: %w", err)
	}
	return s.PublishEvent(ctx, Event{
		Run:    run,
		Type:   EventTypeNotice,
		Action: "add",
		Data:   n.Message,
		Meta:   meta,
	})
}

// State is the reconstructed state of one investigation run.
type State struct {
	Run      string          `json:"run"`
	Root     string          `json:"root"`
	MaxDepth int             `json:"max_depth"`
	Visits   []ticket.Visit  `json:"visits"` // in traversal order
	Notices  []ticket.Notice `json:"notices"`
	Complete bool            `json:"complete"`
}

// Apply reduces one event into the state.
func (st *State) Apply(event Event) {
	switch event.Type {
	case EventTypeControl:
		switch event.Action {
		case "start":
			// A restarted run supersedes earlier events under this name.
			st.Root = event.Data
			st.Visits = nil
			st.Notices = nil
			st.Complete = false
			var meta struct {
				MaxDepth int `json:"max_depth"`
			}
			_ = json.Unmarshal(event.Meta, &meta)
			st.MaxDepth = meta.MaxDepth
		case "complete":
			st.Complete = true
		}
	case EventTypeVisit:
		var v ticket.Visit
		if err := json.Unmarshal(event.Meta, &v); err != nil {
			logger.Warn("Skipping malformed visit event %s: %v", event.ID, err)
			return
		}
		st.Visits = append(st.Visits, v)
	case EventTypeNotice:
		var n ticket.Notice
		if err := json.Unmarshal(event.Meta, &n); err != nil {
			logger.Warn("Skipping malformed notice event %s: %v", event.ID, err)
			return
		}
		st.Notices = append(st.Notices, n)
	}
}

// RunInfo summarizes one recorded run for listings.
type RunInfo struct {
	Run      string    `json:"run"`
	Root     string    `json:"root"`
	Started  time.Time `json:"started"`
	Complete bool      `json:"complete"`
}

// ListRuns returns every run that has a start event in the log, ordered
// by first appearance.
func (s *Store) ListRuns(ctx context.Context) ([]RunInfo, error) {
	consumer, err := s.stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		FilterSubject: "ticketscout.>",
		DeliverPolicy: jetstream.DeliverAllPolicy,
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	runs := []RunInfo{}
	index := make(map[string]int)

	const batchSize = 1000
	for {
		msgs, err := consumer.FetchNoWait(batchSize)
		if err != nil {
			break
		}

		count := 0
		for msg := range msgs.Messages() {
			count++

			var event Event
			if err := json.Unmarshal(msg.Data(), &event); err != nil {
				_ = msg.Ack()
				continue
			}
			if event.Type == EventTypeControl {
				switch event.Action {
				case "start":
					if i, ok := index[event.Run]; ok {
						runs[i] = RunInfo{Run: event.Run, Root: event.Data, Started: event.Timestamp}
					} else {
						index[event.Run] = len(runs)
						runs = append(runs, RunInfo{Run: event.Run, Root: event.Data, Started: event.Timestamp})
					}
				case "complete":
					if i, ok := index[event.Run]; ok {
						runs[i].Complete = true
					}
				}
			}
			_ = msg.Ack()
		}

		if count < batchSize {
			break
		}
	}

	return runs, nil
}

// LoadState rebuilds the state of a run by reading and reducing its
// events from the beginning of the log.
func (s *Store) LoadState(ctx context.Context, run string) (*State, error) {
	logger.Debug("Loading state for run: %s", run)

	consumer, err := s.stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		FilterSubject: SubjectForRun(run),
		DeliverPolicy: jetstream.DeliverAllPolicy,
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	state := &State{Run: run}

	const batchSize = 1000
	total := 0
	for {
		msgs, err := consumer.FetchNoWait(batchSize)
		if err != nil {
			break
		}

		count := 0
		for msg := range msgs.Messages() {
			count++
			total++

			var event Event
			if err := json.Unmarshal(msg.Data(), &event); err != nil {
				logger.Warn("Skipping malformed event: %v", err)
				_ = msg.Ack()
				continue
			}
			state.Apply(event)
			_ = msg.Ack()
		}

		if count < batchSize {
			break
		}
	}

	logger.Debug("Loaded %d events for run %s (%d visits)", total, run, len(state.Visits))
	return state, nil
}
