package hooks

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSObserver republishes hook events onto a NATS subject tree so
// external monitors can follow plan execution. Publishing is fire and
// forget; a slow or absent broker never blocks the interpreter.
type NATSObserver struct {
	conn   *nats.Conn
	prefix string
}

var _ Observer = (*NATSObserver)(nil)

// NATSConfig holds NATS connection configuration for the hook mirror.
type NATSConfig struct {
	// URL is the NATS server URL (e.g., "nats://localhost:4222").
	URL string

	// Name is the client name for identification.
	Name string

	// SubjectPrefix is prepended to every event subject.
	// Default: "plankit.hooks"
	SubjectPrefix string

	// ReconnectWait is the time to wait between reconnection attempts.
	ReconnectWait time.Duration

	// MaxReconnects is the maximum number of reconnection attempts.
	// -1 = unlimited
	MaxReconnects int

	// ConnectTimeout for initial connection.
	ConnectTimeout time.Duration
}

// DefaultNATSConfig returns configuration with sensible defaults.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:            nats.DefaultURL,
		SubjectPrefix:  "plankit.hooks",
		ReconnectWait:  2 * time.Second,
		MaxReconnects:  -1,
		ConnectTimeout: 5 * time.Second,
	}
}

// NewNATSObserver connects to NATS and returns a publishing observer.
func NewNATSObserver(cfg NATSConfig) (*NATSObserver, error) {
	if cfg.URL == "" {
		cfg.URL = nats.DefaultURL
	}
	if cfg.SubjectPrefix == "" {
		cfg.SubjectPrefix = "plankit.hooks"
	}

	opts := []nats.Option{
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.Timeout(cfg.ConnectTimeout),
	}
	if cfg.Name != "" {
		opts = append(opts, nats.Name(cfg.Name))
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &NATSObserver{conn: conn, prefix: cfg.SubjectPrefix}, nil
}

// NewNATSObserverFromConn wraps an existing connection.
func NewNATSObserverFromConn(conn *nats.Conn, subjectPrefix string) *NATSObserver {
	if subjectPrefix == "" {
		subjectPrefix = "plankit.hooks"
	}
	return &NATSObserver{conn: conn, prefix: subjectPrefix}
}

// Close shuts down the underlying connection.
func (o *NATSObserver) Close() error {
	o.conn.Close()
	return nil
}

// wireEvent is the published JSON shape.
type wireEvent struct {
	Event       string    `json:"event"`
	ScopeID     string    `json:"scope_id,omitempty"`
	Datum       string    `json:"datum,omitempty"`
	ClauseKinds []string  `json:"clause_kinds,omitempty"`
	TopLevel    string    `json:"top_level,omitempty"`
	Time        time.Time `json:"time"`
}

func (o *NATSObserver) publish(subject string, e wireEvent) {
	if o.conn.IsClosed() {
		return
	}
	e.Time = time.Now().UTC()
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	// Best effort: publish errors are dropped.
	_ = o.conn.Publish(o.prefix+"."+subject, data)
}

func (o *NATSObserver) OnFail(datum any) {
	o.publish("fail", wireEvent{Event: "fail", Datum: fmt.Sprint(datum)})
}

func (o *NATSObserver) OnScopeBegin(scopeID string, clauseKinds []string) {
	o.publish("scope.begin", wireEvent{Event: "scope.begin", ScopeID: scopeID, ClauseKinds: clauseKinds})
}

func (o *NATSObserver) OnScopeEnd(scopeID string) {
	o.publish("scope.end", wireEvent{Event: "scope.end", ScopeID: scopeID})
}

func (o *NATSObserver) OnScopeHandled(scopeID string) {
	o.publish("scope.handled", wireEvent{Event: "scope.handled", ScopeID: scopeID})
}

func (o *NATSObserver) OnScopeRethrown(scopeID string) {
	o.publish("scope.rethrown", wireEvent{Event: "scope.rethrown", ScopeID: scopeID})
}

func (o *NATSObserver) OnTopLevelDefined(name string) {
	o.publish("toplevel.defined", wireEvent{Event: "toplevel.defined", TopLevel: name})
}
