package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// TLSConfig holds paths to the PEM files needed for mTLS.
// When nil or all paths empty, connections fall back to plain TCP.
type TLSConfig struct {
	CACert   string `json:"ca_cert"`   // CA certificate PEM path
	NodeCert string `json:"node_cert"` // node certificate PEM path
	NodeKey  string `json:"node_key"`  // node private key PEM path
}

// PeerConfig describes one remote peer a Manager should hold a
// connection to.
type PeerConfig struct {
	ResponderID string `json:"responder_id"` // opaque peer identifier
	URI         string `json:"uri"`          // scheme://host:port
}

// RetryConfig describes the retry schedule retryable connection calls
// use on transient errors.
type RetryConfig struct {
	Kind       string        `json:"kind"`                 // "fixed" or "exponential"
	Initial    time.Duration `json:"initial"`               // first delay
	Max        time.Duration `json:"max,omitempty"`         // exponential cap; 0 → uncapped
	Multiplier float64       `json:"multiplier,omitempty"`  // exponential growth factor
	Count      int           `json:"count,omitempty"`       // fixed: number of retries; 0 → 1
}

// ManagerConfig is the JSON-loadable configuration for a connection
// Manager: the peer list it is constructed from plus the retry schedule
// its retryable calls use.
type ManagerConfig struct {
	IdentityPath string       `json:"identity_path"` // encrypted node identity keystore
	ListenAddr   string       `json:"listen_addr,omitempty"`
	Peers        []PeerConfig `json:"peers"`
	Retry        RetryConfig  `json:"retry"`
	TLS          *TLSConfig   `json:"tls,omitempty"` // nil → plain TCP
}

// DefaultManagerConfig returns a development configuration with no peers
// and a short fixed retry schedule.
func DefaultManagerConfig() *ManagerConfig {
	return &ManagerConfig{
		IdentityPath: "./identity.json",
		ListenAddr:   ":31300",
		Retry: RetryConfig{
			Kind:    "fixed",
			Initial: 500 * time.Millisecond,
			Count:   3,
		},
	}
}

// Load reads a JSON config file from path and validates required fields.
func Load(path string) (*ManagerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultManagerConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// Validate checks that all required fields are present and well-formed.
func (c *ManagerConfig) Validate() error {
	if c.IdentityPath == "" {
		return fmt.Errorf("identity_path must not be empty")
	}
	for i, p := range c.Peers {
		if p.ResponderID == "" {
			return fmt.Errorf("peers[%d]: responder_id must not be empty", i)
		}
		if p.URI == "" {
			return fmt.Errorf("peers[%d]: uri must not be empty", i)
		}
	}
	switch c.Retry.Kind {
	case "fixed":
		if c.Retry.Initial <= 0 {
			return fmt.Errorf("retry: initial must be positive for a fixed schedule")
		}
	case "exponential":
		if c.Retry.Initial <= 0 {
			return fmt.Errorf("retry: initial must be positive for an exponential schedule")
		}
		if c.Retry.Multiplier <= 1 {
			return fmt.Errorf("retry: multiplier must be greater than 1 for an exponential schedule")
		}
	default:
		return fmt.Errorf("retry: kind must be %q or %q, got %q", "fixed", "exponential", c.Retry.Kind)
	}
	if c.TLS != nil {
		t := c.TLS
		allSet := t.CACert != "" && t.NodeCert != "" && t.NodeKey != ""
		allEmpty := t.CACert == "" && t.NodeCert == "" && t.NodeKey == ""
		if !allSet && !allEmpty {
			return fmt.Errorf("tls: all three paths (ca_cert, node_cert, node_key) must be set or all empty")
		}
	}
	return nil
}

// Save writes the config to path as formatted JSON.
func Save(cfg *ManagerConfig, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
