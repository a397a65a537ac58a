// Package mqtt publishes finalized events to an MQTT broker.
package mqtt

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/barkwatch/barkwatch-go/internal/logging"
)

// Client defines the interface for MQTT client operations.
type Client interface {
	// Connect attempts to connect to the MQTT broker.
	Connect(ctx context.Context) error

	// Publish sends a message to the specified topic on the MQTT broker.
	Publish(ctx context.Context, topic, payload string) error

	// IsConnected returns true if the client is currently connected.
	IsConnected() bool

	// Disconnect closes the connection to the MQTT broker.
	Disconnect()
}

// Config holds the configuration for the MQTT client.
type Config struct {
	Broker            string
	ClientID          string
	Username          string
	Password          string
	Topic             string // default topic for publishing messages
	Retain            bool   // true to retain messages at the broker
	ReconnectCooldown time.Duration
	ConnectTimeout    time.Duration
	PublishTimeout    time.Duration
}

var (
	mqttLogger *slog.Logger
	loggerOnce sync.Once
)

func getLogger() *slog.Logger {
	loggerOnce.Do(func() {
		mqttLogger = logging.ForService("mqtt")
		if mqttLogger == nil {
			mqttLogger = slog.New(slog.NewTextHandler(os.Stderr, nil)).With("service", "mqtt")
		}
	})
	return mqttLogger
}
