package database

import (
	"context"
	"errors"
	"fmt"
	neturl "net/url"
	"strings"
	"time"
)

// ErrUnsupportedScheme is returned when the connection URL names no known driver.
var ErrUnsupportedScheme = errors.New("unsupported database scheme")

// Store is the process-wide data-store handle. It is acquired once during
// startup and must be closed exactly once on shutdown.
type Store interface {
	Kind() string
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Connector resolves to a connected Store or an error.
type Connector func(ctx context.Context) (Store, error)

// Options configures a connection attempt.
type Options struct {
	URL     string
	Name    string
	Timeout time.Duration
	AppName string
}

// NewConnector binds options into a Connector for the startup sequence.
func NewConnector(opts Options) Connector {
	return func(ctx context.Context) (Store, error) {
		return Connect(ctx, opts)
	}
}

// Connect opens a store for the driver named by the URL scheme.
func Connect(ctx context.Context, opts Options) (Store, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.AppName == "" {
		opts.AppName = "backend"
	}

	switch scheme(opts.URL) {
	case "mongodb", "mongodb+srv":
		store, err := ConnectMongo(ctx, opts)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "postgres", "postgresql":
		store, err := ConnectPostgres(ctx, opts)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, scheme(opts.URL))
	}
}

func scheme(raw string) string {
	i := strings.Index(raw, "://")
	if i <= 0 {
		return ""
	}
	return strings.ToLower(raw[:i])
}

// DriverName returns the driver label for a connection URL ("mongodb",
// "postgres"), or the raw scheme when no driver handles it.
func DriverName(raw string) string {
	switch s := scheme(raw); s {
	case "mongodb", "mongodb+srv":
		return "mongodb"
	case "postgres", "postgresql":
		return "postgres"
	case "":
		return "unknown"
	default:
		return s
	}
}

// RedactURL hides the password of a connection URL for log output.
func RedactURL(raw string) string {
	u, err := neturl.Parse(raw)
	if err != nil {
		return "<unparseable database url>"
	}
	return u.Redacted()
}
