package config

import "flag"

// Config is the notary server's static, process-wide configuration, parsed
// once at startup from command-line flags.
type Config struct {
	// Addr is the listen address for the HTTP server.
	Addr string
	// SigningKeyPath is the PEM file holding the notary's ECDSA key.
	SigningKeyPath string
	// TranscriptSizeCeiling bounds max_sent_data + max_recv_data. Per the
	// original behavior, a request that supplies neither field is not
	// checked against this ceiling at all.
	TranscriptSizeCeiling uint64
}

// ParseFlags parses os.Args into a Config, matching the original notary's
// flag.Bool("no-sandbox", ...) style of a small, flat set of top-level
// flags rather than a nested configuration file.
func ParseFlags() *Config {
	addr := flag.String("addr", "0.0.0.0:10011", "listen address for the notary server")
	signingKeyPath := flag.String("signing-key", "signing.key", "path to the notary's PEM-encoded ECDSA signing key")
	ceiling := flag.Uint64("max-transcript-size", 1<<20, "ceiling on max_sent_data+max_recv_data for a session")
	flag.Parse()

	return &Config{
		Addr:                  *addr,
		SigningKeyPath:        *signingKeyPath,
		TranscriptSizeCeiling: *ceiling,
	}
}
