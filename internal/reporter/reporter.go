// Package reporter writes decoded messages to an output stream.
package reporter

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/zMarques/albion-network/internal/config"
	"github.com/zMarques/albion-network/internal/core"
	"github.com/zMarques/albion-network/internal/metrics"
	"github.com/zMarques/albion-network/pkg/decoder"
)

// Reporter logs every message it is handed as one structured record.
type Reporter struct {
	logger  *slog.Logger
	maxDump int
	count   atomic.Uint64
}

// New creates a reporter writing to w in the configured format.
func New(cfg config.ReporterConfig, w io.Writer) (*Reporter, error) {
	opts := &slog.HandlerOptions{
		// Drop the level attribute: every record is a message, not a log event.
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.LevelKey {
				return slog.Attr{}
			}
			return a
		},
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	case "text", "":
		handler = slog.NewTextHandler(w, opts)
	default:
		return nil, fmt.Errorf("%w: unsupported reporter format: %s", core.ErrConfigInvalid, cfg.Format)
	}

	maxDump := cfg.MaxDump
	if maxDump < 0 {
		maxDump = 0
	}
	return &Reporter{logger: slog.New(handler), maxDump: maxDump}, nil
}

// Handle reports msg. It matches the sniffer handler signature.
func (r *Reporter) Handle(msg decoder.Message) {
	attrs := []slog.Attr{
		slog.String("type", msg.Type),
		slog.Int("size", len(msg.Raw)),
	}
	if msg.Payload != nil {
		attrs = append(attrs, slog.Any("payload", msg.Payload))
	}
	if dump, cut := r.dump(msg.Raw); dump != "" {
		attrs = append(attrs, slog.String("dump", dump))
		if cut {
			attrs = append(attrs, slog.Bool("dump_truncated", true))
		}
	}

	r.logger.LogAttrs(context.Background(), slog.LevelInfo, "message", attrs...)

	r.count.Add(1)
	metrics.ReporterMessagesTotal.WithLabelValues(msg.Type).Inc()
}

// Count returns the number of messages reported so far.
func (r *Reporter) Count() uint64 {
	return r.count.Load()
}

// dump hex-encodes at most maxDump leading bytes of raw.
func (r *Reporter) dump(raw []byte) (string, bool) {
	if r.maxDump == 0 || len(raw) == 0 {
		return "", false
	}
	n := min(len(raw), r.maxDump)
	return hex.EncodeToString(raw[:n]), n < len(raw)
}
