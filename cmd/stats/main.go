package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/alexivanou/forecast-widget/internal/config"
	"github.com/alexivanou/forecast-widget/internal/database"
	"github.com/alexivanou/forecast-widget/internal/stats"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

func main() {
	var (
		outputFormat = flag.String("format", "json", "Output format: json or text")
		server       = flag.String("server", "", "Base URL of a running server to read widget sessions from (defaults to http://localhost:APP_PORT, \"-\" to skip)")
		timeout      = flag.Duration("timeout", 2*time.Second, "Timeout for the server request")
	)
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	ctx := context.Background()
	db, err := database.Connect(ctx, cfg.DB)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatal("Failed to ping database", zap.Error(err))
	}

	logger.Info("Collecting place directory statistics", zap.String("db_type", string(cfg.DB.Type)))
	statistics, err := stats.NewCollector(db, cfg.DB).Collect(ctx)
	if err != nil {
		logger.Fatal("Failed to collect statistics", zap.Error(err))
	}

	if *server == "" {
		*server = "http://localhost:" + cfg.Server.Port
	}
	if *server != "-" {
		widgetStats, err := fetchWidgetStats(ctx, *server, *timeout)
		if err != nil {
			logger.Warn("Widget sessions unavailable, is the server running?", zap.String("server", *server), zap.Error(err))
		} else {
			statistics.Widget = widgetStats
		}
	}

	if err := write(os.Stdout, statistics, *outputFormat); err != nil {
		logger.Fatal("Failed to write statistics", zap.String("format", *outputFormat), zap.Error(err))
	}
}

// fetchWidgetStats reads the widget section from a running server's
// /api/v1/stats. The server's own directory numbers are ignored.
func fetchWidgetStats(ctx context.Context, server string, timeout time.Duration) (*stats.WidgetStats, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(server, "/")+"/api/v1/stats", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	client := &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request server stats: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server stats returned %s", resp.Status)
	}

	var remote stats.Stats
	if err := json.NewDecoder(resp.Body).Decode(&remote); err != nil {
		return nil, fmt.Errorf("decode server stats: %w", err)
	}
	if remote.Widget == nil {
		return nil, fmt.Errorf("server stats carry no widget section")
	}
	return remote.Widget, nil
}

func write(out io.Writer, s *stats.Stats, format string) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(s)
	case "text", "human":
		printReport(out, s)
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func printReport(out io.Writer, s *stats.Stats) {
	fmt.Fprintf(out, "Forecast widget statistics, %s\n\n", s.Timestamp.Format("2006-01-02 15:04:05"))

	fmt.Fprintln(out, "Widget sessions")
	if w := s.Widget; w != nil {
		fmt.Fprintf(out, "  live      %d\n", w.Sessions)
		fmt.Fprintf(out, "  online    %d\n", w.OnlineSessions)
		fmt.Fprintf(out, "  offline   %d\n", w.Sessions-w.OnlineSessions)
	} else {
		fmt.Fprintln(out, "  no running server")
	}
	fmt.Fprintln(out)

	fmt.Fprintf(out, "Place directory (%s, %s)\n", s.Database.Type, formatBytes(uint64(s.Database.SizeBytes)))
	for _, ts := range s.Database.TableStats {
		fmt.Fprintf(out, "  %-10s %10d rows", ts.Name, ts.RowCount)
		if ts.SizeBytes > 0 {
			fmt.Fprintf(out, "  %s", formatBytes(uint64(ts.SizeBytes)))
		}
		fmt.Fprintln(out)
	}
	fmt.Fprintf(out, "  %-10s %10d rows\n\n", "total", s.Database.TotalRecords)

	fmt.Fprintln(out, "Process")
	fmt.Fprintf(out, "  heap      %s\n", formatBytes(s.Memory.HeapAlloc))
	fmt.Fprintf(out, "  gc runs   %d\n", s.Memory.NumGC)
	fmt.Fprintf(out, "  cpus      %d\n", s.Runtime.NumCPU)
}

func formatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
