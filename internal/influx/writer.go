package influx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/berfenger/solaredge2influx/internal/config"
	"github.com/berfenger/solaredge2influx/internal/core/domain"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"go.uber.org/zap"
)

const (
	SINK_NAME = "influxdb"

	// client log levels, 3 is debug
	clientLogLevelError = 0
	clientLogLevelDebug = 3
)

// Writer writes samples to an InfluxDB database. On 1.x servers the
// database is addressed as the bucket of the v2 compatibility API.
type Writer struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	database string
	logger   *zap.Logger
}

func NewWriter(cfg config.InfluxDBConfig, clientDebug bool, logger *zap.Logger) *Writer {
	opts := influxdb2.DefaultOptions().SetLogLevel(clientLogLevelError)
	if clientDebug {
		opts.SetLogLevel(clientLogLevelDebug)
	}
	client := influxdb2.NewClientWithOptions(cfg.URL(), cfg.Token, opts)
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Database),
		database: cfg.Database,
		logger:   logger.With(zap.String("component", "influxdb"), zap.String("url", cfg.URL())),
	}
}

func (w *Writer) Write(ctx context.Context, sample domain.Sample) error {
	point := influxdb2.NewPoint(sample.Measurement, sample.Tags, sample.Fields, sample.Time)
	if err := w.writeAPI.WritePoint(ctx, point); err != nil {
		return &domain.WriteError{Sink: SINK_NAME, Err: err}
	}
	return nil
}

// Ping checks the server is reachable.
func (w *Writer) Ping(ctx context.Context) error {
	ok, err := w.client.Ping(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("influxdb ping failed")
	}
	return nil
}

type queryResponse struct {
	Results []struct {
		Error string `json:"error"`
	} `json:"results"`
	Error string `json:"error"`
}

// EnsureDatabase creates the target database through the 1.x query
// endpoint. CREATE DATABASE is a no-op when the database already exists.
func (w *Writer) EnsureDatabase(ctx context.Context) error {
	queryURL := strings.TrimSuffix(w.client.ServerURL(), "/") + "/query"
	form := url.Values{}
	form.Set("q", fmt.Sprintf("CREATE DATABASE %q", w.database))

	var queryErr error
	perr := w.client.HTTPService().DoPostRequest(ctx, queryURL, strings.NewReader(form.Encode()),
		func(req *http.Request) {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		},
		func(resp *http.Response) error {
			defer resp.Body.Close()
			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			queryErr = parseQueryError(body)
			return nil
		})
	if perr != nil {
		return fmt.Errorf("create database %s: %w", w.database, perr)
	}
	if queryErr != nil {
		return fmt.Errorf("create database %s: %w", w.database, queryErr)
	}
	w.logger.Info("database opened and initialized", zap.String("database", w.database))
	return nil
}

func parseQueryError(body []byte) error {
	if len(body) == 0 {
		return nil
	}
	var res queryResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return fmt.Errorf("invalid query response: %w", err)
	}
	if res.Error != "" {
		return errors.New(res.Error)
	}
	for _, r := range res.Results {
		if r.Error != "" {
			return errors.New(r.Error)
		}
	}
	return nil
}

func (w *Writer) Close() error {
	w.client.Close()
	return nil
}
