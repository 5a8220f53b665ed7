package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/TimelordUK/sigview/internal/broadcast"
	"github.com/TimelordUK/sigview/internal/config"
	"github.com/TimelordUK/sigview/internal/export"
	"github.com/TimelordUK/sigview/internal/logging"
	"github.com/TimelordUK/sigview/internal/source"
	"github.com/TimelordUK/sigview/internal/ui"
)

func main() {
	configFlag := flag.String("config", "", "Config file (default "+config.GetConfigPath()+")")
	urlFlag := flag.String("url", "", "Backend base URL")
	domainFlag := flag.String("domain", "", "Backend domain (EEG, ecg, market, audio)")
	csvFlag := flag.String("csv", "", "Play a local CSV file instead of the backend")
	uploadFlag := flag.String("upload", "", "Upload a recording to the backend and play it")
	channelsFlag := flag.String("channels", "", "Comma separated channel patterns (e.g. Fp*,O1)")
	broadcastFlag := flag.String("broadcast", "", "Mirror snapshots over websocket on addr (e.g. :8765)")
	exportFlag := flag.String("export-dir", "", "Directory for exported windows (default: temp dir)")
	levelFlag := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: sigview [flags] [file-id]\n")
		fmt.Fprintf(os.Stderr, "       sigview -upload recording.csv\n")
		fmt.Fprintf(os.Stderr, "       sigview -csv recording.csv\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := run(options{
		configPath: *configFlag,
		baseURL:    *urlFlag,
		domain:     *domainFlag,
		csvPath:    *csvFlag,
		uploadPath: *uploadFlag,
		channels:   *channelsFlag,
		broadcast:  *broadcastFlag,
		exportDir:  *exportFlag,
		logLevel:   *levelFlag,
		fileID:     flag.Arg(0),
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	configPath string
	baseURL    string
	domain     string
	csvPath    string
	uploadPath string
	channels   string
	broadcast  string
	exportDir  string
	logLevel   string
	fileID     string
}

func run(opts options) error {
	if err := config.LoadEnv(); err != nil {
		return err
	}

	var cfg *config.Config
	var err error
	if opts.configPath != "" {
		cfg, err = config.LoadFrom(opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	cfg.ApplyEnv()
	if opts.baseURL != "" {
		cfg.Backend.BaseURL = opts.baseURL
	}
	if opts.domain != "" {
		cfg.Backend.Domain = opts.domain
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if opts.broadcast != "" {
		cfg.Broadcast.Addr = opts.broadcast
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, _ := config.ParseLevel(cfg.Log.Level)
	logger, closer, err := logging.New(logging.Options{
		Path:       cfg.Log.Path,
		Level:      level,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		return err
	}
	defer closer.Close()

	modelOpts := ui.ModelOptions{
		Config:   cfg,
		FileID:   opts.fileID,
		Exporter: export.NewExporter(opts.exportDir, cfg.Theme.Channels),
		Logger:   logger,
	}

	var src source.PageSource
	if opts.csvPath != "" {
		csvSource, err := source.NewCSVSource(opts.csvPath, logger)
		if err != nil {
			return err
		}
		defer csvSource.Close()
		src = csvSource
		modelOpts.FileID = csvSource.ID()
		modelOpts.ExpectedDuration = csvSource.Duration()
	} else {
		httpSource := source.NewHTTPSource(cfg.Backend.BaseURL, cfg.Backend.Domain,
			time.Duration(cfg.Backend.TimeoutMs)*time.Millisecond, logger)
		src = httpSource
		modelOpts.Uploader = httpSource
		logger.Info("using backend", "url", httpSource.BaseURL(), "domain", httpSource.Domain())

		if opts.uploadPath != "" {
			fmt.Fprintf(os.Stderr, "Uploading %s to %s%s...\n", opts.uploadPath,
				httpSource.BaseURL(), source.UploadPath(httpSource.Domain()))
			res, err := httpSource.Upload(context.Background(), opts.uploadPath)
			if err != nil {
				return err
			}
			modelOpts.Upload = res
			modelOpts.FileID = res.FileID
		}
	}

	if opts.channels != "" {
		src = source.NewFilteredSource(src, strings.Split(opts.channels, ","))
	}
	modelOpts.Source = src

	if cfg.Broadcast.Addr != "" {
		hub := broadcast.NewHub(logger)
		server, err := broadcast.Start(context.Background(), cfg.Broadcast.Addr, hub)
		if err != nil {
			return fmt.Errorf("broadcast: %w", err)
		}
		defer server.Close()
		modelOpts.Publisher = hub
	}

	model, err := ui.NewModel(modelOpts)
	if err != nil {
		return err
	}

	logger.Info("starting", "backend", cfg.Backend.BaseURL, "domain", cfg.Backend.Domain, "file", modelOpts.FileID)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
