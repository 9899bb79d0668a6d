package main

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"haven.world/internal/logging"
	persistlog "haven.world/internal/persistence/log"
	"haven.world/internal/persistence/snapshot"
	"haven.world/internal/sim/catalogs"
	"haven.world/internal/sim/tuning"
	"haven.world/internal/sim/world"
	"haven.world/internal/sim/world/feature/economy/ledger"
	"haven.world/internal/sim/world/kernel/model"
	"haven.world/internal/sim/world/terrain/gen"
	"haven.world/internal/sim/world/terrain/store"
	"haven.world/internal/transport/ws"
)

func main() {
	var (
		addr        = flag.String("addr", ":8000", "http listen address")
		configDir   = flag.String("configs", "./configs", "config directory")
		dataDir     = flag.String("data", "./data", "runtime data directory")
		tuningPath  = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		worldPath   = flag.String("world_file", "", "world snapshot path (default: <data>/world.json; a .zst suffix compresses)")
		playersPath = flag.String("players_file", "", "player ledger path (default: <data>/players.json)")
		seed        = flag.Int64("seed", 0, "override the world seed from tuning (only used when generating a fresh world)")
		disableDB   = flag.Bool("disable_db", false, "disable the sqlite audit index")
		logLevel    = flag.String("log_level", "", "log level (default: $LOG_LEVEL or info)")
		logFormat   = flag.String("log_format", "", "text or json (default: $LOG_FORMAT or text)")
	)
	flag.Parse()

	logger := logging.New(*logLevel, *logFormat, os.Stdout)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.WithError(err).Fatal("load tuning")
		}
		logger.WithField("path", tp).Info("tuning not found; using defaults")
		tune = tuning.Defaults()
	}

	if flagSet(flag.CommandLine, "seed") {
		tune.World.Seed = *seed
	}

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.WithError(err).Fatal("load catalogs")
	}

	if err := os.MkdirAll(*dataDir, 0o755); err != nil {
		logger.WithError(err).Fatal("create data dir")
	}
	wp := strings.TrimSpace(*worldPath)
	if wp == "" {
		wp = filepath.Join(*dataDir, "world.json")
	}
	pp := strings.TrimSpace(*playersPath)
	if pp == "" {
		pp = filepath.Join(*dataDir, "players.json")
	}

	idx, err := openRuntimeIndex(*dataDir, *disableDB)
	if err != nil {
		logger.WithError(err).Fatal("open index backend")
	}
	if idx != nil {
		defer idx.Close()
		if err := idx.UpsertCatalogs(cats, tune); err != nil {
			logger.WithError(err).Warn("index backend: upsert catalogs")
		}
	}

	worldFile := &indexedWorldFile{WorldFile: snapshot.WorldFile{Path: wp}, idx: idx}
	genCfg := tune.GenConfig()
	st, err := store.Open(store.Config{Size: tune.World.Size}, worldFile, func() []model.Entity {
		return gen.Generate(genCfg)
	}, logger.WithField("component", "store"))
	if err != nil {
		logger.WithError(err).Fatal("open world")
	}
	worldFile.st = st
	digest := st.Digest()
	logger.WithFields(logrus.Fields{
		"entities": st.Len(),
		"path":     wp,
		"digest":   hex.EncodeToString(digest[:6]),
	}).Info("world ready")

	led, err := ledger.Open(tune.LedgerConfig(), snapshot.PlayersFile{Path: pp}, logger.WithField("component", "ledger"))
	if err != nil {
		logger.WithError(err).Fatal("open ledger")
	}
	logger.WithFields(logrus.Fields{"players": led.Len(), "path": pp}).Info("ledger ready")

	w := world.New(world.WorldConfig{
		HarvestRadius: tune.Harvest.Radius,
		ChatMaxRunes:  tune.Chat.MaxRunes,
		ChatRate:      rate.Limit(tune.Chat.RatePerSec),
		ChatBurst:     tune.Chat.Burst,
		InboxSize:     tune.Server.InboxSize,
		FlushInterval: tune.FlushInterval(),
	}, st, led, cats, logger.WithField("component", "world"))

	auditLog := persistlog.NewAuditLogger(*dataDir)
	defer auditLog.Close()
	w.SetAuditLogger(multiAuditLogger{a: auditLog, b: idx})

	ctx, cancel := signalContext()
	defer cancel()

	worldDone := make(chan struct{})
	go func() {
		defer close(worldDone)
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.WithError(err).Error("world stopped")
		}
	}()

	wsSrv := ws.NewServer(w, ws.Config{OutboundQueue: tune.Server.OutboundQueue}, logger)
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", healthz)
	mux.Handle("/metrics", metricsHandler(w, idx))
	mux.Handle("GET /ws/{client_id}", wsSrv.Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		wsSrv.Close()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.WithFields(logrus.Fields{"addr": *addr, "protocol": tune.ProtocolVersion}).Info("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Error("ListenAndServe")
		cancel()
	}
	<-worldDone
	logger.Info("shutdown complete")
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func healthz(rw http.ResponseWriter, _ *http.Request) {
	rw.WriteHeader(http.StatusOK)
	_, _ = rw.Write([]byte("ok"))
}

type multiAuditLogger struct {
	a world.AuditLogger
	b world.AuditLogger
}

func (m multiAuditLogger) WriteAudit(entry world.AuditEntry) error {
	var err error
	if m.a != nil {
		err = m.a.WriteAudit(entry)
	}
	if m.b != nil {
		_ = m.b.WriteAudit(entry)
	}
	return err
}

// flagSet reports whether name was given on the command line, so zero and negative
// values can still override tuning.
func flagSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
