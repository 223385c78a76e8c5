// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/LeeDigitalWorks/zapgw/pkg/debug"
	"github.com/LeeDigitalWorks/zapgw/pkg/env"
	"github.com/LeeDigitalWorks/zapgw/pkg/gateway/api"
	"github.com/LeeDigitalWorks/zapgw/pkg/gateway/object"
	"github.com/LeeDigitalWorks/zapgw/pkg/logger"
	"github.com/LeeDigitalWorks/zapgw/pkg/metadata/db"
	"github.com/LeeDigitalWorks/zapgw/pkg/nodeid"
	"github.com/LeeDigitalWorks/zapgw/pkg/objpath"
	"github.com/LeeDigitalWorks/zapgw/pkg/storage/backend"
	"github.com/LeeDigitalWorks/zapgw/pkg/types"
	"github.com/LeeDigitalWorks/zapgw/pkg/utils"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type GatewayServerOpts struct {
	BindAddr  string
	HTTPPort  int
	DebugPort int

	StorageRoot string
	StorageType string

	NodeIDFile string
	NodeName   string

	DB          DatabaseOpts
	AutoMigrate bool

	KeyLocking             bool
	CompensateFailedUpsert bool

	RateLimitRPS    float64
	MaxUploadMemory int64
}

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Start the object gateway",
	Long: `Start a ZapGW gateway that serves:
- PUT /upload/{bucket}/{key} to store an object
- GET, HEAD and DELETE /{bucket}/{key} on stored objects
- DELETE /delete_bucket/{bucket} to drop a bucket with all its records`,
	RunE: runGateway,
}

func init() {
	rootCmd.AddCommand(gatewayCmd)

	f := gatewayCmd.Flags()
	f.String("bind_addr", "0.0.0.0", "Address to bind to")
	f.Int("http_port", 8080, "HTTP port for the gateway API")
	f.Int("debug_port", 8090, "Debug HTTP port (metrics, health, pprof)")
	f.String("storage_root", "/s3", "Directory under which bucket directories are created")
	f.String("storage_type", string(types.StorageTypeLocal), "Storage backend (local, memory)")
	f.String("node_id_file", nodeid.DefaultFile, "File holding this node's identity")
	f.String("node_name", "", "Node identity override; node_id_file is not read when set")
	addDatabaseFlags(f)
	f.Bool("auto_migrate", true, "Apply schema migrations on startup")
	f.Bool("key_locking", false, "Serialize uploads and deletes of the same object in this process")
	f.Bool("compensate_failed_upsert", false, "Remove the uploaded file when its record cannot be stored")
	f.Float64("rate_limit_rps", 0, "Global request rate limit (0 disables)")
	f.String("max_upload_memory", "32MiB", "Memory used for multipart parsing before spilling to disk")

	viper.BindPFlags(f)
}

func runGateway(cmd *cobra.Command, args []string) error {
	utils.LoadConfiguration("gateway", false)
	env.Load()

	opts, err := loadGatewayOpts(cmd)
	if err != nil {
		return err
	}

	debug.SetNotReady()

	storage, resolver, err := initializeStorage(opts)
	if err != nil {
		return err
	}
	defer storage.Close()

	rawDB, err := initializeDatabase(opts.DB)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	metadataDB := db.NewMetricsDB(rawDB)
	defer metadataDB.Close()

	if opts.AutoMigrate {
		if err := metadataDB.Migrate(cmd.Context()); err != nil {
			return fmt.Errorf("run database migrations: %w", err)
		}
	}

	if sqlDB := sqlDBOf(metadataDB); sqlDB != nil {
		debug.Registry().MustRegister(collectors.NewDBStatsCollector(sqlDB, "objects"))
	}

	svc, err := object.NewService(object.Config{
		DB:                     metadataDB,
		Storage:                storage,
		Resolver:               resolver,
		NodeID:                 initializeNodeID(opts),
		KeyLocking:             opts.KeyLocking,
		CompensateFailedUpsert: opts.CompensateFailedUpsert,
	})
	if err != nil {
		return err
	}

	gateway, err := api.NewGatewayServer(api.ServerConfig{
		Service:         svc,
		MaxUploadMemory: opts.MaxUploadMemory,
		RateLimitRPS:    opts.RateLimitRPS,
	})
	if err != nil {
		return err
	}

	debug.SetReadyCheck(metadataDB.Ping)
	debug.RegisterHandlerFunc("/debug/objects", objectCountHandler(metadataDB))

	logger.Info().
		Str("env", env.Env).
		Str("storage_root", resolver.Root()).
		Str("storage_type", opts.StorageType).
		Str("db_driver", opts.DB.Driver).
		Str("host_addr", utils.DetectedHostAddress()).
		Bool("key_locking", opts.KeyLocking).
		Bool("compensate_failed_upsert", opts.CompensateFailedUpsert).
		Float64("rate_limit_rps", opts.RateLimitRPS).
		Str("max_upload_memory", humanize.IBytes(uint64(opts.MaxUploadMemory))).
		Msg("gateway configured")

	httpServer := startHTTPServer("gateway", gateway, opts.BindAddr, opts.HTTPPort)
	debugServer := startHTTPServer("debug", debug.GetMux(), opts.BindAddr, opts.DebugPort)

	debug.SetReady()
	waitForShutdown()
	debug.SetNotReady()

	shutdownHTTPServer("gateway", httpServer)
	shutdownHTTPServer("debug", debugServer)
	return nil
}

func loadGatewayOpts(cmd *cobra.Command) (GatewayServerOpts, error) {
	f := NewFlagLoader(cmd)

	maxUploadMemory, err := f.Bytes("max_upload_memory")
	if err != nil {
		return GatewayServerOpts{}, err
	}

	return GatewayServerOpts{
		BindAddr:               f.String("bind_addr"),
		HTTPPort:               f.Int("http_port"),
		DebugPort:              f.Int("debug_port"),
		StorageRoot:            f.String("storage_root"),
		StorageType:            f.String("storage_type"),
		NodeIDFile:             f.String("node_id_file"),
		NodeName:               f.String("node_name"),
		DB:                     loadDatabaseOpts(f),
		AutoMigrate:            f.Bool("auto_migrate"),
		KeyLocking:             f.Bool("key_locking"),
		CompensateFailedUpsert: f.Bool("compensate_failed_upsert"),
		RateLimitRPS:           f.Float64("rate_limit_rps"),
		MaxUploadMemory:        maxUploadMemory,
	}, nil
}

func initializeStorage(opts GatewayServerOpts) (types.BackendStorage, *objpath.Resolver, error) {
	root := utils.ResolvePath(opts.StorageRoot)
	resolver, err := objpath.NewResolver(root)
	if err != nil {
		return nil, nil, err
	}

	storageType := types.StorageType(opts.StorageType)
	storage, err := backend.New(types.BackendConfig{Type: storageType, Root: resolver.Root()})
	if err != nil {
		return nil, nil, fmt.Errorf("initialize storage: %w", err)
	}

	if storageType == types.StorageTypeLocal {
		if err := utils.CheckWritableDir(resolver.Root()); err != nil {
			storage.Close()
			return nil, nil, fmt.Errorf("storage root: %w", err)
		}
		registerDiskMetrics(resolver.Root())
	}

	logger.Info().Str("type", string(storageType)).Str("root", resolver.Root()).Msg("storage initialized")
	return storage, resolver, nil
}

func initializeNodeID(opts GatewayServerOpts) nodeid.Provider {
	if opts.NodeName != "" {
		logger.Info().Str("node_name", opts.NodeName).Msg("using configured node name")
		return nodeid.Static(opts.NodeName)
	}
	p := nodeid.NewFileProvider(opts.NodeIDFile)
	logger.Info().Str("node_id_file", p.Path()).Msg("reading node identity from file")
	return p
}

func registerDiskMetrics(root string) {
	labels := prometheus.Labels{"root": root}
	debug.Registry().MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name:        "zapgw_storage_total_bytes",
			Help:        "Size of the filesystem holding the storage root",
			ConstLabels: labels,
		}, func() float64 {
			total, _, err := backend.DiskUsage(root)
			if err != nil {
				return 0
			}
			return float64(total)
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name:        "zapgw_storage_used_bytes",
			Help:        "Used bytes of the filesystem holding the storage root",
			ConstLabels: labels,
		}, func() float64 {
			_, used, err := backend.DiskUsage(root)
			if err != nil {
				return 0
			}
			return float64(used)
		}),
	)
}

// objectCountHandler reports the number of records of ?bucket=
func objectCountHandler(store db.ObjectStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bucket := r.URL.Query().Get("bucket")
		if bucket == "" {
			http.Error(w, "bucket query parameter required", http.StatusBadRequest)
			return
		}
		n, err := store.CountObjects(r.Context(), bucket)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"bucket":  bucket,
			"objects": n,
		})
	}
}
