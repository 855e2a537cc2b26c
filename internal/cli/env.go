package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"reports/internal/config"
	"reports/internal/dataset/sources"
	"reports/internal/dbclient"
	"reports/internal/secret"
	"reports/internal/service"
	"reports/internal/storage"
)

// env is the per-invocation state set up by the root command.
type env struct {
	cfg    *config.Config
	loader *config.Loader
	memory bool
}

func withEnv(ctx context.Context, e *env) context.Context {
	return context.WithValue(ctx, envKey, e)
}

func envFromContext(ctx context.Context) (*env, error) {
	e, ok := ctx.Value(envKey).(*env)
	if !ok {
		return nil, errors.New("command context not initialized")
	}
	return e, nil
}

// workspace is an opened document: the service plus whatever backs it.
type workspace struct {
	reports   *service.ReportService
	approvals *storage.ApprovalStore // nil in memory mode
	close     func() error
}

// open opens the configured database, or an in-memory document.
func open(ctx context.Context) (*workspace, error) {
	e, err := envFromContext(ctx)
	if err != nil {
		return nil, err
	}
	logger := loggerFromContext(ctx)
	cfg := e.cfg

	if e.memory {
		mem := storage.NewMemory()
		svc := service.NewReportService(service.Stores{Fields: mem, Sections: mem, Checkpoints: mem}, nil, logger)
		svc.SetCheckpointKeep(cfg.Autosave.Keep)
		return &workspace{reports: svc, close: func() error { return nil }}, nil
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	db, err := storage.New(cfg.DatabasePath(), cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	logger.Debug("opened database", "path", cfg.DatabasePath())

	svc := service.NewReportService(service.Stores{
		Fields:      storage.NewFieldStore(db),
		Sections:    storage.NewSectionStore(db),
		Checkpoints: storage.NewCheckpointStore(db),
	}, nil, logger)
	svc.SetCheckpointKeep(cfg.Autosave.Keep)

	return &workspace{
		reports:   svc,
		approvals: storage.NewApprovalStore(db),
		close:     db.Close,
	}, nil
}

// openSeeded opens the workspace and seeds an empty document.
func openSeeded(ctx context.Context) (*workspace, error) {
	ws, err := open(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := ws.reports.EnsureSeeded(ctx); err != nil {
		ws.close()
		return nil, err
	}
	return ws, nil
}

func exportOptions(cfg *config.Config, width int) service.ExportOptions {
	return service.ExportOptions{PDF: cfg.PDFOptions(), Width: width}
}

// wireConnections points database table sources at the configured
// connections, with passwords from the keychain when the config has none.
func wireConnections(cfg *config.Config) {
	secrets := secretStore()
	sources.SetConnectorFunc(func(name string) (dbclient.Connector, error) {
		conn, err := cfg.GetConnection(name)
		if err != nil {
			return nil, err
		}
		if conn, err = secret.FillPassword(secrets, conn); err != nil {
			return nil, err
		}
		return dbclient.NewConnector(conn)
	})
}

// secretStore returns the platform keychain, or nil where there is none.
func secretStore() secret.SecretStore {
	if ks := secret.NewKeychainStore(); ks != nil {
		return ks
	}
	return nil
}
