// Package app wires storage, services and the outer surfaces together.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"coursebook/internal/codec"
	"coursebook/internal/config"
	"coursebook/internal/domain"
	"coursebook/internal/httpapi"
	"coursebook/internal/importer"
	"coursebook/internal/layout"
	mcpserver "coursebook/internal/mcp"
	"coursebook/internal/nodes"
	"coursebook/internal/service"
	"coursebook/internal/storage"
)

// exportStopTimeout bounds how long shutdown waits for a running export.
const exportStopTimeout = 30 * time.Second

// App owns every long-lived component of a coursebook process.
type App struct {
	cfg     config.Config
	version string
	log     *slog.Logger
	store   io.Closer

	Engine      *layout.Engine
	Registry    *nodes.Registry
	Documents   *service.DocumentService
	MindMaps    *service.MindMapService
	Collections *service.CollectionService
	Export      *service.ExportService
	Approval    *mcpserver.ApprovalQueue
}

// New opens storage and builds the services described by cfg.
func New(cfg config.Config, version string) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &App{
		cfg:     cfg,
		version: version,
		log:     slog.Default().With("component", "app"),
	}

	a.Engine = layout.NewEngine(cfg.Layout)
	a.Registry = nodes.Builtin(a.Engine)
	c := codec.New(a.Registry)

	store, closer, err := openStore(cfg.Storage, c)
	if err != nil {
		return nil, err
	}
	a.store = closer

	emitter := service.LogEmitter{Logger: slog.Default().With("component", "events")}
	a.Documents = service.NewDocumentService(store, a.Registry, c, emitter)
	a.MindMaps = service.NewMindMapService(a.Documents)
	a.Collections = service.NewCollectionService(a.Documents)
	a.Export = service.NewExportService(a.Documents, cfg.Export.Dir, emitter)
	if cfg.MCP.RequireApproval {
		a.Approval = mcpserver.NewApprovalQueue(emitter, cfg.MCP.ApprovalTimeout)
	}
	return a, nil
}

func openStore(cfg config.StorageConfig, c *codec.Codec) (domain.DocumentStore, io.Closer, error) {
	if cfg.Driver == "mongo" {
		s, err := storage.OpenMongo(cfg.DSN, cfg.Database, c)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	}
	db, err := storage.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, nil, err
	}
	return storage.NewDocumentStore(db, c), db, nil
}

// Close releases storage.
func (a *App) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

// Router builds the HTTP handler.
func (a *App) Router() http.Handler {
	return httpapi.NewRouter(httpapi.Deps{
		Documents: a.Documents,
		Approval:  a.Approval,
		Version:   a.version,
	})
}

// MCPServer builds the MCP server over the app's services.
func (a *App) MCPServer() *mcpserver.Server {
	return mcpserver.New(mcpserver.Deps{
		Documents:   a.Documents,
		MindMaps:    a.MindMaps,
		Collections: a.Collections,
		Engine:      a.Engine,
		Approval:    a.Approval,
		Version:     a.version,
	})
}

// Serve runs the HTTP API, the import watcher and the export schedule until
// ctx is cancelled or one of them fails.
func (a *App) Serve(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	a.startBackground(ctx, g)
	if a.cfg.HTTP.Enabled {
		a.startHTTP(ctx, g)
	}
	return g.Wait()
}

// ServeMCP serves MCP on stdio. The background jobs run alongside, as does
// the HTTP API when enabled so pending approvals can be resolved.
func (a *App) ServeMCP(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	a.startBackground(ctx, g)
	if a.cfg.HTTP.Enabled {
		a.startHTTP(ctx, g)
	} else if a.Approval != nil {
		a.log.Warn("approvals are required but the HTTP API is disabled; destructive tools will time out")
	}

	srv := a.MCPServer()
	g.Go(func() error {
		// stdin closing ends the session and everything else with it
		defer cancel()
		return srv.ServeStdio()
	})
	return g.Wait()
}

func (a *App) startHTTP(ctx context.Context, g *errgroup.Group) {
	srv := httpapi.NewServer(a.cfg.HTTP.Addr, a.Router(), a.cfg.HTTP.ShutdownTimeout)
	g.Go(func() error { return srv.Run(ctx) })
}

func (a *App) startBackground(ctx context.Context, g *errgroup.Group) {
	if a.cfg.Importer.Enabled {
		g.Go(func() error { return a.runImporter(ctx) })
	}
	if a.cfg.Export.Schedule != "" {
		g.Go(func() error {
			if err := a.Export.Start(ctx, a.cfg.Export.Schedule); err != nil {
				return err
			}
			<-ctx.Done()
			stopCtx, cancel := context.WithTimeout(context.Background(), exportStopTimeout)
			defer cancel()
			a.Export.Stop(stopCtx)
			return nil
		})
	}
}

func (a *App) runImporter(ctx context.Context) error {
	w, err := importer.New(a.cfg.Importer.Dir, a.Documents, a.cfg.Importer.Debounce)
	if err != nil {
		return err
	}
	defer w.Close()

	n, err := w.ImportExisting(ctx)
	if err != nil {
		a.log.Warn("initial import incomplete", "dir", a.cfg.Importer.Dir, "error", err)
	}
	a.log.Info("import watcher started", "dir", a.cfg.Importer.Dir, "imported", n)
	return w.Run(ctx)
}

// ImportOptions applies to remote sources only.
type ImportOptions struct {
	Headers  map[string]string
	DataPath string
}

// Import stores each source as a document. A source is a file path or an
// http(s) URL; the id is the file or last path segment without extension.
// Every source is attempted and the errors are joined.
func (a *App) Import(ctx context.Context, sources []string, opts ImportOptions) (int, error) {
	var errs []error
	imported := 0
	for _, src := range sources {
		id, data, err := a.read(ctx, src, opts)
		if err != nil {
			errs = append(errs, fmt.Errorf("import %s: %w", src, err))
			continue
		}
		if _, err := a.Documents.ImportJSON(ctx, id, data); err != nil {
			errs = append(errs, fmt.Errorf("import %s: %w", src, err))
			continue
		}
		imported++
	}
	return imported, errors.Join(errs...)
}

func (a *App) read(ctx context.Context, src string, opts ImportOptions) (string, []byte, error) {
	if !importer.IsRemote(src) {
		data, err := os.ReadFile(src)
		return importer.DocumentID(src), data, err
	}
	id := importer.RemoteID(src)
	if id == "" {
		return "", nil, fmt.Errorf("cannot derive a document id from the URL")
	}
	data, err := importer.Fetch(ctx, nil, src, opts.Headers, opts.DataPath)
	return id, data, err
}
