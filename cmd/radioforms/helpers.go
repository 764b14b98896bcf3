// Shared helpers for radioforms CLI commands.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/fieldworks/radioforms/internal/autosave"
	"github.com/fieldworks/radioforms/internal/backup"
	"github.com/fieldworks/radioforms/internal/command"
	"github.com/fieldworks/radioforms/internal/export"
	"github.com/fieldworks/radioforms/internal/forms"
	"github.com/fieldworks/radioforms/internal/paths"
	"github.com/fieldworks/radioforms/internal/sqlite"
	"github.com/fieldworks/radioforms/pkg/types"
)

// app bundles the initialized storage backend and the dispatch layer.
// Built by PersistentPreRunE, closed by PersistentPostRunE.
type app struct {
	backend    *sqlite.Backend
	engine     *autosave.Engine
	dispatcher *command.Dispatcher
	dataDir    string
}

var theApp *app

// openApp resolves the data directory, initializes the database, and
// wires the dispatcher over the core services.
func openApp(ctx context.Context) (*app, error) {
	dataDir, err := resolveDataDir()
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure data dir: %w", err)
	}

	backend := sqlite.NewBackend(appLogger)
	if err := backend.Initialize(ctx, paths.DBPath(dataDir)); err != nil {
		return nil, fmt.Errorf("initialize storage: %w", err)
	}

	pool, err := backend.Pool()
	if err != nil {
		_ = backend.Close()
		return nil, err
	}

	svc := forms.NewService(pool)
	engine := autosave.NewEngine(svc, paths.RecoveryDir(dataDir), appLogger)
	if err := engine.Configure(appAutoSave); err != nil {
		_ = backend.Close()
		return nil, fmt.Errorf("auto-save config: %w", err)
	}
	codec := export.NewCodec(svc)
	backups := backup.NewManager(paths.DBPath(dataDir), svc, appLogger)

	return &app{
		backend:    backend,
		engine:     engine,
		dispatcher: command.NewDispatcher(svc, engine, codec, backups),
		dataDir:    dataDir,
	}, nil
}

func (a *app) Close() error {
	return a.backend.Close()
}

// parseID converts a CLI argument to a form id.
func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: invalid form id %q", errUsage, arg)
	}
	return id, nil
}

// readBody returns the form body from --data, --file, or stdin ("-").
func readBody(data, file string) ([]byte, error) {
	switch {
	case data != "":
		return []byte(data), nil
	case file == "-":
		body, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return body, nil
	case file != "":
		body, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read body file: %w", err)
		}
		return body, nil
	default:
		return nil, fmt.Errorf("%w: provide --data or --file", errUsage)
	}
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

// printForm writes one form, honoring --json.
func printForm(form *types.Form) error {
	if flagJSON {
		return printJSON(form)
	}
	fmt.Printf("ID:        %d\n", form.ID)
	fmt.Printf("Incident:  %s\n", form.IncidentName)
	fmt.Printf("Type:      %s\n", form.FormType)
	fmt.Printf("Status:    %s\n", form.Status)
	fmt.Printf("Created:   %s\n", form.CreatedAt.Format(time.RFC3339))
	fmt.Printf("Updated:   %s\n", form.UpdatedAt.Format(time.RFC3339))
	fmt.Printf("Body:      %s\n", string(form.FormBody))
	return nil
}

// printForms writes a form list as a table, honoring --json.
func printForms(list []*types.Form) error {
	if flagJSON {
		return printJSON(list)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tINCIDENT\tTYPE\tSTATUS\tUPDATED")
	for _, f := range list {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			f.ID, f.IncidentName, f.FormType, f.Status, f.UpdatedAt.Format(time.RFC3339))
	}
	return w.Flush()
}
