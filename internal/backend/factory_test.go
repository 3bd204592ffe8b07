package backend

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"viaggi/internal/config"
	sheetsmem "viaggi/internal/sheets/memory"
)

func quietFactory() Factory {
	return NewFactory(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestBackendTypeIsValid(t *testing.T) {
	for _, bt := range GetBackendTypes() {
		if !bt.IsValid() {
			t.Errorf("%s should be valid", bt)
		}
	}
	if BackendType("sheets").IsValid() {
		t.Error("sheets is an export target, not a backend")
	}
}

func TestFromAppConfig(t *testing.T) {
	cfg, err := FromAppConfig(&config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db", GoogleSheetName: "Budgets"})
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if cfg.Type != SQLiteBackend || cfg.SQLiteDBPath != "x.db" || cfg.GoogleSheetName != "Budgets" {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	if _, err := FromAppConfig(nil); err == nil {
		t.Error("nil config should fail")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "postgres"}); err == nil {
		t.Error("unknown backend should fail")
	}
}

func TestCreateBackend(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "memory", cfg: Config{Type: MemoryBackend}},
		{name: "sqlite", cfg: Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "viaggi.db")}},
		{name: "sqlite without path", cfg: Config{Type: SQLiteBackend}, wantErr: true},
		{name: "unknown", cfg: Config{Type: "redis"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := quietFactory().CreateBackend(ctx, tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateBackend: %v", err)
			}
			defer res.Cleanup()
			if err := res.Repository.Ping(ctx); err != nil {
				t.Fatalf("Ping: %v", err)
			}
			if _, err := res.Repository.ListTripIDs(ctx); err != nil {
				t.Fatalf("ListTripIDs: %v", err)
			}
		})
	}
}

func TestCreateExporterDefaultsToMemory(t *testing.T) {
	exp, err := quietFactory().CreateExporter(context.Background(), Config{Type: MemoryBackend})
	if err != nil {
		t.Fatalf("CreateExporter: %v", err)
	}
	if _, ok := exp.(*sheetsmem.Exporter); !ok {
		t.Fatalf("expected the memory exporter, got %T", exp)
	}
}

func TestValidateWorker(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "sqlite with sheets", cfg: Config{Type: SQLiteBackend, SQLiteDBPath: "x.db", GoogleSpreadsheetID: "s"}},
		{name: "memory without sheets", cfg: Config{Type: MemoryBackend}},
		{name: "memory with sheets", cfg: Config{Type: MemoryBackend, GoogleSpreadsheetID: "s"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.ValidateWorker()
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateWorker() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
	if !MemoryBackend.ProcessLocal() || SQLiteBackend.ProcessLocal() {
		t.Error("only the memory backend is process local")
	}
}
