package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/greenhouse-core/internal/auth"
	"github.com/nerrad567/greenhouse-core/internal/simulation"
)

// demoSeed is the seed file shipped in configs/.
var demoSeed = filepath.Join("..", "..", "configs", "seed.yaml")

const testSecret = "test-secret-for-development-only-0123456789"

// writeConfig writes a minimal config using a temporary database and
// returns its path.
func writeConfig(t *testing.T, extra string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")
	dbPath := filepath.Join(tmpDir, "test.db")

	configContent := `
site:
  id: test-site

database:
  path: "` + dbPath + `"
  wal_mode: true
  busy_timeout: 5

mqtt:
  enabled: false

influxdb:
  enabled: false

kafka:
  enabled: false

logging:
  level: error
  format: text
  output: stderr

api:
  host: "127.0.0.1"
  port: 18089
  timeouts:
    read: 5
    write: 5
    idle: 5
` + extra
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

// execute runs the command tree with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := root.ExecuteContext(ctx)
	return stdout.String(), err
}

// ============================================================================
// run (serve)
// ============================================================================

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx, "/nonexistent/path/config.yaml"); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_MissingDatabasePath verifies run fails when database path is empty.
func TestRun_MissingDatabasePath(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")
	configContent := `
site:
  id: test-site

database:
  path: ""
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx, configPath)
	if err == nil {
		t.Fatal("run() should fail with empty database path")
	}
	if !strings.Contains(err.Error(), "database.path") {
		t.Errorf("run() error = %v, want mention of database.path", err)
	}
}

// TestRun_StartupAndShutdown starts the full service with every optional
// integration disabled and stops it by cancelling the context.
func TestRun_StartupAndShutdown(t *testing.T) {
	configPath := writeConfig(t, `
control:
  seed_file: "`+demoSeed+`"
`)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := run(ctx, configPath); err != nil {
		t.Fatalf("run() error = %v, want clean shutdown", err)
	}
}

// TestRun_BadSeed verifies a seed file that cannot be loaded aborts startup.
func TestRun_BadSeed(t *testing.T) {
	configPath := writeConfig(t, `
control:
  seed_file: "/nonexistent/seed.yaml"
`)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx, configPath); err == nil {
		t.Fatal("run() should fail with a missing seed file")
	}
}

// ============================================================================
// getConfigPath
// ============================================================================

// TestGetConfigPath_Default verifies default config path.
func TestGetConfigPath_Default(t *testing.T) {
	t.Setenv("GREENHOUSE_CONFIG", "")

	if path := getConfigPath(); path != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", path, defaultConfigPath)
	}
}

// TestGetConfigPath_EnvOverride verifies environment variable override.
func TestGetConfigPath_EnvOverride(t *testing.T) {
	expected := "/custom/path/config.yaml"
	t.Setenv("GREENHOUSE_CONFIG", expected)

	if path := getConfigPath(); path != expected {
		t.Errorf("getConfigPath() = %q, want %q", path, expected)
	}
}

// ============================================================================
// Commands
// ============================================================================

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.HasPrefix(out, "greenhouse "+version) {
		t.Errorf("version output = %q, want prefix %q", out, "greenhouse "+version)
	}
}

func TestSeedCmd(t *testing.T) {
	configPath := writeConfig(t, "")

	out, err := execute(t, "--config", configPath, "seed", demoSeed)
	if err != nil {
		t.Fatalf("seed error = %v", err)
	}
	want := "3 zones, 7 sensors, 5 rules, 14 readings"
	if !strings.Contains(out, want) {
		t.Errorf("seed output = %q, want it to contain %q", out, want)
	}

	// Importing twice upserts rather than failing.
	if _, err := execute(t, "--config", configPath, "seed", demoSeed); err != nil {
		t.Errorf("second seed error = %v", err)
	}
}

func TestSeedCmd_Errors(t *testing.T) {
	configPath := writeConfig(t, "")

	tests := []struct {
		name string
		args []string
	}{
		{"missing argument", []string{"--config", configPath, "seed"}},
		{"missing file", []string{"--config", configPath, "seed", "/nonexistent/seed.yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := execute(t, tt.args...); err == nil {
				t.Error("seed should fail")
			}
		})
	}
}

func TestSimulateDay_FromSeed(t *testing.T) {
	out, err := execute(t, "--config", "/nonexistent/config.yaml",
		"simulate", "day", "2026-10-01", "--seed", demoSeed)
	if err != nil {
		t.Fatalf("simulate day error = %v", err)
	}

	var report simulation.DayReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decoding report: %v\n%s", err, out)
	}
	if report.Date != "2026-10-01" {
		t.Errorf("Date = %q, want 2026-10-01", report.Date)
	}
	for _, zone := range []string{"bed_a", "bed_b"} {
		if _, ok := report.Zones[zone]; !ok {
			t.Errorf("Zones missing %q", zone)
		}
	}
	if report.Summary.Readings != 12 {
		t.Errorf("Summary.Readings = %d, want 12", report.Summary.Readings)
	}
}

func TestSimulateDay_FromDatabase(t *testing.T) {
	configPath := writeConfig(t, "")
	if _, err := execute(t, "--config", configPath, "seed", demoSeed); err != nil {
		t.Fatalf("seed error = %v", err)
	}

	out, err := execute(t, "--config", configPath, "simulate", "day", "2026-10-01", "--publish")
	if err != nil {
		t.Fatalf("simulate day error = %v", err)
	}
	var report simulation.DayReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decoding report: %v", err)
	}
	if report.Summary.Readings != 12 {
		t.Errorf("Summary.Readings = %d, want 12", report.Summary.Readings)
	}
}

func TestSimulateWeek_FromSeed(t *testing.T) {
	out, err := execute(t, "--config", "/nonexistent/config.yaml",
		"simulate", "week", "2026-10-01", "--days", "2", "--seed", demoSeed, "--window", "6")
	if err != nil {
		t.Fatalf("simulate week error = %v", err)
	}

	var report simulation.WeekReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decoding report: %v\n%s", err, out)
	}
	if len(report.PerDay) != 2 {
		t.Fatalf("len(PerDay) = %d, want 2", len(report.PerDay))
	}
	if report.PerDay[0].Date != "2026-10-01" || report.PerDay[1].Date != "2026-10-02" {
		t.Errorf("PerDay dates = %q, %q", report.PerDay[0].Date, report.PerDay[1].Date)
	}
	if f := report.PerDay[0].Zones["bed_a"].Forecast; len(f) != 6 {
		t.Errorf("len(bed_a forecast) = %d, want 6", len(f))
	}
}

func TestSimulate_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bad day", []string{"simulate", "day", "01/10/2026", "--seed", demoSeed}},
		{"missing day", []string{"simulate", "day"}},
		{"bad from", []string{"simulate", "week", "tomorrow", "--seed", demoSeed}},
		{"zero days", []string{"simulate", "week", "2026-10-01", "--days", "0", "--seed", demoSeed}},
		{"missing seed", []string{"simulate", "day", "2026-10-01", "--seed", "/nonexistent/seed.yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--config", "/nonexistent/config.yaml"}, tt.args...)
			if _, err := execute(t, args...); err == nil {
				t.Error("simulate should fail")
			}
		})
	}
}

func TestTokenCmd(t *testing.T) {
	configPath := writeConfig(t, `
security:
  jwt:
    enabled: true
    secret: "`+testSecret+`"
`)

	out, err := execute(t, "--config", configPath, "token", "--subject", "gateway-1", "--role", "operator", "--ttl", "1h")
	if err != nil {
		t.Fatalf("token error = %v", err)
	}

	claims, err := auth.ParseToken(strings.TrimSpace(out), testSecret)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.Subject != "gateway-1" {
		t.Errorf("Subject = %q, want gateway-1", claims.Subject)
	}
	if claims.Role != auth.RoleOperator {
		t.Errorf("Role = %q, want %q", claims.Role, auth.RoleOperator)
	}
	if ttl := time.Until(claims.ExpiresAt.Time); ttl < 59*time.Minute || ttl > time.Hour {
		t.Errorf("token lifetime = %v, want about 1h", ttl)
	}
}

func TestTokenCmd_Errors(t *testing.T) {
	withSecret := writeConfig(t, `
security:
  jwt:
    secret: "`+testSecret+`"
`)
	noSecret := writeConfig(t, "")

	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{"no secret", []string{"--config", noSecret, "token", "--subject", "x"}, auth.ErrNoSecret},
		{"bad role", []string{"--config", withSecret, "token", "--subject", "x", "--role", "root"}, auth.ErrInvalidRole},
		{"missing subject", []string{"--config", withSecret, "token"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			if err == nil {
				t.Fatal("token should fail")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
