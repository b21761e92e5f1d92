package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/pc-discussion-scheduler/internal/service"
	"github.com/noah-isme/pc-discussion-scheduler/pkg/config"
)

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{Secret: "cli-secret", Issuer: "pc-discussion-scheduler", Expiration: time.Hour},
		Scheduler: config.SchedulerConfig{
			SlotCount:       2,
			Capacity:        3,
			DeriveFloor:     true,
			EnforceCapacity: true,
			EmailColumn:     "hotcrp_email",
		},
	}
}

func writeInputs(t *testing.T) (string, string, string) {
	t.Helper()
	dir := t.TempDir()
	availability := filepath.Join(dir, "availability.csv")
	assignments := filepath.Join(dir, "assignments.csv")
	papers := filepath.Join(dir, "papers.csv")
	require.NoError(t, os.WriteFile(availability, []byte("hotcrp_email,1,2\na@pc.example,,0\nb@pc.example,OK,\n"), 0o644))
	require.NoError(t, os.WriteFile(assignments, []byte("paper,email,action\n1,a@pc.example,primary\n2,b@pc.example,primary\n3,a@pc.example,primary\n3,B@pc.example,secondary\n4,b@pc.example,clearreview\n"), 0o644))
	require.NoError(t, os.WriteFile(papers, []byte("ID,Title\n1,Alpha\n2,Beta\n3,Gamma\n"), 0o644))
	return availability, assignments, papers
}

func TestRunWritesGridAndDetail(t *testing.T) {
	availability, assignments, papers := writeInputs(t)
	dir := t.TempDir()
	out := filepath.Join(dir, "schedule.csv")
	detail := filepath.Join(dir, "detail.csv")

	var stdout bytes.Buffer
	err := run(context.Background(), []string{
		"-availability", availability,
		"-assignments", assignments,
		"-papers", papers,
		"-out", out,
		"-detail-out", detail,
	}, testConfig(), zap.NewNop(), &stdout)
	require.NoError(t, err)

	grid, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "1,2\n1,2\n3,\n", string(grid))

	listing, err := os.ReadFile(detail)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(listing)), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "Slot,Position,Paper,Hash,Title"))
	assert.Contains(t, lines[1], "Alpha")
	assert.Contains(t, lines[2], "Gamma")
	assert.Contains(t, lines[3], "Beta")

	assert.Contains(t, stdout.String(), "slot 1")
	assert.Contains(t, stdout.String(), "1, 3")
}

func TestRunWritesToStdout(t *testing.T) {
	availability, assignments, _ := writeInputs(t)

	var stdout bytes.Buffer
	err := run(context.Background(), []string{
		"-availability", availability,
		"-assignments", assignments,
		"-out", "-",
	}, testConfig(), zap.NewNop(), &stdout)
	require.NoError(t, err)
	assert.Equal(t, "1,2\n1,2\n3,\n", stdout.String())
}

func TestRunReportsUnscheduledWithoutFailing(t *testing.T) {
	availability, assignments, _ := writeInputs(t)

	var stdout bytes.Buffer
	err := run(context.Background(), []string{
		"-availability", availability,
		"-assignments", assignments,
		"-capacity", "2",
		"-out", filepath.Join(t.TempDir(), "schedule.csv"),
	}, testConfig(), zap.NewNop(), &stdout)
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "unscheduled: 3")
}

func TestRunPinnedFloor(t *testing.T) {
	availability, assignments, _ := writeInputs(t)

	var stdout bytes.Buffer
	err := run(context.Background(), []string{
		"-availability", availability,
		"-assignments", assignments,
		"-capacity", "2",
		"-floor", "0",
		"-out", filepath.Join(t.TempDir(), "schedule.csv"),
	}, testConfig(), zap.NewNop(), &stdout)
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "floor 0")
	assert.Contains(t, stdout.String(), "1 thresholds")
}

func TestRunRejectsBadInput(t *testing.T) {
	availability, _, _ := writeInputs(t)

	err := run(context.Background(), []string{"-availability", availability}, testConfig(), zap.NewNop(), &bytes.Buffer{})
	require.Error(t, err)

	err = run(context.Background(), []string{
		"-availability", availability,
		"-assignments", filepath.Join(t.TempDir(), "missing.csv"),
	}, testConfig(), zap.NewNop(), &bytes.Buffer{})
	require.Error(t, err)

	broken := filepath.Join(t.TempDir(), "assignments.csv")
	require.NoError(t, os.WriteFile(broken, []byte("paper,email\nx,a@pc.example\n"), 0o644))
	err = run(context.Background(), []string{
		"-availability", availability,
		"-assignments", broken,
		"-out", "-",
	}, testConfig(), zap.NewNop(), &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), broken)

	_, assignments, _ := writeInputs(t)
	err = run(context.Background(), []string{
		"-availability", availability,
		"-assignments", assignments,
		"-format", "docx",
	}, testConfig(), zap.NewNop(), &bytes.Buffer{})
	require.Error(t, err)
}

func TestIssueTokenPrintsValidToken(t *testing.T) {
	cfg := testConfig()
	var stdout bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-issue-token", "chair"}, cfg, zap.NewNop(), &stdout))

	auth := service.NewAuthService(zap.NewNop(), service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	claims, err := auth.ValidateToken(strings.TrimSpace(stdout.String()))
	require.NoError(t, err)
	assert.Equal(t, "chair", claims.Operator)
}
