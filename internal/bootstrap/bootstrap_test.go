package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"studentrecords/internal/config"
	"studentrecords/internal/domain/auth"
	"studentrecords/internal/domain/record"
	"studentrecords/pkg/logger"
)

func TestNew_SQLiteWithMemoryMirror(t *testing.T) {
	cfg := config.Default()
	cfg.SQLitePath = filepath.Join(t.TempDir(), "records.db")
	cfg.Mirror.Backend = config.MirrorMemory
	ctx := context.Background()

	app, err := New(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close(ctx) })

	require.NoError(t, app.Store.Ping(ctx))

	rec, err := app.Records.Add(ctx, record.Fields{FirstName: "Ann", LastName: "Lee"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.ID)

	_, tokens, err := app.Auth.Register(ctx, auth.RegisterRequest{
		Username: "msgarcia", Password: "correct horse", PasswordConfirm: "correct horse",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
}

func TestNew_UnknownMirror(t *testing.T) {
	cfg := config.Default()
	cfg.SQLitePath = filepath.Join(t.TempDir(), "records.db")
	cfg.Mirror.Backend = "redis"

	_, err := New(context.Background(), cfg)
	assert.ErrorContains(t, err, "unknown mirror backend")
}

func TestNew_DisabledMirrorWarns(t *testing.T) {
	cfg := config.Default()
	cfg.SQLitePath = filepath.Join(t.TempDir(), "records.db")
	cfg.Mirror.Backend = config.MirrorNone

	core, logs := observer.New(zapcore.InfoLevel)
	ctx := logger.WithLogger(context.Background(), logger.NewFromCore(core))

	app, err := New(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close(ctx) })

	warnings := logs.FilterLevelExact(zapcore.WarnLevel).FilterMessageSnippet("mirroring disabled")
	assert.Equal(t, 1, warnings.Len())
}
