package save

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// exerciseStore runs the behavior every Store must share.
func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNoSlot)

	require.NoError(t, s.Put(ctx, "slot1", []byte(`{"a":1}`)))
	require.NoError(t, s.Put(ctx, "auto", []byte(`{"b":2}`)))
	require.NoError(t, s.Put(ctx, "slot1", []byte(`{"a":3}`)))

	data, err := s.Get(ctx, "slot1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":3}`, string(data))

	slots, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"auto", "slot1"}, slots)

	require.NoError(t, s.Delete(ctx, "auto"))
	assert.ErrorIs(t, s.Delete(ctx, "auto"), ErrNoSlot)

	assert.Error(t, s.Put(ctx, "../escape", []byte("x")), "slot names are restricted")
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	exerciseStore(t, s)
}

func TestRedisStore(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	s := NewRedisStore(mr.Addr(), "test", testLogger())
	defer s.Close()
	require.NoError(t, s.Ping(context.Background()))

	exerciseStore(t, s)
	assert.True(t, mr.Exists("test:save:slot1"), "keys use the <prefix>:save:<slot> layout")
}

func TestRedisStore_SaveLoad(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	s := NewRedisStore(mr.Addr(), "", testLogger())
	defer s.Close()

	lib := testLibrary(t)
	g := newGame(t, lib)
	g.SetStat("gold", 7)
	data, err := Save(g)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "quick", data))
	got, err := s.Get(ctx, "quick")
	require.NoError(t, err)

	sd, err := Load(got)
	require.NoError(t, err)
	g2 := newGame(t, lib)
	require.NoError(t, Apply(g2, sd))
	assert.Equal(t, 7.0, g2.Stat("gold"))
	assert.True(t, mr.Exists("talecraft:save:quick"))
}
