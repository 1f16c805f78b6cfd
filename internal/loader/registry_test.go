package loader_test

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/specialistvlad/rendergraph/internal/loader"
	"github.com/specialistvlad/rendergraph/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistry(t *testing.T) (*loader.Registry, *testutil.FakeOpener, string) {
	t.Helper()
	opener := testutil.NewFakeOpener(map[string]uintptr{"rg_next_frame": 0x1000})
	r := loader.NewRegistry(opener)
	require.False(t, r.Initialize())
	path := filepath.Join(t.TempDir(), "graph.so")
	return r, opener, path
}

func TestInitialize_Idempotent(t *testing.T) {
	r := loader.NewRegistry(testutil.NewFakeOpener(nil))

	assert.False(t, r.Initialize())
	assert.True(t, r.Initialize())
}

func TestAcquire_RequiresInitialize(t *testing.T) {
	r := loader.NewRegistry(testutil.NewFakeOpener(nil))

	err := r.Acquire("graph.so")

	assert.ErrorIs(t, err, loader.ErrNotInitialized)
	assert.Equal(t, 0, r.RefCount("graph.so"))
}

func TestAcquireRelease_Once(t *testing.T) {
	// --- Arrange ---
	r, opener, path := newRegistry(t)

	// --- Act ---
	require.NoError(t, r.Acquire(path))
	sym, err := r.ResolveSymbol(path, "rg_next_frame")
	require.NoError(t, err)
	require.NoError(t, r.Release(path))

	// --- Assert ---
	assert.Equal(t, uintptr(0x1000), sym)
	assert.Equal(t, 0, r.RefCount(path))
	assert.Equal(t, 1, opener.Opens(path))
	assert.Equal(t, 1, opener.Closes(path))

	_, err = r.ResolveSymbol(path, "rg_next_frame")
	assert.ErrorIs(t, err, loader.ErrModuleNotLoaded)
	assert.Empty(t, r.Loaded())
}

func TestAcquire_SharesHandle(t *testing.T) {
	r, opener, path := newRegistry(t)

	require.NoError(t, r.Acquire(path))
	require.NoError(t, r.Acquire(path))

	assert.Equal(t, 2, r.RefCount(path))
	assert.Equal(t, 1, opener.Opens(path))

	require.NoError(t, r.Release(path))
	assert.True(t, opener.IsOpen(path), "module must stay loaded while referenced")
	require.NoError(t, r.Release(path))
	assert.False(t, opener.IsOpen(path))
}

func TestAcquire_PathSpellingsShareEntry(t *testing.T) {
	r, opener, path := newRegistry(t)
	dir, base := filepath.Split(path)
	other := filepath.Join(dir, ".", "sub", "..", base)

	require.NoError(t, r.Acquire(path))
	require.NoError(t, r.Acquire(other))

	assert.Equal(t, 2, r.RefCount(path))
	assert.Equal(t, 1, opener.Opens(path))
	assert.Equal(t, []string{path}, r.Loaded())

	require.NoError(t, r.Release(other))
	require.NoError(t, r.Release(path))
}

func TestAcquire_OpenFailure(t *testing.T) {
	r, opener, path := newRegistry(t)
	opener.Fail = map[string]error{path: errors.New("file not found")}

	err := r.Acquire(path)

	var loadErr *loader.LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, path, loadErr.Path)
	assert.Contains(t, err.Error(), "file not found")
	assert.Equal(t, 0, r.RefCount(path))
}

func TestResolveSymbol_NotFound(t *testing.T) {
	r, _, path := newRegistry(t)
	require.NoError(t, r.Acquire(path))
	t.Cleanup(func() { r.Release(path) })

	_, err := r.ResolveSymbol(path, "rg_missing")

	assert.ErrorIs(t, err, loader.ErrSymbolNotFound)
	assert.Contains(t, err.Error(), "rg_missing")
}

func TestRelease_NeverAcquiredPanics(t *testing.T) {
	r, _, path := newRegistry(t)

	defer func() {
		rec := recover()
		require.NotNil(t, rec)
		lifetimeErr, ok := rec.(*loader.LifetimeError)
		require.True(t, ok, "panic value is %T", rec)
		assert.Equal(t, "release", lifetimeErr.Op)
	}()
	r.Release(path)
}

func TestRelease_TooManyTimesPanics(t *testing.T) {
	r, _, path := newRegistry(t)
	require.NoError(t, r.Acquire(path))
	require.NoError(t, r.Release(path))

	assert.Panics(t, func() { r.Release(path) })
}

func TestTeardown(t *testing.T) {
	t.Run("with outstanding references panics", func(t *testing.T) {
		r, _, path := newRegistry(t)
		require.NoError(t, r.Acquire(path))

		defer func() {
			rec := recover()
			lifetimeErr, ok := rec.(*loader.LifetimeError)
			require.True(t, ok, "panic value is %T", rec)
			assert.Equal(t, "teardown", lifetimeErr.Op)
			assert.Contains(t, lifetimeErr.Error(), path)
		}()
		r.Teardown()
	})

	t.Run("clean teardown resets the registry", func(t *testing.T) {
		r, _, path := newRegistry(t)
		require.NoError(t, r.Acquire(path))
		require.NoError(t, r.Release(path))

		r.Teardown()

		assert.ErrorIs(t, r.Acquire(path), loader.ErrNotInitialized)
		assert.False(t, r.Initialize())
	})

	t.Run("uninitialized teardown is a no-op", func(t *testing.T) {
		r := loader.NewRegistry(testutil.NewFakeOpener(nil))
		assert.NotPanics(t, func() { r.Teardown() })
	})
}

func TestUse(t *testing.T) {
	r, opener, path := newRegistry(t)

	release, err := r.Use(path)
	require.NoError(t, err)
	assert.Equal(t, 1, r.RefCount(path))

	require.NoError(t, release())
	require.NoError(t, release())
	assert.Equal(t, 0, r.RefCount(path))
	assert.Equal(t, 1, opener.Closes(path))
}

func TestConcurrentAcquire_NoPrematureUnload(t *testing.T) {
	// --- Arrange ---
	r, opener, path := newRegistry(t)
	start := make(chan struct{})

	// --- Act ---
	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			assert.NoError(t, r.Acquire(path))
		}()
	}
	close(start)
	wg.Wait()

	// --- Assert ---
	assert.Equal(t, 2, r.RefCount(path))
	assert.Equal(t, 1, opener.Opens(path))

	require.NoError(t, r.Release(path))
	_, err := r.ResolveSymbol(path, "rg_next_frame")
	assert.NoError(t, err, "still loaded after the first release")
	assert.Equal(t, 0, opener.Closes(path))

	require.NoError(t, r.Release(path))
	_, err = r.ResolveSymbol(path, "rg_next_frame")
	assert.ErrorIs(t, err, loader.ErrModuleNotLoaded)
	assert.Equal(t, 1, opener.Closes(path))
}

func TestConcurrentAcquireRelease_Stress(t *testing.T) {
	r, opener, path := newRegistry(t)

	// A long lived holder keeps the module loaded throughout.
	require.NoError(t, r.Acquire(path))

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 200 {
				if !assert.NoError(t, r.Acquire(path)) {
					return
				}
				_, err := r.ResolveSymbol(path, "rg_next_frame")
				assert.NoError(t, err)
				assert.NoError(t, r.Release(path))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, r.RefCount(path))
	assert.Equal(t, 1, opener.Opens(path))
	assert.Equal(t, 0, opener.Closes(path))

	require.NoError(t, r.Release(path))
	assert.Equal(t, 1, opener.Closes(path))
}
