// SPDX-License-Identifier: MIT

package mask

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/geoanonymizer/spatial"
)

type mapStore struct {
	data     map[string]spatial.Point
	failLoad error
	failSave error
}

func newMapStore() *mapStore {
	return &mapStore{data: make(map[string]spatial.Point)}
}

func (m *mapStore) Load(_ context.Context, key string) (spatial.Point, bool, error) {
	if m.failLoad != nil {
		return spatial.Point{}, false, m.failLoad
	}
	p, ok := m.data[key]
	return p, ok, nil
}

func (m *mapStore) Save(_ context.Context, key string, p spatial.Point) error {
	if m.failSave != nil {
		return m.failSave
	}
	m.data[key] = p
	return nil
}

func TestConsistentRepeats(t *testing.T) {
	ctx := context.Background()
	inner := WithinCircle(1)
	inner.Rand = testRand(20)
	c := Consistent{Inner: inner, Store: newMapStore()}

	origin := spatial.New(48.2, 16.37)
	first, err := c.Apply(ctx, origin)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		got, err := c.Apply(ctx, origin)
		require.NoError(t, err)
		assert.Equal(t, first, got, "repeated coordinates must mask identically")
	}

	other, err := c.Apply(ctx, spatial.New(40, -74))
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestConsistentSharedStore(t *testing.T) {
	ctx := context.Background()
	store := newMapStore()
	origin := spatial.New(48.2, 16.37)

	a := Consistent{Inner: Gaussian(1, 0.5), Store: store}
	first, err := a.Apply(ctx, origin)
	require.NoError(t, err)

	// A second run over the same store reuses the saved mapping.
	b := Consistent{Inner: Gaussian(1, 0.5), Store: store}
	got, err := b.Apply(ctx, origin)
	require.NoError(t, err)
	assert.Equal(t, first, got)
}

func TestConsistentErrors(t *testing.T) {
	ctx := context.Background()
	origin := spatial.New(1, 2)

	_, err := Consistent{}.Apply(ctx, origin)
	assert.ErrorIs(t, err, ErrNoStore)
	_, err = Consistent{Inner: None}.Apply(ctx, origin)
	assert.ErrorIs(t, err, ErrNoStore)
	_, err = Consistent{Store: newMapStore()}.Apply(ctx, origin)
	assert.ErrorIs(t, err, ErrNoStore)

	boom := errors.New("boom")

	st := newMapStore()
	st.failLoad = boom
	_, err = Consistent{Inner: None, Store: st}.Apply(ctx, origin)
	assert.ErrorIs(t, err, boom)

	st = newMapStore()
	st.failSave = boom
	_, err = Consistent{Inner: None, Store: st}.Apply(ctx, origin)
	assert.ErrorIs(t, err, boom)
}
