package partition

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Gunvolt24/eventpipe/internal/domain"
)

func rec(v string) domain.Record { return domain.Record{Value: []byte(v), Timestamp: 1} }

func collect(t *testing.T, p *Partition, from int64, max int) ([]int64, []string) {
	t.Helper()
	seq, err := p.Read(from, max)
	require.NoError(t, err)
	var offs []int64
	var vals []string
	for off, r := range seq {
		offs = append(offs, off)
		vals = append(vals, string(r.Value))
	}
	return offs, vals
}

func TestAppend_DenseOffsets(t *testing.T) {
	t.Parallel()

	p := New("events", 0, 0)
	for i := 0; i < 5; i++ {
		off, err := p.Append(rec(fmt.Sprint(i)))
		require.NoError(t, err)
		require.Equal(t, int64(i), off)
	}
	require.Equal(t, int64(5), p.HighWatermark())
	require.Equal(t, int64(0), p.EarliestOffset())
}

func TestRead_Window(t *testing.T) {
	t.Parallel()

	p := New("events", 0, 0)
	for _, v := range []string{"a", "b", "c", "d"} {
		_, err := p.Append(rec(v))
		require.NoError(t, err)
	}

	offs, vals := collect(t, p, 1, 2)
	require.Equal(t, []int64{1, 2}, offs)
	require.Equal(t, []string{"b", "c"}, vals)

	offs, _ = collect(t, p, 0, 0)
	require.Equal(t, []int64{0, 1, 2, 3}, offs)

	offs, _ = collect(t, p, 4, 10)
	require.Empty(t, offs, "from == high watermark is empty, not an error")

	offs, _ = collect(t, p, 100, 10)
	require.Empty(t, offs)
}

func TestRead_NegativeOffset(t *testing.T) {
	t.Parallel()

	p := New("events", 0, 0)
	_, err := p.Read(-1, 10)
	require.True(t, errors.Is(err, domain.ErrInvalidOffset))
}

func TestRead_FiniteAndRestartable(t *testing.T) {
	t.Parallel()

	p := New("events", 0, 0)
	_, _ = p.Append(rec("a"))
	_, _ = p.Append(rec("b"))

	seq, err := p.Read(0, 0)
	require.NoError(t, err)

	// записи после вызова Read не попадают в последовательность
	_, _ = p.Append(rec("c"))

	for i := 0; i < 2; i++ {
		var got []string
		for _, r := range seq {
			got = append(got, string(r.Value))
		}
		require.Equal(t, []string{"a", "b"}, got)
	}
}

func TestRead_EarlyBreak(t *testing.T) {
	t.Parallel()

	p := New("events", 0, 0)
	for i := 0; i < 10; i++ {
		_, _ = p.Append(rec("x"))
	}
	seq, err := p.Read(0, 0)
	require.NoError(t, err)
	n := 0
	for range seq {
		n++
		if n == 3 {
			break
		}
	}
	require.Equal(t, 3, n)
}

func TestRecords_Immutable(t *testing.T) {
	t.Parallel()

	p := New("events", 0, 0)
	val := []byte("orig")
	_, err := p.Append(domain.Record{Value: val})
	require.NoError(t, err)
	val[0] = 'X'

	seq, _ := p.Read(0, 1)
	for _, r := range seq {
		require.Equal(t, "orig", string(r.Value))
		r.Value[0] = 'Y'
	}
	_, vals := collect(t, p, 0, 1)
	require.Equal(t, []string{"orig"}, vals)
}

func TestAppend_StorageFull(t *testing.T) {
	t.Parallel()

	p := New("events", 2, 2)
	_, err := p.Append(rec("a"))
	require.NoError(t, err)
	_, err = p.Append(rec("b"))
	require.NoError(t, err)
	_, err = p.Append(rec("c"))
	require.ErrorIs(t, err, domain.ErrStorageFull)
	require.Equal(t, 2, p.Len())
}

func TestAppend_Concurrent_NoGapsNoDuplicates(t *testing.T) {
	t.Parallel()

	p := New("events", 0, 0)
	const writers, perWriter = 8, 250

	var mu sync.Mutex
	seen := make(map[int64]struct{}, writers*perWriter)

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				off, err := p.Append(rec("v"))
				if err != nil {
					t.Error(err)
					return
				}
				mu.Lock()
				seen[off] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Len(t, seen, writers*perWriter)
	for i := int64(0); i < writers*perWriter; i++ {
		_, ok := seen[i]
		require.True(t, ok, "gap at offset %d", i)
	}
}
