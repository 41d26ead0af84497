package geocode

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedMutex_Exclusive(t *testing.T) {
	var km KeyedMutex

	unlock, err := km.Lock(context.Background(), "a")
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		second, err := km.Lock(context.Background(), "a")
		if err == nil {
			close(acquired)
			second()
		}
	}()

	select {
	case <-acquired:
		t.Fatal("второй владелец получил блокировку раньше освобождения")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("блокировка не была передана")
	}

	assert.Eventually(t, func() bool { return km.held() == 0 }, time.Second, 5*time.Millisecond)
}

func TestKeyedMutex_IndependentKeys(t *testing.T) {
	var km KeyedMutex

	unlockA, err := km.Lock(context.Background(), "a")
	require.NoError(t, err)
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	unlockB, err := km.Lock(ctx, "b")
	require.NoError(t, err)
	unlockB()
}

func TestKeyedMutex_ContextCancelled(t *testing.T) {
	var km KeyedMutex

	unlock, err := km.Lock(context.Background(), "a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = km.Lock(ctx, "a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock()
	assert.Equal(t, 0, km.held())
}

func TestKeyedMutex_Counter(t *testing.T) {
	var (
		km      KeyedMutex
		wg      sync.WaitGroup
		counter int
	)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := km.Lock(context.Background(), "cell")
			if err != nil {
				return
			}
			counter++
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
	assert.Equal(t, 0, km.held())
}
