package logger

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeed_DropsOldest(t *testing.T) {
	f := NewFeed(3)
	for i := 0; i < 5; i++ {
		f.Push(Entry{Message: fmt.Sprintf("m%d", i)})
	}

	got := f.Recent(SourceLog, 0)
	require.Len(t, got, 3)
	assert.Equal(t, "m2", got[0].Message)
	assert.Equal(t, "m4", got[2].Message)
	assert.Equal(t, 3, f.Len())
	assert.Equal(t, uint64(5), f.Version())
}

func TestFeed_RecentFiltersBySource(t *testing.T) {
	f := NewFeed(10)
	f.Push(Entry{Message: "log1"})
	f.Push(Entry{Message: "api1", Source: SourceAPI})
	f.Push(Entry{Message: "log2"})
	f.Push(Entry{Message: "api2", Source: SourceAPI})
	f.Push(Entry{Message: "log3"})

	logs := f.Recent(SourceLog, 2)
	require.Len(t, logs, 2)
	assert.Equal(t, "log2", logs[0].Message)
	assert.Equal(t, "log3", logs[1].Message)

	api := f.Recent(SourceAPI, 0)
	require.Len(t, api, 2)
	assert.Equal(t, "api1", api[0].Message)
}

func TestFeed_DefaultSize(t *testing.T) {
	f := NewFeed(0)
	for i := 0; i < DefaultFeedSize+10; i++ {
		f.Push(Entry{})
	}
	assert.Equal(t, DefaultFeedSize, f.Len())
}

func TestFeed_ConcurrentPush(t *testing.T) {
	f := NewFeed(50)
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				f.Push(Entry{Message: "x"})
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, f.Len())
	assert.Equal(t, uint64(400), f.Version())
}
