package server

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrokerSubscribeUnsubscribe(t *testing.T) {
	t.Parallel()

	b := NewBroker()
	defer b.Close()

	assert.Equal(t, 0, b.ClientCount())
	ch := b.Subscribe()
	assert.Equal(t, 1, b.ClientCount())
	b.Unsubscribe(ch)
	assert.Equal(t, 0, b.ClientCount())

	_, open := <-ch
	assert.False(t, open, "unsubscribe closes the channel")
}

func TestBrokerPublishDelivery(t *testing.T) {
	t.Parallel()

	b := NewBroker()
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: EventPreviewUpdated, Data: updatedData{Generation: 3}})

	select {
	case msg := <-ch:
		assert.Equal(t, "event: preview.updated\ndata: {\"generation\":3,\"failed\":false}\n\n", string(msg))
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestBrokerClose(t *testing.T) {
	t.Parallel()

	b := NewBroker()
	ch := b.Subscribe()
	b.Close()
	b.Close()

	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, b.ClientCount())

	late := b.Subscribe()
	_, open = <-late
	assert.False(t, open, "subscribing after close yields a closed channel")
	b.Publish(Event{Type: EventHighlight})
}

func TestBrokerServeHTTP(t *testing.T) {
	t.Parallel()

	b := NewBroker()
	defer b.Close()
	srv := httptest.NewServer(b)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool { return b.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	b.Publish(Event{Type: EventHighlight, Data: highlightData{ID: "p-11"}})

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: highlight\n", line)
	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(line, `data: {"id":"p-11"}`), line)
}
