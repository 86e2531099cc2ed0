// Package worker_test tests the NATS synthesis worker.
package worker_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/book-expert/events"
	"github.com/book-expert/logger"
	"github.com/book-expert/speechkit/internal/worker"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSubject  = "speech.synthesis.requested"
	replyTimeout = 5 * time.Second
	noReplyWait  = 500 * time.Millisecond
)

var (
	errMockDownload   = errors.New("mock download error")
	errMockSynthesize = errors.New("mock synthesis error")
)

var testVoices = []string{"en-US-JennyNeural", "en-US-GuyNeural", "ja-JP-NanamiNeural"}

// mockObjectStore is an in-memory core.ObjectStore.
type mockObjectStore struct {
	mu                 sync.Mutex
	downloadShouldFail bool
	objects            map[string][]byte
	downloadedKey      string
	uploadedKey        string
}

func (m *mockObjectStore) Download(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.downloadShouldFail {
		return nil, errMockDownload
	}

	m.downloadedKey = key

	data, ok := m.objects[key]
	if !ok {
		return nil, os.ErrNotExist
	}

	return data, nil
}

func (m *mockObjectStore) Upload(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.uploadedKey = key
	m.objects[key] = data

	return nil
}

func (m *mockObjectStore) UploadFile(ctx context.Context, key, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return m.Upload(ctx, key, data)
}

func (m *mockObjectStore) snapshot() (string, string, int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.downloadedKey, m.uploadedKey, len(m.objects)
}

// mockSynthesizer writes fake audio for every SSML document it receives.
type mockSynthesizer struct {
	mu         sync.Mutex
	shouldFail bool
	ssml       []string
}

func (m *mockSynthesizer) SynthesizeSSML(_ context.Context, ssml, outPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shouldFail {
		return errMockSynthesize
	}

	m.ssml = append(m.ssml, ssml)

	return os.WriteFile(outPath, []byte("RIFF-sample-audio"), 0o600)
}

func (m *mockSynthesizer) received() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]string(nil), m.ssml...)
}

type harness struct {
	store *mockObjectStore
	synth *mockSynthesizer
	conn  *nats.Conn
}

func createTestNatsClient(t *testing.T) *nats.Conn {
	t.Helper()

	opts := test.DefaultTestOptions
	opts.Port = -1
	server := test.RunServer(&opts)

	natsConnection, err := nats.Connect(server.ClientURL())
	if err != nil {
		t.Fatalf("Failed to connect to test NATS server: %v", err)
	}

	t.Cleanup(func() {
		natsConnection.Close()
		server.Shutdown()
	})

	return natsConnection
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()

	testLogger, err := logger.New(t.TempDir(), "test-log.log")
	require.NoError(t, err)

	t.Cleanup(func() { _ = testLogger.Close() })

	return testLogger
}

// startWorker runs a worker until the test ends.
func startWorker(t *testing.T, configure func(*harness)) *harness {
	t.Helper()

	h := &harness{
		store: &mockObjectStore{objects: map[string][]byte{"page-1.txt": []byte("Hello there, friend.")}},
		synth: &mockSynthesizer{},
		conn:  createTestNatsClient(t),
	}

	if configure != nil {
		configure(h)
	}

	workerInstance, err := worker.NewNatsWorker(
		h.conn, testSubject, h.store, h.synth, testVoices,
		rand.New(rand.NewPCG(7, 11)), newTestLogger(t), 2,
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errChan := make(chan error, 1)

	go func() {
		errChan <- workerInstance.Run(ctx)
	}()

	select {
	case <-workerInstance.Ready():
	case <-time.After(replyTimeout):
		t.Fatal("worker did not subscribe")
	}

	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-errChan, "worker.Run should not error on graceful shutdown")
	})

	return h
}

func newEvent(textKey, voice string) *events.TextProcessedEvent {
	return &events.TextProcessedEvent{
		Header: events.EventHeader{
			Timestamp:  time.Now(),
			WorkflowID: uuid.NewString(),
			EventID:    uuid.NewString(),
			UserID:     "user-1",
			TenantID:   "tenant-1",
		},
		TextKey:    textKey,
		PageNumber: 3,
		TotalPages: 9,
		Voice:      voice,
	}
}

func request(t *testing.T, conn *nats.Conn, payload []byte, timeout time.Duration) (*nats.Msg, error) {
	t.Helper()

	return conn.Request(testSubject, payload, timeout)
}

func marshal(t *testing.T, event *events.TextProcessedEvent) []byte {
	t.Helper()

	data, err := json.Marshal(event)
	require.NoError(t, err)

	return data
}

func TestMessageHandler_Success(t *testing.T) {
	t.Parallel()

	h := startWorker(t, nil)
	testEvent := newEvent("page-1.txt", "")

	replyMsg, err := request(t, h.conn, marshal(t, testEvent), replyTimeout)
	require.NoError(t, err, "Request should succeed and receive a reply")

	var replyEvent events.AudioChunkCreatedEvent

	require.NoError(t, json.Unmarshal(replyMsg.Data, &replyEvent))

	downloadedKey, uploadedKey, _ := h.store.snapshot()
	assert.Equal(t, "page-1.txt", downloadedKey)
	assert.True(t, strings.HasSuffix(uploadedKey, ".wav"))
	assert.Equal(t, uploadedKey, replyEvent.AudioKey)
	assert.Equal(t, testEvent.Header.WorkflowID, replyEvent.Header.WorkflowID)
	assert.Equal(t, testEvent.Header.TenantID, replyEvent.Header.TenantID)
	assert.Equal(t, testEvent.PageNumber, replyEvent.PageNumber)
	assert.Equal(t, testEvent.TotalPages, replyEvent.TotalPages)

	data, err := h.store.Download(context.Background(), replyEvent.AudioKey)
	require.NoError(t, err)
	assert.Equal(t, []byte("RIFF-sample-audio"), data)

	ssml := h.synth.received()
	require.Len(t, ssml, 1)
	assert.Contains(t, ssml[0], "Hello there,")
	assert.Contains(t, ssml[0], `<break time="`)

	pickedCatalogVoice := false

	for _, voice := range testVoices {
		if strings.Contains(ssml[0], `<voice name="`+voice+`">`) {
			pickedCatalogVoice = true
		}
	}

	assert.True(t, pickedCatalogVoice, "an empty voice should be replaced by a catalog voice")
}

func TestMessageHandler_RequestedVoice(t *testing.T) {
	t.Parallel()

	h := startWorker(t, nil)

	_, err := request(t, h.conn, marshal(t, newEvent("page-1.txt", "ja-JP-NanamiNeural")), replyTimeout)
	require.NoError(t, err)

	ssml := h.synth.received()
	require.Len(t, ssml, 1)
	assert.Contains(t, ssml[0], `<voice name="ja-JP-NanamiNeural">`)
	assert.Contains(t, ssml[0], `xml:lang="ja-JP"`)
}

func TestMessageHandler_NormalizesText(t *testing.T) {
	t.Parallel()

	h := startWorker(t, func(h *harness) {
		h.store.objects["cited.txt"] = []byte("Sleep   matters [12] (Walker, 2017)\nfor memory")
	})

	_, err := request(t, h.conn, marshal(t, newEvent("cited.txt", "en-US-GuyNeural")), replyTimeout)
	require.NoError(t, err)

	ssml := h.synth.received()
	require.Len(t, ssml, 1)
	assert.NotContains(t, ssml[0], "[12]")
	assert.NotContains(t, ssml[0], "Walker")
	assert.Contains(t, ssml[0], "Sleep")
	assert.Contains(t, ssml[0], "memory.")
}

func TestMessageHandler_NoReplyOnFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		configure func(*harness)
		payload   func(t *testing.T) []byte
	}{
		{
			name: "unsupported voice",
			payload: func(t *testing.T) []byte {
				t.Helper()

				return marshal(t, newEvent("page-1.txt", "xx-XX-NobodyNeural"))
			},
		},
		{
			name:      "download failure",
			configure: func(h *harness) { h.store.downloadShouldFail = true },
			payload: func(t *testing.T) []byte {
				t.Helper()

				return marshal(t, newEvent("page-1.txt", ""))
			},
		},
		{
			name:      "synthesis failure",
			configure: func(h *harness) { h.synth.shouldFail = true },
			payload: func(t *testing.T) []byte {
				t.Helper()

				return marshal(t, newEvent("page-1.txt", ""))
			},
		},
		{
			name:      "only reference markers",
			configure: func(h *harness) { h.store.objects["refs.txt"] = []byte("[1] [2] [3]") },
			payload: func(t *testing.T) []byte {
				t.Helper()

				return marshal(t, newEvent("refs.txt", ""))
			},
		},
		{
			name:      "empty text",
			configure: func(h *harness) { h.store.objects["blank.txt"] = []byte("  \n ") },
			payload: func(t *testing.T) []byte {
				t.Helper()

				return marshal(t, newEvent("blank.txt", ""))
			},
		},
		{
			name: "malformed event",
			payload: func(t *testing.T) []byte {
				t.Helper()

				return []byte("{not json")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := startWorker(t, tt.configure)
			_, _, objectsBefore := h.store.snapshot()

			_, err := request(t, h.conn, tt.payload(t), noReplyWait)
			require.ErrorIs(t, err, nats.ErrTimeout)

			_, _, objectsAfter := h.store.snapshot()
			assert.Equal(t, objectsBefore, objectsAfter, "no audio should be uploaded")
		})
	}
}

func TestNewNatsWorker_RequiresVoices(t *testing.T) {
	t.Parallel()

	_, err := worker.NewNatsWorker(nil, testSubject, nil, nil, nil, rand.New(rand.NewPCG(1, 2)), nil, 1)
	require.ErrorIs(t, err, worker.ErrNoVoices)
}
