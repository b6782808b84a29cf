package pipeline

import (
	"archive/zip"
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ravishrisanjay/AWS-serverless-processor/internal/archive"
	"github.com/ravishrisanjay/AWS-serverless-processor/internal/entities"
	ierr "github.com/ravishrisanjay/AWS-serverless-processor/internal/errors"
	"github.com/ravishrisanjay/AWS-serverless-processor/internal/logger"
	"github.com/ravishrisanjay/AWS-serverless-processor/internal/naming"
	"github.com/ravishrisanjay/AWS-serverless-processor/internal/processor"
)

const (
	inBucket  = "ssking-in"
	outBucket = "ssking-out"
)

type memStore struct {
	mu      sync.Mutex
	objects map[entities.Location]entities.Object
	written map[entities.Location]entities.OutputArtifact
	puts    int
}

func newMemStore() *memStore {
	return &memStore{
		objects: map[entities.Location]entities.Object{},
		written: map[entities.Location]entities.OutputArtifact{},
	}
}

func (m *memStore) put(key string, body []byte, metadata map[string]string) {
	loc := entities.Location{Bucket: inBucket, Key: key}
	m.objects[loc] = entities.Object{Location: loc, Body: body, Metadata: metadata}
}

func (m *memStore) Download(_ context.Context, loc entities.Location) (entities.Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[loc]
	if !ok {
		return entities.Object{}, ierr.NewErrorf("no such key %s", loc.Key).Mark(ierr.ErrFetch)
	}
	return obj, nil
}

func (m *memStore) Upload(_ context.Context, a entities.OutputArtifact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.written[a.Destination] = a
	m.puts++
	return nil
}

func (m *memStore) output(key string) (entities.OutputArtifact, bool) {
	a, ok := m.written[entities.Location{Bucket: outBucket, Key: key}]
	return a, ok
}

type captured struct {
	mu   sync.Mutex
	errs []error
}

func (c *captured) Capture(err error, _ map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs = append(c.errs, err)
}

func newTestIngestor(store Store, concurrency int, reporter Reporter) *Ingestor {
	mapper := naming.Mapper{}
	router := Router{
		Image: ImageTransform{
			Encoder:      processor.NewJPEGTransformer(85),
			Mapper:       mapper,
			OutputBucket: outBucket,
		},
		Document: ArchiveTransform{
			Archiver:     archive.Zipper{},
			Mapper:       mapper,
			OutputBucket: outBucket,
		},
	}
	return NewIngestor(store, router, Options{DefaultWidth: 800, Concurrency: concurrency}, logger.NewNop(), reporter)
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{G: 180, A: uint8(255 * (x % 2))})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func envelope(id, key string) Envelope {
	return Envelope{ID: id, Body: notification(inBucket, key)}
}

func TestDocumentIsZipped(t *testing.T) {
	store := newMemStore()
	content := []byte("%PDF-1.4 quarterly report")
	store.put("report.pdf", content, nil)

	report := newTestIngestor(store, 1, nil).HandleBatch(context.Background(), []Envelope{envelope("m1", "report.pdf")})

	require.Len(t, report.Results, 1)
	assert.Equal(t, StatusProcessed, report.Results[0].Status)
	assert.Equal(t, naming.Mapper{}.DownloadKey("report.pdf"), report.Results[0].Destination.Key)

	art, ok := store.output("report.zip")
	require.True(t, ok)
	assert.Equal(t, "application/zip", art.ContentType)

	zr, err := zip.NewReader(bytes.NewReader(art.Body), int64(len(art.Body)))
	require.NoError(t, err)
	require.Len(t, zr.File, 1)
	assert.Equal(t, "report.pdf", zr.File[0].Name)
	rc, err := zr.File[0].Open()
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestImageIsResized(t *testing.T) {
	store := newMemStore()
	store.put("photo.png", pngBytes(t, 400, 300), map[string]string{"resize": "100"})

	report := newTestIngestor(store, 1, nil).HandleBatch(context.Background(), []Envelope{envelope("m1", "photo.png")})
	require.Equal(t, 1, report.Count(StatusProcessed))

	art, ok := store.output("photo.jpg")
	require.True(t, ok)
	assert.Equal(t, "image/jpeg", art.ContentType)

	img, err := jpeg.Decode(bytes.NewReader(art.Body))
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 75, img.Bounds().Dy())
}

func TestImageDefaultWidth(t *testing.T) {
	store := newMemStore()
	store.put("wide.jpeg", pngBytes(t, 80, 40), nil)

	newTestIngestor(store, 1, nil).HandleBatch(context.Background(), []Envelope{envelope("m1", "wide.jpeg")})

	art, ok := store.output("wide.jpg")
	require.True(t, ok)
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(art.Body))
	require.NoError(t, err)
	assert.Equal(t, 800, cfg.Width)
	assert.Equal(t, 400, cfg.Height)
}

func TestUnsupportedIsSkipped(t *testing.T) {
	store := newMemStore()
	store.put("notes.exe", []byte("MZ"), nil)
	reporter := &captured{}

	report := newTestIngestor(store, 1, reporter).HandleBatch(context.Background(), []Envelope{envelope("m1", "notes.exe")})

	require.Len(t, report.Results, 1)
	assert.Equal(t, StatusSkipped, report.Results[0].Status)
	assert.True(t, ierr.IsUnsupported(report.Results[0].Err))
	assert.Zero(t, store.puts)
	assert.Empty(t, reporter.errs)
}

func TestHeartbeatIsSkipped(t *testing.T) {
	store := newMemStore()
	report := newTestIngestor(store, 1, nil).HandleBatch(context.Background(), []Envelope{
		{ID: "t1", Body: `{"Event":"s3:TestEvent"}`},
	})
	assert.Equal(t, 1, report.Count(StatusSkipped))
	assert.Empty(t, report.Failed())
}

func TestBatchIsolation(t *testing.T) {
	for _, concurrency := range []int{1, 4} {
		store := newMemStore()
		store.put("a.txt", []byte("alpha"), nil)
		store.put("c.png", pngBytes(t, 20, 10), map[string]string{"resize": "10"})
		store.put("e.docx", []byte("docx"), nil)
		store.put("broken.png", []byte("not a png"), nil)
		reporter := &captured{}

		report := newTestIngestor(store, concurrency, reporter).HandleBatch(context.Background(), []Envelope{
			envelope("1", "a.txt"),
			{ID: "2", Body: "{{{"},
			envelope("3", "c.png"),
			envelope("4", "missing.pdf"),
			envelope("5", "e.docx"),
			envelope("6", "broken.png"),
		})

		require.Len(t, report.Results, 6)
		assert.Equal(t, 3, report.Count(StatusProcessed))
		assert.Equal(t, []string{"2", "4", "6"}, report.Failed())
		assert.Equal(t, "malformed event", report.Results[1].Reason)
		assert.Equal(t, "fetch failed", report.Results[3].Reason)
		assert.Equal(t, "transform failed", report.Results[5].Reason)
		assert.Len(t, reporter.errs, 3)

		for _, key := range []string{"a.zip", "c.jpg", "e.zip"} {
			_, ok := store.output(key)
			assert.True(t, ok, key)
		}
		_, ok := store.output("broken.jpg")
		assert.False(t, ok)
	}
}

func TestReprocessingOverwrites(t *testing.T) {
	store := newMemStore()
	store.put("report.pdf", []byte("v1"), nil)
	ing := newTestIngestor(store, 1, nil)

	batch := []Envelope{envelope("m1", "report.pdf")}
	first := ing.HandleBatch(context.Background(), batch)
	second := ing.HandleBatch(context.Background(), batch)

	assert.Equal(t, first.Results[0].Destination, second.Results[0].Destination)
	assert.Len(t, store.written, 1)
	assert.Equal(t, 2, store.puts)
}

type failingStore struct{ *memStore }

func (failingStore) Upload(context.Context, entities.OutputArtifact) error {
	return ierr.NewError("access denied").Mark(ierr.ErrWrite)
}

func TestWriteFailureIsIsolated(t *testing.T) {
	store := newMemStore()
	store.put("a.txt", []byte("alpha"), nil)

	report := newTestIngestor(failingStore{store}, 1, nil).HandleBatch(context.Background(), []Envelope{envelope("m1", "a.txt")})

	assert.Equal(t, []string{"m1"}, report.Failed())
	assert.Equal(t, "write failed", report.Results[0].Reason)
}

type panickingEncoder struct{}

func (panickingEncoder) Transform([]byte, int) (processor.Result, error) {
	panic("decoder bug")
}

func TestPanicIsContained(t *testing.T) {
	store := newMemStore()
	store.put("x.png", []byte("whatever"), nil)
	store.put("y.txt", []byte("fine"), nil)

	ing := newTestIngestor(store, 1, nil)
	ing.router.Image = ImageTransform{Encoder: panickingEncoder{}, OutputBucket: outBucket}

	report := ing.HandleBatch(context.Background(), []Envelope{envelope("1", "x.png"), envelope("2", "y.txt")})
	assert.Equal(t, []string{"1"}, report.Failed())
	assert.Equal(t, 1, report.Count(StatusProcessed))
}

func TestHugeResizeFailsOnlyItsOwnRecord(t *testing.T) {
	store := newMemStore()
	store.put("huge.png", pngBytes(t, 40, 30), map[string]string{"resize": "100000"})
	store.put("ok.txt", []byte("still here"), nil)
	rep := &captured{}

	report := newTestIngestor(store, 1, rep).HandleBatch(context.Background(), []Envelope{
		envelope("m1", "huge.png"),
		envelope("m2", "ok.txt"),
	})

	require.Len(t, report.Results, 2)
	assert.Equal(t, StatusFailed, report.Results[0].Status)
	assert.Equal(t, "transform failed", report.Results[0].Reason)
	assert.Equal(t, StatusProcessed, report.Results[1].Status)

	_, ok := store.output("huge.jpg")
	assert.False(t, ok)
	_, ok = store.output("ok.zip")
	assert.True(t, ok)
	assert.Len(t, rep.errs, 1)
}

func TestCanceledContextIsInterruptedNotReported(t *testing.T) {
	store := newMemStore()
	store.put("a.txt", []byte("a"), nil)
	rep := &captured{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := newTestIngestor(store, 1, rep).HandleBatch(ctx, []Envelope{envelope("m1", "a.txt")})

	require.Len(t, report.Results, 1)
	res := report.Results[0]
	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, "interrupted", res.Reason)
	assert.True(t, res.Interrupted())
	assert.Empty(t, rep.errs)
	assert.Zero(t, store.puts)
}
