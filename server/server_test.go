package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gekko3d/voxelverse/editor"
	"github.com/gekko3d/voxelverse/merge"
	"github.com/gekko3d/voxelverse/world"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	interactions []error
	merges       []merge.Result
}

func (r *recorder) ObserveInteraction(out editor.Outcome, err error) {
	r.interactions = append(r.interactions, err)
}

func (r *recorder) ObserveMerge(res merge.Result) {
	r.merges = append(r.merges, res)
}

func newTestServer(t *testing.T, opts Options) (*editor.Editor, *httptest.Server) {
	t.Helper()
	ed := editor.New(0)
	ts := httptest.NewServer(New(ed, opts).Handler())
	t.Cleanup(ts.Close)
	return ed, ts
}

func do(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestServer_AddRemoveUndo(t *testing.T) {
	ed, ts := newTestServer(t, Options{})

	resp, body := do(t, http.MethodPost, ts.URL+"/voxels", `{"position":[1,0,2]}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var v world.Voxel
	require.NoError(t, json.Unmarshal(body, &v))
	assert.Equal(t, world.Position{1, 0, 2}, v.Position)
	assert.Equal(t, world.DefaultPalette[0], v.Color)

	resp, _ = do(t, http.MethodPost, ts.URL+"/voxels", `{"position":[1,0,2],"color":"#000000"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body = do(t, http.MethodGet, ts.URL+"/voxels/"+v.ID, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), v.ID)

	resp, _ = do(t, http.MethodDelete, ts.URL+"/voxels/nonexistent", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, http.MethodDelete, ts.URL+"/voxels/"+v.ID, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Zero(t, ed.Len())

	resp, body = do(t, http.MethodPost, ts.URL+"/undo", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"undone":true,"count":1,"history":1}`, string(body))

	resp, body = do(t, http.MethodGet, ts.URL+"/world/count", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"count":1}`, string(body))

	_, body = do(t, http.MethodGet, ts.URL+"/world", "")
	var w []map[string]any
	require.NoError(t, json.Unmarshal(body, &w))
	require.Len(t, w, 1)
	assert.Equal(t, "SOLID", w[0]["type"])
}

func TestServer_BadBody(t *testing.T) {
	_, ts := newTestServer(t, Options{})
	resp, body := do(t, http.MethodPost, ts.URL+"/voxels", `{"position":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "error")
}

func TestServer_InteractAndPreview(t *testing.T) {
	rec := &recorder{}
	ed, ts := newTestServer(t, Options{Observer: rec})

	resp, body := do(t, http.MethodPost, ts.URL+"/preview", `{"point":[0.3,-0.5,-0.2],"normal":[0,1,0],"ground":true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"position":[0,0,0],"occupied":false}`, string(body))

	resp, body = do(t, http.MethodPost, ts.URL+"/interact", `{"point":[0.3,-0.5,-0.2],"normal":[0,1,0],"ground":true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out outcomeResponse
	require.NoError(t, json.Unmarshal(body, &out))
	require.NotNil(t, out.Added)
	assert.Equal(t, world.Position{0, 0, 0}, out.Added.Position)

	resp, _ = do(t, http.MethodPost, ts.URL+"/interact", `{"point":[0.1,0.5,0],"normal":[0,1,0],"voxel_id":"`+out.Added.ID+`"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, ed.Contains(world.Position{0, 1, 0}))

	resp, _ = do(t, http.MethodPost, ts.URL+"/interact", `{"point":[0.5,0.1,0],"normal":[1,0,0],"voxel_id":"`+out.Added.ID+`"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = do(t, http.MethodPost, ts.URL+"/interact", `{"point":[0.5,0.1,0],"normal":[1,0,0],"voxel_id":"`+out.Added.ID+`"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body = do(t, http.MethodPost, ts.URL+"/interact", `{"voxel_id":"`+out.Added.ID+`","alt":true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), out.Added.ID)
	assert.Equal(t, 2, ed.Len())

	resp, _ = do(t, http.MethodPost, ts.URL+"/interact", `{"miss":true}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, ed.Len())

	require.Len(t, rec.interactions, 6)
	assert.ErrorIs(t, rec.interactions[3], world.ErrAlreadyOccupied)
}

func TestServer_PreviewRemoveTool(t *testing.T) {
	_, ts := newTestServer(t, Options{})

	resp, body := do(t, http.MethodPut, ts.URL+"/selection", `{"tool":"REMOVE","material":"GLASS"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"color":"#ef4444","material":"GLASS","tool":"REMOVE"}`, string(body))

	resp, _ = do(t, http.MethodPost, ts.URL+"/preview", `{"point":[0,-0.5,0],"normal":[0,1,0],"ground":true}`)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	_, body = do(t, http.MethodGet, ts.URL+"/selection", "")
	assert.Contains(t, string(body), `"REMOVE"`)
}

func TestServer_Click(t *testing.T) {
	ed, ts := newTestServer(t, Options{})

	// straight through the center of the default view lands near the origin
	resp, _ := do(t, http.MethodPost, ts.URL+"/click", `{"x":400,"y":300,"width":800,"height":600}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, ed.Len())

	resp, _ = do(t, http.MethodPost, ts.URL+"/click", `{"x":1,"y":1,"width":0,"height":0}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_ClearAndUndo(t *testing.T) {
	ed, ts := newTestServer(t, Options{})
	for i := 0; i < 3; i++ {
		_, err := ed.Add(world.Position{i, 0, 0})
		require.NoError(t, err)
	}

	resp, _ := do(t, http.MethodPost, ts.URL+"/clear", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Zero(t, ed.Len())

	do(t, http.MethodPost, ts.URL+"/undo", "")
	assert.Equal(t, 3, ed.Len())
}

func TestServer_Structures(t *testing.T) {
	rec := &recorder{}
	ed, ts := newTestServer(t, Options{Observer: rec})
	_, err := ed.Add(world.Position{2, 0, 0})
	require.NoError(t, err)
	_, err = ed.Add(world.Position{5, 0, 0})
	require.NoError(t, err)

	resp, body := do(t, http.MethodPost, ts.URL+"/structures", `{
		"message":"arch",
		"voxels":[
			{"x":2.2,"y":0.1,"z":-0.3,"color":"#ffffff","type":"SOLID"},
			{"x":3,"y":0,"z":0,"color":"#ffffff"},
			{"x":"up","y":0,"z":0,"color":"#ffffff"}
		]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var mr mergeResponse
	require.NoError(t, json.Unmarshal(body, &mr))
	assert.Equal(t, "arch", mr.Message)
	assert.Len(t, mr.Inserted, 1)
	assert.Equal(t, 1, mr.Collisions)
	assert.Equal(t, 1, mr.Dropped)
	assert.Equal(t, 3, mr.Count)
	require.Len(t, rec.merges, 1)

	resp, body = do(t, http.MethodPost, ts.URL+"/structures", `{"message":"nothing to build"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"inserted":[]`)
	assert.Equal(t, 3, ed.HistoryLen())
	assert.Len(t, rec.merges, 1)

	resp, _ = do(t, http.MethodPost, ts.URL+"/structures", `[]`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

type stubStructures struct {
	message string
	err     error
}

func (s *stubStructures) Submit(ctx context.Context, message string, batch []merge.Candidate) (merge.Result, error) {
	s.message = message
	if s.err != nil {
		return merge.Result{}, s.err
	}
	return merge.Result{Plan: merge.Plan{Collisions: len(batch)}}, nil
}

func TestServer_StructuresDelegates(t *testing.T) {
	stub := &stubStructures{}
	ed, ts := newTestServer(t, Options{Structures: stub})

	resp, body := do(t, http.MethodPost, ts.URL+"/structures", `{"message":"m","voxels":[{"x":0,"y":0,"z":0,"color":"#fff"}]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "m", stub.message)
	assert.Contains(t, string(body), `"collisions":1`)
	assert.Zero(t, ed.Len())

	stub.err = errors.New("closed")
	resp, _ = do(t, http.MethodPost, ts.URL+"/structures", `{"message":"m","voxels":[{"x":0,"y":0,"z":0,"color":"#fff"}]}`)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestServer_VoxUpload(t *testing.T) {
	ed, ts := newTestServer(t, Options{})

	resp, _ := do(t, http.MethodPost, ts.URL+"/structures/vox", "not a vox file")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, ts.URL+"/structures/vox?model=x", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := do(t, http.MethodPost, ts.URL+"/structures/vox", string(minimalVox()))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, 2, ed.Len())
}

// minimalVox is a 2x1x1 model with two voxels and no palette chunk.
func minimalVox() []byte {
	var children bytes.Buffer
	chunk := func(id string, content []byte) {
		children.WriteString(id)
		children.Write(le32(uint32(len(content))))
		children.Write(le32(0))
		children.Write(content)
	}
	size := append(append(le32(2), le32(1)...), le32(1)...)
	chunk("SIZE", size)
	xyzi := append(le32(2), 0, 0, 0, 1, 1, 0, 0, 1)
	chunk("XYZI", xyzi)

	var out bytes.Buffer
	out.WriteString("VOX ")
	out.Write(le32(150))
	out.WriteString("MAIN")
	out.Write(le32(0))
	out.Write(le32(uint32(children.Len())))
	out.Write(children.Bytes())
	return out.Bytes()
}

func le32(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

func TestServer_Export(t *testing.T) {
	ed, ts := newTestServer(t, Options{})
	_, err := ed.Add(world.Position{0, 0, 0})
	require.NoError(t, err)

	resp, body := do(t, http.MethodGet, ts.URL+"/export.glb", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "model/gltf-binary", resp.Header.Get("Content-Type"))
	assert.Equal(t, "glTF", string(body[:4]))

	resp, body = do(t, http.MethodGet, ts.URL+"/export.gltf", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"asset"`)
}

func TestServer_MetricsAndMisc(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_total", Help: "test"})
	reg.MustRegister(c)
	c.Inc()

	_, ts := newTestServer(t, Options{Gatherer: reg, Palette: []world.Color{world.RGB(0x123456)}})

	resp, body := do(t, http.MethodGet, ts.URL+"/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "test_total 1")

	_, body = do(t, http.MethodGet, ts.URL+"/palette", "")
	assert.JSONEq(t, `["#123456"]`, string(body))

	_, body = do(t, http.MethodGet, ts.URL+"/world/context", "")
	assert.Contains(t, string(body), "empty")

	resp, _ = do(t, http.MethodGet, ts.URL+"/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Content-Type"))
}

func TestServer_StartShutdown(t *testing.T) {
	s := New(editor.New(0), Options{Addr: "127.0.0.1:0"})
	require.NoError(t, s.Start())

	resp, err := http.Get("http://" + s.Addr() + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
	require.NoError(t, s.Shutdown(ctx))
}
