package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gekko3d/voxelverse/architect"
	"github.com/gekko3d/voxelverse/export"
	"github.com/gekko3d/voxelverse/merge"
	"github.com/gekko3d/voxelverse/placement"
	"github.com/gekko3d/voxelverse/vox"
	"github.com/gekko3d/voxelverse/world"
	"github.com/go-chi/chi/v5"
	"github.com/go-gl/mathgl/mgl32"
)

// maxBody caps request bodies, .vox uploads included.
const maxBody = 16 << 20

type hitRequest struct {
	Point   mgl32.Vec3 `json:"point"`
	Normal  mgl32.Vec3 `json:"normal"`
	VoxelID string     `json:"voxel_id,omitempty"`
	Ground  bool       `json:"ground,omitempty"`
	Miss    bool       `json:"miss,omitempty"`
	Alt     bool       `json:"alt,omitempty"`
}

func (req hitRequest) hit() *placement.Hit {
	if req.Miss {
		return nil
	}
	return &placement.Hit{
		Point:   req.Point,
		Normal:  req.Normal,
		VoxelID: req.VoxelID,
		Ground:  req.Ground,
	}
}

type clickRequest struct {
	X      float64           `json:"x"`
	Y      float64           `json:"y"`
	Width  int               `json:"width"`
	Height int               `json:"height"`
	Camera *placement.Camera `json:"camera,omitempty"`
	Alt    bool              `json:"alt,omitempty"`
}

type addRequest struct {
	Position world.Position  `json:"position"`
	Color    *world.Color    `json:"color,omitempty"`
	Material *world.Material `json:"material,omitempty"`
}

type outcomeResponse struct {
	Added     *world.Voxel `json:"added,omitempty"`
	RemovedID string       `json:"removed_id,omitempty"`
	Count     int          `json:"count"`
}

type mergeResponse struct {
	Message    string        `json:"message,omitempty"`
	Inserted   []world.Voxel `json:"inserted"`
	Collisions int           `json:"collisions"`
	Overridden int           `json:"overridden"`
	Invalid    int           `json:"invalid"`
	Dropped    int           `json:"dropped"`
	Count      int           `json:"count"`
}

func (s *Server) getWorld(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ed.World())
}

func (s *Server) getCount(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"count": s.ed.Len()})
}

func (s *Server) getContext(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"context": architect.Describe(s.ed.World())})
}

func (s *Server) getVoxel(w http.ResponseWriter, r *http.Request) {
	v, ok := s.ed.Voxel(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, world.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) addVoxel(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sel := s.ed.Selection()
	color, mat := sel.Color, sel.Material
	if req.Color != nil {
		color = *req.Color
	}
	if req.Material != nil {
		mat = *req.Material
	}
	v, err := s.ed.AddVoxel(req.Position, color, mat)
	if errors.Is(err, world.ErrAlreadyOccupied) {
		writeError(w, http.StatusConflict, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (s *Server) removeVoxel(w http.ResponseWriter, r *http.Request) {
	if err := s.ed.Remove(chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) interact(w http.ResponseWriter, r *http.Request) {
	var req hitRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.respondOutcome(w, req.hit(), req.Alt)
}

// click hit-tests a viewport pixel against the world before interacting.
func (s *Server) click(w http.ResponseWriter, r *http.Request) {
	var req clickRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Width <= 0 || req.Height <= 0 {
		writeError(w, http.StatusBadRequest, errors.New("width and height must be positive"))
		return
	}
	cam := placement.DefaultCamera()
	if req.Camera != nil {
		cam = *req.Camera
	}
	hit := s.ed.Pick(placement.PickRay(req.X, req.Y, req.Width, req.Height, cam))
	s.respondOutcome(w, hit, req.Alt)
}

func (s *Server) respondOutcome(w http.ResponseWriter, hit *placement.Hit, alt bool) {
	out, err := s.ed.Interact(hit, alt)
	if s.opts.Observer != nil {
		s.opts.Observer.ObserveInteraction(out, err)
	}
	switch {
	case errors.Is(err, world.ErrAlreadyOccupied):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, world.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
	default:
		writeJSON(w, http.StatusOK, outcomeResponse{Added: out.Added, RemovedID: out.RemovedID, Count: s.ed.Len()})
	}
}

func (s *Server) preview(w http.ResponseWriter, r *http.Request) {
	var req hitRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	pos, ok := s.ed.Preview(req.hit())
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"position": pos,
		"occupied": s.ed.Contains(pos),
	})
}

func (s *Server) clear(w http.ResponseWriter, r *http.Request) {
	s.ed.Clear()
	writeJSON(w, http.StatusOK, map[string]int{"count": 0})
}

func (s *Server) undo(w http.ResponseWriter, r *http.Request) {
	undone := s.ed.Undo()
	writeJSON(w, http.StatusOK, map[string]any{
		"undone":  undone,
		"count":   s.ed.Len(),
		"history": s.ed.HistoryLen(),
	})
}

func (s *Server) getSelection(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ed.Selection())
}

func (s *Server) putSelection(w http.ResponseWriter, r *http.Request) {
	sel := s.ed.Selection()
	if !decodeJSON(w, r, &sel) {
		return
	}
	s.ed.SetSelection(sel)
	writeJSON(w, http.StatusOK, sel)
}

func (s *Server) getPalette(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.opts.Palette)
}

func (s *Server) postStructure(w http.ResponseWriter, r *http.Request) {
	resp, err := architect.Decode(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	batch, dropped := resp.Candidates()
	s.applyStructure(w, r, resp.Message, batch, dropped)
}

func (s *Server) postVox(w http.ResponseWriter, r *http.Request) {
	model := 0
	if q := r.URL.Query().Get("model"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("model must be an integer"))
			return
		}
		model = n
	}
	f, err := vox.Decode(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	batch, err := f.Candidates(model)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.applyStructure(w, r, "", batch, 0)
}

func (s *Server) applyStructure(w http.ResponseWriter, r *http.Request, message string, batch []merge.Candidate, dropped int) {
	var res merge.Result
	if len(batch) > 0 {
		if s.opts.Structures != nil {
			var err error
			res, err = s.opts.Structures.Submit(r.Context(), message, batch)
			if err != nil {
				writeError(w, http.StatusServiceUnavailable, err)
				return
			}
		} else {
			res = s.ed.ApplyStructure(batch)
			if s.opts.Observer != nil {
				s.opts.Observer.ObserveMerge(res)
			}
		}
	}
	inserted := res.Inserted
	if inserted == nil {
		inserted = []world.Voxel{}
	}
	writeJSON(w, http.StatusOK, mergeResponse{
		Message:    message,
		Inserted:   inserted,
		Collisions: res.Collisions,
		Overridden: res.Overridden,
		Invalid:    res.Invalid,
		Dropped:    dropped,
		Count:      s.ed.Len(),
	})
}

func (s *Server) exportGLB(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "model/gltf-binary")
	w.Header().Set("Content-Disposition", `attachment; filename="voxelverse.glb"`)
	if err := export.WriteGLB(w, s.ed.World()); err != nil {
		s.opts.Logger.Errorf("export glb: %v", err)
	}
}

func (s *Server) exportGLTF(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "model/gltf+json")
	if err := export.WriteGLTF(w, s.ed.World()); err != nil {
		s.opts.Logger.Errorf("export gltf: %v", err)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
