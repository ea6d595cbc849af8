package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/setlistgen/pkg/buildinfo"
	"github.com/matzehuels/setlistgen/pkg/errors"
	"github.com/matzehuels/setlistgen/pkg/music"
	"github.com/matzehuels/setlistgen/pkg/setlist"
	"github.com/matzehuels/setlistgen/pkg/store"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Version})
}

type trackResponse struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Artists string    `json:"artists"`
	Tempo   float64   `json:"tempo"`
	Key     music.Key `json:"key"`
}

type tracksResponse struct {
	PlaylistID string          `json:"playlist_id"`
	Name       string          `json:"name"`
	Skipped    int             `json:"skipped"`
	Tracks     []trackResponse `json:"tracks"`
}

func (s *Server) handleTracks(w http.ResponseWriter, r *http.Request) {
	refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))
	pl, err := s.opts.Runner.Load(r.Context(), chi.URLParam(r, "id"), refresh)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := tracksResponse{
		PlaylistID: pl.ID,
		Name:       pl.Name,
		Skipped:    pl.Skipped,
		Tracks:     make([]trackResponse, len(pl.Tracks)),
	}
	for i, t := range pl.Tracks {
		resp.Tracks[i] = trackResponse{
			ID:      t.ID,
			Name:    t.Name,
			Artists: t.ArtistNames(),
			Tempo:   t.Tempo(),
			Key:     t.Camelot,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// generateRequest is the body of POST /api/setlists. Zero numeric fields
// take the server defaults.
type generateRequest struct {
	Playlist string  `json:"playlist" validate:"required,max=512"`
	Start    string  `json:"start" validate:"max=256"`
	StartID  string  `json:"start_id" validate:"max=64"`
	Random   bool    `json:"random"`
	MaxSongs int     `json:"max_songs" validate:"gte=0,lte=1000"`
	BPMRange float64 `json:"bpm_range" validate:"gte=0,lt=1"`
	Seed     int64   `json:"seed"`
	Refresh  bool    `json:"refresh"`
}

func (req generateRequest) validate() error {
	if err := errors.ValidateStruct(errors.ErrCodeInvalidInput, req); err != nil {
		return err
	}
	if req.Random && (req.Start != "" || req.StartID != "") {
		return errors.New(errors.ErrCodeInvalidInput, "start and random are mutually exclusive")
	}
	return nil
}

func (s *Server) options(req generateRequest) setlist.Options {
	opts := s.opts.Defaults
	opts.Start, opts.StartID = "", ""
	if !req.Random {
		opts.Start, opts.StartID = req.Start, req.StartID
	}
	if req.MaxSongs > 0 {
		opts.MaxSongs = req.MaxSongs
	}
	if req.BPMRange > 0 {
		opts.BPMRange = req.BPMRange
		opts.WidenedBPMRange = 0
	}
	if req.Seed != 0 {
		opts.Seed = req.Seed
	}
	return opts.WithDefaults()
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx := r.Context()
	pl, err := s.opts.Runner.Load(ctx, req.Playlist, req.Refresh)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sl, _, err := s.opts.Runner.Generate(ctx, pl, s.options(req))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	dst := store.SetlistStore(s.anon)
	if sl.Owner = owner(ctx); sl.Owner != "" {
		dst = s.opts.Setlists
	}
	if err := dst.Save(ctx, sl); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/setlists/"+sl.ID)
	writeJSON(w, http.StatusCreated, sl)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := s.opts.Setlists.List(r.Context(), owner(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []*setlist.Setlist{}
	}
	writeJSON(w, http.StatusOK, list)
}

// lookup finds a setlist in the store, then among recently generated
// anonymous setlists, then in the runner cache. Setlists of other users
// are reported as missing.
func (s *Server) lookup(r *http.Request) (*setlist.Setlist, error) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	sl, err := s.opts.Setlists.Get(ctx, id)
	if errors.Is(err, errors.ErrCodeSetlistNotFound) {
		sl, err = s.anon.Get(ctx, id)
	}
	if errors.Is(err, errors.ErrCodeSetlistNotFound) {
		sl, err = s.opts.Runner.Setlist(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	if sl.Owner != "" && sl.Owner != owner(ctx) {
		return nil, errors.New(errors.ErrCodeSetlistNotFound, "setlist %s not found", id)
	}
	return sl, nil
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	sl, err := s.lookup(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sl)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	f, err := setlist.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sl, err := s.lookup(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data, err := setlist.Export(r.Context(), sl, f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	name := sl.ID + "." + f.Ext()
	if errors.ValidateFilename(name) != nil {
		name = setlist.DefaultBaseName + "." + f.Ext()
	}
	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	_, _ = w.Write(data)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.opts.Setlists.Delete(r.Context(), owner(r.Context()), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
