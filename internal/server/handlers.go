package server

import (
	stderrors "errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/campaignkit/pkg/campaign"
	"github.com/matzehuels/campaignkit/pkg/design"
	"github.com/matzehuels/campaignkit/pkg/dispatch"
	"github.com/matzehuels/campaignkit/pkg/errors"
	"github.com/matzehuels/campaignkit/pkg/recipient"
)

type designResponse struct {
	Generation uint64          `json:"generation"`
	Settings   design.Settings `json:"settings"`
	HasBase    bool            `json:"has_base"`
	HasLogo    bool            `json:"has_logo"`
	Quality    float64         `json:"quality"`
}

func designOf(snap design.Snapshot) designResponse {
	return designResponse{
		Generation: snap.Generation,
		Settings:   snap.Settings,
		HasBase:    snap.HasBase(),
		HasLogo:    snap.Logo != nil,
		Quality:    snap.Settings.Quality(),
	}
}

func (s *Server) getDesign(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, designOf(s.studio.Store.Snapshot()))
}

func (s *Server) putDesign(w http.ResponseWriter, r *http.Request) {
	settings := s.studio.Store.Settings()
	if err := decodeJSON(r, &settings); err != nil {
		s.writeError(w, r, err)
		return
	}
	snap, err := s.studio.Store.SetSettings(settings)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, designOf(snap))
}

// readAsset accepts a raw image body, or JSON {"url": "..."} with an http(s)
// or data: URL. Local paths are not accepted over HTTP.
func (s *Server) readAsset(w http.ResponseWriter, r *http.Request) (design.Asset, string, error) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "image/") || ct == "application/octet-stream" {
		data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUpload))
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return design.Asset{}, "", errors.Wrap(errors.ErrCodeInvalidInput, err, "upload exceeds %d bytes", tooLarge.Limit)
		}
		if err != nil {
			return design.Asset{}, "", errors.Wrap(errors.ErrCodeInvalidInput, err, "read upload")
		}
		if len(data) == 0 {
			return design.Asset{}, "", errors.New(errors.ErrCodeInvalidInput, "empty upload")
		}
		return design.NewAsset(data, "upload"), "", nil
	}
	var body struct {
		URL string `json:"url"`
	}
	if err := decodeJSON(r, &body); err != nil {
		return design.Asset{}, "", err
	}
	if !strings.HasPrefix(body.URL, "data:") {
		if err := errors.ValidateURL(body.URL); err != nil {
			return design.Asset{}, "", err
		}
	}
	return design.Asset{}, body.URL, nil
}

func (s *Server) putBase(w http.ResponseWriter, r *http.Request) {
	a, ref, err := s.readAsset(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var snap design.Snapshot
	if ref != "" {
		snap, err = s.studio.LoadBase(r.Context(), ref)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
	} else {
		snap = s.studio.Store.SetBase(a)
	}
	writeJSON(w, http.StatusOK, designOf(snap))
}

func (s *Server) putLogo(w http.ResponseWriter, r *http.Request) {
	a, ref, err := s.readAsset(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var snap design.Snapshot
	if ref != "" {
		snap, err = s.studio.LoadLogo(r.Context(), ref)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
	} else {
		snap = s.studio.Store.SetLogo(&a)
	}
	writeJSON(w, http.StatusOK, designOf(snap))
}

func (s *Server) deleteLogo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, designOf(s.studio.Store.SetLogo(nil)))
}

func (s *Server) getPreview(w http.ResponseWriter, r *http.Request) {
	out, err := s.studio.Preview(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", out.MIMEType)
	w.Header().Set("X-Generation", strconv.FormatUint(out.Generation, 10))
	w.Header().Set("Cache-Control", "no-store")
	w.Write(out.Data)
}

func (s *Server) getDownload(w http.ResponseWriter, r *http.Request) {
	name, out, err := s.studio.Download(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", out.MIMEType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Write(out.Data)
}

func (s *Server) getDraft(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.studio.Draft())
}

func (s *Server) putDraft(w http.ResponseWriter, r *http.Request) {
	var d campaign.Draft
	if err := decodeJSON(r, &d); err != nil {
		s.writeError(w, r, err)
		return
	}
	d, err := s.studio.SetDraft(d)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

type recipientView struct {
	recipient.Recipient
	Reachable bool `json:"reachable"`
}

func (s *Server) getRecipients(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		status = s.studio.Draft().TargetStatus
	}
	list, err := s.studio.Eligible(r.Context(), status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ch := s.studio.Draft().Channel
	out := make([]recipientView, 0, len(list))
	for _, rc := range list {
		out = append(out, recipientView{Recipient: rc, Reachable: rc.HasContact(ch)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getDispatch(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.studio.Sequencer.State())
}

func (s *Server) postStart(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDs   []string        `json:"ids"`
		Draft *campaign.Draft `json:"draft,omitempty"`
	}
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	if body.Draft != nil {
		if _, err := s.studio.SetDraft(*body.Draft); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	st, err := s.studio.StartDispatch(r.Context(), body.IDs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type advanceResponse struct {
	Step  dispatch.Step  `json:"step"`
	State dispatch.State `json:"state"`
}

func (s *Server) postAdvance(w http.ResponseWriter, r *http.Request) {
	step, err := s.studio.Advance(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, advanceResponse{Step: step, State: s.studio.Sequencer.State()})
}

func (s *Server) postAbort(w http.ResponseWriter, r *http.Request) {
	if err := s.studio.Abort(); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.studio.Sequencer.State())
}

type campaignSummary struct {
	campaign.Record
	Title string `json:"title"`
}

func (s *Server) getCampaigns(w http.ResponseWriter, r *http.Request) {
	list, err := s.studio.Campaigns(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]campaignSummary, 0, len(list))
	for _, rec := range list {
		rec.AssetURL = ""
		out = append(out, campaignSummary{Record: rec, Title: rec.Title()})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getCampaign(w http.ResponseWriter, r *http.Request) {
	rec, err := s.studio.Archive.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, campaignSummary{Record: rec, Title: rec.Title()})
}

func (s *Server) postNewCampaign(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, designOf(s.studio.NewCampaign()))
}

func (s *Server) postRecall(w http.ResponseWriter, r *http.Request) {
	if _, err := s.studio.Recall(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"draft":  s.studio.Draft(),
		"design": designOf(s.studio.Store.Snapshot()),
	})
}

func (s *Server) postGenerateCopy(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Brief string `json:"brief"`
		Tone  string `json:"tone,omitempty"`
	}
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	if _, err := s.studio.GenerateCopy(r.Context(), body.Brief, body.Tone); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.studio.Draft())
}

func (s *Server) postGenerateImage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Prompt    string `json:"prompt"`
		Aspect    string `json:"aspect,omitempty"`
		Reference bool   `json:"reference,omitempty"`
	}
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	snap, err := s.studio.GenerateBase(r.Context(), body.Prompt, body.Aspect, body.Reference)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, designOf(snap))
}
