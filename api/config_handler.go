// Package api: configuration and ambient signal endpoints.
package api

import (
	"net/http"

	"github.com/seenimoa/gaugekit/internal/ambient"
	"github.com/seenimoa/gaugekit/internal/config"
)

// ConfigResponse is the JSON envelope returned by GET /api/v1/config.
type ConfigResponse struct {
	Settings   []config.SettingStatus `json:"settings"`
	ConfigFile string                 `json:"config_file"` // path to the active config file
}

// SignalsResponse reports the server-wide ambient inputs and their result.
type SignalsResponse struct {
	SignalsMessage
	Mode string `json:"mode"`
}

// handleGetConfig lists the effective settings and where each came from.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: ConfigResponse{
			Settings:   config.CheckSettings(s.Config()),
			ConfigFile: config.ConfigFilePath(),
		},
	})
}

func (s *Server) handleGetSignals(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: s.signals()})
}

// handleUpdateSignals replaces the server-wide host page classes and OS
// preference. A watched host page file overwrites the classes again on its
// next change.
func (s *Server) handleUpdateSignals(w http.ResponseWriter, r *http.Request) {
	var msg SignalsMessage
	if err := decodeBody(w, r, &msg); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	applySignals(s.doc, s.pref, msg)
	s.writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: s.signals()})
}

func (s *Server) signals() SignalsResponse {
	root, body := s.doc.Classes()
	return SignalsResponse{
		SignalsMessage: SignalsMessage{Root: root, Body: body, PrefersDark: s.pref.PrefersDark()},
		Mode:           s.det.Mode().String(),
	}
}

// applySignals feeds one signals message into a document and preference.
// Each setter notifies only on change, so an unchanged message is silent.
func applySignals(doc *ambient.Document, pref *ambient.Preference, msg SignalsMessage) {
	doc.Replace(msg.Root, msg.Body)
	pref.Set(msg.PrefersDark)
}
