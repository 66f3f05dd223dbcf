package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/MrSnakeDoc/jobwatch/internal/commands"
	"github.com/MrSnakeDoc/jobwatch/internal/httpserver/deps"
	"github.com/MrSnakeDoc/jobwatch/internal/logger"
)

const maxBlacklistBody = 64 << 10

type blacklistRequest struct {
	Companies []string `json:"companies"`
}

type blacklistResponse struct {
	Companies []string `json:"companies"`
	Changed   []string `json:"changed,omitempty"`
	Message   string   `json:"message,omitempty"`
}

func ListBlacklist(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		names, err := d.Blacklist.List(r.Context())
		if err != nil {
			d.Logger.Error("failed to read blacklist", logger.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to read blacklist")
			return
		}
		writeJSON(w, http.StatusOK, blacklistResponse{Companies: names})
	}
}

func AddBlacklist(d deps.Deps) http.HandlerFunc {
	return editBlacklist(d, "add")
}

func RemoveBlacklist(d deps.Deps) http.HandlerFunc {
	return editBlacklist(d, "remove")
}

func editBlacklist(d deps.Deps, op string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req blacklistRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBlacklistBody))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
			return
		}
		if len(req.Companies) == 0 {
			writeError(w, http.StatusBadRequest, "companies must not be empty")
			return
		}

		ctx := r.Context()
		var (
			changed []string
			err     error
			msg     string
		)
		switch op {
		case "add":
			changed, err = d.Blacklist.Add(ctx, req.Companies)
			msg = commands.AddedReply(changed)
		default:
			changed, err = d.Blacklist.Remove(ctx, req.Companies)
			msg = commands.RemovedReply(changed)
		}
		if err != nil {
			d.Logger.Error("failed to update blacklist", logger.String("op", op), logger.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to update blacklist")
			return
		}

		names, err := d.Blacklist.List(ctx)
		if err != nil {
			d.Logger.Error("failed to read blacklist", logger.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to read blacklist")
			return
		}

		d.Logger.Info("blacklist updated via endpoint",
			logger.String("op", op),
			logger.Strings("changed", changed),
			logger.String("remote_ip", r.RemoteAddr))
		writeJSON(w, http.StatusOK, blacklistResponse{Companies: names, Changed: changed, Message: msg})
	}
}
