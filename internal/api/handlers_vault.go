package api

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	respond "github.com/secondbrain/vault-service/internal/api/respond"
	"github.com/secondbrain/vault-service/internal/model"
	"github.com/secondbrain/vault-service/internal/services"
	"github.com/secondbrain/vault-service/internal/vault"
)

// multipartOverhead pads the body limit so form framing around a
// maximum-size archive does not trip the reader.
const multipartOverhead = 1 << 20

// VaultHandler is a thin HTTP transport over the VaultService.
type VaultHandler struct {
	svc       *services.VaultService
	maxUpload int64
}

func NewVaultHandler(svc *services.VaultService, maxUpload int64) *VaultHandler {
	return &VaultHandler{svc: svc, maxUpload: maxUpload}
}

// UploadVault POST /api/vaults/upload
// Multipart form: "file" is the archive, "name" the optional display name.
// ?async=true defers the pipeline to the worker and returns 202.
func (h *VaultHandler) UploadVault(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+multipartOverhead)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		respond.WriteBadRequest(w, "invalid multipart form: "+err.Error())
		return
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		respond.WriteBadRequest(w, "missing file field")
		return
	}
	defer func() { _ = file.Close() }()

	content, err := io.ReadAll(file)
	if err != nil {
		respond.WriteBadRequest(w, "failed to read upload: "+err.Error())
		return
	}

	name := r.FormValue("name")
	if name == "" {
		name = strings.TrimSuffix(hdr.Filename, filepath.Ext(hdr.Filename))
	}

	if r.URL.Query().Get("async") == "true" {
		v, err := h.svc.UploadAsync(r.Context(), name, hdr.Filename, hdr.Size, content)
		if err != nil {
			h.writeUploadError(w, err)
			return
		}
		respond.WriteJSON(w, http.StatusAccepted, v)
		return
	}

	v, err := h.svc.Upload(r.Context(), name, hdr.Filename, hdr.Size, content)
	if err != nil {
		h.writeUploadError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, v)
}

// writeUploadError maps pipeline errors to status codes. Client-input
// rejections carry their reason; everything else stays generic.
func (h *VaultHandler) writeUploadError(w http.ResponseWriter, err error) {
	if vault.IsValidationError(err) {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	log.Error().Err(err).Msg("vault upload failed")
	respond.WriteInternalError(w, "Failed to upload vault")
}

// ListVaults GET /api/vaults?skip=&limit=
func (h *VaultHandler) ListVaults(w http.ResponseWriter, r *http.Request) {
	skip := queryInt(r, "skip", 0)
	limit := queryInt(r, "limit", 100)
	vts, err := h.svc.ListVaults(r.Context(), skip, limit)
	if err != nil {
		respond.WriteInternalError(w, err.Error())
		return
	}
	if vts == nil {
		vts = []*model.Vault{}
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"vaults": vts, "count": len(vts)})
}

// GetVault GET /api/vaults/{vaultId}
func (h *VaultHandler) GetVault(w http.ResponseWriter, r *http.Request) {
	vaultID := mux.Vars(r)["vaultId"]
	v, err := h.svc.GetVault(r.Context(), vaultID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			respond.WriteNotFound(w, "vault not found")
			return
		}
		respond.WriteInternalError(w, err.Error())
		return
	}
	respond.WriteJSON(w, http.StatusOK, v)
}

// DeleteVault DELETE /api/vaults/{vaultId}
func (h *VaultHandler) DeleteVault(w http.ResponseWriter, r *http.Request) {
	vaultID := mux.Vars(r)["vaultId"]
	if err := h.svc.DeleteVault(r.Context(), vaultID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			respond.WriteNotFound(w, "vault not found")
			return
		}
		respond.WriteInternalError(w, err.Error())
		return
	}
	respond.WriteNoContent(w)
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}
