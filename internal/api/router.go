package api

import (
	"github.com/gorilla/mux"

	"github.com/secondbrain/vault-service/internal/api/recovery"
)

// NewRouter wires all API routes behind the panic-recovery middleware.
func NewRouter(vaults *VaultHandler, search *SearchHandler, health *HealthHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(recovery.Middleware)

	// Health endpoints
	router.HandleFunc("/api/health", health.CheckHealth).Methods("GET")
	router.HandleFunc("/api/health/db", health.CheckStorageHealth).Methods("GET")

	// Vault endpoints
	router.HandleFunc("/api/vaults/upload", vaults.UploadVault).Methods("POST")
	router.HandleFunc("/api/vaults", vaults.ListVaults).Methods("GET")
	router.HandleFunc("/api/vaults/{vaultId:[0-9a-fA-F-]{36}}", vaults.GetVault).Methods("GET")
	router.HandleFunc("/api/vaults/{vaultId:[0-9a-fA-F-]{36}}", vaults.DeleteVault).Methods("DELETE")

	// Search endpoint
	router.HandleFunc("/api/search", search.HandleSearch).Methods("POST")

	return router
}
