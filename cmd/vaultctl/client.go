package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
)

func newClient(apiURL string) *resty.Client {
	return resty.New().SetBaseURL(apiURL)
}

func writeResponse(out io.Writer, resp *resty.Response) error {
	if resp.IsError() {
		return fmt.Errorf("http %d: %s", resp.StatusCode(), resp.String())
	}
	_, err := fmt.Fprintln(out, strings.TrimSpace(resp.String()))
	return err
}

func runUpload(apiURL, archivePath, name string, async bool, out io.Writer) error {
	if name == "" {
		base := filepath.Base(archivePath)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	req := newClient(apiURL).R().
		SetFile("file", archivePath).
		SetFormData(map[string]string{"name": name})
	if async {
		req.SetQueryParam("async", "true")
	}
	resp, err := req.Post("/api/vaults/upload")
	if err != nil {
		return err
	}
	return writeResponse(out, resp)
}

func runList(apiURL string, skip, limit int, out io.Writer) error {
	resp, err := newClient(apiURL).R().
		SetQueryParams(map[string]string{
			"skip":  strconv.Itoa(skip),
			"limit": strconv.Itoa(limit),
		}).
		Get("/api/vaults")
	if err != nil {
		return err
	}
	return writeResponse(out, resp)
}

func runGet(apiURL, vaultID string, out io.Writer) error {
	resp, err := newClient(apiURL).R().Get("/api/vaults/" + vaultID)
	if err != nil {
		return err
	}
	return writeResponse(out, resp)
}

func runDelete(apiURL, vaultID string, out io.Writer) error {
	resp, err := newClient(apiURL).R().Delete("/api/vaults/" + vaultID)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("http %d: %s", resp.StatusCode(), resp.String())
	}
	_, err = fmt.Fprintf(out, "deleted %s\n", vaultID)
	return err
}

func runSearch(apiURL, vaultID, query string, topK int, out io.Writer) error {
	if query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	resp, err := newClient(apiURL).R().
		SetBody(map[string]interface{}{
			"vaultId": vaultID,
			"query":   query,
			"topK":    topK,
		}).
		Post("/api/search")
	if err != nil {
		return err
	}
	return writeResponse(out, resp)
}
