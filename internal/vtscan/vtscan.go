// Package vtscan looks recovered files up in the VirusTotal database
// by hash. Nothing is ever uploaded; lookups are read-only.
package vtscan

import (
	"errors"
	"fmt"
	"strings"
	"time"

	vt "github.com/VirusTotal/vt-go"
)

var (
	ErrMissingAPIKey = errors.New("VirusTotal API key is required")
	ErrNotFound      = errors.New("file not known to VirusTotal")
)

// FileReport summarizes VirusTotal's knowledge of one file
type FileReport struct {
	SHA256       string    `json:"sha256"`
	Name         string    `json:"name,omitempty"`
	Type         string    `json:"type,omitempty"`
	Size         int64     `json:"size"`
	ScanDate     time.Time `json:"scan_date"`
	Malicious    int       `json:"malicious"`
	Suspicious   int       `json:"suspicious"`
	Harmless     int       `json:"harmless"`
	Undetected   int       `json:"undetected"`
	TotalEngines int       `json:"total_engines"`
}

// Flagged reports whether any engine rated the file malicious or
// suspicious
func (r *FileReport) Flagged() bool {
	return r.Malicious > 0 || r.Suspicious > 0
}

// Client is a thin lookup-only wrapper around the VirusTotal API
type Client struct {
	vtClient *vt.Client
}

// NewClient creates a client with the given API key
func NewClient(apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	return &Client{vtClient: vt.NewClient(apiKey)}, nil
}

// LookupFile fetches the report for a file hash. A hash VirusTotal has
// never seen yields ErrNotFound.
func (c *Client) LookupFile(hash string) (*FileReport, error) {
	obj, err := c.vtClient.GetObject(vt.URL("files/%s", hash))
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, hash)
		}
		return nil, fmt.Errorf("failed to query VirusTotal: %w", err)
	}
	return parseFileObject(obj)
}

// isNotFound classifies the API's "unknown hash" response
func isNotFound(err error) bool {
	return strings.Contains(err.Error(), "not found")
}

// parseFileObject extracts the report fields from a VirusTotal file
// object
func parseFileObject(obj *vt.Object) (*FileReport, error) {
	report := &FileReport{}

	sha256, _ := obj.GetString("sha256")
	report.SHA256 = sha256

	// Prefer the crowd-sourced name over the raw one
	name, _ := obj.GetString("meaningful_name")
	if name == "" {
		name, _ = obj.GetString("name")
	}
	report.Name = name

	fileType, _ := obj.GetString("type_description")
	if fileType == "" {
		fileType, _ = obj.GetString("type_tag")
	}
	report.Type = fileType

	if size, err := obj.GetInt64("size"); err == nil {
		report.Size = size
	}
	if scanDate, err := obj.GetTime("last_analysis_date"); err == nil {
		report.ScanDate = scanDate
	}

	if stats, err := obj.Get("last_analysis_stats"); err == nil {
		if m, ok := stats.(map[string]interface{}); ok {
			applyStats(report, m)
		}
	}

	return report, nil
}

// applyStats copies the per-verdict engine counts into the report
func applyStats(report *FileReport, stats map[string]interface{}) {
	report.Malicious = statCount(stats, "malicious")
	report.Suspicious = statCount(stats, "suspicious")
	report.Harmless = statCount(stats, "harmless")
	report.Undetected = statCount(stats, "undetected")

	total := 0
	for _, count := range stats {
		if v, ok := count.(float64); ok {
			total += int(v)
		}
	}
	report.TotalEngines = total
}

func statCount(stats map[string]interface{}, key string) int {
	if v, ok := stats[key].(float64); ok {
		return int(v)
	}
	return 0
}
