package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// discoverResponse mirrors the Sitelens discover API response model.
type discoverResponse struct {
	Success    bool   `json:"success"`
	Framework  string `json:"framework"`
	Discoverer string `json:"discoverer"`
	Routes     []struct {
		Path    string `json:"path"`
		Name    string `json:"name"`
		Source  string `json:"source"`
		Dynamic bool   `json:"dynamic"`
	} `json:"routes"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// captureResponse mirrors the Sitelens capture API response model.
type captureResponse struct {
	Success    bool   `json:"success"`
	Screenshot string `json:"screenshot"`
	Directory  string `json:"directory"`
	Sections   []struct {
		Index int    `json:"index"`
		Name  string `json:"name"`
		Path  string `json:"path"`
	} `json:"sections"`
	Skipped []struct {
		Name   string `json:"name"`
		Reason string `json:"reason"`
	} `json:"skipped"`
	ManifestPath string `json:"manifest_path"`
	Report       *struct {
		Title     string `json:"title"`
		WordCount int    `json:"word_count"`
	} `json:"report"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// recordResponse mirrors the Sitelens record API response model.
type recordResponse struct {
	Success bool `json:"success"`
	Capture *struct {
		WebM            string `json:"webm"`
		MP4             string `json:"mp4"`
		GIF             string `json:"gif"`
		Output          string `json:"output"`
		ConversionError string `json:"conversion_error"`
		Record          *struct {
			DurationMs  int64 `json:"duration_ms"`
			ScrollSteps int   `json:"scroll_steps"`
			PageHeight  int   `json:"page_height"`
		} `json:"record"`
	} `json:"capture"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// snapshotResponse mirrors the Sitelens snapshot job creation response.
type snapshotResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// snapshotStatusResponse mirrors the Sitelens snapshot status response.
type snapshotStatusResponse struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
	Directory string `json:"directory"`
	Pages     []struct {
		Route struct {
			Path string `json:"path"`
		} `json:"route"`
		Status  string `json:"status"`
		Reason  string `json:"reason"`
		Capture *struct {
			Directory string `json:"directory"`
		} `json:"capture"`
	} `json:"pages"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func main() {
	apiURL := os.Getenv("SITELENS_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("SITELENS_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "SITELENS_API_KEY is required")
		os.Exit(1)
	}

	s := server.NewMCPServer(
		"sitelens",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	discoverRoutesTool := mcp.NewTool("discover_routes",
		mcp.WithDescription("Discover the routes of a website. Detects the frontend framework (Next.js, Nuxt, Vue, React, Angular, SvelteKit, Astro) and reads its route manifest, falling back to sitemaps and link scraping."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the website to discover routes for"),
		),
		mcp.WithString("framework",
			mcp.Description("Force a discovery strategy instead of auto-detecting"),
			mcp.Enum("next", "nuxt", "vue", "react", "angular", "svelte", "astro"),
		),
		mcp.WithNumber("max_routes",
			mcp.Description("Maximum number of routes to return (default: 200)"),
		),
	)
	s.AddTool(discoverRoutesTool, handleDiscoverRoutes(apiURL, apiKey))

	capturePageTool := mcp.NewTool("capture_page",
		mcp.WithDescription("Capture a web page: full-page screenshot plus one cropped image per visual section (header, hero, features, footer, ...). Returns the artifact paths on the server."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the page to capture"),
		),
		mcp.WithString("label",
			mcp.Description("Name for the artifact directory (defaults to the URL host)"),
		),
		mcp.WithBoolean("include_report",
			mcp.Description("Also build a content report: markdown, links, images, OpenGraph tags"),
		),
	)
	s.AddTool(capturePageTool, handleCapturePage(apiURL, apiKey))

	recordVideoTool := mcp.NewTool("record_video",
		mcp.WithDescription("Record a scroll-through video of a web page. The page is scrolled top to bottom and back while a WebM is recorded; optionally converted to MP4 or GIF."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the page to record"),
		),
		mcp.WithString("format",
			mcp.Description("Delivered video format (default: webm). The WebM recording is kept in all cases."),
			mcp.Enum("webm", "mp4", "gif"),
		),
		mcp.WithNumber("duration_ms",
			mcp.Description("Total recording duration in milliseconds (default: 8000)"),
		),
	)
	s.AddTool(recordVideoTool, handleRecordVideo(apiURL, apiKey))

	snapshotSiteTool := mcp.NewTool("snapshot_site",
		mcp.WithDescription("Snapshot a whole website: discover its routes, then capture every route (screenshot + sections). Routes sharing one page template are captured once. Runs as a background job; this tool waits for completion."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the website to snapshot"),
		),
		mcp.WithNumber("max_routes",
			mcp.Description("Maximum number of routes to capture (default: 20, max: 100)"),
		),
		mcp.WithBoolean("include_video",
			mcp.Description("Also record a scroll video per captured route"),
		),
		mcp.WithBoolean("include_report",
			mcp.Description("Also build a content report per captured route"),
		),
	)
	s.AddTool(snapshotSiteTool, handleSnapshotSite(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiPost sends a POST request to the Sitelens API and returns the response body.
func apiPost(ctx context.Context, client *http.Client, apiURL, apiKey, path string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// pollJobCompletion polls a job endpoint until status is no longer "processing" or context is cancelled.
func pollJobCompletion(ctx context.Context, client *http.Client, apiURL, apiKey, endpoint string) ([]byte, error) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+endpoint, nil)
			if err != nil {
				return nil, fmt.Errorf("create poll request: %w", err)
			}
			req.Header.Set("X-API-Key", apiKey)

			resp, err := client.Do(req)
			if err != nil {
				return nil, fmt.Errorf("poll request failed: %w", err)
			}

			body, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil {
				return nil, fmt.Errorf("read poll response: %w", err)
			}

			// Quick check if still processing.
			var status struct {
				Status string `json:"status"`
			}
			if err := json.Unmarshal(body, &status); err != nil {
				return nil, fmt.Errorf("parse poll status: %w", err)
			}

			if status.Status != "processing" {
				return body, nil
			}
		}
	}
}

func handleDiscoverRoutes(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 120 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		payload := map[string]interface{}{"url": url}
		if fw := request.GetString("framework", ""); fw != "" {
			payload["framework"] = fw
		}
		args := request.GetArguments()
		if maxRoutes, ok := args["max_routes"]; ok {
			payload["max_routes"] = maxRoutes
		}

		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/discover", payload)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("discover request failed: %v", err)), nil
		}

		var discResp discoverResponse
		if err := json.Unmarshal(respBody, &discResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse discover response: %v", err)), nil
		}

		if !discResp.Success {
			errMsg := "discovery failed"
			if discResp.Error != nil {
				errMsg = fmt.Sprintf("[%s] %s", discResp.Error.Code, discResp.Error.Message)
			}
			return mcp.NewToolResultError(errMsg), nil
		}

		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("Framework: %s (routes via %s)\n", discResp.Framework, discResp.Discoverer))
		sb.WriteString(fmt.Sprintf("Found %d routes:\n\n", len(discResp.Routes)))
		for _, r := range discResp.Routes {
			line := fmt.Sprintf("%-40s %s", r.Path, r.Name)
			if r.Dynamic {
				line += " (dynamic)"
			}
			sb.WriteString(line + "\n")
		}

		return mcp.NewToolResultText(sb.String()), nil
	}
}

func handleCapturePage(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 180 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		payload := map[string]interface{}{"url": url}
		if label := request.GetString("label", ""); label != "" {
			payload["label"] = label
		}
		args := request.GetArguments()
		if includeReport, ok := args["include_report"]; ok {
			payload["include_report"] = includeReport
		}

		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/capture", payload)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("capture request failed: %v", err)), nil
		}

		var capResp captureResponse
		if err := json.Unmarshal(respBody, &capResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse capture response: %v", err)), nil
		}

		if !capResp.Success {
			errMsg := "capture failed"
			if capResp.Error != nil {
				errMsg = fmt.Sprintf("[%s] %s", capResp.Error.Code, capResp.Error.Message)
			}
			return mcp.NewToolResultError(errMsg), nil
		}

		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("Captured into %s\n", capResp.Directory))
		sb.WriteString(fmt.Sprintf("Full page: %s\n", capResp.Screenshot))
		sb.WriteString(fmt.Sprintf("Manifest:  %s\n\n", capResp.ManifestPath))
		sb.WriteString(fmt.Sprintf("%d sections:\n", len(capResp.Sections)))
		for _, s := range capResp.Sections {
			sb.WriteString(fmt.Sprintf("  [%d] %s -> %s\n", s.Index, s.Name, s.Path))
		}
		if len(capResp.Skipped) > 0 {
			sb.WriteString(fmt.Sprintf("\n%d skipped:\n", len(capResp.Skipped)))
			for _, s := range capResp.Skipped {
				sb.WriteString(fmt.Sprintf("  %s: %s\n", s.Name, s.Reason))
			}
		}
		if capResp.Report != nil {
			sb.WriteString(fmt.Sprintf("\nReport: %q, %d words (content.md in the capture directory)\n",
				capResp.Report.Title, capResp.Report.WordCount))
		}

		return mcp.NewToolResultText(sb.String()), nil
	}
}

func handleRecordVideo(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 600 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		payload := map[string]interface{}{"url": url}
		if format := request.GetString("format", ""); format != "" {
			payload["format"] = format
		}
		args := request.GetArguments()
		if durationMs, ok := args["duration_ms"]; ok {
			payload["duration_ms"] = durationMs
		}

		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/record", payload)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("record request failed: %v", err)), nil
		}

		var recResp recordResponse
		if err := json.Unmarshal(respBody, &recResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse record response: %v", err)), nil
		}

		if !recResp.Success || recResp.Capture == nil {
			errMsg := "recording failed"
			if recResp.Error != nil {
				errMsg = fmt.Sprintf("[%s] %s", recResp.Error.Code, recResp.Error.Message)
			}
			return mcp.NewToolResultError(errMsg), nil
		}

		capture := recResp.Capture
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("Video: %s\n", capture.Output))
		if capture.Record != nil {
			sb.WriteString(fmt.Sprintf("Recorded %.1fs, %d scroll steps, page height %dpx\n",
				float64(capture.Record.DurationMs)/1000, capture.Record.ScrollSteps, capture.Record.PageHeight))
		}
		if capture.Output != capture.WebM {
			sb.WriteString(fmt.Sprintf("WebM original: %s\n", capture.WebM))
		}
		if capture.ConversionError != "" {
			sb.WriteString(fmt.Sprintf("Conversion failed (%s); the WebM is still usable.\n", capture.ConversionError))
		}

		return mcp.NewToolResultText(sb.String()), nil
	}
}

func handleSnapshotSite(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 600 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		payload := map[string]interface{}{"url": url}
		args := request.GetArguments()
		if maxRoutes, ok := args["max_routes"]; ok {
			payload["max_routes"] = maxRoutes
		}
		if includeVideo, ok := args["include_video"]; ok {
			payload["include_video"] = includeVideo
		}
		if includeReport, ok := args["include_report"]; ok {
			payload["include_report"] = includeReport
		}

		// POST to create snapshot job.
		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/snapshot", payload)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("snapshot request failed: %v", err)), nil
		}

		var snapResp snapshotResponse
		if err := json.Unmarshal(respBody, &snapResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse snapshot response: %v", err)), nil
		}

		if snapResp.ID == "" {
			return mcp.NewToolResultError("snapshot job creation failed"), nil
		}

		// Poll for completion.
		resultBody, err := pollJobCompletion(ctx, client, apiURL, apiKey, "/api/v1/snapshot/"+snapResp.ID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("polling snapshot job failed: %v", err)), nil
		}

		var statusResp snapshotStatusResponse
		if err := json.Unmarshal(resultBody, &statusResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse snapshot status: %v", err)), nil
		}

		if statusResp.Status == "failed" && statusResp.Error != nil {
			return mcp.NewToolResultError(fmt.Sprintf("[%s] %s", statusResp.Error.Code, statusResp.Error.Message)), nil
		}

		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("Snapshot %s: %s (%d/%d routes)\n", statusResp.ID, statusResp.Status, statusResp.Completed, statusResp.Total))
		sb.WriteString(fmt.Sprintf("Artifacts: %s\n\n", statusResp.Directory))

		for _, p := range statusResp.Pages {
			switch p.Status {
			case "captured":
				dir := ""
				if p.Capture != nil {
					dir = " -> " + p.Capture.Directory
				}
				sb.WriteString(fmt.Sprintf("OK      %s%s\n", p.Route.Path, dir))
			case "skipped":
				sb.WriteString(fmt.Sprintf("SKIP    %s (%s)\n", p.Route.Path, p.Reason))
			default:
				sb.WriteString(fmt.Sprintf("FAILED  %s: %s\n", p.Route.Path, p.Reason))
			}
		}

		return mcp.NewToolResultText(sb.String()), nil
	}
}
