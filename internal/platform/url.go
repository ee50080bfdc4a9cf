package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/emichael72/auto-forge/internal/forgeerr"
)

const urlChunkSize = 10 * 1024

// GitHubEntry mirrors one row of a GitHub Contents API directory listing.
type GitHubEntry struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Type string `json:"type"`
	URL  string `json:"url"`
}

var githubTreeRe = regexp.MustCompile(`^https://github\.com/([^/]+)/([^/]+)/tree/([^/]+)/?(.*)$`)

// normalizeGitHubURL rewrites a "tree" (directory) browsing URL into the
// equivalent Contents API URL; any other URL passes through unchanged.
func normalizeGitHubURL(raw string) (apiURL string, isDirectoryListing bool) {
	m := githubTreeRe.FindStringSubmatch(raw)
	if m == nil {
		return raw, false
	}
	owner, repo, ref, path := m[1], m[2], m[3], m[4]
	api := fmt.Sprintf("https://api.github.com/repos/%s/%s/contents/%s?ref=%s", owner, repo, path, ref)
	return api, true
}

// urlGet fetches a URL. Directory-listing URLs (GitHub "tree" URLs) are
// normalized to the Contents API and the decoded listing is returned in
// ExtraData; single-file URLs are streamed to disk in 10 KiB chunks.
func urlGet(ctx context.Context, services *Services, args map[string]any) (forgeerr.CommandResult, error) {
	rawURL, hasURL := argString(args, "url")
	if !hasURL || rawURL == "" {
		return fail("url_get: missing url")
	}
	destination := argStringDefault(args, "destination", "")
	deleteIfExist := argBool(args, "delete_if_exist", false)
	proxy := argStringDefault(args, "proxy", "")
	token := argStringDefault(args, "token", "")
	timeoutSeconds := 60
	if v, ok := args["timeout"].(float64); ok && v > 0 {
		timeoutSeconds = int(v)
	}

	apiURL, isDirListing := normalizeGitHubURL(rawURL)

	client := &http.Client{Timeout: time.Duration(timeoutSeconds) * time.Second}
	if proxy != "" {
		proxyURL, perr := url.Parse(proxy)
		if perr == nil {
			client.Transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return forgeerr.CommandResult{}, forgeerr.Wrap(forgeerr.ErrInvalidArgument, "build request for %q: %v", apiURL, err)
	}
	if gitToken := token; gitToken != "" {
		req.Header.Set("Authorization", "Bearer "+gitToken)
	} else if services != nil && services.GitToken != "" {
		req.Header.Set("Authorization", "Bearer "+services.GitToken)
	}
	if hdrs, ok := args["headers"].(map[string]any); ok {
		for k, v := range hdrs {
			if s, ok := v.(string); ok {
				req.Header.Set(k, s)
			}
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return forgeerr.CommandResult{}, forgeerr.Wrap(forgeerr.ErrInternal, "GET %q: %v", apiURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := fmt.Sprintf("url_get: %q returned HTTP %d", apiURL, resp.StatusCode)
		return fail(msg)
	}

	if isDirListing {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return forgeerr.CommandResult{}, forgeerr.Wrap(forgeerr.ErrInternal, "read listing body: %v", err)
		}
		var entries []GitHubEntry
		if err := json.Unmarshal(body, &entries); err != nil {
			return forgeerr.CommandResult{}, forgeerr.Wrap(forgeerr.ErrInternal, "decode listing: %v", err)
		}
		return forgeerr.CommandResult{ReturnCode: 0, ExtraData: entries, Command: apiURL}, nil
	}

	if destination == "" {
		destination = filepath.Base(apiURL)
	}
	if _, err := os.Stat(destination); err == nil {
		if !deleteIfExist {
			return fail(fmt.Sprintf("url_get: %q already exists", destination))
		}
		if err := os.Remove(destination); err != nil {
			return forgeerr.CommandResult{}, forgeerr.Wrap(forgeerr.ErrInternal, "remove %q: %v", destination, err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return forgeerr.CommandResult{}, forgeerr.Wrap(forgeerr.ErrInternal, "mkdir %q: %v", filepath.Dir(destination), err)
	}
	out, err := os.Create(destination)
	if err != nil {
		return forgeerr.CommandResult{}, forgeerr.Wrap(forgeerr.ErrInternal, "create %q: %v", destination, err)
	}
	defer out.Close()

	written, err := streamToFile(resp.Body, out)
	if err != nil {
		return forgeerr.CommandResult{}, err
	}

	if cl := resp.Header.Get("Content-Length"); cl != "" {
		if expected, perr := strconv.ParseInt(cl, 10, 64); perr == nil && expected != written {
			return forgeerr.CommandResult{}, forgeerr.Wrap(forgeerr.ErrInternal,
				"url_get: wrote %d bytes, expected %d", written, expected)
		}
	}

	writtenInt := int(written)
	return forgeerr.CommandResult{ReturnCode: 0, ExtraValue: &writtenInt, Command: apiURL}, nil
}

func streamToFile(r io.Reader, w io.Writer) (int64, error) {
	buf := make([]byte, urlChunkSize)
	var total int64
	for {
		n, err := r.Read(buf)
		if n > 0 {
			written, werr := w.Write(buf[:n])
			total += int64(written)
			if werr != nil {
				return total, forgeerr.Wrap(forgeerr.ErrInternal, "write chunk: %v", werr)
			}
		}
		if err != nil {
			if err == io.EOF {
				return total, nil
			}
			return total, forgeerr.Wrap(forgeerr.ErrInternal, "read chunk: %v", err)
		}
	}
}

// gitGetPathFromURL takes a GitHub directory-tree URL and downloads the
// whole branch it names as a zip via the codeload endpoint. The path part
// of the URL does not narrow the download, and no file-extension filtering
// is applied.
func gitGetPathFromURL(ctx context.Context, services *Services, args map[string]any) (forgeerr.CommandResult, error) {
	rawURL, hasURL := argString(args, "url")
	if !hasURL || rawURL == "" {
		return fail("git_get_path_from_url: missing url")
	}
	m := githubTreeRe.FindStringSubmatch(rawURL)
	if m == nil {
		return fail(fmt.Sprintf("git_get_path_from_url: %q is not a GitHub tree URL", rawURL))
	}
	owner, repo, ref := m[1], m[2], m[3]
	destZip := argStringDefault(args, "dest", fmt.Sprintf("%s-%s.zip", repo, ref))
	codeloadURL := fmt.Sprintf("https://codeload.github.com/%s/%s/zip/refs/heads/%s", owner, repo, ref)

	zipArgs := map[string]any{
		"url":             codeloadURL,
		"destination":     destZip,
		"delete_if_exist": argBool(args, "delete", true),
	}
	return urlGet(ctx, services, zipArgs)
}
