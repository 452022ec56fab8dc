package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-accounts/core"
)

const (
	DefaultRequestTimeout   = 10 * time.Second
	maxProfileResponseBytes = 1 << 20 // 1 MiB
)

// FieldMapping names the dotted paths of the provider user id and
// display name inside the profile payload.
type FieldMapping struct {
	ID   string
	Name string
}

type Config struct {
	ProviderID     string
	ProfileURL     string
	Fields         FieldMapping
	UserAgent      string
	RequestTimeout time.Duration
	HTTPClient     core.HTTPDoer
}

// Fetcher reads the provider profile endpoint with a bearer token and
// maps it into a core.Profile.
type Fetcher struct {
	cfg        Config
	httpClient core.HTTPDoer
}

func NewFetcher(cfg Config) (*Fetcher, error) {
	cfg.ProviderID = strings.TrimSpace(strings.ToLower(cfg.ProviderID))
	cfg.ProfileURL = strings.TrimSpace(cfg.ProfileURL)
	cfg.Fields.ID = strings.TrimSpace(cfg.Fields.ID)
	cfg.Fields.Name = strings.TrimSpace(cfg.Fields.Name)
	if cfg.ProviderID == "" {
		return nil, fmt.Errorf("identity: provider id is required")
	}
	if cfg.ProfileURL == "" {
		return nil, fmt.Errorf("identity: profile url is required for provider %q", cfg.ProviderID)
	}
	if cfg.Fields.ID == "" {
		cfg.Fields.ID = "id"
	}
	if cfg.Fields.Name == "" {
		cfg.Fields.Name = "name"
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.RequestTimeout}
	}
	return &Fetcher{cfg: cfg, httpClient: httpClient}, nil
}

func (f *Fetcher) FetchProfile(ctx context.Context, accessToken string) (core.Profile, error) {
	if f == nil {
		return core.Profile{}, fmt.Errorf("identity: fetcher is nil")
	}
	payload, err := f.fetch(ctx, accessToken)
	if err != nil {
		return core.Profile{}, err
	}
	id, ok := lookupString(payload, f.cfg.Fields.ID)
	if !ok || id == "" {
		return core.Profile{}, core.FieldMissingError(f.cfg.ProviderID, f.cfg.Fields.ID)
	}
	name, ok := lookupString(payload, f.cfg.Fields.Name)
	if !ok {
		return core.Profile{}, core.FieldMissingError(f.cfg.ProviderID, f.cfg.Fields.Name)
	}
	return core.Profile{
		ProviderUserID: id,
		DisplayName:    name,
		Raw:            payload,
	}, nil
}

func (f *Fetcher) fetch(ctx context.Context, accessToken string) (map[string]any, error) {
	if strings.TrimSpace(accessToken) == "" {
		return nil, core.UpstreamError(f.cfg.ProviderID, nil, "access token is required for profile fetch")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	requestCtx, cancel := context.WithTimeout(ctx, f.cfg.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(requestCtx, http.MethodGet, f.cfg.ProfileURL, nil)
	if err != nil {
		return nil, core.UpstreamError(f.cfg.ProviderID, err, "build profile request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)
	if f.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", f.cfg.UserAgent)
	}

	res, err := f.httpClient.Do(req)
	if err != nil {
		return nil, core.UpstreamError(f.cfg.ProviderID, err, "profile request failed")
	}
	defer res.Body.Close()
	body, readErr := io.ReadAll(io.LimitReader(res.Body, maxProfileResponseBytes+1))
	if readErr != nil {
		return nil, core.UpstreamError(f.cfg.ProviderID, readErr, "read profile response")
	}
	if int64(len(body)) > maxProfileResponseBytes {
		return nil, core.UpstreamError(f.cfg.ProviderID, nil,
			fmt.Sprintf("profile response exceeds %d bytes", maxProfileResponseBytes))
	}
	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return nil, core.UpstreamError(f.cfg.ProviderID, nil,
			fmt.Sprintf("profile endpoint returned status %d", res.StatusCode))
	}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, core.UpstreamError(f.cfg.ProviderID, err, "decode profile response")
	}
	return payload, nil
}

// lookupString resolves a dotted path such as "data.id". Numbers are
// rendered without exponent so numeric ids survive.
func lookupString(payload map[string]any, path string) (string, bool) {
	var current any = payload
	for _, segment := range strings.Split(path, ".") {
		object, ok := current.(map[string]any)
		if !ok {
			return "", false
		}
		current, ok = object[segment]
		if !ok || current == nil {
			return "", false
		}
	}
	switch typed := current.(type) {
	case string:
		return strings.TrimSpace(typed), true
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(typed), true
	case json.Number:
		return typed.String(), true
	default:
		return "", false
	}
}

var _ core.ProfileFetcher = (*Fetcher)(nil)
