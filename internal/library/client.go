// Package library is the CDISC Library API client used to look up
// Controlled Terminology codelists.
package library

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kusy2009/Codelist-Genius/internal/apperrors"
	"github.com/kusy2009/Codelist-Genius/internal/config"
	"github.com/kusy2009/Codelist-Genius/internal/logger"
	"github.com/kusy2009/Codelist-Genius/internal/metrics"
	"github.com/kusy2009/Codelist-Genius/internal/terminology"
)

// Request identifies one codelist in one CT package.
type Request struct {
	CodelistValue string
	CodelistType  terminology.CodelistType
	Standard      terminology.Standard
	// Version is the CT package date, e.g. 2024-09-27. Empty picks the default.
	Version string
}

// Client talks to the CDISC Library REST API. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *zap.Logger
}

// NewClient creates a client for the configured CDISC Library endpoint.
func NewClient(cfg config.LibraryConfig, log *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		logger:     logger.OrNop(log),
	}
}

type ctPackage struct {
	Codelists []ctCodelist `json:"codelists"`
}

type ctCodelist struct {
	ConceptID       string   `json:"conceptId"`
	SubmissionValue string   `json:"submissionValue"`
	Name            string   `json:"name"`
	Extensible      flexBool `json:"extensible"`
	Terms           []ctTerm `json:"terms"`
}

type ctTerm struct {
	ConceptID       string `json:"conceptId"`
	SubmissionValue string `json:"submissionValue"`
	PreferredTerm   string `json:"preferredTerm"`
}

// flexBool accepts both JSON booleans and the "true"/"false" strings the
// Library returns for the extensible flag.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	*b = flexBool(strings.EqualFold(s, "true"))
	return nil
}

type productsResponse struct {
	Links struct {
		Packages []struct {
			Href string `json:"href"`
		} `json:"packages"`
	} `json:"_links"`
}

// Validate rejects requests that cannot possibly succeed, before any network call.
func (r *Request) Validate() error {
	if strings.TrimSpace(r.CodelistValue) == "" {
		return apperrors.New(apperrors.ErrCodeInvalidInput,
			"You must specify a codelist value (e.g., AGEU for SDTM or DTYPE for ADaM)")
	}
	if r.Standard == "" {
		r.Standard = terminology.DefaultStandard
	}
	std, err := terminology.ParseStandard(string(r.Standard))
	if err != nil {
		return apperrors.New(apperrors.ErrCodeInvalidStandard, "%s", err.Error())
	}
	r.Standard = std
	if r.CodelistType == "" {
		r.CodelistType = terminology.ByID
	}
	return nil
}

// GetCodelist fetches the CT package for the request's standard and version
// and returns the matching codelist with terms sorted by submission value.
func (c *Client) GetCodelist(ctx context.Context, req Request) (*terminology.Codelist, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	version := req.Version
	if version == "" {
		v, err := c.LatestVersion(ctx, req.Standard)
		if err != nil {
			return nil, err
		}
		version = v
	}

	start := time.Now()
	cl, err := c.fetchCodelist(ctx, req, version)
	status := "ok"
	switch {
	case apperrors.IsNotFound(err):
		status = "not_found"
	case err != nil:
		status = "error"
	}
	metrics.LookupDuration.WithLabelValues(string(req.Standard), status).Observe(time.Since(start).Seconds())
	return cl, err
}

func (c *Client) fetchCodelist(ctx context.Context, req Request, version string) (*terminology.Codelist, error) {
	packageName := fmt.Sprintf("%s-%s", req.Standard.PackagePrefix(), version)
	c.logger.Info("fetching CT package",
		zap.String("standard", string(req.Standard)),
		zap.String("version", version),
		zap.String("codelist", req.CodelistValue))

	body, err := c.get(ctx, "/mdr/ct/packages/"+packageName)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeLibraryRequestFailed, err,
			"failed to fetch %s CT version %s", req.Standard, version)
	}

	var pkg ctPackage
	if err := json.Unmarshal(body, &pkg); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeLibraryRequestFailed, err,
			"failed to decode CT package %s", packageName)
	}

	target := findCodelist(pkg.Codelists, req.CodelistType, req.CodelistValue)
	if target == nil {
		return nil, apperrors.New(apperrors.ErrCodeCodelistNotFound,
			"The provided Codelist Value '%s' does not exist in the %s Controlled Terminology version %s. "+
				"Please check if your ID is correct or if it exists in the %s Codelists.",
			req.CodelistValue, req.Standard, version, req.Standard)
	}

	cl := &terminology.Codelist{
		ID:         target.SubmissionValue,
		Code:       target.ConceptID,
		Name:       target.Name,
		Extensible: bool(target.Extensible),
		Standard:   req.Standard,
		Version:    version,
		Terms:      make([]terminology.Term, 0, len(target.Terms)),
	}
	for _, t := range target.Terms {
		cl.Terms = append(cl.Terms, terminology.Term{
			Code:            t.ConceptID,
			SubmissionValue: t.SubmissionValue,
			DecodedValue:    t.PreferredTerm,
		})
	}
	terminology.SortTerms(cl.Terms)

	return cl, nil
}

func findCodelist(codelists []ctCodelist, typ terminology.CodelistType, value string) *ctCodelist {
	for i := range codelists {
		cl := &codelists[i]
		switch typ {
		case terminology.ByCode:
			if strings.EqualFold(cl.ConceptID, value) {
				return cl
			}
		default:
			if strings.EqualFold(cl.SubmissionValue, value) {
				return cl
			}
		}
	}
	return nil
}

// LatestVersion returns the hardcoded default version for std, or asks the
// Library for the newest published package when there is none.
func (c *Client) LatestVersion(ctx context.Context, std terminology.Standard) (string, error) {
	if v, ok := terminology.DefaultVersions[std]; ok {
		return v, nil
	}

	c.logger.Info("no default version, querying products", zap.String("standard", string(std)))
	body, err := c.get(ctx, "/mdr/products/Terminology")
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrCodeVersionUnresolved, err,
			"could not determine version for standard: %s", std)
	}

	var products productsResponse
	if err := json.Unmarshal(body, &products); err != nil {
		return "", apperrors.Wrap(apperrors.ErrCodeVersionUnresolved, err,
			"could not determine version for standard: %s", std)
	}

	prefix := std.PackagePrefix() + "-"
	var versions []string
	for _, link := range products.Links.Packages {
		name := path.Base(link.Href)
		if strings.HasPrefix(name, prefix) {
			versions = append(versions, strings.TrimPrefix(name, prefix))
		}
	}
	if len(versions) == 0 {
		return "", apperrors.New(apperrors.ErrCodeVersionUnresolved,
			"could not determine version for standard: %s", std)
	}

	sort.Sort(sort.Reverse(sort.StringSlice(versions)))
	return versions[0], nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%d - %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	return body, nil
}
