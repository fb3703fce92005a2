// Package gitlab is a minimal GitLab API v4 client for project environments.
//
// reviewapp never creates environments; GitLab creates them when a CI job
// declares one. The client only lists them and sets their external_url so
// the merge request shows a link to the review app.
package gitlab

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mrz1836/reviewapp/internal/constants"
	"github.com/mrz1836/reviewapp/internal/domain"
	"github.com/mrz1836/reviewapp/internal/errors"
	"github.com/mrz1836/reviewapp/internal/transport"
)

// tokenHeader carries the personal access token.
const tokenHeader = "PRIVATE-TOKEN"

// Options configures a Client.
type Options struct {
	// BaseURL is the API v4 root, e.g. https://gitlab.com/api/v4.
	BaseURL string
	// ProjectID is the numeric id or the "group/project" path.
	ProjectID string
	Token     string
	PerPage   int
	MaxPages  int
}

// Client talks to one GitLab project.
type Client struct {
	http      *transport.Client
	baseURL   string
	projectID string
	perPage   int
	maxPages  int
}

// New creates a Client. Out of range paging values fall back to the defaults.
func New(opts Options, transportOpts ...transport.Option) *Client {
	perPage := opts.PerPage
	if perPage < 1 || perPage > constants.MaxGitLabPerPage {
		perPage = constants.DefaultGitLabPerPage
	}
	maxPages := opts.MaxPages
	if maxPages < 1 {
		maxPages = constants.DefaultGitLabMaxPages
	}
	transportOpts = append(transportOpts, transport.WithHeader(tokenHeader, opts.Token))
	return &Client{
		http:      transport.New(transportOpts...),
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		projectID: opts.ProjectID,
		perPage:   perPage,
		maxPages:  maxPages,
	}
}

func (c *Client) environmentsURL() string {
	return c.baseURL + "/projects/" + url.PathEscape(c.projectID) + "/environments"
}

// ListEnvironments returns the project's environments, following X-Next-Page
// until GitLab reports no further page or MaxPages pages have been read.
func (c *Client) ListEnvironments(ctx context.Context) ([]domain.EnvironmentRecord, error) {
	var all []domain.EnvironmentRecord
	page := 1
	for read := 0; read < c.maxPages; read++ {
		var batch []domain.EnvironmentRecord
		resp, err := c.http.Do(ctx, transport.Request{
			Method: http.MethodGet,
			URL:    c.environmentsURL(),
			Query: url.Values{
				"per_page": {strconv.Itoa(c.perPage)},
				"page":     {strconv.Itoa(page)},
			},
		}, &batch)
		if err != nil {
			return all, errors.Wrapf(err, "list environments page %d", page)
		}
		all = append(all, batch...)

		next, ok := nextPage(resp)
		if !ok || next <= page {
			return all, nil
		}
		page = next
	}
	zerolog.Ctx(ctx).Debug().
		Int("max_pages", c.maxPages).
		Int("environments", len(all)).
		Msg("stopped paging gitlab environments at max_pages")
	return all, nil
}

func nextPage(resp *transport.Response) (int, bool) {
	if resp == nil {
		return 0, false
	}
	raw := strings.TrimSpace(resp.Header.Get("X-Next-Page"))
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

// FindEnvironmentBySlug returns the environment whose slug equals slug, or an
// error matching errors.ErrRegistryRecordNotFound.
func (c *Client) FindEnvironmentBySlug(ctx context.Context, slug string) (*domain.EnvironmentRecord, error) {
	envs, err := c.ListEnvironments(ctx)
	if err != nil {
		return nil, err
	}
	for i := range envs {
		if envs[i].Slug == slug {
			return &envs[i], nil
		}
	}
	return nil, errors.Wrapf(errors.ErrRegistryRecordNotFound, "slug %q", slug)
}

// UpdateEnvironment sets external_url on the environment and returns the
// updated record.
func (c *Client) UpdateEnvironment(ctx context.Context, envID int64, externalURL string) (*domain.EnvironmentRecord, error) {
	var out domain.EnvironmentRecord
	_, err := c.http.Do(ctx, transport.Request{
		Method: http.MethodPut,
		URL:    c.environmentsURL() + "/" + strconv.FormatInt(envID, 10),
		Body:   map[string]string{"external_url": externalURL},
	}, &out)
	if err != nil {
		return nil, errors.Wrapf(err, "update environment %d", envID)
	}
	return &out, nil
}
