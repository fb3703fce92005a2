package domain

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/mrz1836/reviewapp/internal/errors"
)

// ReviewRequest is the CI event that triggers a review deploy or stop.
// Only Slug and Image are required; the git metadata is informational.
type ReviewRequest struct {
	// Slug is the GitLab environment slug. It names the workload and the
	// public host. Accepted as "slug" or "gitlab_env_slug".
	Slug string `json:"slug" yaml:"slug" validate:"required"`

	GitRef    string `json:"git_ref,omitempty" yaml:"git_ref,omitempty"`
	GitSHA    string `json:"git_sha,omitempty" yaml:"git_sha,omitempty"`
	GitAuthor string `json:"git_author,omitempty" yaml:"git_author,omitempty"`

	// Image is the container image reference to deploy. Stop ignores it.
	Image string `json:"image" yaml:"image" validate:"required"`

	// Timestamp overrides the invocation clock for the description and
	// DEPLOYED_AT label.
	Timestamp time.Time `json:"timestamp,omitzero" yaml:"timestamp,omitempty"`
}

// wireRequest is the accepted input shape, including the legacy slug alias.
type wireRequest struct {
	Slug          string    `json:"slug" yaml:"slug"`
	GitLabEnvSlug string    `json:"gitlab_env_slug" yaml:"gitlab_env_slug"`
	GitRef        string    `json:"git_ref" yaml:"git_ref"`
	GitSHA        string    `json:"git_sha" yaml:"git_sha"`
	GitAuthor     string    `json:"git_author" yaml:"git_author"`
	Image         string    `json:"image" yaml:"image"`
	Timestamp     time.Time `json:"timestamp" yaml:"timestamp"`
}

func (w wireRequest) request() ReviewRequest {
	slug := w.Slug
	if slug == "" {
		slug = w.GitLabEnvSlug
	}
	return ReviewRequest{
		Slug:      strings.TrimSpace(slug),
		GitRef:    w.GitRef,
		GitSHA:    w.GitSHA,
		GitAuthor: w.GitAuthor,
		Image:     strings.TrimSpace(w.Image),
		Timestamp: w.Timestamp,
	}
}

// UnmarshalJSON accepts both "slug" and "gitlab_env_slug".
func (r *ReviewRequest) UnmarshalJSON(data []byte) error {
	var w wireRequest
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = w.request()
	return nil
}

// UnmarshalYAML accepts both "slug" and "gitlab_env_slug".
func (r *ReviewRequest) UnmarshalYAML(node *yaml.Node) error {
	var w wireRequest
	if err := node.Decode(&w); err != nil {
		return err
	}
	*r = w.request()
	return nil
}

// ParseRequest decodes a JSON or YAML payload. JSON is tried first and its
// error is the one reported when both decoders fail.
func ParseRequest(data []byte) (ReviewRequest, error) {
	var req ReviewRequest
	jsonErr := json.Unmarshal(data, &req)
	if jsonErr == nil {
		return req, nil
	}
	if err := yaml.Unmarshal(data, &req); err != nil {
		return ReviewRequest{}, errors.Wrapf(errors.ErrInvalidRequest, "decode payload: %v", jsonErr)
	}
	return req, nil
}

// FieldError names one missing or invalid request field.
type FieldError struct {
	// Field is the payload key, e.g. "slug".
	Field string `json:"field"`
	// Argument is the name CI jobs pass the value under, e.g. "gitlab_env_slug".
	Argument string `json:"argument"`
	// Description is the human name used in the invocation log.
	Description string `json:"description"`
}

// RequestError reports every missing field of a ReviewRequest.
// It matches errors.ErrInvalidRequest.
type RequestError struct {
	Fields []FieldError `json:"fields"`
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Argument)
	}
	return fmt.Sprintf("missing required arguments: %s", strings.Join(names, ", "))
}

// Is makes RequestError match errors.ErrInvalidRequest.
func (e *RequestError) Is(target error) bool {
	return target == errors.ErrInvalidRequest
}

// fieldInfo describes each validated field by its payload key.
//
//nolint:gochecknoglobals // Static lookup table
var fieldInfo = map[string]FieldError{
	"slug":  {Field: "slug", Argument: "gitlab_env_slug", Description: "gitlab environment slug"},
	"image": {Field: "image", Argument: "image", Description: "image"},
}

//nolint:gochecknoglobals // validator caches struct metadata; one instance per process
var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func requestValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks the required fields. Stop requests only need the slug;
// pass requireImage=false for them.
func (r ReviewRequest) Validate(requireImage bool) error {
	err := requestValidator().Struct(r)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.Wrap(errors.ErrInvalidRequest, err.Error())
	}

	reqErr := &RequestError{}
	for _, fe := range verrs {
		if fe.Field() == "image" && !requireImage {
			continue
		}
		info, ok := fieldInfo[fe.Field()]
		if !ok {
			info = FieldError{Field: fe.Field(), Argument: fe.Field(), Description: fe.Field()}
		}
		reqErr.Fields = append(reqErr.Fields, info)
	}
	if len(reqErr.Fields) == 0 {
		return nil
	}
	return reqErr
}
