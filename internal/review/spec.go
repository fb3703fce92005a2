package review

import (
	"encoding/json"
	stderrors "errors"
	"strings"
	"time"

	"github.com/mrz1836/reviewapp/internal/constants"
	"github.com/mrz1836/reviewapp/internal/domain"
	"github.com/mrz1836/reviewapp/internal/logging"
)

// TimestampLayout formats the deploy time in the description and the
// DEPLOYED_AT label.
const TimestampLayout = time.RFC3339

// PublicHost returns the routed host for slug: <prefix><slug>.<suffix>.
func PublicHost(hostPrefix, slug, domainSuffix string) string {
	return hostPrefix + slug + "." + strings.TrimPrefix(domainSuffix, ".")
}

// PublicURL returns the https URL of the review app for slug.
func PublicURL(hostPrefix, slug, domainSuffix string) string {
	return "https://" + PublicHost(hostPrefix, slug, domainSuffix)
}

// Description renders the workload description. The line order is fixed:
// time, author, git ref, SHA.
func Description(req domain.ReviewRequest, ts string) string {
	var b strings.Builder
	b.WriteString("CI review app: \n")
	b.WriteString("Time: " + ts + "\n")
	b.WriteString("Author: " + req.GitAuthor + "\n")
	b.WriteString("Git ref: " + req.GitRef + "\n")
	b.WriteString("SHA: " + req.GitSHA + "\n")
	return b.String()
}

// Labels builds the workload labels. The HAPROXY_* labels are what the
// platform's ingress routes on; empty git fields are left out.
func Labels(req domain.ReviewRequest, host, ts string) map[string]string {
	labels := map[string]string{
		constants.LabelHAProxyGroup:         constants.HAProxyGroupExternal,
		constants.LabelHAProxyVHost:         host,
		constants.LabelHAProxyRedirectHTTPS: "true",
		constants.LabelDeployedAt:           ts,
		constants.LabelReviewApp:            req.Slug,
	}
	for key, value := range map[string]string{
		constants.LabelGitAuthor: req.GitAuthor,
		constants.LabelGitSHA:    req.GitSHA,
		constants.LabelGitRef:    req.GitRef,
	} {
		if value != "" {
			labels[key] = value
		}
	}
	return labels
}

// Plan is the output of the spec builder: the workload to converge on plus
// the derived public address.
type Plan struct {
	Spec domain.WorkloadSpec
	Host string
	URL  string
}

// BuildSpec derives the workload spec for a validated request. now is used
// unless the request carries its own timestamp.
func BuildSpec(cfg Config, req domain.ReviewRequest, target domain.TargetContext, now time.Time) Plan {
	cfg = cfg.withDefaults()
	if !req.Timestamp.IsZero() {
		now = req.Timestamp
	}
	ts := now.UTC().Format(TimestampLayout)
	host := PublicHost(cfg.HostPrefix, req.Slug, cfg.DomainSuffix)

	spec := domain.WorkloadSpec{
		Name:          req.Slug,
		Description:   Description(req, ts),
		Provider:      target.Provider,
		Instances:     constants.ReviewInstances,
		CPUs:          constants.ReviewCPUs,
		MemoryMB:      constants.ReviewMemoryMB,
		DiskMB:        constants.ReviewDiskMB,
		ContainerType: constants.ContainerTypeDocker,
		Image:         req.Image,
		Network:       constants.NetworkBridge,
		PortMappings: []domain.PortMapping{{
			Name:           constants.WebPortName,
			Protocol:       constants.WebPortProtocol,
			ContainerPort:  constants.WebContainerPort,
			ExposeEndpoint: true,
		}},
		Env: map[string]string{
			"META_API_URL": cfg.MetaAPIURL,
			"SEC_API_URL":  cfg.SecAPIURL,
		},
		Labels:    Labels(req, host, ts),
		ForcePull: true,
	}
	return Plan{Spec: spec, Host: host, URL: "https://" + host}
}

// buildPlan validates req, builds the plan and logs it. A nil Plan means the
// request was rejected and the rejection has been logged.
func buildPlan(cfg Config, req domain.ReviewRequest, target domain.TargetContext, now time.Time, log *logging.InvocationLog) (*Plan, error) {
	if err := checkRequest(req, true, log); err != nil {
		return nil, err
	}

	plan := BuildSpec(cfg, req, target, now)
	log.Infof("Will deploy image %s to provider %s at url: %s", req.Image, target.Provider.Name, plan.URL)
	if payload, err := json.Marshal(plan.Spec); err == nil {
		log.Debug("container update/create payload: " + string(payload))
	}
	return &plan, nil
}

// checkRequest logs one ERROR line per missing field.
func checkRequest(req domain.ReviewRequest, requireImage bool, log *logging.InvocationLog) error {
	err := req.Validate(requireImage)
	if err == nil {
		return nil
	}
	var reqErr *domain.RequestError
	if stderrors.As(err, &reqErr) {
		for _, f := range reqErr.Fields {
			log.Errorf("missing %s argument '%s'", f.Description, f.Argument)
		}
		return err
	}
	log.Errorf("invalid request: %v", err)
	return err
}
