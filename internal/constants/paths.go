package constants

// Log file names.
const (
	// CLILogFileName is the name of the rotating CLI log file.
	// This file is located in ~/.reviewapp/logs/reviewapp.log
	CLILogFileName = "reviewapp.log"
)

// Configuration file names.
const (
	// GlobalConfigName is the name of the global configuration file.
	// This file is located in the reviewapp home directory.
	GlobalConfigName = "config.yaml"

	// ProjectConfigDir is the project-level configuration directory.
	ProjectConfigDir = ".reviewapp"

	// ProjectConfigName is the name of the project-specific configuration file
	// inside ProjectConfigDir.
	ProjectConfigName = "config.yaml"

	// DotEnvFile is the dotenv file loaded from the working directory.
	DotEnvFile = ".env"
)

// Label keys placed on review workloads.
const (
	LabelHAProxyGroup         = "HAPROXY_GROUP"
	LabelHAProxyVHost         = "HAPROXY_0_VHOST"
	LabelHAProxyRedirectHTTPS = "HAPROXY_0_REDIRECT_TO_HTTPS"
	LabelDeployedAt           = "DEPLOYED_AT"
	LabelGitAuthor            = "GIT_AUTHOR"
	LabelGitSHA               = "GIT_SHA"
	LabelGitRef               = "GIT_REF"
	LabelReviewApp            = "REVIEW_APP"

	// HAProxyGroupExternal routes the workload through the external load balancer.
	HAProxyGroupExternal = "external"
)

// Label keys the docker backend uses to scope containers.
const (
	DockerLabelOrg         = "reviewapp.org"
	DockerLabelEnv         = "reviewapp.env"
	DockerLabelName        = "reviewapp.name"
	DockerLabelDescription = "reviewapp.description"
)

// Environment variable names injected into the workload.
const (
	EnvMetaAPIURL = "META_API_URL"
	EnvSecAPIURL  = "SEC_API_URL"
)
