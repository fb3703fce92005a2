package errors

import "errors"

// ErrorInfo holds user-facing message and suggested action for an error.
type ErrorInfo struct {
	// Message is the user-friendly error description.
	Message string
	// Action is a suggested action to resolve the issue (empty if none).
	Action string
}

// errorEntry pairs a sentinel error with its user-facing info.
type errorEntry struct {
	err  error
	info ErrorInfo
}

// errorInfoEntries maps sentinel errors to their user-facing messages.
// A slice (not a map) because wrapped errors need errors.Is() traversal.
//
//nolint:gochecknoglobals // Pre-built mapping for efficiency
var errorInfoEntries = []errorEntry{
	// ===================
	// Invocation
	// ===================
	{
		err: ErrInvalidRequest,
		info: ErrorInfo{
			Message: "The review request is missing required fields.",
			Action:  "Provide both a slug (--slug) and an image (--image).",
		},
	},
	{
		err: ErrTargetNotFound,
		info: ErrorInfo{
			Message: "The target organization, environment or provider does not exist on the platform.",
			Action:  "Check TARGET_ORG, TARGET_ENV and TARGET_PROVIDER against the platform.",
		},
	},
	{
		err: ErrPlatformOperation,
		info: ErrorInfo{
			Message: "The platform rejected the workload change.",
			Action:  "Review the response code in the invocation log and re-run the job.",
		},
	},
	{
		err: ErrInvocationFailed,
		info: ErrorInfo{
			Message: "The invocation stopped at a fatal step. See the log above.",
			Action:  "Fix the reported problem and re-trigger the CI job; re-runs are safe.",
		},
	},
	{
		err: ErrInvocationNotFound,
		info: ErrorInfo{
			Message: "No invocation history was found.",
			Action:  "Check the slug or invocation id, and that history.backend matches the writer.",
		},
	},

	// ===================
	// External systems
	// ===================
	{
		err: ErrRegistryOperation,
		info: ErrorInfo{
			Message: "The GitLab environment registry could not be updated.",
			Action:  "Verify GITLAB_TOKEN and gitlab.project_id.",
		},
	},
	{
		err: ErrNotifyFailed,
		info: ErrorInfo{
			Message: "The deployment announcement could not be delivered.",
			Action:  "Verify SLACK_PATH or the Kafka brokers.",
		},
	},

	// ===================
	// Configuration
	// ===================
	{
		err: ErrConfigNotFound,
		info: ErrorInfo{
			Message: "Configuration file not found.",
			Action:  "Create .reviewapp/config.yaml or pass --config.",
		},
	},
	{
		err: ErrConfigNil,
		info: ErrorInfo{
			Message: "Configuration is not loaded.",
			Action:  "Ensure the configuration file exists and is valid YAML.",
		},
	},
	{
		err: ErrConfigInvalidTarget,
		info: ErrorInfo{
			Message: "Invalid target configuration.",
			Action:  "Set TARGET_ORG, TARGET_ENV and TARGET_PROVIDER.",
		},
	},
	{
		err: ErrConfigInvalidPlatform,
		info: ErrorInfo{
			Message: "Invalid platform configuration.",
			Action:  "Check the 'platform', 'meta' and 'docker' sections.",
		},
	},
	{
		err: ErrConfigInvalidReview,
		info: ErrorInfo{
			Message: "Invalid review configuration.",
			Action:  "Check the 'review' section for the host prefix and domain suffix.",
		},
	},
	{
		err: ErrConfigInvalidGitLab,
		info: ErrorInfo{
			Message: "Invalid GitLab configuration.",
			Action:  "Check the 'gitlab' section.",
		},
	},
	{
		err: ErrConfigInvalidSlack,
		info: ErrorInfo{
			Message: "Invalid Slack configuration.",
			Action:  "Check the 'slack' section.",
		},
	},
	{
		err: ErrConfigInvalidKafka,
		info: ErrorInfo{
			Message: "Invalid Kafka configuration.",
			Action:  "Set kafka.brokers and kafka.topic or disable kafka.",
		},
	},
	{
		err: ErrConfigInvalidHistory,
		info: ErrorInfo{
			Message: "Invalid history configuration.",
			Action:  "Use history.backend memory or redis with history.redis_url.",
		},
	},
	{
		err: ErrConfigInvalidServer,
		info: ErrorInfo{
			Message: "Invalid server configuration.",
			Action:  "Check the 'server' section.",
		},
	},
	{
		err: ErrValueOutOfRange,
		info: ErrorInfo{
			Message: "Value is outside the allowed range.",
			Action:  "Check the documentation for valid value ranges.",
		},
	},
	{
		err: ErrEmptyValue,
		info: ErrorInfo{
			Message: "A required value was not provided.",
			Action:  "Provide the required value and try again.",
		},
	},
	{
		err: ErrInvalidOutputFormat,
		info: ErrorInfo{
			Message: "Unknown output format.",
			Action:  "Use --output text or --output json.",
		},
	},
	{
		err: ErrInvalidArgument,
		info: ErrorInfo{
			Message: "An invalid argument was provided.",
			Action:  "Check the command help for valid arguments.",
		},
	},
}

// errorInfoMap provides O(1) lookup for direct sentinel error matches.
//
//nolint:gochecknoglobals // Pre-built mapping for O(1) lookup performance
var errorInfoMap = buildErrorInfoMap()

func buildErrorInfoMap() map[error]ErrorInfo {
	m := make(map[error]ErrorInfo, len(errorInfoEntries))
	for _, entry := range errorInfoEntries {
		m[entry.err] = entry.info
	}
	return m
}

// getErrorInfo looks up the ErrorInfo for a given error.
// It first tries a direct map lookup for unwrapped sentinel errors,
// then falls back to errors.Is() traversal for wrapped errors.
func getErrorInfo(err error) ErrorInfo {
	if info, ok := errorInfoMap[err]; ok {
		return info
	}

	for _, entry := range errorInfoEntries {
		if errors.Is(err, entry.err) {
			return entry.info
		}
	}

	return ErrorInfo{Message: err.Error()}
}

// UserMessage returns a user-friendly message for common errors.
// For unrecognized errors, it returns the error's original message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	return getErrorInfo(err).Message
}

// Actionable returns a user-friendly error message along with a suggested
// action the user can take to resolve the issue.
func Actionable(err error) (message, action string) {
	if err == nil {
		return "", ""
	}
	info := getErrorInfo(err)
	return info.Message, info.Action
}
