// Package review runs review app invocations: deploy (resolve the target,
// build the workload spec, create or patch the workload, point the GitLab
// environment at it and announce it) and stop (resolve the target and
// delete the workload).
//
// Every invocation produces a Result whose Lines are the invocation log.
// Fatal steps end the log with an "ERROR: " line and no done banner;
// registry problems are "WARNING: " lines; notification failures are logged
// and otherwise ignored.
//
// Import rules:
//   - CAN import: internal/clock, internal/config, internal/constants,
//     internal/ctxutil, internal/domain, internal/errors, internal/logging,
//     internal/metrics, internal/notify, internal/platform, internal/transport
//   - MUST NOT import: internal/cli, internal/server, internal/tui
package review
