// Package github fetches pull request snapshots from the GitHub REST API.
//
// This adapter layer handles GitHub-specific concerns without polluting the
// domain layer. Key pieces include:
//
//   - Client: retrying HTTP client for the pulls, files, and comments endpoints
//   - MapPullRequest: assembles the wire responses into a domain snapshot
//   - LoadSnapshotFile: loads a captured snapshot for offline runs
//
// The design keeps the domain layer pure and platform-agnostic, enabling
// future support for GitLab, Bitbucket, or other platforms.
package github
