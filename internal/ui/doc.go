// Package ui implements the interactive listening-insights dashboard using bubbletea's Elm architecture.
//
// The dashboard shows one time range at a time, switched with ←/→ or 1/2/3, and one of three panels
// (artists, tracks, genres) cycled with tab. Ranges already in the cache render immediately with no
// loading state; a miss shows a spinner until the fetch for that range returns.
//
// Fetches run as [tea.Cmd]s and report back with the range they were started for. [Model.Update]
// drops results for a range that is no longer selected, so a slow response can never overwrite
// a newer selection.
//
// Keyboard help is rendered with charmbracelet/bubbles/help; ? toggles the full key list.
package ui
