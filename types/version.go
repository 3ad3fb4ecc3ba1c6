package types

// Version is the canonical project version.
// The CLI, notification event contract and config schema share this version.
const Version = "0.3.0"

// EventContractVersion is the version of the ResultEvent payload shape
// published by notification adapters.
const EventContractVersion = "0.2.0"
