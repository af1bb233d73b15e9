// Package analyzer tracks a multi-broker investment portfolio over time.
// It is designed to be local-first: everything the tool knows lives in a
// single zip archive that the user owns.
//
// The core functionalities include:
//   - Archive Persistence: a durable container holding the manifest, the
//     parsed-report cache and the raw broker report files.
//   - Report Ingestion: broker-specific report files are decoded into
//     normalized dated snapshots of holdings and cash-flow operations.
//   - Currency Normalization: foreign-currency valuations are converted
//     into the home currency using externally sourced daily exchange
//     rates, cached in the manifest once fetched.
//   - State Synchronization: an in-memory state rebuilt from the manifest
//     on every open, kept consistent with the durable manifest by
//     persisting after every mutation.
//   - Analytics: valuation time series, latest aggregated portfolio, and
//     target-allocation reports over tagged assets.
//
// This package serves as the foundational logic for the `anz` command-line
// tool.
package analyzer
