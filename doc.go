// Package rebalance provides a deterministic backtest engine for multi-asset
// index portfolios funded by a lump sum plus a daily contribution, and kept on
// target by a configurable rebalancing policy. It is designed to be
// local-first and reproducible: the same market data and the same scenario
// always produce the same result, byte for byte.
//
// The core functionalities include:
//   - Scenarios: Declarative descriptions of a backtest (capital, funding
//     window, target weights, rebalancing policy), loadable from YAML and
//     shipped with a set of built-in variants.
//   - Market Data: Storing normalized daily open/close series per index, with
//     calendar alignment across indices trading on different exchanges.
//   - Simulation: A three-phase forward pass (contributing, holding,
//     rebalancing) that produces the full daily holdings, valuation and
//     contribution tables, plus the log of every rebalancing event.
//   - Risk Metrics: Total and annualized returns, maximum drawdown,
//     volatility, Sharpe and Sortino ratios computed from the simulated path.
//   - Data Persistence: Encoding and decoding market data to and from
//     human-readable, version-controllable formats (JSONL and CSV).
//
// This package serves as the foundational logic for the `rbs` command-line
// tool, ensuring that all operations are consistent and based on a single
// source of truth.
package rebalance
