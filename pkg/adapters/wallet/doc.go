// Package wallet provides signing/action capability implementations.
//
// The factory creates capabilities based on provider configuration.
// Currently supports:
//   - devnet: simulated signing for development and demos
//
// Future providers:
//   - remote wallet services speaking the Aptos wallet standard
package wallet
